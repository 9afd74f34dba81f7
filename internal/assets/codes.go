package assets

import (
	"encoding/xml"
	"fmt"
	"os"
)

// Condition is one entry of the provider's condition-code table.
type Condition struct {
	Code        int    `xml:"code"`
	Description string `xml:"description"`
	DayIcon     string `xml:"day_icon"`
	NightIcon   string `xml:"night_icon"`
}

type codesDocument struct {
	XMLName    xml.Name    `xml:"codes"`
	Conditions []Condition `xml:"condition"`
}

// LoadConditionCodes parses the provider's condition-code XML into a
// code-keyed table. The file is read once at startup and the table is
// read-only afterward.
func LoadConditionCodes(path string) (map[int]Condition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read condition codes: %w", err)
	}

	var doc codesDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse condition codes: %w", err)
	}

	table := make(map[int]Condition, len(doc.Conditions))
	for _, cond := range doc.Conditions {
		table[cond.Code] = cond
	}
	return table, nil
}
