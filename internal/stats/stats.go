// Package stats summarizes the register log and renders it as a map.
package stats

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/weather-report-bot/internal/domain"
)

// Source is the slice of the store the statistics need.
type Source interface {
	UserCount() (int, error)
	RegistersSince(epoch int64) ([]domain.Register, error)
}

// Summary aggregates the register log since a given epoch. Temperature
// fields are zero when no register matched.
type Summary struct {
	Users          int
	Registers      int
	MinTemperature int
	MaxTemperature int
	AvgTemperature float64
}

// Report computes a Summary over all registers with server_time at or
// after sinceEpoch. An empty log is not an error.
func Report(src Source, sinceEpoch int64) (Summary, error) {
	users, err := src.UserCount()
	if err != nil {
		return Summary{}, fmt.Errorf("count users: %w", err)
	}

	registers, err := src.RegistersSince(sinceEpoch)
	if err != nil {
		return Summary{}, fmt.Errorf("load registers: %w", err)
	}

	s := Summary{Users: users, Registers: len(registers)}
	if len(registers) == 0 {
		return s, nil
	}

	sum := 0
	s.MinTemperature = registers[0].Weather.Temperature
	s.MaxTemperature = registers[0].Weather.Temperature
	for _, r := range registers {
		t := r.Weather.Temperature
		sum += t
		if t < s.MinTemperature {
			s.MinTemperature = t
		}
		if t > s.MaxTemperature {
			s.MaxTemperature = t
		}
	}
	s.AvgTemperature = float64(sum) / float64(len(registers))
	return s, nil
}

type marker struct {
	Lat   float64
	Lon   float64
	Color string
	Popup string
}

type mapData struct {
	CenterLat float64
	CenterLon float64
	Markers   []marker
}

var mapTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Weather report requests</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLon}}], 3);
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
	attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);
{{range .Markers}}L.circleMarker([{{.Lat}}, {{.Lon}}], {color: {{.Color}}, radius: 8})
	.addTo(map)
	.bindPopup({{.Popup}});
{{end}}</script>
</body>
</html>
`))

// WriteMap renders a self-contained Leaflet page with one marker per
// register. Green markers come from typed place names, red ones from
// device geolocation. The popup carries the username, the weather
// description, and the temperature.
func WriteMap(registers []domain.Register, path string) error {
	data := mapData{Markers: make([]marker, 0, len(registers))}
	for _, r := range registers {
		color := "red"
		if r.IsRealLocation {
			color = "green"
		}
		data.Markers = append(data.Markers, marker{
			Lat:   r.Weather.Lat,
			Lon:   r.Weather.Lon,
			Color: color,
			Popup: fmt.Sprintf("%s, %s, %d°C",
				r.Username,
				strings.Join(r.Weather.WeatherDescriptions, ", "),
				r.Weather.Temperature),
		})
	}
	if len(data.Markers) > 0 {
		data.CenterLat = data.Markers[0].Lat
		data.CenterLon = data.Markers[0].Lon
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create map directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create map file: %w", err)
	}
	defer f.Close()

	if err := mapTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("render map: %w", err)
	}
	return nil
}
