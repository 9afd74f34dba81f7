package stats

import (
	"fmt"
	"html/template"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/couchcryptid/weather-report-bot/internal/domain"
)

// Chart canvas geometry. Bars and points are laid out inside a fixed
// plot area with room left for axis labels.
const (
	chartWidth  = 640.0
	chartHeight = 300.0
	plotWidth   = 600.0
	plotHeight  = 260.0
	bucketSize  = 5
)

type histogramBar struct {
	Label  string
	Count  int
	X      float64
	Y      float64
	Width  float64
	Height float64
}

type scatterPoint struct {
	X float64
	Y float64
}

type chartData struct {
	Width   float64
	Height  float64
	Bars    []histogramBar
	Points  []scatterPoint
	HasData bool
}

var chartsTemplate = template.Must(template.New("charts").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Weather report statistics</title>
<style>body { font-family: sans-serif; } svg { border: 1px solid #ccc; } text { font-size: 11px; }</style>
</head>
<body>
{{if .HasData}}
<h2>Temperature distribution (°C)</h2>
<svg width="{{.Width}}" height="{{.Height}}">
{{range .Bars}}<rect x="{{.X}}" y="{{.Y}}" width="{{.Width}}" height="{{.Height}}" fill="steelblue"></rect>
<text x="{{.X}}" y="295">{{.Label}}</text>
{{end}}</svg>
<h2>Temperature vs humidity</h2>
<svg width="{{.Width}}" height="{{.Height}}">
{{range .Points}}<circle cx="{{.X}}" cy="{{.Y}}" r="4" fill="indianred"></circle>
{{end}}</svg>
{{else}}
<p>No reports in this period.</p>
{{end}}
</body>
</html>
`))

// temperatureHistogram buckets register temperatures into 5°C bins and
// lays them out as bars scaled to the tallest bin.
func temperatureHistogram(registers []domain.Register) []histogramBar {
	if len(registers) == 0 {
		return nil
	}

	counts := map[int]int{}
	for _, r := range registers {
		bucket := int(math.Floor(float64(r.Weather.Temperature)/bucketSize)) * bucketSize
		counts[bucket]++
	}

	buckets := make([]int, 0, len(counts))
	maxCount := 0
	for b, c := range counts {
		buckets = append(buckets, b)
		if c > maxCount {
			maxCount = c
		}
	}
	sort.Ints(buckets)

	barWidth := plotWidth / float64(len(buckets))
	bars := make([]histogramBar, 0, len(buckets))
	for i, b := range buckets {
		h := plotHeight * float64(counts[b]) / float64(maxCount)
		bars = append(bars, histogramBar{
			Label:  fmt.Sprintf("%d..%d", b, b+bucketSize),
			Count:  counts[b],
			X:      float64(i) * barWidth,
			Y:      plotHeight - h,
			Width:  barWidth - 2,
			Height: h,
		})
	}
	return bars
}

// humidityScatter places one point per register: temperature on the x
// axis, relative humidity on the y axis (100% at the top).
func humidityScatter(registers []domain.Register) []scatterPoint {
	if len(registers) == 0 {
		return nil
	}

	minT := registers[0].Weather.Temperature
	maxT := minT
	for _, r := range registers {
		t := r.Weather.Temperature
		if t < minT {
			minT = t
		}
		if t > maxT {
			maxT = t
		}
	}
	span := float64(maxT - minT)
	if span == 0 {
		span = 1
	}

	points := make([]scatterPoint, 0, len(registers))
	for _, r := range registers {
		points = append(points, scatterPoint{
			X: float64(r.Weather.Temperature-minT) / span * plotWidth,
			Y: plotHeight - float64(r.Weather.Humidity)/100*plotHeight,
		})
	}
	return points
}

// WriteCharts renders the temperature histogram and the temperature-vs-
// humidity scatter as a self-contained SVG page. An empty register log
// produces a valid page stating so.
func WriteCharts(registers []domain.Register, path string) error {
	data := chartData{
		Width:   chartWidth,
		Height:  chartHeight,
		Bars:    temperatureHistogram(registers),
		Points:  humidityScatter(registers),
		HasData: len(registers) > 0,
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create charts directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create charts file: %w", err)
	}
	defer f.Close()

	if err := chartsTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("render charts: %w", err)
	}
	return nil
}
