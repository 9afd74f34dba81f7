// Package render composes a weather report card: background, frosted
// glass info panel, condition icons, and text blocks.
package render

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/couchcryptid/weather-report-bot/internal/assets"
	"github.com/couchcryptid/weather-report-bot/internal/domain"
	"github.com/couchcryptid/weather-report-bot/internal/observability"
)

// Layout fractions of the canvas. The reference canvas is 800×656; the
// fractions keep the layout stable if a bucket ever changes geometry.
const (
	panelX      = 0.0625 // 5% inset each side, rounded rect panel
	panelY      = 0.4573
	panelW      = 0.8750
	panelH      = 0.4665
	panelRadius = 25.0

	iconScale = 0.4
	iconY     = 0.0762
	condIconX = 0.1250
	tempIconX = 0.4500

	tempTextX    = 0.6375
	tempTextY    = 0.1448
	tempFontSize = 70.0

	centerFontSize = 30.0
	regionY        = 0.4878
	descriptionY   = 0.5488

	blockFontSize = 25.0
	blockY        = 0.6555
	leftBlockX    = 0.1125
	rightBlockX   = 0.8875
	blockLeading  = 1.3

	blurSigma = 8.0
)

// Renderer draws report cards using the asset catalog's backgrounds and
// icons. A missing asset or font is an error for that render call, not
// a silent substitution.
type Renderer struct {
	catalog  *assets.Catalog
	fontPath string
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New creates a Renderer. The font file is checked at first use, not
// construction, so a bad path surfaces as a render error.
func New(catalog *assets.Catalog, fontPath string, metrics *observability.Metrics, logger *slog.Logger) *Renderer {
	return &Renderer{
		catalog:  catalog,
		fontPath: fontPath,
		metrics:  metrics,
		logger:   logger,
	}
}

// Render composes the full report image for a weather record. Output is
// deterministic for identical inputs and asset files.
func (r *Renderer) Render(rec domain.WeatherRecord) (image.Image, error) {
	start := time.Now()

	bucket := r.catalog.Classify(rec.WeatherCode, rec.IsDay)
	width, height := r.catalog.Geometry(bucket)
	bgPath, dark := r.catalog.BackgroundPath(bucket)

	background, err := loadImage(bgPath)
	if err != nil {
		return nil, err
	}
	if background.Bounds().Dx() != width || background.Bounds().Dy() != height {
		background = imaging.Resize(background, width, height, imaging.Lanczos)
	}

	dc := gg.NewContext(width, height)
	dc.DrawImage(background, 0, 0)

	// Frosted glass panel: blur the whole background, then clip the
	// blurred copy to the rounded rect so only the panel region shows it.
	blurred := imaging.Blur(background, blurSigma)
	fw, fh := float64(width), float64(height)
	dc.DrawRoundedRectangle(panelX*fw, panelY*fh, panelW*fw, panelH*fh, panelRadius)
	dc.Clip()
	dc.DrawImage(blurred, 0, 0)
	dc.ResetClip()

	if err := r.drawIcon(dc, r.catalog.ConditionIcon(rec.WeatherCode, rec.IsDay), condIconX*fw, iconY*fh); err != nil {
		return nil, err
	}
	if err := r.drawIcon(dc, r.catalog.TemperatureIcon(rec.Temperature), tempIconX*fw, iconY*fh); err != nil {
		return nil, err
	}

	if dark {
		dc.SetRGBA(0.85, 0.85, 0.85, 0.92)
	} else {
		dc.SetRGBA(0, 0, 0, 0.78)
	}

	if err := dc.LoadFontFace(r.fontPath, tempFontSize); err != nil {
		return nil, fmt.Errorf("load font %s: %w", r.fontPath, err)
	}
	dc.DrawString(fmt.Sprintf("%d °C", rec.Temperature), tempTextX*fw, tempTextY*fh+tempFontSize)

	if err := dc.LoadFontFace(r.fontPath, centerFontSize); err != nil {
		return nil, fmt.Errorf("load font %s: %w", r.fontPath, err)
	}
	dc.DrawStringAnchored(fmt.Sprintf("%s, %s", rec.Region, rec.Country), fw/2, regionY*fh+centerFontSize, 0.5, 0)
	dc.DrawStringAnchored(strings.Join(rec.WeatherDescriptions, ", "), fw/2, descriptionY*fh+centerFontSize, 0.5, 0)

	if err := dc.LoadFontFace(r.fontPath, blockFontSize); err != nil {
		return nil, fmt.Errorf("load font %s: %w", r.fontPath, err)
	}
	drawLines(dc, leftLines(rec), leftBlockX*fw, blockY*fh, 0)
	drawLines(dc, rightLines(rec), rightBlockX*fw, blockY*fh, 1)

	r.metrics.RenderDuration.Observe(time.Since(start).Seconds())
	return dc.Image(), nil
}

// RenderFile renders the record and writes the image as PNG to path,
// creating parent directories as needed.
func (r *Renderer) RenderFile(rec domain.WeatherRecord, path string) error {
	img, err := r.Render(rec)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save report image: %w", err)
	}
	return nil
}

func (r *Renderer) drawIcon(dc *gg.Context, path string, x, y float64) error {
	icon, err := loadImage(path)
	if err != nil {
		return err
	}
	w := int(float64(icon.Bounds().Dx()) * iconScale)
	scaled := imaging.Resize(icon, w, 0, imaging.Lanczos)
	dc.DrawImage(scaled, int(x), int(y))
	return nil
}

func loadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load asset %s: %w", path, err)
	}
	return img, nil
}

// drawLines draws a block of text lines. ax 0 anchors lines at their
// left edge, ax 1 at their right edge.
func drawLines(dc *gg.Context, lines []string, x, y float64, ax float64) {
	for i, line := range lines {
		baseline := y + blockFontSize + float64(i)*blockFontSize*blockLeading
		dc.DrawStringAnchored(line, x, baseline, ax, 0)
	}
}

func leftLines(rec domain.WeatherRecord) []string {
	return []string{
		fmt.Sprintf("Wind speed : %d Km/H", rec.WindSpeed),
		fmt.Sprintf("Wind degree : %d°", rec.WindDegree),
		fmt.Sprintf("Wind dir : %s", rec.WindDir),
		fmt.Sprintf("Pressure : %d MB", rec.Pressure),
		fmt.Sprintf("Precip : %d MM", rec.Precip),
	}
}

func rightLines(rec domain.WeatherRecord) []string {
	return []string{
		fmt.Sprintf("Humidity : %d", rec.Humidity),
		fmt.Sprintf("Cloud cover : %d", rec.CloudCover),
		fmt.Sprintf("Feelslike : %d °C", rec.FeelsLike),
		fmt.Sprintf("UV index : %d", rec.UVIndex),
		fmt.Sprintf("Visibility : %d Km", rec.Visibility),
	}
}
