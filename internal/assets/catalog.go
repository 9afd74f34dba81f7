package assets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Bucket identifies one of the fixed background categories a weather
// code resolves to. Day/night only disambiguates the clear and cloudy
// categories; every other category uses one background around the clock.
type Bucket int

const (
	BucketUnknown Bucket = iota
	BucketSunnyDay
	BucketSkyNight
	BucketCloudyDay
	BucketCloudyNight
	BucketRainy
	BucketThunder
	BucketSnow
	BucketFog
)

func (b Bucket) String() string {
	switch b {
	case BucketSunnyDay:
		return "sunny_day"
	case BucketSkyNight:
		return "sky_night"
	case BucketCloudyDay:
		return "cloudy_day"
	case BucketCloudyNight:
		return "cloudy_night"
	case BucketRainy:
		return "rainy"
	case BucketThunder:
		return "thunder"
	case BucketSnow:
		return "snow"
	case BucketFog:
		return "fog"
	default:
		return "unknown"
	}
}

// bucketInfo is the side table mapping a bucket to its background file,
// canvas geometry, and whether text needs a light color for contrast.
type bucketInfo struct {
	file   string
	dark   bool
	width  int
	height int
}

// All buckets render on the same canvas today, but geometry stays in the
// table so one bucket can change size without touching callers.
var bucketTable = map[Bucket]bucketInfo{
	BucketSunnyDay:    {file: "01.png", dark: false, width: 800, height: 656},
	BucketSkyNight:    {file: "02.png", dark: true, width: 800, height: 656},
	BucketCloudyDay:   {file: "03.png", dark: false, width: 800, height: 656},
	BucketCloudyNight: {file: "04.png", dark: true, width: 800, height: 656},
	BucketRainy:       {file: "05.png", dark: true, width: 800, height: 656},
	BucketThunder:     {file: "06.png", dark: true, width: 800, height: 656},
	BucketSnow:        {file: "07.png", dark: true, width: 800, height: 656},
	BucketFog:         {file: "08.png", dark: false, width: 800, height: 656},
	BucketUnknown:     {file: "unknown.png", dark: false, width: 800, height: 656},
}

// Weatherstack condition code sets, matched in declaration order.
// The sets are disjoint except that the snow-with-thunder codes
// (392, 395) belong to snow because snow is matched first.
var (
	snowCodes = codeSet(179, 182, 185, 227, 230, 320, 323, 326, 329,
		332, 335, 338, 350, 368, 371, 374, 377, 392, 395)
	thunderCodes = codeSet(200, 386, 389)
	cloudyCodes  = codeSet(116, 119, 122)
	rainCodes    = codeSet(176, 263, 266, 281, 284, 293, 296, 299, 302,
		305, 308, 311, 314, 317, 353, 356, 359, 362, 365)
	fogCodes = codeSet(143, 248, 260)
)

const clearCode = 113

func codeSet(codes ...int) map[int]struct{} {
	s := make(map[int]struct{}, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Config points the catalog at its asset directories and the
// condition-code table. Tests aim it at fixture directories.
type Config struct {
	BackgroundDir string
	IconDir       string
	CodesPath     string
}

// Catalog maps weather codes, day/night, and temperature to the asset
// files and canvas geometry a report renders with. Pure lookups after
// construction.
type Catalog struct {
	backgroundDir string
	iconDir       string
	codes         map[int]Condition
	logger        *slog.Logger
}

// NewCatalog builds a catalog from the given directories. Missing
// directories or code table are configuration warnings, not errors:
// lookups degrade to the unknown entries and the render step reports
// the missing file if one is actually needed.
func NewCatalog(cfg Config, logger *slog.Logger) *Catalog {
	if _, err := os.Stat(cfg.BackgroundDir); err != nil {
		logger.Warn("background directory not found", "dir", cfg.BackgroundDir)
	}
	if _, err := os.Stat(cfg.IconDir); err != nil {
		logger.Warn("icon directory not found", "dir", cfg.IconDir)
	}

	codes, err := LoadConditionCodes(cfg.CodesPath)
	if err != nil {
		logger.Warn("condition code table not loaded", "path", cfg.CodesPath, "error", err)
		codes = map[int]Condition{}
	}

	return &Catalog{
		backgroundDir: cfg.BackgroundDir,
		iconDir:       cfg.IconDir,
		codes:         codes,
		logger:        logger,
	}
}

// Classify resolves a provider weather code to its background bucket.
// First match wins; a code in none of the sets maps to BucketUnknown
// with a warning rather than an error.
func (c *Catalog) Classify(code int, isDay bool) Bucket {
	b := classify(code, isDay)
	if b == BucketUnknown {
		c.logger.Warn("unknown weather code", "code", code)
	}
	return b
}

func classify(code int, isDay bool) Bucket {
	switch {
	case contains(snowCodes, code):
		return BucketSnow
	case contains(thunderCodes, code):
		return BucketThunder
	case contains(cloudyCodes, code):
		if isDay {
			return BucketCloudyDay
		}
		return BucketCloudyNight
	case contains(rainCodes, code):
		return BucketRainy
	case code == clearCode:
		if isDay {
			return BucketSunnyDay
		}
		return BucketSkyNight
	case contains(fogCodes, code):
		return BucketFog
	default:
		return BucketUnknown
	}
}

func contains(set map[int]struct{}, code int) bool {
	_, ok := set[code]
	return ok
}

// Geometry returns the canvas size for a bucket.
func (c *Catalog) Geometry(b Bucket) (width, height int) {
	info := bucketTable[b]
	return info.width, info.height
}

// BackgroundPath returns the background file for a bucket and whether
// the background is dark (so foreground text must render light).
func (c *Catalog) BackgroundPath(b Bucket) (path string, dark bool) {
	info := bucketTable[b]
	return filepath.Join(c.backgroundDir, info.file), info.dark
}

// ConditionIcon returns the icon file for a weather code, choosing the
// day or night variant. Unknown codes fall back to the unknown icon.
func (c *Catalog) ConditionIcon(code int, isDay bool) string {
	cond, ok := c.codes[code]
	if !ok {
		c.logger.Warn("no icon for weather code", "code", code)
		return filepath.Join(c.iconDir, "unknown.png")
	}
	icon := cond.NightIcon
	if isDay {
		icon = cond.DayIcon
	}
	return filepath.Join(c.iconDir, icon+".png")
}

// TemperatureIcon returns the temperature-band icon: hot above 30,
// cold below 10, cool for the inclusive [10,30] band.
func (c *Catalog) TemperatureIcon(temperature int) string {
	var name string
	switch {
	case temperature > 30:
		name = "hot"
	case temperature < 10:
		name = "cold"
	default:
		name = "cool"
	}
	return filepath.Join(c.iconDir, name+".png")
}

// Description returns the table description for a code, or a formatted
// placeholder when the code is not in the table.
func (c *Catalog) Description(code int) string {
	if cond, ok := c.codes[code]; ok {
		return cond.Description
	}
	return fmt.Sprintf("condition %d", code)
}
