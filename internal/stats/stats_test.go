package stats

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-report-bot/internal/domain"
)

type fakeSource struct {
	users     int
	registers []domain.Register
	err       error
}

func (f *fakeSource) UserCount() (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.users, nil
}

func (f *fakeSource) RegistersSince(_ int64) ([]domain.Register, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.registers, nil
}

func register(username string, temp int, lat, lon float64, real bool) domain.Register {
	return domain.Register{
		Username:       username,
		IsRealLocation: real,
		Weather: domain.WeatherRecord{
			Temperature:         temp,
			Lat:                 lat,
			Lon:                 lon,
			WeatherDescriptions: []string{"Partly cloudy"},
		},
	}
}

func TestReport(t *testing.T) {
	src := &fakeSource{users: 2, registers: []domain.Register{
		register("ada", 11, 53.4, -2.1, true),
		register("ada", -3, 59.3, 18.1, false),
		register("grace", 28, 40.4, -3.7, true),
	}}

	s, err := Report(src, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, s.Users)
	assert.Equal(t, 3, s.Registers)
	assert.Equal(t, -3, s.MinTemperature)
	assert.Equal(t, 28, s.MaxTemperature)
	assert.InDelta(t, 12.0, s.AvgTemperature, 0.001)
}

func TestReport_EmptyLog(t *testing.T) {
	s, err := Report(&fakeSource{users: 5}, 0)
	require.NoError(t, err)

	assert.Equal(t, 5, s.Users)
	assert.Equal(t, 0, s.Registers)
	assert.Zero(t, s.MinTemperature)
	assert.Zero(t, s.MaxTemperature)
	assert.Zero(t, s.AvgTemperature)
}

func TestReport_SourceError(t *testing.T) {
	_, err := Report(&fakeSource{err: errors.New("database is closed")}, 0)
	assert.Error(t, err)
}

func TestWriteMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stat", "map.html")
	registers := []domain.Register{
		register("ada", 11, 53.4, -2.1, true),
		register("grace", 28, 40.4, -3.7, false),
	}

	require.NoError(t, WriteMap(registers, path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(body)

	assert.Contains(t, html, "leaflet")
	assert.Contains(t, html, `"green"`)
	assert.Contains(t, html, `"red"`)
	assert.Contains(t, html, "ada, Partly cloudy, 11°C")
	assert.Contains(t, html, "grace, Partly cloudy, 28°C")
	// First register anchors the initial view.
	assert.Regexp(t, `setView\(\[\s*53\.4\s*,\s*-2\.1\s*\], 3\)`, html)
}

func TestWriteMap_NoRegisters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.html")

	require.NoError(t, WriteMap(nil, path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Regexp(t, `setView\(\[\s*0\s*,\s*0\s*\], 3\)`, string(body))
	assert.NotContains(t, string(body), "circleMarker")
}
