package stats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-report-bot/internal/domain"
)

func chartRegister(temp, humidity int) domain.Register {
	return domain.Register{
		Weather: domain.WeatherRecord{Temperature: temp, Humidity: humidity},
	}
}

func TestTemperatureHistogram(t *testing.T) {
	registers := []domain.Register{
		chartRegister(11, 70),
		chartRegister(12, 65),
		chartRegister(14, 80),
		chartRegister(22, 40),
		chartRegister(-3, 90),
	}

	bars := temperatureHistogram(registers)
	require.Len(t, bars, 3)

	// Buckets come out sorted; -3 floors into -5..0.
	assert.Equal(t, "-5..0", bars[0].Label)
	assert.Equal(t, 1, bars[0].Count)
	assert.Equal(t, "10..15", bars[1].Label)
	assert.Equal(t, 3, bars[1].Count)
	assert.Equal(t, "20..25", bars[2].Label)
	assert.Equal(t, 1, bars[2].Count)

	// The tallest bucket fills the plot height.
	assert.InDelta(t, plotHeight, bars[1].Height, 0.001)
	assert.InDelta(t, 0, bars[1].Y, 0.001)
	assert.InDelta(t, plotHeight/3, bars[0].Height, 0.001)
}

func TestTemperatureHistogram_Empty(t *testing.T) {
	assert.Nil(t, temperatureHistogram(nil))
}

func TestHumidityScatter(t *testing.T) {
	registers := []domain.Register{
		chartRegister(0, 0),
		chartRegister(10, 100),
		chartRegister(20, 50),
	}

	points := humidityScatter(registers)
	require.Len(t, points, 3)

	// Coldest at the left edge, driest at the bottom.
	assert.InDelta(t, 0, points[0].X, 0.001)
	assert.InDelta(t, plotHeight, points[0].Y, 0.001)
	// Full humidity sits at the top of the plot.
	assert.InDelta(t, plotWidth/2, points[1].X, 0.001)
	assert.InDelta(t, 0, points[1].Y, 0.001)
	// Warmest at the right edge.
	assert.InDelta(t, plotWidth, points[2].X, 0.001)
}

func TestHumidityScatter_SingleTemperature(t *testing.T) {
	points := humidityScatter([]domain.Register{
		chartRegister(15, 60),
		chartRegister(15, 60),
	})
	require.Len(t, points, 2)
	assert.InDelta(t, 0, points[0].X, 0.001)
}

func TestWriteCharts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stat", "charts.html")
	registers := []domain.Register{
		chartRegister(11, 70),
		chartRegister(22, 40),
	}

	require.NoError(t, WriteCharts(registers, path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(body)

	assert.Contains(t, html, "<svg")
	assert.Contains(t, html, "<rect")
	assert.Contains(t, html, "<circle")
	assert.Contains(t, html, "10..15")
	assert.Contains(t, html, "20..25")
}

func TestWriteCharts_NoRegisters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts.html")

	require.NoError(t, WriteCharts(nil, path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "No reports in this period.")
	assert.NotContains(t, string(body), "<rect")
}
