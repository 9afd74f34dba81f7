package weatherstack

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-report-bot/internal/observability"
)

const testToken = "ws-test-token"

func testClient(baseURL string) *Client {
	c := NewClient(testToken, "m", false, observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.baseURL = baseURL
	c.httpClient = &http.Client{Timeout: 5 * time.Second}
	return c
}

const successBody = `{
	"location": {
		"name": "Stockport",
		"country": "United Kingdom",
		"lat": "53.417",
		"lon": "-2.167",
		"localtime_epoch": 1696243800
	},
	"current": {
		"temperature": 11,
		"weather_code": 116,
		"weather_descriptions": ["Partly cloudy"],
		"wind_speed": 6,
		"wind_degree": 190,
		"wind_dir": "S",
		"pressure": 1012,
		"precip": 0,
		"humidity": 87,
		"cloudcover": 75,
		"feelslike": 8,
		"uv_index": 1,
		"visibility": 10,
		"is_day": "yes"
	}
}`

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"simple place", "Stockport", true},
		{"allowed punctuation", "New-York_1", true},
		{"empty", "", true},
		{"max length", strings.Repeat("a", 58), true},
		{"too long", strings.Repeat("a", 59), false},
		{"injection attempt", "Paris;DROP", false},
		{"space", "New York", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateQuery(tt.query))
		})
	}
}

func TestCurrent_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Stockport", r.URL.Query().Get("query"))
		assert.Equal(t, testToken, r.URL.Query().Get("access_key"))
		assert.Equal(t, "m", r.URL.Query().Get("units"))

		w.Header().Set("Content-Type", "application/json")
		_, err := w.Write([]byte(successBody))
		require.NoError(t, err)
	}))
	defer srv.Close()

	rec, err := testClient(srv.URL).Current(context.Background(), "Stockport")
	require.NoError(t, err)

	assert.Equal(t, "United Kingdom", rec.Country)
	assert.Equal(t, "Stockport", rec.Region)
	assert.InDelta(t, 53.417, rec.Lat, 1e-9)
	assert.InDelta(t, -2.167, rec.Lon, 1e-9)
	assert.Equal(t, 11, rec.Temperature)
	assert.Equal(t, 116, rec.WeatherCode)
	assert.Equal(t, []string{"Partly cloudy"}, rec.WeatherDescriptions)
	assert.Equal(t, 6, rec.WindSpeed)
	assert.Equal(t, "S", rec.WindDir)
	assert.Equal(t, 1012, rec.Pressure)
	assert.Equal(t, 87, rec.Humidity)
	assert.Equal(t, 8, rec.FeelsLike)
	assert.True(t, rec.IsDay)
	assert.Equal(t, int64(1696243800), rec.LocalTime)
}

func TestCurrent_NightFlag(t *testing.T) {
	body := strings.Replace(successBody, `"is_day": "yes"`, `"is_day": "no"`, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body)) //nolint:errcheck
	}))
	defer srv.Close()

	rec, err := testClient(srv.URL).Current(context.Background(), "Stockport")
	require.NoError(t, err)
	assert.False(t, rec.IsDay)
}

func TestCurrent_MissingOptionalFields(t *testing.T) {
	// No feelslike, uv_index, or visibility; lat/lon absent too.
	body := `{
		"location": {"name": "Nowhere", "country": "Atlantis", "localtime_epoch": 100},
		"current": {"temperature": 20, "weather_code": 113, "weather_descriptions": ["Sunny"], "is_day": "yes"}
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body)) //nolint:errcheck
	}))
	defer srv.Close()

	rec, err := testClient(srv.URL).Current(context.Background(), "Nowhere")
	require.NoError(t, err)

	assert.Equal(t, 20, rec.Temperature)
	assert.Zero(t, rec.FeelsLike)
	assert.Zero(t, rec.UVIndex)
	assert.Zero(t, rec.Visibility)
	assert.Zero(t, rec.Lat)
	assert.Zero(t, rec.Lon)
}

func TestCurrent_PlaceNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": false, "error": {"code": 615, "type": "request_failed", "info": "Your API request failed."}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Current(context.Background(), "Xyzzy")
	require.Error(t, err)

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 615, perr.Code)
	assert.True(t, perr.NotFound())
}

func TestCurrent_OtherProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": false, "error": {"code": 104, "type": "usage_limit_reached", "info": "monthly usage limit reached"}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Current(context.Background(), "Stockport")
	require.Error(t, err)

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 104, perr.Code)
	assert.False(t, perr.NotFound())
	assert.Contains(t, perr.Error(), "usage_limit_reached")
}

func TestCurrent_HTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Current(context.Background(), "Stockport")
	require.Error(t, err)

	var perr *ProviderError
	assert.False(t, errors.As(err, &perr))
}

func TestCurrent_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	var logs bytes.Buffer
	c := NewClient(testToken, "m", false, observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(&logs, nil)))
	c.baseURL = srv.URL
	c.httpClient = &http.Client{Timeout: 5 * time.Second}

	// The breaker trips after more than five consecutive failures.
	for i := 0; i < 6; i++ {
		_, err := c.Current(context.Background(), "Stockport")
		require.Error(t, err)
	}

	_, err := c.Current(context.Background(), "Stockport")
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Contains(t, logs.String(), "circuit breaker state changed")
	assert.Contains(t, logs.String(), "to=open")
}

func TestCurrent_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections

	_, err := testClient(srv.URL).Current(context.Background(), "Stockport")
	require.Error(t, err)

	var perr *ProviderError
	assert.False(t, errors.As(err, &perr))
}
