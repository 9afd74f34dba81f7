package weatherstack

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/couchcryptid/weather-report-bot/internal/domain"
	"github.com/couchcryptid/weather-report-bot/internal/observability"
)

// codeNotFound is the provider error code for an unresolvable place
// ("your api request failed, please try again or contact support").
const codeNotFound = 615

const maxQueryLen = 58

var queryPattern = regexp.MustCompile(`^[A-Za-z0-9_-]*$`)

// ValidateQuery reports whether a typed place name is safe to send
// upstream: at most 58 characters from [A-Za-z0-9_-]. Coordinate
// queries built from device geolocation bypass this check.
func ValidateQuery(query string) bool {
	return len(query) <= maxQueryLen && queryPattern.MatchString(query)
}

// ProviderError is a failure reported by the weatherstack API itself,
// as opposed to a transport failure reaching it.
type ProviderError struct {
	Code int
	Type string
	Info string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("weatherstack error %d (%s): %s", e.Code, e.Type, e.Info)
}

// NotFound reports whether the error means the queried place does not
// exist, which the user can fix by retyping the query.
func (e *ProviderError) NotFound() bool {
	return e.Code == codeNotFound
}

// Client fetches current conditions from the weatherstack API.
type Client struct {
	token      string
	units      string
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a weatherstack client. Unit selection and protocol
// are fixed at construction; the free plan only allows plain HTTP.
func NewClient(token, units string, useHTTPS bool, metrics *observability.Metrics, logger *slog.Logger) *Client {
	scheme := "http"
	if useHTTPS {
		scheme = "https"
	}
	return &Client{
		token: token,
		units: units,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: scheme + "://api.weatherstack.com/current",
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "weatherstack",
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed",
					"breaker", name, "from", from.String(), "to", to.String())
			},
		}),
		metrics: metrics,
		logger:  logger,
	}
}

// Current fetches the current conditions for a query, which is either a
// validated place name or a "lat,lon" pair. Provider-reported failures
// come back as *ProviderError; transport failures are wrapped errors.
func (c *Client) Current(ctx context.Context, query string) (domain.WeatherRecord, error) {
	params := url.Values{
		"query":      {query},
		"access_key": {c.token},
		"units":      {c.units},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.WeatherRecord{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (any, error) {
		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("weatherstack API error: status %d", resp.StatusCode)
		}

		var payload response
		if decErr := json.NewDecoder(resp.Body).Decode(&payload); decErr != nil {
			return nil, fmt.Errorf("decode response: %w", decErr)
		}
		return &payload, nil
	})
	c.metrics.ProviderDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues("error").Inc()
		return domain.WeatherRecord{}, fmt.Errorf("weatherstack request: %w", err)
	}

	payload := result.(*response)

	// The provider signals its own failures with HTTP 200 and a
	// success:false body.
	if payload.Success != nil && !*payload.Success {
		perr := &ProviderError{
			Code: payload.Error.Code,
			Type: payload.Error.Type,
			Info: payload.Error.Info,
		}
		if perr.NotFound() {
			c.metrics.ProviderRequests.WithLabelValues("not_found").Inc()
		} else {
			c.metrics.ProviderRequests.WithLabelValues("error").Inc()
		}
		return domain.WeatherRecord{}, perr
	}

	c.metrics.ProviderRequests.WithLabelValues("success").Inc()
	return payload.toRecord(), nil
}

// Weatherstack API response types.

type response struct {
	Success *bool `json:"success,omitempty"`
	Error   struct {
		Code int    `json:"code"`
		Type string `json:"type"`
		Info string `json:"info"`
	} `json:"error"`
	Location struct {
		Name           string `json:"name"`
		Country        string `json:"country"`
		Lat            string `json:"lat"`
		Lon            string `json:"lon"`
		LocaltimeEpoch int64  `json:"localtime_epoch"`
	} `json:"location"`
	Current struct {
		Temperature         int      `json:"temperature"`
		WeatherCode         int      `json:"weather_code"`
		WeatherDescriptions []string `json:"weather_descriptions"`
		WindSpeed           int      `json:"wind_speed"`
		WindDegree          int      `json:"wind_degree"`
		WindDir             string   `json:"wind_dir"`
		Pressure            int      `json:"pressure"`
		Precip              float64  `json:"precip"`
		Humidity            int      `json:"humidity"`
		CloudCover          int      `json:"cloudcover"`
		FeelsLike           int      `json:"feelslike"`
		UVIndex             int      `json:"uv_index"`
		Visibility          int      `json:"visibility"`
		IsDay               string   `json:"is_day"` // "yes" or "no"
	} `json:"current"`
}

// toRecord maps the provider payload into the internal record shape.
// Lat/lon arrive as strings; unparseable or absent optional fields
// stay zero rather than failing the whole request.
func (r *response) toRecord() domain.WeatherRecord {
	return domain.WeatherRecord{
		Country:             r.Location.Country,
		Region:              r.Location.Name,
		Lat:                 parseCoord(r.Location.Lat),
		Lon:                 parseCoord(r.Location.Lon),
		Temperature:         r.Current.Temperature,
		WeatherCode:         r.Current.WeatherCode,
		WeatherDescriptions: r.Current.WeatherDescriptions,
		WindSpeed:           r.Current.WindSpeed,
		WindDegree:          r.Current.WindDegree,
		WindDir:             r.Current.WindDir,
		Pressure:            r.Current.Pressure,
		Precip:              int(r.Current.Precip),
		Humidity:            r.Current.Humidity,
		CloudCover:          r.Current.CloudCover,
		FeelsLike:           r.Current.FeelsLike,
		UVIndex:             r.Current.UVIndex,
		Visibility:          r.Current.Visibility,
		IsDay:               r.Current.IsDay == "yes",
		LocalTime:           r.Location.LocaltimeEpoch,
	}
}

func parseCoord(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
