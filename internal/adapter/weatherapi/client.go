// Package weatherapi fetches current conditions from WeatherAPI.com.
package weatherapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/training-suitability/internal/domain"
	"github.com/couchcryptid/training-suitability/internal/observability"
)

const defaultBaseURL = "https://api.weatherapi.com/v1"

// Client implements domain.ObservationSource using the WeatherAPI.com
// current-conditions endpoint.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a WeatherAPI.com client.
func NewClient(apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Current returns the latest observation for location, which may be a city
// name, postcode, or "lat,lon" pair.
func (c *Client) Current(ctx context.Context, location string) (domain.WeatherObservation, error) {
	params := url.Values{
		"key": {c.apiKey},
		"q":   {location},
		"aqi": {"no"},
	}
	u := c.baseURL + "/current.json?" + params.Encode()

	start := time.Now()
	obs, err := c.fetch(ctx, u)
	c.metrics.WeatherAPIDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		c.logger.Warn("weather lookup failed", "location", location, "error", err)
		return domain.WeatherObservation{}, err
	}
	c.metrics.WeatherRequests.WithLabelValues("success").Inc()
	return obs, nil
}

func (c *Client) fetch(ctx context.Context, fullURL string) (domain.WeatherObservation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.WeatherObservation{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WeatherObservation{}, fmt.Errorf("current conditions request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return domain.WeatherObservation{}, fmt.Errorf("weatherapi error %d: %s", apiErr.Error.Code, apiErr.Error.Message)
		}
		return domain.WeatherObservation{}, fmt.Errorf("weatherapi: status %d: %s", resp.StatusCode, body)
	}

	var cur response
	if err := json.NewDecoder(resp.Body).Decode(&cur); err != nil {
		return domain.WeatherObservation{}, fmt.Errorf("decode response: %w", err)
	}
	return cur.observation(), nil
}

// WeatherAPI.com response types.

type response struct {
	Location struct {
		Name    string `json:"name"`
		Region  string `json:"region"`
		Country string `json:"country"`
	} `json:"location"`
	Current struct {
		LastUpdatedEpoch int64   `json:"last_updated_epoch"`
		TempC            float64 `json:"temp_c"`
		Condition        struct {
			Text string `json:"text"`
		} `json:"condition"`
		WindKPH    float64 `json:"wind_kph"`
		PressureMB float64 `json:"pressure_mb"`
		Humidity   int     `json:"humidity"`
		Cloud      int     `json:"cloud"`
		FeelsLikeC float64 `json:"feelslike_c"`
		VisKM      float64 `json:"vis_km"`
		UV         float64 `json:"uv"`
	} `json:"current"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r response) observation() domain.WeatherObservation {
	obs := domain.WeatherObservation{
		Location:    r.Location.Name,
		Temperature: r.Current.TempC,
		Condition:   r.Current.Condition.Text,
		WindSpeed:   r.Current.WindKPH,
		Humidity:    r.Current.Humidity,
		Pressure:    r.Current.PressureMB,
		UVIndex:     r.Current.UV,
		Cloudiness:  r.Current.Cloud,
		FeelsLike:   r.Current.FeelsLikeC,
		Visibility:  r.Current.VisKM,
	}
	if r.Current.LastUpdatedEpoch > 0 {
		obs.ObservedAt = time.Unix(r.Current.LastUpdatedEpoch, 0).UTC()
	}
	return obs
}
