package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// WeatherObservation is a single current-conditions reading for a location.
// Only Temperature, Condition, and Humidity feed the feature conversion; the
// remaining fields are carried through for display and traceability.
type WeatherObservation struct {
	Location    string    `json:"location"`
	Temperature float64   `json:"temperature"` // °C
	Condition   string    `json:"condition"`   // free text, e.g. "Light rain"
	WindSpeed   float64   `json:"wind_speed"`  // km/h
	Humidity    int       `json:"humidity" validate:"min=0,max=100"`
	Pressure    float64   `json:"pressure"` // mb
	UVIndex     float64   `json:"uv_index"`
	Cloudiness  int       `json:"cloudiness" validate:"min=0,max=100"`
	FeelsLike   float64   `json:"feels_like"` // °C
	Visibility  float64   `json:"visibility"` // km
	ObservedAt  time.Time `json:"observed_at"`
}

// RawEvent represents an unprocessed message from the observation topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ParseObservation deserializes a RawEvent's value into a WeatherObservation.
// When the payload carries no observation time, the message timestamp is used.
func ParseObservation(raw RawEvent) (WeatherObservation, error) {
	var obs WeatherObservation
	if err := json.Unmarshal(raw.Value, &obs); err != nil {
		return WeatherObservation{}, fmt.Errorf("parse observation: %w", err)
	}
	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = raw.Timestamp
	}
	return obs, nil
}

// ObservationSource supplies current weather observations by location name.
type ObservationSource interface {
	Current(ctx context.Context, location string) (WeatherObservation, error)
}
