package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObservation(t *testing.T) {
	msgTime := time.Date(2026, 4, 9, 8, 0, 0, 0, time.UTC)

	t.Run("full payload", func(t *testing.T) {
		raw := RawEvent{
			Value: []byte(`{"location":"London","temperature":22.5,"condition":"Partly cloudy","wind_speed":11.2,` +
				`"humidity":55,"pressure":1012,"uv_index":4,"cloudiness":25,"feels_like":22,"visibility":10,` +
				`"observed_at":"2026-04-09T07:45:00Z"}`),
			Timestamp: msgTime,
		}

		obs, err := ParseObservation(raw)
		require.NoError(t, err)
		assert.Equal(t, "London", obs.Location)
		assert.InDelta(t, 22.5, obs.Temperature, 0.0001)
		assert.Equal(t, "Partly cloudy", obs.Condition)
		assert.Equal(t, 55, obs.Humidity)
		assert.Equal(t, 25, obs.Cloudiness)
		assert.Equal(t, time.Date(2026, 4, 9, 7, 45, 0, 0, time.UTC), obs.ObservedAt)
	})

	t.Run("missing observed_at falls back to message timestamp", func(t *testing.T) {
		raw := RawEvent{
			Value:     []byte(`{"location":"Leeds","temperature":12,"condition":"Light rain","humidity":80}`),
			Timestamp: msgTime,
		}

		obs, err := ParseObservation(raw)
		require.NoError(t, err)
		assert.Equal(t, msgTime, obs.ObservedAt)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseObservation(RawEvent{Value: []byte(`{not json`)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse observation")
	})
}
