package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTelemetry(t *testing.T) {
	frozen := time.Date(2026, 2, 1, 10, 30, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	defer SetClock(nil)

	t.Run("canonical fields", func(t *testing.T) {
		snap, err := ParseTelemetry([]byte(`{"id":"20001_0000_62963_01","Lat":21.26,"Long":77.41,"battery":88}`))
		require.NoError(t, err)

		assert.Equal(t, "20001_0000_62963_01", snap.SensorID)
		require.True(t, snap.Locatable())
		assert.Equal(t, 21.26, *snap.Latitude)
		assert.Equal(t, 77.41, *snap.Longitude)
		assert.Equal(t, frozen, snap.ObservedAt)
		// The full payload rides along untouched.
		assert.Equal(t, 88.0, snap.RawTelemetry["battery"])
	})

	t.Run("alias fields win in order", func(t *testing.T) {
		tests := []struct {
			name    string
			payload string
		}{
			{"sensor_id alias", `{"sensor_id":"s-1","latitude":21.26,"longitude":77.41}`},
			{"uppercase ID alias", `{"ID":"s-1","lat":21.26,"long":77.41}`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				snap, err := ParseTelemetry([]byte(tt.payload))
				require.NoError(t, err)
				assert.Equal(t, "s-1", snap.SensorID)
				assert.True(t, snap.Locatable())
			})
		}
	})

	t.Run("numeric strings coerce to float", func(t *testing.T) {
		snap, err := ParseTelemetry([]byte(`{"id":"s-2","Lat":"21.26","Long":"77.41"}`))
		require.NoError(t, err)
		require.True(t, snap.Locatable())
		assert.Equal(t, 21.26, *snap.Latitude)
		assert.Equal(t, 77.41, *snap.Longitude)
	})

	t.Run("numeric sensor id is formatted", func(t *testing.T) {
		snap, err := ParseTelemetry([]byte(`{"id":62963,"Lat":1,"Long":2}`))
		require.NoError(t, err)
		assert.Equal(t, "62963", snap.SensorID)
	})

	t.Run("missing coordinates still recorded", func(t *testing.T) {
		snap, err := ParseTelemetry([]byte(`{"id":"s-3","battery":12}`))
		require.NoError(t, err)
		assert.False(t, snap.Locatable())
		assert.Nil(t, snap.Latitude)
		assert.Nil(t, snap.Longitude)
	})

	t.Run("unparseable coordinate is treated as absent", func(t *testing.T) {
		snap, err := ParseTelemetry([]byte(`{"id":"s-4","Lat":"north","Long":77.41}`))
		require.NoError(t, err)
		assert.Nil(t, snap.Latitude)
		assert.NotNil(t, snap.Longitude)
		assert.False(t, snap.Locatable())
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := ParseTelemetry([]byte(`{"Lat":21.26,"Long":77.41}`))
		assert.ErrorIs(t, err, ErrMissingSensorID)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseTelemetry([]byte(`{not json`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse telemetry")
	})
}
