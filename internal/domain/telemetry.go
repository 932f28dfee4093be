package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Telemetry payloads are flat JSON objects whose identity and location fields
// appear under any of several historical aliases, depending on the device
// firmware. Each logical field has an ordered candidate list; the first
// present key wins. Values may arrive as numbers or as numeric strings.

var (
	sensorIDAliases  = []string{"id", "ID", "sensor_id"}
	latitudeAliases  = []string{"Lat", "lat", "latitude"}
	longitudeAliases = []string{"Long", "long", "longitude"}
)

// ErrMissingSensorID marks a telemetry payload with no recognizable identity field.
var ErrMissingSensorID = errors.New("telemetry payload has no sensor id")

// ParseTelemetry decodes one telemetry event into a SensorSnapshot. Missing
// coordinates are not an error: the snapshot is still recorded for audit and
// simply excluded from spatial matching. The sensor class is assigned by the
// caller from the subscription topic.
func ParseTelemetry(payload []byte) (SensorSnapshot, error) {
	var data map[string]any
	if err := json.Unmarshal(payload, &data); err != nil {
		return SensorSnapshot{}, fmt.Errorf("parse telemetry: %w", err)
	}

	id, ok := lookupString(data, sensorIDAliases)
	if !ok {
		return SensorSnapshot{}, ErrMissingSensorID
	}

	snap := SensorSnapshot{
		SensorID:     id,
		RawTelemetry: data,
		ObservedAt:   clock.Now(),
	}
	if lat, ok := lookupFloat(data, latitudeAliases); ok {
		snap.Latitude = &lat
	}
	if lon, ok := lookupFloat(data, longitudeAliases); ok {
		snap.Longitude = &lon
	}
	return snap, nil
}

// lookupString returns the first present alias as a string. Numeric sensor
// ids are formatted rather than rejected.
func lookupString(data map[string]any, aliases []string) (string, bool) {
	for _, key := range aliases {
		v, ok := data[key]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s, true
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64), true
		}
	}
	return "", false
}

// lookupFloat returns the first present alias coerced to float64.
func lookupFloat(data map[string]any, aliases []string) (float64, bool) {
	for _, key := range aliases {
		v, ok := data[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}
