package postgres

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/cap-alert-dispatch/internal/domain"
)

func TestParseEffectiveTime(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *time.Time
	}{
		{
			"NDMA java-style timestamp",
			"Sun Feb 01 10:34:17 IST 2026",
			timePtr(time.Date(2026, 2, 1, 10, 34, 17, 0, time.UTC)),
		},
		{
			"plain date-time",
			"2026-02-01 10:34:17",
			timePtr(time.Date(2026, 2, 1, 10, 34, 17, 0, time.UTC)),
		},
		{
			"rfc3339",
			"2026-02-01T10:34:17Z",
			timePtr(time.Date(2026, 2, 1, 10, 34, 17, 0, time.UTC)),
		},
		{"empty", "", nil},
		{"whitespace", "   ", nil},
		{"garbage", "tomorrow-ish", nil},
		{"wrong field count", "Feb 01 2026", nil},
		{"bad month", "Sun Xyz 01 10:34:17 IST 2026", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseEffectiveTime(tt.input)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.expected.Equal(*got), "got %v, want %v", got, tt.expected)
		})
	}
}

func TestPolygonFootprint(t *testing.T) {
	polygon := json.RawMessage(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`)
	multi := json.RawMessage(`{"type":"MultiPolygon","coordinates":[[[[0,0],[2,0],[2,2],[0,0]]]]}`)
	point := json.RawMessage(`{"type":"Point","coordinates":[72.88,19.07]}`)

	t.Run("no polygonal shape yields nil", func(t *testing.T) {
		alert := domain.Alert{Geometry: []domain.Feature{
			{Type: domain.FeatureEpicenter, Geometry: point},
			{Type: domain.FeatureNoGeometry},
		}}
		assert.Nil(t, polygonFootprint(alert))
	})

	t.Run("single polygon passes through", func(t *testing.T) {
		alert := domain.Alert{Geometry: []domain.Feature{
			{Type: domain.FeatureAlertArea, Geometry: polygon},
		}}
		fp := polygonFootprint(alert)
		require.NotNil(t, fp)
		assert.JSONEq(t, string(polygon), *fp)
	})

	t.Run("multiple shapes collect", func(t *testing.T) {
		alert := domain.Alert{Geometry: []domain.Feature{
			{Type: domain.FeatureEarthquakeZone, Geometry: polygon},
			{Type: domain.FeatureEarthquakeZone, Geometry: multi},
		}}
		fp := polygonFootprint(alert)
		require.NotNil(t, fp)

		var collection struct {
			Type       string            `json:"type"`
			Geometries []json.RawMessage `json:"geometries"`
		}
		require.NoError(t, json.Unmarshal([]byte(*fp), &collection))
		assert.Equal(t, "GeometryCollection", collection.Type)
		assert.Len(t, collection.Geometries, 2)
	})
}

func TestPrimaryFeatureType(t *testing.T) {
	point := json.RawMessage(`{"type":"Point","coordinates":[0,0]}`)
	polygon := json.RawMessage(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`)

	tests := []struct {
		name     string
		features []domain.Feature
		expected domain.FeatureType
	}{
		{"alert area wins", []domain.Feature{{Type: domain.FeatureAlertArea, Geometry: polygon}}, domain.FeatureAlertArea},
		{
			"zone beats epicenter",
			[]domain.Feature{
				{Type: domain.FeatureEpicenter, Geometry: point},
				{Type: domain.FeatureEarthquakeZone, Geometry: polygon},
			},
			domain.FeatureEarthquakeZone,
		},
		{"epicenter only", []domain.Feature{{Type: domain.FeatureEpicenter, Geometry: point}}, domain.FeatureEpicenter},
		{"no geometry", []domain.Feature{{Type: domain.FeatureNoGeometry}}, domain.FeatureNoGeometry},
		{"empty", nil, domain.FeatureNoGeometry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, primaryFeatureType(domain.Alert{Geometry: tt.features}))
		})
	}
}

func TestPropertiesJSON(t *testing.T) {
	alert := domain.Alert{
		RawProperties: map[string]any{"alert_source": "IMD", "depth": "10 Km"},
		Geometry: []domain.Feature{
			{Type: domain.FeatureEarthquakeZone, Intensity: 5, ZoneName: "Zone II"},
		},
	}

	data, err := propertiesJSON(alert)
	require.NoError(t, err)

	var props map[string]any
	require.NoError(t, json.Unmarshal(data, &props))
	assert.Equal(t, "IMD", props["alert_source"])

	features, ok := props["features"].([]any)
	require.True(t, ok)
	require.Len(t, features, 1)
	zone := features[0].(map[string]any)
	assert.Equal(t, "Zone II", zone["zone_name"])
}

func timePtr(t time.Time) *time.Time { return &t }
