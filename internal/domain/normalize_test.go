package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mumbaiQuakeMsg = "EQ of M: 5.2, On: 01/02/2026 10:34:17 IST, Magnitude: 5.2, Depth: 10 Km, Lat: 19.07 & Long: 72.88, Location: Mumbai"

func TestNormalizeGeneric(t *testing.T) {
	data := []byte(`{
		"identifier": "sdma-2026-001",
		"severity": "Severe",
		"effective_start_time": "Sun Feb 01 10:34:17 IST 2026",
		"effective_end_time": "Sun Feb 01 22:34:17 IST 2026",
		"disaster_type": "Rainfall/Floods",
		"area_description": "Jabalpur District",
		"warning_message": "Very heavy rainfall expected.",
		"severity_color": "#FF0000",
		"alert_source": "IMD",
		"sender_org_id": "IMD"
	}`)
	var rec RawGenericAlert
	require.NoError(t, json.Unmarshal(data, &rec))

	t.Run("with polygon lookup result", func(t *testing.T) {
		area := &AlertArea{
			Identifier: "sdma-2026-001",
			AreaJSON:   json.RawMessage(`{"type":"Polygon","coordinates":[[[77.2,21.0],[77.6,21.0],[77.6,21.5],[77.2,21.5],[77.2,21.0]]]}`),
		}

		alert, err := NormalizeGeneric(rec, area)
		require.NoError(t, err)

		assert.Equal(t, "sdma-2026-001", alert.Identifier)
		assert.Equal(t, CategoryRainfallFloods, alert.Category)
		assert.Equal(t, "Severe", alert.Severity)
		assert.Equal(t, "Jabalpur District", alert.AreaDescription)
		assert.Equal(t, "Sun Feb 01 10:34:17 IST 2026", alert.EffectiveStart)
		require.Len(t, alert.Geometry, 1)
		assert.Equal(t, FeatureAlertArea, alert.Geometry[0].Type)
		assert.NotNil(t, alert.Geometry[0].Geometry)
		// The full upstream object survives, including fields with no typed home.
		assert.Equal(t, "IMD", alert.RawProperties["sender_org_id"])
	})

	t.Run("string-encoded area_json", func(t *testing.T) {
		area := &AlertArea{
			AreaJSON: json.RawMessage(`"{\"type\":\"Polygon\",\"coordinates\":[[[77.2,21.0],[77.6,21.0],[77.6,21.5],[77.2,21.0]]]}"`),
		}
		alert, err := NormalizeGeneric(rec, area)
		require.NoError(t, err)
		require.Len(t, alert.Geometry, 1)
		assert.Equal(t, FeatureAlertArea, alert.Geometry[0].Type)
	})

	t.Run("missing polygon yields no_geometry placeholder", func(t *testing.T) {
		alert, err := NormalizeGeneric(rec, nil)
		require.NoError(t, err)
		require.Len(t, alert.Geometry, 1)
		assert.Equal(t, FeatureNoGeometry, alert.Geometry[0].Type)
		assert.Nil(t, alert.Geometry[0].Geometry)
		// Descriptive metadata survives for display.
		assert.Equal(t, "Jabalpur District", alert.AreaDescription)
	})

	t.Run("unparseable area_json yields no_geometry placeholder", func(t *testing.T) {
		area := &AlertArea{AreaJSON: json.RawMessage(`"not geojson at all"`)}
		alert, err := NormalizeGeneric(rec, area)
		require.NoError(t, err)
		require.Len(t, alert.Geometry, 1)
		assert.Equal(t, FeatureNoGeometry, alert.Geometry[0].Type)
	})

	t.Run("missing identifier is a skip, not a fabrication", func(t *testing.T) {
		noID := rec
		noID.Identifier = "  "
		_, err := NormalizeGeneric(noID, nil)
		assert.ErrorIs(t, err, ErrMissingIdentifier)
	})
}

func TestNormalizeSeismic(t *testing.T) {
	data := []byte(`{
		"warning_message": "` + mumbaiQuakeMsg + `",
		"effective_start_time": "Sun Feb 01 10:34:17 IST 2026",
		"depth": "10 Km",
		"polygons": [
			{
				"coordinates": {"type":"MultiPolygon","coordinates":[[[[72.5,18.8],[73.2,18.8],[73.2,19.4],[72.5,19.4],[72.5,18.8]]]]},
				"intensity": 5,
				"color": "#FFA500",
				"radius": 40,
				"name": "Zone II"
			}
		]
	}`)
	var rec RawSeismicAlert
	require.NoError(t, json.Unmarshal(data, &rec))

	alert := NormalizeSeismic(rec)

	assert.Equal(t, CategoryEarthquake, alert.Category)
	assert.Equal(t, "Earthquake", alert.DisasterType)
	assert.True(t, strings.HasSuffix(alert.AreaDescription, "Mumbai"))
	assert.Equal(t, "ndma-eq-Sun-Feb-01-10-34-17-IST-2026", alert.Identifier)

	lat, lon, ok := alert.Epicenter()
	require.True(t, ok)
	assert.Equal(t, 19.07, lat)
	assert.Equal(t, 72.88, lon)

	require.Len(t, alert.Geometry, 2)
	assert.Equal(t, FeatureEpicenter, alert.Geometry[0].Type)
	zone := alert.Geometry[1]
	assert.Equal(t, FeatureEarthquakeZone, zone.Type)
	assert.Equal(t, 5.0, zone.Intensity)
	assert.Equal(t, "#FFA500", zone.Color)
	assert.Equal(t, 40.0, zone.Radius)
	assert.Equal(t, "Zone II", zone.ZoneName)

	assert.Equal(t, 5.2, alert.RawProperties["magnitude"])
	assert.Equal(t, "10 Km", alert.RawProperties["depth"])
}

func TestNormalizeSeismic_MarkersParsedIndependently(t *testing.T) {
	t.Run("bad magnitude keeps coordinates and location", func(t *testing.T) {
		rec := RawSeismicAlert{WarningMessage: "Magnitude: n/a, Lat: 19.07 & Long: 72.88, Location: Mumbai"}
		alert := NormalizeSeismic(rec)

		_, hasMag := alert.RawProperties["magnitude"]
		assert.False(t, hasMag)
		_, _, ok := alert.Epicenter()
		assert.True(t, ok)
		assert.Equal(t, "Mumbai", alert.AreaDescription)
	})

	t.Run("missing Long drops the point but keeps the rest", func(t *testing.T) {
		rec := RawSeismicAlert{WarningMessage: "Magnitude: 4.1, Lat: 19.07, Location: Pune"}
		alert := NormalizeSeismic(rec)

		assert.Equal(t, 4.1, alert.RawProperties["magnitude"])
		_, _, ok := alert.Epicenter()
		assert.False(t, ok)
		assert.Equal(t, "Pune", alert.AreaDescription)
	})

	t.Run("no markers at all still normalizes", func(t *testing.T) {
		rec := RawSeismicAlert{WarningMessage: "seismic event reported"}
		alert := NormalizeSeismic(rec)

		assert.Equal(t, CategoryEarthquake, alert.Category)
		require.Len(t, alert.Geometry, 1)
		assert.Equal(t, FeatureNoGeometry, alert.Geometry[0].Type)
	})
}

func TestSeismicIdentifier_Deterministic(t *testing.T) {
	rec := RawSeismicAlert{
		WarningMessage:     mumbaiQuakeMsg,
		EffectiveStartTime: "Sun Feb 01 10:34:17 IST 2026",
	}
	a := NormalizeSeismic(rec)
	b := NormalizeSeismic(rec)
	assert.Equal(t, a.Identifier, b.Identifier)
	assert.True(t, strings.HasPrefix(a.Identifier, "ndma-eq-"))

	// No timestamp: identifier falls back to a hash of the message, still stable.
	rec.EffectiveStartTime = ""
	c := NormalizeSeismic(rec)
	d := NormalizeSeismic(rec)
	assert.Equal(t, c.Identifier, d.Identifier)
	assert.True(t, strings.HasPrefix(c.Identifier, "ndma-eq-"))
	assert.NotEqual(t, a.Identifier, c.Identifier)
}

func TestAlert_PolygonalGeometries(t *testing.T) {
	alert := Alert{Geometry: []Feature{
		{Type: FeatureEpicenter, Geometry: json.RawMessage(`{"type":"Point","coordinates":[72.88,19.07]}`)},
		{Type: FeatureEarthquakeZone, Geometry: json.RawMessage(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`)},
		{Type: FeatureEarthquakeZone, Geometry: json.RawMessage(`{"type":"MultiPolygon","coordinates":[[[[0,0],[2,0],[2,2],[0,0]]]]}`)},
		{Type: FeatureNoGeometry},
	}}

	geoms := alert.PolygonalGeometries()
	// Points and the no_geometry sentinel are excluded from the spatial footprint.
	assert.Len(t, geoms, 2)
}
