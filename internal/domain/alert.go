package domain

import (
	"encoding/json"
	"time"
)

// FeatureType tags each geographic shape attached to an alert.
type FeatureType string

const (
	// FeatureEpicenter is a point at an earthquake's epicenter.
	FeatureEpicenter FeatureType = "epicenter"
	// FeatureIntensityZone is a shaking-intensity polygon around an epicenter.
	FeatureIntensityZone FeatureType = "intensity_zone"
	// FeatureAlertArea is the polygon footprint of a generic CAP alert.
	FeatureAlertArea FeatureType = "alert_area"
	// FeatureEarthquakeZone is an inline polygon carried by the seismic feed.
	FeatureEarthquakeZone FeatureType = "earthquake_zone"
	// FeatureNoGeometry marks an alert that arrived without any usable shape.
	// Such alerts are kept for display but never participate in spatial matching.
	FeatureNoGeometry FeatureType = "no_geometry"
)

// Feature is one geographic shape belonging to an alert.
type Feature struct {
	Type     FeatureType     `json:"feature_type"`
	Geometry json.RawMessage `json:"geometry,omitempty"` // GeoJSON geometry object

	// Seismic zone metadata, present only on earthquake_zone features.
	Intensity float64 `json:"intensity,omitempty"`
	Color     string  `json:"color,omitempty"`
	Radius    float64 `json:"radius,omitempty"`
	ZoneName  string  `json:"zone_name,omitempty"`
}

// Alert is the canonical record produced by normalization. Both upstream
// shapes (generic CAP and seismic) reconcile into this one representation.
type Alert struct {
	Identifier      string    `json:"identifier"`
	Category        Category  `json:"alert_category"`
	DisasterType    string    `json:"disaster_type,omitempty"`
	Severity        string    `json:"severity,omitempty"`
	SeverityColor   string    `json:"severity_color,omitempty"`
	AreaDescription string    `json:"area_description,omitempty"`
	WarningMessage  string    `json:"warning_message,omitempty"`
	EffectiveStart  string    `json:"effective_start_time,omitempty"` // raw upstream string, parsed leniently at store time
	EffectiveEnd    string    `json:"effective_end_time,omitempty"`
	Geometry        []Feature `json:"geometry,omitempty"`

	// RawProperties preserves every upstream field for audit and debugging.
	RawProperties map[string]any `json:"properties,omitempty"`
}

// PolygonalGeometries returns the GeoJSON geometries of every polygonal
// feature. Point features (epicenters) never contain a sensor location and
// are excluded from the spatial footprint.
func (a Alert) PolygonalGeometries() []json.RawMessage {
	var geoms []json.RawMessage
	for _, f := range a.Geometry {
		if f.Geometry == nil {
			continue
		}
		switch geometryType(f.Geometry) {
		case "Polygon", "MultiPolygon":
			geoms = append(geoms, f.Geometry)
		}
	}
	return geoms
}

// Epicenter returns the coordinates of the alert's epicenter point feature,
// if one exists.
func (a Alert) Epicenter() (lat, lon float64, ok bool) {
	for _, f := range a.Geometry {
		if f.Type != FeatureEpicenter || f.Geometry == nil {
			continue
		}
		var pt struct {
			Coordinates []float64 `json:"coordinates"` // [lon, lat]
		}
		if err := json.Unmarshal(f.Geometry, &pt); err != nil || len(pt.Coordinates) != 2 {
			continue
		}
		return pt.Coordinates[1], pt.Coordinates[0], true
	}
	return 0, 0, false
}

func geometryType(geom json.RawMessage) string {
	var g struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(geom, &g); err != nil {
		return ""
	}
	return g.Type
}

// UpsertResult reports whether storing an alert created a new record or
// replaced an existing one.
type UpsertResult string

const (
	// AlertInserted means the identifier was new.
	AlertInserted UpsertResult = "inserted"
	// AlertUpdated means an existing record was overwritten.
	AlertUpdated UpsertResult = "updated"
)

// StoredAlert is an alert as read back from the store: effective times are
// parsed (nil when the upstream string was malformed) and the geometry is the
// stored spatial footprint as GeoJSON.
type StoredAlert struct {
	Identifier      string          `json:"identifier"`
	Category        Category        `json:"alert_category"`
	DisasterType    string          `json:"disaster_type,omitempty"`
	Severity        string          `json:"severity,omitempty"`
	AreaDescription string          `json:"area_description,omitempty"`
	WarningMessage  string          `json:"warning_message,omitempty"`
	EffectiveStart  *time.Time      `json:"effective_start_time,omitempty"`
	EffectiveEnd    *time.Time      `json:"effective_end_time,omitempty"`
	Geometry        json.RawMessage `json:"geometry,omitempty"`
	RawProperties   map[string]any  `json:"properties,omitempty"`
}

// SensorSnapshot is the latest known state of one (sensor, class) pair.
// Latitude and longitude are pointers because telemetry may arrive without
// coordinates; such snapshots are recorded for audit but excluded from
// spatial matching.
type SensorSnapshot struct {
	SensorID     string         `json:"sensor_id"`
	Class        string         `json:"class"`
	Latitude     *float64       `json:"latitude,omitempty"`
	Longitude    *float64       `json:"longitude,omitempty"`
	RawTelemetry map[string]any `json:"raw_telemetry,omitempty"`
	ObservedAt   time.Time      `json:"observed_at"`
}

// Locatable reports whether the snapshot carries both coordinates.
func (s SensorSnapshot) Locatable() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// MatchEvent is published when a sensor's location falls inside an alert's
// footprint. It is ephemeral: produced, published, never stored.
type MatchEvent struct {
	Type   string      `json:"type"`
	Sensor MatchSensor `json:"sensor"`
	Alert  StoredAlert `json:"alert"`
}

// MatchSensor identifies the matched sensor and its location.
type MatchSensor struct {
	ID    string  `json:"id"`
	Class string  `json:"class"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// NewMatchEvent builds the publish envelope for a (sensor, alert) containment match.
func NewMatchEvent(snap SensorSnapshot, alert StoredAlert) MatchEvent {
	return MatchEvent{
		Type: "cap_alert_match",
		Sensor: MatchSensor{
			ID:    snap.SensorID,
			Class: snap.Class,
			Lat:   *snap.Latitude,
			Lon:   *snap.Longitude,
		},
		Alert: alert,
	}
}

// DispatchReport summarizes one dispatch pass over every known sensor.
type DispatchReport struct {
	Checked         int `json:"checked"`
	Matched         int `json:"matched"`
	Unmatched       int `json:"unmatched"`
	PublishFailures int `json:"publish_failures"`
}
