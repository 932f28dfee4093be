package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMissingIdentifier marks a generic alert that arrived without its
// provider-issued identifier. Fabricating one would risk key collisions with
// later re-fetches, so the record is skipped with a warning instead.
var ErrMissingIdentifier = errors.New("alert record has no identifier")

// seismicIDPrefix heads every synthesized seismic identifier. The seismic
// feed never supplies one, so it is derived deterministically from the
// event's timestamp.
const seismicIDPrefix = "ndma-eq-"

var nonAlphanumericRe = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// RawGenericAlert is a generic CAP record as served by the upstream feed.
// Raw preserves the complete upstream object, typed fields included.
type RawGenericAlert struct {
	Identifier         string `json:"identifier"`
	Severity           string `json:"severity"`
	EffectiveStartTime string `json:"effective_start_time"`
	EffectiveEndTime   string `json:"effective_end_time"`
	DisasterType       string `json:"disaster_type"`
	AreaDescription    string `json:"area_description"`
	WarningMessage     string `json:"warning_message"`
	SeverityColor      string `json:"severity_color"`
	AlertSource        string `json:"alert_source"`

	Raw map[string]any `json:"-"`
}

// UnmarshalJSON decodes the typed fields and retains the full upstream object.
func (r *RawGenericAlert) UnmarshalJSON(data []byte) error {
	type plain RawGenericAlert
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &p.Raw); err != nil {
		return err
	}
	*r = RawGenericAlert(p)
	return nil
}

// RawSeismicPolygon is one inline intensity polygon from the seismic feed.
type RawSeismicPolygon struct {
	Coordinates json.RawMessage `json:"coordinates"` // GeoJSON geometry object
	Intensity   float64         `json:"intensity"`
	Color       string          `json:"color"`
	Radius      float64         `json:"radius"`
	Name        string          `json:"name"`
}

// RawSeismicAlert is an earthquake record as served by the upstream feed.
// Identity, magnitude, and location arrive embedded in the warning message.
type RawSeismicAlert struct {
	WarningMessage     string              `json:"warning_message"`
	EffectiveStartTime string              `json:"effective_start_time"`
	Depth              string              `json:"depth"`
	Polygons           []RawSeismicPolygon `json:"polygons"`

	Raw map[string]any `json:"-"`
}

// UnmarshalJSON decodes the typed fields and retains the full upstream object.
func (r *RawSeismicAlert) UnmarshalJSON(data []byte) error {
	type plain RawSeismicAlert
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &p.Raw); err != nil {
		return err
	}
	*r = RawSeismicAlert(p)
	return nil
}

// AlertArea is the result of the secondary polygon lookup for a generic alert.
// AreaJSON arrives either as an inline GeoJSON object or as a JSON-encoded
// string containing one.
type AlertArea struct {
	Identifier  string          `json:"identifier"`
	AreaJSON    json.RawMessage `json:"area_json"`
	AreaCovered string          `json:"area_covered"`
	MinLat      string          `json:"min_lat"`
	MaxLat      string          `json:"max_lat"`
	MinLong     string          `json:"min_long"`
	MaxLong     string          `json:"max_long"`
}

// Geometry returns the area's GeoJSON geometry, unwrapping a string-encoded
// payload if necessary. ok is false when no parseable geometry is present.
func (a AlertArea) Geometry() (json.RawMessage, bool) {
	raw := a.AreaJSON
	if len(raw) == 0 {
		return nil, false
	}
	// String-encoded GeoJSON: unquote, then validate the inner document.
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, false
		}
		raw = json.RawMessage(inner)
	}
	if geometryType(raw) == "" {
		return nil, false
	}
	return raw, true
}

// NormalizeGeneric converts a generic CAP record plus its (optional) polygon
// lookup result into a canonical Alert. A nil or unparseable area yields a
// no_geometry placeholder alert so the descriptive metadata survives for
// display; the alert simply never matches spatially.
func NormalizeGeneric(rec RawGenericAlert, area *AlertArea) (Alert, error) {
	if strings.TrimSpace(rec.Identifier) == "" {
		return Alert{}, ErrMissingIdentifier
	}

	alert := Alert{
		Identifier:      rec.Identifier,
		Category:        Categorize(rec.DisasterType, rec.WarningMessage),
		DisasterType:    rec.DisasterType,
		Severity:        rec.Severity,
		SeverityColor:   rec.SeverityColor,
		AreaDescription: rec.AreaDescription,
		WarningMessage:  rec.WarningMessage,
		EffectiveStart:  rec.EffectiveStartTime,
		EffectiveEnd:    rec.EffectiveEndTime,
		RawProperties:   rec.Raw,
	}

	if area != nil {
		if geom, ok := area.Geometry(); ok {
			alert.Geometry = []Feature{{Type: FeatureAlertArea, Geometry: geom}}
			return alert, nil
		}
	}
	alert.Geometry = []Feature{{Type: FeatureNoGeometry}}
	return alert, nil
}

// NormalizeSeismic converts a seismic record into a canonical Alert. The
// identifier is synthesized from the event timestamp. The three warning
// message markers (Magnitude:, Lat:/Long:, Location:) are parsed
// independently; a failure in one never blocks the others.
func NormalizeSeismic(rec RawSeismicAlert) Alert {
	props := make(map[string]any, len(rec.Raw)+4)
	for k, v := range rec.Raw {
		props[k] = v
	}

	alert := Alert{
		Identifier:     seismicIdentifier(rec),
		DisasterType:   "Earthquake",
		WarningMessage: rec.WarningMessage,
		EffectiveStart: rec.EffectiveStartTime,
		RawProperties:  props,
	}
	alert.Category = Categorize(alert.DisasterType, rec.WarningMessage)

	if mag, ok := parseMagnitudeMarker(rec.WarningMessage); ok {
		props["magnitude"] = mag
	}
	if loc, ok := parseLocationMarker(rec.WarningMessage); ok {
		alert.AreaDescription = loc
		props["location"] = loc
	}
	if lat, lon, ok := parseLatLongMarkers(rec.WarningMessage); ok {
		props["latitude"] = lat
		props["longitude"] = lon
		point := fmt.Sprintf(`{"type":"Point","coordinates":[%g,%g]}`, lon, lat)
		alert.Geometry = append(alert.Geometry, Feature{
			Type:     FeatureEpicenter,
			Geometry: json.RawMessage(point),
		})
	}

	for _, poly := range rec.Polygons {
		if len(poly.Coordinates) == 0 || geometryType(poly.Coordinates) == "" {
			continue
		}
		alert.Geometry = append(alert.Geometry, Feature{
			Type:      FeatureEarthquakeZone,
			Geometry:  poly.Coordinates,
			Intensity: poly.Intensity,
			Color:     poly.Color,
			Radius:    poly.Radius,
			ZoneName:  poly.Name,
		})
	}

	if len(alert.Geometry) == 0 {
		alert.Geometry = []Feature{{Type: FeatureNoGeometry}}
	}
	return alert
}

// seismicIdentifier derives a stable identifier from the event timestamp,
// replacing non-alphanumeric runs so the value stays topic- and URL-safe.
// Records without a timestamp fall back to a short hash of the warning
// message, which is still deterministic across re-fetches.
func seismicIdentifier(rec RawSeismicAlert) string {
	ts := strings.TrimSpace(rec.EffectiveStartTime)
	if ts == "" {
		sum := sha256.Sum256([]byte(rec.WarningMessage))
		return seismicIDPrefix + hex.EncodeToString(sum[:8])
	}
	sanitized := nonAlphanumericRe.ReplaceAllString(ts, "-")
	return seismicIDPrefix + strings.Trim(sanitized, "-")
}

// parseMagnitudeMarker extracts the value after "Magnitude:" up to the next comma.
func parseMagnitudeMarker(msg string) (float64, bool) {
	raw, ok := markerValue(msg, "Magnitude:", ",")
	if !ok {
		return 0, false
	}
	mag, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return mag, true
}

// parseLatLongMarkers extracts the epicenter coordinates. Both markers must
// parse for a point to be produced; the upstream format is
// "Lat: <lat> & Long: <lon>,".
func parseLatLongMarkers(msg string) (lat, lon float64, ok bool) {
	rawLat, okLat := markerValue(msg, "Lat:", "&")
	rawLon, okLon := markerValue(msg, "Long:", ",")
	if !okLat || !okLon {
		return 0, 0, false
	}
	lat, errLat := strconv.ParseFloat(rawLat, 64)
	lon, errLon := strconv.ParseFloat(rawLon, 64)
	if errLat != nil || errLon != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// parseLocationMarker extracts the free-text place name after "Location:".
func parseLocationMarker(msg string) (string, bool) {
	_, after, found := strings.Cut(msg, "Location:")
	if !found {
		return "", false
	}
	loc := strings.TrimSpace(after)
	if loc == "" {
		return "", false
	}
	return loc, true
}

// markerValue returns the trimmed text between a marker and the next
// occurrence of sep (or the end of the message when sep is absent).
func markerValue(msg, marker, sep string) (string, bool) {
	_, after, found := strings.Cut(msg, marker)
	if !found {
		return "", false
	}
	value, _, _ := strings.Cut(after, sep)
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}
