package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/cap-alert-dispatch/internal/domain"
)

const upsertAlertSQL = `
	INSERT INTO cap_alerts (
		identifier, alert_category, feature_type, geometry, severity,
		severity_color, disaster_type, area_description, warning_message,
		effective_start_time, effective_end_time, latitude, longitude, properties
	) VALUES (
		$1, $2, $3,
		ST_CollectionExtract(ST_SetSRID(ST_GeomFromGeoJSON($4::text), 4326), 3),
		$5, $6, $7, $8, $9, $10, $11, $12, $13, $14
	)
	ON CONFLICT (identifier) DO UPDATE SET
		alert_category       = EXCLUDED.alert_category,
		feature_type         = EXCLUDED.feature_type,
		geometry             = EXCLUDED.geometry,
		severity             = EXCLUDED.severity,
		severity_color       = EXCLUDED.severity_color,
		disaster_type        = EXCLUDED.disaster_type,
		area_description     = EXCLUDED.area_description,
		warning_message      = EXCLUDED.warning_message,
		effective_start_time = EXCLUDED.effective_start_time,
		effective_end_time   = EXCLUDED.effective_end_time,
		latitude             = EXCLUDED.latitude,
		longitude            = EXCLUDED.longitude,
		properties           = EXCLUDED.properties,
		updated_at           = now()
	RETURNING (xmax = 0)`

// UpsertAlert inserts or overwrites the row keyed by the alert's identifier.
// Conflict resolution is last-write-wins on every non-key field including
// geometry: category and footprint drift between ingestion cycles is expected
// (the category is recomputed after each fetch) and the newest fetch is
// authoritative.
func (s *Store) UpsertAlert(ctx context.Context, alert domain.Alert) (domain.UpsertResult, error) {
	footprint := polygonFootprint(alert)
	props, err := propertiesJSON(alert)
	if err != nil {
		return "", fmt.Errorf("upsert alert %q: %w", alert.Identifier, err)
	}

	var lat, lon *float64
	if epiLat, epiLon, ok := alert.Epicenter(); ok {
		lat, lon = &epiLat, &epiLon
	}

	execCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var inserted bool
	err = s.pool.QueryRow(execCtx, upsertAlertSQL,
		alert.Identifier,
		string(alert.Category),
		string(primaryFeatureType(alert)),
		footprint,
		nullable(alert.Severity),
		nullable(alert.SeverityColor),
		nullable(alert.DisasterType),
		nullable(alert.AreaDescription),
		nullable(alert.WarningMessage),
		parseEffectiveTime(alert.EffectiveStart),
		parseEffectiveTime(alert.EffectiveEnd),
		lat,
		lon,
		props,
	).Scan(&inserted)
	if err != nil {
		return "", fmt.Errorf("upsert alert %q: %w", alert.Identifier, err)
	}
	if inserted {
		return domain.AlertInserted, nil
	}
	return domain.AlertUpdated, nil
}

const findContainingSQL = `
	SELECT
		identifier, alert_category, disaster_type, severity,
		area_description, warning_message,
		effective_start_time, effective_end_time,
		properties, ST_AsGeoJSON(geometry)
	FROM cap_alerts
	WHERE geometry IS NOT NULL
	  AND ($3::text[] IS NULL OR alert_category = ANY($3))
	  AND ST_Contains(geometry, ST_SetSRID(ST_MakePoint($1, $2), 4326))
	ORDER BY effective_start_time DESC NULLS LAST, identifier`

// FindContaining returns every alert whose stored footprint contains the
// point (lon, lat), most recent effective start first. A nil category filter
// matches any category; an empty non-nil filter matches nothing. Alerts
// without geometry never appear: they have a NULL footprint by construction.
func (s *Store) FindContaining(ctx context.Context, lon, lat float64, categories []domain.Category) ([]domain.StoredAlert, error) {
	if categories != nil && len(categories) == 0 {
		return nil, nil
	}

	var filter []string
	if categories != nil {
		filter = make([]string, len(categories))
		for i, c := range categories {
			filter[i] = string(c)
		}
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(queryCtx, findContainingSQL, lon, lat, filter)
	if err != nil {
		return nil, fmt.Errorf("find containing alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.StoredAlert
	for rows.Next() {
		var (
			a                                     domain.StoredAlert
			disasterType, severity, area, message *string
			geomJSON                              *string
		)
		if err := rows.Scan(
			&a.Identifier, &a.Category, &disasterType, &severity,
			&area, &message, &a.EffectiveStart, &a.EffectiveEnd,
			&a.RawProperties, &geomJSON,
		); err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}
		a.DisasterType = deref(disasterType)
		a.Severity = deref(severity)
		a.AreaDescription = deref(area)
		a.WarningMessage = deref(message)
		if geomJSON != nil {
			a.Geometry = json.RawMessage(*geomJSON)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alert rows: %w", err)
	}
	return alerts, nil
}

// polygonFootprint assembles the GeoJSON passed to the geometry column: the
// single polygonal shape, or a GeometryCollection when an alert carries
// several zones. Returns nil (a NULL footprint) when no polygonal shape
// exists, which structurally excludes the alert from containment queries.
func polygonFootprint(alert domain.Alert) *string {
	geoms := alert.PolygonalGeometries()
	switch len(geoms) {
	case 0:
		return nil
	case 1:
		g := string(geoms[0])
		return &g
	default:
		var sb strings.Builder
		sb.WriteString(`{"type":"GeometryCollection","geometries":[`)
		for i, g := range geoms {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.Write(g)
		}
		sb.WriteString(`]}`)
		g := sb.String()
		return &g
	}
}

// propertiesJSON merges the upstream property bag with the normalized feature
// list so per-zone metadata (intensity, color, radius, names) survives the
// single-row representation.
func propertiesJSON(alert domain.Alert) ([]byte, error) {
	props := make(map[string]any, len(alert.RawProperties)+1)
	for k, v := range alert.RawProperties {
		props[k] = v
	}
	if len(alert.Geometry) > 0 {
		props["features"] = alert.Geometry
	}
	data, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("marshal properties: %w", err)
	}
	return data, nil
}

// primaryFeatureType summarizes an alert's shapes for the feature_type column.
func primaryFeatureType(alert domain.Alert) domain.FeatureType {
	best := domain.FeatureNoGeometry
	for _, f := range alert.Geometry {
		switch f.Type {
		case domain.FeatureAlertArea, domain.FeatureEarthquakeZone, domain.FeatureIntensityZone:
			return f.Type
		case domain.FeatureEpicenter:
			best = f.Type
		}
	}
	return best
}

// effectiveTimeLayouts are tried in order against upstream time strings.
// The NDMA feed uses the java-style "Sun Feb 01 10:34:17 IST 2026"; test
// fixtures and some SDMA senders use plain date-time or RFC 3339.
var effectiveTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// parseEffectiveTime leniently parses an upstream effective-time string.
// Malformed values return nil and store as NULL so one bad field never
// blocks the rest of the record.
func parseEffectiveTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	// "Sun Feb 01 10:34:17 IST 2026": drop the day name and the timezone
	// abbreviation (ambiguous to Go's parser), keeping month day time year.
	if parts := strings.Fields(s); len(parts) == 6 {
		clean := strings.Join([]string{parts[1], parts[2], parts[3], parts[5]}, " ")
		if t, err := time.Parse("Jan 02 15:04:05 2006", clean); err == nil {
			return &t
		}
	}

	for _, layout := range effectiveTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
