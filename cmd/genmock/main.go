// Command genmock writes synthetic NDMA feed fixtures for the validator and
// for local development against a mock feed server. Fixtures use the domain
// types directly so they track the real feed shapes.
//
// Usage:
//
//	go run ./cmd/genmock -out-dir testdata
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/cap-alert-dispatch/internal/domain"
)

func main() {
	outDir := flag.String("out-dir", "testdata", "directory to write fixture files into")
	flag.Parse()

	if err := run(*outDir); err != nil {
		log.Fatal(err)
	}
}

func run(outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	files := map[string]any{
		"cap_alerts.json":        map[string]any{"alerts": genericAlerts()},
		"earthquake_alerts.json": map[string]any{"alerts": seismicAlerts()},
		"telemetry.json":         telemetryEvents(),
	}

	for name, payload := range files {
		path := filepath.Join(outDir, name)
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal %s: %w", name, err)
		}
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

func polygon(minLon, minLat, maxLon, maxLat float64) json.RawMessage {
	geom := fmt.Sprintf(`{"type":"Polygon","coordinates":[[[%g,%g],[%g,%g],[%g,%g],[%g,%g],[%g,%g]]]}`,
		minLon, minLat, maxLon, minLat, maxLon, maxLat, minLon, maxLat, minLon, minLat)
	return json.RawMessage(geom)
}

// genericAlerts covers one record per common category plus the edge shapes
// the pipeline must survive: a Hindi-only warning message and a record with
// no identifier.
func genericAlerts() []domain.RawGenericAlert {
	return []domain.RawGenericAlert{
		{
			Identifier:         "ndma-20260201-0001",
			Severity:           "Warning",
			SeverityColor:      "Orange",
			EffectiveStartTime: "Sun Feb 01 06:00:00 IST 2026",
			EffectiveEndTime:   "Mon Feb 02 06:00:00 IST 2026",
			DisasterType:       "Heavy Rainfall",
			AreaDescription:    "Nagpur, Wardha, Amravati",
			WarningMessage:     "Extremely heavy rainfall expected over Vidarbha.",
			AlertSource:        "IMD",
		},
		{
			Identifier:         "ndma-20260201-0002",
			Severity:           "Alert",
			SeverityColor:      "Yellow",
			EffectiveStartTime: "Sun Feb 01 09:00:00 IST 2026",
			DisasterType:       "Cyclone",
			AreaDescription:    "Coastal Andhra Pradesh",
			WarningMessage:     "Cyclonic storm likely to cross the coast.",
			AlertSource:        "IMD",
		},
		{
			Identifier:      "ndma-20260201-0003",
			Severity:        "Watch",
			SeverityColor:   "Yellow",
			DisasterType:    "आंधी",
			AreaDescription: "पूर्वी राजस्थान",
			WarningMessage:  "तेज़ आंधी और बिजली गिरने की संभावना।",
			AlertSource:     "SDMA",
		},
		{
			Identifier:      "ndma-20260201-0004",
			Severity:        "Warning",
			SeverityColor:   "Red",
			DisasterType:    "Heat Wave",
			AreaDescription: "Vidarbha, Marathwada",
			WarningMessage:  "Severe heat wave conditions very likely.",
			AlertSource:     "IMD",
		},
		{
			// Deliberately malformed: the validator and ingest must both
			// skip this record without dropping its siblings.
			Severity:       "Warning",
			DisasterType:   "Flood",
			WarningMessage: "River levels rising above danger mark.",
			AlertSource:    "CWC",
		},
	}
}

func seismicAlerts() []domain.RawSeismicAlert {
	return []domain.RawSeismicAlert{
		{
			WarningMessage:     "EQ of Magnitude: 5.2, Occurred on 01-02-2026 10:34:17 IST, Lat: 19.07 & Long: 72.88, Depth: 10 Km, Location: Mumbai, Maharashtra",
			EffectiveStartTime: "Sun Feb 01 10:34:17 IST 2026",
			Depth:              "10 Km",
			Polygons: []domain.RawSeismicPolygon{
				{
					Coordinates: polygon(72.5, 18.7, 73.3, 19.4),
					Intensity:   5,
					Color:       "#ff8c00",
					Radius:      40,
					Name:        "Zone II",
				},
			},
		},
		{
			WarningMessage:     "EQ of Magnitude: 3.8, Occurred on 01-02-2026 14:02:51 IST, Lat: 28.61 & Long: 77.21, Depth: 5 Km, Location: New Delhi",
			EffectiveStartTime: "Sun Feb 01 14:02:51 IST 2026",
			Depth:              "5 Km",
		},
	}
}

// telemetryEvents exercises every accepted field alias and the numeric-string
// coercion path.
func telemetryEvents() []map[string]any {
	return []map[string]any{
		{"id": "rg-204", "Lat": 21.26, "Long": 77.41, "mm_last_hour": 12.5},
		{"ID": "temp-11", "lat": "28.61", "long": "77.21", "celsius": 41.2},
		{"sensor_id": "accel-7", "latitude": 19.07, "longitude": 72.88, "pga": 0.04},
		{"id": 40021, "Lat": "21.30", "Long": "77.50"},
	}
}
