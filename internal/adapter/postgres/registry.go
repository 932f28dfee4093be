package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/couchcryptid/cap-alert-dispatch/internal/domain"
)

// The sensor registry is append-only: every telemetry event inserts a row,
// and "latest" queries take the newest row per (sensor_id, topic) pair.
// History is retained for audit; matching only ever reads the head.

const recordSnapshotSQL = `
	INSERT INTO sensor_status (sensor_id, topic, latitude, longitude, raw_data, received_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

// RecordSnapshot appends one telemetry event. Events without coordinates are
// recorded too; they are simply invisible to the latest-snapshot queries.
func (s *Store) RecordSnapshot(ctx context.Context, snap domain.SensorSnapshot) error {
	raw, err := json.Marshal(snap.RawTelemetry)
	if err != nil {
		return fmt.Errorf("marshal telemetry for %q: %w", snap.SensorID, err)
	}

	execCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	_, err = s.pool.Exec(execCtx, recordSnapshotSQL,
		snap.SensorID, snap.Class, snap.Latitude, snap.Longitude, raw, snap.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("record snapshot for %q: %w", snap.SensorID, err)
	}
	return nil
}

// DISTINCT ON takes the first row per (sensor_id, topic) under the ORDER BY;
// received_at DESC picks the newest and id DESC breaks exact-timestamp ties
// deterministically by insertion order.
const allLatestSQL = `
	SELECT DISTINCT ON (sensor_id, topic)
		sensor_id, topic, latitude, longitude, raw_data, received_at
	FROM sensor_status
	WHERE latitude IS NOT NULL
	  AND longitude IS NOT NULL
	ORDER BY sensor_id, topic, received_at DESC, id DESC`

// AllLatest returns the newest geolocatable snapshot per (sensor, class) pair.
func (s *Store) AllLatest(ctx context.Context) ([]domain.SensorSnapshot, error) {
	return s.querySnapshots(ctx, allLatestSQL)
}

// LatestByClass returns the newest geolocatable snapshots for one sensor class.
func (s *Store) LatestByClass(ctx context.Context, class string) ([]domain.SensorSnapshot, error) {
	const q = `
	SELECT DISTINCT ON (sensor_id, topic)
		sensor_id, topic, latitude, longitude, raw_data, received_at
	FROM sensor_status
	WHERE topic = $1
	  AND latitude IS NOT NULL
	  AND longitude IS NOT NULL
	ORDER BY sensor_id, topic, received_at DESC, id DESC`
	return s.querySnapshots(ctx, q, class)
}

func (s *Store) querySnapshots(ctx context.Context, sql string, args ...any) ([]domain.SensorSnapshot, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(queryCtx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query sensor snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []domain.SensorSnapshot
	for rows.Next() {
		var snap domain.SensorSnapshot
		if err := rows.Scan(
			&snap.SensorID, &snap.Class, &snap.Latitude, &snap.Longitude,
			&snap.RawTelemetry, &snap.ObservedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sensor row: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sensor rows: %w", err)
	}
	return snaps, nil
}
