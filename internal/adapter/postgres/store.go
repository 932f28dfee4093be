package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps the PostGIS connection pool shared by the alert table and the
// sensor registry. The pool supports concurrent readers while ingestion and
// telemetry writers run; dispatch correctness is defined per pass, so a read
// may see either the old or new state of any single row.
type Store struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
	logger       *slog.Logger
}

// NewStore connects to the database and verifies the connection.
func NewStore(ctx context.Context, dsn string, queryTimeout time.Duration, logger *slog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool, queryTimeout: queryTimeout, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,

	`CREATE TABLE IF NOT EXISTS cap_alerts (
		id BIGSERIAL PRIMARY KEY,
		identifier VARCHAR(255) UNIQUE NOT NULL,
		alert_category VARCHAR(100) NOT NULL,
		feature_type VARCHAR(50),
		geometry GEOMETRY,
		severity VARCHAR(50),
		severity_color VARCHAR(50),
		disaster_type VARCHAR(100),
		area_description TEXT,
		warning_message TEXT,
		effective_start_time TIMESTAMP,
		effective_end_time TIMESTAMP,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		properties JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cap_alerts_geometry ON cap_alerts USING GIST (geometry)`,
	`CREATE INDEX IF NOT EXISTS idx_cap_alerts_category ON cap_alerts (alert_category)`,
	`CREATE INDEX IF NOT EXISTS idx_cap_alerts_identifier ON cap_alerts (identifier)`,

	`CREATE TABLE IF NOT EXISTS sensor_status (
		id BIGSERIAL PRIMARY KEY,
		sensor_id VARCHAR(255) NOT NULL,
		topic VARCHAR(255) NOT NULL,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		raw_data JSONB,
		received_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sensor_status_sensor_id ON sensor_status (sensor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sensor_status_topic ON sensor_status (topic)`,
	`CREATE INDEX IF NOT EXISTS idx_sensor_status_received_at ON sensor_status (received_at)`,
}

// EnsureSchema creates the alert and sensor tables with their indexes.
// Every statement is idempotent; safe to run on each startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		execCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
		_, err := s.pool.Exec(execCtx, stmt)
		cancel()
		if err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	s.logger.Info("database schema verified")
	return nil
}
