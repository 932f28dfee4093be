package nats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	natsgo "github.com/nats-io/nats.go"

	"github.com/couchcryptid/cap-alert-dispatch/internal/domain"
	"github.com/couchcryptid/cap-alert-dispatch/internal/observability"
)

// SnapshotRecorder persists one telemetry observation.
// It is implemented by postgres.Store.
type SnapshotRecorder interface {
	RecordSnapshot(ctx context.Context, snap domain.SensorSnapshot) error
}

// TelemetryListener subscribes to sensor status subjects and records every
// telemetry event it can parse. Subjects follow the {class}/{qualifier}
// convention (for example "rainfall/status"), so the sensor class is the
// segment before the first '/'.
type TelemetryListener struct {
	conn         *natsgo.Conn
	recorder     SnapshotRecorder
	subjects     []string
	storeTimeout time.Duration
	metrics      *observability.Metrics
	logger       *slog.Logger

	subs []*natsgo.Subscription
}

// NewTelemetryListener connects to the NATS server at url and prepares
// subscriptions for the given subjects. Call Start to begin receiving.
func NewTelemetryListener(url string, subjects []string, storeTimeout time.Duration, recorder SnapshotRecorder, metrics *observability.Metrics, logger *slog.Logger) (*TelemetryListener, error) {
	conn, err := natsgo.Connect(url, natsgo.Name(connName+"-telemetry"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &TelemetryListener{
		conn:         conn,
		recorder:     recorder,
		subjects:     subjects,
		storeTimeout: storeTimeout,
		metrics:      metrics,
		logger:       logger,
	}, nil
}

// Start subscribes to every configured subject. Messages are handled on the
// NATS client's delivery goroutine.
func (l *TelemetryListener) Start() error {
	for _, subject := range l.subjects {
		sub, err := l.conn.Subscribe(subject, l.handle)
		if err != nil {
			return fmt.Errorf("subscribe to %s: %w", subject, err)
		}
		l.subs = append(l.subs, sub)
		l.logger.Info("listening for sensor telemetry", slog.String("subject", subject))
	}
	return nil
}

func (l *TelemetryListener) handle(msg *natsgo.Msg) {
	snap, err := domain.ParseTelemetry(msg.Data)
	if err != nil {
		l.metrics.TelemetryReceived.WithLabelValues("malformed").Inc()
		l.logger.Warn("discarding telemetry event",
			slog.String("subject", msg.Subject),
			slog.String("error", err.Error()))
		return
	}
	snap.Class = sensorClass(msg.Subject)

	ctx, cancel := context.WithTimeout(context.Background(), l.storeTimeout)
	defer cancel()
	if err := l.recorder.RecordSnapshot(ctx, snap); err != nil {
		l.metrics.TelemetryReceived.WithLabelValues("store_error").Inc()
		l.logger.Error("failed to record telemetry",
			slog.String("sensor_id", snap.SensorID),
			slog.String("class", snap.Class),
			slog.String("error", err.Error()))
		return
	}
	l.metrics.TelemetryReceived.WithLabelValues("recorded").Inc()
}

// Close drains the subscriptions and closes the connection. Handlers running
// at drain time finish before Close returns.
func (l *TelemetryListener) Close() {
	if l.conn != nil {
		l.conn.Drain()
		l.conn.Close()
	}
}

// sensorClass extracts the sensor class from a telemetry subject.
func sensorClass(subject string) string {
	class, _, _ := strings.Cut(subject, "/")
	return class
}
