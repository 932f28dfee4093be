package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/cap-alert-dispatch/internal/domain"
	"github.com/couchcryptid/cap-alert-dispatch/internal/observability"
)

// SnapshotSource yields the latest locatable snapshot per (sensor, class).
// It is implemented by postgres.Store.
type SnapshotSource interface {
	AllLatest(ctx context.Context) ([]domain.SensorSnapshot, error)
}

// AlertFinder returns the stored alerts whose footprint contains a point,
// optionally restricted to a category set. It is implemented by postgres.Store.
type AlertFinder interface {
	FindContaining(ctx context.Context, lon, lat float64, categories []domain.Category) ([]domain.StoredAlert, error)
}

// Publisher sends JSON envelopes to a bus subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// Dispatcher evaluates every known sensor against the stored alert
// footprints and publishes a match event per containing alert.
type Dispatcher struct {
	sensors        SnapshotSource
	alerts         AlertFinder
	publisher      Publisher
	interval       time.Duration
	publishTimeout time.Duration
	clock          clockwork.Clock
	metrics        *observability.Metrics
	logger         *slog.Logger
	ready          atomic.Bool
	lastReport     atomic.Pointer[domain.DispatchReport]
}

// New creates a Dispatcher over the given registry, store, and bus.
func New(sensors SnapshotSource, alerts AlertFinder, publisher Publisher, interval, publishTimeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sensors:        sensors,
		alerts:         alerts,
		publisher:      publisher,
		interval:       interval,
		publishTimeout: publishTimeout,
		clock:          clockwork.NewRealClock(),
		metrics:        metrics,
		logger:         logger,
	}
}

// CheckReadiness returns nil once the dispatcher has completed at least one
// pass, or an error describing why the service is not yet ready.
func (d *Dispatcher) CheckReadiness(_ context.Context) error {
	if !d.ready.Load() {
		return errors.New("dispatcher has not completed a pass yet")
	}
	return nil
}

// LastReport returns the report of the most recent completed pass.
func (d *Dispatcher) LastReport() (domain.DispatchReport, bool) {
	report := d.lastReport.Load()
	if report == nil {
		return domain.DispatchReport{}, false
	}
	return *report, true
}

// RunOnce evaluates one dispatch pass over every known sensor. Per-sensor
// and per-alert failures are recorded and never abort the pass.
func (d *Dispatcher) RunOnce(ctx context.Context) (domain.DispatchReport, error) {
	start := time.Now()
	var report domain.DispatchReport

	snaps, err := d.sensors.AllLatest(ctx)
	if err != nil {
		return report, fmt.Errorf("load sensor snapshots: %w", err)
	}

	for _, snap := range snaps {
		// The registry only returns locatable snapshots, but a guard here
		// keeps a nil dereference out of NewMatchEvent.
		if !snap.Locatable() {
			continue
		}
		report.Checked++
		d.metrics.SensorsChecked.Inc()

		matches, err := d.alerts.FindContaining(ctx, *snap.Longitude, *snap.Latitude, CategoriesFor(snap.Class))
		if err != nil {
			d.logger.Error("containment query failed",
				slog.String("sensor_id", snap.SensorID),
				slog.String("class", snap.Class),
				slog.String("error", err.Error()))
			report.Unmatched++
			continue
		}
		if len(matches) == 0 {
			report.Unmatched++
			continue
		}

		report.Matched++
		d.publishMatches(ctx, snap, matches, &report)
	}

	d.ready.Store(true)
	d.lastReport.Store(&report)
	d.metrics.DispatchPasses.Inc()
	d.metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	d.logger.Info("dispatch pass complete",
		slog.Int("checked", report.Checked),
		slog.Int("matched", report.Matched),
		slog.Int("unmatched", report.Unmatched),
		slog.Int("publish_failures", report.PublishFailures))
	return report, nil
}

// publishMatches sends one match event per containing alert to the sensor's
// topic. Each publish outcome is independent.
func (d *Dispatcher) publishMatches(ctx context.Context, snap domain.SensorSnapshot, matches []domain.StoredAlert, report *domain.DispatchReport) {
	subject := domain.SensorTopic(snap.Class, snap.SensorID)
	for _, alert := range matches {
		event := domain.NewMatchEvent(snap, alert)

		pctx, cancel := context.WithTimeout(ctx, d.publishTimeout)
		err := d.publisher.Publish(pctx, subject, event)
		cancel()
		if err != nil {
			report.PublishFailures++
			d.metrics.PublishFailures.Inc()
			d.logger.Error("failed to publish match event",
				slog.String("topic", subject),
				slog.String("identifier", alert.Identifier),
				slog.String("error", err.Error()))
			continue
		}
		d.metrics.MatchesPublished.Inc()
	}
}

// Run executes dispatch passes at a fixed interval until the context is
// cancelled. An in-flight pass always completes before the loop exits; its
// store and publish calls carry their own timeouts, so completion is bounded.
// Passes are independent and idempotent, so there is no backoff.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("dispatcher started", slog.Duration("interval", d.interval))
	d.metrics.DispatcherRunning.Set(1)
	defer d.metrics.DispatcherRunning.Set(0)

	for {
		if _, err := d.RunOnce(context.WithoutCancel(ctx)); err != nil {
			d.logger.Error("dispatch pass failed", slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher stopping", slog.String("reason", ctx.Err().Error()))
			return
		case <-d.clock.After(d.interval):
		}
	}
}
