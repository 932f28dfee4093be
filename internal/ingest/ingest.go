package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/cap-alert-dispatch/internal/domain"
	"github.com/couchcryptid/cap-alert-dispatch/internal/observability"
)

// AlertFeed reads the two upstream NDMA feeds.
type AlertFeed interface {
	FetchAlerts(ctx context.Context) ([]domain.RawGenericAlert, error)
	FetchEarthquakeAlerts(ctx context.Context) ([]domain.RawSeismicAlert, error)
}

// AreaLookup resolves a generic alert's polygon by identifier.
type AreaLookup interface {
	FetchAlertArea(ctx context.Context, identifier string) (*domain.AlertArea, error)
}

// AlertWriter persists normalized alerts.
// It is implemented by postgres.Store.
type AlertWriter interface {
	UpsertAlert(ctx context.Context, alert domain.Alert) (domain.UpsertResult, error)
}

// Publisher sends JSON envelopes to a bus subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// Report summarizes one ingest cycle.
type Report struct {
	Fetched        int `json:"fetched"`
	Stored         int `json:"stored"`
	Skipped        int `json:"skipped"`
	Bundles        int `json:"bundles"`
	BundleFailures int `json:"bundle_failures"`
}

// Ingestor runs the fetch, normalize, categorize, store, publish cycle.
type Ingestor struct {
	feed           AlertFeed
	areas          AreaLookup
	store          AlertWriter
	publisher      Publisher
	interval       time.Duration
	publishTimeout time.Duration
	clock          clockwork.Clock
	metrics        *observability.Metrics
	logger         *slog.Logger
}

// New creates an Ingestor over the given feed, lookup, store, and bus.
func New(feed AlertFeed, areas AreaLookup, store AlertWriter, publisher Publisher, interval, publishTimeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		feed:           feed,
		areas:          areas,
		store:          store,
		publisher:      publisher,
		interval:       interval,
		publishTimeout: publishTimeout,
		clock:          clockwork.NewRealClock(),
		metrics:        metrics,
		logger:         logger,
	}
}

// RunOnce executes one ingest cycle. A feed failure aborts the cycle and the
// previously stored alerts stay valid. Malformed records and store write
// failures skip the record and continue with its siblings.
func (i *Ingestor) RunOnce(ctx context.Context) (Report, error) {
	start := time.Now()
	var report Report

	generic, err := i.feed.FetchAlerts(ctx)
	if err != nil {
		i.metrics.IngestErrors.Inc()
		return report, fmt.Errorf("fetch alert feed: %w", err)
	}
	seismic, err := i.feed.FetchEarthquakeAlerts(ctx)
	if err != nil {
		i.metrics.IngestErrors.Inc()
		return report, fmt.Errorf("fetch earthquake feed: %w", err)
	}
	i.metrics.AlertsFetched.WithLabelValues("generic").Add(float64(len(generic)))
	i.metrics.AlertsFetched.WithLabelValues("seismic").Add(float64(len(seismic)))
	report.Fetched = len(generic) + len(seismic)

	alerts := i.normalize(ctx, generic, seismic, &report)

	stored := make([]domain.Alert, 0, len(alerts))
	for _, alert := range alerts {
		res, err := i.store.UpsertAlert(ctx, alert)
		if err != nil {
			report.Skipped++
			i.metrics.AlertsSkipped.WithLabelValues("store_error").Inc()
			i.logger.Warn("skipping alert after store failure",
				slog.String("identifier", alert.Identifier),
				slog.String("error", err.Error()))
			continue
		}
		i.metrics.AlertsStored.WithLabelValues(string(res)).Inc()
		stored = append(stored, alert)
	}
	report.Stored = len(stored)

	i.publishBundles(ctx, stored, &report)

	i.metrics.IngestCycles.Inc()
	i.metrics.IngestDuration.Observe(time.Since(start).Seconds())
	i.logger.Info("ingest cycle complete",
		slog.Int("fetched", report.Fetched),
		slog.Int("stored", report.Stored),
		slog.Int("skipped", report.Skipped),
		slog.Int("bundles", report.Bundles))
	return report, nil
}

// Run executes ingest cycles at a fixed interval until the context is
// cancelled. Passes are idempotent, so a failed cycle simply waits for the
// next tick with no backoff.
func (i *Ingestor) Run(ctx context.Context) {
	i.logger.Info("ingest loop started", slog.Duration("interval", i.interval))
	for {
		if _, err := i.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			i.logger.Error("ingest cycle failed", slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			i.logger.Info("ingest loop stopping", slog.String("reason", ctx.Err().Error()))
			return
		case <-i.clock.After(i.interval):
		}
	}
}

// normalize converts raw feed records into canonical alerts, resolving each
// generic record's polygon first. A failed polygon lookup degrades that one
// alert to descriptive-only; it never aborts the cycle.
func (i *Ingestor) normalize(ctx context.Context, generic []domain.RawGenericAlert, seismic []domain.RawSeismicAlert, report *Report) []domain.Alert {
	alerts := make([]domain.Alert, 0, len(generic)+len(seismic))

	for _, rec := range generic {
		var area *domain.AlertArea
		if rec.Identifier != "" {
			var err error
			area, err = i.areas.FetchAlertArea(ctx, rec.Identifier)
			if err != nil {
				i.logger.Warn("polygon lookup failed, storing alert without geometry",
					slog.String("identifier", rec.Identifier),
					slog.String("error", err.Error()))
				area = nil
			}
		}

		alert, err := domain.NormalizeGeneric(rec, area)
		if err != nil {
			report.Skipped++
			i.metrics.AlertsSkipped.WithLabelValues("malformed").Inc()
			i.logger.Warn("skipping malformed alert record", slog.String("error", err.Error()))
			continue
		}
		alerts = append(alerts, alert)
	}

	for _, rec := range seismic {
		alerts = append(alerts, domain.NormalizeSeismic(rec))
	}
	return alerts
}

// publishBundles groups the stored alerts by category and publishes one
// bundle per category seen, in taxonomy order. Publish outcomes are
// independent per bundle.
func (i *Ingestor) publishBundles(ctx context.Context, stored []domain.Alert, report *Report) {
	for _, bundle := range BuildBundles(stored) {
		pctx, cancel := context.WithTimeout(ctx, i.publishTimeout)
		err := i.publisher.Publish(pctx, bundle.Topic, bundle)
		cancel()
		if err != nil {
			report.BundleFailures++
			i.metrics.BundlePublishes.WithLabelValues("failure").Inc()
			i.logger.Error("failed to publish category bundle",
				slog.String("topic", bundle.Topic),
				slog.String("error", err.Error()))
			continue
		}
		report.Bundles++
		i.metrics.BundlePublishes.WithLabelValues("success").Inc()
	}
}

// Bundle is the envelope published to alerts/{category} after an ingest
// cycle: the category's alerts as GeoJSON features plus counts.
type Bundle struct {
	Category domain.Category `json:"category"`
	Count    int             `json:"count"`
	Topic    string          `json:"topic"`
	Features []BundleFeature `json:"features"`
}

// BundleFeature is one alert shape in GeoJSON Feature form. Alerts without
// spatial data contribute a feature with a null geometry so their metadata
// still reaches subscribers.
type BundleFeature struct {
	Type       string          `json:"type"`
	Geometry   json.RawMessage `json:"geometry,omitempty"`
	Properties map[string]any  `json:"properties"`
}

// BuildBundles groups alerts by category in taxonomy order. Categories with
// no alerts produce no bundle.
func BuildBundles(alerts []domain.Alert) []Bundle {
	byCategory := make(map[domain.Category][]domain.Alert)
	for _, alert := range alerts {
		byCategory[alert.Category] = append(byCategory[alert.Category], alert)
	}

	bundles := make([]Bundle, 0, len(byCategory))
	for _, category := range domain.AllCategories {
		group, ok := byCategory[category]
		if !ok {
			continue
		}
		bundle := Bundle{
			Category: category,
			Count:    len(group),
			Topic:    domain.CategoryTopic(category),
		}
		for _, alert := range group {
			bundle.Features = append(bundle.Features, alertFeatures(alert)...)
		}
		bundles = append(bundles, bundle)
	}
	return bundles
}

// alertFeatures flattens one alert's shapes into GeoJSON features carrying
// the alert's identity and descriptive fields.
func alertFeatures(alert domain.Alert) []BundleFeature {
	features := make([]BundleFeature, 0, len(alert.Geometry))
	for _, f := range alert.Geometry {
		props := map[string]any{
			"identifier":   alert.Identifier,
			"feature_type": string(f.Type),
		}
		if alert.DisasterType != "" {
			props["disaster_type"] = alert.DisasterType
		}
		if alert.Severity != "" {
			props["severity"] = alert.Severity
		}
		if alert.AreaDescription != "" {
			props["area_description"] = alert.AreaDescription
		}
		if f.Intensity != 0 {
			props["intensity"] = f.Intensity
		}
		if f.ZoneName != "" {
			props["zone_name"] = f.ZoneName
		}
		features = append(features, BundleFeature{
			Type:       "Feature",
			Geometry:   f.Geometry,
			Properties: props,
		})
	}
	return features
}
