package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DatabaseURL string
	NATSURL     string

	AlertFeedURL  string
	QuakeFeedURL  string
	AreaLookupURL string
	FeedTimeout   time.Duration
	AreaCacheSize int

	FetchInterval    time.Duration
	DispatchInterval time.Duration
	PublishTimeout   time.Duration
	QueryTimeout     time.Duration

	TelemetrySubjects []string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where
// unset. Missing connection parameters are fatal: the process must exit before
// any work begins.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		NATSURL:     os.Getenv("NATS_URL"),

		AlertFeedURL:  envOrDefault("ALERT_FEED_URL", "https://sachet.ndma.gov.in/cap_public_website/FetchAllAlertDetails"),
		QuakeFeedURL:  envOrDefault("QUAKE_FEED_URL", "https://sachet.ndma.gov.in/cap_public_website/FetchEarthquakeAlerts"),
		AreaLookupURL: envOrDefault("AREA_LOOKUP_URL", "https://sachet.ndma.gov.in/cap_public_website/FetchAlertAreaJson"),

		TelemetrySubjects: splitList(envOrDefault("TELEMETRY_SUBJECTS", "rainfall/status")),

		HTTPAddr:  envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.FeedTimeout, err = durationOrDefault("FEED_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.FetchInterval, err = durationOrDefault("FETCH_INTERVAL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.DispatchInterval, err = durationOrDefault("DISPATCH_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.PublishTimeout, err = durationOrDefault("PUBLISH_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.QueryTimeout, err = durationOrDefault("QUERY_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = durationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.AreaCacheSize, err = intOrDefault("AREA_CACHE_SIZE", 1000); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.NATSURL == "" {
		return nil, errors.New("NATS_URL is required")
	}
	if len(cfg.TelemetrySubjects) == 0 {
		return nil, errors.New("TELEMETRY_SUBJECTS must name at least one subject")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func intOrDefault(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
