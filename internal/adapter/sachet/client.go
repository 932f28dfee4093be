package sachet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/cap-alert-dispatch/internal/domain"
)

// Client fetches disaster alerts from the NDMA public CAP endpoints.
type Client struct {
	httpClient    *http.Client
	alertFeedURL  string
	quakeFeedURL  string
	areaLookupURL string
	logger        *slog.Logger
}

// NewClient creates an NDMA feed client with a bounded request timeout.
func NewClient(alertFeedURL, quakeFeedURL, areaLookupURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		alertFeedURL:  alertFeedURL,
		quakeFeedURL:  quakeFeedURL,
		areaLookupURL: areaLookupURL,
		logger:        logger,
	}
}

// feedEnvelope is the upstream wrapper; some endpoints return a bare array
// instead, which the fetch helpers also accept.
type feedEnvelope[T any] struct {
	Alerts []T `json:"alerts"`
}

// FetchAlerts retrieves the generic CAP alert feed.
func (c *Client) FetchAlerts(ctx context.Context) ([]domain.RawGenericAlert, error) {
	return fetchFeed[domain.RawGenericAlert](ctx, c, c.alertFeedURL, "alert feed")
}

// FetchEarthquakeAlerts retrieves the seismic alert feed.
func (c *Client) FetchEarthquakeAlerts(ctx context.Context) ([]domain.RawSeismicAlert, error) {
	return fetchFeed[domain.RawSeismicAlert](ctx, c, c.quakeFeedURL, "earthquake feed")
}

// FetchAlertArea looks up the polygon footprint for a generic alert
// identifier. A missing footprint is not an error: (nil, nil) is returned and
// the caller falls back to a no_geometry alert.
func (c *Client) FetchAlertArea(ctx context.Context, identifier string) (*domain.AlertArea, error) {
	u := c.areaLookupURL + "?" + url.Values{"identifier": {identifier}}.Encode()

	body, status, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("area lookup for %q: %w", identifier, err)
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("area lookup for %q: status %d: %s", identifier, status, body)
	}
	if len(body) == 0 {
		return nil, nil
	}

	var area domain.AlertArea
	if err := json.Unmarshal(body, &area); err != nil {
		// Unparseable lookup responses degrade to "no footprint" rather than
		// failing the alert; the descriptive record is still worth storing.
		c.logger.Warn("unparseable area lookup response", "identifier", identifier, "error", err)
		return nil, nil
	}
	if len(area.AreaJSON) == 0 {
		return nil, nil
	}
	return &area, nil
}

func fetchFeed[T any](ctx context.Context, c *Client, feedURL, name string) ([]T, error) {
	body, status, err := c.get(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d: %s", name, status, body)
	}

	var env feedEnvelope[T]
	if err := json.Unmarshal(body, &env); err == nil && env.Alerts != nil {
		return env.Alerts, nil
	}
	var bare []T
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return bare, nil
}

func (c *Client) get(ctx context.Context, fullURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
