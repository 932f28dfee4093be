package sachet

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/cap-alert-dispatch/internal/domain"
	"github.com/couchcryptid/cap-alert-dispatch/internal/observability"
)

type stubLookup struct {
	calls int
	area  *domain.AlertArea
	err   error
}

func (s *stubLookup) FetchAlertArea(_ context.Context, _ string) (*domain.AlertArea, error) {
	s.calls++
	return s.area, s.err
}

func testArea(id string) *domain.AlertArea {
	return &domain.AlertArea{
		Identifier: id,
		AreaJSON:   json.RawMessage(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`),
	}
}

func TestCachedAreaLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("second lookup is a hit", func(t *testing.T) {
		stub := &stubLookup{area: testArea("a-1")}
		cached := NewCachedAreaLookup(stub, 10, observability.NewMetricsForTesting())

		first, err := cached.FetchAlertArea(ctx, "a-1")
		require.NoError(t, err)
		second, err := cached.FetchAlertArea(ctx, "a-1")
		require.NoError(t, err)

		assert.Equal(t, 1, stub.calls)
		assert.Equal(t, first, second)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		stub := &stubLookup{err: errors.New("upstream down")}
		cached := NewCachedAreaLookup(stub, 10, observability.NewMetricsForTesting())

		_, err := cached.FetchAlertArea(ctx, "a-1")
		require.Error(t, err)
		_, err = cached.FetchAlertArea(ctx, "a-1")
		require.Error(t, err)

		assert.Equal(t, 2, stub.calls)
	})

	t.Run("absent footprints are retried", func(t *testing.T) {
		stub := &stubLookup{area: nil}
		cached := NewCachedAreaLookup(stub, 10, observability.NewMetricsForTesting())

		area, err := cached.FetchAlertArea(ctx, "a-1")
		require.NoError(t, err)
		assert.Nil(t, area)
		_, err = cached.FetchAlertArea(ctx, "a-1")
		require.NoError(t, err)

		// A footprint may appear on a later cycle, so nil results bypass the cache.
		assert.Equal(t, 2, stub.calls)
	})
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)
	c.put("a", testArea("a"))
	c.put("b", testArea("b"))

	// Touch "a" so "b" becomes least recently used.
	_, ok := c.get("a")
	require.True(t, ok)

	c.put("c", testArea("c"))

	_, ok = c.get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.get("a")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)
	c.put("a", testArea("a"))
	updated := testArea("a")
	updated.AreaCovered = "updated"
	c.put("a", updated)

	got, ok := c.get("a")
	require.True(t, ok)
	assert.Equal(t, "updated", got.AreaCovered)
	assert.Len(t, c.entries, 1)
}
