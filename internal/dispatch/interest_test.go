package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/cap-alert-dispatch/internal/domain"
)

func TestCategoriesFor(t *testing.T) {
	tests := []struct {
		class    string
		expected []domain.Category
	}{
		{"rainfall", []domain.Category{domain.CategoryRainfallFloods, domain.CategoryCloudBurst}},
		{"temperature", []domain.Category{domain.CategoryFrostColdWave, domain.CategoryHeatWave}},
		{"wind", []domain.Category{domain.CategoryWeatherCyclone, domain.CategoryThunderstormLightning}},
		{"seismic", []domain.Category{domain.CategoryEarthquake, domain.CategoryTsunami}},
		{"soil", []domain.Category{domain.CategoryLandslide, domain.CategoryAvalanche}},
		{"humidity", []domain.Category{domain.CategoryDrought}},
		{"fire", []domain.Category{domain.CategoryPreFire}},
		{"agriculture", []domain.Category{domain.CategoryPestAttack}},
		{"all", nil},
		{"unknown-device", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			assert.Equal(t, tt.expected, CategoriesFor(tt.class))
		})
	}
}

func TestClassInterestsCoverTaxonomy(t *testing.T) {
	covered := make(map[domain.Category]bool)
	for _, categories := range classInterests {
		for _, c := range categories {
			covered[c] = true
		}
	}

	// Categories with no dedicated sensor class are reachable only through
	// the wildcard fallback.
	uncovered := []domain.Category{
		domain.CategoryHailstorm,
		domain.CategoryDustStorm,
		domain.CategoryOther,
	}
	for _, c := range uncovered {
		assert.False(t, covered[c], "category %s should have no dedicated class", c)
	}
}
