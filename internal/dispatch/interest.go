package dispatch

import "github.com/couchcryptid/cap-alert-dispatch/internal/domain"

// classInterests maps a sensor class to the alert categories relevant to it.
// Classes absent from this map, including the "all" wildcard, resolve to no
// filter: unknown device types are never silently excluded from alerting.
var classInterests = map[string][]domain.Category{
	"rainfall":    {domain.CategoryRainfallFloods, domain.CategoryCloudBurst},
	"temperature": {domain.CategoryFrostColdWave, domain.CategoryHeatWave},
	"wind":        {domain.CategoryWeatherCyclone, domain.CategoryThunderstormLightning},
	"seismic":     {domain.CategoryEarthquake, domain.CategoryTsunami},
	"soil":        {domain.CategoryLandslide, domain.CategoryAvalanche},
	"humidity":    {domain.CategoryDrought},
	"fire":        {domain.CategoryPreFire},
	"agriculture": {domain.CategoryPestAttack},
}

// CategoriesFor resolves a sensor class to its category filter. A nil result
// means match any category.
func CategoriesFor(class string) []domain.Category {
	return classInterests[class]
}
