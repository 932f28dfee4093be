package domain

import "strings"

// Category is one tag from the fixed alert taxonomy. Categories double as
// message-bus topic segments, so values stay lowercase snake_case.
type Category string

const (
	CategoryEarthquake            Category = "earthquake"
	CategoryTsunami               Category = "tsunami"
	CategoryLandslide             Category = "landslide"
	CategoryAvalanche             Category = "avalanche"
	CategoryWeatherCyclone        Category = "weather_cyclone"
	CategoryRainfallFloods        Category = "rainfall_floods"
	CategoryThunderstormLightning Category = "thunderstorm_lightning"
	CategoryHailstorm             Category = "hailstorm"
	CategoryCloudBurst            Category = "cloud_burst"
	CategoryFrostColdWave         Category = "frost_cold_wave"
	CategoryDrought               Category = "drought"
	CategoryPreFire               Category = "pre_fire"
	CategoryPestAttack            Category = "pest_attack"
	CategoryHeatWave              Category = "heat_wave"
	CategoryDustStorm             Category = "dust_storm"
	CategoryOther                 Category = "other"
)

// AllCategories lists every taxonomy value, in precedence order, ending with
// the CategoryOther fallback.
var AllCategories = []Category{
	CategoryEarthquake,
	CategoryTsunami,
	CategoryLandslide,
	CategoryAvalanche,
	CategoryWeatherCyclone,
	CategoryRainfallFloods,
	CategoryThunderstormLightning,
	CategoryHailstorm,
	CategoryCloudBurst,
	CategoryFrostColdWave,
	CategoryDrought,
	CategoryPreFire,
	CategoryPestAttack,
	CategoryHeatWave,
	CategoryDustStorm,
	CategoryOther,
}

// categoryRule pairs a category with its keyword sets. English keywords match
// the disaster_type field; Hindi keywords match the free-text warning message.
// Either signal triggers the category.
type categoryRule struct {
	category     Category
	typeKeywords []string
	msgKeywords  []string
}

// categoryRules is evaluated top to bottom; the first matching rule wins.
// Keyword sets are not mutually exclusive (e.g. "cold" would also substring-
// match other terms), so this order defines the observable behavior and must
// not be rearranged without updating the categorizer tests.
var categoryRules = []categoryRule{
	{CategoryEarthquake, []string{"earthquake"}, []string{"भूकंप"}},
	{CategoryTsunami, []string{"tsunami"}, []string{"सुनामी"}},
	{CategoryLandslide, []string{"landslide", "land slide"}, []string{"भूस्खलन"}},
	{CategoryAvalanche, []string{"avalanche"}, []string{"हिमस्खलन"}},
	{CategoryWeatherCyclone, []string{"cyclone", "cyclonic"}, []string{"चक्रवात"}},
	{CategoryRainfallFloods, []string{"rainfall", "rain", "flood", "heavy rain", "extremely heavy rain"}, []string{"बाढ़", "बारिश", "वर्षा"}},
	{CategoryThunderstormLightning, []string{"thunderstorm", "thunder storm", "lightning", "thunder"}, []string{"आंधी", "तड़ित", "बिजली", "गरज"}},
	{CategoryHailstorm, []string{"hail"}, []string{"ओला", "ओलावृष्टि"}},
	{CategoryCloudBurst, []string{"cloudburst", "cloud burst"}, []string{"बादल फटना"}},
	{CategoryFrostColdWave, []string{"frost", "cold wave", "coldwave", "cold", "freeze"}, []string{"शीत लहर", "पाला", "ठंड"}},
	{CategoryDrought, []string{"drought"}, []string{"सूखा"}},
	{CategoryPreFire, []string{"pre fire", "pre-fire", "fire", "forest fire"}, []string{"जंगल में आग", "आग", "forest fire"}},
	{CategoryPestAttack, []string{"pest"}, []string{"कीट"}},
	{CategoryHeatWave, []string{"heat", "hot"}, []string{"गर्मी की लहर"}},
	{CategoryDustStorm, []string{"dust"}, []string{"धूल"}},
}

// Categorize maps a disaster-type label and warning message to one taxonomy
// value. Matching is case-insensitive substring containment. An empty
// disaster type short-circuits to CategoryOther regardless of the message.
// Pure function, safe for concurrent use.
func Categorize(disasterType, warningMessage string) Category {
	if strings.TrimSpace(disasterType) == "" {
		return CategoryOther
	}

	dt := strings.ToLower(disasterType)
	msg := strings.ToLower(warningMessage)

	for _, rule := range categoryRules {
		for _, kw := range rule.typeKeywords {
			if strings.Contains(dt, kw) {
				return rule.category
			}
		}
		for _, kw := range rule.msgKeywords {
			if strings.Contains(msg, kw) {
				return rule.category
			}
		}
	}

	return CategoryOther
}
