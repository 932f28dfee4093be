package domain

// Topic derivation for the message bus. Both functions are total: they never
// fail and never return an empty string, falling back to placeholder segments
// when an input is missing.

// CategoryTopicPrefix is the leading segment of every category bundle topic.
const CategoryTopicPrefix = "alerts"

// CategoryTopic returns the bulk-publication topic for a category,
// e.g. "alerts/rainfall_floods".
func CategoryTopic(c Category) string {
	if c == "" {
		c = CategoryOther
	}
	return CategoryTopicPrefix + "/" + string(c)
}

// SensorTopic returns the per-sensor match topic, e.g. "rainfall/20001_0000_62963_01".
func SensorTopic(class, sensorID string) string {
	if class == "" {
		class = "unknown"
	}
	if sensorID == "" {
		sensorID = "unknown"
	}
	return class + "/" + sensorID
}
