// Package domain models NDMA Common Alerting Protocol (CAP) disaster warnings
// and the field-sensor snapshots they are matched against.
//
// # Data Source
//
// Alerts originate from the National Disaster Management Authority (NDMA)
// public CAP feeds at https://sachet.ndma.gov.in/. Two structurally different
// shapes arrive: generic CAP records (one JSON object per warning, with a
// provider-issued identifier and descriptive metadata) and seismic records
// (earthquake events whose identity, magnitude, and location are embedded in
// the free-text warning message, with inline intensity polygons).
//
// # Seismic Warning Message Markers
//
// Seismic records encode structured data inside warning_message using three
// recognized markers, parsed independently of one another:
//
//	"Magnitude: 5.2, ..."            → magnitude, up to the next comma
//	"Lat: 19.07 & Long: 72.88, ..."  → epicenter coordinates (both required)
//	"Location: Mumbai"               → place name, to end of message
//
// A parse failure for one marker never blocks the others; each is silently
// skipped so partial records still normalize.
//
// # Timestamp Format
//
// Upstream effective times are strings like "Sun Feb 01 10:34:17 IST 2026".
// They are carried through normalization verbatim and parsed leniently at
// store time: a malformed timestamp stores as NULL rather than rejecting the
// record, so one bad field never makes an alert unqueryable.
//
// # Category Taxonomy
//
// [Categorize] maps each record into a closed taxonomy (earthquake, tsunami,
// landslide, ..., other) using two disjoint keyword sets: English keywords
// against the disaster_type label and Hindi keywords against the warning
// message. Rules are evaluated in a fixed precedence order because the sets
// are not mutually exclusive; the first match wins and CategoryOther is the
// fallback. Categories become message-bus topic segments via [CategoryTopic].
//
// # Identifier Generation
//
// Generic alerts carry a provider identifier; records without one are skipped
// ([ErrMissingIdentifier]) rather than fabricated, to avoid key collisions.
// The seismic feed supplies no identifier, so one is synthesized
// deterministically from the event timestamp (prefix "ndma-eq-" plus the
// timestamp with non-alphanumeric runs replaced). Deterministic identifiers
// make re-ingestion an idempotent upsert. See [NormalizeSeismic].
package domain
