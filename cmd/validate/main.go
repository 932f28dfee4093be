// Command validate checks captured NDMA feed fixtures against the
// normalization and categorization pipeline: every generic record must
// normalize or be explainably malformed, every seismic record must yield a
// stable identifier, and every produced topic must be a legal bus subject.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -alerts-json testdata/cap_alerts.json \
//	  -quakes-json testdata/earthquake_alerts.json
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/cap-alert-dispatch/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	alertsJSON := flag.String("alerts-json", "", "path to a captured generic alert feed response")
	quakesJSON := flag.String("quakes-json", "", "path to a captured earthquake feed response")
	flag.Parse()

	if *alertsJSON == "" || *quakesJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*alertsJSON, *quakesJSON))
}

func run(alertsPath, quakesPath string) int {
	fmt.Println("=== CAP Alert Feed Validation ===")
	fmt.Println()

	generic, err := loadFeed[domain.RawGenericAlert](alertsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load alert feed: %v\n", err)
		return 1
	}
	seismic, err := loadFeed[domain.RawSeismicAlert](quakesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load earthquake feed: %v\n", err)
		return 1
	}

	alerts, genericPhase := validateGeneric(generic)
	quakes, seismicPhase := validateSeismic(seismic)
	all := append(alerts, quakes...)

	phases := []*phase{
		genericPhase,
		seismicPhase,
		validateTopics(all),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-36s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d generic, %d seismic\n", len(generic), len(seismic))
	printCategoryCounts(all)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// loadFeed reads a captured feed response, accepting either a bare array or
// an {"alerts": [...]} envelope, matching what the feed client accepts.
func loadFeed[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []T
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}
	var envelope struct {
		Alerts []T `json:"alerts"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("neither a record array nor an alerts envelope: %w", err)
	}
	return envelope.Alerts, nil
}

func validateGeneric(records []domain.RawGenericAlert) ([]domain.Alert, *phase) {
	p := &phase{name: "generic normalization"}
	alerts := make([]domain.Alert, 0, len(records))

	for i, rec := range records {
		alert, err := domain.NormalizeGeneric(rec, nil)
		if err != nil {
			if errors.Is(err, domain.ErrMissingIdentifier) {
				p.errorf("record %d: missing identifier (disaster_type=%q)", i, rec.DisasterType)
			} else {
				p.errorf("record %d: %v", i, err)
			}
			continue
		}
		if rec.DisasterType != "" && alert.Category == domain.CategoryOther {
			p.errorf("record %d (%s): disaster type %q categorized as other", i, rec.Identifier, rec.DisasterType)
		}
		alerts = append(alerts, alert)
	}
	return alerts, p
}

func validateSeismic(records []domain.RawSeismicAlert) ([]domain.Alert, *phase) {
	p := &phase{name: "seismic marker extraction"}
	alerts := make([]domain.Alert, 0, len(records))

	for i, rec := range records {
		alert := domain.NormalizeSeismic(rec)
		if alert.Identifier == "" {
			p.errorf("record %d: empty identifier", i)
		}
		if alert.Category != domain.CategoryEarthquake {
			p.errorf("record %d (%s): categorized as %s", i, alert.Identifier, alert.Category)
		}
		if _, _, ok := alert.Epicenter(); !ok {
			p.errorf("record %d (%s): no epicenter parsed from %q", i, alert.Identifier, rec.WarningMessage)
		}
		if alert.AreaDescription == "" {
			p.errorf("record %d (%s): no Location: marker in warning message", i, alert.Identifier)
		}
		alerts = append(alerts, alert)
	}
	return alerts, p
}

// validateTopics checks that every subject the pipeline would publish to is
// legal: non-empty segments, no whitespace, no NATS wildcard characters.
func validateTopics(alerts []domain.Alert) *phase {
	p := &phase{name: "topic safety"}

	for _, alert := range alerts {
		topic := domain.CategoryTopic(alert.Category)
		if err := checkSubject(topic); err != nil {
			p.errorf("alert %s: category topic %q: %v", alert.Identifier, topic, err)
		}
	}
	return p
}

func checkSubject(subject string) error {
	if subject == "" {
		return errors.New("empty subject")
	}
	for _, segment := range strings.Split(subject, "/") {
		if segment == "" {
			return errors.New("empty segment")
		}
		if strings.ContainsAny(segment, " \t.*>") {
			return fmt.Errorf("segment %q contains reserved characters", segment)
		}
	}
	return nil
}

func printCategoryCounts(alerts []domain.Alert) {
	counts := make(map[domain.Category]int)
	for _, alert := range alerts {
		counts[alert.Category]++
	}
	for _, category := range domain.AllCategories {
		if counts[category] == 0 {
			continue
		}
		fmt.Printf("  %-24s %d\n", category, counts[category])
	}
}
