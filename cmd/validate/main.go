// Command validate checks an observations fixture for internal consistency:
// every observation passes schema validation, its expected features match
// the domain converter, and its expected verdict matches the reference
// scoring model.
//
// Usage:
//
//	go run ./cmd/validate -fixture data/mock/observations.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/training-suitability/internal/domain"
	"github.com/couchcryptid/training-suitability/internal/scoringstub"
)

type fixture struct {
	Observation      domain.WeatherObservation `json:"observation"`
	ExpectedFeatures [5]int                    `json:"expected_features"`
	ExpectedVerdict  string                    `json:"expected_verdict"`
}

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
	path := flag.String("fixture", "", "path to observations JSON fixture")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*path))
}

func run(path string) int {
	fmt.Println("=== Observation Fixture Validation ===")
	fmt.Println()

	fixtures, err := loadJSON[fixture](path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load fixture: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateSchema(fixtures),
		validateFeatures(fixtures),
		validateVerdicts(fixtures, scoringstub.TableModel{}),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d\n", len(fixtures))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Printf("  ... and %d more\n", len(p.errors)-20)
				break
			}
			fmt.Printf("  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func validateSchema(fixtures []fixture) *phase {
	p := &phase{name: "Phase 1: Observation schema"}
	v := validator.New()
	for i := range fixtures {
		obs := fixtures[i].Observation
		if obs.Location == "" {
			p.errorf("[%d] missing location", i)
		}
		if obs.ObservedAt.IsZero() {
			p.errorf("[%d] %s: missing observed_at", i, obs.Location)
		}
		if err := v.Struct(obs); err != nil {
			p.errorf("[%d] %s: %v", i, obs.Location, err)
		}
	}
	return p
}

func validateFeatures(fixtures []fixture) *phase {
	p := &phase{name: "Phase 2: Feature conversion"}
	for i := range fixtures {
		fx := &fixtures[i]
		if err := v01(fx.ExpectedFeatures); err != nil {
			p.errorf("[%d] %s: %v", i, fx.Observation.Location, err)
			continue
		}
		got := domain.Convert(fx.Observation).Binary()
		if got != fx.ExpectedFeatures {
			p.errorf("[%d] %s: features=%v, expected %v", i, fx.Observation.Location, got, fx.ExpectedFeatures)
		}
	}
	return p
}

func validateVerdicts(fixtures []fixture, model scoringstub.Model) *phase {
	p := &phase{name: "Phase 3: Expected verdicts"}
	for i := range fixtures {
		fx := &fixtures[i]
		want := verdictFor(model, fx.ExpectedFeatures)
		if want != fx.ExpectedVerdict {
			p.errorf("[%d] %s: verdict=%q, model says %q", i, fx.Observation.Location, fx.ExpectedVerdict, want)
		}
	}
	return p
}

func verdictFor(model scoringstub.Model, bits [5]int) string {
	if domain.ValidateFeatures(domain.FeatureVectorFromBinary(bits)) != nil {
		return "failed"
	}
	label, err := model.Predict(bits)
	if err != nil {
		return "error: " + err.Error()
	}
	if label == 1 {
		return string(domain.Suitable)
	}
	return string(domain.NotSuitable)
}

func v01(bits [5]int) error {
	for i, b := range bits {
		if b != 0 && b != 1 {
			return fmt.Errorf("feature %d is %d, want 0 or 1", i, b)
		}
	}
	return nil
}
