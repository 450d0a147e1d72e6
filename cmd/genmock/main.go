// Command genmock generates weather observation fixtures for the assessor
// test suites. Expected features and verdicts are computed with the real
// domain converter and the reference scoring model, so fixtures always match
// pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock -n 50 -seed 42 -out data/mock/generated_observations.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/couchcryptid/training-suitability/internal/domain"
	"github.com/couchcryptid/training-suitability/internal/scoringstub"
)

var baseTime = time.Date(2026, time.April, 9, 6, 0, 0, 0, time.UTC)

// conditions mirrors the condition texts WeatherAPI.com reports.
var conditions = []string{
	"Sunny", "Clear", "Partly cloudy", "Cloudy", "Overcast", "Mist", "Fog",
	"Patchy rain possible", "Patchy light drizzle", "Light drizzle",
	"Light rain", "Moderate rain", "Heavy rain", "Light rain shower",
	"Torrential rain shower", "Thundery outbreaks possible",
	"Moderate or heavy rain with thunder", "Patchy light snow", "Blizzard",
	"Bright sunshine", "Sunny intervals with thunderstorm",
}

type fixture struct {
	Observation      domain.WeatherObservation `json:"observation"`
	ExpectedFeatures [5]int                    `json:"expected_features"`
	ExpectedVerdict  string                    `json:"expected_verdict"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	n := flag.Int("n", 50, "number of observations to generate")
	seed := flag.Uint64("seed", 42, "random seed for reproducible output")
	out := flag.String("out", "", "output path for the observations JSON fixture")
	flag.Parse()

	if *out == "" || *n <= 0 {
		flag.Usage()
		return fmt.Errorf("missing required flags: -out and a positive -n")
	}

	f := gofakeit.New(*seed)
	model := scoringstub.TableModel{}

	fixtures := make([]fixture, 0, *n)
	for i := range *n {
		obs := randomObservation(f, i)
		fx, err := expected(model, obs)
		if err != nil {
			return fmt.Errorf("observation %d: %w", i, err)
		}
		fixtures = append(fixtures, fx)
	}

	if err := writeJSON(*out, fixtures); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote %d observations: %s", len(fixtures), *out)

	printStats(fixtures)
	return nil
}

func randomObservation(f *gofakeit.Faker, i int) domain.WeatherObservation {
	temp := round1(f.Float64Range(-10, 42))
	return domain.WeatherObservation{
		Location:    f.City(),
		Temperature: temp,
		Condition:   f.RandomString(conditions),
		WindSpeed:   round1(f.Float64Range(0, 60)),
		Humidity:    f.IntRange(5, 100),
		Pressure:    round1(f.Float64Range(980, 1040)),
		UVIndex:     round1(f.Float64Range(0, 11)),
		Cloudiness:  f.IntRange(0, 100),
		FeelsLike:   round1(temp + f.Float64Range(-4, 4)),
		Visibility:  round1(f.Float64Range(1, 10)),
		ObservedAt:  baseTime.Add(time.Duration(i) * 15 * time.Minute),
	}
}

// expected derives the fixture's expected features and verdict. Vectors the
// orchestrator rejects are recorded as "failed".
func expected(model scoringstub.Model, obs domain.WeatherObservation) (fixture, error) {
	features := domain.Convert(obs)
	fx := fixture{Observation: obs, ExpectedFeatures: features.Binary()}

	if domain.ValidateFeatures(features) != nil {
		fx.ExpectedVerdict = "failed"
		return fx, nil
	}
	label, err := model.Predict(features.Binary())
	if err != nil {
		return fixture{}, err
	}
	fx.ExpectedVerdict = string(domain.NotSuitable)
	if label == 1 {
		fx.ExpectedVerdict = string(domain.Suitable)
	}
	return fx, nil
}

func round1(v float64) float64 {
	return float64(int(v*10)) / 10
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(fixtures []fixture) {
	verdicts := map[string]int{}
	conds := map[string]int{}
	for i := range fixtures {
		verdicts[fixtures[i].ExpectedVerdict]++
		conds[fixtures[i].Observation.Condition]++
	}

	fmt.Println("\n=== Fixture Stats ===")
	for _, v := range []string{string(domain.Suitable), string(domain.NotSuitable), "failed"} {
		fmt.Printf("%-14s %d\n", v+":", verdicts[v])
	}

	names := make([]string, 0, len(conds))
	for c := range conds {
		names = append(names, c)
	}
	sort.Strings(names)
	fmt.Println("\nConditions:")
	for _, c := range names {
		fmt.Printf("  %-40s %d\n", c, conds[c])
	}
}
