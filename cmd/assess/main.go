// Command assess scores a single weather observation against the scoring
// service, or checks the service's health.
//
// Usage:
//
//	go run ./cmd/assess -temp 22 -condition Sunny -humidity 55 -explain
//	go run ./cmd/assess -location London
//	go run ./cmd/assess health
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/training-suitability/internal/adapter/scoring"
	"github.com/couchcryptid/training-suitability/internal/adapter/weatherapi"
	"github.com/couchcryptid/training-suitability/internal/config"
	"github.com/couchcryptid/training-suitability/internal/domain"
	"github.com/couchcryptid/training-suitability/internal/observability"
	"github.com/couchcryptid/training-suitability/internal/predictor"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type options struct {
	baseURL   string
	timeout   time.Duration
	location  string
	temp      float64
	condition string
	humidity  int
	explain   bool
	watch     bool
	asJSON    bool
	health    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}

	opts, err := parseFlags(args, cfg, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	logger := sharedobs.NewLogger("warn", "text")
	metrics := observability.NewMetricsWithRegisterer(prometheus.NewRegistry())
	transport := scoring.NewTransport(opts.baseURL, opts.timeout, logger)

	feed := predictor.NewFeed()
	svc := predictor.New(transport, logger, metrics, predictor.WithFeed(feed))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.watch {
		transitions, unsubscribe := feed.Subscribe(8)
		done := make(chan struct{})
		go func() {
			watch(transitions, stderr)
			close(done)
		}()
		defer func() {
			unsubscribe()
			<-done
		}()
	}

	if opts.health {
		return runHealth(ctx, svc, stdout, stderr)
	}

	obs, err := observation(ctx, cfg, opts, metrics, logger)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
	return runPredict(ctx, svc, obs, opts, stdout, stderr)
}

func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("assess", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.baseURL, "base-url", cfg.ScoringBaseURL, "scoring service base URL")
	fs.DurationVar(&o.timeout, "timeout", cfg.ScoringTimeout, "scoring request timeout")
	fs.StringVar(&o.location, "location", "", "look up current weather for a location (requires WEATHERAPI_KEY)")
	fs.Float64Var(&o.temp, "temp", 0, "temperature in °C")
	fs.StringVar(&o.condition, "condition", "", "weather condition text, e.g. \"Light rain\"")
	fs.IntVar(&o.humidity, "humidity", 0, "relative humidity in percent")
	fs.BoolVar(&o.explain, "explain", false, "print how each feature was derived")
	fs.BoolVar(&o.watch, "watch", false, "print request lifecycle transitions to stderr")
	fs.BoolVar(&o.asJSON, "json", false, "print the outcome as JSON")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	switch rest := fs.Args(); {
	case len(rest) == 0:
	case len(rest) == 1 && rest[0] == "health":
		o.health = true
	default:
		return options{}, fmt.Errorf("unexpected arguments: %v", rest)
	}

	if o.humidity < 0 || o.humidity > 100 {
		return options{}, fmt.Errorf("humidity must be between 0 and 100, got %d", o.humidity)
	}
	if o.timeout <= 0 {
		return options{}, errors.New("timeout must be positive")
	}
	return o, nil
}

// observation builds the observation from flags, or fetches it when a
// location is given.
func observation(ctx context.Context, cfg *config.Config, o options, metrics *observability.Metrics, logger *slog.Logger) (domain.WeatherObservation, error) {
	if o.location == "" {
		return domain.WeatherObservation{
			Location:    "cli",
			Temperature: o.temp,
			Condition:   o.condition,
			Humidity:    o.humidity,
			ObservedAt:  domain.Now(),
		}, nil
	}
	if cfg.WeatherAPIKey == "" {
		return domain.WeatherObservation{}, errors.New("-location requires WEATHERAPI_KEY")
	}
	client := weatherapi.NewClient(cfg.WeatherAPIKey, cfg.WeatherAPITimeout, metrics, logger)
	return client.Current(ctx, o.location)
}

func runPredict(ctx context.Context, svc *predictor.Service, obs domain.WeatherObservation, o options, stdout, stderr io.Writer) int {
	features := domain.Convert(obs)
	if o.explain {
		fmt.Fprintln(stdout, domain.Explain(obs, features))
		fmt.Fprintln(stdout)
	}

	outcome, err := svc.Predict(ctx, obs)
	if err != nil {
		printFailure(stderr, err)
		return exitFailure
	}

	if o.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcome); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitFailure
		}
		return exitOK
	}

	fmt.Fprintf(stdout, "%s (%.1f°C, %s, %d%% humidity)\n", obs.Location, obs.Temperature, obs.Condition, obs.Humidity)
	fmt.Fprintf(stdout, "features:   %v\n", features.Binary())
	fmt.Fprintf(stdout, "verdict:    %s\n", outcome.Verdict)
	fmt.Fprintf(stdout, "confidence: %s\n", outcome.Confidence)
	fmt.Fprintf(stdout, "message:    %s\n", outcome.Message)
	return exitOK
}

func runHealth(ctx context.Context, svc *predictor.Service, stdout, stderr io.Writer) int {
	status, err := svc.Health(ctx)
	if err != nil {
		printFailure(stderr, err)
		return exitFailure
	}
	fmt.Fprintf(stdout, "status: %s, model loaded: %t\n", status.Status, status.ModelLoaded)
	if status.Message != "" {
		fmt.Fprintf(stdout, "message: %s\n", status.Message)
	}
	if !status.Healthy() {
		return exitFailure
	}
	return exitOK
}

func printFailure(w io.Writer, err error) {
	f, ok := domain.AsFailure(err)
	if !ok {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "%s failure: %s\n", f.Kind, f.Message)
	if f.Retryable() {
		fmt.Fprintln(w, "this failure is transient; try again")
	}
}

func watch(transitions <-chan predictor.Transition, w io.Writer) {
	for t := range transitions {
		if t.Failure != nil {
			fmt.Fprintf(w, "[%s] %s %s: %s\n", t.At.Format(time.TimeOnly), t.Op, t.State, t.Failure.Kind)
			continue
		}
		fmt.Fprintf(w, "[%s] %s %s\n", t.At.Format(time.TimeOnly), t.Op, t.State)
	}
}
