// Command genhistory writes a synthetic monthly reservoir history CSV for
// local runs and tests. It reloads the file through the real history loader
// and pipeline so the printed thresholds and sample prediction match what the
// service would report.
//
// Usage:
//
//	go run ./cmd/genhistory \
//	  -out data/embalses_limpio_final.csv \
//	  -start 1990-01 -months 420 -seed 7
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/reservoir-forecast-service/internal/domain"
	"github.com/couchcryptid/reservoir-forecast-service/internal/forecast"
	"github.com/couchcryptid/reservoir-forecast-service/internal/history"
	"github.com/couchcryptid/reservoir-forecast-service/internal/observability"
	"github.com/couchcryptid/reservoir-forecast-service/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

type params struct {
	start     time.Time
	months    int
	base      float64
	trend     float64 // change per year
	amplitude float64 // seasonal swing
	noise     float64 // standard deviation
	missing   float64 // fraction of rows written with an NA total
	seed      uint64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the history CSV")
	start := flag.String("start", "1990-01", "first month (YYYY-MM)")
	months := flag.Int("months", 420, "number of monthly rows")
	base := flag.Float64("base", 32000, "mean reservoir total at the first month")
	trend := flag.Float64("trend", -150, "change in total per year")
	amplitude := flag.Float64("amplitude", 6000, "seasonal swing")
	noise := flag.Float64("noise", 1500, "noise standard deviation")
	missing := flag.Float64("missing", 0.01, "fraction of rows with a missing total")
	seed := flag.Uint64("seed", 7, "random seed")
	flag.Parse()

	if *out == "" || *months < 2 {
		flag.Usage()
		return fmt.Errorf("missing required flag -out or -months < 2")
	}
	startDate, err := time.Parse("2006-01", *start)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}

	p := params{
		start:     startDate,
		months:    *months,
		base:      *base,
		trend:     *trend,
		amplitude: *amplitude,
		noise:     *noise,
		missing:   *missing,
		seed:      *seed,
	}
	if err := writeHistory(*out, p); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	log.Printf("wrote history: %s (%d months)", *out, p.months)

	return printStats(*out)
}

func writeHistory(path string, p params) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := generate(f, p); err != nil {
		return err
	}
	return f.Close()
}

// generate writes the header and p.months rows. Dry summers follow the
// Iberian pattern: lowest totals around September, highest around March.
func generate(w io.Writer, p params) error {
	rng := rand.New(rand.NewPCG(p.seed, p.seed^0x9e3779b97f4a7c15))
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{history.DefaultDateColumn, history.DefaultValueColumn}); err != nil {
		return err
	}
	for i := range p.months {
		d := p.start.AddDate(0, i, 0)
		total := ""
		if rng.Float64() >= p.missing {
			years := float64(i) / 12
			season := p.amplitude * math.Cos(2*math.Pi*float64(d.Month()-time.March)/12)
			v := math.Max(0, p.base+p.trend*years+season+rng.NormFloat64()*p.noise)
			total = strconv.FormatFloat(math.Round(v*10)/10, 'f', 1, 64)
		}
		if err := cw.Write([]string{d.Format(domain.DateLayout), total}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func printStats(path string) error {
	// Fixed clock for reproducible generated_at values.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := pipeline.New(history.NewLoader("", "", logger), path, forecast.SeasonalTrendFitter{},
		domain.DefaultScenarioSet(), logger, observability.NewUnregisteredMetrics())
	if err := p.Init(context.Background()); err != nil {
		return err
	}
	t, err := p.Thresholds()
	if err != nil {
		return err
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Thresholds: p10=%.1f p25=%.1f p50=%.1f\n", t.P10, t.P25, t.P50)
	for _, sc := range domain.Scenarios {
		resp, err := p.PredictScenario(context.Background(), 12, string(sc), nil)
		if err != nil {
			return err
		}
		last := resp.Predictions[len(resp.Predictions)-1]
		fmt.Printf("12 months %-8s final=%.1f risk=%s max=%s\n", sc, last.Volume, resp.Risk, resp.MaxRisk)
	}
	return nil
}
