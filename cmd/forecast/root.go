package main

import (
	"io"
	"log/slog"

	"github.com/couchcryptid/reservoir-forecast-service/internal/domain"
	"github.com/couchcryptid/reservoir-forecast-service/internal/forecast"
	"github.com/couchcryptid/reservoir-forecast-service/internal/history"
	"github.com/couchcryptid/reservoir-forecast-service/internal/observability"
	"github.com/couchcryptid/reservoir-forecast-service/internal/pipeline"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	historyPath  string
	dateColumn   string
	valueColumn  string
	scenarioFile string
	verbose      bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "forecast",
		Short: "Reservoir drought forecasts from historical totals",
		Long: `Fit the seasonal trend model on a historical reservoir CSV and answer
scenario predictions, risk thresholds, and data integrity checks locally.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.historyPath, "history", "data/embalses_limpio_final.csv", "path to the historical CSV")
	pf.StringVar(&opts.dateColumn, "date-column", history.DefaultDateColumn, "name of the date column")
	pf.StringVar(&opts.valueColumn, "value-column", history.DefaultValueColumn, "name of the total column")
	pf.StringVar(&opts.scenarioFile, "scenarios", "", "YAML file overriding scenario factors")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to stderr")

	root.AddCommand(
		newPredictCmd(opts),
		newThresholdsCmd(opts),
		newValidateCmd(opts),
	)
	return root
}

func (o *globalOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *globalOptions) loader(cmd *cobra.Command) *history.Loader {
	return history.NewLoader(o.dateColumn, o.valueColumn, o.logger(cmd.ErrOrStderr()))
}

// pipeline builds and initializes a pipeline for the configured history.
func (o *globalOptions) pipeline(cmd *cobra.Command) (*pipeline.Pipeline, error) {
	scenarios := domain.DefaultScenarioSet()
	if o.scenarioFile != "" {
		var err error
		scenarios, err = domain.LoadScenarioSet(o.scenarioFile)
		if err != nil {
			return nil, err
		}
	}

	p := pipeline.New(o.loader(cmd), o.historyPath, forecast.SeasonalTrendFitter{}, scenarios,
		o.logger(cmd.ErrOrStderr()), observability.NewUnregisteredMetrics())
	if err := p.Init(cmd.Context()); err != nil {
		return nil, err
	}
	return p, nil
}
