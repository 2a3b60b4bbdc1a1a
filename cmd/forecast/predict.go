package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/couchcryptid/reservoir-forecast-service/internal/domain"
	"github.com/spf13/cobra"
)

type predictOptions struct {
	horizon  int
	scenario string
	level    float64
	asJSON   bool
}

func newPredictCmd(g *globalOptions) *cobra.Command {
	opts := &predictOptions{}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Forecast reservoir totals and drought risk under a scenario",
		Long: `Forecast the next --horizon months under a climate scenario and classify
drought risk for every month.

Examples:
  # Twelve months under a dry scenario, calibrated to today's reading
  forecast predict --horizon 12 --scenario seco --level 31000

  # Raw JSON response
  forecast predict --horizon 6 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var level *float64
			if cmd.Flags().Changed("level") {
				level = &opts.level
			}
			if err := domain.ValidateHorizon(opts.horizon); err != nil {
				return err
			}
			if _, err := domain.ParseScenario(opts.scenario); err != nil {
				return err
			}

			p, err := g.pipeline(cmd)
			if err != nil {
				return err
			}
			resp, err := p.PredictScenario(cmd.Context(), opts.horizon, opts.scenario, level)
			if err != nil {
				return err
			}
			if opts.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			return printPrediction(cmd, resp)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.horizon, "horizon", 12, "number of months to forecast")
	f.StringVar(&opts.scenario, "scenario", string(domain.ScenarioNormal), "climate scenario: muy_seco, seco, normal, humedo")
	f.Float64Var(&opts.level, "level", 0, "current reservoir total used to calibrate the forecast")
	f.BoolVar(&opts.asJSON, "json", false, "print the full response as JSON")
	return cmd
}

func printPrediction(cmd *cobra.Command, resp domain.ScenarioResponse) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Escenario: %s (factor %.2f)\n", resp.Scenario, resp.Factor)
	fmt.Fprintf(out, "Último valor real: %.1f (%s)\n", resp.LastRealVolume, resp.LastRealDate)
	if resp.UserLevel != nil {
		fmt.Fprintf(out, "Nivel actual: %.1f\n", *resp.UserLevel)
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FECHA\tVOLUMEN\tMIN\tMAX\tRIESGO")
	for _, p := range resp.Predictions {
		fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%.1f\t%s\n", p.Date, p.Volume, p.Lower, p.Upper, p.Risk)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nRiesgo final: %s (máximo %s)\n", resp.Risk, resp.MaxRisk)
	return nil
}
