package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/couchcryptid/reservoir-forecast-service/internal/domain"
	"github.com/spf13/cobra"
)

func newThresholdsCmd(g *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "thresholds",
		Short: "Print the historical risk thresholds and scenario factors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := g.pipeline(cmd)
			if err != nil {
				return err
			}
			t, err := p.Thresholds()
			if err != nil {
				return err
			}
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(t)
			}

			factors := p.Scenarios()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RIESGO\tHASTA")
			fmt.Fprintf(w, "%s\t%.1f\n", domain.RiskCritical, t.P10)
			fmt.Fprintf(w, "%s\t%.1f\n", domain.RiskHigh, t.P25)
			fmt.Fprintf(w, "%s\t%.1f\n", domain.RiskModerate, t.P50)
			fmt.Fprintf(w, "%s\t-\n", domain.RiskLow)
			fmt.Fprintln(w)
			fmt.Fprintln(w, "ESCENARIO\tFACTOR")
			for _, sc := range domain.Scenarios {
				fmt.Fprintf(w, "%s\t%.2f\n", sc, factors[sc])
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print thresholds as JSON")
	return cmd
}
