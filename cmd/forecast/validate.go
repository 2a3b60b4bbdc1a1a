package main

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/reservoir-forecast-service/internal/domain"
	"github.com/couchcryptid/reservoir-forecast-service/internal/history"
	"github.com/spf13/cobra"
)

// errValidationFailed is returned when --strict finds integrity problems.
var errValidationFailed = errors.New("validation failed")

func newValidateCmd(g *globalOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the history file for dropped rows, duplicates, and gaps",
		Long: `Parse the history file the same way the service does and report rows
dropped for missing values, duplicate dates, gaps wider than a month, and
negative totals. With --strict any finding is an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			record, dropped, err := g.loader(cmd).ParseFile(g.historyPath)
			if err != nil {
				return err
			}
			rep := history.Inspect(record, dropped)
			printReport(cmd, g.historyPath, rep)

			if rep.Rows < 2 {
				return fmt.Errorf("%w: %d usable rows", domain.ErrFit, rep.Rows)
			}
			if strict && !rep.Clean() {
				return errValidationFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any integrity check finds a problem")
	return cmd
}

func printReport(cmd *cobra.Command, path string, rep history.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "=== History Integrity: %s ===\n\n", path)
	fmt.Fprintf(out, "Rows: %d usable, %d dropped\n", rep.Rows, rep.Dropped)
	if rep.Rows > 0 {
		fmt.Fprintf(out, "Range: %s to %s\n", rep.Start.Format(domain.DateLayout), rep.End.Format(domain.DateLayout))
		fmt.Fprintf(out, "Totals: min %.1f, max %.1f\n", rep.Min, rep.Max)
	}
	fmt.Fprintln(out)

	checks := []struct {
		name  string
		count int
	}{
		{"rows with missing values", rep.Dropped},
		{"duplicate dates", len(rep.Duplicates)},
		{"gaps wider than a month", len(rep.Gaps)},
		{"negative totals", rep.Negative},
	}
	for _, c := range checks {
		status := "PASS"
		if c.count > 0 {
			status = fmt.Sprintf("WARN (%d)", c.count)
		}
		fmt.Fprintf(out, "  %-28s %s\n", c.name, status)
	}

	for _, d := range rep.Duplicates {
		fmt.Fprintf(out, "  duplicate: %s\n", d.Format(domain.DateLayout))
	}
	for _, gap := range rep.Gaps {
		fmt.Fprintf(out, "  gap: %s -> %s\n", gap.From.Format(domain.DateLayout), gap.To.Format(domain.DateLayout))
	}
}
