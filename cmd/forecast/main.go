// Command forecast runs reservoir drought predictions against a local
// history file without starting the HTTP service.
//
// Usage:
//
//	forecast predict --history data/embalses_limpio_final.csv --horizon 12 --scenario seco --level 31000
//	forecast thresholds --history data/embalses_limpio_final.csv
//	forecast validate --history data/embalses_limpio_final.csv --strict
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
