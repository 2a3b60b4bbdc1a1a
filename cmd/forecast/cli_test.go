package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/reservoir-forecast-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeHistory writes n monthly rows starting 2020-01 and returns the path.
func writeHistory(t *testing.T, n int, skip ...int) string {
	t.Helper()
	skipped := map[int]bool{}
	for _, i := range skip {
		skipped[i] = true
	}
	var b strings.Builder
	b.WriteString("fecha,total\n")
	base := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := range n {
		if skipped[i] {
			continue
		}
		fmt.Fprintf(&b, "%s,%d\n", base.AddDate(0, i, 0).Format(domain.DateLayout), 1000+(i%12)*25)
	}
	path := filepath.Join(t.TempDir(), "history.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPredict_JSON(t *testing.T) {
	path := writeHistory(t, 36)

	out, err := run(t, "predict", "--history", path, "--horizon", "3", "--scenario", "Seco", "--json")
	require.NoError(t, err)

	var resp domain.ScenarioResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, domain.ScenarioDry, resp.Scenario)
	assert.InDelta(t, 0.85, resp.Factor, 1e-9)
	assert.Nil(t, resp.UserLevel)
	assert.Equal(t, "2022-12-01", resp.LastRealDate)
	require.Len(t, resp.Predictions, 3)
	assert.Equal(t, "2023-01-01", resp.Predictions[0].Date)
	assert.Equal(t, resp.Predictions[2].Risk, resp.Risk)
}

func TestPredict_LevelFlagCalibrates(t *testing.T) {
	path := writeHistory(t, 36)

	out, err := run(t, "predict", "--history", path, "--horizon", "2", "--level", "0", "--json")
	require.NoError(t, err)

	var resp domain.ScenarioResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.UserLevel)
	assert.InDelta(t, 0.0, *resp.UserLevel, 0)
	for _, p := range resp.Predictions {
		assert.GreaterOrEqual(t, p.Volume, 0.0)
		assert.Equal(t, domain.RiskCritical, p.Risk)
	}
}

func TestPredict_Table(t *testing.T) {
	path := writeHistory(t, 24)

	out, err := run(t, "predict", "--history", path, "--horizon", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "Escenario: normal (factor 1.00)")
	assert.Contains(t, out, "FECHA")
	assert.Contains(t, out, "2022-01-01")
	assert.Contains(t, out, "2022-02-01")
	assert.Contains(t, out, "Riesgo final:")
}

func TestPredict_InvalidInput(t *testing.T) {
	path := writeHistory(t, 24)

	_, err := run(t, "predict", "--history", path, "--horizon", "0")
	require.ErrorIs(t, err, domain.ErrInvalidHorizon)

	_, err = run(t, "predict", "--history", path, "--scenario", "lluvioso")
	require.ErrorIs(t, err, domain.ErrUnknownScenario)

	_, err = run(t, "predict", "--history", path, "--level", "-1")
	require.ErrorIs(t, err, domain.ErrInvalidLevel)
}

func TestPredict_MissingHistory(t *testing.T) {
	_, err := run(t, "predict", "--history", filepath.Join(t.TempDir(), "nope.csv"))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPredict_ScenarioFile(t *testing.T) {
	path := writeHistory(t, 24)
	scenarios := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(scenarios, []byte("factors:\n  seco: 0.5\n  muy_seco: 0.3\n"), 0o600))

	out, err := run(t, "predict", "--history", path, "--scenarios", scenarios, "--scenario", "seco", "--horizon", "1", "--json")
	require.NoError(t, err)

	var resp domain.ScenarioResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.InDelta(t, 0.5, resp.Factor, 1e-9)
}

func TestThresholds_JSON(t *testing.T) {
	path := writeHistory(t, 24)

	out, err := run(t, "thresholds", "--history", path, "--json")
	require.NoError(t, err)

	var th domain.Thresholds
	require.NoError(t, json.Unmarshal([]byte(out), &th))
	assert.LessOrEqual(t, th.P10, th.P25)
	assert.LessOrEqual(t, th.P25, th.P50)
	assert.InDelta(t, 1137.5, th.P50, 1e-9)
}

func TestThresholds_Table(t *testing.T) {
	path := writeHistory(t, 24)

	out, err := run(t, "thresholds", "--history", path)
	require.NoError(t, err)

	assert.Contains(t, out, "CRÍTICO")
	assert.Contains(t, out, "muy_seco")
	assert.Contains(t, out, "1.15")
}

func TestValidate_Clean(t *testing.T) {
	path := writeHistory(t, 24)

	out, err := run(t, "validate", "--history", path, "--strict")
	require.NoError(t, err)

	assert.Contains(t, out, "Rows: 24 usable, 0 dropped")
	assert.Contains(t, out, "Range: 2020-01-01 to 2021-12-01")
	assert.NotContains(t, out, "WARN")
}

func TestValidate_GapIsWarningUnlessStrict(t *testing.T) {
	path := writeHistory(t, 24, 5, 6)

	out, err := run(t, "validate", "--history", path)
	require.NoError(t, err)
	assert.Contains(t, out, "gap: 2020-05-01 -> 2020-08-01")

	_, err = run(t, "validate", "--history", path, "--strict")
	require.ErrorIs(t, err, errValidationFailed)
}

func TestValidate_TooFewRows(t *testing.T) {
	path := writeHistory(t, 1)

	_, err := run(t, "validate", "--history", path)
	require.ErrorIs(t, err, domain.ErrFit)
}

func TestValidate_MissingHistory(t *testing.T) {
	_, err := run(t, "validate", "--history", filepath.Join(t.TempDir(), "nope.csv"))
	require.ErrorIs(t, err, domain.ErrNotFound)
}
