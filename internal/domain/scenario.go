package domain

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario names a climate scenario.
type Scenario string

const (
	ScenarioNormal  Scenario = "normal"
	ScenarioDry     Scenario = "seco"
	ScenarioVeryDry Scenario = "muy_seco"
	ScenarioWet     Scenario = "humedo"
)

// Scenarios lists every recognized scenario from driest to wettest.
var Scenarios = []Scenario{ScenarioVeryDry, ScenarioDry, ScenarioNormal, ScenarioWet}

// ParseScenario normalizes an external scenario name. Case, surrounding
// whitespace, spaces or hyphens instead of underscores, and the accented
// "húmedo" are accepted.
func ParseScenario(name string) (Scenario, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer(" ", "_", "-", "_", "ú", "u").Replace(n)
	s := Scenario(n)
	switch s {
	case ScenarioNormal, ScenarioDry, ScenarioVeryDry, ScenarioWet:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q (expected one of normal, seco, muy_seco, humedo)", ErrUnknownScenario, name)
	}
}

// ScenarioSet maps each scenario to its volume multiplier.
type ScenarioSet struct {
	factors map[Scenario]float64
}

// DefaultScenarioSet returns the built-in scenario factors.
func DefaultScenarioSet() ScenarioSet {
	return ScenarioSet{factors: map[Scenario]float64{
		ScenarioVeryDry: 0.70,
		ScenarioDry:     0.85,
		ScenarioNormal:  1.00,
		ScenarioWet:     1.15,
	}}
}

// NewScenarioSet builds a set from explicit factors. Scenarios missing from
// factors keep their default value. The result must satisfy
// muy_seco < seco < normal <= humedo with every factor positive and finite.
func NewScenarioSet(factors map[Scenario]float64) (ScenarioSet, error) {
	set := DefaultScenarioSet()
	for s, f := range factors {
		if _, ok := set.factors[s]; !ok {
			return ScenarioSet{}, fmt.Errorf("%w: %q", ErrUnknownScenario, s)
		}
		set.factors[s] = f
	}
	if err := set.validate(); err != nil {
		return ScenarioSet{}, err
	}
	return set, nil
}

func (s ScenarioSet) validate() error {
	for _, sc := range Scenarios {
		f := s.factors[sc]
		if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
			return fmt.Errorf("scenario %s: factor %v must be positive and finite", sc, f)
		}
	}
	vd, d, n, w := s.factors[ScenarioVeryDry], s.factors[ScenarioDry], s.factors[ScenarioNormal], s.factors[ScenarioWet]
	if !(vd < d && d < n && n <= w) {
		return fmt.Errorf("scenario factors out of order: muy_seco=%v seco=%v normal=%v humedo=%v", vd, d, n, w)
	}
	return nil
}

type scenarioFile struct {
	Factors map[Scenario]float64 `yaml:"factors"`
}

// LoadScenarioSet reads scenario factors from a YAML file of the form:
//
//	factors:
//	  seco: 0.8
//	  muy_seco: 0.6
func LoadScenarioSet(path string) (ScenarioSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ScenarioSet{}, fmt.Errorf("read scenario file: %w", err)
	}
	var f scenarioFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return ScenarioSet{}, fmt.Errorf("parse scenario file: %w", err)
	}
	return NewScenarioSet(f.Factors)
}

// Factor returns the multiplier for a scenario.
func (s ScenarioSet) Factor(sc Scenario) (float64, error) {
	f, ok := s.factors[sc]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownScenario, sc)
	}
	return f, nil
}

// Factors returns a copy of the scenario factors keyed by name.
func (s ScenarioSet) Factors() map[Scenario]float64 {
	out := make(map[Scenario]float64, len(s.factors))
	for k, v := range s.factors {
		out[k] = v
	}
	return out
}

// Apply multiplies every predicted value, including the interval bounds, by
// the scenario factor. Dates are unchanged and the input is not modified.
func (s ScenarioSet) Apply(f Forecast, sc Scenario) (Forecast, error) {
	factor, err := s.Factor(sc)
	if err != nil {
		return nil, err
	}
	out := f.clone()
	for i := range out {
		out[i].Volume *= factor
		out[i].Lower *= factor
		out[i].Upper *= factor
	}
	return out, nil
}
