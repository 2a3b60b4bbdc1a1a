package domain

import (
	"math"
	"sort"
)

// RiskCategory is a drought risk label.
type RiskCategory string

const (
	RiskLow      RiskCategory = "BAJO"
	RiskModerate RiskCategory = "MODERADO"
	RiskHigh     RiskCategory = "ALTO"
	RiskCritical RiskCategory = "CRÍTICO"
)

// Severity orders categories from BAJO (0) to CRÍTICO (3). Unknown values
// return -1.
func (r RiskCategory) Severity() int {
	switch r {
	case RiskLow:
		return 0
	case RiskModerate:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	default:
		return -1
	}
}

// Thresholds are percentile cut points of the historical totals.
type Thresholds struct {
	P10 float64 `json:"p10"`
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
}

// ComputeThresholds derives p10, p25, and the median from the record's
// volumes. The record must not be empty.
func ComputeThresholds(h HistoricalRecord) Thresholds {
	sorted := h.Volumes()
	sort.Float64s(sorted)
	return Thresholds{
		P10: percentile(sorted, 10),
		P25: percentile(sorted, 25),
		P50: percentile(sorted, 50),
	}
}

// percentile interpolates linearly between the closest ranks of an ascending
// slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Classify maps a volume to a risk category:
//   - v <= p10: CRÍTICO
//   - v <= p25: ALTO
//   - v <= p50: MODERADO
//   - otherwise BAJO
func (t Thresholds) Classify(v float64) RiskCategory {
	switch {
	case v <= t.P10:
		return RiskCritical
	case v <= t.P25:
		return RiskHigh
	case v <= t.P50:
		return RiskModerate
	default:
		return RiskLow
	}
}

// MostSevere returns the highest-severity category in cats, or BAJO when
// cats is empty.
func MostSevere(cats []RiskCategory) RiskCategory {
	worst := RiskLow
	for _, c := range cats {
		if c.Severity() > worst.Severity() {
			worst = c
		}
	}
	return worst
}
