package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/reservoir-forecast-service/internal/domain"
)

const (
	// intervalZ is the two-sided normal quantile for an 80% interval.
	intervalZ = 1.2816

	daysPerYear = 365.25
)

// SeasonalTrendFitter fits an additive model
//
//	y(t) = intercept + slope*t + season[month(t)]
//
// with t in years since the first observation. The trend is ordinary least
// squares; the seasonal term is the mean trend residual per calendar month
// and is only estimated when the history spans at least a year.
type SeasonalTrendFitter struct{}

// Fit implements Fitter.
func (SeasonalTrendFitter) Fit(history domain.HistoricalRecord) (Model, error) {
	n := len(history)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 observations, got %d", domain.ErrFit, n)
	}
	for i, o := range history {
		if math.IsNaN(o.Volume) || math.IsInf(o.Volume, 0) {
			return nil, fmt.Errorf("%w: non-finite volume at %s (row %d)", domain.ErrFit, o.Date.Format(domain.DateLayout), i)
		}
	}

	origin := history[0].Date
	ts := make([]float64, n)
	for i, o := range history {
		ts[i] = yearsSince(origin, o.Date)
	}

	intercept, slope := leastSquares(ts, history.Volumes())

	m := &seasonalTrendModel{origin: origin, intercept: intercept, slope: slope}

	residuals := make([]float64, n)
	for i, o := range history {
		residuals[i] = o.Volume - (intercept + slope*ts[i])
	}

	if ts[n-1] >= 1 {
		var sums, counts [12]float64
		for i, o := range history {
			idx := int(o.Date.Month()) - 1
			sums[idx] += residuals[i]
			counts[idx]++
		}
		for i := range m.season {
			if counts[i] > 0 {
				m.season[i] = sums[i] / counts[i]
			}
		}
		for i, o := range history {
			residuals[i] -= m.season[int(o.Date.Month())-1]
		}
	}

	var ss float64
	for _, r := range residuals {
		ss += r * r
	}
	m.sigma = math.Sqrt(ss / float64(n))

	return m, nil
}

type seasonalTrendModel struct {
	origin    time.Time
	intercept float64
	slope     float64
	season    [12]float64
	sigma     float64
}

func (m *seasonalTrendModel) Predict(dates []time.Time) domain.Forecast {
	out := make(domain.Forecast, len(dates))
	half := intervalZ * m.sigma
	for i, d := range dates {
		yhat := m.intercept + m.slope*yearsSince(m.origin, d) + m.season[int(d.Month())-1]
		out[i] = domain.ForecastPoint{
			Date:   d,
			Volume: yhat,
			Lower:  yhat - half,
			Upper:  yhat + half,
		}
	}
	return out
}

func yearsSince(origin, t time.Time) float64 {
	return t.Sub(origin).Hours() / 24 / daysPerYear
}

// leastSquares returns the intercept and slope of the OLS line through
// (xs, ys). A degenerate x spread yields a flat line at the mean of ys.
func leastSquares(xs, ys []float64) (intercept, slope float64) {
	n := float64(len(xs))
	var sx, sy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
	}
	mx, my := sx/n, sy/n

	var sxx, sxy float64
	for i := range xs {
		dx := xs[i] - mx
		sxx += dx * dx
		sxy += dx * (ys[i] - my)
	}
	if sxx == 0 {
		return my, 0
	}
	slope = sxy / sxx
	return my - slope*mx, slope
}
