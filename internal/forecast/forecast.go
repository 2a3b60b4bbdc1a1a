// Package forecast fits a time-series model to the reservoir history and
// produces monthly point predictions.
package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/reservoir-forecast-service/internal/domain"
)

// Fitter trains a Model from history. Implementations must not retain or
// modify the history slice.
type Fitter interface {
	Fit(history domain.HistoricalRecord) (Model, error)
}

// Model produces predictions for arbitrary dates. A fitted Model is immutable
// and safe for concurrent use.
type Model interface {
	Predict(dates []time.Time) domain.Forecast
}

// Engine pairs a fitted model with the end of the history it was trained on.
type Engine struct {
	model    Model
	lastDate time.Time
}

// NewEngine fits a model with f. It fails with domain.ErrFit when the history
// has fewer than two points or any non-finite volume, whatever the Fitter.
func NewEngine(f Fitter, history domain.HistoricalRecord) (*Engine, error) {
	last, ok := history.Last()
	if !ok || len(history) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 observations, got %d", domain.ErrFit, len(history))
	}
	for i, o := range history {
		if math.IsNaN(o.Volume) || math.IsInf(o.Volume, 0) {
			return nil, fmt.Errorf("%w: non-finite volume at %s (row %d)", domain.ErrFit, o.Date.Format(domain.DateLayout), i)
		}
	}
	model, err := f.Fit(history)
	if err != nil {
		return nil, err
	}
	return &Engine{model: model, lastDate: last.Date}, nil
}

// LastDate returns the last historical date seen by the model.
func (e *Engine) LastDate() time.Time {
	return e.lastDate
}

// Predict forecasts horizon monthly periods after the last historical date.
func (e *Engine) Predict(horizon int) (domain.Forecast, error) {
	if err := domain.ValidateHorizon(horizon); err != nil {
		return nil, err
	}
	return e.model.Predict(FutureMonths(e.lastDate, horizon)), nil
}

// FutureMonths returns n month-start dates strictly after last, in order.
func FutureMonths(last time.Time, n int) []time.Time {
	start := time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = start.AddDate(0, i+1, 0)
	}
	return dates
}
