// Package pipeline composes history loading, model fitting, scenario
// application, calibration, and risk classification into the prediction
// service used by the HTTP adapter and the CLI.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/reservoir-forecast-service/internal/domain"
	"github.com/couchcryptid/reservoir-forecast-service/internal/forecast"
	"github.com/couchcryptid/reservoir-forecast-service/internal/observability"
	"github.com/google/uuid"
)

// HistorySource loads the historical record from a path.
type HistorySource interface {
	Load(path string) (domain.HistoricalRecord, error)
}

// state is everything derived from history at initialization. It is never
// modified after it is published.
type state struct {
	engine     *forecast.Engine
	thresholds domain.Thresholds
	lastReal   domain.Observation
	points     int
}

// Pipeline owns the fitted model and answers scenario predictions.
//
// Lifecycle: New → Init (exactly once, loads history and fits) →
// PredictScenario (any number of concurrent calls). Fitted state lives until
// the process exits and is never retrained.
type Pipeline struct {
	source      HistorySource
	historyPath string
	fitter      forecast.Fitter
	scenarios   domain.ScenarioSet
	logger      *slog.Logger
	metrics     *observability.Metrics

	once    sync.Once
	initErr error
	state   atomic.Pointer[state]
}

// New creates a Pipeline. Nothing is loaded until Init.
func New(source HistorySource, historyPath string, fitter forecast.Fitter, scenarios domain.ScenarioSet, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:      source,
		historyPath: historyPath,
		fitter:      fitter,
		scenarios:   scenarios,
		logger:      logger,
		metrics:     metrics,
	}
}

// Init loads history, fits the model, and computes risk thresholds. Only the
// first call does any work; later calls return the first call's result.
func (p *Pipeline) Init(_ context.Context) error {
	p.once.Do(func() {
		p.initErr = p.initialize()
	})
	return p.initErr
}

func (p *Pipeline) initialize() error {
	start := time.Now()

	history, err := p.source.Load(p.historyPath)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	engine, err := forecast.NewEngine(p.fitter, history)
	if err != nil {
		return fmt.Errorf("fit model: %w", err)
	}

	last, _ := history.Last()
	st := &state{
		engine:     engine,
		thresholds: domain.ComputeThresholds(history),
		lastReal:   last,
		points:     len(history),
	}
	p.state.Store(st)

	elapsed := time.Since(start)
	p.metrics.ModelFitSeconds.Set(elapsed.Seconds())
	p.metrics.HistoryPoints.Set(float64(st.points))
	p.metrics.ModelReady.Set(1)

	p.logger.Info("forecast model ready",
		"history_points", st.points,
		"last_date", last.Date.Format(domain.DateLayout),
		"last_volume", last.Volume,
		"p10", st.thresholds.P10,
		"p25", st.thresholds.P25,
		"p50", st.thresholds.P50,
		"duration", elapsed,
	)
	return nil
}

// CheckReadiness returns nil once the model has been fitted.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.state.Load() == nil {
		return domain.ErrNotInitialized
	}
	return nil
}

// Thresholds returns the historical risk thresholds.
func (p *Pipeline) Thresholds() (domain.Thresholds, error) {
	st := p.state.Load()
	if st == nil {
		return domain.Thresholds{}, domain.ErrNotInitialized
	}
	return st.thresholds, nil
}

// Scenarios returns the configured scenario factors.
func (p *Pipeline) Scenarios() map[domain.Scenario]float64 {
	return p.scenarios.Factors()
}

// PredictScenario forecasts horizonMonths periods under the named scenario,
// calibrated to level when it is non-nil, and classifies drought risk for
// every period. Any failing step aborts the call; no partial response is
// returned.
func (p *Pipeline) PredictScenario(_ context.Context, horizonMonths int, scenario string, level *float64) (domain.ScenarioResponse, error) {
	start := time.Now()
	resp, err := p.predict(horizonMonths, scenario, level)
	p.metrics.PredictionDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		p.metrics.Predictions.WithLabelValues(scenarioLabel(scenario), "error").Inc()
		p.metrics.PredictionErrors.WithLabelValues(ErrorKind(err)).Inc()
		p.logger.Debug("prediction failed",
			"horizon_months", horizonMonths,
			"scenario", scenario,
			"error", err,
		)
		return domain.ScenarioResponse{}, err
	}

	p.metrics.Predictions.WithLabelValues(string(resp.Scenario), "success").Inc()
	p.metrics.RiskAssessments.WithLabelValues(string(resp.Risk)).Inc()
	p.logger.Debug("prediction served",
		"id", resp.ID,
		"horizon_months", horizonMonths,
		"scenario", resp.Scenario,
		"risk", resp.Risk,
	)
	return resp, nil
}

func (p *Pipeline) predict(horizonMonths int, scenario string, level *float64) (domain.ScenarioResponse, error) {
	if err := domain.ValidateHorizon(horizonMonths); err != nil {
		return domain.ScenarioResponse{}, err
	}

	st := p.state.Load()
	if st == nil {
		return domain.ScenarioResponse{}, domain.ErrNotInitialized
	}

	raw, err := st.engine.Predict(horizonMonths)
	if err != nil {
		return domain.ScenarioResponse{}, err
	}

	sc, err := domain.ParseScenario(scenario)
	if err != nil {
		return domain.ScenarioResponse{}, err
	}
	factor, err := p.scenarios.Factor(sc)
	if err != nil {
		return domain.ScenarioResponse{}, err
	}
	adjusted, err := p.scenarios.Apply(raw, sc)
	if err != nil {
		return domain.ScenarioResponse{}, err
	}

	calibrated, err := domain.Calibrate(adjusted, level, st.lastReal.Volume)
	if err != nil {
		return domain.ScenarioResponse{}, err
	}

	periods := make([]domain.PeriodPrediction, len(calibrated))
	risks := make([]domain.RiskCategory, len(calibrated))
	for i, pt := range calibrated {
		risks[i] = st.thresholds.Classify(pt.Volume)
		periods[i] = domain.PeriodPrediction{
			Date:   pt.Date.Format(domain.DateLayout),
			Volume: pt.Volume,
			Lower:  pt.Lower,
			Upper:  pt.Upper,
			Risk:   risks[i],
		}
	}

	var userLevel *float64
	if level != nil {
		v := *level
		userLevel = &v
	}

	return domain.ScenarioResponse{
		ID:             uuid.NewString(),
		GeneratedAt:    domain.Now(),
		HorizonMonths:  horizonMonths,
		Scenario:       sc,
		Factor:         factor,
		UserLevel:      userLevel,
		LastRealVolume: st.lastReal.Volume,
		LastRealDate:   st.lastReal.Date.Format(domain.DateLayout),
		Thresholds:     st.thresholds,
		Predictions:    periods,
		Risk:           risks[len(risks)-1],
		MaxRisk:        domain.MostSevere(risks),
	}, nil
}

// ErrorKind returns a short label for a pipeline error, used for metrics and
// API error codes.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidHorizon):
		return "invalid_horizon"
	case errors.Is(err, domain.ErrUnknownScenario):
		return "unknown_scenario"
	case errors.Is(err, domain.ErrInvalidLevel):
		return "invalid_level"
	case errors.Is(err, domain.ErrNotInitialized):
		return "not_initialized"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrSchema):
		return "schema"
	case errors.Is(err, domain.ErrFit):
		return "fit"
	default:
		return "internal"
	}
}

// scenarioLabel bounds metric cardinality for unrecognized scenario names.
func scenarioLabel(name string) string {
	sc, err := domain.ParseScenario(name)
	if err != nil {
		return "unknown"
	}
	return string(sc)
}
