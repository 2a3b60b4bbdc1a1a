package pipeline_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/reservoir-forecast-service/internal/domain"
	"github.com/couchcryptid/reservoir-forecast-service/internal/forecast"
	"github.com/couchcryptid/reservoir-forecast-service/internal/observability"
	"github.com/couchcryptid/reservoir-forecast-service/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockSource struct {
	record domain.HistoricalRecord
	err    error
	calls  atomic.Int64
}

func (m *mockSource) Load(_ string) (domain.HistoricalRecord, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.record, nil
}

// stepModel predicts 1000, 990, 980, ... for successive dates.
type stepModel struct{}

func (stepModel) Predict(dates []time.Time) domain.Forecast {
	out := make(domain.Forecast, len(dates))
	for i, d := range dates {
		v := 1000 - 10*float64(i)
		out[i] = domain.ForecastPoint{Date: d, Volume: v, Lower: v - 50, Upper: v + 50}
	}
	return out
}

type countingFitter struct {
	fits atomic.Int64
}

func (f *countingFitter) Fit(_ domain.HistoricalRecord) (forecast.Model, error) {
	f.fits.Add(1)
	return stepModel{}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// monthlyHistory returns n monthly observations 2015-01 onward with volumes
// cycling through 500..950.
func monthlyHistory(n int) domain.HistoricalRecord {
	base := time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC)
	h := make(domain.HistoricalRecord, n)
	for i := range h {
		h[i] = domain.Observation{Date: base.AddDate(0, i, 0), Volume: 500 + float64((i*37)%10)*50}
	}
	return h
}

func newTestPipeline(src pipeline.HistorySource, fitter forecast.Fitter) (*pipeline.Pipeline, *observability.Metrics) {
	metrics := observability.NewUnregisteredMetrics()
	p := pipeline.New(src, "history.csv", fitter, domain.DefaultScenarioSet(), discardLogger(), metrics)
	return p, metrics
}

func ptr(v float64) *float64 { return &v }

// --- tests ---

func TestPipeline_PredictScenario_DrySeasonCalibrated(t *testing.T) {
	history := monthlyHistory(60)
	src := &mockSource{record: history}
	p, metrics := newTestPipeline(src, &countingFitter{})
	require.NoError(t, p.Init(context.Background()))

	resp, err := p.PredictScenario(context.Background(), 12, "seco", ptr(810.0))
	require.NoError(t, err)

	last := history[len(history)-1]
	thresholds := domain.ComputeThresholds(history)
	dryFactor := 0.85

	assert.Equal(t, 12, resp.HorizonMonths)
	assert.Equal(t, domain.ScenarioDry, resp.Scenario)
	assert.InDelta(t, dryFactor, resp.Factor, 0)
	require.NotNil(t, resp.UserLevel)
	assert.InDelta(t, 810.0, *resp.UserLevel, 0)
	assert.InDelta(t, last.Volume, resp.LastRealVolume, 0)
	assert.Equal(t, last.Date.Format(domain.DateLayout), resp.LastRealDate)
	assert.Equal(t, thresholds, resp.Thresholds)
	assert.NotEmpty(t, resp.ID)

	require.Len(t, resp.Predictions, 12)
	risks := make([]domain.RiskCategory, 0, 12)
	for i, period := range resp.Predictions {
		raw := 1000 - 10*float64(i)
		expected := raw*dryFactor + (810.0 - last.Volume)
		assert.InDelta(t, expected, period.Volume, 1e-9, "period %d", i)
		assert.Equal(t, thresholds.Classify(period.Volume), period.Risk)
		assert.Equal(t, last.Date.AddDate(0, i+1, 0).Format(domain.DateLayout), period.Date)
		risks = append(risks, period.Risk)
	}
	assert.Equal(t, thresholds.Classify(resp.Predictions[11].Volume), resp.Risk)
	assert.Equal(t, domain.MostSevere(risks), resp.MaxRisk)

	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.Predictions.WithLabelValues("seco", "success")), 0)
}

func TestPipeline_PredictScenario_WithSeasonalTrendFitter(t *testing.T) {
	history := monthlyHistory(48)
	p, _ := newTestPipeline(&mockSource{record: history}, forecast.SeasonalTrendFitter{})
	require.NoError(t, p.Init(context.Background()))

	engine, err := forecast.NewEngine(forecast.SeasonalTrendFitter{}, history)
	require.NoError(t, err)
	raw, err := engine.Predict(6)
	require.NoError(t, err)

	resp, err := p.PredictScenario(context.Background(), 6, "muy_seco", nil)
	require.NoError(t, err)
	require.Len(t, resp.Predictions, 6)
	assert.Nil(t, resp.UserLevel)
	for i := range raw {
		assert.InDelta(t, raw[i].Volume*0.70, resp.Predictions[i].Volume, 1e-9)
	}
}

func TestPipeline_NormalWithoutLevelMatchesRawForecast(t *testing.T) {
	p, _ := newTestPipeline(&mockSource{record: monthlyHistory(24)}, &countingFitter{})
	require.NoError(t, p.Init(context.Background()))

	resp, err := p.PredictScenario(context.Background(), 3, "normal", nil)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, resp.Predictions[0].Volume, 0)
	assert.InDelta(t, 990.0, resp.Predictions[1].Volume, 0)
	assert.InDelta(t, 950.0, resp.Predictions[0].Lower, 0)
	assert.InDelta(t, 1050.0, resp.Predictions[0].Upper, 0)
}

func TestPipeline_InvalidHorizon(t *testing.T) {
	p, metrics := newTestPipeline(&mockSource{record: monthlyHistory(24)}, &countingFitter{})
	require.NoError(t, p.Init(context.Background()))

	for _, h := range []int{-1, 0} {
		_, err := p.PredictScenario(context.Background(), h, "normal", nil)
		require.ErrorIs(t, err, domain.ErrInvalidHorizon)
	}
	assert.InDelta(t, 2.0, testutil.ToFloat64(metrics.PredictionErrors.WithLabelValues("invalid_horizon")), 0)
}

func TestPipeline_UnknownScenario(t *testing.T) {
	p, metrics := newTestPipeline(&mockSource{record: monthlyHistory(24)}, &countingFitter{})
	require.NoError(t, p.Init(context.Background()))

	_, err := p.PredictScenario(context.Background(), 6, "lluvioso", nil)
	require.ErrorIs(t, err, domain.ErrUnknownScenario)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.Predictions.WithLabelValues("unknown", "error")), 0)
}

func TestPipeline_InvalidLevel(t *testing.T) {
	p, _ := newTestPipeline(&mockSource{record: monthlyHistory(24)}, &countingFitter{})
	require.NoError(t, p.Init(context.Background()))

	_, err := p.PredictScenario(context.Background(), 6, "normal", ptr(-5))
	require.ErrorIs(t, err, domain.ErrInvalidLevel)
}

func TestPipeline_NotInitialized(t *testing.T) {
	p, _ := newTestPipeline(&mockSource{record: monthlyHistory(24)}, &countingFitter{})

	_, err := p.PredictScenario(context.Background(), 6, "normal", nil)
	require.ErrorIs(t, err, domain.ErrNotInitialized)
	require.ErrorIs(t, p.CheckReadiness(context.Background()), domain.ErrNotInitialized)

	_, err = p.Thresholds()
	require.ErrorIs(t, err, domain.ErrNotInitialized)

	// Horizon validation runs before the initialization check.
	_, err = p.PredictScenario(context.Background(), -1, "normal", nil)
	require.ErrorIs(t, err, domain.ErrInvalidHorizon)
}

func TestPipeline_InitIsIdempotent(t *testing.T) {
	src := &mockSource{record: monthlyHistory(36)}
	fitter := &countingFitter{}
	p, _ := newTestPipeline(src, fitter)

	require.NoError(t, p.Init(context.Background()))
	first, err := p.Thresholds()
	require.NoError(t, err)

	require.NoError(t, p.Init(context.Background()))
	second, err := p.Thresholds()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), src.calls.Load())
	assert.Equal(t, int64(1), fitter.fits.Load())
	require.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_ConcurrentInitFitsOnce(t *testing.T) {
	src := &mockSource{record: monthlyHistory(36)}
	fitter := &countingFitter{}
	p, _ := newTestPipeline(src, fitter)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Init(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), fitter.fits.Load())
}

func TestPipeline_InitFailureIsSticky(t *testing.T) {
	src := &mockSource{err: domain.ErrNotFound}
	p, metrics := newTestPipeline(src, &countingFitter{})

	err := p.Init(context.Background())
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "not_found", pipeline.ErrorKind(err))

	err = p.Init(context.Background())
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, int64(1), src.calls.Load())
	assert.InDelta(t, 0.0, testutil.ToFloat64(metrics.ModelReady), 0)
}

func TestPipeline_InitFailsOnShortHistory(t *testing.T) {
	p, _ := newTestPipeline(&mockSource{record: monthlyHistory(1)}, &countingFitter{})
	require.ErrorIs(t, p.Init(context.Background()), domain.ErrFit)
}

func TestPipeline_GeneratedAtUsesClock(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC))
	domain.SetClock(fakeClock)
	t.Cleanup(func() { domain.SetClock(nil) })

	p, _ := newTestPipeline(&mockSource{record: monthlyHistory(24)}, &countingFitter{})
	require.NoError(t, p.Init(context.Background()))

	resp, err := p.PredictScenario(context.Background(), 1, "humedo", nil)
	require.NoError(t, err)
	assert.Equal(t, fakeClock.Now(), resp.GeneratedAt)
}

func TestPipeline_ConcurrentPredictions(t *testing.T) {
	p, _ := newTestPipeline(&mockSource{record: monthlyHistory(48)}, forecast.SeasonalTrendFitter{})
	require.NoError(t, p.Init(context.Background()))

	want, err := p.PredictScenario(context.Background(), 12, "seco", ptr(700))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := p.PredictScenario(context.Background(), 12, "seco", ptr(700))
			if assert.NoError(t, err) {
				assert.Equal(t, want.Predictions, got.Predictions)
			}
		}()
	}
	wg.Wait()
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "unknown_scenario", pipeline.ErrorKind(domain.ErrUnknownScenario))
	assert.Equal(t, "invalid_level", pipeline.ErrorKind(domain.ErrInvalidLevel))
	assert.Equal(t, "schema", pipeline.ErrorKind(domain.ErrSchema))
	assert.Equal(t, "fit", pipeline.ErrorKind(domain.ErrFit))
	assert.Equal(t, "internal", pipeline.ErrorKind(io.ErrUnexpectedEOF))
}
