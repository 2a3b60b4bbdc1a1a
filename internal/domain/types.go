package domain

import "time"

// DateLayout is the wire format for calendar dates in responses.
const DateLayout = "2006-01-02"

// Observation is a single historical reading of the reservoir total.
type Observation struct {
	Date   time.Time
	Volume float64
}

// HistoricalRecord is a date-ordered series of observations with no missing
// dates or values.
type HistoricalRecord []Observation

// Last returns the most recent observation. ok is false for an empty record.
func (h HistoricalRecord) Last() (Observation, bool) {
	if len(h) == 0 {
		return Observation{}, false
	}
	return h[len(h)-1], true
}

// Volumes returns the volume column in record order.
func (h HistoricalRecord) Volumes() []float64 {
	out := make([]float64, len(h))
	for i, o := range h {
		out[i] = o.Volume
	}
	return out
}

// ForecastPoint is one predicted period with its uncertainty interval.
type ForecastPoint struct {
	Date   time.Time
	Volume float64
	Lower  float64
	Upper  float64
}

// Forecast is a chronological series of predicted periods. Transformations
// return new slices and never modify their input.
type Forecast []ForecastPoint

// clone returns an independent copy so transforms never alias the input.
func (f Forecast) clone() Forecast {
	out := make(Forecast, len(f))
	copy(out, f)
	return out
}

// Volumes returns the point predictions in order.
func (f Forecast) Volumes() []float64 {
	out := make([]float64, len(f))
	for i, p := range f {
		out[i] = p.Volume
	}
	return out
}

// PeriodPrediction is the serialized form of a calibrated forecast period.
type PeriodPrediction struct {
	Date   string       `json:"fecha"`
	Volume float64      `json:"volumen"`
	Lower  float64      `json:"volumen_min"`
	Upper  float64      `json:"volumen_max"`
	Risk   RiskCategory `json:"riesgo"`
}

// ScenarioResponse is the result of one scenario prediction. It holds only
// primitives, strings, and slices so it serializes directly to JSON.
type ScenarioResponse struct {
	ID             string             `json:"id"`
	GeneratedAt    time.Time          `json:"generated_at"`
	HorizonMonths  int                `json:"horizonte_meses"`
	Scenario       Scenario           `json:"escenario"`
	Factor         float64            `json:"factor"`
	UserLevel      *float64           `json:"nivel_actual_usuario"`
	LastRealVolume float64            `json:"ultimo_valor_real"`
	LastRealDate   string             `json:"ultima_fecha_real"`
	Thresholds     Thresholds         `json:"umbrales"`
	Predictions    []PeriodPrediction `json:"predicciones"`
	Risk           RiskCategory       `json:"riesgo"`
	MaxRisk        RiskCategory       `json:"riesgo_maximo"`
}
