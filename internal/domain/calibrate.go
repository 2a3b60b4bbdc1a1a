package domain

import (
	"fmt"
	"math"
)

// Calibrate shifts a forecast so it starts from the user's reported level
// instead of the last historical total known to the model.
//
// A nil level returns a copy of the forecast unchanged. Otherwise every value
// (bounds included) is shifted by level - lastReal and then floored at zero.
// The shape of the trajectory is preserved only while shifted values stay
// non-negative: a value pushed below zero is clamped, so a shift of -150
// turns {100, 300} into {0, 150}, not {-50, 150}.
func Calibrate(f Forecast, level *float64, lastReal float64) (Forecast, error) {
	out := f.clone()
	if level == nil {
		return out, nil
	}
	lv := *level
	if math.IsNaN(lv) || math.IsInf(lv, 0) || lv < 0 {
		return nil, fmt.Errorf("%w: %v must be a finite non-negative number", ErrInvalidLevel, lv)
	}

	delta := lv - lastReal
	for i := range out {
		out[i].Volume = math.Max(0, out[i].Volume+delta)
		out[i].Lower = math.Max(0, out[i].Lower+delta)
		out[i].Upper = math.Max(0, out[i].Upper+delta)
	}
	return out, nil
}
