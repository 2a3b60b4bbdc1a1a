// Package domain models reservoir (embalse) volume history, forecasts, climate
// scenarios, and drought risk.
//
// # Data Source
//
// Historical totals come from a cleaned CSV export of reservoir volumes
// (embalses_limpio_final.csv) with at least a "fecha" column (calendar date)
// and a "total" column (stored volume, hm³). Extra columns are ignored.
// Rows with an empty date or total are dropped at load time.
//
// # Forecast Pipeline
//
//	history ──fit once──▶ model
//	request ──▶ predict(horizon) ──▶ apply scenario ──▶ calibrate ──▶ classify
//
// Forecast dates are month starts following the last historical date, so a
// record ending on 2024-03-15 forecasts 2024-04-01, 2024-05-01, ...
//
// # Scenarios
//
// A scenario is a fixed multiplier applied to every predicted value:
//
//	muy_seco 0.70 | seco 0.85 | normal 1.00 | humedo 1.15
//
// Factors may be overridden from a YAML file but must keep the ordering
// muy_seco < seco < normal <= humedo.
//
// # Calibration
//
// When the caller reports the current real reservoir level, the forecast is
// shifted by (level - last historical total) so the trajectory starts from
// the observed level. Shifted values are floored at zero.
//
// # Risk Classification
//
// Thresholds are percentiles of the historical totals (linear interpolation
// between closest ranks):
//
//	v <= p10  CRÍTICO
//	v <= p25  ALTO
//	v <= p50  MODERADO
//	otherwise BAJO
//
// The moderate/low boundary is the historical median.
package domain
