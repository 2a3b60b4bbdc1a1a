package history

import (
	"math"
	"time"

	"github.com/couchcryptid/reservoir-forecast-service/internal/domain"
)

// maxMonthlyStep is the largest spacing between consecutive observations
// still considered part of a monthly series.
const maxMonthlyStep = 45 * 24 * time.Hour

// Gap is a stretch with no observations between two consecutive dates.
type Gap struct {
	From time.Time
	To   time.Time
}

// Report summarizes the integrity of a historical record.
type Report struct {
	Rows       int
	Dropped    int
	Start      time.Time
	End        time.Time
	Min        float64
	Max        float64
	Duplicates []time.Time
	Gaps       []Gap
	Negative   int
}

// Clean reports whether the record has no dropped rows, duplicate dates,
// monthly gaps, or negative totals.
func (r Report) Clean() bool {
	return r.Dropped == 0 && len(r.Duplicates) == 0 && len(r.Gaps) == 0 && r.Negative == 0
}

// Inspect checks a sorted record for duplicate dates, gaps wider than a
// month, and negative totals.
func Inspect(record domain.HistoricalRecord, dropped int) Report {
	rep := Report{Rows: len(record), Dropped: dropped}
	if len(record) == 0 {
		return rep
	}

	rep.Start, rep.End = record[0].Date, record[len(record)-1].Date
	rep.Min, rep.Max = math.Inf(1), math.Inf(-1)
	for i, o := range record {
		rep.Min = math.Min(rep.Min, o.Volume)
		rep.Max = math.Max(rep.Max, o.Volume)
		if o.Volume < 0 {
			rep.Negative++
		}
		if i == 0 {
			continue
		}
		prev := record[i-1].Date
		switch step := o.Date.Sub(prev); {
		case step == 0:
			rep.Duplicates = append(rep.Duplicates, o.Date)
		case step > maxMonthlyStep:
			rep.Gaps = append(rep.Gaps, Gap{From: prev, To: o.Date})
		}
	}
	return rep
}
