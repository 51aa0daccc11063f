package forecast

import (
	"sort"
	"time"
)

const day = 24 * time.Hour

// DailySeries holds one quantity per calendar day from Start, with no gaps.
type DailySeries struct {
	Start      time.Time
	Quantities []int
}

// Len returns the number of days in the series.
func (s DailySeries) Len() int { return len(s.Quantities) }

// End returns the last day covered by the series.
func (s DailySeries) End() time.Time {
	if len(s.Quantities) == 0 {
		return s.Start
	}
	return s.Start.AddDate(0, 0, len(s.Quantities)-1)
}

// Values returns the quantities as float64 for the estimators.
func (s DailySeries) Values() []float64 {
	out := make([]float64, len(s.Quantities))
	for i, q := range s.Quantities {
		out[i] = float64(q)
	}
	return out
}

// Tail returns the last n quantities, or all of them if the series is shorter.
func (s DailySeries) Tail(n int) []int {
	if n >= len(s.Quantities) {
		n = len(s.Quantities)
	}
	out := make([]int, n)
	copy(out, s.Quantities[len(s.Quantities)-n:])
	return out
}

// sortedByDate returns a date-ascending copy of obs. Same-day events keep their input order.
func sortedByDate(obs []SaleObservation) []SaleObservation {
	out := make([]SaleObservation, len(obs))
	copy(out, obs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// BuildDailySeries sorts the observations, sums same-day quantities and zero-fills
// every day between the first and last sale. An empty input returns ErrNoData.
func BuildDailySeries(obs []SaleObservation) (DailySeries, error) {
	if len(obs) == 0 {
		return DailySeries{}, ErrNoData
	}
	if err := validate(obs); err != nil {
		return DailySeries{}, err
	}

	sorted := sortedByDate(obs)
	first := Day(sorted[0].Date)
	last := Day(sorted[len(sorted)-1].Date)
	days := int(last.Sub(first)/day) + 1

	quantities := make([]int, days)
	for _, o := range sorted {
		idx := int(Day(o.Date).Sub(first) / day)
		quantities[idx] += o.Quantity
	}

	return DailySeries{Start: first, Quantities: quantities}, nil
}
