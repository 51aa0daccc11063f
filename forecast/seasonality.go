package forecast

import "math"

// Weekly trend heuristic. These are tuning knobs kept for parity with the
// historical forecasts, not statistically derived values.
const (
	SeasonalityMinEvents  = 14
	SeasonalityWindow     = 7
	SeasonalityMaxWeeks   = 4
	SeasonalityProjection = 4.0
	SeasonalityMinFactor  = 0.5
	SeasonalityMaxFactor  = 2.0
	neutralSeasonalFactor = 1.0
)

// SeasonalityFactor estimates a multiplicative adjustment from the trend between
// the first and last of up to four consecutive 7-event windows of raw sales,
// projected four weeks ahead. It operates on events, not on the gap-filled series.
func SeasonalityFactor(events []SaleObservation) float64 {
	if len(events) < SeasonalityMinEvents {
		return neutralSeasonalFactor
	}
	sorted := sortedByDate(events)

	weeks := len(sorted) / SeasonalityWindow
	if weeks > SeasonalityMaxWeeks {
		weeks = SeasonalityMaxWeeks
	}
	if weeks < 2 {
		return neutralSeasonalFactor
	}

	averages := make([]float64, weeks)
	for w := 0; w < weeks; w++ {
		sum := 0
		for _, e := range sorted[w*SeasonalityWindow : (w+1)*SeasonalityWindow] {
			sum += e.Quantity
		}
		averages[w] = float64(sum) / SeasonalityWindow
	}

	trend := (averages[weeks-1] - averages[0]) / float64(weeks)
	factor := 1 + trend*SeasonalityProjection
	return math.Max(SeasonalityMinFactor, math.Min(SeasonalityMaxFactor, factor))
}
