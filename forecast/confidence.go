package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	MinConfidence = 0.3
	MaxConfidence = 0.95

	recentWindow         = 7
	volumeTargetDays     = 30.0
	consistencyWeight    = 0.4
	reasonablenessWeight = 0.4
	volumeWeight         = 0.2
)

// ConfidenceScore is the composite confidence and its three components.
type ConfidenceScore struct {
	Consistency    float64 `json:"consistency"`
	Reasonableness float64 `json:"reasonableness"`
	Volume         float64 `json:"volume"`
	Value          float64 `json:"value"`
}

// Confidence scores a horizon prediction against the daily series it came from.
// It is a heuristic, not a calibrated interval; the result is always in
// [MinConfidence, MaxConfidence].
func Confidence(series []float64, prediction int) ConfidenceScore {
	if len(series) == 0 {
		return ConfidenceScore{Value: MinConfidence}
	}

	m, sd := series[0], 0.0
	if len(series) > 1 {
		m, sd = stat.PopMeanStdDev(series, nil)
	}
	cv := 1.0
	if m > 0 {
		cv = sd / m
	}
	consistency := math.Max(0, 1-cv)

	recent := series
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}
	recentAvg := stat.Mean(recent, nil)
	denominator := recentAvg
	if denominator == 0 {
		denominator = 1
	}
	deviation := math.Abs(float64(prediction)-recentAvg) / denominator
	reasonableness := math.Max(0, 1-deviation/2)

	volume := math.Min(1, float64(len(series))/volumeTargetDays)

	value := consistency*consistencyWeight + reasonableness*reasonablenessWeight + volume*volumeWeight
	return ConfidenceScore{
		Consistency:    consistency,
		Reasonableness: reasonableness,
		Volume:         volume,
		Value:          clampConfidence(value),
	}
}

func clampConfidence(v float64) float64 {
	if math.IsNaN(v) {
		return MinConfidence
	}
	return math.Max(MinConfidence, math.Min(MaxConfidence, v))
}
