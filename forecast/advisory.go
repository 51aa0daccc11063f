package forecast

import (
	"context"
	"errors"
	"math"
)

// ErrAdvisoryUnavailable is returned by advisors that cannot offer a suggestion.
var ErrAdvisoryUnavailable = errors.New("advisory service unavailable")

const (
	// AdvisoryMinObservations is the raw event count a product must exceed before the advisor is asked.
	AdvisoryMinObservations = 20
	// AdvisoryRecentDays is how many trailing daily quantities are sent to the advisor.
	AdvisoryRecentDays = 21

	ensembleShare   = 0.7
	advisoryShare   = 0.3
	confidenceBoost = 1.1
)

// AdvisoryRequest summarises an ensemble forecast for an external second opinion.
type AdvisoryRequest struct {
	ProductName string
	RecentDaily []int
	Prediction  int
	Confidence  float64
}

// Advice is an external prediction for the whole horizon.
type Advice struct {
	Prediction float64 `json:"prediction"`
	Reasoning  string  `json:"reasoning"`
}

// Advisor offers an optional second opinion on a forecast. Implementations may
// fail in any way; callers treat every error as "no advice".
type Advisor interface {
	Suggest(ctx context.Context, req AdvisoryRequest) (Advice, error)
}

// Unavailable is an Advisor that never has advice.
type Unavailable struct{}

func (Unavailable) Suggest(context.Context, AdvisoryRequest) (Advice, error) {
	return Advice{}, ErrAdvisoryUnavailable
}

// Valid reports whether the advice carries a usable positive prediction.
// Infinite and absurdly large values are rejected.
func (a Advice) Valid() bool {
	return a.Prediction > 0 && a.Prediction < math.MaxInt32 && !math.IsNaN(a.Prediction)
}

// Blend merges valid advice into the ensemble output, 70/30, and boosts the
// confidence by 10% up to MaxConfidence. Invalid advice returns the inputs unchanged.
func Blend(prediction int, confidence float64, advice Advice) (int, float64, bool) {
	if !advice.Valid() {
		return prediction, confidence, false
	}
	blended := toDemand(float64(prediction)*ensembleShare + advice.Prediction*advisoryShare)
	return blended, math.Min(MaxConfidence, confidence*confidenceBoost), true
}
