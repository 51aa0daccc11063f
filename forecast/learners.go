package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ExponentialSmoothing smooths the series with factor alpha and adds the average
// per-period drift between the first and last values. It predicts the next period.
func ExponentialSmoothing(data []float64, alpha float64) float64 {
	if len(data) == 0 {
		return 0
	}

	smoothed := data[0]
	for i := 1; i < len(data); i++ {
		smoothed = alpha*data[i] + (1-alpha)*smoothed
	}

	// zero for a single point
	trend := (data[len(data)-1] - data[0]) / float64(len(data))
	return math.Max(0, math.Round(smoothed+trend))
}

// Regression is an ordinary least squares fit over the series index.
type Regression struct {
	Slope      float64 `json:"slope"`
	Intercept  float64 `json:"intercept"`
	Prediction float64 `json:"prediction"`
}

// LinearRegression fits y = slope*i + intercept for i = 0..n-1 and predicts index n.
// Fewer than two points have no trend: the slope is zero and the intercept is the mean.
func LinearRegression(data []float64) Regression {
	if len(data) == 0 {
		return Regression{}
	}
	n := float64(len(data))

	var slope, intercept float64
	if len(data) < 2 {
		intercept = stat.Mean(data, nil)
	} else {
		xs := make([]float64, len(data))
		for i := range xs {
			xs[i] = float64(i)
		}
		intercept, slope = stat.LinearRegression(xs, data, nil, false)
	}

	return Regression{
		Slope:      slope,
		Intercept:  intercept,
		Prediction: math.Max(0, math.Round(slope*n+intercept)),
	}
}

// MovingAverage returns the mean of the last min(window, n) values.
func MovingAverage(data []float64, window int) float64 {
	if len(data) == 0 || window <= 0 {
		return 0
	}
	if window > len(data) {
		window = len(data)
	}
	return stat.Mean(data[len(data)-window:], nil)
}
