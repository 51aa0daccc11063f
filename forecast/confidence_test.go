package forecast

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfidence_Empty(t *testing.T) {
	assert.Equal(t, MinConfidence, Confidence(nil, 0).Value)
}

func TestConfidence_ZeroMeanIsWorstConsistency(t *testing.T) {
	score := Confidence(constant(0, 30), 0)
	assert.Equal(t, 0.0, score.Consistency)
	assert.Equal(t, 1.0, score.Reasonableness, "zero recent average uses 1 as denominator")
	assert.Equal(t, 1.0, score.Volume)
	assert.InDelta(t, 0.6, score.Value, 1e-12)
}

func TestConfidence_ZeroRecentAverageGuard(t *testing.T) {
	data := append([]float64{10, 10, 10}, constant(0, 7)...)
	score := Confidence(data, 1)
	// |1 - 0| / 1 = 1, halved
	assert.InDelta(t, 0.5, score.Reasonableness, 1e-12)
}

func TestConfidence_ConstantSeries(t *testing.T) {
	score := Confidence(constant(5, 30), 150)
	assert.Equal(t, 1.0, score.Consistency)
	assert.Equal(t, 0.0, score.Reasonableness)
	assert.Equal(t, 1.0, score.Volume)
	assert.InDelta(t, 0.6, score.Value, 1e-12)
}

func TestConfidence_ClampedHigh(t *testing.T) {
	score := Confidence(constant(5, 30), 5)
	assert.Equal(t, MaxConfidence, score.Value)
}

func TestConfidence_ClampedLow(t *testing.T) {
	score := Confidence([]float64{0, 0, 0, 100}, 5000)
	assert.Equal(t, 0.0, score.Consistency)
	assert.Equal(t, 0.0, score.Reasonableness)
	assert.InDelta(t, 4.0/30, score.Volume, 1e-12)
	assert.Equal(t, MinConfidence, score.Value)
}

func TestConfidence_VolumeScalesWithHistory(t *testing.T) {
	assert.InDelta(t, 0.5, Confidence(constant(3, 15), 90).Volume, 1e-12)
	assert.Equal(t, 1.0, Confidence(constant(3, 90), 90).Volume)
}

func TestConfidence_AlwaysWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		n := 1 + rng.Intn(120)
		data := make([]float64, n)
		for j := range data {
			if rng.Float64() < 0.3 {
				continue
			}
			data[j] = float64(rng.Intn(60))
		}
		prediction := rng.Intn(5000)

		v := Confidence(data, prediction).Value
		assert.GreaterOrEqual(t, v, MinConfidence)
		assert.LessOrEqual(t, v, MaxConfidence)
	}
}
