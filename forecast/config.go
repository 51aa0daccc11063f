package forecast

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid forecast config")

const weightTolerance = 1e-9

// Config holds the fixed ensemble parameters. It is passed by value and never
// mutated after validation.
type Config struct {
	Alpha               float64 `yaml:"alpha" json:"alpha"`
	ESWeight            float64 `yaml:"es_weight" json:"es_weight"`
	LRWeight            float64 `yaml:"lr_weight" json:"lr_weight"`
	MAWeight            float64 `yaml:"ma_weight" json:"ma_weight"`
	HorizonDays         int     `yaml:"horizon_days" json:"horizon_days"`
	MovingAverageWindow int     `yaml:"moving_average_window" json:"moving_average_window"`
}

// DefaultConfig returns the production ensemble: ES 30%, LR 30%, MA 40% over a 30-day horizon.
func DefaultConfig() Config {
	return Config{
		Alpha:               0.3,
		ESWeight:            0.30,
		LRWeight:            0.30,
		MAWeight:            0.40,
		HorizonDays:         30,
		MovingAverageWindow: 14,
	}
}

// Validate checks parameter ranges and that the three weights sum to 1.
func (c Config) Validate() error {
	if c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("%w: alpha must be in (0, 1], got %v", ErrInvalidConfig, c.Alpha)
	}
	if c.ESWeight < 0 || c.LRWeight < 0 || c.MAWeight < 0 {
		return fmt.Errorf("%w: weights must be non-negative", ErrInvalidConfig)
	}
	if sum := c.ESWeight + c.LRWeight + c.MAWeight; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights must sum to 1, got %v", ErrInvalidConfig, sum)
	}
	if c.HorizonDays < 1 {
		return fmt.Errorf("%w: horizon_days must be positive", ErrInvalidConfig)
	}
	if c.MovingAverageWindow < 1 {
		return fmt.Errorf("%w: moving_average_window must be positive", ErrInvalidConfig)
	}
	return nil
}
