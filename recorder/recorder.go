package recorder

import (
	"time"

	"stockcast/forecast"
)

// RunSummary describes one forecast run for one merchant.
type RunSummary struct {
	RunID           string        `json:"run_id"`
	MerchantID      string        `json:"merchant_id"`
	Trigger         string        `json:"trigger"` // "SCHEDULED", "MANUAL" or "API"
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration"`
	Forecasts       int           `json:"forecasts"`
	Failures        int           `json:"failures"`
	Skipped         int           `json:"skipped"`
	AdvisoryApplied int           `json:"advisory_applied"`
	Error           string        `json:"error,omitempty"`
}

// Recorder journals forecast runs for later analysis.
type Recorder interface {
	RecordRun(run *RunSummary) error
	RecordForecasts(runID string, results []forecast.ForecastResult) error
	RecentRuns(limit int) ([]RunSummary, error)
	Close() error
}
