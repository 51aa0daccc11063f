package recorder

import "stockcast/forecast"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *RunSummary) error                               { return nil }
func (n *NoopRecorder) RecordForecasts(_ string, _ []forecast.ForecastResult) error { return nil }
func (n *NoopRecorder) RecentRuns(_ int) ([]RunSummary, error)                      { return []RunSummary{}, nil }
func (n *NoopRecorder) Close() error                                                { return nil }
