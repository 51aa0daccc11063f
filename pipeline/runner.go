package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"stockcast/forecast"
	"stockcast/recorder"

	"github.com/google/uuid"
)

const (
	TriggerScheduled = "SCHEDULED"
	TriggerManual    = "MANUAL"
	TriggerAPI       = "API"
)

// ErrNoHistory is returned when a merchant has no sales in the lookback window.
var ErrNoHistory = errors.New("no historical sales data available for forecasting")

// Store is the persistence a forecast run needs.
type Store interface {
	SalesHistory(ctx context.Context, merchantID string, since time.Time) ([]forecast.ProductHistory, error)
	SaveForecasts(ctx context.Context, merchantID string, results []forecast.ForecastResult) error
	MerchantsWithSales(ctx context.Context, since time.Time) ([]string, error)
}

// Run is the outcome of forecasting one merchant.
type Run struct {
	Summary recorder.RunSummary
	Batch   forecast.BatchResult
}

// Runner loads history, forecasts it, persists the results and journals the run.
type Runner struct {
	Store        Store
	Engine       *forecast.Engine
	Recorder     recorder.Recorder
	LookbackDays int
	Now          func() time.Time
}

// NewRunner creates a Runner with the wall clock.
func NewRunner(store Store, engine *forecast.Engine, rec recorder.Recorder, lookbackDays int) *Runner {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Runner{Store: store, Engine: engine, Recorder: rec, LookbackDays: lookbackDays, Now: time.Now}
}

func (r *Runner) since() time.Time {
	return r.Now().AddDate(0, 0, -r.LookbackDays)
}

// RunMerchant forecasts every product the merchant sold in the lookback window.
func (r *Runner) RunMerchant(ctx context.Context, merchantID, trigger string) (*Run, error) {
	run := &Run{Summary: recorder.RunSummary{
		RunID:      uuid.New().String(),
		MerchantID: merchantID,
		Trigger:    trigger,
		StartedAt:  r.Now(),
	}}

	err := r.runMerchant(ctx, run)
	run.Summary.Duration = r.Now().Sub(run.Summary.StartedAt)
	if err != nil {
		run.Summary.Error = err.Error()
	}

	if recErr := r.Recorder.RecordRun(&run.Summary); recErr != nil {
		log.Printf("[ERROR] record run %s: %v", run.Summary.RunID, recErr)
	}
	if err != nil {
		return run, err
	}

	if recErr := r.Recorder.RecordForecasts(run.Summary.RunID, run.Batch.Forecasts); recErr != nil {
		log.Printf("[ERROR] record forecasts for run %s: %v", run.Summary.RunID, recErr)
	}
	return run, nil
}

func (r *Runner) runMerchant(ctx context.Context, run *Run) error {
	histories, err := r.Store.SalesHistory(ctx, run.Summary.MerchantID, r.since())
	if err != nil {
		return fmt.Errorf("load sales history: %w", err)
	}
	if len(histories) == 0 {
		return ErrNoHistory
	}

	log.Printf("[INFO] generating forecasts for %d products (merchant %s)", len(histories), run.Summary.MerchantID)
	run.Batch = r.Engine.ForecastAll(ctx, histories)

	for _, f := range run.Batch.Forecasts {
		log.Printf("[INFO] %s | ensemble %d | final %s", f.ProductName, f.Breakdown.EnsemblePrediction, f)
		if f.Breakdown.AdvisoryApplied {
			run.Summary.AdvisoryApplied++
		}
	}
	for _, failure := range run.Batch.Failures {
		log.Printf("[WARN] forecast failed for product %s: %s", failure.ProductID, failure.Error)
	}
	run.Summary.Forecasts = len(run.Batch.Forecasts)
	run.Summary.Failures = len(run.Batch.Failures)
	run.Summary.Skipped = run.Batch.Skipped

	if err := r.Store.SaveForecasts(ctx, run.Summary.MerchantID, run.Batch.Forecasts); err != nil {
		return fmt.Errorf("save forecasts: %w", err)
	}
	return nil
}

// RunAll forecasts every merchant with recent sales. A failing merchant is logged
// and does not stop the others; the number of failed merchants is returned.
func (r *Runner) RunAll(ctx context.Context, trigger string) (int, error) {
	merchants, err := r.Store.MerchantsWithSales(ctx, r.since())
	if err != nil {
		return 0, fmt.Errorf("list merchants: %w", err)
	}

	failed := 0
	for _, merchantID := range merchants {
		if ctx.Err() != nil {
			return failed, ctx.Err()
		}
		run, err := r.RunMerchant(ctx, merchantID, trigger)
		if err != nil {
			if errors.Is(err, ErrNoHistory) {
				continue
			}
			failed++
			log.Printf("[ERROR] forecast run for merchant %s: %v", merchantID, err)
			continue
		}
		log.Printf("[INFO] merchant %s: %d forecasts generated in %s", merchantID, run.Summary.Forecasts, run.Summary.Duration)
	}
	return failed, nil
}
