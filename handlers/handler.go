package handlers

import (
	"context"
	"time"

	"stockcast/forecast"
	"stockcast/models"
	"stockcast/pipeline"
	"stockcast/recorder"
)

// Store is the persistence the HTTP handlers read from.
type Store interface {
	pipeline.Store
	LatestForecasts(ctx context.Context, merchantID string, page, pageSize int) ([]models.DemandForecast, int, error)
	ProductSalesHistory(ctx context.Context, merchantID, productID string, since time.Time) (forecast.ProductHistory, error)
	FindUserForLogin(ctx context.Context, email, role string) (models.User, string, error)
	Ping(ctx context.Context) error
}

// RunTrigger starts the all-merchant forecast run, refusing to overlap a run
// already in progress. *scheduler.Scheduler implements it.
type RunTrigger interface {
	Trigger() (int, error)
}

// Handler holds the dependencies shared by the HTTP handlers.
type Handler struct {
	Store    Store
	Runner   *pipeline.Runner
	Recorder recorder.Recorder
	Runs     RunTrigger
}

// New creates a Handler.
func New(runner *pipeline.Runner, store Store, rec recorder.Recorder, runs RunTrigger) *Handler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Handler{Store: store, Runner: runner, Recorder: rec, Runs: runs}
}

func (h *Handler) engine() *forecast.Engine {
	return h.Runner.Engine
}
