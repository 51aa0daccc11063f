package forecast

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultAdvisoryTimeout = 10 * time.Second
	DefaultConcurrency     = 8

	// MaxDemand caps a prediction so it fits the INTEGER forecast column.
	MaxDemand = math.MaxInt32
)

// Breakdown exposes the intermediate values behind a forecast.
type Breakdown struct {
	ExponentialSmoothing float64         `json:"exponential_smoothing"`
	LinearRegression     Regression      `json:"linear_regression"`
	MovingAverage        float64         `json:"moving_average"`
	SeasonalityFactor    float64         `json:"seasonality_factor"`
	EnsemblePrediction   int             `json:"ensemble_prediction"`
	Confidence           ConfidenceScore `json:"confidence"`
	HistoryDays          int             `json:"history_days"`
	Observations         int             `json:"observations"`
	AdvisoryApplied      bool            `json:"advisory_applied"`
	AdvisoryReasoning    string          `json:"advisory_reasoning,omitempty"`
}

// ForecastResult is the demand forecast for one product over the horizon ending at ForecastDate.
type ForecastResult struct {
	ProductID         string    `json:"product_id"`
	ProductName       string    `json:"product_name,omitempty"`
	PredictedDemand   int       `json:"predicted_demand"`
	ConfidenceScore   float64   `json:"confidence_score"`
	ForecastDate      time.Time `json:"forecast_date"`
	ReorderSuggestion int       `json:"reorder_suggestion"`
	Breakdown         Breakdown `json:"breakdown"`
}

// ProductFailure records a product that could not be forecast in a batch.
type ProductFailure struct {
	ProductID string `json:"product_id"`
	Error     string `json:"error"`
	err       error
}

// Cause returns the underlying error, for errors.Is checks.
func (f ProductFailure) Cause() error { return f.err }

// BatchResult is the outcome of ForecastAll.
type BatchResult struct {
	Forecasts []ForecastResult `json:"forecasts"`
	Failures  []ProductFailure `json:"failures"`
	Skipped   int              `json:"skipped"`
}

// Engine runs the ensemble forecast. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	cfg             Config
	advisor         Advisor
	advisoryTimeout time.Duration
	concurrency     int
	now             func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithAdvisor enables the advisory blend. Each call is bounded by timeout.
func WithAdvisor(a Advisor, timeout time.Duration) Option {
	return func(e *Engine) {
		e.advisor = a
		if timeout > 0 {
			e.advisoryTimeout = timeout
		}
	}
}

// WithClock overrides the clock used for ForecastDate.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithConcurrency bounds the number of products forecast at once by ForecastAll.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// NewEngine validates cfg and returns an Engine.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:             cfg,
		advisor:         Unavailable{},
		advisoryTimeout: DefaultAdvisoryTimeout,
		concurrency:     DefaultConcurrency,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine's ensemble parameters.
func (e *Engine) Config() Config { return e.cfg }

// AdvisoryEnabled reports whether an advisor other than Unavailable is configured.
func (e *Engine) AdvisoryEnabled() bool {
	_, none := e.advisor.(Unavailable)
	return e.advisor != nil && !none
}

// Combine blends the next-period estimates, applies seasonality and scales to the horizon.
func Combine(cfg Config, es, lr, ma, seasonality float64) int {
	next := es*cfg.ESWeight + lr*cfg.LRWeight + ma*cfg.MAWeight
	return toDemand(next * seasonality * float64(cfg.HorizonDays))
}

// toDemand rounds v to whole units, saturating at 0 and MaxDemand.
func toDemand(v float64) int {
	v = math.Round(v)
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= MaxDemand:
		return MaxDemand
	}
	return int(v)
}

// Forecast predicts demand for one product. An empty history yields zero demand at
// minimum confidence; invalid observations yield a *ValidationError.
func (e *Engine) Forecast(ctx context.Context, h ProductHistory) (ForecastResult, error) {
	result := ForecastResult{
		ProductID:    h.ProductID,
		ProductName:  h.ProductName,
		ForecastDate: Day(e.now()).AddDate(0, 0, e.cfg.HorizonDays),
	}

	series, err := BuildDailySeries(h.Sales)
	if errors.Is(err, ErrNoData) {
		result.ConfidenceScore = MinConfidence
		result.Breakdown = Breakdown{SeasonalityFactor: neutralSeasonalFactor, Confidence: ConfidenceScore{Value: MinConfidence}}
		result.ReorderSuggestion = ReorderSuggestion(0, h.ReorderLevel)
		return result, nil
	}
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) && ve.ProductID == "" {
			ve.ProductID = h.ProductID
		}
		return ForecastResult{}, err
	}

	values := series.Values()
	es := ExponentialSmoothing(values, e.cfg.Alpha)
	lr := LinearRegression(values)
	ma := MovingAverage(values, e.cfg.MovingAverageWindow)
	seasonality := SeasonalityFactor(h.Sales)

	prediction := Combine(e.cfg, es, lr.Prediction, ma, seasonality)
	confidence := Confidence(values, prediction)

	result.PredictedDemand = prediction
	result.ConfidenceScore = confidence.Value
	result.Breakdown = Breakdown{
		ExponentialSmoothing: es,
		LinearRegression:     lr,
		MovingAverage:        ma,
		SeasonalityFactor:    seasonality,
		EnsemblePrediction:   prediction,
		Confidence:           confidence,
		HistoryDays:          series.Len(),
		Observations:         len(h.Sales),
	}

	if len(h.Sales) > AdvisoryMinObservations {
		advice, ok := e.advise(ctx, AdvisoryRequest{
			ProductName: h.ProductName,
			RecentDaily: series.Tail(AdvisoryRecentDays),
			Prediction:  prediction,
			Confidence:  confidence.Value,
		})
		if ok {
			result.PredictedDemand, result.ConfidenceScore, result.Breakdown.AdvisoryApplied = Blend(prediction, confidence.Value, advice)
			if result.Breakdown.AdvisoryApplied {
				result.Breakdown.AdvisoryReasoning = advice.Reasoning
			}
		}
	}

	result.ReorderSuggestion = ReorderSuggestion(result.PredictedDemand, h.ReorderLevel)
	return result, nil
}

// advise asks the advisor for a second opinion. Every failure, including a panic
// in the advisor, is reported as ok == false.
func (e *Engine) advise(ctx context.Context, req AdvisoryRequest) (advice Advice, ok bool) {
	if _, none := e.advisor.(Unavailable); none || e.advisor == nil {
		return Advice{}, false
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WARN] advisory skipped for %q: panic: %v", req.ProductName, r)
			advice, ok = Advice{}, false
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, e.advisoryTimeout)
	defer cancel()

	advice, err := e.advisor.Suggest(ctx, req)
	if err != nil {
		log.Printf("[WARN] advisory skipped for %q: %v", req.ProductName, err)
		return Advice{}, false
	}
	if !advice.Valid() {
		log.Printf("[WARN] advisory skipped for %q: unusable prediction %v", req.ProductName, advice.Prediction)
		return Advice{}, false
	}
	return advice, true
}

// ForecastAll forecasts every product concurrently. Products without history are
// omitted and counted in Skipped; a failing product never affects the others.
// Forecasts are sorted by product ID.
func (e *Engine) ForecastAll(ctx context.Context, histories []ProductHistory) BatchResult {
	forecasts := make([]*ForecastResult, len(histories))
	failures := make([]*ProductFailure, len(histories))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i := range histories {
		i := i
		g.Go(func() error {
			h := histories[i]
			if len(h.Sales) == 0 {
				return nil
			}
			if err := ctx.Err(); err != nil {
				failures[i] = &ProductFailure{ProductID: h.ProductID, Error: err.Error(), err: err}
				return nil
			}
			res, err := e.Forecast(ctx, h)
			if err != nil {
				failures[i] = &ProductFailure{ProductID: h.ProductID, Error: err.Error(), err: err}
				return nil
			}
			forecasts[i] = &res
			return nil
		})
	}
	_ = g.Wait()

	out := BatchResult{Forecasts: []ForecastResult{}, Failures: []ProductFailure{}}
	for i := range histories {
		switch {
		case forecasts[i] != nil:
			out.Forecasts = append(out.Forecasts, *forecasts[i])
		case failures[i] != nil:
			out.Failures = append(out.Failures, *failures[i])
		default:
			out.Skipped++
		}
	}
	sort.Slice(out.Forecasts, func(i, j int) bool { return out.Forecasts[i].ProductID < out.Forecasts[j].ProductID })
	sort.Slice(out.Failures, func(i, j int) bool { return out.Failures[i].ProductID < out.Failures[j].ProductID })
	return out
}

// String summarises a forecast for logs.
func (r ForecastResult) String() string {
	return fmt.Sprintf("%s: %d units, confidence %.1f%%", r.ProductID, r.PredictedDemand, r.ConfidenceScore*100)
}
