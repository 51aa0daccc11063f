package models

// PreviewSale is a single sale in a forecast preview request.
type PreviewSale struct {
	Date     string `json:"date"`
	Quantity int    `json:"quantity"`
}

// PreviewProduct is one product's history in a forecast preview request.
type PreviewProduct struct {
	ProductID    string        `json:"product_id"`
	ProductName  string        `json:"product_name"`
	ReorderLevel *int          `json:"reorder_level,omitempty"`
	Sales        []PreviewSale `json:"sales"`
}

// ForecastPreviewRequest is the body of POST /api/v1/forecasts/preview.
type ForecastPreviewRequest struct {
	Products []PreviewProduct `json:"products"`
}

// EnsembleWeights describes the blend used for a forecast run.
type EnsembleWeights struct {
	ExponentialSmoothing string `json:"exponential_smoothing"`
	LinearRegression     string `json:"linear_regression"`
	MovingAverage        string `json:"moving_average"`
	AIEnhancement        string `json:"ai_enhancement"`
}

// ForecastRunSummary is returned after a forecast run.
type ForecastRunSummary struct {
	RunID              string          `json:"run_id"`
	ForecastsGenerated int             `json:"forecasts_generated"`
	ProductsFailed     int             `json:"products_failed"`
	ProductsSkipped    int             `json:"products_skipped"`
	HorizonDays        int             `json:"horizon_days"`
	AlgorithmsUsed     []string        `json:"algorithms_used"`
	EnsembleWeights    EnsembleWeights `json:"ensemble_weights"`
}
