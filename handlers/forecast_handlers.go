package handlers

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"stockcast/database"
	"stockcast/forecast"
	"stockcast/middleware"
	"stockcast/models"
	"stockcast/pipeline"
	"stockcast/scheduler"
	"stockcast/utils"

	"github.com/gofiber/fiber/v2"
)

const defaultRunsLimit = 20

var algorithms = []string{
	"Exponential Smoothing",
	"Linear Regression",
	"Moving Average",
	"Seasonality Adjustment",
}

func ensembleWeights(cfg forecast.Config, advisory bool) models.EnsembleWeights {
	w := models.EnsembleWeights{
		ExponentialSmoothing: fmt.Sprintf("%.0f%%", cfg.ESWeight*100),
		LinearRegression:     fmt.Sprintf("%.0f%%", cfg.LRWeight*100),
		MovingAverage:        fmt.Sprintf("%.0f%%", cfg.MAWeight*100),
		AIEnhancement:        "disabled",
	}
	if advisory {
		w.AIEnhancement = "30% blend with ensemble"
	}
	return w
}

func (h *Handler) runSummary(run *pipeline.Run) models.ForecastRunSummary {
	cfg := h.engine().Config()
	advisory := h.engine().AdvisoryEnabled()
	used := append([]string(nil), algorithms...)
	if advisory {
		used = append(used, "AI Enhancement (Gemini)")
	}
	return models.ForecastRunSummary{
		RunID:              run.Summary.RunID,
		ForecastsGenerated: run.Summary.Forecasts,
		ProductsFailed:     run.Summary.Failures,
		ProductsSkipped:    run.Summary.Skipped,
		HorizonDays:        cfg.HorizonDays,
		AlgorithmsUsed:     used,
		EnsembleWeights:    ensembleWeights(cfg, advisory),
	}
}

// HandleGenerateForecasts forecasts every product of the authenticated merchant and persists the results.
// POST /api/v1/merchant/forecasts/generate
func (h *Handler) HandleGenerateForecasts(c *fiber.Ctx) error {
	merchantID, _, ok := middleware.CurrentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	log.Printf("📈 [FORECAST] Generating demand forecasts for merchant %s", merchantID)
	run, err := h.Runner.RunMerchant(c.UserContext(), merchantID, pipeline.TriggerAPI)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoHistory) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "No historical sales data available for forecasting"})
		}
		log.Printf("❌ [FORECAST] Run failed for merchant %s: %v", merchantID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to generate forecasts"})
	}

	log.Printf("✅ [FORECAST] Generated %d forecasts for merchant %s (%d failed, %d skipped)",
		run.Summary.Forecasts, merchantID, run.Summary.Failures, run.Summary.Skipped)

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   fmt.Sprintf("Generated %d forecasts using ensemble methods", run.Summary.Forecasts),
		"summary":   h.runSummary(run),
		"forecasts": run.Batch.Forecasts,
		"failures":  run.Batch.Failures,
	})
}

// HandleListForecasts returns the latest persisted forecast per product.
// GET /api/v1/merchant/forecasts?page=&pageSize=
func (h *Handler) HandleListForecasts(c *fiber.Ctx) error {
	merchantID, _, ok := middleware.CurrentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	page, pageSize := utils.ParsePageParams(c.Query("page"), c.Query("pageSize"))
	forecasts, total, err := h.Store.LatestForecasts(c.UserContext(), merchantID, page, pageSize)
	if err != nil {
		log.Printf("❌ [FORECAST] Failed to list forecasts for merchant %s: %v", merchantID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to retrieve forecasts"})
	}

	return c.JSON(models.PaginatedForecastsResponse{
		Data:       forecasts,
		Pagination: utils.CreatePagination(total, page, pageSize),
	})
}

// HandleProductForecast forecasts one product on the fly, with the full breakdown.
// GET /api/v1/merchant/forecasts/products/:productId
func (h *Handler) HandleProductForecast(c *fiber.Ctx) error {
	merchantID, _, ok := middleware.CurrentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}
	productID := c.Params("productId")

	since := h.Runner.Now().AddDate(0, 0, -h.Runner.LookbackDays)
	history, err := h.Store.ProductSalesHistory(c.UserContext(), merchantID, productID, since)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Product not found"})
		}
		log.Printf("❌ [FORECAST] Failed to load history for product %s: %v", productID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to load sales history"})
	}

	result, err := h.engine().Forecast(c.UserContext(), history)
	if err != nil {
		log.Printf("❌ [FORECAST] Forecast failed for product %s: %v", productID, err)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "data": result})
}

// HandlePreviewForecast forecasts caller-supplied histories without persisting anything.
// POST /api/v1/forecasts/preview
func (h *Handler) HandlePreviewForecast(c *fiber.Ctx) error {
	var req models.ForecastPreviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if len(req.Products) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "At least one product is required"})
	}

	histories, problems := previewHistories(req.Products)
	if len(problems) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid sales data", "errors": problems})
	}

	batch := h.engine().ForecastAll(c.UserContext(), histories)
	return c.JSON(fiber.Map{
		"success":   true,
		"forecasts": batch.Forecasts,
		"failures":  batch.Failures,
		"skipped":   batch.Skipped,
	})
}

func previewHistories(products []models.PreviewProduct) ([]forecast.ProductHistory, []string) {
	histories := make([]forecast.ProductHistory, 0, len(products))
	var problems []string
	for i, p := range products {
		productID := p.ProductID
		if productID == "" {
			productID = "product-" + strconv.Itoa(i+1)
		}
		h := forecast.ProductHistory{
			ProductID:    productID,
			ProductName:  p.ProductName,
			ReorderLevel: p.ReorderLevel,
			Sales:        make([]forecast.SaleObservation, 0, len(p.Sales)),
		}
		for j, s := range p.Sales {
			obs, err := forecast.ParseObservation(productID, s.Date, s.Quantity)
			if err != nil {
				var ve *forecast.ValidationError
				if errors.As(err, &ve) {
					ve.Index = j
				}
				problems = append(problems, err.Error())
				continue
			}
			h.Sales = append(h.Sales, obs)
		}
		histories = append(histories, h)
	}
	return histories, problems
}

// HandleRunAllForecasts runs the scheduled forecast job for every merchant now.
// POST /api/v1/admin/forecasts/run
func (h *Handler) HandleRunAllForecasts(c *fiber.Ctx) error {
	log.Println("📈 [FORECAST] Manual forecast run for all merchants")
	failed, err := h.Runs.Trigger()
	switch {
	case errors.Is(err, scheduler.ErrRunInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "A forecast run is already in progress"})
	case errors.Is(err, scheduler.ErrStopped):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"success": false, "message": "Server is shutting down"})
	case err != nil:
		log.Printf("❌ [FORECAST] Manual run failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Forecast run failed"})
	}
	return c.JSON(fiber.Map{"success": true, "message": "Forecast run completed", "failed_merchants": failed})
}

// HandleListRuns returns the most recent journaled forecast runs.
// GET /api/v1/admin/forecasts/runs?limit=
func (h *Handler) HandleListRuns(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = defaultRunsLimit
	}
	if limit > utils.MaxPageSize {
		limit = utils.MaxPageSize
	}

	runs, err := h.Recorder.RecentRuns(limit)
	if err != nil {
		log.Printf("❌ [FORECAST] Failed to read run journal: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to read forecast runs"})
	}
	return c.JSON(fiber.Map{"success": true, "data": runs})
}
