package routes

import (
	"stockcast/handlers"
	"stockcast/middleware"
	"stockcast/utils"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes defines all the routes for the application.
func SetupRoutes(app *fiber.App, h *handlers.Handler) {
	app.Get("/health", h.HandleHealth)
	app.Get("/version", h.HandleVersion)
	app.Get("/db", h.HandleDBPing)

	api := app.Group("/api/v1")

	// --- Authentication Routes ---
	auth := api.Group("/auth")
	auth.Post("/login", h.HandleLogin)

	// --- Preview (any authenticated role) ---
	api.Post("/forecasts/preview", middleware.JWTMiddleware, middleware.CheckRole(utils.RoleAdmin, utils.RoleMerchant, utils.RoleStaff), h.HandlePreviewForecast)

	// --- Admin Routes ---
	admin := api.Group("/admin", middleware.JWTMiddleware, middleware.AdminRequired)
	admin.Post("/forecasts/run", h.HandleRunAllForecasts)
	admin.Get("/forecasts/runs", h.HandleListRuns)

	// --- Merchant Routes ---
	merchant := api.Group("/merchant", middleware.JWTMiddleware, middleware.MerchantRequired)

	merchant.Get("/forecasts", h.HandleListForecasts)
	merchant.Post("/forecasts/generate", h.HandleGenerateForecasts)
	merchant.Get("/forecasts/products/:productId", h.HandleProductForecast)
}
