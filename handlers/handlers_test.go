package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stockcast/config"
	"stockcast/database"
	"stockcast/forecast"
	"stockcast/models"
	"stockcast/pipeline"
	"stockcast/recorder"
	"stockcast/scheduler"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

type fakeStore struct {
	histories map[string][]forecast.ProductHistory
	saved     map[string][]forecast.ForecastResult
	latest    []models.DemandForecast
	user      models.User
	hash      string
	pingErr   error
}

func (s *fakeStore) SalesHistory(_ context.Context, merchantID string, _ time.Time) ([]forecast.ProductHistory, error) {
	return s.histories[merchantID], nil
}

func (s *fakeStore) SaveForecasts(_ context.Context, merchantID string, results []forecast.ForecastResult) error {
	s.saved[merchantID] = results
	return nil
}

func (s *fakeStore) MerchantsWithSales(context.Context, time.Time) ([]string, error) {
	ids := make([]string, 0, len(s.histories))
	for id := range s.histories {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *fakeStore) LatestForecasts(_ context.Context, _ string, page, pageSize int) ([]models.DemandForecast, int, error) {
	start := (page - 1) * pageSize
	if start >= len(s.latest) {
		return []models.DemandForecast{}, len(s.latest), nil
	}
	end := start + pageSize
	if end > len(s.latest) {
		end = len(s.latest)
	}
	return s.latest[start:end], len(s.latest), nil
}

func (s *fakeStore) ProductSalesHistory(_ context.Context, merchantID, productID string, _ time.Time) (forecast.ProductHistory, error) {
	for _, h := range s.histories[merchantID] {
		if h.ProductID == productID {
			return h, nil
		}
	}
	return forecast.ProductHistory{}, database.ErrNotFound
}

func (s *fakeStore) FindUserForLogin(_ context.Context, email, role string) (models.User, string, error) {
	if email != s.user.Email || role != s.user.Role {
		return models.User{}, "", database.ErrNotFound
	}
	return s.user, s.hash, nil
}

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }

func steadyHistory(productID string, days, qty int) forecast.ProductHistory {
	sales := make([]forecast.SaleObservation, 0, days)
	start := forecast.Day(fixedNow).AddDate(0, 0, -days)
	for i := 0; i < days; i++ {
		sales = append(sales, forecast.SaleObservation{ProductID: productID, Date: start.AddDate(0, 0, i), Quantity: qty})
	}
	return forecast.ProductHistory{ProductID: productID, ProductName: "Item " + productID, Sales: sales}
}

func newTestApp(t *testing.T, store *fakeStore) *fiber.App {
	t.Helper()
	app, _ := newTestAppWithScheduler(t, store)
	return app
}

func newTestAppWithScheduler(t *testing.T, store *fakeStore) (*fiber.App, *scheduler.Scheduler) {
	t.Helper()
	engine, err := forecast.NewEngine(forecast.DefaultConfig(), forecast.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	runner := pipeline.NewRunner(store, engine, nil, 90)
	runner.Now = func() time.Time { return fixedNow }
	sched := scheduler.NewScheduler(context.Background(), func(ctx context.Context) (int, error) {
		return runner.RunAll(ctx, pipeline.TriggerManual)
	})
	h := New(runner, store, recorder.NewNoopRecorder(), sched)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", "m1")
		c.Locals("userRole", "merchant")
		return c.Next()
	})
	app.Post("/login", h.HandleLogin)
	app.Post("/generate", h.HandleGenerateForecasts)
	app.Get("/forecasts", h.HandleListForecasts)
	app.Get("/forecasts/products/:productId", h.HandleProductForecast)
	app.Post("/preview", h.HandlePreviewForecast)
	app.Post("/run", h.HandleRunAllForecasts)
	app.Get("/runs", h.HandleListRuns)
	app.Get("/health", h.HandleHealth)
	app.Get("/db", h.HandleDBPing)
	return app, sched
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		histories: map[string][]forecast.ProductHistory{},
		saved:     map[string][]forecast.ForecastResult{},
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestHandleGenerateForecasts(t *testing.T) {
	store := newFakeStore()
	store.histories["m1"] = []forecast.ProductHistory{steadyHistory("p1", 30, 10), steadyHistory("p2", 30, 2)}
	app := newTestApp(t, store)

	code, body := doJSON(t, app, http.MethodPost, "/generate", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	summary := body["summary"].(map[string]interface{})
	assert.EqualValues(t, 2, summary["forecasts_generated"])
	assert.EqualValues(t, 30, summary["horizon_days"])
	weights := summary["ensemble_weights"].(map[string]interface{})
	assert.Equal(t, "40%", weights["moving_average"])
	assert.Equal(t, "disabled", weights["ai_enhancement"])

	require.Len(t, store.saved["m1"], 2)
	assert.Equal(t, 300, store.saved["m1"][0].PredictedDemand)
	assert.Equal(t, 60, store.saved["m1"][1].PredictedDemand)
}

func TestHandleGenerateForecasts_NoHistory(t *testing.T) {
	app := newTestApp(t, newFakeStore())

	code, body := doJSON(t, app, http.MethodPost, "/generate", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "No historical sales data available for forecasting", body["message"])
}

func TestHandleListForecasts(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 12; i++ {
		store.latest = append(store.latest, models.DemandForecast{ProductID: "p", PredictedDemand: 100 - i})
	}
	app := newTestApp(t, store)

	code, body := doJSON(t, app, http.MethodGet, "/forecasts?page=2&pageSize=5", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"], 5)
	pagination := body["pagination"].(map[string]interface{})
	assert.EqualValues(t, 12, pagination["totalItems"])
	assert.EqualValues(t, 3, pagination["totalPages"])
	assert.EqualValues(t, 2, pagination["currentPage"])
}

func TestHandleProductForecast(t *testing.T) {
	store := newFakeStore()
	store.histories["m1"] = []forecast.ProductHistory{steadyHistory("p1", 30, 10)}
	app := newTestApp(t, store)

	code, body := doJSON(t, app, http.MethodGet, "/forecasts/products/p1", nil)
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 300, data["predicted_demand"])
	assert.EqualValues(t, 360, data["reorder_suggestion"])
	breakdown := data["breakdown"].(map[string]interface{})
	assert.EqualValues(t, 30, breakdown["history_days"])

	code, _ = doJSON(t, app, http.MethodGet, "/forecasts/products/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHandlePreviewForecast(t *testing.T) {
	app := newTestApp(t, newFakeStore())

	req := models.ForecastPreviewRequest{Products: []models.PreviewProduct{
		{ProductID: "p1", ProductName: "Soap", Sales: []models.PreviewSale{
			{Date: "2024-06-01", Quantity: 5},
			{Date: "2024-06-02T13:45:00Z", Quantity: 7},
		}},
		{ProductID: "p2"},
	}}
	code, body := doJSON(t, app, http.MethodPost, "/preview", req)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["forecasts"], 1)
	assert.EqualValues(t, 1, body["skipped"])
}

func TestHandlePreviewForecast_InvalidInput(t *testing.T) {
	app := newTestApp(t, newFakeStore())

	req := models.ForecastPreviewRequest{Products: []models.PreviewProduct{
		{ProductID: "p1", Sales: []models.PreviewSale{
			{Date: "yesterday", Quantity: 5},
			{Date: "2024-06-02", Quantity: -1},
		}},
	}}
	code, body := doJSON(t, app, http.MethodPost, "/preview", req)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Len(t, body["errors"], 2)

	code, _ = doJSON(t, app, http.MethodPost, "/preview", models.ForecastPreviewRequest{})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHandleLogin(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	t.Cleanup(func() { config.AppConfig.JWTSecret = "" })

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	store := newFakeStore()
	store.user = models.User{ID: "m1", Email: "shop@example.com", Role: "merchant", IsActive: true}
	store.hash = string(hash)
	app := newTestApp(t, store)

	code, body := doJSON(t, app, http.MethodPost, "/login", models.LoginRequest{Email: "shop@example.com", Password: "s3cret", UserType: "Merchant"})
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["accessToken"])

	code, _ = doJSON(t, app, http.MethodPost, "/login", models.LoginRequest{Email: "shop@example.com", Password: "wrong", UserType: "merchant"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = doJSON(t, app, http.MethodPost, "/login", models.LoginRequest{Email: "shop@example.com", Password: "s3cret", UserType: "owner"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHandleRunAllAndRuns(t *testing.T) {
	store := newFakeStore()
	store.histories["m1"] = []forecast.ProductHistory{steadyHistory("p1", 10, 1)}
	app := newTestApp(t, store)

	code, body := doJSON(t, app, http.MethodPost, "/run", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, body["failed_merchants"])
	assert.Len(t, store.saved["m1"], 1)

	code, body = doJSON(t, app, http.MethodGet, "/runs?limit=5", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["data"])
}

func TestHandleRunAllForecasts_RunInProgress(t *testing.T) {
	store := newFakeStore()
	app, sched := newTestAppWithScheduler(t, store)

	release := make(chan struct{})
	started := make(chan struct{})
	sched.Job = func(context.Context) (int, error) {
		close(started)
		<-release
		return 0, nil
	}
	done := make(chan bool)
	go func() { done <- sched.RunNow() }()
	<-started

	code, body := doJSON(t, app, http.MethodPost, "/run", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, false, body["success"])

	close(release)
	require.True(t, <-done)

	sched.Stop()
	code, _ = doJSON(t, app, http.MethodPost, "/run", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestHealthAndDBPing(t *testing.T) {
	store := newFakeStore()
	app := newTestApp(t, store)

	code, body := doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["advisory"])

	code, _ = doJSON(t, app, http.MethodGet, "/db", nil)
	assert.Equal(t, http.StatusOK, code)

	store.pingErr = assert.AnError
	code, _ = doJSON(t, app, http.MethodGet, "/db", nil)
	assert.Equal(t, http.StatusInternalServerError, code)
}
