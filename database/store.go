package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stockcast/forecast"
	"stockcast/models"
	"stockcast/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// Store runs the forecasting queries against the retail schema.
type Store struct {
	db *pgxpool.Pool
}

// NewStore wraps a pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

const salesHistoryQuery = `
	SELECT i.id, i.name, i.low_stock_threshold, s.sale_date, si.quantity_sold
	FROM sale_items si
	JOIN sales s ON si.sale_id = s.id
	JOIN inventory_items i ON si.inventory_item_id = i.id
	WHERE s.merchant_id = $1 AND s.sale_date >= $2
`

// SalesHistory loads every sale line of the merchant since the given time, grouped by product.
func (s *Store) SalesHistory(ctx context.Context, merchantID string, since time.Time) ([]forecast.ProductHistory, error) {
	return s.salesHistory(ctx, salesHistoryQuery+" ORDER BY s.sale_date", merchantID, since)
}

// ProductSalesHistory loads one product's history. It returns ErrNotFound if the
// product does not belong to the merchant.
func (s *Store) ProductSalesHistory(ctx context.Context, merchantID, productID string, since time.Time) (forecast.ProductHistory, error) {
	var h forecast.ProductHistory
	var threshold sql.NullInt32
	err := s.db.QueryRow(ctx,
		`SELECT id, name, low_stock_threshold FROM inventory_items WHERE id = $1 AND merchant_id = $2`,
		productID, merchantID,
	).Scan(&h.ProductID, &h.ProductName, &threshold)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return h, ErrNotFound
		}
		return h, fmt.Errorf("failed to query product: %w", err)
	}
	h.ReorderLevel = utils.NullInt32ToIntPtr(threshold)

	histories, err := s.salesHistory(ctx, salesHistoryQuery+" AND i.id = $3 ORDER BY s.sale_date", merchantID, since, productID)
	if err != nil {
		return h, err
	}
	if len(histories) == 1 {
		h.Sales = histories[0].Sales
	}
	return h, nil
}

func (s *Store) salesHistory(ctx context.Context, query string, args ...interface{}) ([]forecast.ProductHistory, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales history: %w", err)
	}
	defer rows.Close()

	var lines []models.SaleLine
	for rows.Next() {
		var line models.SaleLine
		var threshold sql.NullInt32
		if err := rows.Scan(&line.ProductID, &line.ProductName, &threshold, &line.SaleDate, &line.QuantitySold); err != nil {
			return nil, fmt.Errorf("failed to scan sale line: %w", err)
		}
		line.ReorderLevel = utils.NullInt32ToIntPtr(threshold)
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sales history: %w", err)
	}
	return GroupSaleLines(lines), nil
}

// GroupSaleLines groups sale lines into per-product histories, in order of first appearance.
func GroupSaleLines(lines []models.SaleLine) []forecast.ProductHistory {
	index := make(map[string]int)
	var out []forecast.ProductHistory
	for _, line := range lines {
		i, ok := index[line.ProductID]
		if !ok {
			name := line.ProductName
			if name == "" {
				name = "Unknown"
			}
			i = len(out)
			index[line.ProductID] = i
			out = append(out, forecast.ProductHistory{
				ProductID:    line.ProductID,
				ProductName:  name,
				ReorderLevel: line.ReorderLevel,
			})
		}
		out[i].Sales = append(out[i].Sales, forecast.SaleObservation{
			ProductID: line.ProductID,
			Date:      forecast.Day(line.SaleDate),
			Quantity:  line.QuantitySold,
		})
	}
	return out
}

// MerchantsWithSales lists merchants that sold anything since the given time.
func (s *Store) MerchantsWithSales(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT merchant_id FROM sales WHERE sale_date >= $1 ORDER BY merchant_id`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query merchants: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan merchant id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveForecasts inserts the results of one run in a single transaction.
func (s *Store) SaveForecasts(ctx context.Context, merchantID string, results []forecast.ForecastResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range results {
		batch.Queue(
			`INSERT INTO demand_forecasts (id, merchant_id, product_id, predicted_demand, confidence_score, forecast_date)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New().String(), merchantID, r.ProductID, r.PredictedDemand, r.ConfidenceScore, r.ForecastDate,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range results {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert forecast: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit forecasts: %w", err)
	}
	return nil
}

// LatestForecasts returns the newest forecast per product, a page at a time, and the total product count.
func (s *Store) LatestForecasts(ctx context.Context, merchantID string, page, pageSize int) ([]models.DemandForecast, int, error) {
	var total int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(DISTINCT product_id) FROM demand_forecasts WHERE merchant_id = $1`, merchantID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count forecasts: %w", err)
	}

	query := `
		SELECT * FROM (
			SELECT DISTINCT ON (f.product_id)
			       f.id, f.merchant_id, f.product_id, COALESCE(i.name, 'Unknown'), f.predicted_demand,
			       COALESCE(f.confidence_score, 0), f.forecast_date, i.low_stock_threshold, f.created_at
			FROM demand_forecasts f
			LEFT JOIN inventory_items i ON i.id = f.product_id
			WHERE f.merchant_id = $1
			ORDER BY f.product_id, f.created_at DESC
		) latest
		ORDER BY predicted_demand DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.Query(ctx, query, merchantID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query forecasts: %w", err)
	}
	defer rows.Close()

	forecasts := make([]models.DemandForecast, 0)
	for rows.Next() {
		var f models.DemandForecast
		var threshold sql.NullInt32
		if err := rows.Scan(
			&f.ID, &f.MerchantID, &f.ProductID, &f.ProductName, &f.PredictedDemand,
			&f.ConfidenceScore, &f.ForecastDate, &threshold, &f.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan forecast: %w", err)
		}
		f.ReorderLevel = utils.NullInt32ToIntPtr(threshold)
		f.ReorderSuggestion = forecast.ReorderSuggestion(f.PredictedDemand, f.ReorderLevel)
		forecasts = append(forecasts, f)
	}
	return forecasts, total, rows.Err()
}

// FindUserForLogin looks up an active-or-not user by email and role, returning the password hash.
func (s *Store) FindUserForLogin(ctx context.Context, email, role string) (models.User, string, error) {
	var user models.User
	var passwordHash string
	var phone, merchantID sql.NullString

	err := s.db.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, is_active, phone, merchant_id, created_at, updated_at
		FROM users
		WHERE email = $1 AND role = $2`, email, role,
	).Scan(
		&user.ID, &user.Name, &user.Email, &passwordHash, &user.Role, &user.IsActive,
		&phone, &merchantID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user, "", ErrNotFound
		}
		return user, "", fmt.Errorf("failed to query user: %w", err)
	}

	user.Phone = utils.NullStringToStringPtr(phone)
	user.MerchantID = utils.NullStringToStringPtr(merchantID)
	return user, passwordHash, nil
}
