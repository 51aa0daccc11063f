package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"stockcast/forecast"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder journals forecast runs to a local SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while runs are written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS forecast_runs (
			run_id           TEXT PRIMARY KEY,
			merchant_id      TEXT NOT NULL,
			trigger_type     TEXT,
			started_at       INTEGER NOT NULL,
			duration_ms      INTEGER,
			forecasts        INTEGER,
			failures         INTEGER,
			skipped          INTEGER,
			advisory_applied INTEGER,
			error            TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON forecast_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS run_forecasts (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id              TEXT NOT NULL,
			product_id          TEXT NOT NULL,
			predicted_demand    INTEGER,
			confidence_score    REAL,
			forecast_date       TEXT,
			es_prediction       REAL,
			lr_prediction       REAL,
			ma_prediction       REAL,
			seasonality_factor  REAL,
			ensemble_prediction INTEGER,
			advisory_applied    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_forecasts_run ON run_forecasts(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *RunSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO forecast_runs
		(run_id, merchant_id, trigger_type, started_at, duration_ms, forecasts, failures, skipped, advisory_applied, error)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		run.RunID, run.MerchantID, run.Trigger, run.StartedAt.Unix(), run.Duration.Milliseconds(),
		run.Forecasts, run.Failures, run.Skipped, run.AdvisoryApplied, run.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordForecasts(runID string, results []forecast.ForecastResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO run_forecasts
		(run_id, product_id, predicted_demand, confidence_score, forecast_date,
		 es_prediction, lr_prediction, ma_prediction, seasonality_factor, ensemble_prediction, advisory_applied)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range results {
		b := f.Breakdown
		if _, err := stmt.Exec(
			runID, f.ProductID, f.PredictedDemand, f.ConfidenceScore, f.ForecastDate.Format("2006-01-02"),
			b.ExponentialSmoothing, b.LinearRegression.Prediction, b.MovingAverage, b.SeasonalityFactor,
			b.EnsemblePrediction, b.AdvisoryApplied,
		); err != nil {
			return fmt.Errorf("insert forecast %s: %w", f.ProductID, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT run_id, merchant_id, trigger_type, started_at, duration_ms,
		forecasts, failures, skipped, advisory_applied, COALESCE(error, '')
		FROM forecast_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]RunSummary, 0)
	for rows.Next() {
		var run RunSummary
		var startedAt, durationMs int64
		if err := rows.Scan(&run.RunID, &run.MerchantID, &run.Trigger, &startedAt, &durationMs,
			&run.Forecasts, &run.Failures, &run.Skipped, &run.AdvisoryApplied, &run.Error); err != nil {
			return nil, err
		}
		run.StartedAt = time.Unix(startedAt, 0).UTC()
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
