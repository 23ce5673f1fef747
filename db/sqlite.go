package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// PredictionRecord is one logged prediction.
type PredictionRecord struct {
	ID           int64     `json:"id"`
	RequestID    string    `json:"request_id,omitempty"`
	Condition    string    `json:"condition"`
	Prediction   int       `json:"prediction"`
	Confidence   float64   `json:"confidence"`
	Features     []float64 `json:"features"`
	ModelVersion uint64    `json:"model_version"`
	Cached       bool      `json:"cached"`
	CreatedAt    time.Time `json:"created_at"`
}

// PredictionLog is an append-only sqlite log of successful predictions.
type PredictionLog struct {
	db *sql.DB
}

// Open creates the database file and schema if needed. ":memory:" is accepted.
func Open(path string) (*PredictionLog, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}

	database, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database failed: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		database.SetMaxOpenConns(1)
	} else {
		database.SetMaxOpenConns(10)
		database.SetMaxIdleConns(5)
		database.SetConnMaxLifetime(time.Hour)
	}

	l := &PredictionLog{db: database}
	if err := l.createTables(); err != nil {
		database.Close()
		return nil, fmt.Errorf("create tables failed: %w", err)
	}
	return l, nil
}

func (l *PredictionLog) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS predictions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            request_id TEXT,
            condition TEXT NOT NULL,
            prediction INTEGER NOT NULL,
            confidence REAL NOT NULL,
            features TEXT NOT NULL,
            model_version INTEGER NOT NULL,
            cached INTEGER DEFAULT 0,
            created_at DATETIME NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_condition ON predictions(condition, created_at)`,
	}
	for _, query := range queries {
		if _, err := l.db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// Save inserts rec and fills in its ID and CreatedAt.
func (l *PredictionLog) Save(ctx context.Context, rec *PredictionRecord) error {
	features, err := json.Marshal(rec.Features)
	if err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	res, err := l.db.ExecContext(ctx, `
        INSERT INTO predictions (
            request_id, condition, prediction, confidence, features, model_version, cached, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID, rec.Condition, rec.Prediction, rec.Confidence, string(features),
		int64(rec.ModelVersion), rec.Cached, rec.CreatedAt,
	)
	if err != nil {
		return err
	}
	rec.ID, err = res.LastInsertId()
	return err
}

// Recent returns the newest records first. An empty condition matches all.
func (l *PredictionLog) Recent(ctx context.Context, condition string, limit int) ([]PredictionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
        SELECT id, request_id, condition, prediction, confidence, features, model_version, cached, created_at
        FROM predictions`
	args := []any{}
	if condition != "" {
		query += ` WHERE condition = ?`
		args = append(args, condition)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]PredictionRecord, 0)
	for rows.Next() {
		var (
			rec       PredictionRecord
			requestID sql.NullString
			features  string
			version   int64
		)
		if err := rows.Scan(&rec.ID, &requestID, &rec.Condition, &rec.Prediction, &rec.Confidence,
			&features, &version, &rec.Cached, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(features), &rec.Features); err != nil {
			return nil, fmt.Errorf("decode features for prediction %d: %w", rec.ID, err)
		}
		rec.RequestID = requestID.String
		rec.ModelVersion = uint64(version)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Counts returns the number of logged predictions per condition and label.
func (l *PredictionLog) Counts(ctx context.Context) (map[string]map[int]int64, error) {
	rows, err := l.db.QueryContext(ctx, `
        SELECT condition, prediction, COUNT(*)
        FROM predictions
        GROUP BY condition, prediction`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]map[int]int64)
	for rows.Next() {
		var (
			condition string
			label     int
			n         int64
		)
		if err := rows.Scan(&condition, &label, &n); err != nil {
			return nil, err
		}
		if counts[condition] == nil {
			counts[condition] = make(map[int]int64)
		}
		counts[condition][label] = n
	}
	return counts, rows.Err()
}

func (l *PredictionLog) Close() error {
	return l.db.Close()
}
