package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists training runs and, optionally, served predictions. Nothing
// in it is ever read back by the predictor.
type Store struct {
	db *sql.DB
}

// TrainingRun is one row of the training log.
type TrainingRun struct {
	RunID             string
	ModelName         string
	DatasetPath       string
	Accuracy          float64
	Precision         float64
	Recall            float64
	F1                float64
	DataPoints        int
	TrainPoints       int
	TestPoints        int
	ModelFingerprint  string
	ScalerFingerprint string
	TrainedAt         time.Time
}

// PredictionRecord is one served prediction.
type PredictionRecord struct {
	RequestID   string
	Temperature float64
	Humidity    float64
	Pressure    float64
	WindSpeed   float64
	Sunshine    float64
	Label       int
	Probability float64
	CreatedAt   time.Time
}

const schema = `
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT NOT NULL UNIQUE,
        model_name VARCHAR(50),
        dataset_path TEXT,
        accuracy REAL,
        precision REAL,
        recall REAL,
        f1 REAL,
        data_points INTEGER,
        train_points INTEGER,
        test_points INTEGER,
        model_fingerprint TEXT,
        scaler_fingerprint TEXT,
        trained_at DATETIME
    );
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        request_id TEXT,
        temperature REAL,
        humidity REAL,
        pressure REAL,
        wind_speed REAL,
        sunshine REAL,
        predicted_label INTEGER,
        probability REAL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_training_log_trained_at ON training_log(trained_at);
    `

// Open creates the database file and schema if needed.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	database, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database failed: %w", err)
	}
	database.SetMaxOpenConns(1)

	if _, err := database.Exec(schema); err != nil {
		database.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: database}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) RecordTrainingRun(ctx context.Context, run TrainingRun) error {
	if run.RunID == "" {
		return errors.New("run id required")
	}
	if run.TrainedAt.IsZero() {
		run.TrainedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO training_log (
            run_id, model_name, dataset_path, accuracy, precision, recall, f1,
            data_points, train_points, test_points, model_fingerprint, scaler_fingerprint, trained_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.ModelName,
		run.DatasetPath,
		run.Accuracy,
		run.Precision,
		run.Recall,
		run.F1,
		run.DataPoints,
		run.TrainPoints,
		run.TestPoints,
		run.ModelFingerprint,
		run.ScalerFingerprint,
		run.TrainedAt,
	)
	return err
}

// ListTrainingRuns returns the most recent runs first.
func (s *Store) ListTrainingRuns(ctx context.Context, limit int) ([]TrainingRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT run_id, model_name, dataset_path, accuracy, precision, recall, f1,
               data_points, train_points, test_points, model_fingerprint, scaler_fingerprint, trained_at
        FROM training_log
        ORDER BY trained_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []TrainingRun
	for rows.Next() {
		var r TrainingRun
		err := rows.Scan(&r.RunID, &r.ModelName, &r.DatasetPath, &r.Accuracy, &r.Precision, &r.Recall, &r.F1,
			&r.DataPoints, &r.TrainPoints, &r.TestPoints, &r.ModelFingerprint, &r.ScalerFingerprint, &r.TrainedAt)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *Store) RecordPrediction(ctx context.Context, p PredictionRecord) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO predictions (
            request_id, temperature, humidity, pressure, wind_speed, sunshine,
            predicted_label, probability, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.RequestID, p.Temperature, p.Humidity, p.Pressure, p.WindSpeed, p.Sunshine,
		p.Label, p.Probability, p.CreatedAt)
	return err
}

func (s *Store) CountPredictions(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM predictions`).Scan(&n)
	return n, err
}
