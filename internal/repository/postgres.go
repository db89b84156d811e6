package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cropadvisor/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// PostgresRepository stores the detection log
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	// Disable prepared statement caching to avoid "unnamed prepared statement does not exist" errors
	if !strings.Contains(dsn, "?") {
		dsn += "?prefer_simple_protocol=true"
	} else {
		dsn += "&prefer_simple_protocol=true"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// InsertDetection appends a detection record to the log. The embedding is
// optional; records without one are simply excluded from similarity search.
func (r *PostgresRepository) InsertDetection(ctx context.Context, rec *model.DetectionRecord, embedding []float32) error {
	if len(embedding) > 0 {
		query := `
			INSERT INTO detection_logs (crop, disease, severity, confidence, model, response_time_ms, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		_, err := r.db.ExecContext(ctx, query,
			rec.Crop, rec.Disease, rec.Severity, rec.Confidence, rec.Model, rec.ResponseTimeMs,
			pgvector.NewVector(embedding),
		)
		if err != nil {
			return fmt.Errorf("failed to insert detection: %w", err)
		}
		return nil
	}

	query := `
		INSERT INTO detection_logs (crop, disease, severity, confidence, model, response_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.Crop, rec.Disease, rec.Severity, rec.Confidence, rec.Model, rec.ResponseTimeMs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert detection: %w", err)
	}
	return nil
}

// RecentDetections returns the latest detection records, newest first
func (r *PostgresRepository) RecentDetections(ctx context.Context, limit int) ([]model.DetectionRecord, error) {
	query := `
		SELECT id, crop, disease, severity, confidence, model, response_time_ms, created_at
		FROM detection_logs
		ORDER BY created_at DESC
		LIMIT $1
	`

	records := []model.DetectionRecord{}
	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("failed to fetch detections: %w", err)
	}
	return records, nil
}

// SimilarDetections returns the detection records whose summary embeddings
// are closest to the query embedding (cosine distance)
func (r *PostgresRepository) SimilarDetections(ctx context.Context, embedding []float32, limit int) ([]model.DetectionRecord, error) {
	query := `
		SELECT id, crop, disease, severity, confidence, model, response_time_ms, created_at
		FROM detection_logs
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2
	`

	records := []model.DetectionRecord{}
	if err := r.db.SelectContext(ctx, &records, query, pgvector.NewVector(embedding), limit); err != nil {
		return nil, fmt.Errorf("failed to search detections: %w", err)
	}
	return records, nil
}
