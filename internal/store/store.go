package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Store persists evaluation runs and their mismatches in PostgreSQL
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// Config contains database configuration
type Config struct {
	DatabaseURL     string        `yaml:"database_url" mapstructure:"database_url"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// NewStore creates a new evaluation store instance
func NewStore(config *Config, logger *zap.Logger) (*Store, error) {
	db, err := sqlx.Connect("postgres", config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	store := &Store{
		db:     db,
		logger: logger,
	}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	logger.Info("Evaluation store initialized successfully",
		zap.String("database_url", maskDatabaseURL(config.DatabaseURL)),
		zap.Int("max_open_conns", config.MaxOpenConns),
		zap.Int("max_idle_conns", config.MaxIdleConns))

	return store, nil
}

// initialize checks the connection and ensures the schema exists
func (s *Store) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS eval_runs (
			id          BIGSERIAL PRIMARY KEY,
			corpus      TEXT NOT NULL,
			classifier  TEXT NOT NULL,
			total       BIGINT NOT NULL,
			correct     BIGINT NOT NULL,
			accuracy    DOUBLE PRECISION NOT NULL,
			entity_hits BIGINT NOT NULL DEFAULT 0,
			statistical BIGINT NOT NULL DEFAULT 0,
			fallbacks   BIGINT NOT NULL DEFAULT 0,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS eval_mismatches (
			id          BIGSERIAL PRIMARY KEY,
			run_id      BIGINT NOT NULL REFERENCES eval_runs(id) ON DELETE CASCADE,
			text_hash   TEXT NOT NULL,
			text_length INT NOT NULL,
			expected    TEXT NOT NULL,
			detected    TEXT NOT NULL,
			confidence  DOUBLE PRECISION NOT NULL,
			method      TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (run_id, text_hash)
		);
		CREATE INDEX IF NOT EXISTS idx_eval_mismatches_run ON eval_mismatches (run_id);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	s.logger.Info("Database schema ready")
	return nil
}

// InsertRun records a completed evaluation and fills in its ID
func (s *Store) InsertRun(ctx context.Context, run *EvalRun) error {
	query := `
		INSERT INTO eval_runs (corpus, classifier, total, correct, accuracy, entity_hits, statistical, fallbacks, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := s.db.QueryRowContext(ctx, query,
		run.Corpus,
		run.Classifier,
		run.Total,
		run.Correct,
		run.Accuracy,
		run.EntityHits,
		run.Statistical,
		run.Fallbacks,
		run.DurationMS,
	).Scan(&run.ID, &run.CreatedAt)

	if err != nil {
		s.logger.Error("Failed to insert evaluation run",
			zap.Error(err),
			zap.String("corpus", run.Corpus))
		return fmt.Errorf("failed to insert evaluation run: %w", err)
	}

	s.logger.Debug("Evaluation run inserted",
		zap.Int64("id", run.ID),
		zap.String("corpus", run.Corpus))

	return nil
}

// BatchInsertMismatches stores misclassified samples efficiently
func (s *Store) BatchInsertMismatches(ctx context.Context, mismatches []*Mismatch) (*BatchInsertResult, error) {
	if len(mismatches) == 0 {
		return &BatchInsertResult{}, nil
	}

	start := time.Now()
	result := &BatchInsertResult{}

	valueStrings := make([]string, 0, len(mismatches))
	valueArgs := make([]interface{}, 0, len(mismatches)*7)

	for i, m := range mismatches {
		valueStrings = append(valueStrings, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			i*7+1, i*7+2, i*7+3, i*7+4, i*7+5, i*7+6, i*7+7))
		valueArgs = append(valueArgs,
			m.RunID,
			m.TextHash,
			m.TextLength,
			m.Expected,
			m.Detected,
			m.Confidence,
			m.Method,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO eval_mismatches (run_id, text_hash, text_length, expected, detected, confidence, method)
		VALUES %s
		ON CONFLICT (run_id, text_hash) DO NOTHING`,
		strings.Join(valueStrings, ","))

	res, err := s.db.ExecContext(ctx, query, valueArgs...)
	if err != nil {
		result.Failed = int64(len(mismatches))
		result.Errors = []error{err}
		s.logger.Error("Batch insert failed", zap.Error(err))
		return result, fmt.Errorf("batch insert failed: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		s.logger.Warn("Could not get rows affected", zap.Error(err))
		inserted = int64(len(mismatches))
	}

	result.Inserted = inserted
	result.Failed = int64(len(mismatches)) - inserted
	result.Duration = time.Since(start)

	s.logger.Info("Batch insert completed",
		zap.Int64("inserted", result.Inserted),
		zap.Int64("skipped", result.Failed),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// ListRuns returns recent evaluation runs, newest first
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*EvalRun, error) {
	if limit <= 0 {
		limit = 20
	}

	var runs []*EvalRun
	query := `
		SELECT id, corpus, classifier, total, correct, accuracy, entity_hits, statistical, fallbacks, duration_ms, created_at
		FROM eval_runs
		ORDER BY created_at DESC
		LIMIT $1`

	if err := s.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list evaluation runs: %w", err)
	}
	return runs, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// maskDatabaseURL masks sensitive information in database URL for logging
func maskDatabaseURL(url string) string {
	// Simple masking - replace password with ***
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) >= 2 {
			userPart := parts[0]
			if strings.Contains(userPart, ":") {
				userParts := strings.Split(userPart, ":")
				if len(userParts) >= 3 {
					userParts[len(userParts)-1] = "***"
					parts[0] = strings.Join(userParts, ":")
				}
			}
			return strings.Join(parts, "@")
		}
	}
	return url
}
