// Package store provides storage backends for the check-in engine.
//
// This file implements a PostgreSQL-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/bloomcare/checkin/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// GetConversationContext retrieves the saved context for a user, or nil.
func (s *PostgresStore) GetConversationContext(userID string) (*models.ConversationContext, error) {
	var contextJSON string
	err := s.db.QueryRow(`SELECT context FROM conversation_contexts WHERE user_id = $1`, userID).Scan(&contextJSON)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetConversationContext not found", "userID", userID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetConversationContext failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query conversation context: %w", err)
	}

	var c models.ConversationContext
	if err := json.Unmarshal([]byte(contextJSON), &c); err != nil {
		slog.Error("PostgresStore GetConversationContext unmarshal failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to parse conversation context: %w", err)
	}
	return &c, nil
}

// SaveConversationContext stores or replaces the context for a user.
func (s *PostgresStore) SaveConversationContext(userID string, c models.ConversationContext) error {
	contextJSON, err := json.Marshal(c)
	if err != nil {
		slog.Error("PostgresStore SaveConversationContext marshal failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to marshal conversation context: %w", err)
	}
	now := time.Now()
	_, err = s.db.Exec(`
		INSERT INTO conversation_contexts (user_id, context, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET context = EXCLUDED.context, updated_at = EXCLUDED.updated_at`,
		userID, string(contextJSON), now, now)
	if err != nil {
		slog.Error("PostgresStore SaveConversationContext failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to save conversation context: %w", err)
	}
	slog.Debug("PostgresStore SaveConversationContext succeeded", "userID", userID, "stage", c.Stage)
	return nil
}

// DeleteConversationContext removes the saved context for a user.
func (s *PostgresStore) DeleteConversationContext(userID string) error {
	_, err := s.db.Exec(`DELETE FROM conversation_contexts WHERE user_id = $1`, userID)
	if err != nil {
		slog.Error("PostgresStore DeleteConversationContext failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to delete conversation context: %w", err)
	}
	return nil
}

// GetSetting retrieves a per-user setting value, or "" if unset.
func (s *PostgresStore) GetSetting(userID, key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM user_settings WHERE user_id = $1 AND key = $2`, userID, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSetting failed", "error", err, "userID", userID, "key", key)
		return "", fmt.Errorf("failed to query setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a per-user setting value.
func (s *PostgresStore) SetSetting(userID, key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO user_settings (user_id, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		userID, key, value, time.Now())
	if err != nil {
		slog.Error("PostgresStore SetSetting failed", "error", err, "userID", userID, "key", key)
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// MarkSubmitted records that a response reached the backend.
func (s *PostgresStore) MarkSubmitted(userID, domainID, questionID string) error {
	_, err := s.db.Exec(`
		INSERT INTO submissions (user_id, domain_id, question_id, submitted_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, domain_id, question_id) DO NOTHING`,
		userID, domainID, questionID, time.Now())
	if err != nil {
		slog.Error("PostgresStore MarkSubmitted failed", "error", err, "userID", userID, "questionID", questionID)
		return fmt.Errorf("failed to record submission: %w", err)
	}
	return nil
}

// IsSubmitted reports whether a response was already submitted.
func (s *PostgresStore) IsSubmitted(userID, domainID, questionID string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM submissions WHERE user_id = $1 AND domain_id = $2 AND question_id = $3`,
		userID, domainID, questionID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		slog.Error("PostgresStore IsSubmitted failed", "error", err, "userID", userID, "questionID", questionID)
		return false, fmt.Errorf("failed to query submission: %w", err)
	}
	return true, nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	return s.db.Close()
}
