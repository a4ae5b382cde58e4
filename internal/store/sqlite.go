// Package store provides storage backends for the check-in engine.
//
// This file implements an SQLite-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/bloomcare/checkin/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given options.
// The DSN should be a file path to the SQLite database file; the containing
// directory is created if missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// GetConversationContext retrieves the saved context for a user, or nil.
func (s *SQLiteStore) GetConversationContext(userID string) (*models.ConversationContext, error) {
	var contextJSON string
	err := s.db.QueryRow(`SELECT context FROM conversation_contexts WHERE user_id = ?`, userID).Scan(&contextJSON)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetConversationContext not found", "userID", userID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetConversationContext failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query conversation context: %w", err)
	}

	var c models.ConversationContext
	if err := json.Unmarshal([]byte(contextJSON), &c); err != nil {
		slog.Error("SQLiteStore GetConversationContext unmarshal failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to parse conversation context: %w", err)
	}
	slog.Debug("SQLiteStore GetConversationContext found", "userID", userID, "stage", c.Stage)
	return &c, nil
}

// SaveConversationContext stores or replaces the context for a user.
func (s *SQLiteStore) SaveConversationContext(userID string, c models.ConversationContext) error {
	contextJSON, err := json.Marshal(c)
	if err != nil {
		slog.Error("SQLiteStore SaveConversationContext marshal failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to marshal conversation context: %w", err)
	}
	now := time.Now()
	_, err = s.db.Exec(`
		INSERT INTO conversation_contexts (user_id, context, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET context = excluded.context, updated_at = excluded.updated_at`,
		userID, string(contextJSON), now, now)
	if err != nil {
		slog.Error("SQLiteStore SaveConversationContext failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to save conversation context: %w", err)
	}
	slog.Debug("SQLiteStore SaveConversationContext succeeded", "userID", userID, "stage", c.Stage)
	return nil
}

// DeleteConversationContext removes the saved context for a user.
func (s *SQLiteStore) DeleteConversationContext(userID string) error {
	_, err := s.db.Exec(`DELETE FROM conversation_contexts WHERE user_id = ?`, userID)
	if err != nil {
		slog.Error("SQLiteStore DeleteConversationContext failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to delete conversation context: %w", err)
	}
	slog.Debug("SQLiteStore DeleteConversationContext succeeded", "userID", userID)
	return nil
}

// GetSetting retrieves a per-user setting value, or "" if unset.
func (s *SQLiteStore) GetSetting(userID, key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM user_settings WHERE user_id = ? AND key = ?`, userID, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSetting failed", "error", err, "userID", userID, "key", key)
		return "", fmt.Errorf("failed to query setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a per-user setting value.
func (s *SQLiteStore) SetSetting(userID, key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO user_settings (user_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		userID, key, value, time.Now())
	if err != nil {
		slog.Error("SQLiteStore SetSetting failed", "error", err, "userID", userID, "key", key)
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	slog.Debug("SQLiteStore SetSetting succeeded", "userID", userID, "key", key)
	return nil
}

// MarkSubmitted records that a response reached the backend.
func (s *SQLiteStore) MarkSubmitted(userID, domainID, questionID string) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO submissions (user_id, domain_id, question_id, submitted_at)
		VALUES (?, ?, ?, ?)`,
		userID, domainID, questionID, time.Now())
	if err != nil {
		slog.Error("SQLiteStore MarkSubmitted failed", "error", err, "userID", userID, "questionID", questionID)
		return fmt.Errorf("failed to record submission: %w", err)
	}
	slog.Debug("SQLiteStore MarkSubmitted succeeded", "userID", userID, "questionID", questionID)
	return nil
}

// IsSubmitted reports whether a response was already submitted.
func (s *SQLiteStore) IsSubmitted(userID, domainID, questionID string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM submissions WHERE user_id = ? AND domain_id = ? AND question_id = ?`,
		userID, domainID, questionID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		slog.Error("SQLiteStore IsSubmitted failed", "error", err, "userID", userID, "questionID", questionID)
		return false, fmt.Errorf("failed to query submission: %w", err)
	}
	return true, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}
