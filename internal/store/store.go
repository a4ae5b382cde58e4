// Package store provides storage backends for the check-in engine.
//
// It persists per-user conversation contexts, a small per-user settings
// key-value space (intro-shown flag, completion flag, classification cache
// blob), and the submission idempotency ledger. An in-memory store backs
// tests; SQLite and PostgreSQL back deployments.
package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bloomcare/checkin/internal/models"
)

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option configures store backends.
type Option func(*Opts)

// WithDSN sets the database connection string (file path for SQLite).
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// Store defines the persistence operations the engine depends on.
//
// Reads return the zero value (nil context, empty string, false) with a nil
// error when nothing is stored; callers treat that as "no saved state".
type Store interface {
	// GetConversationContext retrieves the saved context for a user, or nil.
	GetConversationContext(userID string) (*models.ConversationContext, error)

	// SaveConversationContext stores or replaces the context for a user.
	SaveConversationContext(userID string, c models.ConversationContext) error

	// DeleteConversationContext removes the saved context for a user.
	DeleteConversationContext(userID string) error

	// GetSetting retrieves a per-user setting value, or "" if unset.
	GetSetting(userID, key string) (string, error)

	// SetSetting stores a per-user setting value.
	SetSetting(userID, key, value string) error

	// MarkSubmitted records that a response reached the backend.
	MarkSubmitted(userID, domainID, questionID string) error

	// IsSubmitted reports whether a response was already submitted.
	IsSubmitted(userID, domainID, questionID string) (bool, error)

	// Close releases any underlying resources.
	Close() error
}

// Well-known setting keys.
const (
	SettingIntroShown          = "intro_shown"
	SettingCompleted           = "questionnaire_completed"
	SettingClassificationCache = "classification_cache"
)

// InMemoryStore is a simple in-memory store used in tests and development.
// Contexts are stored serialized, matching the SQL backends, so callers
// always get an independent copy.
type InMemoryStore struct {
	mu          sync.RWMutex
	contexts    map[string][]byte
	settings    map[string]string
	submissions map[string]time.Time
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		contexts:    make(map[string][]byte),
		settings:    make(map[string]string),
		submissions: make(map[string]time.Time),
	}
}

func settingKey(userID, key string) string { return userID + "\x00" + key }

func submissionKey(userID, domainID, questionID string) string {
	return userID + "\x00" + domainID + "\x00" + questionID
}

func (s *InMemoryStore) GetConversationContext(userID string) (*models.ConversationContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.contexts[userID]
	if !ok {
		return nil, nil
	}
	var c models.ConversationContext
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode conversation context: %w", err)
	}
	return &c, nil
}

func (s *InMemoryStore) SaveConversationContext(userID string, c models.ConversationContext) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode conversation context: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts[userID] = data
	return nil
}

func (s *InMemoryStore) DeleteConversationContext(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contexts, userID)
	return nil
}

func (s *InMemoryStore) GetSetting(userID, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings[settingKey(userID, key)], nil
}

func (s *InMemoryStore) SetSetting(userID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settingKey(userID, key)] = value
	return nil
}

func (s *InMemoryStore) MarkSubmitted(userID, domainID, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions[submissionKey(userID, domainID, questionID)] = time.Now()
	return nil
}

func (s *InMemoryStore) IsSubmitted(userID, domainID, questionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.submissions[submissionKey(userID, domainID, questionID)]
	return ok, nil
}

func (s *InMemoryStore) Close() error { return nil }
