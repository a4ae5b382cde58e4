package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bloomcare/checkin/internal/models"
	"github.com/bloomcare/checkin/internal/store"
)

// DefaultCacheWindow is how long a memoized classification stays valid.
const DefaultCacheWindow = 48 * time.Hour

// Cache memoizes classifier output per (utterance, context) key for a
// bounded window, persisted across process restarts through the store.
//
// The cache is a flat map from key to entry with no eviction beyond
// time-based staleness: stale entries are ignored on read, not purged.
// Persistence failures are logged and non-fatal; read failures behave as an
// empty cache.
type Cache struct {
	store  store.Store
	userID string
	window time.Duration
	now    func() time.Time

	entries map[string]models.CacheEntry
	loaded  bool
}

// NewCache creates a classification cache for a user backed by the store.
func NewCache(st store.Store, userID string) *Cache {
	return &Cache{
		store:  st,
		userID: userID,
		window: DefaultCacheWindow,
		now:    time.Now,
	}
}

// GetOrCompute returns the cached classification for key if it is younger
// than the expiry window; otherwise it invokes compute, stores the result
// with the current timestamp, persists the full cache map, and returns it.
func (c *Cache) GetOrCompute(key string, compute func() models.IntentClassification) models.IntentClassification {
	c.load()

	if entry, ok := c.entries[key]; ok && !entry.Expired(c.now(), c.window) {
		slog.Debug("Cache.GetOrCompute: hit", "userID", c.userID, "age", c.now().Sub(entry.CreatedAt))
		return entry.Classification
	}

	classification := compute()
	c.entries[key] = models.CacheEntry{
		Classification: classification,
		CreatedAt:      c.now(),
	}
	c.persist()
	return classification
}

func (c *Cache) load() {
	if c.loaded {
		return
	}
	c.loaded = true
	c.entries = make(map[string]models.CacheEntry)

	raw, err := c.store.GetSetting(c.userID, store.SettingClassificationCache)
	if err != nil {
		slog.Warn("Cache.load: read failed, starting with empty cache", "error", err, "userID", c.userID)
		return
	}
	if raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), &c.entries); err != nil {
		slog.Warn("Cache.load: parse failed, starting with empty cache", "error", err, "userID", c.userID)
		c.entries = make(map[string]models.CacheEntry)
	}
}

func (c *Cache) persist() {
	data, err := json.Marshal(c.entries)
	if err != nil {
		slog.Error("Cache.persist: marshal failed", "error", err, "userID", c.userID)
		return
	}
	if err := c.store.SetSetting(c.userID, store.SettingClassificationCache, string(data)); err != nil {
		slog.Warn("Cache.persist: write failed, in-memory cache remains authoritative",
			"error", err, "userID", c.userID)
	}
}

// CachedClassifier wraps a classification strategy with the persisted cache.
type CachedClassifier struct {
	inner Classifier
	cache *Cache
}

// NewCachedClassifier wraps inner with a per-user classification cache.
func NewCachedClassifier(inner Classifier, st store.Store, userID string) *CachedClassifier {
	return &CachedClassifier{
		inner: inner,
		cache: NewCache(st, userID),
	}
}

// Classify returns the memoized classification when fresh, computing and
// caching it otherwise.
func (c *CachedClassifier) Classify(ctx context.Context, utterance string, qctx models.QuestionContext) models.IntentClassification {
	key := cacheKey(utterance, qctx)
	return c.cache.GetOrCompute(key, func() models.IntentClassification {
		return c.inner.Classify(ctx, utterance, qctx)
	})
}

// cacheKey combines the utterance with minimal question context.
func cacheKey(utterance string, qctx models.QuestionContext) string {
	return fmt.Sprintf("%s|%s|%s", strings.ToLower(strings.TrimSpace(utterance)), qctx.DomainID, qctx.QuestionID)
}
