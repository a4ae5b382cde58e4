package classifier

import (
	"context"
	"testing"
	"time"

	"github.com/bloomcare/checkin/internal/models"
	"github.com/bloomcare/checkin/internal/store"
)

func TestCacheHitWithinWindow(t *testing.T) {
	st := store.NewInMemoryStore()
	c := NewCache(st, "u1")

	computes := 0
	compute := func() models.IntentClassification {
		computes++
		return models.IntentClassification{Intent: models.IntentYes, Confidence: 0.9}
	}

	first := c.GetOrCompute("k1", compute)
	second := c.GetOrCompute("k1", compute)

	if computes != 1 {
		t.Errorf("compute invoked %d times, want 1", computes)
	}
	if first.Intent != second.Intent {
		t.Errorf("cached classification differs: %q vs %q", first.Intent, second.Intent)
	}
}

func TestCacheExpiryIgnoresStaleEntries(t *testing.T) {
	st := store.NewInMemoryStore()
	c := NewCache(st, "u1")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	computes := 0
	compute := func() models.IntentClassification {
		computes++
		return models.IntentClassification{Intent: models.IntentYes}
	}

	c.GetOrCompute("k1", compute)

	// Just inside the window: still a hit.
	c.now = func() time.Time { return base.Add(DefaultCacheWindow - time.Minute) }
	c.GetOrCompute("k1", compute)
	if computes != 1 {
		t.Fatalf("compute invoked %d times inside window, want 1", computes)
	}

	// Past the window: recomputed.
	c.now = func() time.Time { return base.Add(DefaultCacheWindow + time.Minute) }
	c.GetOrCompute("k1", compute)
	if computes != 2 {
		t.Errorf("compute invoked %d times past window, want 2", computes)
	}
}

func TestCachePersistsAcrossInstances(t *testing.T) {
	st := store.NewInMemoryStore()

	computes := 0
	compute := func() models.IntentClassification {
		computes++
		return models.IntentClassification{Intent: models.IntentNo}
	}

	NewCache(st, "u1").GetOrCompute("k1", compute)

	// A fresh cache over the same store must load the persisted entry.
	got := NewCache(st, "u1").GetOrCompute("k1", compute)
	if computes != 1 {
		t.Errorf("compute invoked %d times across instances, want 1", computes)
	}
	if got.Intent != models.IntentNo {
		t.Errorf("Intent = %q, want no", got.Intent)
	}
}

func TestCacheCorruptPersistedStateStartsEmpty(t *testing.T) {
	st := store.NewInMemoryStore()
	if err := st.SetSetting("u1", store.SettingClassificationCache, "{not json"); err != nil {
		t.Fatal(err)
	}

	computes := 0
	got := NewCache(st, "u1").GetOrCompute("k1", func() models.IntentClassification {
		computes++
		return models.IntentClassification{Intent: models.IntentYes}
	})
	if computes != 1 {
		t.Errorf("compute invoked %d times, want 1", computes)
	}
	if got.Intent != models.IntentYes {
		t.Errorf("Intent = %q, want yes", got.Intent)
	}
}

func TestCacheKeyIncludesQuestionContext(t *testing.T) {
	q1 := models.QuestionContext{DomainID: "d1", QuestionID: "q1"}
	q2 := models.QuestionContext{DomainID: "d1", QuestionID: "q2"}

	if cacheKey("Yes", q1) == cacheKey("Yes", q2) {
		t.Error("cacheKey ignores question id; identical utterances to different questions must not collide")
	}
	if cacheKey("  YES ", q1) != cacheKey("yes", q1) {
		t.Error("cacheKey must normalize case and whitespace")
	}
}

func TestCachedClassifierDelegatesOnMiss(t *testing.T) {
	st := store.NewInMemoryStore()
	cc := NewCachedClassifier(NewRegexClassifier(), st, "u1")

	qctx := models.QuestionContext{QuestionID: "q1", Options: []string{"Yes", "No"}}
	got := cc.Classify(context.Background(), "yes", qctx)
	if got.Intent != models.IntentYes {
		t.Errorf("Intent = %q, want yes", got.Intent)
	}

	// Second call must come from the cache and agree.
	again := cc.Classify(context.Background(), "yes", qctx)
	if again.Intent != got.Intent || again.SelectedOption != got.SelectedOption {
		t.Error("cached classification differs from original")
	}
}
