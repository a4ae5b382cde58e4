package store

import (
	"testing"

	"github.com/bloomcare/checkin/internal/models"
)

func TestInMemoryConversationContextRoundTrip(t *testing.T) {
	st := NewInMemoryStore()

	got, err := st.GetConversationContext("u1")
	if err != nil {
		t.Fatalf("GetConversationContext() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetConversationContext() = %+v for absent user, want nil", got)
	}

	c := models.NewConversationContext()
	c.IsActive = true
	c.CurrentDomainIndex = 2
	c.Responses = []models.QuestionnaireResponse{{QuestionID: "q1", Response: "yes"}}
	if err := st.SaveConversationContext("u1", c); err != nil {
		t.Fatalf("SaveConversationContext() error = %v", err)
	}

	got, err = st.GetConversationContext("u1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || !got.IsActive || got.CurrentDomainIndex != 2 || len(got.Responses) != 1 {
		t.Errorf("GetConversationContext() = %+v, want saved state", got)
	}

	if err := st.DeleteConversationContext("u1"); err != nil {
		t.Fatal(err)
	}
	got, err = st.GetConversationContext("u1")
	if err != nil || got != nil {
		t.Errorf("after delete: (%+v, %v), want (nil, nil)", got, err)
	}
}

func TestInMemoryContextIsolatedPerUser(t *testing.T) {
	st := NewInMemoryStore()
	c := models.NewConversationContext()
	c.CurrentDomainIndex = 1
	if err := st.SaveConversationContext("u1", c); err != nil {
		t.Fatal(err)
	}

	got, err := st.GetConversationContext("u2")
	if err != nil || got != nil {
		t.Errorf("GetConversationContext(u2) = (%+v, %v), want (nil, nil)", got, err)
	}
}

func TestInMemorySettings(t *testing.T) {
	st := NewInMemoryStore()

	v, err := st.GetSetting("u1", SettingIntroShown)
	if err != nil || v != "" {
		t.Errorf("GetSetting(unset) = (%q, %v), want empty", v, err)
	}

	if err := st.SetSetting("u1", SettingIntroShown, "true"); err != nil {
		t.Fatal(err)
	}
	v, err = st.GetSetting("u1", SettingIntroShown)
	if err != nil || v != "true" {
		t.Errorf("GetSetting() = (%q, %v), want true", v, err)
	}

	// Settings are keyed per user.
	v, err = st.GetSetting("u2", SettingIntroShown)
	if err != nil || v != "" {
		t.Errorf("GetSetting(other user) = (%q, %v), want empty", v, err)
	}
}

func TestInMemorySubmissionLedger(t *testing.T) {
	st := NewInMemoryStore()

	done, err := st.IsSubmitted("u1", "d1", "q1")
	if err != nil || done {
		t.Errorf("IsSubmitted(fresh) = (%v, %v), want false", done, err)
	}

	if err := st.MarkSubmitted("u1", "d1", "q1"); err != nil {
		t.Fatal(err)
	}
	done, err = st.IsSubmitted("u1", "d1", "q1")
	if err != nil || !done {
		t.Errorf("IsSubmitted(marked) = (%v, %v), want true", done, err)
	}

	// Marking twice stays idempotent.
	if err := st.MarkSubmitted("u1", "d1", "q1"); err != nil {
		t.Errorf("MarkSubmitted(again) error = %v", err)
	}

	done, err = st.IsSubmitted("u1", "d1", "q2")
	if err != nil || done {
		t.Errorf("IsSubmitted(other question) = (%v, %v), want false", done, err)
	}
}

func TestInMemorySavedContextIsACopy(t *testing.T) {
	st := NewInMemoryStore()
	c := models.NewConversationContext()
	c.Responses = []models.QuestionnaireResponse{{QuestionID: "q1", Response: "yes"}}
	if err := st.SaveConversationContext("u1", c); err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's copy after save must not affect the stored one.
	c.Responses[0].Response = "changed"

	got, err := st.GetConversationContext("u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Responses[0].Response != "yes" {
		t.Error("stored context shares memory with the caller's copy")
	}
}
