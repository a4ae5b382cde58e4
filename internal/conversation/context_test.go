package conversation

import (
	"testing"
	"time"

	"github.com/bloomcare/checkin/internal/models"
)

func TestApplySetActive(t *testing.T) {
	state := models.NewConversationContext()
	state.IsPaused = true

	next := Apply(state, Action{Type: ActionSetActive, Stage: models.StageQuestion})
	if !next.IsActive || next.IsPaused {
		t.Errorf("SET_ACTIVE: IsActive=%v IsPaused=%v, want true/false", next.IsActive, next.IsPaused)
	}
	if next.Stage != models.StageQuestion {
		t.Errorf("SET_ACTIVE stage = %q, want question", next.Stage)
	}
}

func TestApplySetPaused(t *testing.T) {
	state := models.NewConversationContext()
	state.IsActive = true

	next := Apply(state, Action{Type: ActionSetPaused})
	if next.IsActive || !next.IsPaused {
		t.Errorf("SET_PAUSED: IsActive=%v IsPaused=%v, want false/true", next.IsActive, next.IsPaused)
	}
	if next.Stage != models.StagePaused {
		t.Errorf("SET_PAUSED stage = %q, want paused", next.Stage)
	}
}

func TestApplySetCompleted(t *testing.T) {
	state := models.NewConversationContext()
	state.IsActive = true

	next := Apply(state, Action{Type: ActionSetCompleted})
	if !next.IsCompleted || next.IsActive || next.IsPaused {
		t.Errorf("SET_COMPLETED: got %+v", next)
	}
	if next.Stage != models.StageCompleted {
		t.Errorf("SET_COMPLETED stage = %q, want completed", next.Stage)
	}
}

func TestApplySetPositionPartialUpdate(t *testing.T) {
	state := models.NewConversationContext()
	state.CurrentDomainIndex = 1
	state.CurrentQuestionIndex = 2

	next := Apply(state, Action{Type: ActionSetPosition, QuestionIndex: intPtr(3)})
	if next.CurrentDomainIndex != 1 {
		t.Errorf("domain index changed to %d, want 1", next.CurrentDomainIndex)
	}
	if next.CurrentQuestionIndex != 3 {
		t.Errorf("question index = %d, want 3", next.CurrentQuestionIndex)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	state := models.NewConversationContext()
	state.Responses = []models.QuestionnaireResponse{
		{QuestionID: "q1", DomainID: "d1", Response: "yes"},
	}

	next := Apply(state, Action{
		Type:     ActionAddResponse,
		Response: &models.QuestionnaireResponse{QuestionID: "q2", DomainID: "d1", Response: "no"},
	})

	if len(state.Responses) != 1 {
		t.Errorf("input state mutated: %d responses, want 1", len(state.Responses))
	}
	if len(next.Responses) != 2 {
		t.Errorf("next state has %d responses, want 2", len(next.Responses))
	}

	// Appending to next must not leak into the original backing array.
	next.Responses[0].Response = "changed"
	if state.Responses[0].Response != "yes" {
		t.Error("next state shares backing array with input")
	}
}

func TestApplyAddSensitiveDisclosure(t *testing.T) {
	state := models.NewConversationContext()
	next := Apply(state, Action{
		Type: ActionAddSensitiveDisclosure,
		Disclosure: &models.SensitiveDisclosure{
			Topic:      "physical_harm",
			QuestionID: "safety_support",
			DomainID:   "safety",
			Response:   "he hit me",
			Timestamp:  time.Now(),
		},
	})
	if len(next.SensitiveDisclosures) != 1 {
		t.Fatalf("disclosures = %d, want 1", len(next.SensitiveDisclosures))
	}
	if next.SensitiveDisclosures[0].Topic != "physical_harm" {
		t.Errorf("topic = %q, want physical_harm", next.SensitiveDisclosures[0].Topic)
	}
}

func TestApplySetLastQuestion(t *testing.T) {
	state := models.NewConversationContext()
	lq := &models.LastQuestion{DomainID: "d1", QuestionID: "q1", Text: "How are you?"}
	next := Apply(state, Action{Type: ActionSetLastQuestion, LastQuestion: lq})
	if next.LastQuestion == nil || next.LastQuestion.Text != "How are you?" {
		t.Errorf("LastQuestion = %+v, want text preserved", next.LastQuestion)
	}
}

func TestApplyReset(t *testing.T) {
	state := models.NewConversationContext()
	state.IsActive = true
	state.CurrentDomainIndex = 2
	state.Responses = []models.QuestionnaireResponse{{QuestionID: "q1"}}

	next := Apply(state, Action{Type: ActionReset})
	if next.IsActive || next.CurrentDomainIndex != 0 || len(next.Responses) != 0 {
		t.Errorf("RESET did not return to baseline: %+v", next)
	}
	if next.Stage != models.StageIntro || next.EmotionalState != models.EmotionalStateNeutral {
		t.Errorf("RESET stage/state = %q/%q", next.Stage, next.EmotionalState)
	}
}

func TestApplyResetWithSnapshot(t *testing.T) {
	state := models.NewConversationContext()
	state.Responses = []models.QuestionnaireResponse{{QuestionID: "q1"}}

	next := Apply(state, Action{
		Type: ActionReset,
		Snapshot: &models.ConversationContext{
			Stage:              models.StageQuestion,
			CurrentDomainIndex: 1,
		},
	})
	if next.Stage != models.StageQuestion || next.CurrentDomainIndex != 1 {
		t.Errorf("RESET snapshot not applied: %+v", next)
	}
	if len(next.Responses) != 0 {
		t.Error("RESET kept responses")
	}
}

func TestApplyUnknownActionIsNoOp(t *testing.T) {
	state := models.NewConversationContext()
	state.IsActive = true
	next := Apply(state, Action{Type: ActionType("BOGUS")})
	if next.IsActive != state.IsActive || next.Stage != state.Stage ||
		next.CurrentDomainIndex != state.CurrentDomainIndex ||
		len(next.Responses) != len(state.Responses) {
		t.Errorf("unknown action changed state: %+v", next)
	}
}
