// Package conversation implements the conversational questionnaire state
// machine: the pure context reducer, the session timer, and the orchestrator
// that drives the dialogue.
package conversation

import (
	"log/slog"

	"github.com/bloomcare/checkin/internal/models"
	"github.com/bloomcare/checkin/internal/store"
)

// ActionType identifies a context reducer action.
type ActionType string

const (
	ActionSetActive               ActionType = "SET_ACTIVE"
	ActionSetPaused               ActionType = "SET_PAUSED"
	ActionSetCompleted            ActionType = "SET_COMPLETED"
	ActionSetPosition             ActionType = "SET_POSITION"
	ActionSetStage                ActionType = "SET_STAGE"
	ActionSetEmotionalState       ActionType = "SET_EMOTIONAL_STATE"
	ActionAddSensitiveDisclosure  ActionType = "ADD_SENSITIVE_DISCLOSURE"
	ActionAddResponse             ActionType = "ADD_RESPONSE"
	ActionSetLastQuestion         ActionType = "SET_LAST_QUESTION"
	ActionReset                   ActionType = "RESET"
)

// Action is one reducer input. Pointer fields are ignored when nil, so
// SET_POSITION can update either or both index fields.
type Action struct {
	Type           ActionType
	DomainIndex    *int
	QuestionIndex  *int
	Stage          models.Stage
	EmotionalState models.EmotionalState
	Disclosure     *models.SensitiveDisclosure
	Response       *models.QuestionnaireResponse
	LastQuestion   *models.LastQuestion
	Snapshot       *models.ConversationContext // optional merge source for RESET
}

// Apply is the pure context reducer: it returns the next state and never
// mutates the input or performs side effects. Persistence is the caller's
// responsibility after dispatch.
func Apply(state models.ConversationContext, a Action) models.ConversationContext {
	next := state

	switch a.Type {
	case ActionSetActive:
		next.IsActive = true
		next.IsPaused = false
		if a.Stage != "" {
			next.Stage = a.Stage
		}
		if a.DomainIndex != nil {
			next.CurrentDomainIndex = *a.DomainIndex
		}
		if a.QuestionIndex != nil {
			next.CurrentQuestionIndex = *a.QuestionIndex
		}

	case ActionSetPaused:
		next.IsPaused = true
		next.IsActive = false
		next.Stage = models.StagePaused

	case ActionSetCompleted:
		next.IsCompleted = true
		next.IsActive = false
		next.IsPaused = false
		next.Stage = models.StageCompleted

	case ActionSetPosition:
		if a.DomainIndex != nil {
			next.CurrentDomainIndex = *a.DomainIndex
		}
		if a.QuestionIndex != nil {
			next.CurrentQuestionIndex = *a.QuestionIndex
		}

	case ActionSetStage:
		next.Stage = a.Stage

	case ActionSetEmotionalState:
		next.EmotionalState = a.EmotionalState

	case ActionAddSensitiveDisclosure:
		if a.Disclosure != nil {
			disclosures := make([]models.SensitiveDisclosure, len(state.SensitiveDisclosures), len(state.SensitiveDisclosures)+1)
			copy(disclosures, state.SensitiveDisclosures)
			next.SensitiveDisclosures = append(disclosures, *a.Disclosure)
		}

	case ActionAddResponse:
		if a.Response != nil {
			responses := make([]models.QuestionnaireResponse, len(state.Responses), len(state.Responses)+1)
			copy(responses, state.Responses)
			next.Responses = append(responses, *a.Response)
		}

	case ActionSetLastQuestion:
		next.LastQuestion = a.LastQuestion

	case ActionReset:
		next = models.NewConversationContext()
		if a.Snapshot != nil {
			snap := *a.Snapshot
			if snap.Stage != "" {
				next.Stage = snap.Stage
			}
			if snap.EmotionalState != "" {
				next.EmotionalState = snap.EmotionalState
			}
			next.CurrentDomainIndex = snap.CurrentDomainIndex
			next.CurrentQuestionIndex = snap.CurrentQuestionIndex
		}

	default:
		slog.Warn("conversation.Apply: unknown action type", "type", a.Type)
	}

	return next
}

// LoadContext retrieves the persisted context for a user. A read failure is
// treated as "no saved state": the error is logged and nil is returned so the
// session safely starts fresh.
func LoadContext(st store.Store, userID string) *models.ConversationContext {
	c, err := st.GetConversationContext(userID)
	if err != nil {
		slog.Warn("conversation.LoadContext: read failed, treating as no saved state",
			"error", err, "userID", userID)
		return nil
	}
	return c
}

// SaveContext persists the context. A write failure is logged and swallowed:
// in-memory state stays authoritative for the rest of the session.
func SaveContext(st store.Store, userID string, c models.ConversationContext) {
	if err := st.SaveConversationContext(userID, c); err != nil {
		slog.Warn("conversation.SaveContext: write failed, in-memory state remains authoritative",
			"error", err, "userID", userID)
	}
}

func intPtr(v int) *int { return &v }
