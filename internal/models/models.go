// Package models defines the core data structures for the check-in engine.
//
// It includes types for the questionnaire catalog, conversation state, intent
// classification, and empathy responses, which are shared across modules.
package models

import (
	"errors"
	"time"
)

// Stage identifies where the conversation currently is in its lifecycle.
type Stage string

const (
	// StageIntro indicates the introductory sequence is in progress.
	StageIntro Stage = "intro"
	// StageQuestion indicates a catalog question has been asked.
	StageQuestion Stage = "question"
	// StageEmpatheticResponse indicates a supportive message was just sent.
	StageEmpatheticResponse Stage = "empathetic_response"
	// StageFollowUp indicates the flow is inside a routed follow-up question.
	StageFollowUp Stage = "follow_up"
	// StageDomainTransition indicates the flow is awaiting a continue/pause decision.
	StageDomainTransition Stage = "domain_transition"
	// StagePaused indicates the conversation is paused.
	StagePaused Stage = "paused"
	// StageCompleted indicates the questionnaire has finished.
	StageCompleted Stage = "completed"
)

// EmotionalState tracks the user's inferred emotional state across the session.
type EmotionalState string

const (
	EmotionalStateNeutral    EmotionalState = "neutral"
	EmotionalStateDistressed EmotionalState = "distressed"
	EmotionalStateConcerned  EmotionalState = "concerned"
	EmotionalStatePositive   EmotionalState = "positive"
	EmotionalStateConfused   EmotionalState = "confused"
)

// Intent is the broad category of a classified user reply.
type Intent string

const (
	IntentYes      Intent = "yes"
	IntentNo       Intent = "no"
	IntentQuestion Intent = "question"
	IntentPause    Intent = "pause"
	IntentResume   Intent = "resume"
	IntentUnclear  Intent = "unclear"
)

// IsValidIntent checks if the given intent category is supported.
func IsValidIntent(i Intent) bool {
	switch i {
	case IntentYes, IntentNo, IntentQuestion, IntentPause, IntentResume, IntentUnclear:
		return true
	default:
		return false
	}
}

// EmotionalContent categorizes the emotional signal carried by a reply.
type EmotionalContent string

const (
	EmotionalContentNone     EmotionalContent = "none"
	EmotionalContentDistress EmotionalContent = "distress"
	EmotionalContentTrauma   EmotionalContent = "trauma"
	EmotionalContentAnxiety  EmotionalContent = "anxiety"
	EmotionalContentConcern  EmotionalContent = "concern"
	EmotionalContentPositive EmotionalContent = "positive"
)

// IsValidEmotionalContent checks if the given emotional content category is supported.
func IsValidEmotionalContent(e EmotionalContent) bool {
	switch e {
	case EmotionalContentNone, EmotionalContentDistress, EmotionalContentTrauma,
		EmotionalContentAnxiety, EmotionalContentConcern, EmotionalContentPositive:
		return true
	default:
		return false
	}
}

// WildcardOption is the routing-table key consulted when no specific answer
// option matches.
const WildcardOption = "*"

// Error variables for better error handling and testability
var (
	ErrEmptyUserID           = errors.New("user id cannot be empty")
	ErrEmptyDomainID         = errors.New("domain id cannot be empty")
	ErrEmptyQuestionID       = errors.New("question id cannot be empty")
	ErrEmptyPrompt           = errors.New("question prompt cannot be empty")
	ErrDuplicateQuestionID   = errors.New("duplicate question id within domain")
	ErrUnknownFollowUpTarget = errors.New("follow-up target does not resolve within its domain")
	ErrUnknownTargetDomain   = errors.New("domain transition references unknown domain")
	ErrEmptyFollowUpTarget   = errors.New("follow-up target must name a question or a domain")
	ErrAlreadyCompleted      = errors.New("questionnaire already completed")
)

// FollowUpTarget is a strictly typed routing destination: either another
// question within the same domain, or a transition into a different domain.
// Exactly one of the two fields is set.
type FollowUpTarget struct {
	QuestionID string `json:"question_id,omitempty"`
	DomainID   string `json:"domain_id,omitempty"`
}

// IsDomainTransition reports whether the target moves the flow to another domain.
func (t FollowUpTarget) IsDomainTransition() bool {
	return t.DomainID != ""
}

// Validate checks that the target names a destination.
func (t FollowUpTarget) Validate() error {
	if t.QuestionID == "" && t.DomainID == "" {
		return ErrEmptyFollowUpTarget
	}
	return nil
}

// Question is a single questionnaire prompt. Options and the follow-up
// routing table are optional; Flag is a triage tag copied onto responses.
type Question struct {
	ID       string                    `json:"id"`
	Prompt   string                    `json:"prompt"`
	Options  []string                  `json:"options,omitempty"`
	Flag     string                    `json:"flag,omitempty"`
	FollowUp map[string]FollowUpTarget `json:"follow_up,omitempty"`
}

// Validate performs structural validation on a Question.
func (q *Question) Validate() error {
	if q.ID == "" {
		return ErrEmptyQuestionID
	}
	if q.Prompt == "" {
		return ErrEmptyPrompt
	}
	for _, target := range q.FollowUp {
		if err := target.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Domain is a thematic section of the questionnaire with an ordered list of
// questions. Immutable after catalog load.
type Domain struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// Validate performs structural validation on a Domain and its questions.
func (d *Domain) Validate() error {
	if d.ID == "" {
		return ErrEmptyDomainID
	}
	seen := make(map[string]bool, len(d.Questions))
	for i := range d.Questions {
		q := &d.Questions[i]
		if err := q.Validate(); err != nil {
			return err
		}
		if seen[q.ID] {
			return ErrDuplicateQuestionID
		}
		seen[q.ID] = true
	}
	return nil
}

// QuestionnaireResponse is one recorded answer. Immutable after creation;
// appended to the context's ordered response log and never mutated.
type QuestionnaireResponse struct {
	QuestionID string    `json:"question_id"`
	DomainID   string    `json:"domain_id"`
	Response   string    `json:"response"`
	Flag       string    `json:"flag,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// LastQuestion is the snapshot of the most recently asked question, kept so
// resume can re-display the exact same wording.
type LastQuestion struct {
	DomainID   string `json:"domain_id"`
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
}

// SensitiveDisclosure records a reply that indicated a distress-worthy topic,
// retained for downstream review and resourcing.
type SensitiveDisclosure struct {
	Topic      string    `json:"topic"`
	QuestionID string    `json:"question_id"`
	DomainID   string    `json:"domain_id"`
	Response   string    `json:"response"`
	Timestamp  time.Time `json:"timestamp"`
}

// ConversationContext is the persisted state of an in-progress conversation.
// It is mutated only through the conversation package's reducer and saved
// after every change.
type ConversationContext struct {
	IsActive             bool                    `json:"is_active"`
	IsPaused             bool                    `json:"is_paused"`
	IsCompleted          bool                    `json:"is_completed"`
	CurrentDomainIndex   int                     `json:"current_domain_index"`
	CurrentQuestionIndex int                     `json:"current_question_index"`
	Stage                Stage                   `json:"stage"`
	EmotionalState       EmotionalState          `json:"emotional_state"`
	LastQuestion         *LastQuestion           `json:"last_question,omitempty"`
	SensitiveDisclosures []SensitiveDisclosure   `json:"sensitive_disclosures,omitempty"`
	Responses            []QuestionnaireResponse `json:"responses,omitempty"`
}

// NewConversationContext returns the default inactive context shape.
func NewConversationContext() ConversationContext {
	return ConversationContext{
		Stage:          StageIntro,
		EmotionalState: EmotionalStateNeutral,
	}
}

// IntentClassification is the structured interpretation of a free-text reply
// relative to the question just asked. Produced fresh per utterance; not
// persisted except inside the bounded classification cache.
type IntentClassification struct {
	Intent           Intent           `json:"intent"`
	Confidence       float64          `json:"confidence"`
	EmotionalContent EmotionalContent `json:"emotional_content"`
	NeedsEmpathy     bool             `json:"needs_empathy"`
	IsPauseRequest   bool             `json:"is_pause_request"`
	IsResumeRequest  bool             `json:"is_resume_request"`
	SelectedOption   string           `json:"selected_option,omitempty"`
}

// QuestionContext carries the minimal question context a classifier needs.
type QuestionContext struct {
	QuestionText string   `json:"question_text"`
	Options      []string `json:"options,omitempty"`
	DomainID     string   `json:"domain_id"`
	QuestionID   string   `json:"question_id"`
}

// CacheEntry is a memoized classification plus its creation time.
type CacheEntry struct {
	Classification IntentClassification `json:"classification"`
	CreatedAt      time.Time            `json:"created_at"`
}

// Expired reports whether the entry is older than the given window at now.
func (e CacheEntry) Expired(now time.Time, window time.Duration) bool {
	return now.Sub(e.CreatedAt) > window
}

// EmpathyTrigger is a classified category of emotional distress context.
type EmpathyTrigger string

const (
	TriggerSafetyConcern     EmpathyTrigger = "safety_concern"
	TriggerPhysicalHarm      EmpathyTrigger = "physical_harm"
	TriggerFinancialDistress EmpathyTrigger = "financial_distress"
	TriggerHousingInsecurity EmpathyTrigger = "housing_insecurity"
	TriggerFoodInsecurity    EmpathyTrigger = "food_insecurity"
	TriggerGeneralDistress   EmpathyTrigger = "general_distress"
)

// EmpathyResponse is the supportive message the engine interjects, with an
// optional follow-up resource offer.
type EmpathyResponse struct {
	ResponseText     string `json:"response_text"`
	FollowUpQuestion string `json:"follow_up_question,omitempty"`
	ResourcesOffered bool   `json:"resources_offered"`
}
