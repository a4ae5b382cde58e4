package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bloomcare/checkin/internal/catalog"
	"github.com/bloomcare/checkin/internal/classifier"
	"github.com/bloomcare/checkin/internal/empathy"
	"github.com/bloomcare/checkin/internal/models"
	"github.com/bloomcare/checkin/internal/store"
)

// Default pacing delays between consecutive outbound messages. Tests inject
// zero so the flow runs synchronously.
const (
	DefaultIntroDelay    = 1500 * time.Millisecond
	DefaultFollowUpDelay = 2 * time.Second
)

// Callbacks are the outbound surface of the orchestrator. OnQuestionReady
// delivers every message the flow wants shown to the user, not only catalog
// questions. All callbacks are optional.
type Callbacks struct {
	OnQuestionReady func(text string)
	OnResponseSaved func(resp models.QuestionnaireResponse)
	OnComplete      func()
}

// Submitter delivers one recorded answer to the downstream collection
// endpoint.
type Submitter interface {
	SubmitResponse(ctx context.Context, userID string, resp models.QuestionnaireResponse) error
}

// Orchestrator drives one user's questionnaire session: time check, intro
// sequence, question dispatch, follow-up routing, empathy interjection,
// pause/resume and completion. It is single-session and not safe for
// concurrent use; the caller serializes utterances per user.
type Orchestrator struct {
	userID     string
	catalog    *catalog.Catalog
	classifier classifier.Classifier
	empathy    *empathy.Engine
	store      store.Store
	submitter  Submitter
	callbacks  Callbacks
	timer      *SessionTimer

	context models.ConversationContext

	// Transient per-session flags; never persisted.
	starting           bool
	askedAboutTime     bool
	userConfirmedStart bool
	introStep          int
	pendingTransition  bool
	pendingNextDomain  int
	completionNotified bool
	sentMessages       map[string]bool

	introDelay    time.Duration
	followUpDelay time.Duration

	closed    chan struct{}
	closeOnce sync.Once
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSubmitter sets the downstream response submitter.
func WithSubmitter(s Submitter) Option {
	return func(o *Orchestrator) { o.submitter = s }
}

// WithIntroDelay overrides the delay between intro messages.
func WithIntroDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.introDelay = d }
}

// WithFollowUpDelay overrides the delay before empathy follow-up offers.
func WithFollowUpDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.followUpDelay = d }
}

// NewOrchestrator creates a session orchestrator for one user.
func NewOrchestrator(userID string, cat *catalog.Catalog, cls classifier.Classifier, emp *empathy.Engine, st store.Store, cb Callbacks, opts ...Option) (*Orchestrator, error) {
	if userID == "" {
		return nil, models.ErrEmptyUserID
	}
	o := &Orchestrator{
		userID:        userID,
		catalog:       cat,
		classifier:    cls,
		empathy:       emp,
		store:         st,
		callbacks:     cb,
		timer:         NewSessionTimer(),
		context:       models.NewConversationContext(),
		sentMessages:  make(map[string]bool),
		introDelay:    DefaultIntroDelay,
		followUpDelay: DefaultFollowUpDelay,
		closed:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Start begins (or re-enters) the session. Any saved in-progress context is
// restored; a completed one starts fresh. The opening time-check question is
// always sent, and the start-gate flags are reset so a stale confirmation
// from an earlier session cannot leak through.
func (o *Orchestrator) Start(ctx context.Context) error {
	if o.starting {
		slog.Debug("Orchestrator.Start: start already in flight, ignoring", "userID", o.userID)
		return nil
	}
	o.starting = true
	defer func() { o.starting = false }()

	slog.Debug("Orchestrator.Start: starting session", "userID", o.userID)

	o.askedAboutTime = false
	o.userConfirmedStart = false
	o.pendingTransition = false
	o.completionNotified = false
	o.sentMessages = make(map[string]bool)

	introShown, err := o.store.GetSetting(o.userID, store.SettingIntroShown)
	if err != nil {
		slog.Warn("Orchestrator.Start: failed to read intro flag", "error", err, "userID", o.userID)
	}
	if introShown == "true" {
		o.introStep = len(introMessages)
	} else {
		o.introStep = 0
	}

	if saved := LoadContext(o.store, o.userID); saved != nil && !saved.IsCompleted {
		o.context = *saved
	} else {
		o.context = models.NewConversationContext()
	}

	o.dispatch(Action{Type: ActionSetActive, Stage: models.StageIntro})

	o.askedAboutTime = true
	o.send("time_check", timeCheckMessage)
	return nil
}

// HandleResponse processes one user utterance against the current flow
// position. It returns false when no session is active (utterance ignored).
func (o *Orchestrator) HandleResponse(ctx context.Context, text string) (bool, error) {
	if !o.context.IsActive || o.context.IsCompleted {
		slog.Debug("Orchestrator.HandleResponse: no active session, ignoring",
			"userID", o.userID, "completed", o.context.IsCompleted)
		return false, nil
	}

	switch {
	case o.askedAboutTime && !o.userConfirmedStart:
		o.handleTimeCheckReply(ctx, text)
	case o.pendingTransition:
		o.handleTransitionReply(ctx, text)
	default:
		o.handleQuestionResponse(ctx, text)
	}
	return true, nil
}

// Pause suspends the session, persists the context and returns a snapshot of
// the paused state.
func (o *Orchestrator) Pause(ctx context.Context) (models.ConversationContext, error) {
	slog.Debug("Orchestrator.Pause: pausing session", "userID", o.userID,
		"domainIndex", o.context.CurrentDomainIndex, "questionIndex", o.context.CurrentQuestionIndex)
	o.dispatch(Action{Type: ActionSetPaused})
	return o.context, nil
}

// Resume reactivates a paused or interrupted session from its persisted
// position. The intro sequence is never replayed; the interrupted question is
// re-displayed with its saved wording so the user sees exactly what they
// left.
func (o *Orchestrator) Resume(ctx context.Context) error {
	slog.Debug("Orchestrator.Resume: resuming session", "userID", o.userID)

	if saved := LoadContext(o.store, o.userID); saved != nil {
		o.context = *saved
	}
	if o.context.IsCompleted {
		return models.ErrAlreadyCompleted
	}

	o.sentMessages = make(map[string]bool)
	o.introStep = len(introMessages)
	o.askedAboutTime = true
	o.userConfirmedStart = true
	o.pendingTransition = false
	o.dispatch(Action{Type: ActionSetActive})

	domain := o.catalog.GetDomain(o.context.CurrentDomainIndex)
	switch {
	case domain == nil:
		o.complete(ctx)
	case o.context.Stage == models.StageDomainTransition || o.context.CurrentQuestionIndex >= len(domain.Questions):
		// The session stopped while awaiting a continue/pause decision.
		// The pending target is re-derived as the next sequential domain.
		o.promptDomainTransition(ctx, o.context.CurrentDomainIndex+1)
	case o.context.LastQuestion != nil && o.context.LastQuestion.Text != "":
		lq := o.context.LastQuestion
		o.send(lq.DomainID+"/"+lq.QuestionID, lq.Text)
	default:
		o.sendNextQuestion(ctx)
	}
	return nil
}

// Reset discards all conversation progress and restores the initial context
// shape. The intro-shown flag survives a reset; the completion flag and the
// saved position do not.
func (o *Orchestrator) Reset(ctx context.Context) error {
	slog.Debug("Orchestrator.Reset: resetting conversation", "userID", o.userID)

	o.askedAboutTime = false
	o.userConfirmedStart = false
	o.pendingTransition = false
	o.completionNotified = false
	o.sentMessages = make(map[string]bool)

	o.dispatch(Action{Type: ActionReset})
	if err := o.store.SetSetting(o.userID, store.SettingCompleted, ""); err != nil {
		slog.Warn("Orchestrator.Reset: failed to clear completion flag", "error", err, "userID", o.userID)
	}
	return nil
}

// Completed reports whether this user's questionnaire has finished, checking
// the in-memory context first and falling back to the persisted flag.
func (o *Orchestrator) Completed() bool {
	if o.context.IsCompleted {
		return true
	}
	v, err := o.store.GetSetting(o.userID, store.SettingCompleted)
	if err != nil {
		slog.Warn("Orchestrator.Completed: failed to read completion flag", "error", err, "userID", o.userID)
		return false
	}
	return v == "true"
}

// Context returns a snapshot of the current conversation context.
func (o *Orchestrator) Context() models.ConversationContext { return o.context }

// Active reports whether the session is currently active.
func (o *Orchestrator) Active() bool { return o.context.IsActive }

// Paused reports whether the session is currently paused.
func (o *Orchestrator) Paused() bool { return o.context.IsPaused }

// Close tears the session down, cancelling all pending pacing timers.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		close(o.closed)
		o.timer.Stop()
	})
}

// handleTimeCheckReply resolves the opening "do you have a few minutes"
// gate. A negative or pause reply defers the session; anything else,
// including an ambiguous reply, proceeds so the flow stays biased toward
// engaging.
func (o *Orchestrator) handleTimeCheckReply(ctx context.Context, text string) {
	qctx := models.QuestionContext{
		QuestionText: timeCheckMessage,
		Options:      []string{"Yes", "No"},
	}
	c := o.classifier.Classify(ctx, text, qctx)
	slog.Debug("Orchestrator.handleTimeCheckReply: classified",
		"userID", o.userID, "intent", c.Intent, "pause", c.IsPauseRequest)

	if c.IsPauseRequest || c.Intent == models.IntentNo {
		o.send("", pauseAckMessage)
		o.dispatch(Action{Type: ActionSetPaused})
		return
	}

	o.userConfirmedStart = true
	if o.introStep < len(introMessages) {
		o.runIntroSequence(ctx)
		return
	}
	o.sendNextQuestion(ctx)
}

// runIntroSequence sends the remaining intro messages with pacing delays and
// then dispatches the first question. Each delay re-checks that the session
// is still live before continuing.
func (o *Orchestrator) runIntroSequence(ctx context.Context) {
	o.dispatch(Action{Type: ActionSetStage, Stage: models.StageIntro})

	for o.introStep < len(introMessages) {
		msg := introMessages[o.introStep]
		o.introStep++
		o.send("", msg)
		if !o.pace(ctx, o.introDelay) {
			return
		}
		if o.context.IsPaused || !o.context.IsActive {
			return
		}
	}

	if err := o.store.SetSetting(o.userID, store.SettingIntroShown, "true"); err != nil {
		slog.Warn("Orchestrator.runIntroSequence: failed to persist intro flag", "error", err, "userID", o.userID)
	}
	o.sendNextQuestion(ctx)
}

// handleQuestionResponse processes a reply to the currently displayed
// question: pause check, emotional-state update, response recording, empathy
// interjection, then follow-up routing.
func (o *Orchestrator) handleQuestionResponse(ctx context.Context, text string) {
	domain := o.catalog.GetDomain(o.context.CurrentDomainIndex)
	if domain == nil {
		o.complete(ctx)
		return
	}

	qIndex := o.context.CurrentQuestionIndex
	if qIndex < 0 || qIndex >= len(domain.Questions) {
		// Position says end-of-domain but the transition flag was lost
		// (e.g. process restart mid-prompt). Re-issue the prompt.
		o.promptDomainTransition(ctx, o.context.CurrentDomainIndex+1)
		return
	}

	q := &domain.Questions[qIndex]
	qctx := models.QuestionContext{
		QuestionText: q.Prompt,
		Options:      q.Options,
		DomainID:     domain.ID,
		QuestionID:   q.ID,
	}
	c := o.classifier.Classify(ctx, text, qctx)
	slog.Debug("Orchestrator.handleQuestionResponse: classified",
		"userID", o.userID, "questionID", q.ID, "intent", c.Intent,
		"selectedOption", c.SelectedOption, "needsEmpathy", c.NeedsEmpathy)

	if c.IsPauseRequest {
		o.send("", pauseAckMessage)
		o.dispatch(Action{Type: ActionSetPaused})
		return
	}

	o.dispatch(Action{Type: ActionSetEmotionalState, EmotionalState: emotionalStateFor(c)})

	resp := models.QuestionnaireResponse{
		QuestionID: q.ID,
		DomainID:   domain.ID,
		Response:   text,
		Flag:       q.Flag,
		CreatedAt:  time.Now(),
	}
	o.dispatch(Action{Type: ActionAddResponse, Response: &resp})
	if o.callbacks.OnResponseSaved != nil {
		o.callbacks.OnResponseSaved(resp)
	}

	if trigger, ok := o.empathy.DetectTrigger(text, c, q.Prompt); ok {
		o.interjectEmpathy(ctx, trigger, text, qctx)
		if o.context.IsPaused || !o.context.IsActive {
			return
		}
	}

	o.routeNext(ctx, domain, q, c)
}

// interjectEmpathy records the disclosure, sends the supportive message and,
// after a short delay, the resource follow-up offer.
func (o *Orchestrator) interjectEmpathy(ctx context.Context, trigger models.EmpathyTrigger, text string, qctx models.QuestionContext) {
	slog.Debug("Orchestrator.interjectEmpathy: distress detected",
		"userID", o.userID, "trigger", trigger, "questionID", qctx.QuestionID)

	o.dispatch(Action{
		Type: ActionAddSensitiveDisclosure,
		Disclosure: &models.SensitiveDisclosure{
			Topic:      string(trigger),
			QuestionID: qctx.QuestionID,
			DomainID:   qctx.DomainID,
			Response:   text,
			Timestamp:  time.Now(),
		},
	})
	o.dispatch(Action{Type: ActionSetStage, Stage: models.StageEmpatheticResponse})

	er := o.empathy.GenerateResponse(ctx, trigger, text, qctx)
	o.send("", er.ResponseText)
	if er.FollowUpQuestion != "" {
		if !o.pace(ctx, o.followUpDelay) {
			return
		}
		if o.context.IsPaused || !o.context.IsActive {
			return
		}
		o.send("", er.FollowUpQuestion)
	}
}

// routeNext resolves the question after an answer: explicit follow-up routing
// first (exact option, then wildcard), falling back to sequential order. The
// end of a domain's question list raises the continue/pause prompt.
func (o *Orchestrator) routeNext(ctx context.Context, domain *models.Domain, q *models.Question, c models.IntentClassification) {
	if len(q.FollowUp) > 0 {
		target, matched := models.FollowUpTarget{}, false
		if c.SelectedOption != "" {
			target, matched = q.FollowUp[c.SelectedOption]
		}
		if !matched {
			target, matched = q.FollowUp[models.WildcardOption]
		}
		if matched {
			if target.IsDomainTransition() {
				nextIdx := o.catalog.DomainIndex(target.DomainID)
				if nextIdx >= 0 {
					o.promptDomainTransition(ctx, nextIdx)
					return
				}
				slog.Error("Orchestrator.routeNext: transition to unknown domain, falling back to sequential",
					"userID", o.userID, "questionID", q.ID, "targetDomain", target.DomainID)
			} else {
				qi := catalog.FindQuestionIndex(domain, target.QuestionID)
				if qi >= 0 {
					o.dispatch(Action{Type: ActionSetPosition, QuestionIndex: intPtr(qi)})
					o.dispatch(Action{Type: ActionSetStage, Stage: models.StageFollowUp})
					o.sendNextQuestion(ctx)
					return
				}
				slog.Error("Orchestrator.routeNext: follow-up target not in domain, falling back to sequential",
					"userID", o.userID, "questionID", q.ID, "targetQuestion", target.QuestionID)
			}
		}
	}

	next := o.context.CurrentQuestionIndex + 1
	if next >= len(domain.Questions) {
		o.promptDomainTransition(ctx, o.context.CurrentDomainIndex+1)
		return
	}
	o.dispatch(Action{Type: ActionSetPosition, QuestionIndex: intPtr(next)})
	o.dispatch(Action{Type: ActionSetStage, Stage: models.StageQuestion})
	o.sendNextQuestion(ctx)
}

// promptDomainTransition marks the flow as awaiting a continue/pause decision
// and asks the user whether to move into the given domain index.
func (o *Orchestrator) promptDomainTransition(ctx context.Context, nextDomainIdx int) {
	o.pendingTransition = true
	o.pendingNextDomain = nextDomainIdx

	if d := o.catalog.GetDomain(o.context.CurrentDomainIndex); d != nil {
		o.dispatch(Action{Type: ActionSetPosition, QuestionIndex: intPtr(len(d.Questions))})
	}
	o.dispatch(Action{Type: ActionSetStage, Stage: models.StageDomainTransition})

	next := o.catalog.GetDomain(nextDomainIdx)
	if next == nil {
		o.send("", lastSectionPrompt)
		return
	}
	o.send("", fmt.Sprintf(transitionPrompt, next.Title))
}

// handleTransitionReply resolves the continue/pause decision at a domain
// boundary. Affirmative advances into the pending domain (or finalizes when
// none remains); negative or pause defers; unclear asks again.
func (o *Orchestrator) handleTransitionReply(ctx context.Context, text string) {
	qctx := models.QuestionContext{
		QuestionText: transitionQuestionText,
		Options:      []string{"Continue", "Pause"},
	}
	c := o.classifier.Classify(ctx, text, qctx)
	slog.Debug("Orchestrator.handleTransitionReply: classified",
		"userID", o.userID, "intent", c.Intent, "pause", c.IsPauseRequest,
		"nextDomain", o.pendingNextDomain)

	switch {
	case c.IsPauseRequest || c.Intent == models.IntentNo || strings.EqualFold(c.SelectedOption, "Pause"):
		o.send("", pauseAckMessage)
		o.dispatch(Action{Type: ActionSetPaused})
		return

	case strings.EqualFold(c.SelectedOption, "Continue") || c.Intent == models.IntentYes || c.Intent == models.IntentResume:
		// advance below

	case c.Intent == models.IntentQuestion || c.Intent == models.IntentUnclear:
		nextTitle := "the next section"
		if d := o.catalog.GetDomain(o.pendingNextDomain); d != nil {
			nextTitle = d.Title
		}
		o.send("", fmt.Sprintf(transitionClarifyMessage, nextTitle))
		return
	}

	o.pendingTransition = false
	next := o.catalog.GetDomain(o.pendingNextDomain)
	if next == nil {
		o.complete(ctx)
		return
	}
	o.dispatch(Action{
		Type:          ActionSetPosition,
		DomainIndex:   intPtr(o.pendingNextDomain),
		QuestionIndex: intPtr(0),
	})
	o.dispatch(Action{Type: ActionSetStage, Stage: models.StageQuestion})
	o.sendNextQuestion(ctx)
}

// sendNextQuestion renders and dispatches the question at the current
// position. Dispatch is idempotent per question id within the session, and a
// paused or transition-pending session dispatches nothing.
func (o *Orchestrator) sendNextQuestion(ctx context.Context) {
	if o.context.IsPaused || !o.context.IsActive || o.pendingTransition {
		return
	}

	domain := o.catalog.GetDomain(o.context.CurrentDomainIndex)
	if domain == nil {
		o.complete(ctx)
		return
	}

	qIndex := o.context.CurrentQuestionIndex
	if qIndex < 0 || qIndex >= len(domain.Questions) {
		o.promptDomainTransition(ctx, o.context.CurrentDomainIndex+1)
		return
	}

	q := &domain.Questions[qIndex]
	key := domain.ID + "/" + q.ID
	if o.sentMessages[key] {
		slog.Debug("Orchestrator.sendNextQuestion: already sent, skipping",
			"userID", o.userID, "questionID", q.ID)
		return
	}

	text := renderQuestion(domain, qIndex)
	o.dispatch(Action{
		Type: ActionSetLastQuestion,
		LastQuestion: &models.LastQuestion{
			DomainID:   domain.ID,
			QuestionID: q.ID,
			Text:       text,
		},
	})
	if o.context.Stage != models.StageFollowUp {
		o.dispatch(Action{Type: ActionSetStage, Stage: models.StageQuestion})
	}
	o.send(key, text)
}

// complete finalizes the questionnaire: marks the context completed, submits
// every recorded response downstream, sets the durable completion flag and
// thanks the user. OnComplete fires exactly once per session.
func (o *Orchestrator) complete(ctx context.Context) {
	slog.Debug("Orchestrator.complete: finishing questionnaire",
		"userID", o.userID, "responses", len(o.context.Responses))

	o.pendingTransition = false
	o.dispatch(Action{Type: ActionSetCompleted})

	o.submitResponses(ctx)

	if err := o.store.SetSetting(o.userID, store.SettingCompleted, "true"); err != nil {
		slog.Warn("Orchestrator.complete: failed to persist completion flag", "error", err, "userID", o.userID)
	}

	o.send("", closingMessage)

	if !o.completionNotified {
		o.completionNotified = true
		if o.callbacks.OnComplete != nil {
			o.callbacks.OnComplete()
		}
	}
}

// submitResponses delivers each recorded answer to the submitter, one at a
// time, skipping answers the ledger already shows as delivered. A failed
// submission is logged and skipped; it does not block completion or the
// remaining answers.
func (o *Orchestrator) submitResponses(ctx context.Context) {
	if o.submitter == nil {
		return
	}
	for _, resp := range o.context.Responses {
		done, err := o.store.IsSubmitted(o.userID, resp.DomainID, resp.QuestionID)
		if err != nil {
			slog.Warn("Orchestrator.submitResponses: ledger read failed",
				"error", err, "userID", o.userID, "questionID", resp.QuestionID)
		}
		if done {
			continue
		}
		if err := o.submitter.SubmitResponse(ctx, o.userID, resp); err != nil {
			slog.Error("Orchestrator.submitResponses: submission failed",
				"error", err, "userID", o.userID, "domainID", resp.DomainID, "questionID", resp.QuestionID)
			continue
		}
		if err := o.store.MarkSubmitted(o.userID, resp.DomainID, resp.QuestionID); err != nil {
			slog.Warn("Orchestrator.submitResponses: ledger write failed",
				"error", err, "userID", o.userID, "questionID", resp.QuestionID)
		}
	}
}

// dispatch applies a reducer action and persists the resulting context.
func (o *Orchestrator) dispatch(a Action) {
	o.context = Apply(o.context, a)
	SaveContext(o.store, o.userID, o.context)
}

// send delivers one outbound message. A non-empty key makes the send
// idempotent within the session.
func (o *Orchestrator) send(key, text string) {
	if key != "" {
		if o.sentMessages[key] {
			return
		}
		o.sentMessages[key] = true
	}
	if o.callbacks.OnQuestionReady != nil {
		o.callbacks.OnQuestionReady(text)
	}
}

// pace blocks for the given delay via the session timer. It returns false if
// the context is cancelled or the session closed before the delay elapsed.
func (o *Orchestrator) pace(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	done := make(chan struct{})
	id := o.timer.ScheduleAfter(d, func() { close(done) })
	select {
	case <-done:
		return true
	case <-ctx.Done():
		o.timer.Cancel(id)
		return false
	case <-o.closed:
		o.timer.Cancel(id)
		return false
	}
}

// renderQuestion formats a question for display, prefixing the domain
// description on the domain's first question and numbering any options.
func renderQuestion(d *models.Domain, qIndex int) string {
	q := &d.Questions[qIndex]
	var b strings.Builder
	if qIndex == 0 && d.Description != "" {
		b.WriteString(d.Description)
		b.WriteString("\n\n")
	}
	b.WriteString(q.Prompt)
	if len(q.Options) > 0 {
		b.WriteString("\n")
		for i, opt := range q.Options {
			fmt.Fprintf(&b, "\n%d. %s", i+1, opt)
		}
		b.WriteString("\n\nYou can reply with a number or in your own words.")
	}
	return b.String()
}

// emotionalStateFor maps a classification onto the session-level emotional
// state track.
func emotionalStateFor(c models.IntentClassification) models.EmotionalState {
	switch c.EmotionalContent {
	case models.EmotionalContentDistress, models.EmotionalContentTrauma:
		return models.EmotionalStateDistressed
	case models.EmotionalContentAnxiety, models.EmotionalContentConcern:
		return models.EmotionalStateConcerned
	case models.EmotionalContentPositive:
		return models.EmotionalStatePositive
	}
	if c.Intent == models.IntentUnclear {
		return models.EmotionalStateConfused
	}
	if c.Intent == models.IntentYes && !c.NeedsEmpathy {
		return models.EmotionalStatePositive
	}
	return models.EmotionalStateNeutral
}
