// Package classifier turns free-text user utterances into structured intent
// classifications relative to the question just asked.
//
// Two strategies implement the same contract: an AI-backed classifier that
// prompts a language model for a structured result, and a deterministic
// regex classifier used standalone or as the AI strategy's fallback. Both
// guarantee a complete classification and never return an error to callers.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bloomcare/checkin/internal/genai"
	"github.com/bloomcare/checkin/internal/models"
)

// Classifier interprets a user utterance in the context of a question.
//
// Implementations always return a complete IntentClassification; internal
// failures degrade to deterministic behavior instead of surfacing.
type Classifier interface {
	Classify(ctx context.Context, utterance string, qctx models.QuestionContext) models.IntentClassification
}

// AIClassifier delegates to a language model requesting a structured result,
// falling back to the regex classifier when the call or the parse fails.
type AIClassifier struct {
	genaiClient genai.ClientInterface
	fallback    *RegexClassifier
}

// NewAIClassifier creates an AI-backed classifier with a regex fallback.
func NewAIClassifier(genaiClient genai.ClientInterface) *AIClassifier {
	return &AIClassifier{
		genaiClient: genaiClient,
		fallback:    NewRegexClassifier(),
	}
}

const classifierSystemPrompt = `You classify a user's reply to a health questionnaire question.
Respond with ONLY a JSON object, no prose, with exactly these fields:
{"intent": "yes|no|question|pause|resume|unclear",
 "confidence": 0.0-1.0,
 "emotional_content": "none|distress|trauma|anxiety|concern|positive",
 "needs_empathy": true|false,
 "is_pause_request": true|false,
 "is_resume_request": true|false,
 "selected_option": "<matched answer option or empty>"}`

// Classify interprets the utterance via the language model, degrading to the
// deterministic regex classification on any failure.
func (c *AIClassifier) Classify(ctx context.Context, utterance string, qctx models.QuestionContext) models.IntentClassification {
	if c.genaiClient == nil {
		return c.fallback.Classify(ctx, utterance, qctx)
	}

	userPrompt := c.buildPrompt(utterance, qctx)
	raw, err := c.genaiClient.GeneratePromptWithContext(ctx, classifierSystemPrompt, userPrompt)
	if err != nil {
		slog.Warn("AIClassifier.Classify: model call failed, using regex fallback",
			"error", err, "questionID", qctx.QuestionID)
		return c.fallback.Classify(ctx, utterance, qctx)
	}

	classification, err := parseClassification(raw)
	if err != nil {
		slog.Warn("AIClassifier.Classify: model output rejected, using regex fallback",
			"error", err, "questionID", qctx.QuestionID, "rawLength", len(raw))
		return c.fallback.Classify(ctx, utterance, qctx)
	}

	slog.Debug("AIClassifier.Classify: model classification accepted",
		"questionID", qctx.QuestionID, "intent", classification.Intent, "confidence", classification.Confidence)
	return classification
}

// buildPrompt constructs the context-aware classification prompt. It states
// the question's polarity explicitly because a "yes" to a negatively-phrased
// question ("has anyone hurt you?") signals distress while a "yes" to a
// positively-phrased one ("do you feel safe?") does not, and the reverse for
// "no".
func (c *AIClassifier) buildPrompt(utterance string, qctx models.QuestionContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question asked: %q\n", qctx.QuestionText)
	switch QuestionPolarity(qctx.QuestionText) {
	case PolarityNegative:
		b.WriteString("The question is phrased NEGATIVELY: an affirmative answer indicates distress.\n")
	case PolarityPositive:
		b.WriteString("The question is phrased POSITIVELY: a negative answer indicates distress.\n")
	}
	if len(qctx.Options) > 0 {
		fmt.Fprintf(&b, "Answer options: %s\n", strings.Join(qctx.Options, ", "))
		b.WriteString("If the reply matches an option, set selected_option to that option's exact text.\n")
	}
	fmt.Fprintf(&b, "User reply: %q", utterance)
	return b.String()
}

// parseClassification strictly validates the model's output at the boundary.
// Malformed output is rejected so it degrades to the deterministic fallback
// instead of propagating incomplete fields into state.
func parseClassification(raw string) (models.IntentClassification, error) {
	var c models.IntentClassification

	cleaned := strings.TrimSpace(raw)
	// Models occasionally wrap JSON in a code fence despite instructions.
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if err := json.Unmarshal([]byte(cleaned), &c); err != nil {
		return c, fmt.Errorf("classification output is not valid JSON: %w", err)
	}
	if !models.IsValidIntent(c.Intent) {
		return c, fmt.Errorf("invalid intent category %q", c.Intent)
	}
	if c.EmotionalContent == "" {
		c.EmotionalContent = models.EmotionalContentNone
	}
	if !models.IsValidEmotionalContent(c.EmotionalContent) {
		return c, fmt.Errorf("invalid emotional content category %q", c.EmotionalContent)
	}
	if c.Confidence < 0 {
		c.Confidence = 0
	}
	if c.Confidence > 1 {
		c.Confidence = 1
	}
	return c, nil
}
