// Package empathy decides whether a reply indicates distress in the context
// of the question asked and, if so, produces a short supportive message.
//
// Generation attempts a language-model call first and falls back to fixed
// per-trigger template pools; a generation failure is never surfaced.
package empathy

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/bloomcare/checkin/internal/classifier"
	"github.com/bloomcare/checkin/internal/genai"
	"github.com/bloomcare/checkin/internal/models"
)

// Engine detects empathy triggers and generates supportive responses.
type Engine struct {
	genaiClient genai.ClientInterface
}

// NewEngine creates an empathy engine. A nil GenAI client is allowed; the
// engine then always uses the static template pools.
func NewEngine(genaiClient genai.ClientInterface) *Engine {
	return &Engine{genaiClient: genaiClient}
}

var (
	harmResponsePattern     = regexp.MustCompile(`\b(hit|beat(en)?|abus\w*|hurt|assault\w*|violen\w*)\b`)
	safetyQuestionPattern   = regexp.MustCompile(`\b(safe|hurt|threatened|afraid)\b`)
	financeQuestionPattern  = regexp.MustCompile(`\b(money|afford\w*|financial|pay|bills)\b`)
	housingPattern          = regexp.MustCompile(`\b(housing|home(less)?|evict\w*|shelter|rent)\b`)
	foodPattern             = regexp.MustCompile(`\b(food|hungry|hunger|eat|meal)\b`)
)

// DetectTrigger returns the empathy trigger for a classified reply, or false
// when no supportive interjection is warranted.
//
// Distress must be confirmed in context: the classification must request
// empathy AND the answer must genuinely indicate distress given the
// question's polarity (an affirmative answer to a negatively-phrased
// question, a negative answer to a positively-phrased one) or carry explicit
// emotional content. A response describing violence selects physical_harm
// ahead of the question-text scan so direct disclosures are never downgraded
// to a generic safety concern.
func (e *Engine) DetectTrigger(utterance string, c models.IntentClassification, questionText string) (models.EmpathyTrigger, bool) {
	if !c.NeedsEmpathy {
		return "", false
	}
	if !distressConfirmed(c, questionText) {
		return "", false
	}

	question := strings.ToLower(questionText)
	response := strings.ToLower(utterance)

	var trigger models.EmpathyTrigger
	switch {
	case harmResponsePattern.MatchString(response):
		trigger = models.TriggerPhysicalHarm
	case safetyQuestionPattern.MatchString(question):
		trigger = models.TriggerSafetyConcern
	case financeQuestionPattern.MatchString(question):
		trigger = models.TriggerFinancialDistress
	case housingPattern.MatchString(question) || housingPattern.MatchString(response):
		trigger = models.TriggerHousingInsecurity
	case foodPattern.MatchString(question) || foodPattern.MatchString(response):
		trigger = models.TriggerFoodInsecurity
	default:
		trigger = models.TriggerGeneralDistress
	}

	slog.Debug("empathy.DetectTrigger: distress confirmed",
		"trigger", trigger, "emotionalContent", c.EmotionalContent, "intent", c.Intent)
	return trigger, true
}

// distressConfirmed applies the polarity check: needsEmpathy alone is not
// enough when the answer is actually the reassuring one.
func distressConfirmed(c models.IntentClassification, questionText string) bool {
	switch c.EmotionalContent {
	case models.EmotionalContentDistress, models.EmotionalContentTrauma,
		models.EmotionalContentAnxiety, models.EmotionalContentConcern:
		return true
	}
	polarity := classifier.QuestionPolarity(questionText)
	answeredYes := c.Intent == models.IntentYes || strings.EqualFold(c.SelectedOption, "yes")
	answeredNo := c.Intent == models.IntentNo || strings.EqualFold(c.SelectedOption, "no")
	if polarity == classifier.PolarityNegative && answeredYes {
		return true
	}
	if polarity == classifier.PolarityPositive && answeredNo {
		return true
	}
	return false
}

const empathySystemPrompt = `You are a warm, supportive companion in a maternal-health check-in.
Write a brief (2-3 sentence) non-judgmental acknowledgment of what the user shared.
Do not ask follow-up questions. Do not offer solutions or advice. Do not minimize their experience.`

// GenerateResponse produces the supportive message for a confirmed trigger.
// The language model is attempted first; on any failure (missing client,
// network error, empty completion) a fixed per-trigger template is selected
// uniformly at random.
func (e *Engine) GenerateResponse(ctx context.Context, trigger models.EmpathyTrigger, utterance string, qctx models.QuestionContext) models.EmpathyResponse {
	text := e.generateText(ctx, trigger, utterance, qctx)

	response := models.EmpathyResponse{ResponseText: text}
	switch trigger {
	case models.TriggerPhysicalHarm, models.TriggerSafetyConcern:
		response.FollowUpQuestion = "Would you like information about resources that can help keep you safe? You can say yes or no."
		response.ResourcesOffered = true
	case models.TriggerFinancialDistress, models.TriggerHousingInsecurity, models.TriggerFoodInsecurity:
		response.FollowUpQuestion = "Would you like me to share some support services that might help? You can say yes or no."
		response.ResourcesOffered = true
	}
	return response
}

func (e *Engine) generateText(ctx context.Context, trigger models.EmpathyTrigger, utterance string, qctx models.QuestionContext) string {
	if e.genaiClient == nil {
		return templateFor(trigger)
	}

	userPrompt := fmt.Sprintf("The question was: %q\nThe user answered: %q\nThe concern category is: %s",
		qctx.QuestionText, utterance, trigger)
	text, err := e.genaiClient.GeneratePromptWithContext(ctx, empathySystemPrompt, userPrompt)
	if err != nil {
		slog.Warn("empathy.generateText: model call failed, using template",
			"error", err, "trigger", trigger)
		return templateFor(trigger)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		slog.Warn("empathy.generateText: empty completion, using template", "trigger", trigger)
		return templateFor(trigger)
	}
	return text
}
