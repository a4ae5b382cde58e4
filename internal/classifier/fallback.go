package classifier

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/bloomcare/checkin/internal/models"
)

// RegexClassifier is the deterministic classification strategy. It is used
// standalone when no language model is configured and as the fallback when
// the AI strategy fails.
type RegexClassifier struct{}

// NewRegexClassifier creates a deterministic regex classifier.
func NewRegexClassifier() *RegexClassifier {
	return &RegexClassifier{}
}

// Pause requests take priority over everything else: a user saying
// "not right now" must never be read as a plain "no".
var pausePattern = regexp.MustCompile(`\b(pause|stop for now|not (right )?now|later|busy|can'?t talk|another time|hold on|take a break|come back)\b`)

var resumePattern = regexp.MustCompile(`\b(resume|i'?m back|pick (it |this )?(back )?up|where (did|were) we)\b`)

var yesPattern = regexp.MustCompile(`^(yes|yeah|yep|yup|sure|ok|okay|of course|definitely|absolutely|correct|right|ready)\b|` +
	`\b(let'?s (do it|go|keep going|continue)|keep going|sounds good|go ahead|i do|i am|i have)\b`)

var noPattern = regexp.MustCompile(`^(no|nope|nah|never|not really|i don'?t|i haven'?t|i'?m not)\b`)

var traumaPattern = regexp.MustCompile(`\b(hit|beat(en)?|abus\w*|hurt me|assault\w*|violen\w*)\b`)
var anxietyPattern = regexp.MustCompile(`\b(scared|afraid|anxious|anxiety|panic|terrified|worried|worry)\b`)
var distressPattern = regexp.MustCompile(`\b(sad|depress\w*|hopeless|crying|cry|overwhelm\w*|exhausted|alone|lonely)\b`)
var concernPattern = regexp.MustCompile(`\b(concern\w*|unsure|not sure how|struggling)\b`)

// Classify applies the fixed pattern set to the trimmed, lowercased
// utterance. Pause requests are tested first (highest priority), then
// affirmative/negative sets, then a trailing "?" marks a question; anything
// unmatched is unclear with confidence 0.5.
func (c *RegexClassifier) Classify(_ context.Context, utterance string, qctx models.QuestionContext) models.IntentClassification {
	text := strings.ToLower(strings.TrimSpace(utterance))

	classification := models.IntentClassification{
		Intent:           models.IntentUnclear,
		Confidence:       0.5,
		EmotionalContent: detectEmotionalContent(text),
	}

	switch {
	case pausePattern.MatchString(text):
		classification.Intent = models.IntentPause
		classification.IsPauseRequest = true
		classification.Confidence = 0.9
	case resumePattern.MatchString(text):
		classification.Intent = models.IntentResume
		classification.IsResumeRequest = true
		classification.Confidence = 0.9
	case yesPattern.MatchString(text):
		classification.Intent = models.IntentYes
		classification.Confidence = 0.9
	case noPattern.MatchString(text):
		classification.Intent = models.IntentNo
		classification.Confidence = 0.9
	case strings.HasSuffix(text, "?"):
		classification.Intent = models.IntentQuestion
		classification.Confidence = 0.8
	}

	if option, ok := matchOption(text, qctx.Options); ok {
		classification.SelectedOption = option
		if classification.Intent == models.IntentUnclear {
			classification.Confidence = 0.85
		}
	}

	classification.NeedsEmpathy = needsEmpathy(classification, qctx)

	slog.Debug("RegexClassifier.Classify: classified utterance",
		"questionID", qctx.QuestionID,
		"intent", classification.Intent,
		"emotionalContent", classification.EmotionalContent,
		"needsEmpathy", classification.NeedsEmpathy,
		"selectedOption", classification.SelectedOption)
	return classification
}

// matchOption resolves the utterance against the question's answer options:
// exact text, list position ("1", "2", ...), or containment, in that order.
func matchOption(text string, options []string) (string, bool) {
	if len(options) == 0 {
		return "", false
	}
	for _, opt := range options {
		if strings.EqualFold(text, opt) {
			return opt, true
		}
	}
	if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= len(options) {
		return options[n-1], true
	}
	for _, opt := range options {
		lower := strings.ToLower(opt)
		if strings.Contains(text, lower) || (len(text) >= 3 && strings.Contains(lower, text)) {
			return opt, true
		}
	}
	// "yes"/"no" replies map onto Yes/No options even when worded differently.
	for _, opt := range options {
		lower := strings.ToLower(opt)
		if lower == "yes" && yesPattern.MatchString(text) {
			return opt, true
		}
		if lower == "no" && noPattern.MatchString(text) {
			return opt, true
		}
	}
	return "", false
}

func detectEmotionalContent(text string) models.EmotionalContent {
	switch {
	case traumaPattern.MatchString(text):
		return models.EmotionalContentTrauma
	case distressPattern.MatchString(text):
		return models.EmotionalContentDistress
	case anxietyPattern.MatchString(text):
		return models.EmotionalContentAnxiety
	case concernPattern.MatchString(text):
		return models.EmotionalContentConcern
	default:
		return models.EmotionalContentNone
	}
}

// needsEmpathy is polarity-aware: an affirmative answer to a negatively
// phrased question or a negative answer to a positively phrased one signals
// distress, as does any explicit emotional content.
func needsEmpathy(c models.IntentClassification, qctx models.QuestionContext) bool {
	switch c.EmotionalContent {
	case models.EmotionalContentDistress, models.EmotionalContentTrauma,
		models.EmotionalContentAnxiety, models.EmotionalContentConcern:
		return true
	}
	polarity := QuestionPolarity(qctx.QuestionText)
	answeredYes := c.Intent == models.IntentYes || strings.EqualFold(c.SelectedOption, "yes")
	answeredNo := c.Intent == models.IntentNo || strings.EqualFold(c.SelectedOption, "no")
	if polarity == PolarityNegative && answeredYes {
		return true
	}
	if polarity == PolarityPositive && answeredNo {
		return true
	}
	return false
}
