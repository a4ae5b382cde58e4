package classifier

import "strings"

// Polarity describes how a question is phrased relative to wellbeing.
type Polarity string

const (
	// PolarityPositive means an affirmative answer indicates the user is okay.
	PolarityPositive Polarity = "positive"
	// PolarityNegative means an affirmative answer indicates distress.
	PolarityNegative Polarity = "negative"
	// PolarityNeutral means neither answer carries a distress signal by itself.
	PolarityNeutral Polarity = "neutral"
)

// Negative phrasing wins over positive when both match: questions like
// "has anyone hurt you?" often also contain reassuring words.
var negativePhrasingKeywords = []string{
	"threatened", "hurt", "afraid", "scared", "worried", "worry",
	"trouble", "struggl", "run out", "losing", "lose", "abuse",
	"hard to", "unsafe", "violence",
}

var positivePhrasingKeywords = []string{
	"safe", "supported", "support", "enough", "okay", "good",
	"able to", "someone you can", "scheduled", "taking",
}

// QuestionPolarity classifies how a question is phrased using keyword
// heuristics on its text.
func QuestionPolarity(questionText string) Polarity {
	text := strings.ToLower(questionText)
	for _, kw := range negativePhrasingKeywords {
		if strings.Contains(text, kw) {
			return PolarityNegative
		}
	}
	for _, kw := range positivePhrasingKeywords {
		if strings.Contains(text, kw) {
			return PolarityPositive
		}
	}
	return PolarityNeutral
}
