package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/bloomcare/checkin/internal/models"
	"github.com/openai/openai-go"
)

// mockGenAI returns a canned completion or error.
type mockGenAI struct {
	response string
	err      error
	calls    int
}

func (m *mockGenAI) GeneratePromptWithContext(_ context.Context, _, _ string) (string, error) {
	m.calls++
	return m.response, m.err
}

func (m *mockGenAI) GenerateWithMessages(_ context.Context, _ []openai.ChatCompletionMessageParamUnion) (string, error) {
	m.calls++
	return m.response, m.err
}

func TestAIClassifierAcceptsValidJSON(t *testing.T) {
	mock := &mockGenAI{response: `{"intent":"yes","confidence":0.95,"emotional_content":"none","needs_empathy":false,"is_pause_request":false,"is_resume_request":false,"selected_option":"Yes"}`}
	c := NewAIClassifier(mock)

	got := c.Classify(context.Background(), "yes", models.QuestionContext{QuestionID: "q1"})
	if got.Intent != models.IntentYes {
		t.Errorf("Intent = %q, want yes", got.Intent)
	}
	if got.SelectedOption != "Yes" {
		t.Errorf("SelectedOption = %q, want Yes", got.SelectedOption)
	}
	if got.Confidence != 0.95 {
		t.Errorf("Confidence = %v, want 0.95", got.Confidence)
	}
}

func TestAIClassifierStripsCodeFence(t *testing.T) {
	mock := &mockGenAI{response: "```json\n{\"intent\":\"no\",\"confidence\":0.8,\"emotional_content\":\"none\"}\n```"}
	c := NewAIClassifier(mock)

	got := c.Classify(context.Background(), "no", models.QuestionContext{})
	if got.Intent != models.IntentNo {
		t.Errorf("Intent = %q, want no", got.Intent)
	}
}

func TestAIClassifierFallsBackOnModelError(t *testing.T) {
	mock := &mockGenAI{err: errors.New("network down")}
	c := NewAIClassifier(mock)

	got := c.Classify(context.Background(), "yes please", models.QuestionContext{})
	if got.Intent != models.IntentYes {
		t.Errorf("fallback Intent = %q, want yes", got.Intent)
	}
}

func TestAIClassifierFallsBackOnMalformedOutput(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"prose", "The user seems to be agreeing with the question."},
		{"invalid intent", `{"intent":"maybe","confidence":0.9}`},
		{"invalid emotional content", `{"intent":"yes","confidence":0.9,"emotional_content":"elated"}`},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewAIClassifier(&mockGenAI{response: tt.response})
			got := c.Classify(context.Background(), "yes", models.QuestionContext{})
			// The regex fallback must take over and still produce a result.
			if got.Intent != models.IntentYes {
				t.Errorf("fallback Intent = %q, want yes", got.Intent)
			}
		})
	}
}

func TestAIClassifierNilClientUsesFallback(t *testing.T) {
	c := NewAIClassifier(nil)
	got := c.Classify(context.Background(), "no", models.QuestionContext{})
	if got.Intent != models.IntentNo {
		t.Errorf("Intent = %q, want no", got.Intent)
	}
}

func TestParseClassificationClampsConfidence(t *testing.T) {
	c, err := parseClassification(`{"intent":"yes","confidence":1.7}`)
	if err != nil {
		t.Fatalf("parseClassification() error = %v", err)
	}
	if c.Confidence != 1 {
		t.Errorf("Confidence = %v, want 1", c.Confidence)
	}

	c, err = parseClassification(`{"intent":"yes","confidence":-0.3}`)
	if err != nil {
		t.Fatalf("parseClassification() error = %v", err)
	}
	if c.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", c.Confidence)
	}
}

func TestParseClassificationDefaultsEmotionalContent(t *testing.T) {
	c, err := parseClassification(`{"intent":"yes","confidence":0.9}`)
	if err != nil {
		t.Fatalf("parseClassification() error = %v", err)
	}
	if c.EmotionalContent != models.EmotionalContentNone {
		t.Errorf("EmotionalContent = %q, want none", c.EmotionalContent)
	}
}
