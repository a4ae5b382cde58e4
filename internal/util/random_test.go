package util

import (
	"strings"
	"testing"
)

func TestGenerateRandomID(t *testing.T) {
	id := GenerateRandomID("u_", 32)
	if !strings.HasPrefix(id, "u_") {
		t.Errorf("GenerateRandomID() = %q, want prefix %q", id, "u_")
	}
	if len(id) != 34 {
		t.Errorf("GenerateRandomID() length = %d, want 34", len(id))
	}
	hexPart := strings.TrimPrefix(id, "u_")
	for _, c := range hexPart {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Errorf("GenerateRandomID() contains non-hex character %q", c)
		}
	}
}

func TestGenerateRandomHex(t *testing.T) {
	if got := GenerateRandomHex(0); got != "" {
		t.Errorf("GenerateRandomHex(0) = %q, want empty", got)
	}
	if got := GenerateRandomHex(-5); got != "" {
		t.Errorf("GenerateRandomHex(-5) = %q, want empty", got)
	}
	if got := GenerateRandomHex(16); len(got) != 16 {
		t.Errorf("GenerateRandomHex(16) length = %d, want 16", len(got))
	}
}

func TestGenerateUserIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateUserID()
		if seen[id] {
			t.Fatalf("GenerateUserID() produced duplicate %q", id)
		}
		seen[id] = true
	}
}
