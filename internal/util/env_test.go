package util

import "testing"

func TestParseBoolEnv(t *testing.T) {
	cases := []struct {
		value string
		def   bool
		want  bool
	}{
		{"true", false, true},
		{"YES", false, true},
		{"1", false, true},
		{"on", false, true},
		{"false", true, false},
		{"No", true, false},
		{"0", true, false},
		{"off", true, false},
		{"", true, true},
		{"", false, false},
		{"maybe", true, true},
		{"maybe", false, false},
	}
	for _, tc := range cases {
		t.Setenv("CHECKIN_TEST_BOOL", tc.value)
		if got := ParseBoolEnv("CHECKIN_TEST_BOOL", tc.def); got != tc.want {
			t.Errorf("ParseBoolEnv(%q, def=%v) = %v, want %v", tc.value, tc.def, got, tc.want)
		}
	}
}
