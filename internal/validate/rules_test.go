package validate

import (
	"strings"
	"testing"
)

func TestLengthWithin(t *testing.T) {
	cases := []struct {
		name string
		text string
		max  int
		want bool
	}{
		{"empty", "", MaxMessageLength, true},
		{"message at limit", strings.Repeat("a", 200), MaxMessageLength, true},
		{"message over limit", strings.Repeat("a", 201), MaxMessageLength, false},
		{"description at limit", strings.Repeat("b", 1000), MaxDescriptionLength, true},
		{"description over limit", strings.Repeat("b", 1001), MaxDescriptionLength, false},
		{"multibyte counted as characters", strings.Repeat("ж", 200), MaxMessageLength, true},
		{"emoji counted as characters", strings.Repeat("🙂", 201), MaxMessageLength, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := LengthWithin(tc.text, tc.max); got != tc.want {
				t.Errorf("LengthWithin(len=%d, %d) = %v, want %v", Length(tc.text), tc.max, got, tc.want)
			}
		})
	}
}

func TestUnitsAndClip(t *testing.T) {
	if got := Units("ab🙂ж"); got != 5 {
		t.Errorf("Units = %d, want 5", got)
	}

	cases := []struct {
		text string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"a🙂b", 2, "a"},
		{"a🙂b", 3, "a🙂"},
		{"", 0, ""},
	}
	for _, tc := range cases {
		if got := Clip(tc.text, tc.max); got != tc.want {
			t.Errorf("Clip(%q, %d) = %q, want %q", tc.text, tc.max, got, tc.want)
		}
	}
}
