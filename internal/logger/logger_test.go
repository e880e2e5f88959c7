package logger

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{
			name:   "short string unchanged",
			input:  "hello",
			maxLen: 50,
			want:   "hello",
		},
		{
			name:   "exact length unchanged",
			input:  "hello",
			maxLen: 5,
			want:   "hello",
		},
		{
			name:   "long string truncated",
			input:  "hello world",
			maxLen: 8,
			want:   "hello...",
		},
		{
			name:   "tiny limit",
			input:  "hello",
			maxLen: 2,
			want:   "...",
		},
		{
			name:   "cut backs off to rune start",
			input:  "hi 😀😀😀",
			maxLen: 8, // byte 5 is inside the first emoji
			want:   "hi ...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := truncateString(tt.input, tt.maxLen)
			if got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncateString(%q, %d) produced a split rune: %q", tt.input, tt.maxLen, got)
			}
		})
	}
}

func TestTruncateStringNeverSplitsRunes(t *testing.T) {
	t.Parallel()

	input := strings.Repeat("😀", 30)
	for maxLen := 4; maxLen < len(input); maxLen++ {
		if got := truncateString(input, maxLen); !utf8.ValidString(got) {
			t.Fatalf("maxLen %d produced a split rune: %q", maxLen, got)
		}
	}
}
