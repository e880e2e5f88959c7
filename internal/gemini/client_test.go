package gemini

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/askhat/neighborbot/internal/database"
)

func TestBuildTranscript(t *testing.T) {
	t.Parallel()

	messages := []database.Message{
		{Username: "alice", Text: "hello"},
		{Username: "bob", Text: ""},
		{FirstName: "Carol", Text: "hi there"},
	}

	transcript := buildTranscript(messages)

	want := "alice: hello\nCarol: hi there\n"
	if transcript != want {
		t.Errorf("transcript = %q, want %q", transcript, want)
	}
}

func TestBuildTranscriptTruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()

	// One long emoji-only message; the byte cut lands mid-rune and must
	// advance to the next rune start.
	messages := []database.Message{
		{Username: "a", Text: strings.Repeat("😀", 2000)},
	}

	transcript := buildTranscript(messages)

	if !strings.HasPrefix(transcript, "...\n") {
		t.Fatalf("truncated transcript missing ellipsis prefix: %q", transcript[:8])
	}
	if !utf8.ValidString(transcript) {
		t.Error("truncated transcript contains a split rune")
	}
	if len(transcript) > maxTranscriptChars+len("...\n") {
		t.Errorf("transcript length = %d, want at most %d", len(transcript), maxTranscriptChars+len("...\n"))
	}
	if !strings.HasSuffix(transcript, "😀\n") {
		t.Errorf("transcript tail lost: %q", transcript[len(transcript)-8:])
	}
}
