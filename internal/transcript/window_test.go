package transcript

import (
	"strings"
	"testing"
)

func TestDistinctSpeakers(t *testing.T) {
	msgs := []Message{
		{Speaker: "neiv", Content: "hey"},
		{Speaker: "kevin", Content: "hi"},
		{Speaker: "neiv", Content: "again"},
		{Speaker: "  ", Content: "blank speaker"},
		{Speaker: "mira", Content: "hello"},
	}

	speakers := DistinctSpeakers(msgs)
	if len(speakers) != 3 {
		t.Fatalf("got %d speakers, want 3", len(speakers))
	}
	if speakers[0] != "kevin" || speakers[1] != "mira" || speakers[2] != "neiv" {
		t.Errorf("speakers not sorted: %v", speakers)
	}
}

func TestRender(t *testing.T) {
	msgs := []Message{
		{Speaker: "kevin", Content: "did you see that?"},
		{Speaker: "neiv", Content: "   "},
		{Speaker: "mira", Content: "I did."},
	}

	out := Render(msgs)
	want := "kevin: did you see that?\nmira: I did."
	if out != want {
		t.Errorf("Render = %q, want %q", out, want)
	}
}

func TestRenderTruncatesLongMessages(t *testing.T) {
	long := strings.Repeat("a", 600)
	out := Render([]Message{{Speaker: "kevin", Content: long}})

	if !strings.HasSuffix(out, "...") {
		t.Error("long message not truncated with ellipsis")
	}
	if len(out) > len("kevin: ")+400+3 {
		t.Errorf("rendered line too long: %d chars", len(out))
	}
}

func TestRenderEmptyWindow(t *testing.T) {
	if out := Render(nil); out != "" {
		t.Errorf("Render(nil) = %q, want empty", out)
	}
}
