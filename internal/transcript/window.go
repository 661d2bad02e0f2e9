package transcript

import (
	"sort"
	"strings"
)

// maxMessageChars caps how much of any single message makes it into the
// rendered transcript. Keeps the sweep prompt bounded on chatty windows.
const maxMessageChars = 400

// Message is one entry in a sliding dialogue window, as delivered by the
// chat relay.
type Message struct {
	Speaker string `json:"speaker"`
	Content string `json:"content"`
	SentAt  int64  `json:"sent_at"`
}

// DistinctSpeakers returns the unique speaker names in a window, sorted.
func DistinctSpeakers(msgs []Message) []string {
	seen := make(map[string]bool, len(msgs))
	var speakers []string
	for _, m := range msgs {
		name := strings.TrimSpace(m.Speaker)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		speakers = append(speakers, name)
	}
	sort.Strings(speakers)
	return speakers
}

// Render concatenates a window into a plain transcript for evaluation.
// One "Speaker: content" line per message, long messages truncated.
func Render(msgs []Message) string {
	var b strings.Builder
	for _, m := range msgs {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		if len(content) > maxMessageChars {
			content = content[:maxMessageChars] + "..."
		}
		b.WriteString(m.Speaker)
		b.WriteString(": ")
		b.WriteString(content)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
