package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// reviewVerdict is one element of the JSON array returned by the review
// evaluation.
type reviewVerdict struct {
	Index      int    `json:"index"`
	Verdict    string `json:"verdict"`
	Compressed string `json:"compressed"`
}

// sweepVerdict is the JSON object returned by the sweep evaluation.
type sweepVerdict struct {
	Memorable     bool     `json:"memorable"`
	Importance    int      `json:"importance"`
	Summary       string   `json:"summary"`
	Participants  []string `json:"participants"`
	EmotionalTone string   `json:"emotional_tone"`
	Type          string   `json:"type"`
}

// ExtractJSONSpan returns the first balanced {...} or [...] span in text.
// Evaluation output routinely arrives wrapped in markdown fences or prose;
// this tolerates both, and strings/escapes inside the span. Returns an error
// if no balanced span exists — truncated output fails here, not in Unmarshal.
func ExtractJSONSpan(text string) (string, error) {
	start := -1
	for i := 0; i < len(text); i++ {
		if text[i] == '{' || text[i] == '[' {
			start = i
			break
		}
	}
	if start < 0 {
		return "", fmt.Errorf("no JSON span found")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON span")
}

// parseReviewVerdicts extracts and strictly parses a review verdict array.
func parseReviewVerdicts(content string) ([]reviewVerdict, error) {
	span, err := ExtractJSONSpan(content)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(span, "[") {
		return nil, fmt.Errorf("expected JSON array, got object")
	}
	var verdicts []reviewVerdict
	if err := json.Unmarshal([]byte(span), &verdicts); err != nil {
		return nil, fmt.Errorf("unmarshal verdicts: %w", err)
	}
	return verdicts, nil
}

// parseSweepVerdict extracts and strictly parses a sweep verdict object.
func parseSweepVerdict(content string) (*sweepVerdict, error) {
	span, err := ExtractJSONSpan(content)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(span, "{") {
		return nil, fmt.Errorf("expected JSON object, got array")
	}
	var v sweepVerdict
	if err := json.Unmarshal([]byte(span), &v); err != nil {
		return nil, fmt.Errorf("unmarshal verdict: %w", err)
	}
	return &v, nil
}
