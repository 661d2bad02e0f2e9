package llm

import "fmt"

// ReviewPrompt generates the batch prompt for working-memory review.
// candidates is a pre-formatted enumeration: one line per memory with its
// index, age bucket, and truncated content.
func ReviewPrompt(characterName, candidates string) string {
	return fmt.Sprintf(`You are the memory consolidation process for the character %s.
Below are their oldest working memories. Decide, for each one, whether the
character holds onto it, lets it blur, or forgets it entirely.

MEMORIES:
%s

Verdicts:
- KEEP: still matters to this character; it stays sharp
- FADE: reduced to a residual impression; provide a "compressed" fragment (under 100 characters)
- FORGET: no longer part of who they are

Rules:
- Judge every memory by index
- Mundane logistics fade; emotionally charged or identity-shaping moments keep
- Return ONLY a JSON array, no other text

Return a JSON array:
[{"index": 0, "verdict": "KEEP|FADE|FORGET", "compressed": "only for FADE"}]`,
		characterName, candidates)
}

// SweepPrompt generates the prompt judging a dialogue window for narrative
// significance.
func SweepPrompt(transcript string) string {
	return fmt.Sprintf(`You are judging whether a stretch of group conversation becomes a shared memory.

CONVERSATION:
%s

A moment is memorable when something actually happened between people:
a real joke that landed, a confession, a fight, a plan, a callback to an
earlier moment, someone showing an unguarded side. Routine chatter is not
memorable.

Rules:
- participants lists ONLY the characters the moment truly belonged to, not every speaker
- importance: 5 = minor but real, 8 = a moment they will reference for weeks
- summary: 1-2 sentences, written as the shared recollection
- type: one of banter, bonding, conflict, revelation, callback, vulnerability
- Return ONLY a JSON object, no other text

Return a JSON object:
{"memorable": true|false, "importance": 5-8, "summary": "...", "participants": ["Name"], "emotional_tone": "...", "type": "banter"}

If not memorable, return: {"memorable": false}`, transcript)
}
