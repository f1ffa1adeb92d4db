package core

import "strings"

// ContainsTrigger reports whether body invokes the trigger phrase. Matching is
// case-insensitive and ignores surrounding whitespace. Trigger-like text that
// appears only inside a fenced code block does not count, so a comment that
// merely quotes the trigger does not start a review.
func ContainsTrigger(body, trigger string) bool {
	trigger = strings.ToLower(strings.TrimSpace(trigger))
	if trigger == "" {
		return false
	}

	visible := stripFencedBlocks(body)
	return strings.Contains(strings.ToLower(visible), trigger)
}

// stripFencedBlocks removes the contents of ``` fenced code blocks. A fence
// that is never closed swallows the rest of the comment, matching how GitHub
// renders it.
func stripFencedBlocks(body string) string {
	var sb strings.Builder
	inFence := false

	for line := range strings.Lines(body) {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		sb.WriteString(line)
	}
	return sb.String()
}
