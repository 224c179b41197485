package agent

import "strings"

// DisplayText projects the raw turn buffer onto text safe to show the
// user: only the FINAL_ANSWER span is ever surfaced. While the model is
// still thinking or calling tools the projection stays empty instead of
// leaking internal reasoning.
func DisplayText(buffer string) string {
	idx := strings.LastIndex(buffer, MarkerFinalAnswer)
	if idx == -1 {
		return ""
	}

	span := buffer[idx+len(MarkerFinalAnswer):]
	if next := markerPattern.FindStringIndex(span); next != nil {
		span = span[:next[0]]
	}
	return strings.TrimSpace(span)
}
