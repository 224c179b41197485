// Runaway-generation guard.
//
// Degenerate model loops repeat a short token pattern forever and never
// reach a FINAL_ANSWER. The guard bounds the buffer and watches the
// trailing window for low-diversity repetition so the turn can be cut
// off instead of running until the provider gives up.

package agent

import "fmt"

const (
	// defaultMaxBufferLen is the hard ceiling on one turn's buffer.
	defaultMaxBufferLen = 32 * 1024
	// repetitionWindowLen is how much of the buffer tail is inspected.
	repetitionWindowLen = 100
	// repetitionMinCount trips the guard when a short substring
	// occurs this many times in the window.
	repetitionMinCount = 4
	// repetitionPatternLen is the probe substring length.
	repetitionPatternLen = 3
	// repetitionMaxUniqueChars bounds character diversity; real prose
	// in a 100-char window has far more distinct characters.
	repetitionMaxUniqueChars = 8
)

// RunawayError reports a tripped guard. Terminal for the turn.
type RunawayError struct {
	BufferLen int
	Reason    string
}

// Error implements the error interface.
func (e *RunawayError) Error() string {
	return fmt.Sprintf("runaway generation detected after %d bytes: %s", e.BufferLen, e.Reason)
}

// Guard checks a growing buffer for runaway generation.
type Guard struct {
	maxBufferLen int
}

// NewGuard creates a guard. maxBufferLen <= 0 selects the default.
func NewGuard(maxBufferLen int) *Guard {
	if maxBufferLen <= 0 {
		maxBufferLen = defaultMaxBufferLen
	}
	return &Guard{maxBufferLen: maxBufferLen}
}

// Check returns a RunawayError when the buffer has outgrown the ceiling
// or the trailing window shows low-diversity repetition, nil otherwise.
func (g *Guard) Check(buffer string) error {
	if len(buffer) > g.maxBufferLen {
		return &RunawayError{BufferLen: len(buffer), Reason: "buffer ceiling exceeded"}
	}
	if isRepetitive(trailingWindow(buffer)) {
		return &RunawayError{BufferLen: len(buffer), Reason: "repeating pattern in trailing window"}
	}
	return nil
}

func trailingWindow(buffer string) string {
	if len(buffer) <= repetitionWindowLen {
		return buffer
	}
	return buffer[len(buffer)-repetitionWindowLen:]
}

// isRepetitive reports whether the window is dominated by a short
// repeating pattern. Both conditions must hold: a probe substring
// recurring enough times and low overall character diversity.
func isRepetitive(window string) bool {
	if len(window) < repetitionPatternLen*repetitionMinCount {
		return false
	}
	if uniqueChars(window) >= repetitionMaxUniqueChars {
		return false
	}

	for i := 0; i+repetitionPatternLen <= len(window); i++ {
		pattern := window[i : i+repetitionPatternLen]
		if countOccurrences(window, pattern) >= repetitionMinCount {
			return true
		}
	}
	return false
}

func uniqueChars(s string) int {
	seen := make(map[rune]struct{})
	for _, r := range s {
		seen[r] = struct{}{}
	}
	return len(seen)
}

// countOccurrences counts non-overlapping occurrences.
func countOccurrences(s, pattern string) int {
	count := 0
	for i := 0; i+len(pattern) <= len(s); {
		if s[i:i+len(pattern)] == pattern {
			count++
			i += len(pattern)
			continue
		}
		i++
	}
	return count
}
