package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayTextGatesInternalReasoning(t *testing.T) {
	assert.Equal(t, "", DisplayText("THOUGHT: x"))
	assert.Equal(t, "", DisplayText(`TOOL_CALL: {"name": "respond", "args": {}}`))
	assert.Equal(t, "", DisplayText(""))
}

func TestDisplayTextExtractsFinalAnswer(t *testing.T) {
	buffer := "THOUGHT: all done here\nFINAL_ANSWER: Done."
	assert.Equal(t, "Done.", DisplayText(buffer))
}

func TestDisplayTextUsesLastFinalAnswer(t *testing.T) {
	buffer := "FINAL_ANSWER: first draft\nFINAL_ANSWER: Second draft."
	assert.Equal(t, "Second draft.", DisplayText(buffer))
}

func TestDisplayTextStopsAtFollowingMarker(t *testing.T) {
	buffer := "FINAL_ANSWER: All set.\nTHOUGHT: trailing noise"
	assert.Equal(t, "All set.", DisplayText(buffer))
}
