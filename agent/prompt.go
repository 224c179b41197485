package agent

import (
	"fmt"
	"strings"
)

const defaultSystemPrompt = "You are a personal productivity assistant. " +
	"You manage the user's tasks, goals and calendar events."

// promptTemplate instructs the model to emit the marker format the
// parser consumes. The TOOL_CALL line is a literal wire contract and
// must round-trip through the parser exactly.
const promptTemplate = `%s

Available capabilities:
%s
%s
Respond using exactly this format:

THOUGHT: your reasoning about what to do next
TOOL_CALL: {"name": "<capability>", "args": {...}}
FINAL_ANSWER: your reply to the user

Rules:
- Emit TOOL_CALL only when an action is needed; its payload must be one JSON object.
- Never repeat an identical TOOL_CALL.
- Always finish with FINAL_ANSWER.

User: %s`

// BuildPrompt assembles the full generation prompt for one turn.
func BuildPrompt(system, capabilities, memoryContext, input string) string {
	contextSection := ""
	if memoryContext != "" {
		contextSection = fmt.Sprintf("\nContext from earlier conversation:\n%s\n", memoryContext)
	}
	return fmt.Sprintf(promptTemplate,
		strings.TrimSpace(system),
		strings.TrimSpace(capabilities),
		contextSection,
		input,
	)
}
