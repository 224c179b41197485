// Incremental parsing of streamed model output.
//
// The same buffer is re-scanned in full on every token batch: a JSON
// tool-call payload may straddle token boundaries and only becomes
// parseable once enough of it has arrived. Deterministic step ids make
// the repeated scan safe; the orchestrator deduplicates on them.
//
// Information Hiding:
// - Marker scanning internals hidden
// - Tool-call payload extraction hidden

package agent

import (
	"encoding/json"
	"regexp"
	"strings"

	"maia/internal/jsonx"
	"maia/model"
)

// Output markers the prompt instructs the model to emit. The literal
// text is a wire contract shared with the prompt template.
const (
	MarkerThought     = "THOUGHT:"
	MarkerToolCall    = "TOOL_CALL:"
	MarkerFinalAnswer = "FINAL_ANSWER:"
)

// minFragmentLen discards very short spans that are likely mid-token
// noise rather than finished content.
const minFragmentLen = 10

var markerPattern = regexp.MustCompile(`THOUGHT:|TOOL_CALL:|FINAL_ANSWER:`)

// toolCallPayload is the JSON object following a TOOL_CALL marker.
type toolCallPayload struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Parser segments a turn buffer into steps. Stateless; one instance
// may serve many turns.
type Parser struct{}

// NewParser creates a parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse scans the entire buffer and returns every step whose span is
// complete. Incomplete tool-call payloads are skipped silently and
// picked up on a later scan once more tokens have arrived.
func (p *Parser) Parse(buffer string) []model.Step {
	matches := markerPattern.FindAllStringIndex(buffer, -1)
	if len(matches) == 0 {
		return nil
	}

	var steps []model.Step
	for i, match := range matches {
		start, end := match[0], match[1]
		spanEnd := len(buffer)
		if i+1 < len(matches) {
			spanEnd = matches[i+1][0]
		}
		span := buffer[end:spanEnd]

		switch buffer[start:end] {
		case MarkerThought:
			if s, ok := thoughtStep(start, span); ok {
				steps = append(steps, s)
			}
		case MarkerToolCall:
			if s, ok := toolCallStep(start, span); ok {
				steps = append(steps, s)
			}
		case MarkerFinalAnswer:
			if s, ok := finalAnswerStep(start, span); ok {
				steps = append(steps, s)
			}
		}
	}
	return steps
}

func thoughtStep(offset int, span string) (model.Step, bool) {
	content := strings.TrimSpace(span)
	if len(content) < minFragmentLen {
		return model.Step{}, false
	}
	return model.NewStep(model.StepThought, offset, content), true
}

func finalAnswerStep(offset int, span string) (model.Step, bool) {
	content := strings.TrimSpace(span)
	if len(content) < minFragmentLen {
		return model.Step{}, false
	}
	return model.NewStep(model.StepFinalAnswer, offset, content), true
}

// toolCallStep extracts the payload up to the last complete closing
// brace in the span. A span with no complete object is presumed
// truncated, not malformed, and deferred to the next scan.
func toolCallStep(offset int, span string) (model.Step, bool) {
	object, ok := jsonx.LastCompleteObject(span)
	if !ok {
		return model.Step{}, false
	}

	var payload toolCallPayload
	if err := json.Unmarshal([]byte(object), &payload); err != nil {
		return model.Step{}, false
	}
	if payload.Name == "" {
		return model.Step{}, false
	}

	step := model.NewStep(model.StepToolCall, offset, object)
	step.ToolName = payload.Name
	step.ToolArgs = payload.Args
	return step, true
}
