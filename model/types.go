// Package model provides domain types shared across packages.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// StepKind classifies a parsed unit of agent output.
type StepKind string

const (
	// StepThought is internal reasoning, never shown to the user.
	StepThought StepKind = "thought"
	// StepToolCall is a request to invoke a named capability.
	StepToolCall StepKind = "tool_call"
	// StepToolResult carries the outcome of an executed capability.
	StepToolResult StepKind = "tool_result"
	// StepFinalAnswer is the user-facing reply.
	StepFinalAnswer StepKind = "final_answer"
	// StepUser is the user's own input, recorded for the turn trace.
	StepUser StepKind = "user"
)

// String returns the string representation of the step kind.
func (k StepKind) String() string {
	return string(k)
}

// Step is the atomic unit of agent reasoning extracted from model output.
// Steps are immutable once emitted and are never deleted within a turn.
type Step struct {
	// ID is derived from kind, buffer position and content, so re-parsing
	// an extended buffer yields the same id for an unchanged span.
	ID string `json:"id"`
	// Kind classifies the step.
	Kind StepKind `json:"kind"`
	// Content is the free-text body of the step.
	Content string `json:"content"`
	// ToolName is set for tool_call and tool_result steps.
	ToolName string `json:"tool_name,omitempty"`
	// ToolArgs holds the parsed call arguments for tool_call steps.
	ToolArgs map[string]any `json:"tool_args,omitempty"`
	// ToolResult holds the execution outcome for tool_result steps.
	ToolResult map[string]any `json:"tool_result,omitempty"`
	// CreatedAt is when the step's span became syntactically complete.
	CreatedAt time.Time `json:"created_at"`
}

// NewStep creates a step with a deterministic id.
// offset is the byte offset of the step's span in the turn buffer.
func NewStep(kind StepKind, offset int, content string) Step {
	return Step{
		ID:        DeriveStepID(kind, offset, content),
		Kind:      kind,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// DeriveStepID computes a stable id from a step's kind, position and content.
func DeriveStepID(kind StepKind, offset int, content string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s", kind, offset, content)))
	return hex.EncodeToString(h[:])[:16]
}

// CallFingerprint identifies a tool invocation by a stable hash of
// (toolName, canonicalized arguments). Identical logical calls re-observed
// across re-parses of a growing buffer hash to the same fingerprint.
func CallFingerprint(toolName string, args map[string]any) string {
	h := sha256.Sum256([]byte(toolName + "|" + CanonicalizeArgs(args)))
	return hex.EncodeToString(h[:])[:16]
}

// CanonicalizeArgs renders an argument map as deterministic JSON with keys
// sorted recursively.
func CanonicalizeArgs(args map[string]any) string {
	var b strings.Builder
	writeCanonical(&b, args)
	return b.String()
}

func writeCanonical(b *strings.Builder, v any) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			kj, _ := json.Marshal(k)
			b.Write(kj)
			b.WriteByte(':')
			writeCanonical(b, val[k])
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, item)
		}
		b.WriteByte(']')
	default:
		j, err := json.Marshal(val)
		if err != nil {
			// Non-JSON values (channels, funcs) should never appear in
			// parsed arguments; fall back to their string form.
			j, _ = json.Marshal(fmt.Sprintf("%v", val))
		}
		b.Write(j)
	}
}

// ToolCallRecord marks a single accepted invocation within one turn.
// Created when a tool_call step is first accepted for execution; never
// mutated; scoped to the lifetime of the turn.
type ToolCallRecord struct {
	Fingerprint string         `json:"fingerprint"`
	ToolName    string         `json:"tool_name"`
	Args        map[string]any `json:"args,omitempty"`
	AcceptedAt  time.Time      `json:"accepted_at"`
}

// NewToolCallRecord creates a record for an accepted call.
func NewToolCallRecord(toolName string, args map[string]any) ToolCallRecord {
	return ToolCallRecord{
		Fingerprint: CallFingerprint(toolName, args),
		ToolName:    toolName,
		Args:        args,
		AcceptedAt:  time.Now(),
	}
}
