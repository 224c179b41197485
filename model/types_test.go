package model

import "testing"

func TestDeriveStepIDDeterministic(t *testing.T) {
	a := DeriveStepID(StepThought, 12, "check the calendar")
	b := DeriveStepID(StepThought, 12, "check the calendar")
	if a != b {
		t.Errorf("same inputs produced different ids: %q vs %q", a, b)
	}
	if len(a) != 16 {
		t.Errorf("expected 16-char id, got %d", len(a))
	}
}

func TestDeriveStepIDVariesByComponent(t *testing.T) {
	base := DeriveStepID(StepThought, 12, "check the calendar")

	if DeriveStepID(StepFinalAnswer, 12, "check the calendar") == base {
		t.Error("kind change did not change the id")
	}
	if DeriveStepID(StepThought, 13, "check the calendar") == base {
		t.Error("offset change did not change the id")
	}
	if DeriveStepID(StepThought, 12, "check the inbox") == base {
		t.Error("content change did not change the id")
	}
}

func TestCallFingerprintIgnoresKeyOrder(t *testing.T) {
	a := CallFingerprint("create_task", map[string]any{"title": "x", "priority": "low"})
	b := CallFingerprint("create_task", map[string]any{"priority": "low", "title": "x"})
	if a != b {
		t.Errorf("key order changed the fingerprint: %q vs %q", a, b)
	}
}

func TestCallFingerprintDistinguishesCalls(t *testing.T) {
	a := CallFingerprint("create_task", map[string]any{"title": "x"})
	if CallFingerprint("update_task", map[string]any{"title": "x"}) == a {
		t.Error("different tool names collided")
	}
	if CallFingerprint("create_task", map[string]any{"title": "y"}) == a {
		t.Error("different args collided")
	}
}

func TestCanonicalizeArgsNested(t *testing.T) {
	a := CanonicalizeArgs(map[string]any{
		"outer": map[string]any{"b": 1.0, "a": 2.0},
		"list":  []any{"x", "y"},
	})
	b := CanonicalizeArgs(map[string]any{
		"list":  []any{"x", "y"},
		"outer": map[string]any{"a": 2.0, "b": 1.0},
	})
	if a != b {
		t.Errorf("nested canonical forms differ:\n%s\n%s", a, b)
	}
}

func TestNewToolCallRecord(t *testing.T) {
	args := map[string]any{"title": "x"}
	record := NewToolCallRecord("create_task", args)

	if record.Fingerprint != CallFingerprint("create_task", args) {
		t.Error("record fingerprint does not match CallFingerprint")
	}
	if record.ToolName != "create_task" {
		t.Errorf("unexpected tool name %q", record.ToolName)
	}
	if record.AcceptedAt.IsZero() {
		t.Error("AcceptedAt not set")
	}
}
