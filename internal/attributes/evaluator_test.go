package attributes

import (
	"testing"

	"devmapperd/internal/config"
)

func TestEvaluator_Simple(t *testing.T) {
	attrs := []config.CustomAttribute{
		{Name: "device.id", Expression: `kind + "-" + string(major) + ":" + string(minor)`},
		{Name: "device.family", Expression: `family`},
	}

	evaluator, err := NewEvaluator(attrs)
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}

	result := evaluator.Evaluate(EventContext{
		Action: "insert",
		Kind:   "block",
		Major:  3,
		Minor:  0,
		Family: "storage",
	})

	if len(result) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(result))
	}
	if result[0].Key != "device.id" {
		t.Errorf("result[0].Key = %q, want device.id", result[0].Key)
	}
	if result[0].Value.AsString() != "block-3:0" {
		t.Errorf("result[0].Value = %q, want block-3:0", result[0].Value.AsString())
	}
	if result[1].Value.AsString() != "storage" {
		t.Errorf("result[1].Value = %q, want storage", result[1].Value.AsString())
	}
}

func TestEvaluator_ActionBranch(t *testing.T) {
	attrs := []config.CustomAttribute{
		{Name: "lifecycle", Expression: `action == "insert" ? "up" : "down"`},
	}

	evaluator, err := NewEvaluator(attrs)
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}

	up := evaluator.Evaluate(EventContext{Action: "insert"})
	if len(up) != 1 || up[0].Value.AsString() != "up" {
		t.Errorf("insert evaluated to %v, want up", up)
	}

	down := evaluator.Evaluate(EventContext{Action: "remove"})
	if len(down) != 1 || down[0].Value.AsString() != "down" {
		t.Errorf("remove evaluated to %v, want down", down)
	}
}

func TestEvaluator_CompileErrorIsFatal(t *testing.T) {
	attrs := []config.CustomAttribute{
		{Name: "broken", Expression: `kind +`},
	}

	if _, err := NewEvaluator(attrs); err == nil {
		t.Fatal("NewEvaluator() accepted a non-compiling expression")
	}
}

func TestEvaluator_NoAttributes(t *testing.T) {
	evaluator, err := NewEvaluator(nil)
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}
	if result := evaluator.Evaluate(EventContext{Action: "insert"}); result != nil {
		t.Errorf("Evaluate() = %v, want nil", result)
	}
}
