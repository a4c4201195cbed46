// Package attributes evaluates configured expressions into span attributes
// for handled device events.
package attributes

import (
	"fmt"
	"log"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go.opentelemetry.io/otel/attribute"

	"devmapperd/internal/config"
)

// EventContext is the expression environment for one handled device event.
type EventContext struct {
	// Action is "insert" or "remove".
	Action string `expr:"action"`
	// Kind is "block" or "char".
	Kind   string `expr:"kind"`
	Major  uint32 `expr:"major"`
	Minor  uint32 `expr:"minor"`
	Family string `expr:"family"`
}

// Evaluator compiles custom attribute expressions once and evaluates them
// per event.
type Evaluator struct {
	customAttrs []config.CustomAttribute
	programs    []*vm.Program
}

// NewEvaluator pre-compiles the configured expressions against the event
// context shape. A non-compiling expression is a startup error.
func NewEvaluator(customAttrs []config.CustomAttribute) (*Evaluator, error) {
	programs := make([]*vm.Program, len(customAttrs))
	for i, attr := range customAttrs {
		program, err := expr.Compile(attr.Expression, expr.Env(EventContext{}))
		if err != nil {
			return nil, fmt.Errorf("compiling expression for attribute %q: %w", attr.Name, err)
		}
		programs[i] = program
	}

	return &Evaluator{
		customAttrs: customAttrs,
		programs:    programs,
	}, nil
}

// Evaluate runs every configured expression against the event context.
// Expressions that fail at runtime are logged and skipped so one bad
// attribute never blocks the others.
func (e *Evaluator) Evaluate(ctx EventContext) []attribute.KeyValue {
	if len(e.customAttrs) == 0 {
		return nil
	}

	var attrs []attribute.KeyValue
	for i, customAttr := range e.customAttrs {
		output, err := expr.Run(e.programs[i], ctx)
		if err != nil {
			log.Printf("evaluating span attribute %q: %v", customAttr.Name, err)
			continue
		}
		attrs = append(attrs, attribute.String(customAttr.Name, fmt.Sprint(output)))
	}
	return attrs
}
