// Package expr evaluates visibility rules with expr-lang.
//
// Rules read form values through $env (`$env["status"] == "b"`) and caller
// supplied context through the extras variable (`extras.role == "admin"`).
// Empty strings are treated as missing values, matching how the preview
// validator sees untouched inputs.
package expr

import (
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/goliatone/go-formbuilder/pkg/visibility"
)

// ExtrasKey is the variable that exposes visibility.Context.Extras.
const ExtrasKey = "extras"

// Evaluator compiles rules once and caches the programs.
type Evaluator struct {
	mu       sync.RWMutex
	programs map[string]*vm.Program
}

// New constructs an Evaluator.
func New() *Evaluator {
	return &Evaluator{programs: make(map[string]*vm.Program)}
}

// Eval runs rule against ctx. Blank rules are visible.
func (e *Evaluator) Eval(fieldPath, rule string, ctx visibility.Context) (bool, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return true, nil
	}

	program, err := e.program(trimmed)
	if err != nil {
		return false, fmt.Errorf("visibility/expr: compile rule for %q: %w", fieldPath, err)
	}
	out, err := expr.Run(program, environment(ctx))
	if err != nil {
		return false, fmt.Errorf("visibility/expr: run rule for %q: %w", fieldPath, err)
	}
	visible, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("visibility/expr: rule for %q returned %T, want bool", fieldPath, out)
	}
	return visible, nil
}

func (e *Evaluator) program(rule string) (*vm.Program, error) {
	e.mu.RLock()
	program, ok := e.programs[rule]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(rule, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.programs[rule] = program
	e.mu.Unlock()
	return program, nil
}

func environment(ctx visibility.Context) map[string]any {
	env := make(map[string]any, len(ctx.Values)+1)
	for key, value := range ctx.Values {
		if text, ok := value.(string); ok && text == "" {
			continue
		}
		env[key] = value
	}
	extras := ctx.Extras
	if extras == nil {
		extras = map[string]any{}
	}
	env[ExtrasKey] = extras
	return env
}
