// Package visibility decides which preview fields are shown for a set of
// form values.
//
// Conditions are derived from the allOf rules of a preview schema: a field
// living in then.properties of a rule is shown while the rule's if clause
// holds. Rules are plain expression strings so any Evaluator can run them.
package visibility

import (
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
)

// Evaluator determines whether a field should be visible based on a rule
// string and optional context such as current values or scope metadata.
type Evaluator interface {
	Eval(fieldPath, rule string, ctx Context) (bool, error)
}

// Context provides inputs to an Evaluator. Values holds the current form
// values while Extras allows callers to inject arbitrary context such as
// user roles or feature flags.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldPath, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldPath, rule string, ctx Context) (bool, error) {
	return fn(fieldPath, rule, ctx)
}

// Rules derives a visibility expression for every field of a preview schema
// that lives in then.properties of a rule. A field owned by several rules is
// visible when any of them holds.
//
// An if clause holds when the source value matches the const or when the
// source is absent, which is how JSON Schema evaluates if/then.
func Rules(schema schemadoc.Schema) map[string]string {
	clauses := make(map[string][]string)
	var order []string
	for _, rule := range schema.AllOf {
		if rule.If == nil || rule.Then == nil || !rule.Then.Properties.Present() {
			continue
		}
		condition := ruleExpression(rule.If)
		for _, name := range rule.Then.Properties.Keys() {
			if _, seen := clauses[name]; !seen {
				order = append(order, name)
			}
			clauses[name] = append(clauses[name], condition)
		}
	}
	if len(order) == 0 {
		return nil
	}

	out := make(map[string]string, len(order))
	for _, name := range order {
		parts := clauses[name]
		if len(parts) == 1 {
			out[name] = parts[0]
			continue
		}
		wrapped := make([]string, len(parts))
		for idx, part := range parts {
			wrapped[idx] = "(" + part + ")"
		}
		out[name] = strings.Join(wrapped, " || ")
	}
	return out
}

// Visible evaluates the rule of field. Fields without a rule are visible.
func Visible(eval Evaluator, rules map[string]string, field string, ctx Context) (bool, error) {
	rule, ok := rules[field]
	if !ok || strings.TrimSpace(rule) == "" || eval == nil {
		return true, nil
	}
	return eval.Eval(field, rule, ctx)
}

func ruleExpression(clause *schemadoc.RuleClause) string {
	var parts []string
	names := clause.Properties.Keys()
	for _, name := range names {
		source, _ := clause.Properties.Get(name)
		if source.Const == nil {
			continue
		}
		ref := "$env[" + strconv.Quote(name) + "]"
		parts = append(parts, "("+ref+" == nil || "+ref+" == "+Literal(source.Const)+")")
	}
	for _, name := range sortedCopy(clause.Required) {
		parts = append(parts, "$env["+strconv.Quote(name)+"] != nil")
	}
	if len(parts) == 0 {
		return "true"
	}
	return strings.Join(parts, " && ")
}

// Literal renders a JSON scalar as an expression literal.
func Literal(value any) string {
	switch typed := value.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(typed)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return schemadoc.ValueString(typed)
	}
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
