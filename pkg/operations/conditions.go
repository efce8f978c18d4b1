package operations

import (
	"slices"

	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
)

// FieldCondition makes a field required when another field holds a value.
type FieldCondition struct {
	DependsOnField      string `json:"dependsOnField"`
	DependsOnValue      string `json:"dependsOnValue"`
	RequiredWhenVisible bool   `json:"requiredWhenVisible"`
}

// SourceValue is one selectable value of a condition source field.
type SourceValue struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// SourceField is a field with a closed value set that conditions can
// depend on.
type SourceField struct {
	Name   string        `json:"name"`
	Title  string        `json:"title,omitempty"`
	Values []SourceValue `json:"values"`
}

// FieldCondition returns the condition of the first rule whose then clause
// references name.
func (e *Engine) FieldCondition(schema schemadoc.Schema, name string) (FieldCondition, bool) {
	for _, rule := range schema.AllOf {
		if rule.If == nil || !rule.If.Properties.Present() || rule.Then == nil {
			continue
		}
		if !rule.Targets(name) {
			continue
		}
		source := rule.If.Properties.Keys()
		if len(source) == 0 {
			continue
		}
		clause, _ := rule.If.Properties.Get(source[0])
		return FieldCondition{
			DependsOnField:      source[0],
			DependsOnValue:      schemadoc.ValueString(clause.Const),
			RequiredWhenVisible: slices.Contains(rule.Then.Required, name),
		}, true
	}
	return FieldCondition{}, false
}

// SetFieldCondition replaces the condition of name. An empty source field or
// value clears it. Conditions on missing fields, on missing sources, or on
// the field itself are ignored.
func (e *Engine) SetFieldCondition(schema schemadoc.Schema, name string, cond FieldCondition) schemadoc.Schema {
	if cond.DependsOnField == "" || cond.DependsOnValue == "" {
		return e.RemoveFieldCondition(schema, name)
	}
	source, ok := schema.Field(cond.DependsOnField)
	if !ok || !schema.Properties.Has(name) || cond.DependsOnField == name {
		return schema
	}

	out := removeConditions(schema.Clone(), name)
	when := schemadoc.NewProperties()
	when.Set(cond.DependsOnField, schemadoc.FieldSchema{Const: typedValue(source, cond.DependsOnValue)})
	out.AllOf = append(out.AllOf, schemadoc.ConditionRule{
		If:   &schemadoc.RuleClause{Properties: when},
		Then: &schemadoc.RuleClause{Required: []string{name}},
	})
	return out
}

// RemoveFieldCondition drops every rule whose then clause references name.
func (e *Engine) RemoveFieldCondition(schema schemadoc.Schema, name string) schemadoc.Schema {
	if !slices.ContainsFunc(schema.AllOf, func(rule schemadoc.ConditionRule) bool { return rule.Targets(name) }) {
		return schema
	}
	return removeConditions(schema.Clone(), name)
}

// ConditionSourceFields lists, in property order, the fields that carry a
// non-empty enum or oneOf value set.
func (e *Engine) ConditionSourceFields(schema schemadoc.Schema) []SourceField {
	var out []SourceField
	for name, field := range schema.Properties.All() {
		values := sourceValues(field)
		if len(values) == 0 {
			continue
		}
		out = append(out, SourceField{Name: name, Title: field.Title, Values: values})
	}
	return out
}

func sourceValues(field schemadoc.FieldSchema) []SourceValue {
	switch {
	case field.HasEnum():
		values := make([]SourceValue, 0, len(field.Enum))
		for idx, value := range field.Enum {
			entry := SourceValue{Value: schemadoc.ValueString(value)}
			entry.Label = entry.Value
			if idx < len(field.EnumNames) && field.EnumNames[idx] != "" {
				entry.Label = field.EnumNames[idx]
			}
			values = append(values, entry)
		}
		return values
	case field.HasOneOf():
		values := make([]SourceValue, 0, len(field.OneOf))
		for _, choice := range field.OneOf {
			entry := SourceValue{Value: schemadoc.ValueString(choice.Const), Label: choice.Title}
			if entry.Label == "" {
				entry.Label = entry.Value
			}
			values = append(values, entry)
		}
		return values
	default:
		return nil
	}
}

// typedValue returns the enum or oneOf value of source whose string form is
// value, so numeric and boolean sources compare with const correctly. It
// falls back to the string itself.
func typedValue(source schemadoc.FieldSchema, value string) any {
	for _, candidate := range source.Enum {
		if schemadoc.ValueString(candidate) == value {
			return candidate
		}
	}
	for _, choice := range source.OneOf {
		if schemadoc.ValueString(choice.Const) == value {
			return choice.Const
		}
	}
	return value
}

// removeConditions filters rules targeting name out of an owned schema.
func removeConditions(schema schemadoc.Schema, name string) schemadoc.Schema {
	return filterRules(schema, func(rule schemadoc.ConditionRule) bool {
		return rule.Targets(name)
	})
}

// removeDependents filters rules whose if clause reads name.
func removeDependents(schema schemadoc.Schema, name string) schemadoc.Schema {
	return filterRules(schema, func(rule schemadoc.ConditionRule) bool {
		return rule.If != nil && rule.If.Properties.Has(name)
	})
}

func filterRules(schema schemadoc.Schema, drop func(schemadoc.ConditionRule) bool) schemadoc.Schema {
	if len(schema.AllOf) == 0 {
		return schema
	}
	kept := make([]schemadoc.ConditionRule, 0, len(schema.AllOf))
	for _, rule := range schema.AllOf {
		if drop(rule) {
			continue
		}
		kept = append(kept, rule)
	}
	if len(kept) == 0 {
		kept = nil
	}
	schema.AllOf = kept
	return schema
}

// renameConditionRefs rewrites source and target references of oldName in
// an owned schema.
func renameConditionRefs(schema schemadoc.Schema, oldName, newName string) schemadoc.Schema {
	for idx := range schema.AllOf {
		rule := &schema.AllOf[idx]
		if rule.If != nil {
			rule.If.Properties.Rename(oldName, newName)
		}
		if rule.Then != nil {
			rule.Then.Required = replaceName(rule.Then.Required, oldName, newName)
			rule.Then.Properties.Rename(oldName, newName)
		}
	}
	return schema
}
