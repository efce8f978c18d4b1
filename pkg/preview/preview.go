// Package preview reshapes an authoring schema into the form a generic
// conditional schema renderer expects.
//
// The builder keeps every field definition in root properties and expresses
// conditions as allOf rules carrying only then.required. Renderers hide a
// conditional field only when its definition lives inside then.properties,
// so Transform relocates those definitions for preview. The authoring
// document itself is never modified.
package preview

import (
	"slices"

	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
)

// Transform moves the definition of every conditionally required field from
// root properties into then.properties of each rule requiring it, and strips
// it from root required. Rules that already carry then.properties pass
// through unchanged. Schemas without relocatable fields are returned as is.
func Transform(schema schemadoc.Schema) schemadoc.Schema {
	if len(schema.AllOf) == 0 {
		return schema
	}

	moved := make(map[string]struct{})
	for _, rule := range schema.AllOf {
		for _, name := range relocatable(schema, rule) {
			moved[name] = struct{}{}
		}
	}
	if len(moved) == 0 {
		return schema
	}

	out := schema.Clone()
	out.Properties = schemadoc.NewProperties()
	for name, field := range schema.Properties.All() {
		if _, ok := moved[name]; ok {
			continue
		}
		out.Properties.Set(name, field.Clone())
	}

	for idx, rule := range schema.AllOf {
		names := relocatable(schema, rule)
		if len(names) == 0 {
			continue
		}
		then := out.AllOf[idx].Then
		then.Properties = schemadoc.NewProperties()
		for _, name := range names {
			field, _ := schema.Field(name)
			then.Properties.Set(name, field.Clone())
		}
	}

	out.Required = slices.DeleteFunc(out.Required, func(name string) bool {
		_, ok := moved[name]
		return ok
	})
	if len(out.Required) == 0 {
		out.Required = nil
	}
	return out
}

// relocatable returns the then.required names of rule whose definitions
// should move into the rule.
func relocatable(schema schemadoc.Schema, rule schemadoc.ConditionRule) []string {
	if rule.If == nil || !rule.If.Properties.Present() || rule.Then == nil {
		return nil
	}
	if rule.Then.Properties.Len() > 0 {
		return nil
	}
	var names []string
	for _, name := range rule.Then.Required {
		if schema.Properties.Has(name) && !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}

// Document returns the preview pair: the transformed schema with the UI
// schema untouched.
func Document(pair schemadoc.Pair) schemadoc.Pair {
	return schemadoc.Pair{Schema: Transform(pair.Schema), UI: pair.UI}
}

// Empty reports whether a schema has nothing to preview.
func Empty(schema schemadoc.Schema) bool {
	return schema.Type == "" && !schema.Properties.Present() &&
		len(schema.Required) == 0 && len(schema.AllOf) == 0 && len(schema.Extra) == 0
}
