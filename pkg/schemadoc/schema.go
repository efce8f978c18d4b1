package schemadoc

import (
	"fmt"
	"slices"

	"github.com/goccy/go-json"
)

// JSON Schema keywords understood by the builder.
const (
	KeyType        = "type"
	KeyTitle       = "title"
	KeyDescription = "description"
	KeyFormat      = "format"
	KeyConst       = "const"
	KeyEnum        = "enum"
	KeyEnumNames   = "enumNames"
	KeyOneOf       = "oneOf"
	KeyProperties  = "properties"
	KeyRequired    = "required"
	KeyAllOf       = "allOf"
	KeyIf          = "if"
	KeyThen        = "then"
)

// TypeObject is the root schema type.
const TypeObject = "object"

// Schema is the root JSON Schema of a form.
type Schema struct {
	Type       string
	Properties Properties
	Required   []string
	AllOf      []ConditionRule
	Extra      map[string]any
}

// NewSchema returns the empty document used for new resources.
func NewSchema() Schema {
	return Schema{Type: TypeObject, Properties: NewProperties()}
}

// Field returns the schema of the named property.
func (s Schema) Field(name string) (FieldSchema, bool) {
	return s.Properties.Get(name)
}

// IsRequired reports whether name is listed in required.
func (s Schema) IsRequired(name string) bool {
	return slices.Contains(s.Required, name)
}

// Clone returns a deep copy.
func (s Schema) Clone() Schema {
	out := Schema{
		Type:       s.Type,
		Properties: s.Properties.Clone(),
		Required:   cloneStrings(s.Required),
		Extra:      cloneMap(s.Extra),
	}
	if len(s.AllOf) > 0 {
		out.AllOf = make([]ConditionRule, len(s.AllOf))
		for idx, rule := range s.AllOf {
			out.AllOf[idx] = rule.Clone()
		}
	}
	return out
}

// MarshalJSON encodes the schema with a stable key order and omits empty
// required and allOf lists.
func (s Schema) MarshalJSON() ([]byte, error) {
	var b objectBuilder
	b.addExtra(s.Extra, "$schema", "$id")
	b.addString(KeyType, s.Type)
	b.addExtra(s.Extra, KeyTitle, KeyDescription)
	if s.Properties.Present() {
		b.add(KeyProperties, s.Properties)
	}
	if len(s.Required) > 0 {
		b.add(KeyRequired, s.Required)
	}
	if len(s.AllOf) > 0 {
		b.add(KeyAllOf, s.AllOf)
	}
	b.addExtra(s.Extra)
	return b.bytes()
}

// UnmarshalJSON decodes a schema object. Keywords with an unexpected shape
// are kept in Extra.
func (s *Schema) UnmarshalJSON(data []byte) error {
	keys, raw, err := decodeObject(data)
	if err != nil {
		return err
	}
	out := Schema{}
	for _, key := range keys {
		value := raw[key]
		handled := false
		switch key {
		case KeyType:
			handled = decodeInto(value, &out.Type)
		case KeyProperties:
			handled = decodeInto(value, &out.Properties)
		case KeyRequired:
			handled = decodeInto(value, &out.Required)
		case KeyAllOf:
			handled = decodeInto(value, &out.AllOf)
		}
		if handled {
			continue
		}
		if err := out.setExtraRaw(key, value); err != nil {
			return err
		}
	}
	*s = out
	return nil
}

func (s *Schema) setExtraRaw(key string, value json.RawMessage) error {
	decoded, err := decodeAny(value)
	if err != nil {
		return fmt.Errorf("schemadoc: decode %q: %w", key, err)
	}
	if s.Extra == nil {
		s.Extra = make(map[string]any)
	}
	s.Extra[key] = decoded
	return nil
}

// Choice is one entry of a oneOf value set.
type Choice struct {
	Const any    `json:"const"`
	Title string `json:"title,omitempty"`
}

// FieldSchema describes one form field. Unknown keywords live in Extra.
type FieldSchema struct {
	Type        string
	Title       string
	Description string
	Format      string
	Const       any
	Enum        []any
	EnumNames   []string
	OneOf       []Choice
	Extra       map[string]any
}

// HasEnum reports whether the field carries an enum value set.
func (f FieldSchema) HasEnum() bool {
	return len(f.Enum) > 0
}

// HasOneOf reports whether the field carries a oneOf value set.
func (f FieldSchema) HasOneOf() bool {
	return len(f.OneOf) > 0
}

// Clone returns a deep copy.
func (f FieldSchema) Clone() FieldSchema {
	out := f
	out.Const = cloneAny(f.Const)
	out.Enum = cloneSlice(f.Enum)
	out.EnumNames = cloneStrings(f.EnumNames)
	if len(f.OneOf) > 0 {
		out.OneOf = make([]Choice, len(f.OneOf))
		for idx, choice := range f.OneOf {
			out.OneOf[idx] = Choice{Const: cloneAny(choice.Const), Title: choice.Title}
		}
	}
	out.Extra = cloneMap(f.Extra)
	return out
}

// Merge returns the field with update shallow-merged on top. A nil value in
// update removes the key.
func (f FieldSchema) Merge(update Update) (FieldSchema, error) {
	if len(update) == 0 {
		return f.Clone(), nil
	}
	merged, err := mergeObject(f, update)
	if err != nil {
		return f, err
	}
	var out FieldSchema
	if err := json.Unmarshal(merged, &out); err != nil {
		return f, fmt.Errorf("schemadoc: merge field: %w", err)
	}
	return out, nil
}

// MarshalJSON encodes the field with a stable key order.
func (f FieldSchema) MarshalJSON() ([]byte, error) {
	var b objectBuilder
	b.addString(KeyType, f.Type)
	b.addString(KeyTitle, f.Title)
	b.addString(KeyDescription, f.Description)
	b.addString(KeyFormat, f.Format)
	if f.Const != nil {
		b.add(KeyConst, f.Const)
	}
	if len(f.Enum) > 0 {
		b.add(KeyEnum, f.Enum)
	}
	if len(f.EnumNames) > 0 {
		b.add(KeyEnumNames, f.EnumNames)
	}
	if len(f.OneOf) > 0 {
		b.add(KeyOneOf, f.OneOf)
	}
	b.addExtra(f.Extra)
	return b.bytes()
}

// UnmarshalJSON decodes a field object. Keywords with an unexpected shape
// are kept in Extra.
func (f *FieldSchema) UnmarshalJSON(data []byte) error {
	keys, raw, err := decodeObject(data)
	if err != nil {
		return err
	}
	out := FieldSchema{}
	for _, key := range keys {
		value := raw[key]
		handled := false
		switch key {
		case KeyType:
			handled = decodeInto(value, &out.Type)
		case KeyTitle:
			handled = decodeInto(value, &out.Title)
		case KeyDescription:
			handled = decodeInto(value, &out.Description)
		case KeyFormat:
			handled = decodeInto(value, &out.Format)
		case KeyConst:
			if !isNull(value) {
				out.Const, err = decodeAny(value)
				handled = err == nil
			}
		case KeyEnum:
			handled = decodeInto(value, &out.Enum)
		case KeyEnumNames:
			handled = decodeInto(value, &out.EnumNames)
		case KeyOneOf:
			out.OneOf, handled = decodeChoices(value)
		}
		if handled {
			continue
		}
		decoded, err := decodeAny(value)
		if err != nil {
			return fmt.Errorf("schemadoc: decode %q: %w", key, err)
		}
		if out.Extra == nil {
			out.Extra = make(map[string]any)
		}
		out.Extra[key] = decoded
	}
	*f = out
	return nil
}

// decodeChoices accepts oneOf lists made only of {const, title} entries.
// Anything richer stays in Extra untouched.
func decodeChoices(value json.RawMessage) ([]Choice, bool) {
	var entries []map[string]any
	if isNull(value) || json.Unmarshal(value, &entries) != nil {
		return nil, false
	}
	choices := make([]Choice, 0, len(entries))
	for _, entry := range entries {
		constValue, ok := entry[KeyConst]
		if !ok || constValue == nil {
			return nil, false
		}
		choice := Choice{Const: constValue}
		for key, v := range entry {
			switch key {
			case KeyConst:
			case KeyTitle:
				title, ok := v.(string)
				if !ok {
					return nil, false
				}
				choice.Title = title
			default:
				return nil, false
			}
		}
		choices = append(choices, choice)
	}
	return choices, true
}

// RuleClause is the if or then part of a condition rule.
type RuleClause struct {
	Properties Properties
	Required   []string
	Extra      map[string]any
}

// Clone returns a deep copy.
func (c *RuleClause) Clone() *RuleClause {
	if c == nil {
		return nil
	}
	return &RuleClause{
		Properties: c.Properties.Clone(),
		Required:   cloneStrings(c.Required),
		Extra:      cloneMap(c.Extra),
	}
}

// MarshalJSON encodes the clause.
func (c RuleClause) MarshalJSON() ([]byte, error) {
	var b objectBuilder
	if c.Properties.Present() {
		b.add(KeyProperties, c.Properties)
	}
	if len(c.Required) > 0 {
		b.add(KeyRequired, c.Required)
	}
	b.addExtra(c.Extra)
	return b.bytes()
}

// UnmarshalJSON decodes the clause.
func (c *RuleClause) UnmarshalJSON(data []byte) error {
	keys, raw, err := decodeObject(data)
	if err != nil {
		return err
	}
	out := RuleClause{}
	for _, key := range keys {
		value := raw[key]
		handled := false
		switch key {
		case KeyProperties:
			handled = decodeInto(value, &out.Properties)
		case KeyRequired:
			handled = decodeInto(value, &out.Required)
		}
		if handled {
			continue
		}
		decoded, err := decodeAny(value)
		if err != nil {
			return fmt.Errorf("schemadoc: decode %q: %w", key, err)
		}
		if out.Extra == nil {
			out.Extra = make(map[string]any)
		}
		out.Extra[key] = decoded
	}
	*c = out
	return nil
}

// ConditionRule is one allOf entry. The builder writes rules of the shape
// {"if":{"properties":{src:{"const":v}}},"then":{"required":[target]}}.
type ConditionRule struct {
	If    *RuleClause
	Then  *RuleClause
	Extra map[string]any
}

// Clone returns a deep copy.
func (r ConditionRule) Clone() ConditionRule {
	return ConditionRule{
		If:    r.If.Clone(),
		Then:  r.Then.Clone(),
		Extra: cloneMap(r.Extra),
	}
}

// Targets reports whether the rule's then clause references field, either
// through required or through relocated properties.
func (r ConditionRule) Targets(field string) bool {
	if r.Then == nil {
		return false
	}
	return slices.Contains(r.Then.Required, field) || r.Then.Properties.Has(field)
}

// MarshalJSON encodes the rule.
func (r ConditionRule) MarshalJSON() ([]byte, error) {
	var b objectBuilder
	if r.If != nil {
		b.add(KeyIf, r.If)
	}
	if r.Then != nil {
		b.add(KeyThen, r.Then)
	}
	b.addExtra(r.Extra)
	return b.bytes()
}

// UnmarshalJSON decodes the rule.
func (r *ConditionRule) UnmarshalJSON(data []byte) error {
	keys, raw, err := decodeObject(data)
	if err != nil {
		return err
	}
	out := ConditionRule{}
	for _, key := range keys {
		value := raw[key]
		handled := false
		switch key {
		case KeyIf:
			var clause RuleClause
			if handled = decodeInto(value, &clause); handled {
				out.If = &clause
			}
		case KeyThen:
			var clause RuleClause
			if handled = decodeInto(value, &clause); handled {
				out.Then = &clause
			}
		}
		if handled {
			continue
		}
		decoded, err := decodeAny(value)
		if err != nil {
			return fmt.Errorf("schemadoc: decode %q: %w", key, err)
		}
		if out.Extra == nil {
			out.Extra = make(map[string]any)
		}
		out.Extra[key] = decoded
	}
	*r = out
	return nil
}

// Pair is the schema and UI schema edited together.
type Pair struct {
	Schema Schema   `json:"schema"`
	UI     UISchema `json:"uiSchema"`
}

// NewPair returns the empty document pair for a new resource.
func NewPair() Pair {
	return Pair{Schema: NewSchema()}
}

// Clone returns a deep copy.
func (p Pair) Clone() Pair {
	return Pair{Schema: p.Schema.Clone(), UI: p.UI.Clone()}
}
