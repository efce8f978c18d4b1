package schemadoc

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// UI schema keys.
const (
	UIOrder       = "ui:order"
	UIWidget      = "ui:widget"
	UITitle       = "ui:title"
	UIDescription = "ui:description"
	UIOptions     = "ui:options"
)

// ui:options keys.
const (
	OptionPlaceholder      = "placeholder"
	OptionClassName        = "className"
	OptionDescriptionBelow = "descriptionBelow"
	OptionLayout           = "layout"
)

// LayoutPaired places a field next to its neighbour.
const LayoutPaired = "paired"

// OrderWildcard in ui:order stands for every field not listed explicitly.
const OrderWildcard = "*"

// UISchema holds presentation hints keyed by field name plus the root
// ui:order list.
type UISchema struct {
	Order  []string
	Fields UIFields
	Extra  map[string]any
}

// Field returns the UI entry of the named field.
func (u UISchema) Field(name string) (FieldUISchema, bool) {
	return u.Fields.Get(name)
}

// Clone returns a deep copy.
func (u UISchema) Clone() UISchema {
	return UISchema{
		Order:  cloneStrings(u.Order),
		Fields: u.Fields.Clone(),
		Extra:  cloneMap(u.Extra),
	}
}

// MarshalJSON encodes ui:order first, then root ui:* keys, then field
// entries in insertion order. Empty field entries are dropped.
func (u UISchema) MarshalJSON() ([]byte, error) {
	var b objectBuilder
	if len(u.Order) > 0 {
		b.add(UIOrder, u.Order)
	}
	b.addExtra(u.Extra)
	for name, entry := range u.Fields.All() {
		if entry.IsEmpty() {
			continue
		}
		b.add(name, entry)
	}
	return b.bytes()
}

// UnmarshalJSON decodes a UI schema object. Root keys prefixed with "ui:"
// other than ui:order, and entries that are not objects, go to Extra.
func (u *UISchema) UnmarshalJSON(data []byte) error {
	keys, raw, err := decodeObject(data)
	if err != nil {
		return err
	}
	out := UISchema{}
	for _, key := range keys {
		value := raw[key]
		if key == UIOrder {
			if decodeInto(value, &out.Order) {
				continue
			}
		} else if !strings.HasPrefix(key, "ui:") {
			var entry FieldUISchema
			if decodeInto(value, &entry) {
				out.Fields.Set(key, entry)
				continue
			}
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
	*u = out
	return nil
}

// FieldUISchema holds the presentation hints of a single field.
type FieldUISchema struct {
	Widget      string
	Title       string
	Description string
	Options     map[string]any
	Extra       map[string]any
}

// IsEmpty reports whether the entry carries no hints.
func (f FieldUISchema) IsEmpty() bool {
	return f.Widget == "" && f.Title == "" && f.Description == "" &&
		len(f.Options) == 0 && len(f.Extra) == 0
}

// Option returns a ui:options value.
func (f FieldUISchema) Option(key string) (any, bool) {
	value, ok := f.Options[key]
	return value, ok
}

// OptionString returns a ui:options value when it is a string.
func (f FieldUISchema) OptionString(key string) string {
	value, _ := f.Options[key].(string)
	return value
}

// OptionBool returns a ui:options value when it is a boolean.
func (f FieldUISchema) OptionBool(key string) bool {
	value, _ := f.Options[key].(bool)
	return value
}

// Clone returns a deep copy.
func (f FieldUISchema) Clone() FieldUISchema {
	out := f
	out.Options = cloneMap(f.Options)
	out.Extra = cloneMap(f.Extra)
	return out
}

// Merge returns the entry with update shallow-merged on top. A nil value in
// update removes the key; nil values inside ui:options are dropped too.
func (f FieldUISchema) Merge(update Update) (FieldUISchema, error) {
	if len(update) == 0 {
		return f.Clone(), nil
	}
	merged, err := mergeObject(f, update)
	if err != nil {
		return f, err
	}
	var out FieldUISchema
	if err := json.Unmarshal(merged, &out); err != nil {
		return f, fmt.Errorf("schemadoc: merge ui entry: %w", err)
	}
	return out, nil
}

// MarshalJSON encodes the entry. Options with nil values and an empty
// ui:options object are omitted.
func (f FieldUISchema) MarshalJSON() ([]byte, error) {
	var b objectBuilder
	b.addString(UIWidget, f.Widget)
	b.addString(UITitle, f.Title)
	b.addString(UIDescription, f.Description)
	if options := compactOptions(f.Options); len(options) > 0 {
		b.add(UIOptions, options)
	}
	b.addExtra(f.Extra)
	return b.bytes()
}

// UnmarshalJSON decodes the entry.
func (f *FieldUISchema) UnmarshalJSON(data []byte) error {
	keys, raw, err := decodeObject(data)
	if err != nil {
		return err
	}
	out := FieldUISchema{}
	for _, key := range keys {
		value := raw[key]
		handled := false
		switch key {
		case UIWidget:
			handled = decodeInto(value, &out.Widget)
		case UITitle:
			handled = decodeInto(value, &out.Title)
		case UIDescription:
			handled = decodeInto(value, &out.Description)
		case UIOptions:
			handled = decodeInto(value, &out.Options)
			out.Options = compactOptions(out.Options)
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

func compactOptions(options map[string]any) map[string]any {
	if len(options) == 0 {
		return nil
	}
	out := make(map[string]any, len(options))
	for key, value := range options {
		if value == nil {
			continue
		}
		out[key] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
