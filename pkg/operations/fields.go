package operations

import (
	"slices"

	"github.com/goliatone/go-formbuilder/pkg/fieldtypes"
	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
)

// AddField inserts a field of type ft named name at index in the canvas
// order. A negative or out of range index appends. When the UI schema has no
// ui:order yet it is seeded from the current property order first.
func (e *Engine) AddField(pair schemadoc.Pair, name string, ft fieldtypes.FieldType, index int) schemadoc.Pair {
	cfg, ok := e.fieldTypes.Lookup(ft)
	if !ok || !validName(name) || pair.Schema.Properties.Has(name) {
		return pair
	}

	out := pair.Clone()
	field := schemadoc.FieldSchema{
		Type:   cfg.SchemaType,
		Title:  name,
		Format: cfg.Format,
	}
	if cfg.HasEnum {
		field.Enum, field.EnumNames = e.fieldTypes.PlaceholderEnum()
	}
	if out.Schema.Type == "" {
		out.Schema.Type = schemadoc.TypeObject
	}
	out.Schema.Properties.Set(name, field)

	order := out.UI.Order
	if len(order) == 0 {
		order = pair.Schema.Properties.Keys()
	}
	if index >= 0 && index <= len(order) {
		order = slices.Insert(order, index, name)
	} else {
		order = append(order, name)
	}
	out.UI.Order = order

	if cfg.Widget != "" {
		out.UI.Fields.Set(name, schemadoc.FieldUISchema{Widget: cfg.Widget})
	}
	return out
}

// RemoveField deletes a field together with its required flag, its UI
// entry, its ui:order slot, and every condition rule that targets it or
// depends on it.
func (e *Engine) RemoveField(pair schemadoc.Pair, name string) schemadoc.Pair {
	out := pair.Clone()
	out.Schema = removeConditions(out.Schema, name)
	out.Schema = removeDependents(out.Schema, name)
	out.Schema.Properties.Delete(name)
	out.Schema.Required = without(out.Schema.Required, name)
	out.UI.Fields.Delete(name)
	out.UI.Order = without(out.UI.Order, name)
	return out
}

// UpdateFieldSchema shallow-merges update into the named field. A nil value
// clears the key. Setting enum drops oneOf and setting oneOf drops
// enum/enumNames so a field never carries both encodings.
func (e *Engine) UpdateFieldSchema(schema schemadoc.Schema, name string, update schemadoc.Update) schemadoc.Schema {
	field, ok := schema.Field(name)
	if !ok || len(update) == 0 {
		return schema
	}
	merged, err := field.Merge(update)
	if err != nil {
		return schema
	}
	merged = exclusiveValueSet(merged, update)

	out := schema.Clone()
	out.Properties.Set(name, merged)
	return out
}

func exclusiveValueSet(field schemadoc.FieldSchema, update schemadoc.Update) schemadoc.FieldSchema {
	switch {
	case update[schemadoc.KeyEnum] != nil:
		field.OneOf = nil
		delete(field.Extra, schemadoc.KeyOneOf)
	case update[schemadoc.KeyOneOf] != nil:
		field.Enum = nil
		field.EnumNames = nil
		delete(field.Extra, schemadoc.KeyEnum)
		delete(field.Extra, schemadoc.KeyEnumNames)
	}
	if len(field.Extra) == 0 {
		field.Extra = nil
	}
	return field
}

// UpdateFieldUISchema shallow-merges update into the named UI entry,
// creating it when missing. Entries left without hints are removed.
func (e *Engine) UpdateFieldUISchema(ui schemadoc.UISchema, name string, update schemadoc.Update) schemadoc.UISchema {
	if !validName(name) || len(update) == 0 {
		return ui
	}
	entry, _ := ui.Field(name)
	merged, err := entry.Merge(update)
	if err != nil {
		return ui
	}

	out := ui.Clone()
	if merged.IsEmpty() {
		out.Fields.Delete(name)
		return out
	}
	out.Fields.Set(name, merged)
	return out
}

// RenameField moves a field to a new key in place. The title follows the
// rename when it still equals the old name; required, ui:order and the UI
// entry follow too.
func (e *Engine) RenameField(pair schemadoc.Pair, oldName, newName string) schemadoc.Pair {
	if oldName == newName || !validName(newName) {
		return pair
	}
	if !pair.Schema.Properties.Has(oldName) || pair.Schema.Properties.Has(newName) {
		return pair
	}

	out := pair.Clone()
	field, _ := out.Schema.Properties.Get(oldName)
	if field.Title == oldName {
		field.Title = newName
	}
	out.Schema.Properties.Set(oldName, field)
	out.Schema.Properties.Rename(oldName, newName)
	out.Schema.Required = replaceName(out.Schema.Required, oldName, newName)

	out.UI.Order = replaceName(out.UI.Order, oldName, newName)
	if out.UI.Fields.Has(oldName) {
		out.UI.Fields.Delete(newName)
		out.UI.Fields.Rename(oldName, newName)
	}

	if e.renameConditions {
		out.Schema = renameConditionRefs(out.Schema, oldName, newName)
	}
	return out
}

// ToggleRequired adds name to required or removes it. Names that are not
// properties can only be removed.
func (e *Engine) ToggleRequired(schema schemadoc.Schema, name string) schemadoc.Schema {
	if schema.IsRequired(name) {
		out := schema.Clone()
		out.Required = without(out.Required, name)
		return out
	}
	if !schema.Properties.Has(name) {
		return schema
	}
	out := schema.Clone()
	out.Required = append(out.Required, name)
	return out
}
