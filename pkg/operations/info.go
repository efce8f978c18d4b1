package operations

import (
	"github.com/goliatone/go-formbuilder/pkg/fieldtypes"
	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
	"github.com/goliatone/go-formbuilder/pkg/widgets"
)

// FieldInfo is the display summary of one field on the canvas.
type FieldInfo struct {
	Name         string               `json:"name"`
	Title        string               `json:"title"`
	SchemaType   string               `json:"schemaType"`
	Widget       string               `json:"widget,omitempty"`
	FieldType    fieldtypes.FieldType `json:"fieldType"`
	Label        string               `json:"label"`
	Required     bool                 `json:"required"`
	HasCondition bool                 `json:"hasCondition"`
}

// FieldInfo summarises the named field. The boolean is false when the field
// does not exist.
func (e *Engine) FieldInfo(pair schemadoc.Pair, name string) (FieldInfo, bool) {
	field, ok := pair.Schema.Field(name)
	if !ok {
		return FieldInfo{}, false
	}
	entry, _ := pair.UI.Field(name)

	schemaType := field.Type
	if schemaType == "" {
		schemaType = "string"
	}
	title := field.Title
	if title == "" {
		title = name
	}
	ft := e.widgets.Resolve(widgets.Field{
		SchemaType: schemaType,
		Format:     field.Format,
		Widget:     entry.Widget,
		HasOptions: field.HasEnum() || field.HasOneOf(),
	})
	_, conditioned := e.FieldCondition(pair.Schema, name)

	return FieldInfo{
		Name:         name,
		Title:        title,
		SchemaType:   schemaType,
		Widget:       entry.Widget,
		FieldType:    ft,
		Label:        e.fieldTypes.Label(ft),
		Required:     pair.Schema.IsRequired(name),
		HasCondition: conditioned,
	}, true
}

// Fields summarises every field in canvas order.
func (e *Engine) Fields(pair schemadoc.Pair) []FieldInfo {
	order := e.FieldOrder(pair)
	out := make([]FieldInfo, 0, len(order))
	for _, name := range order {
		if info, ok := e.FieldInfo(pair, name); ok {
			out = append(out, info)
		}
	}
	return out
}
