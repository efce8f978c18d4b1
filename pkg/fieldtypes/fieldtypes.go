// Package fieldtypes holds the palette of field kinds the builder can add and
// the schema and widget each of them produces.
package fieldtypes

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FieldType names a palette entry.
type FieldType string

const (
	Text        FieldType = "text"
	Textarea    FieldType = "textarea"
	Number      FieldType = "number"
	Checkbox    FieldType = "checkbox"
	Select      FieldType = "select"
	Combobox    FieldType = "combobox"
	Radiobutton FieldType = "radiobutton"
	Date        FieldType = "date"
	Richtext    FieldType = "richtext"
)

// Widget identifiers written to ui:widget. They are consumed by the form
// renderer and must not change.
const (
	WidgetText        = "TextWidget"
	WidgetTextarea    = "TextareaWidget"
	WidgetCheckbox    = "CheckboxWidget"
	WidgetSelect      = "select"
	WidgetCombobox    = "ComboboxWidget"
	WidgetRadiobutton = "RadiobuttonWidget"
	WidgetDate        = "date"
	WidgetTexteditor  = "TexteditorWidget"
)

// Config describes what adding a field of a given type produces.
type Config struct {
	Type       FieldType `json:"type"`
	Label      string    `json:"label"`
	SchemaType string    `json:"schemaType"`
	Widget     string    `json:"widget,omitempty"`
	HasEnum    bool      `json:"hasEnum,omitempty"`
	Format     string    `json:"format,omitempty"`
}

// Placeholder describes the default value set seeded into option fields.
type Placeholder struct {
	ValuePrefix string
	LabelPrefix string
	Count       int
}

// Table is an immutable lookup of palette entries.
type Table struct {
	entries     []Config
	byType      map[FieldType]Config
	placeholder Placeholder
}

// TableOption customises a Table at construction.
type TableOption func(*Table)

// WithPlaceholder overrides the seeded option values.
func WithPlaceholder(p Placeholder) TableOption {
	return func(t *Table) {
		if p.Count <= 0 {
			return
		}
		t.placeholder = p
	}
}

// NewTable validates entries and builds a table. Entries keep their order
// for palette display.
func NewTable(entries []Config, options ...TableOption) (*Table, error) {
	if len(entries) == 0 {
		return nil, errors.New("fieldtypes: at least one entry is required")
	}
	table := &Table{
		entries: make([]Config, 0, len(entries)),
		byType:  make(map[FieldType]Config, len(entries)),
		placeholder: Placeholder{
			ValuePrefix: "option",
			LabelPrefix: "Alternativ",
			Count:       3,
		},
	}
	for _, entry := range entries {
		if strings.TrimSpace(string(entry.Type)) == "" {
			return nil, errors.New("fieldtypes: entry type is required")
		}
		if strings.TrimSpace(entry.SchemaType) == "" {
			return nil, fmt.Errorf("fieldtypes: %s: schema type is required", entry.Type)
		}
		if _, dup := table.byType[entry.Type]; dup {
			return nil, fmt.Errorf("fieldtypes: duplicate entry %q", entry.Type)
		}
		table.entries = append(table.entries, entry)
		table.byType[entry.Type] = entry
	}
	for _, opt := range options {
		if opt != nil {
			opt(table)
		}
	}
	return table, nil
}

// MustNewTable panics when NewTable fails.
func MustNewTable(entries []Config, options ...TableOption) *Table {
	table, err := NewTable(entries, options...)
	if err != nil {
		panic(err)
	}
	return table
}

var defaultTable = MustNewTable([]Config{
	{Type: Text, Label: "Textfält", SchemaType: "string", Widget: WidgetText},
	{Type: Textarea, Label: "Textområde", SchemaType: "string", Widget: WidgetTextarea},
	{Type: Number, Label: "Nummer", SchemaType: "number", Widget: WidgetText},
	{Type: Checkbox, Label: "Kryssruta", SchemaType: "boolean", Widget: WidgetCheckbox},
	{Type: Select, Label: "Dropdown", SchemaType: "string", Widget: WidgetSelect, HasEnum: true},
	{Type: Combobox, Label: "Sökbar dropdown", SchemaType: "string", Widget: WidgetCombobox, HasEnum: true},
	{Type: Radiobutton, Label: "Radioknappar", SchemaType: "string", Widget: WidgetRadiobutton, HasEnum: true},
	{Type: Date, Label: "Datum", SchemaType: "string", Widget: WidgetDate, Format: "date"},
	{Type: Richtext, Label: "Rich text", SchemaType: "string", Widget: WidgetTexteditor},
})

// Default returns the built-in palette.
func Default() *Table {
	return defaultTable
}

// Lookup returns the entry for ft.
func (t *Table) Lookup(ft FieldType) (Config, bool) {
	if t == nil {
		return Config{}, false
	}
	entry, ok := t.byType[ft]
	return entry, ok
}

// Label returns the palette label of ft, or the type name when unknown.
func (t *Table) Label(ft FieldType) string {
	if entry, ok := t.Lookup(ft); ok {
		return entry.Label
	}
	return string(ft)
}

// All returns the entries in palette order.
func (t *Table) All() []Config {
	if t == nil {
		return nil
	}
	return append([]Config(nil), t.entries...)
}

// PlaceholderOption returns the value and label of the seeded option at
// zero based position idx: option1 / Alternativ 1 and so on.
func (t *Table) PlaceholderOption(idx int) (string, string) {
	p := t.placeholder
	n := strconv.Itoa(idx + 1)
	return p.ValuePrefix + n, p.LabelPrefix + " " + n
}

// PlaceholderEnum returns the default enum and enumNames seeded into new
// option fields.
func (t *Table) PlaceholderEnum() ([]any, []string) {
	count := t.placeholder.Count
	values := make([]any, 0, count)
	labels := make([]string, 0, count)
	for idx := 0; idx < count; idx++ {
		value, label := t.PlaceholderOption(idx)
		values = append(values, value)
		labels = append(labels, label)
	}
	return values, labels
}
