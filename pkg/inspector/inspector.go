// Package inspector derives the property panel of the selected field from
// the builder document and turns panel edits into builder operations.
//
// The inspector owns no document state. It keeps only transient buffers:
// the field name being typed before it is committed on blur, and the
// condition editor selections that are not complete enough to commit yet.
package inspector

import (
	"sync"

	"github.com/goliatone/go-formbuilder/pkg/fieldtypes"
	"github.com/goliatone/go-formbuilder/pkg/operations"
	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
	"github.com/goliatone/go-formbuilder/pkg/widgets"
)

// Editor is the slice of the builder the inspector drives.
type Editor interface {
	Document() schemadoc.Pair
	Selected() string
	Revision() uint64
	RenameField(oldName, newName string) bool
	UpdateFieldSchema(name string, update schemadoc.Update)
	UpdateFieldUISchema(name string, update schemadoc.Update)
	ToggleRequired(name string)
	UpdateCondition(name string, cond *operations.FieldCondition)
}

// WidgetChoice is an entry of the widget selector.
type WidgetChoice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// WidgetChoices lists the selectable widgets. The empty value keeps the
// renderer default.
func WidgetChoices() []WidgetChoice {
	return []WidgetChoice{
		{Value: "", Label: "Standard"},
		{Value: fieldtypes.WidgetText, Label: "Text"},
		{Value: fieldtypes.WidgetTextarea, Label: "Textarea"},
		{Value: fieldtypes.WidgetSelect, Label: "Select"},
		{Value: fieldtypes.WidgetCombobox, Label: "Combobox"},
		{Value: fieldtypes.WidgetRadiobutton, Label: "Radiobutton"},
		{Value: fieldtypes.WidgetCheckbox, Label: "Checkbox"},
		{Value: fieldtypes.WidgetDate, Label: "Datum"},
		{Value: fieldtypes.WidgetTexteditor, Label: "Rich text"},
	}
}

// Option is one row of the options editor.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Encoding names how a field stores its options.
type Encoding string

const (
	EncodingEnum  Encoding = "enum"
	EncodingOneOf Encoding = "oneOf"
)

// View is the property panel of the selected field.
type View struct {
	Field            string               `json:"field"`
	Name             string               `json:"name"`
	Title            string               `json:"title"`
	Description      string               `json:"description,omitempty"`
	Required         bool                 `json:"required"`
	Paired           bool                 `json:"paired"`
	FieldType        fieldtypes.FieldType `json:"fieldType"`
	Widget           string               `json:"widget,omitempty"`
	Placeholder      string               `json:"placeholder,omitempty"`
	UITitle          string               `json:"uiTitle,omitempty"`
	UIDescription    string               `json:"uiDescription,omitempty"`
	DescriptionBelow bool                 `json:"descriptionBelow"`
	ShowOptions      bool                 `json:"showOptions"`
	Encoding         Encoding             `json:"encoding,omitempty"`
	Options          []Option             `json:"options,omitempty"`
	Condition        ConditionView        `json:"condition"`
}

// ConditionView is the state of the condition editor.
type ConditionView struct {
	Available           bool                     `json:"available"`
	Enabled             bool                     `json:"enabled"`
	Sources             []operations.SourceField `json:"sources,omitempty"`
	Source              string                   `json:"source,omitempty"`
	Values              []operations.SourceValue `json:"values,omitempty"`
	Value               string                   `json:"value,omitempty"`
	RequiredWhenVisible bool                     `json:"requiredWhenVisible"`
}

type conditionState struct {
	field    string
	revision uint64
	synced   bool
	enabled  bool
	source   string
	value    string
	required bool
}

// Inspector edits the field selected in an Editor.
type Inspector struct {
	mu      sync.Mutex
	editor  Editor
	engine  *operations.Engine
	nameFor string
	name    string
	cond    conditionState
}

// New binds an inspector to editor. A nil engine uses the defaults.
func New(editor Editor, engine *operations.Engine) *Inspector {
	if engine == nil {
		engine = operations.New()
	}
	return &Inspector{editor: editor, engine: engine}
}

// View derives the panel. The boolean is false when nothing is selected.
func (i *Inspector) View() (View, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	doc, selected, ok := i.current()
	if !ok {
		return View{}, false
	}
	info, _ := i.engine.FieldInfo(doc, selected)
	field, _ := doc.Schema.Field(selected)
	entry, _ := doc.UI.Field(selected)
	encoding, options := optionRows(field)

	view := View{
		Field:            selected,
		Name:             i.name,
		Title:            field.Title,
		Description:      field.Description,
		Required:         info.Required,
		Paired:           entry.OptionString(schemadoc.OptionLayout) == schemadoc.LayoutPaired,
		FieldType:        info.FieldType,
		Widget:           entry.Widget,
		Placeholder:      entry.OptionString(schemadoc.OptionPlaceholder),
		UITitle:          entry.Title,
		UIDescription:    entry.Description,
		DescriptionBelow: entry.OptionBool(schemadoc.OptionDescriptionBelow),
		ShowOptions:      i.showOptions(info, entry, field),
		Encoding:         encoding,
		Options:          options,
		Condition:        i.conditionView(doc, selected),
	}
	return view, true
}

// current returns the document and selection, resetting buffers that belong
// to a previous selection or revision.
func (i *Inspector) current() (schemadoc.Pair, string, bool) {
	selected := i.editor.Selected()
	if selected == "" {
		return schemadoc.Pair{}, "", false
	}
	doc := i.editor.Document()
	if !doc.Schema.Properties.Has(selected) {
		return schemadoc.Pair{}, "", false
	}
	if i.nameFor != selected {
		i.nameFor = selected
		i.name = selected
	}
	revision := i.editor.Revision()
	if !i.cond.synced || i.cond.field != selected || i.cond.revision != revision {
		cond, has := i.engine.FieldCondition(doc.Schema, selected)
		i.cond = conditionState{
			field:    selected,
			revision: revision,
			synced:   true,
			enabled:  has,
			source:   cond.DependsOnField,
			value:    cond.DependsOnValue,
			required: cond.RequiredWhenVisible,
		}
	}
	return doc, selected, true
}

func (i *Inspector) showOptions(info operations.FieldInfo, entry schemadoc.FieldUISchema, field schemadoc.FieldSchema) bool {
	if cfg, ok := i.engine.FieldTypes().Lookup(info.FieldType); ok && cfg.HasEnum {
		return true
	}
	return widgets.ShowsOptions(entry.Widget) || field.HasEnum() || field.HasOneOf()
}

// SetName updates the name buffer without renaming.
func (i *Inspector) SetName(name string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, _, ok := i.current(); ok {
		i.name = name
	}
}

// BlurName commits the name buffer. Blank names and unchanged names are
// not committed; a rejected rename resets the buffer.
func (i *Inspector) BlurName() bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	_, selected, ok := i.current()
	if !ok || i.name == "" || i.name == selected {
		return false
	}
	if !i.editor.RenameField(selected, i.name) {
		i.name = selected
		return false
	}
	i.nameFor = i.name
	return true
}

// SetTitle writes the schema title immediately.
func (i *Inspector) SetTitle(title string) {
	i.updateSchema(schemadoc.Update{schemadoc.KeyTitle: title})
}

// SetDescription writes the schema description; blank clears it.
func (i *Inspector) SetDescription(description string) {
	i.updateSchema(schemadoc.Update{schemadoc.KeyDescription: orNil(description)})
}

// SetUITitle writes ui:title; blank clears it.
func (i *Inspector) SetUITitle(title string) {
	i.updateUI(func(schemadoc.FieldUISchema) schemadoc.Update {
		return schemadoc.Update{schemadoc.UITitle: orNil(title)}
	})
}

// SetUIDescription writes ui:description; blank clears it.
func (i *Inspector) SetUIDescription(description string) {
	i.updateUI(func(schemadoc.FieldUISchema) schemadoc.Update {
		return schemadoc.Update{schemadoc.UIDescription: orNil(description)}
	})
}

// SetDescriptionBelow toggles ui:options.descriptionBelow.
func (i *Inspector) SetDescriptionBelow(below bool) {
	var value any
	if below {
		value = true
	}
	i.setUIOption(schemadoc.OptionDescriptionBelow, value)
}

// SetPlaceholder writes ui:options.placeholder; blank clears it.
func (i *Inspector) SetPlaceholder(placeholder string) {
	i.setUIOption(schemadoc.OptionPlaceholder, orNil(placeholder))
}

// SetPaired toggles the paired layout.
func (i *Inspector) SetPaired(paired bool) {
	var value any
	if paired {
		value = schemadoc.LayoutPaired
	}
	i.setUIOption(schemadoc.OptionLayout, value)
}

// ToggleRequired flips the unconditional required flag.
func (i *Inspector) ToggleRequired() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, selected, ok := i.current(); ok {
		i.editor.ToggleRequired(selected)
	}
}

// SetWidget writes ui:widget. Switching to an option widget seeds the
// default options when the field has none.
func (i *Inspector) SetWidget(widget string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	doc, selected, ok := i.current()
	if !ok {
		return
	}
	i.editor.UpdateFieldUISchema(selected, schemadoc.Update{schemadoc.UIWidget: orNil(widget)})

	field, _ := doc.Schema.Field(selected)
	if widgets.NeedsOptions(widget) && !field.HasEnum() && !field.HasOneOf() {
		values, labels := i.engine.FieldTypes().PlaceholderEnum()
		i.editor.UpdateFieldSchema(selected, schemadoc.Update{
			schemadoc.KeyEnum:      values,
			schemadoc.KeyEnumNames: labels,
		})
	}
}

// SetOptionValue edits the value of option idx.
func (i *Inspector) SetOptionValue(idx int, value string) {
	i.editOptions(func(rows []Option) []Option {
		if idx < 0 || idx >= len(rows) {
			return nil
		}
		rows[idx].Value = value
		return rows
	})
}

// SetOptionLabel edits the label of option idx.
func (i *Inspector) SetOptionLabel(idx int, label string) {
	i.editOptions(func(rows []Option) []Option {
		if idx < 0 || idx >= len(rows) {
			return nil
		}
		rows[idx].Label = label
		return rows
	})
}

// RemoveOption deletes option idx.
func (i *Inspector) RemoveOption(idx int) {
	i.editOptions(func(rows []Option) []Option {
		if idx < 0 || idx >= len(rows) {
			return nil
		}
		return append(rows[:idx:idx], rows[idx+1:]...)
	})
}

// AddOption appends the next numbered placeholder option.
func (i *Inspector) AddOption() {
	i.editOptions(func(rows []Option) []Option {
		value, label := i.engine.FieldTypes().PlaceholderOption(len(rows))
		return append(rows, Option{Value: value, Label: label})
	})
}

// editOptions applies edit to the option rows and writes them back in the
// encoding the field already uses. A nil result cancels the edit.
func (i *Inspector) editOptions(edit func([]Option) []Option) {
	i.mu.Lock()
	defer i.mu.Unlock()

	doc, selected, ok := i.current()
	if !ok {
		return
	}
	field, _ := doc.Schema.Field(selected)
	encoding, rows := optionRows(field)
	if encoding == "" {
		encoding = EncodingEnum
	}
	rows = edit(rows)
	if rows == nil {
		return
	}
	i.editor.UpdateFieldSchema(selected, encodeOptions(field, encoding, rows))
}

func (i *Inspector) updateSchema(update schemadoc.Update) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, selected, ok := i.current(); ok {
		i.editor.UpdateFieldSchema(selected, update)
	}
}

func (i *Inspector) updateUI(build func(schemadoc.FieldUISchema) schemadoc.Update) {
	i.mu.Lock()
	defer i.mu.Unlock()

	doc, selected, ok := i.current()
	if !ok {
		return
	}
	entry, _ := doc.UI.Field(selected)
	i.editor.UpdateFieldUISchema(selected, build(entry))
}

func (i *Inspector) setUIOption(key string, value any) {
	i.updateUI(func(entry schemadoc.FieldUISchema) schemadoc.Update {
		options := make(map[string]any, len(entry.Options)+1)
		for k, v := range entry.Options {
			options[k] = v
		}
		options[key] = value
		return schemadoc.Update{schemadoc.UIOptions: options}
	})
}

func orNil(value string) any {
	if value == "" {
		return nil
	}
	return value
}
