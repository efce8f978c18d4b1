package render

import (
	"fmt"

	"github.com/goliatone/go-formbuilder/pkg/fieldtypes"
	"github.com/goliatone/go-formbuilder/pkg/preview"
	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
	"github.com/goliatone/go-formbuilder/pkg/visibility"
)

// Input kinds understood by the preview template.
const (
	InputText     = "text"
	InputTextarea = "textarea"
	InputNumber   = "number"
	InputCheckbox = "checkbox"
	InputSelect   = "select"
	InputCombobox = "combobox"
	InputRadio    = "radio"
	InputDate     = "date"
	InputRichtext = "richtext"
)

var inputByFieldType = map[fieldtypes.FieldType]string{
	fieldtypes.Text:        InputText,
	fieldtypes.Textarea:    InputTextarea,
	fieldtypes.Number:      InputNumber,
	fieldtypes.Checkbox:    InputCheckbox,
	fieldtypes.Select:      InputSelect,
	fieldtypes.Combobox:    InputCombobox,
	fieldtypes.Radiobutton: InputRadio,
	fieldtypes.Date:        InputDate,
	fieldtypes.Richtext:    InputRichtext,
}

// Form is the template model of a preview.
type Form struct {
	Action string        `json:"action,omitempty"`
	Hidden []HiddenField `json:"hidden,omitempty"`
	Fields []FieldView   `json:"fields"`
	Errors []string      `json:"errors,omitempty"`
	Theme  ThemeView     `json:"theme"`
}

// FieldView is one rendered field.
type FieldView struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Label            string       `json:"label"`
	Description      string       `json:"description,omitempty"`
	DescriptionBelow bool         `json:"descriptionBelow"`
	Placeholder      string       `json:"placeholder,omitempty"`
	Input            string       `json:"input"`
	Required         bool         `json:"required"`
	Paired           bool         `json:"paired"`
	Value            string       `json:"value,omitempty"`
	HTML             string       `json:"html,omitempty"`
	Checked          bool         `json:"checked"`
	Options          []OptionView `json:"options,omitempty"`
	Errors           []string     `json:"errors,omitempty"`
}

// OptionView is one choice of a select, combobox or radio group.
type OptionView struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// View builds the template model: visible fields in field order with their
// values, options and validation messages.
func (r *HTMLRenderer) View(pair schemadoc.Pair, options Options) (Form, error) {
	order := r.engine.FieldOrder(pair)
	rules := visibility.Rules(preview.Transform(pair.Schema))
	vctx := visibility.Context{Values: options.Values, Extras: options.Extras}
	mapping := MapIssues(options.Issues, order)

	form := Form{
		Action: options.Action,
		Hidden: SortedHiddenFields(options.Hidden),
		Errors: mapping.Form,
	}

	for _, name := range order {
		visible, err := visibility.Visible(r.evaluator, rules, name, vctx)
		if err != nil {
			return Form{}, fmt.Errorf("render: visibility of %q: %w", name, err)
		}
		if !visible {
			continue
		}
		field, ok := r.fieldView(pair, name, options.Values[name])
		if !ok {
			continue
		}
		field.Errors = mapping.Fields[name]
		form.Fields = append(form.Fields, field)
	}
	return form, nil
}

func (r *HTMLRenderer) fieldView(pair schemadoc.Pair, name string, value any) (FieldView, bool) {
	info, ok := r.engine.FieldInfo(pair, name)
	if !ok {
		return FieldView{}, false
	}
	field, _ := pair.Schema.Field(name)
	entry, _ := pair.UI.Field(name)

	view := FieldView{
		ID:               "field-" + name,
		Name:             name,
		Label:            firstNonEmpty(entry.Title, field.Title, name),
		Description:      r.sanitizer.Sanitize(firstNonEmpty(entry.Description, field.Description)),
		DescriptionBelow: entry.OptionBool(schemadoc.OptionDescriptionBelow),
		Placeholder:      entry.OptionString(schemadoc.OptionPlaceholder),
		Input:            inputByFieldType[info.FieldType],
		Required:         info.Required,
		Paired:           entry.OptionString(schemadoc.OptionLayout) == schemadoc.LayoutPaired,
		Value:            schemadoc.ValueString(value),
	}
	if view.Input == "" {
		view.Input = InputText
	}
	if !view.Required {
		if cond, has := r.engine.FieldCondition(pair.Schema, name); has && cond.RequiredWhenVisible {
			view.Required = true
		}
	}

	switch view.Input {
	case InputCheckbox:
		view.Checked = value == true || view.Value == "true"
		view.Value = ""
	case InputRichtext:
		view.HTML = r.sanitizer.Sanitize(view.Value)
	}
	view.Options = optionViews(field, view.Value)
	return view, true
}

func optionViews(field schemadoc.FieldSchema, current string) []OptionView {
	var out []OptionView
	switch {
	case field.HasOneOf():
		for _, choice := range field.OneOf {
			value := schemadoc.ValueString(choice.Const)
			out = append(out, OptionView{
				Value:    value,
				Label:    firstNonEmpty(choice.Title, value),
				Selected: current != "" && value == current,
			})
		}
	case field.HasEnum():
		for idx, raw := range field.Enum {
			value := schemadoc.ValueString(raw)
			label := value
			if idx < len(field.EnumNames) && field.EnumNames[idx] != "" {
				label = field.EnumNames[idx]
			}
			out = append(out, OptionView{
				Value:    value,
				Label:    label,
				Selected: current != "" && value == current,
			})
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
