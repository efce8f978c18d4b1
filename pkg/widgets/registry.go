package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formbuilder/pkg/fieldtypes"
)

// Field is the part of a field definition the registry inspects.
type Field struct {
	SchemaType string
	Format     string
	Widget     string
	HasOptions bool
}

// Matcher decides whether a field belongs to a palette type.
type Matcher func(field Field) bool

type rule struct {
	fieldType fieldtypes.FieldType
	priority  int
	match     Matcher
	order     int
}

// Registry infers the palette type of existing fields from their schema type,
// format, and ui:widget. Higher priority wins; ties fall back to
// registration order. Fields nothing matches resolve to the fallback type.
type Registry struct {
	mu       sync.RWMutex
	rules    []rule
	fallback fieldtypes.FieldType
}

// NewRegistry constructs a registry with the built-in matchers registered.
func NewRegistry() *Registry {
	reg := &Registry{fallback: fieldtypes.Text}
	reg.registerBuiltins()
	return reg
}

// NewEmptyRegistry constructs a registry without matchers.
func NewEmptyRegistry(fallback fieldtypes.FieldType) *Registry {
	return &Registry{fallback: fallback}
}

// Register adds a matcher for ft with the provided priority.
func (r *Registry) Register(ft fieldtypes.FieldType, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	if strings.TrimSpace(string(ft)) == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		fieldType: ft,
		priority:  priority,
		match:     matcher,
		order:     len(r.rules),
	})
}

// Resolve returns the palette type for field.
func (r *Registry) Resolve(field Field) fieldtypes.FieldType {
	if r == nil {
		return fieldtypes.Text
	}
	r.mu.RLock()
	rules := append([]rule(nil), r.rules...)
	fallback := r.fallback
	r.mu.RUnlock()

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.fieldType
		}
	}
	return fallback
}

// Normalize lower-cases and trims a widget name for comparison.
func Normalize(widget string) string {
	return strings.ToLower(strings.TrimSpace(widget))
}

// NeedsOptions reports whether switching a field to widget requires a closed
// value set to be seeded.
func NeedsOptions(widget string) bool {
	switch Normalize(widget) {
	case "select", "combobox", "comboboxwidget", "radiobutton", "radiobuttonwidget":
		return true
	default:
		return false
	}
}

// ShowsOptions reports whether the options editor applies to widget.
func ShowsOptions(widget string) bool {
	return NeedsOptions(widget) || Normalize(widget) == "radio"
}

func widgetIn(field Field, names ...string) bool {
	widget := Normalize(field.Widget)
	if widget == "" {
		return false
	}
	for _, name := range names {
		if widget == name {
			return true
		}
	}
	return false
}

func (r *Registry) registerBuiltins() {
	r.Register(fieldtypes.Checkbox, 100, func(field Field) bool {
		return field.SchemaType == "boolean"
	})

	r.Register(fieldtypes.Number, 90, func(field Field) bool {
		return field.SchemaType == "number" || field.SchemaType == "integer"
	})

	r.Register(fieldtypes.Textarea, 80, func(field Field) bool {
		return widgetIn(field, "textarea", "textareawidget")
	})

	r.Register(fieldtypes.Richtext, 70, func(field Field) bool {
		return widgetIn(field, "texteditor", "texteditorwidget", "richtext")
	})

	r.Register(fieldtypes.Date, 60, func(field Field) bool {
		return widgetIn(field, "date", "datewidget") || field.Format == "date"
	})

	r.Register(fieldtypes.Combobox, 50, func(field Field) bool {
		return widgetIn(field, "combobox", "comboboxwidget")
	})

	r.Register(fieldtypes.Radiobutton, 40, func(field Field) bool {
		return widgetIn(field, "radiobutton", "radiobuttonwidget", "radio")
	})

	r.Register(fieldtypes.Select, 30, func(field Field) bool {
		return widgetIn(field, "select", "selectwidget") || field.HasOptions
	})
}
