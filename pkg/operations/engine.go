// Package operations implements the pure transformations the form builder
// applies to a schema document pair.
//
// Every method takes the current document and returns a new one; inputs are
// never modified. Requests that cannot be applied (an unknown field type, a
// rename onto a taken name, an out of range reorder) return the input
// unchanged instead of failing.
package operations

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-formbuilder/pkg/fieldtypes"
	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
	"github.com/goliatone/go-formbuilder/pkg/widgets"
)

// Append as an insert index places a new field last.
const Append = -1

// Engine applies builder operations. It holds only immutable configuration
// and is safe for concurrent use.
type Engine struct {
	fieldTypes       *fieldtypes.Table
	widgets          *widgets.Registry
	renameConditions bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithFieldTypes replaces the palette table.
func WithFieldTypes(table *fieldtypes.Table) Option {
	return func(e *Engine) {
		e.fieldTypes = table
	}
}

// WithWidgets replaces the registry used to infer palette types.
func WithWidgets(registry *widgets.Registry) Option {
	return func(e *Engine) {
		e.widgets = registry
	}
}

// WithConditionAwareRename makes RenameField rewrite condition rules that
// reference the old name. Off by default: renamed fields otherwise keep
// rules pointing at the old name.
func WithConditionAwareRename(enabled bool) Option {
	return func(e *Engine) {
		e.renameConditions = enabled
	}
}

// New constructs an Engine.
func New(options ...Option) *Engine {
	engine := &Engine{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(engine)
	}
	if engine.fieldTypes == nil {
		engine.fieldTypes = fieldtypes.Default()
	}
	if engine.widgets == nil {
		engine.widgets = widgets.NewRegistry()
	}
	return engine
}

// FieldTypes returns the palette table.
func (e *Engine) FieldTypes() *fieldtypes.Table {
	return e.fieldTypes
}

// GenerateFieldName returns the type name itself when free, otherwise the
// first free name among type1, type2, ...
func (e *Engine) GenerateFieldName(schema schemadoc.Schema, ft fieldtypes.FieldType) string {
	base := string(ft)
	if !schema.Properties.Has(base) {
		return base
	}
	for n := 1; ; n++ {
		candidate := base + strconv.Itoa(n)
		if !schema.Properties.Has(candidate) {
			return candidate
		}
	}
}

// validName rejects names that would collide with UI schema root keys.
func validName(name string) bool {
	if strings.TrimSpace(name) == "" || name == schemadoc.OrderWildcard {
		return false
	}
	return !strings.HasPrefix(name, "ui:")
}

func without(list []string, name string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item != name {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func replaceName(list []string, from, to string) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	for idx, item := range list {
		if item == from {
			item = to
		}
		out[idx] = item
	}
	return out
}
