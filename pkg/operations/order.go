package operations

import (
	"slices"

	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
)

// ReorderFields moves the ui:order entry at from to position to. Indexes
// outside ui:order leave the document unchanged.
func (e *Engine) ReorderFields(ui schemadoc.UISchema, from, to int) schemadoc.UISchema {
	size := len(ui.Order)
	if from < 0 || from >= size || to < 0 || to >= size || from == to {
		return ui
	}
	out := ui.Clone()
	name := out.Order[from]
	out.Order = slices.Delete(out.Order, from, from+1)
	out.Order = slices.Insert(out.Order, to, name)
	return out
}

// FieldOrder returns the canvas order: ui:order without the wildcard and
// without names that are no longer properties, or the property order when
// ui:order is absent.
func (e *Engine) FieldOrder(pair schemadoc.Pair) []string {
	if len(pair.UI.Order) == 0 {
		return pair.Schema.Properties.Keys()
	}
	order := make([]string, 0, len(pair.UI.Order))
	for _, name := range pair.UI.Order {
		if name == schemadoc.OrderWildcard || !pair.Schema.Properties.Has(name) {
			continue
		}
		order = append(order, name)
	}
	return order
}
