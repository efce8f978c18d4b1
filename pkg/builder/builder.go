// Package builder holds the interactive state of one form builder session:
// the selected field, the item being dragged, and the document pair the
// owning form last handed in. Every gesture is forwarded to the operations
// engine and the resulting pair is published through the change callbacks.
package builder

import (
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-formbuilder/pkg/fieldtypes"
	"github.com/goliatone/go-formbuilder/pkg/operations"
	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
)

// PalettePrefix marks drag ids that originate from the palette.
const PalettePrefix = "palette-"

// CanvasDropZone is the drop target id of the empty canvas area.
const CanvasDropZone = "canvas-drop-zone"

// DragKind tells palette drags from canvas reorders.
type DragKind string

const (
	DragPalette DragKind = "palette"
	DragField   DragKind = "field"
)

// DragItem is the item currently being dragged.
type DragItem struct {
	Kind      DragKind             `json:"kind"`
	ID        string               `json:"id"`
	FieldType fieldtypes.FieldType `json:"fieldType,omitempty"`
	Field     string               `json:"field,omitempty"`
}

// SchemaListener receives the schema after every change.
type SchemaListener func(schemadoc.Schema)

// UISchemaListener receives the UI schema after every change.
type UISchemaListener func(schemadoc.UISchema)

// Option configures a Builder.
type Option func(*Builder)

// WithEngine sets the operations engine.
func WithEngine(engine *operations.Engine) Option {
	return func(b *Builder) {
		if engine != nil {
			b.engine = engine
		}
	}
}

// OnSchemaChange registers the schema callback.
func OnSchemaChange(fn SchemaListener) Option {
	return func(b *Builder) {
		b.onSchema = fn
	}
}

// OnUISchemaChange registers the UI schema callback.
func OnUISchemaChange(fn UISchemaListener) Option {
	return func(b *Builder) {
		b.onUISchema = fn
	}
}

// Builder serialises gestures against one document pair.
type Builder struct {
	mu         sync.Mutex
	engine     *operations.Engine
	doc        schemadoc.Pair
	selected   string
	dragged    *DragItem
	revision   uint64
	onSchema   SchemaListener
	onUISchema UISchemaListener
}

// New creates a builder over pair.
func New(pair schemadoc.Pair, options ...Option) *Builder {
	b := &Builder{doc: pair.Clone()}
	for _, opt := range options {
		if opt != nil {
			opt(b)
		}
	}
	if b.engine == nil {
		b.engine = operations.New()
	}
	return b
}

// Engine returns the operations engine.
func (b *Builder) Engine() *operations.Engine {
	return b.engine
}

// Document returns a copy of the current pair.
func (b *Builder) Document() schemadoc.Pair {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.doc.Clone()
}

// Revision increases with every applied change.
func (b *Builder) Revision() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.revision
}

// Selected returns the selected field name, or "".
func (b *Builder) Selected() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selected
}

// Select marks name as selected. Unknown names clear the selection.
func (b *Builder) Select(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.doc.Schema.Properties.Has(name) {
		name = ""
	}
	b.selected = name
}

// ClearSelection deselects the current field.
func (b *Builder) ClearSelection() {
	b.Select("")
}

// Sync replaces the document with the pair held by the owning form. The
// selection is kept while the field still exists.
func (b *Builder) Sync(pair schemadoc.Pair) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.doc = pair.Clone()
	b.revision++
	if !b.doc.Schema.Properties.Has(b.selected) {
		b.selected = ""
	}
}

// Fields summarises the canvas in display order.
func (b *Builder) Fields() []operations.FieldInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.engine.Fields(b.doc)
}

// PaletteID returns the drag id of a palette entry.
func PaletteID(ft fieldtypes.FieldType) string {
	return PalettePrefix + string(ft)
}

// DragStart records the dragged item. Ids with the palette prefix name a
// field type; any other id names an existing field.
func (b *Builder) DragStart(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ft, ok := strings.CutPrefix(id, PalettePrefix); ok {
		if _, known := b.engine.FieldTypes().Lookup(fieldtypes.FieldType(ft)); !known {
			b.dragged = nil
			return
		}
		b.dragged = &DragItem{Kind: DragPalette, ID: id, FieldType: fieldtypes.FieldType(ft)}
		return
	}
	if !b.doc.Schema.Properties.Has(id) {
		b.dragged = nil
		return
	}
	b.dragged = &DragItem{Kind: DragField, ID: id, Field: id}
}

// Dragged returns the item being dragged.
func (b *Builder) Dragged() (DragItem, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dragged == nil {
		return DragItem{}, false
	}
	return *b.dragged, true
}

// DraggedLabel returns the overlay text for the dragged item: the palette
// label or the field title.
func (b *Builder) DraggedLabel() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dragged == nil {
		return ""
	}
	if b.dragged.Kind == DragPalette {
		return b.engine.FieldTypes().Label(b.dragged.FieldType)
	}
	if info, ok := b.engine.FieldInfo(b.doc, b.dragged.Field); ok {
		return info.Title
	}
	return b.dragged.Field
}

// DragCancel forgets the dragged item.
func (b *Builder) DragCancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dragged = nil
}

// Drop completes the current drag over target, the canvas drop zone or a
// field name. Palette items are inserted at the hovered field, or at the end
// for the canvas, and become selected. Field items are moved to the hovered
// field's position. It reports whether the document changed.
func (b *Builder) Drop(target string) bool {
	b.mu.Lock()
	item := b.dragged
	b.dragged = nil
	if item == nil || target == "" {
		b.mu.Unlock()
		return false
	}

	order := canvasOrder(b.doc)
	var next schemadoc.Pair
	schemaChanged := false
	switch item.Kind {
	case DragPalette:
		index := operations.Append
		if target != CanvasDropZone {
			index = indexOf(order, target)
			if index < 0 {
				index = operations.Append
			}
		}
		name := b.engine.GenerateFieldName(b.doc.Schema, item.FieldType)
		next = b.engine.AddField(b.doc, name, item.FieldType, index)
		if !next.Schema.Properties.Has(name) {
			b.mu.Unlock()
			return false
		}
		b.selected = name
		schemaChanged = true
	case DragField:
		from := indexOf(order, item.Field)
		to := indexOf(order, target)
		if from < 0 || to < 0 || from == to {
			b.mu.Unlock()
			return false
		}
		next = b.doc.Clone()
		next.UI.Order = order
		next.UI = b.engine.ReorderFields(next.UI, from, to)
	default:
		b.mu.Unlock()
		return false
	}
	b.commitLocked(next, schemaChanged, true)
	return true
}

// AddField appends a field of type ft and selects it.
func (b *Builder) AddField(ft fieldtypes.FieldType) (string, bool) {
	b.mu.Lock()
	name := b.engine.GenerateFieldName(b.doc.Schema, ft)
	next := b.engine.AddField(b.doc, name, ft, operations.Append)
	if !next.Schema.Properties.Has(name) {
		b.mu.Unlock()
		return "", false
	}
	b.selected = name
	b.commitLocked(next, true, true)
	return name, true
}

// DeleteField removes name and clears the selection when it was selected.
func (b *Builder) DeleteField(name string) bool {
	b.mu.Lock()
	if !b.doc.Schema.Properties.Has(name) {
		b.mu.Unlock()
		return false
	}
	next := b.engine.RemoveField(b.doc, name)
	if b.selected == name {
		b.selected = ""
	}
	b.commitLocked(next, true, true)
	return true
}

// RenameField renames a field; the selection follows.
func (b *Builder) RenameField(oldName, newName string) bool {
	b.mu.Lock()
	next := b.engine.RenameField(b.doc, oldName, newName)
	if !next.Schema.Properties.Has(newName) || next.Schema.Properties.Has(oldName) {
		b.mu.Unlock()
		return false
	}
	if b.selected == oldName {
		b.selected = newName
	}
	b.commitLocked(next, true, true)
	return true
}

// UpdateFieldSchema merges update into the field schema.
func (b *Builder) UpdateFieldSchema(name string, update schemadoc.Update) {
	b.mu.Lock()
	next := b.doc.Clone()
	next.Schema = b.engine.UpdateFieldSchema(b.doc.Schema, name, update)
	b.commitLocked(next, true, false)
}

// UpdateFieldUISchema merges update into the field UI entry.
func (b *Builder) UpdateFieldUISchema(name string, update schemadoc.Update) {
	b.mu.Lock()
	next := b.doc.Clone()
	next.UI = b.engine.UpdateFieldUISchema(b.doc.UI, name, update)
	b.commitLocked(next, false, true)
}

// ToggleRequired flips the root required flag of name.
func (b *Builder) ToggleRequired(name string) {
	b.mu.Lock()
	next := b.doc.Clone()
	next.Schema = b.engine.ToggleRequired(b.doc.Schema, name)
	b.commitLocked(next, true, false)
}

// UpdateCondition sets or, with a nil condition, clears the condition of
// name.
func (b *Builder) UpdateCondition(name string, cond *operations.FieldCondition) {
	b.mu.Lock()
	next := b.doc.Clone()
	if cond == nil {
		next.Schema = b.engine.RemoveFieldCondition(b.doc.Schema, name)
	} else {
		next.Schema = b.engine.SetFieldCondition(b.doc.Schema, name, *cond)
	}
	b.commitLocked(next, true, false)
}

// ReorderFields moves the ui:order entry at from to to.
func (b *Builder) ReorderFields(from, to int) {
	b.mu.Lock()
	next := b.doc.Clone()
	next.UI = b.engine.ReorderFields(b.doc.UI, from, to)
	b.commitLocked(next, false, true)
}

// commitLocked stores next, releases the lock and notifies listeners
// outside of it so callbacks may read the builder.
func (b *Builder) commitLocked(next schemadoc.Pair, schemaChanged, uiChanged bool) {
	b.doc = next
	b.revision++
	onSchema, onUISchema := b.onSchema, b.onUISchema
	b.mu.Unlock()

	if schemaChanged && onSchema != nil {
		onSchema(next.Schema.Clone())
	}
	if uiChanged && onUISchema != nil {
		onUISchema(next.UI.Clone())
	}
}

// canvasOrder returns ui:order, seeded from the property order when absent,
// so drop indexes line up with the list the engine splices.
func canvasOrder(doc schemadoc.Pair) []string {
	if len(doc.UI.Order) > 0 {
		return slices.Clone(doc.UI.Order)
	}
	return doc.Schema.Properties.Keys()
}

func indexOf(list []string, name string) int {
	for idx, item := range list {
		if item == name {
			return idx
		}
	}
	return -1
}
