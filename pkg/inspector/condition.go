package inspector

import (
	"github.com/goliatone/go-formbuilder/pkg/operations"
	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
)

func (i *Inspector) conditionView(doc schemadoc.Pair, selected string) ConditionView {
	var sources []operations.SourceField
	for _, source := range i.engine.ConditionSourceFields(doc.Schema) {
		if source.Name == selected {
			continue
		}
		sources = append(sources, source)
	}
	view := ConditionView{
		Available:           len(sources) > 0,
		Enabled:             i.cond.enabled,
		Sources:             sources,
		Source:              i.cond.source,
		Value:               i.cond.value,
		RequiredWhenVisible: i.cond.required,
	}
	for _, source := range sources {
		if source.Name == i.cond.source {
			view.Values = source.Values
			break
		}
	}
	return view
}

// Condition returns the condition editor state.
func (i *Inspector) Condition() (ConditionView, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	doc, selected, ok := i.current()
	if !ok {
		return ConditionView{}, false
	}
	return i.conditionView(doc, selected), true
}

// EnableCondition opens the condition editor. Disabling clears the stored
// condition.
func (i *Inspector) EnableCondition(enabled bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	_, selected, ok := i.current()
	if !ok {
		return
	}
	if enabled {
		i.cond.enabled = true
		return
	}
	i.editor.UpdateCondition(selected, nil)
	i.resync(conditionState{field: selected})
}

// SelectConditionSource picks the field the condition reads. The value is
// reset; choosing no source clears the stored condition.
func (i *Inspector) SelectConditionSource(source string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	_, selected, ok := i.current()
	if !ok || source == selected {
		return
	}
	if source == "" {
		i.editor.UpdateCondition(selected, nil)
		i.resync(conditionState{field: selected, enabled: i.cond.enabled})
		return
	}
	i.cond.source = source
	i.cond.value = ""
}

// SelectConditionValue picks the value and commits the condition once both
// parts are chosen.
func (i *Inspector) SelectConditionValue(value string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	_, selected, ok := i.current()
	if !ok {
		return
	}
	i.cond.value = value
	if i.cond.source == "" || value == "" {
		return
	}
	state := i.cond
	i.editor.UpdateCondition(selected, &operations.FieldCondition{
		DependsOnField:      state.source,
		DependsOnValue:      state.value,
		RequiredWhenVisible: state.required,
	})
	i.resync(state)
}

// SetRequiredWhenVisible toggles the flag and recommits a complete
// condition.
func (i *Inspector) SetRequiredWhenVisible(required bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	_, selected, ok := i.current()
	if !ok {
		return
	}
	i.cond.required = required
	if i.cond.source == "" || i.cond.value == "" {
		return
	}
	state := i.cond
	i.editor.UpdateCondition(selected, &operations.FieldCondition{
		DependsOnField:      state.source,
		DependsOnValue:      state.value,
		RequiredWhenVisible: state.required,
	})
	i.resync(state)
}

// resync keeps local editor state across the revision bump caused by the
// inspector's own commit.
func (i *Inspector) resync(state conditionState) {
	state.revision = i.editor.Revision()
	state.synced = true
	i.cond = state
}
