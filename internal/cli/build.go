package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/goliatone/go-formbuilder/internal/prompt"
	"github.com/goliatone/go-formbuilder/pkg/operations"
	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
	"github.com/goliatone/go-formbuilder/pkg/session"
)

const (
	actAdd = iota
	actRemove
	actRename
	actTitle
	actRequired
	actCondition
	actMove
	actShow
	actSave
	actQuit
)

var actionLabels = []string{
	"Add field",
	"Remove field",
	"Rename field",
	"Set title",
	"Toggle required",
	"Edit condition",
	"Move field",
	"Show fields",
	"Save",
	"Quit",
}

const removeConditionLabel = "(remove condition)"

// buildLoop drives a session from terminal prompts until the user quits.
type buildLoop struct {
	driver prompt.Driver
	sess   *session.Session
	out    io.Writer
	save   func(schemadoc.Pair) error
}

func (l *buildLoop) run(ctx context.Context) error {
	for {
		idx, err := l.driver.Select(ctx, prompt.SelectConfig{
			Message:  "Action",
			Options:  actionLabels,
			PageSize: len(actionLabels),
		})
		if err != nil {
			return err
		}
		switch idx {
		case actAdd:
			err = l.add(ctx)
		case actRemove:
			err = l.remove(ctx)
		case actRename:
			err = l.rename(ctx)
		case actTitle:
			err = l.title(ctx)
		case actRequired:
			err = l.required(ctx)
		case actCondition:
			err = l.condition(ctx)
		case actMove:
			err = l.move(ctx)
		case actShow:
			l.show()
		case actSave:
			err = l.store()
		case actQuit:
			done, qerr := l.quit(ctx)
			if qerr != nil || done {
				return qerr
			}
		}
		if err != nil {
			return err
		}
	}
}

func (l *buildLoop) add(ctx context.Context) error {
	types := l.sess.Engine().FieldTypes().All()
	labels := make([]string, len(types))
	for i, ft := range types {
		labels[i] = fmt.Sprintf("%s (%s)", ft.Label, ft.Type)
	}
	idx, err := l.driver.Select(ctx, prompt.SelectConfig{Message: "Field type", Options: labels})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(types) {
		return nil
	}
	name, ok := l.sess.Builder().AddField(types[idx].Type)
	if !ok {
		l.printf("could not add a %s field\n", types[idx].Type)
		return nil
	}
	l.printf("added %s\n", name)
	return nil
}

// pickField asks for one of the current fields. The boolean is false when
// the document has none.
func (l *buildLoop) pickField(ctx context.Context, message string) (string, bool, error) {
	fields := l.sess.Builder().Fields()
	if len(fields) == 0 {
		l.printf("the form has no fields\n")
		return "", false, nil
	}
	labels := make([]string, len(fields))
	for i, info := range fields {
		labels[i] = fieldLabel(info)
	}
	idx, err := l.driver.Select(ctx, prompt.SelectConfig{Message: message, Options: labels})
	if err != nil || idx < 0 || idx >= len(fields) {
		return "", false, err
	}
	return fields[idx].Name, true, nil
}

func (l *buildLoop) remove(ctx context.Context) error {
	name, ok, err := l.pickField(ctx, "Remove")
	if err != nil || !ok {
		return err
	}
	if l.sess.Builder().DeleteField(name) {
		l.printf("removed %s\n", name)
	}
	return nil
}

func (l *buildLoop) rename(ctx context.Context) error {
	name, ok, err := l.pickField(ctx, "Rename")
	if err != nil || !ok {
		return err
	}
	newName, err := l.driver.Input(ctx, prompt.InputConfig{
		Message:   "New name",
		Default:   name,
		Validator: notBlank,
	})
	if err != nil {
		return err
	}
	newName = strings.TrimSpace(newName)
	if newName == name {
		return nil
	}
	if !l.sess.Builder().RenameField(name, newName) {
		l.printf("cannot rename %s to %s\n", name, newName)
		return nil
	}
	l.printf("renamed %s to %s\n", name, newName)
	return nil
}

func (l *buildLoop) title(ctx context.Context) error {
	name, ok, err := l.pickField(ctx, "Set title of")
	if err != nil || !ok {
		return err
	}
	field, _ := l.sess.Document().Schema.Field(name)
	title, err := l.driver.Input(ctx, prompt.InputConfig{Message: "Title", Default: field.Title})
	if err != nil {
		return err
	}
	var value any
	if title = strings.TrimSpace(title); title != "" {
		value = title
	}
	l.sess.Builder().UpdateFieldSchema(name, schemadoc.Update{schemadoc.KeyTitle: value})
	return nil
}

func (l *buildLoop) required(ctx context.Context) error {
	name, ok, err := l.pickField(ctx, "Toggle required")
	if err != nil || !ok {
		return err
	}
	b := l.sess.Builder()
	b.ToggleRequired(name)
	if b.Document().Schema.IsRequired(name) {
		l.printf("%s is required\n", name)
	} else {
		l.printf("%s is optional\n", name)
	}
	return nil
}

// condition makes the picked field depend on a value of a field with a
// closed value set, or removes its condition.
func (l *buildLoop) condition(ctx context.Context) error {
	name, ok, err := l.pickField(ctx, "Condition for")
	if err != nil || !ok {
		return err
	}
	doc := l.sess.Document()
	engine := l.sess.Engine()

	var sources []operations.SourceField
	for _, source := range engine.ConditionSourceFields(doc.Schema) {
		if source.Name != name {
			sources = append(sources, source)
		}
	}
	_, hasCondition := engine.FieldCondition(doc.Schema, name)
	if len(sources) == 0 && !hasCondition {
		l.printf("no fields with options to depend on\n")
		return nil
	}

	labels := make([]string, 0, len(sources)+1)
	for _, source := range sources {
		labels = append(labels, sourceLabel(source))
	}
	if hasCondition {
		labels = append(labels, removeConditionLabel)
	}
	idx, err := l.driver.Select(ctx, prompt.SelectConfig{Message: "Show when", Options: labels})
	if err != nil || idx < 0 {
		return err
	}
	if idx >= len(sources) {
		l.sess.Builder().UpdateCondition(name, nil)
		l.printf("removed condition of %s\n", name)
		return nil
	}

	source := sources[idx]
	values := make([]string, len(source.Values))
	for i, v := range source.Values {
		values[i] = v.Value
		if v.Label != "" && v.Label != v.Value {
			values[i] = fmt.Sprintf("%s (%s)", v.Label, v.Value)
		}
	}
	vidx, err := l.driver.Select(ctx, prompt.SelectConfig{Message: "equals", Options: values})
	if err != nil || vidx < 0 || vidx >= len(source.Values) {
		return err
	}
	requiredWhenVisible, err := l.driver.Confirm(ctx, prompt.ConfirmConfig{Message: "Required when visible?", Default: true})
	if err != nil {
		return err
	}

	l.sess.Builder().UpdateCondition(name, &operations.FieldCondition{
		DependsOnField:      source.Name,
		DependsOnValue:      source.Values[vidx].Value,
		RequiredWhenVisible: requiredWhenVisible,
	})
	l.printf("%s shows when %s = %s\n", name, source.Name, source.Values[vidx].Value)
	return nil
}

// move drags a field onto the position of another one.
func (l *buildLoop) move(ctx context.Context) error {
	name, ok, err := l.pickField(ctx, "Move")
	if err != nil || !ok {
		return err
	}
	target, ok, err := l.pickField(ctx, "To the position of")
	if err != nil || !ok || target == name {
		return err
	}
	b := l.sess.Builder()
	b.DragStart(name)
	if b.Drop(target) {
		l.printf("moved %s\n", name)
	}
	return nil
}

func (l *buildLoop) show() {
	fields := l.sess.Builder().Fields()
	if len(fields) == 0 {
		l.printf("the form has no fields\n")
		return
	}
	bold := color.New(color.Bold).SprintFunc()
	for i, info := range fields {
		line := fmt.Sprintf("%2d. %s", i+1, bold(info.Name))
		line += fmt.Sprintf(" [%s]", info.FieldType)
		if info.Title != info.Name {
			line += fmt.Sprintf(" %q", info.Title)
		}
		if info.Required {
			line += " required"
		}
		if cond, ok := l.sess.Engine().FieldCondition(l.sess.Document().Schema, info.Name); ok {
			line += fmt.Sprintf(" when %s = %s", cond.DependsOnField, cond.DependsOnValue)
		}
		l.printf("%s\n", line)
	}
}

func (l *buildLoop) store() error {
	record, err := l.sess.Snapshot()
	if err != nil {
		return err
	}
	if err := l.save(l.sess.Document()); err != nil {
		return err
	}
	l.sess.MarkSaved(record)
	l.printf("%s\n", color.GreenString("saved"))
	return nil
}

func (l *buildLoop) quit(ctx context.Context) (bool, error) {
	if !l.sess.Dirty() {
		return true, nil
	}
	return l.driver.Confirm(ctx, prompt.ConfirmConfig{Message: "Discard unsaved changes?"})
}

func (l *buildLoop) printf(format string, args ...any) {
	fmt.Fprintf(l.out, format, args...)
}

func fieldLabel(info operations.FieldInfo) string {
	if info.Title != "" && info.Title != info.Name {
		return fmt.Sprintf("%s (%s)", info.Title, info.Name)
	}
	return info.Name
}

func sourceLabel(source operations.SourceField) string {
	if source.Title != "" && source.Title != source.Name {
		return fmt.Sprintf("%s (%s)", source.Title, source.Name)
	}
	return source.Name
}

func notBlank(value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("a value is required")
	}
	return nil
}
