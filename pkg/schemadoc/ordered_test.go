package schemadoc_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
	"github.com/goliatone/go-formbuilder/pkg/testsupport"
)

func TestOrderedMap_SetDeleteRename(t *testing.T) {
	props := schemadoc.NewProperties()
	props.Set("a", schemadoc.FieldSchema{Type: "string"})
	props.Set("b", schemadoc.FieldSchema{Type: "number"})
	props.Set("c", schemadoc.FieldSchema{Type: "boolean"})
	props.Set("a", schemadoc.FieldSchema{Type: "string", Title: "A"})

	if diff := cmp.Diff([]string{"a", "b", "c"}, props.Keys()); diff != "" {
		t.Fatalf("keys after set (-want +got):\n%s", diff)
	}

	if !props.Rename("b", "beta") {
		t.Fatalf("expected rename to succeed")
	}
	if props.Rename("a", "c") {
		t.Fatalf("rename onto existing key must fail")
	}
	if props.Rename("missing", "x") {
		t.Fatalf("rename of missing key must fail")
	}
	if diff := cmp.Diff([]string{"a", "beta", "c"}, props.Keys()); diff != "" {
		t.Fatalf("keys after rename (-want +got):\n%s", diff)
	}

	if !props.Delete("a") || props.Delete("a") {
		t.Fatalf("expected delete to succeed exactly once")
	}
	if diff := cmp.Diff([]string{"beta", "c"}, props.Keys()); diff != "" {
		t.Fatalf("keys after delete (-want +got):\n%s", diff)
	}
	if got := props.IndexOf("c"); got != 1 {
		t.Fatalf("expected c at index 1, got %d", got)
	}
}

func TestOrderedMap_CloneIsIndependent(t *testing.T) {
	props := schemadoc.NewProperties()
	props.Set("a", schemadoc.FieldSchema{Enum: []any{"x"}})

	clone := props.Clone()
	clone.Set("b", schemadoc.FieldSchema{})
	field, _ := clone.Get("a")
	field.Enum[0] = "changed"

	if props.Len() != 1 {
		t.Fatalf("original gained keys: %v", props.Keys())
	}
	original, _ := props.Get("a")
	if original.Enum[0] != "x" {
		t.Fatalf("clone shares enum storage with the original")
	}
}

func TestOrderedMap_ZeroValueIsAbsent(t *testing.T) {
	var props schemadoc.Properties
	if props.Present() {
		t.Fatalf("zero value should not be present")
	}
	if !schemadoc.NewProperties().Present() {
		t.Fatalf("NewProperties should be present")
	}
	if got := testsupport.MustJSON(t, schemadoc.NewProperties()); got != "{}" {
		t.Fatalf("expected {}, got %s", got)
	}
}

func TestFieldSchemaMerge(t *testing.T) {
	field := schemadoc.FieldSchema{Type: "string", Title: "A", Description: "d", Extra: map[string]any{"minLength": float64(2)}}

	merged, err := field.Merge(schemadoc.Update{
		schemadoc.KeyDescription: nil,
		schemadoc.KeyTitle:       "B",
		schemadoc.KeyEnum:        []string{"x", "y"},
		"minLength":              nil,
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	want := schemadoc.FieldSchema{Type: "string", Title: "B", Enum: []any{"x", "y"}}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged mismatch (-want +got):\n%s", diff)
	}
	if field.Title != "A" || field.Description != "d" {
		t.Fatalf("merge mutated its receiver: %+v", field)
	}
}

func TestFieldUISchemaMerge_CompactsOptions(t *testing.T) {
	entry := schemadoc.FieldUISchema{
		Widget:  "TextWidget",
		Options: map[string]any{schemadoc.OptionPlaceholder: "p"},
	}

	merged, err := entry.Merge(schemadoc.Update{
		schemadoc.UIWidget: nil,
		schemadoc.UIOptions: map[string]any{
			schemadoc.OptionPlaceholder: nil,
			schemadoc.OptionLayout:      schemadoc.LayoutPaired,
		},
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	want := schemadoc.FieldUISchema{Options: map[string]any{schemadoc.OptionLayout: schemadoc.LayoutPaired}}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged mismatch (-want +got):\n%s", diff)
	}

	cleared, err := merged.Merge(schemadoc.Update{schemadoc.UIOptions: map[string]any{schemadoc.OptionLayout: nil}})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !cleared.IsEmpty() {
		t.Fatalf("expected empty entry, got %+v", cleared)
	}
}
