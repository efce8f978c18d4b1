package operations

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbuilder/pkg/fieldtypes"
	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
	"github.com/goliatone/go-formbuilder/pkg/testsupport"
)

func assertPair(t *testing.T, pair schemadoc.Pair, wantSchema, wantUI string) {
	t.Helper()

	if got := testsupport.MustJSON(t, pair.Schema); got != wantSchema {
		t.Fatalf("schema mismatch\nwant: %s\n got: %s", wantSchema, got)
	}
	if got := testsupport.MustJSON(t, pair.UI); got != wantUI {
		t.Fatalf("ui schema mismatch\nwant: %s\n got: %s", wantUI, got)
	}
}

func TestGenerateFieldName(t *testing.T) {
	engine := New()
	pair := testsupport.MustParsePair(t, `{"properties":{"text":{},"text1":{},"text3":{}}}`, "")

	if got := engine.GenerateFieldName(pair.Schema, fieldtypes.Text); got != "text2" {
		t.Fatalf("expected text2, got %q", got)
	}
	if got := engine.GenerateFieldName(pair.Schema, fieldtypes.Select); got != "select" {
		t.Fatalf("expected select, got %q", got)
	}
	if got := engine.GenerateFieldName(schemadoc.Schema{}, fieldtypes.Date); got != "date" {
		t.Fatalf("expected date on empty schema, got %q", got)
	}
}

func TestAddField_EmptyDocument(t *testing.T) {
	engine := New()

	pair := engine.AddField(schemadoc.Pair{}, "text", fieldtypes.Text, Append)
	assertPair(t, pair,
		`{"type":"object","properties":{"text":{"type":"string","title":"text"}}}`,
		`{"ui:order":["text"],"text":{"ui:widget":"TextWidget"}}`,
	)

	pair = engine.AddField(pair, "select", fieldtypes.Select, Append)
	assertPair(t, pair,
		`{"type":"object","properties":{"text":{"type":"string","title":"text"},"select":{"type":"string","title":"select","enum":["option1","option2","option3"],"enumNames":["Alternativ 1","Alternativ 2","Alternativ 3"]}}}`,
		`{"ui:order":["text","select"],"text":{"ui:widget":"TextWidget"},"select":{"ui:widget":"select"}}`,
	)
}

func TestAddField_InsertIndex(t *testing.T) {
	engine := New()
	base := testsupport.MustParsePair(t, `{"type":"object","properties":{"a":{"type":"string"},"b":{"type":"string"}}}`, "")

	cases := []struct {
		name  string
		index int
		order []string
	}{
		{name: "front", index: 0, order: []string{"date", "a", "b"}},
		{name: "middle", index: 1, order: []string{"a", "date", "b"}},
		{name: "end", index: 2, order: []string{"a", "b", "date"}},
		{name: "out of range appends", index: 9, order: []string{"a", "b", "date"}},
		{name: "negative appends", index: Append, order: []string{"a", "b", "date"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.AddField(base, "date", fieldtypes.Date, tc.index)
			if diff := cmp.Diff(tc.order, got.UI.Order); diff != "" {
				t.Fatalf("order mismatch (-want +got):\n%s", diff)
			}
			field, _ := got.Schema.Field("date")
			if field.Format != "date" {
				t.Fatalf("expected date format, got %q", field.Format)
			}
		})
	}

	if base.UI.Order != nil || base.Schema.Properties.Has("date") {
		t.Fatalf("input document was modified")
	}
}

func TestAddField_IgnoredRequests(t *testing.T) {
	engine := New()
	base := testsupport.MustParsePair(t, `{"type":"object","properties":{"name":{"type":"string"}}}`, `{"ui:order":["name"]}`)
	schemaJSON := testsupport.MustJSON(t, base.Schema)
	uiJSON := testsupport.MustJSON(t, base.UI)

	cases := []struct {
		name      string
		fieldName string
		ft        fieldtypes.FieldType
	}{
		{name: "unknown type", fieldName: "other", ft: fieldtypes.FieldType("signature")},
		{name: "duplicate name", fieldName: "name", ft: fieldtypes.Text},
		{name: "blank name", fieldName: "  ", ft: fieldtypes.Text},
		{name: "ui prefix", fieldName: "ui:order", ft: fieldtypes.Text},
		{name: "wildcard", fieldName: "*", ft: fieldtypes.Text},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.AddField(base, tc.fieldName, tc.ft, Append)
			assertPair(t, got, schemaJSON, uiJSON)
		})
	}
}

func TestRemoveField(t *testing.T) {
	engine := New()
	pair := testsupport.MustParsePair(t,
		`{"type":"object","properties":{"kind":{"type":"string","enum":["a","b"]},"detail":{"type":"string"},"other":{"type":"string"}},"required":["detail","other"],"allOf":[{"if":{"properties":{"kind":{"const":"b"}}},"then":{"required":["detail"]}}]}`,
		`{"ui:order":["kind","detail","other"],"detail":{"ui:widget":"TextareaWidget"}}`,
	)

	got := engine.RemoveField(pair, "detail")
	assertPair(t, got,
		`{"type":"object","properties":{"kind":{"type":"string","enum":["a","b"]},"other":{"type":"string"}},"required":["other"]}`,
		`{"ui:order":["kind","other"]}`,
	)

	got = engine.RemoveField(got, "other")
	assertPair(t, got,
		`{"type":"object","properties":{"kind":{"type":"string","enum":["a","b"]}}}`,
		`{"ui:order":["kind"]}`,
	)

	if !pair.Schema.Properties.Has("detail") || len(pair.Schema.AllOf) != 1 {
		t.Fatalf("input document was modified")
	}
}

func TestRemoveField_DropsDependentRules(t *testing.T) {
	engine := New()
	pair := testsupport.MustParsePair(t,
		`{"type":"object","properties":{"kind":{"type":"string","enum":["a","b"]},"detail":{"type":"string"}},"allOf":[{"if":{"properties":{"kind":{"const":"b"}}},"then":{"required":["detail"]}}]}`,
		`{"ui:order":["kind","detail"]}`,
	)

	got := engine.RemoveField(pair, "kind")
	assertPair(t, got,
		`{"type":"object","properties":{"detail":{"type":"string"}}}`,
		`{"ui:order":["detail"]}`,
	)
}

func TestUpdateFieldSchema(t *testing.T) {
	engine := New()
	schema := testsupport.MustParsePair(t,
		`{"type":"object","properties":{"color":{"type":"string","title":"Färg","description":"Välj","oneOf":[{"const":"r","title":"Röd"}]},"name":{"type":"string"}}}`,
		"",
	).Schema

	cases := []struct {
		name   string
		update schemadoc.Update
		want   string
	}{
		{
			name:   "merge keeps other keys",
			update: schemadoc.Update{"title": "Kulör", "minLength": 2},
			want:   `{"type":"string","title":"Kulör","description":"Välj","oneOf":[{"const":"r","title":"Röd"}],"minLength":2}`,
		},
		{
			name:   "nil clears key",
			update: schemadoc.Update{"description": nil},
			want:   `{"type":"string","title":"Färg","oneOf":[{"const":"r","title":"Röd"}]}`,
		},
		{
			name:   "enum replaces oneOf",
			update: schemadoc.Update{"enum": []any{"x", "y"}},
			want:   `{"type":"string","title":"Färg","description":"Välj","enum":["x","y"]}`,
		},
		{
			name:   "enum wins when both are set",
			update: schemadoc.Update{"enum": []any{"x"}, "oneOf": []any{map[string]any{"const": "z"}}},
			want:   `{"type":"string","title":"Färg","description":"Välj","enum":["x"]}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.UpdateFieldSchema(schema, "color", tc.update)
			field, _ := got.Field("color")
			if encoded := testsupport.MustJSON(t, field); encoded != tc.want {
				t.Fatalf("field mismatch\nwant: %s\n got: %s", tc.want, encoded)
			}
		})
	}

	withEnum := engine.UpdateFieldSchema(schema, "name", schemadoc.Update{"enum": []any{"a"}, "enumNames": []any{"A"}})
	withOneOf := engine.UpdateFieldSchema(withEnum, "name", schemadoc.Update{"oneOf": []any{map[string]any{"const": "a", "title": "A"}}})
	field, _ := withOneOf.Field("name")
	if field.HasEnum() || len(field.EnumNames) != 0 || !field.HasOneOf() {
		t.Fatalf("expected oneOf to replace enum, got %+v", field)
	}

	missing := engine.UpdateFieldSchema(schema, "ghost", schemadoc.Update{"title": "x"})
	if missing.Properties.Has("ghost") {
		t.Fatalf("update must not create fields")
	}
}

func TestUpdateFieldUISchema(t *testing.T) {
	engine := New()
	ui := testsupport.MustParsePair(t, `{"properties":{}}`, `{"ui:order":["a"],"a":{"ui:widget":"TextWidget"}}`).UI

	got := engine.UpdateFieldUISchema(ui, "a", schemadoc.Update{
		"ui:options": map[string]any{"placeholder": "Skriv här", "descriptionBelow": true},
	})
	if encoded, want := testsupport.MustJSON(t, got), `{"ui:order":["a"],"a":{"ui:widget":"TextWidget","ui:options":{"descriptionBelow":true,"placeholder":"Skriv här"}}}`; encoded != want {
		t.Fatalf("want %s, got %s", want, encoded)
	}

	got = engine.UpdateFieldUISchema(got, "b", schemadoc.Update{"ui:title": "Bee"})
	if entry, ok := got.Field("b"); !ok || entry.Title != "Bee" {
		t.Fatalf("expected new entry for b, got %+v", entry)
	}

	got = engine.UpdateFieldUISchema(got, "b", schemadoc.Update{"ui:title": nil})
	if got.Fields.Has("b") {
		t.Fatalf("expected empty entry to be removed")
	}

	if same := engine.UpdateFieldUISchema(ui, "ui:order", schemadoc.Update{"ui:widget": "x"}); same.Fields.Has("ui:order") {
		t.Fatalf("reserved key must not become a field entry")
	}
}

func TestRenameField(t *testing.T) {
	engine := New()
	pair := testsupport.MustParsePair(t,
		`{"type":"object","properties":{"first":{"type":"string","title":"first"},"custom":{"type":"string","title":"Custom"},"last":{"type":"string"}},"required":["custom"]}`,
		`{"ui:order":["first","custom","last"],"custom":{"ui:widget":"TextareaWidget"}}`,
	)

	got := engine.RenameField(pair, "custom", "renamed")
	assertPair(t, got,
		`{"type":"object","properties":{"first":{"type":"string","title":"first"},"renamed":{"type":"string","title":"Custom"},"last":{"type":"string"}},"required":["renamed"]}`,
		`{"ui:order":["first","renamed","last"],"renamed":{"ui:widget":"TextareaWidget"}}`,
	)

	got = engine.RenameField(pair, "first", "given")
	field, _ := got.Schema.Field("given")
	if field.Title != "given" {
		t.Fatalf("expected default title to follow rename, got %q", field.Title)
	}

	for _, target := range []string{"first", "last", "custom", "", "ui:x"} {
		same := engine.RenameField(pair, "custom", target)
		if !same.Schema.Properties.Has("custom") {
			t.Fatalf("rename to %q should be ignored", target)
		}
	}
	if same := engine.RenameField(pair, "ghost", "spirit"); same.Schema.Properties.Has("spirit") {
		t.Fatalf("rename of a missing field should be ignored")
	}
}

func TestRenameField_ConditionReferences(t *testing.T) {
	raw := `{"type":"object","properties":{"kind":{"type":"string","enum":["a","b"]},"detail":{"type":"string"}},"allOf":[{"if":{"properties":{"kind":{"const":"b"}}},"then":{"required":["detail"]}}]}`
	pair := testsupport.MustParsePair(t, raw, "")

	// Default engines leave rules pointing at the old names.
	got := New().RenameField(pair, "detail", "note")
	got = New().RenameField(got, "kind", "category")
	if encoded, want := testsupport.MustJSON(t, got.Schema.AllOf), `[{"if":{"properties":{"kind":{"const":"b"}}},"then":{"required":["detail"]}}]`; encoded != want {
		t.Fatalf("want %s, got %s", want, encoded)
	}

	aware := New(WithConditionAwareRename(true))
	got = aware.RenameField(pair, "detail", "note")
	got = aware.RenameField(got, "kind", "category")
	if encoded, want := testsupport.MustJSON(t, got.Schema.AllOf), `[{"if":{"properties":{"category":{"const":"b"}}},"then":{"required":["note"]}}]`; encoded != want {
		t.Fatalf("want %s, got %s", want, encoded)
	}
}

func TestToggleRequired(t *testing.T) {
	engine := New()
	schema := testsupport.MustParsePair(t, `{"type":"object","properties":{"a":{},"b":{}}}`, "").Schema

	schema = engine.ToggleRequired(schema, "a")
	schema = engine.ToggleRequired(schema, "b")
	if diff := cmp.Diff([]string{"a", "b"}, schema.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}

	schema = engine.ToggleRequired(schema, "a")
	schema = engine.ToggleRequired(schema, "b")
	if schema.Required != nil {
		t.Fatalf("expected required to be dropped, got %v", schema.Required)
	}

	if got := engine.ToggleRequired(schema, "ghost"); got.Required != nil {
		t.Fatalf("unknown fields must not become required")
	}
}
