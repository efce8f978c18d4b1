package operations

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbuilder/pkg/testsupport"
)

const conditionFixture = `{
  "type": "object",
  "properties": {
    "select": {"type": "string", "enum": ["option1", "option2"], "enumNames": ["Alternativ 1", ""]},
    "level": {"type": "number", "enum": [1, 2.5]},
    "answer": {"type": "string", "title": "Svar", "oneOf": [{"const": "yes", "title": "Ja"}, {"const": "no"}]},
    "text": {"type": "string"},
    "note": {"type": "string"}
  }
}`

func TestSetFieldCondition(t *testing.T) {
	engine := New()
	schema := testsupport.MustParsePair(t, conditionFixture, "").Schema

	got := engine.SetFieldCondition(schema, "text", FieldCondition{DependsOnField: "select", DependsOnValue: "option2"})
	if encoded, want := testsupport.MustJSON(t, got.AllOf), `[{"if":{"properties":{"select":{"const":"option2"}}},"then":{"required":["text"]}}]`; encoded != want {
		t.Fatalf("want %s, got %s", want, encoded)
	}

	cond, ok := engine.FieldCondition(got, "text")
	if !ok {
		t.Fatalf("expected condition on text")
	}
	if diff := cmp.Diff(FieldCondition{DependsOnField: "select", DependsOnValue: "option2", RequiredWhenVisible: true}, cond); diff != "" {
		t.Fatalf("condition mismatch (-want +got):\n%s", diff)
	}

	got = engine.SetFieldCondition(got, "text", FieldCondition{DependsOnField: "answer", DependsOnValue: "yes"})
	if len(got.AllOf) != 1 {
		t.Fatalf("expected a single rule per target, got %d", len(got.AllOf))
	}
	cond, _ = engine.FieldCondition(got, "text")
	if cond.DependsOnField != "answer" || cond.DependsOnValue != "yes" {
		t.Fatalf("expected replaced condition, got %+v", cond)
	}

	if len(schema.AllOf) != 0 {
		t.Fatalf("input document was modified")
	}
}

func TestSetFieldCondition_TypedConst(t *testing.T) {
	engine := New()
	schema := testsupport.MustParsePair(t, conditionFixture, "").Schema

	got := engine.SetFieldCondition(schema, "note", FieldCondition{DependsOnField: "level", DependsOnValue: "2.5"})
	if encoded, want := testsupport.MustJSON(t, got.AllOf), `[{"if":{"properties":{"level":{"const":2.5}}},"then":{"required":["note"]}}]`; encoded != want {
		t.Fatalf("want %s, got %s", want, encoded)
	}

	got = engine.SetFieldCondition(schema, "note", FieldCondition{DependsOnField: "text", DependsOnValue: "free"})
	if encoded, want := testsupport.MustJSON(t, got.AllOf), `[{"if":{"properties":{"text":{"const":"free"}}},"then":{"required":["note"]}}]`; encoded != want {
		t.Fatalf("want %s, got %s", want, encoded)
	}
}

func TestSetFieldCondition_Ignored(t *testing.T) {
	engine := New()
	schema := testsupport.MustParsePair(t, conditionFixture, "").Schema
	schema = engine.SetFieldCondition(schema, "text", FieldCondition{DependsOnField: "select", DependsOnValue: "option1"})
	before := testsupport.MustJSON(t, schema)

	cases := []struct {
		name   string
		target string
		cond   FieldCondition
	}{
		{name: "self dependency", target: "text", cond: FieldCondition{DependsOnField: "text", DependsOnValue: "x"}},
		{name: "missing source", target: "text", cond: FieldCondition{DependsOnField: "ghost", DependsOnValue: "x"}},
		{name: "missing target", target: "ghost", cond: FieldCondition{DependsOnField: "select", DependsOnValue: "option1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.SetFieldCondition(schema, tc.target, tc.cond)
			if encoded := testsupport.MustJSON(t, got); encoded != before {
				t.Fatalf("expected unchanged schema\nwant: %s\n got: %s", before, encoded)
			}
		})
	}
}

func TestSetFieldCondition_EmptyClears(t *testing.T) {
	engine := New()
	schema := testsupport.MustParsePair(t, conditionFixture, "").Schema
	schema = engine.SetFieldCondition(schema, "text", FieldCondition{DependsOnField: "select", DependsOnValue: "option1"})

	for _, cond := range []FieldCondition{{}, {DependsOnField: "select"}, {DependsOnValue: "option1"}} {
		got := engine.SetFieldCondition(schema, "text", cond)
		if got.AllOf != nil {
			t.Fatalf("expected condition to be cleared by %+v", cond)
		}
		if _, ok := engine.FieldCondition(got, "text"); ok {
			t.Fatalf("expected no condition after clearing")
		}
	}
}

func TestFieldCondition_RelocatedTarget(t *testing.T) {
	engine := New()
	schema := testsupport.MustParsePair(t,
		`{"properties":{"kind":{"enum":["a","b"]}},"allOf":[{"if":{"properties":{"kind":{"const":"b"}}},"then":{"properties":{"detail":{"type":"string"}}}},{"if":{},"then":{"required":["other"]}}]}`,
		"",
	).Schema

	cond, ok := engine.FieldCondition(schema, "detail")
	if !ok {
		t.Fatalf("expected relocated target to be found")
	}
	if diff := cmp.Diff(FieldCondition{DependsOnField: "kind", DependsOnValue: "b"}, cond); diff != "" {
		t.Fatalf("condition mismatch (-want +got):\n%s", diff)
	}

	if _, ok := engine.FieldCondition(schema, "other"); ok {
		t.Fatalf("rules without if properties carry no condition")
	}
}

func TestRemoveFieldCondition(t *testing.T) {
	engine := New()
	schema := testsupport.MustParsePair(t, conditionFixture, "").Schema
	schema = engine.SetFieldCondition(schema, "text", FieldCondition{DependsOnField: "select", DependsOnValue: "option1"})
	schema = engine.SetFieldCondition(schema, "note", FieldCondition{DependsOnField: "answer", DependsOnValue: "no"})

	got := engine.RemoveFieldCondition(schema, "text")
	if len(got.AllOf) != 1 || !got.AllOf[0].Targets("note") {
		t.Fatalf("expected only the note rule to remain, got %s", testsupport.MustJSON(t, got.AllOf))
	}
	got = engine.RemoveFieldCondition(got, "note")
	if got.AllOf != nil {
		t.Fatalf("expected allOf to be dropped, got %v", got.AllOf)
	}

	same := engine.RemoveFieldCondition(got, "select")
	if testsupport.MustJSON(t, same) != testsupport.MustJSON(t, got) {
		t.Fatalf("removing a missing condition must not change the schema")
	}
}

func TestConditionSourceFields(t *testing.T) {
	engine := New()
	schema := testsupport.MustParsePair(t, conditionFixture, "").Schema

	want := []SourceField{
		{Name: "select", Values: []SourceValue{{Value: "option1", Label: "Alternativ 1"}, {Value: "option2", Label: "option2"}}},
		{Name: "level", Values: []SourceValue{{Value: "1", Label: "1"}, {Value: "2.5", Label: "2.5"}}},
		{Name: "answer", Title: "Svar", Values: []SourceValue{{Value: "yes", Label: "Ja"}, {Value: "no", Label: "no"}}},
	}
	if diff := cmp.Diff(want, engine.ConditionSourceFields(schema)); diff != "" {
		t.Fatalf("sources mismatch (-want +got):\n%s", diff)
	}
}
