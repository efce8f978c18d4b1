package schemadoc_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
	"github.com/goliatone/go-formbuilder/pkg/testsupport"
)

func TestParseSchema_PreservesPropertyOrder(t *testing.T) {
	raw := `{"type":"object","properties":{"zeta":{"type":"string","title":"Z"},"alpha":{"type":"number"},"mid":{"type":"boolean"}},"required":["zeta"]}`

	schema, err := schemadoc.ParseSchema([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if diff := cmp.Diff([]string{"zeta", "alpha", "mid"}, schema.Properties.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if got := testsupport.MustJSON(t, schema); got != raw {
		t.Fatalf("round trip mismatch\nwant: %s\n got: %s", raw, got)
	}
}

func TestParseSchema_KeepsUnknownKeywords(t *testing.T) {
	raw := `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "title": "Ansökan",
  "properties": {
    "age": {"type": "integer", "minimum": 18, "default": 20}
  },
  "x-custom": true
}`
	schema, err := schemadoc.ParseSchema([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	age, ok := schema.Field("age")
	if !ok {
		t.Fatalf("expected age field")
	}
	if age.Type != "integer" {
		t.Fatalf("expected integer type, got %q", age.Type)
	}
	if diff := cmp.Diff(map[string]any{"minimum": float64(18), "default": float64(20)}, age.Extra); diff != "" {
		t.Fatalf("extra mismatch (-want +got):\n%s", diff)
	}

	want := `{"$schema":"https://json-schema.org/draft/2020-12/schema","type":"object","title":"Ansökan","properties":{"age":{"type":"integer","default":20,"minimum":18}},"x-custom":true}`
	if got := testsupport.MustJSON(t, schema); got != want {
		t.Fatalf("encode mismatch\nwant: %s\n got: %s", want, got)
	}
}

func TestSchema_OmitsEmptyCollections(t *testing.T) {
	schema := schemadoc.NewSchema()
	schema.Required = []string{}
	schema.AllOf = []schemadoc.ConditionRule{}

	if got, want := testsupport.MustJSON(t, schema), `{"type":"object","properties":{}}`; got != want {
		t.Fatalf("want %s, got %s", want, got)
	}
	if got, want := testsupport.MustJSON(t, schemadoc.Schema{}), `{}`; got != want {
		t.Fatalf("want %s, got %s", want, got)
	}
}

func TestParseSchema_ConditionRulesRoundTrip(t *testing.T) {
	raw := `{"type":"object","properties":{"kind":{"type":"string","enum":["a","b"]},"detail":{"type":"string"}},"allOf":[{"if":{"properties":{"kind":{"const":"b"}}},"then":{"required":["detail"]}}]}`

	schema, err := schemadoc.ParseSchema([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(schema.AllOf) != 1 {
		t.Fatalf("expected one rule, got %d", len(schema.AllOf))
	}
	rule := schema.AllOf[0]
	if !rule.Targets("detail") || rule.Targets("kind") {
		t.Fatalf("unexpected rule targets: %+v", rule)
	}
	source, ok := rule.If.Properties.Get("kind")
	if !ok || source.Const != "b" {
		t.Fatalf("expected const b on kind, got %+v", source)
	}
	if got := testsupport.MustJSON(t, schema); got != raw {
		t.Fatalf("round trip mismatch\nwant: %s\n got: %s", raw, got)
	}
}

func TestParseSchema_RichOneOfStaysInExtra(t *testing.T) {
	raw := `{"properties":{"pick":{"oneOf":[{"const":"a","title":"A","description":"first"}]},"simple":{"oneOf":[{"const":1,"title":"One"},{"const":2}]}}}`

	schema, err := schemadoc.ParseSchema([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	pick, _ := schema.Field("pick")
	if pick.HasOneOf() {
		t.Fatalf("expected rich oneOf to stay untyped")
	}
	if _, ok := pick.Extra["oneOf"]; !ok {
		t.Fatalf("expected oneOf in extra")
	}
	simple, _ := schema.Field("simple")
	want := []schemadoc.Choice{{Const: float64(1), Title: "One"}, {Const: float64(2)}}
	if diff := cmp.Diff(want, simple.OneOf); diff != "" {
		t.Fatalf("choices mismatch (-want +got):\n%s", diff)
	}
	testsupport.AssertJSONEqual(t, raw, schema)
}

func TestParseSchema_NullValuesSurvive(t *testing.T) {
	raw := `{"properties":{"f":{"title":null,"const":null}}}`
	schema, err := schemadoc.ParseSchema([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	testsupport.AssertJSONEqual(t, raw, schema)
}

func TestParseSchema_YAML(t *testing.T) {
	raw := "type: object\nproperties:\n  b:\n    type: string\n  a:\n    type: boolean\nrequired:\n  - b\n"

	schema, err := schemadoc.ParseSchema([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "a"}, schema.Properties.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if !schema.IsRequired("b") {
		t.Fatalf("expected b to be required")
	}
}

func TestParseSchemaOr_FallsBackToEmpty(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{name: "blank", raw: ""},
		{name: "null", raw: "null"},
		{name: "broken json", raw: `{"type":`},
		{name: "scalar", raw: "not json"},
		{name: "array", raw: `[1,2]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			schema := schemadoc.ParseSchemaOr(tc.raw)
			if got := testsupport.MustJSON(t, schema); got != "{}" {
				t.Fatalf("expected empty schema, got %s", got)
			}
			ui := schemadoc.ParseUISchemaOr(tc.raw)
			if got := testsupport.MustJSON(t, ui); got != "{}" {
				t.Fatalf("expected empty ui schema, got %s", got)
			}
		})
	}
}

func TestParseUISchema_SplitsRootKeysAndFields(t *testing.T) {
	raw := `{"ui:order":["b","a","*"],"a":{"ui:widget":"TextWidget","ui:options":{"placeholder":"p"}},"ui:submitButtonOptions":{"norender":true},"b":{}}`

	ui, err := schemadoc.ParseUISchema([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "a", "*"}, ui.Order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	entry, ok := ui.Field("a")
	if !ok || entry.Widget != "TextWidget" || entry.OptionString(schemadoc.OptionPlaceholder) != "p" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if _, ok := ui.Extra["ui:submitButtonOptions"]; !ok {
		t.Fatalf("expected root option in extra")
	}

	want := `{"ui:order":["b","a","*"],"ui:submitButtonOptions":{"norender":true},"a":{"ui:widget":"TextWidget","ui:options":{"placeholder":"p"}}}`
	if got := testsupport.MustJSON(t, ui); got != want {
		t.Fatalf("encode mismatch\nwant: %s\n got: %s", want, got)
	}
}

func TestPairStrings(t *testing.T) {
	pair := schemadoc.ParsePair(`{"type":"object","properties":{"a":{"type":"string"}}}`, `garbage`)
	schema, ui, err := pair.Strings()
	if err != nil {
		t.Fatalf("strings: %v", err)
	}
	if schema != `{"type":"object","properties":{"a":{"type":"string"}}}` {
		t.Fatalf("unexpected schema string %s", schema)
	}
	if ui != `{}` {
		t.Fatalf("unexpected ui string %s", ui)
	}
}
