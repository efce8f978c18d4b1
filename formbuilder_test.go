package formbuilder_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	formbuilder "github.com/goliatone/go-formbuilder"
	"github.com/goliatone/go-formbuilder/pkg/fieldtypes"
	"github.com/goliatone/go-formbuilder/pkg/operations"
)

func TestBuilderRoundTrip(t *testing.T) {
	doc, err := formbuilder.ParseDocument(`{"type":"object","properties":{}}`, "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	engine := formbuilder.NewEngine()
	b := formbuilder.NewBuilder(doc)
	kind, ok := b.AddField(fieldtypes.Select)
	if !ok {
		t.Fatalf("expected select field to be added")
	}
	note, ok := b.AddField(fieldtypes.Text)
	if !ok {
		t.Fatalf("expected text field to be added")
	}
	b.UpdateCondition(note, &operations.FieldCondition{DependsOnField: kind, DependsOnValue: "option2", RequiredWhenVisible: true})

	previewDoc := formbuilder.PreviewSchema(b.Document())
	if diff := cmp.Diff([]string{kind}, previewDoc.Schema.Properties.Keys()); diff != "" {
		t.Fatalf("preview root properties mismatch (-want +got):\n%s", diff)
	}
	if _, ok := engine.FieldCondition(b.Document().Schema, note); !ok {
		t.Fatalf("expected authoring schema to keep the condition")
	}

	ctx := context.Background()
	if result := formbuilder.Validate(ctx, b.Document(), map[string]any{kind: "option2"}); result.Valid {
		t.Fatalf("expected missing %s to be reported", note)
	}
	if result := formbuilder.Validate(ctx, b.Document(), map[string]any{kind: "option1"}); !result.Valid {
		t.Fatalf("expected valid result, got %+v", result.Issues)
	}
}

func TestParseDocumentRejectsMalformedSchema(t *testing.T) {
	if _, err := formbuilder.ParseDocument(`{"type":`, ""); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestGenerateHTML(t *testing.T) {
	doc, err := formbuilder.ParseDocument(
		`{"type":"object","properties":{"name":{"type":"string","title":"Namn"}}}`,
		`{"name":{"ui:widget":"TextWidget"}}`,
	)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := formbuilder.GenerateHTML(context.Background(), doc, formbuilder.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out), `data-field="name"`) {
		t.Fatalf("expected name field in markup:\n%s", out)
	}
}
