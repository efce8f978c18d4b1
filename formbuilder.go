// Package formbuilder is the top-level entry point for building and
// previewing JSON Schema forms.
package formbuilder

import (
	"context"
	"errors"
	"fmt"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formbuilder/pkg/builder"
	"github.com/goliatone/go-formbuilder/pkg/operations"
	"github.com/goliatone/go-formbuilder/pkg/preview"
	"github.com/goliatone/go-formbuilder/pkg/render"
	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
	"github.com/goliatone/go-formbuilder/pkg/validation"
)

// Document is the schema and UI schema pair a form is built from.
type Document = schemadoc.Pair

// RenderOptions describes per-request values, issues and theme choices for
// the HTML preview.
type RenderOptions = render.Options

// NewEngine exposes the operations engine constructor from the top-level
// module.
func NewEngine(options ...operations.Option) *operations.Engine {
	return operations.New(options...)
}

// NewBuilder starts an editing session over doc.
func NewBuilder(doc Document, options ...builder.Option) *builder.Builder {
	return builder.New(doc, options...)
}

// ParseDocument strictly parses a schema and an optional UI schema. An empty
// UI schema yields an empty object.
func ParseDocument(schemaJSON, uiJSON string) (Document, error) {
	schema, err := schemadoc.ParseSchema([]byte(schemaJSON))
	if err != nil {
		return Document{}, fmt.Errorf("formbuilder: schema: %w", err)
	}
	doc := Document{Schema: schema, UI: schemadoc.UISchema{}}
	if uiJSON == "" {
		return doc, nil
	}
	ui, err := schemadoc.ParseUISchema([]byte(uiJSON))
	if err != nil && !errors.Is(err, schemadoc.ErrEmptyDocument) {
		return Document{}, fmt.Errorf("formbuilder: ui schema: %w", err)
	}
	if err == nil {
		doc.UI = ui
	}
	return doc, nil
}

// PreviewSchema returns the document as the preview renderer consumes it,
// with conditionally required fields moved into their rules.
func PreviewSchema(doc Document) Document {
	return preview.Document(doc)
}

// Validate checks form values against the preview schema.
func Validate(ctx context.Context, doc Document, values map[string]any) validation.Result {
	return validation.New().Validate(ctx, doc, values)
}

// GenerateHTML renders the preview form of doc with the embedded template.
func GenerateHTML(ctx context.Context, doc Document, options RenderOptions, rendererOptions ...render.Option) ([]byte, error) {
	renderer, err := render.New(rendererOptions...)
	if err != nil {
		return nil, err
	}
	return renderer.Render(ctx, doc, options)
}

// WithThemeSelector passes a go-theme selector through to the HTML renderer
// so theme/variant choices can be resolved ahead of rendering.
func WithThemeSelector(selector theme.ThemeSelector) render.Option {
	return render.WithThemeSelector(selector)
}
