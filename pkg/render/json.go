package render

import (
	"context"
	"fmt"

	"github.com/goliatone/go-formbuilder/pkg/preview"
	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
)

// JSONRenderer emits the preview document, the input a generic schema form
// renderer consumes.
type JSONRenderer struct{}

var _ Renderer = JSONRenderer{}

// Name implements Renderer.
func (JSONRenderer) Name() string { return "json" }

// ContentType implements Renderer.
func (JSONRenderer) ContentType() string { return "application/json" }

// Render implements Renderer. Options are ignored.
func (JSONRenderer) Render(ctx context.Context, pair schemadoc.Pair, _ Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc := preview.Document(pair)
	out, err := schemadoc.MarshalIndent(map[string]any{
		"schema":   doc.Schema,
		"uiSchema": doc.UI,
	})
	if err != nil {
		return nil, fmt.Errorf("render: encode preview: %w", err)
	}
	return out, nil
}

// DefaultRegistry returns a registry holding the HTML and JSON renderers.
func DefaultRegistry(options ...Option) (*Registry, error) {
	html, err := New(options...)
	if err != nil {
		return nil, err
	}
	registry := NewRegistry()
	registry.MustRegister(html)
	registry.MustRegister(JSONRenderer{})
	return registry, nil
}
