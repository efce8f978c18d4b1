package render

import (
	"context"

	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
)

// Renderer turns a builder document into a preview representation.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, pair schemadoc.Pair, options Options) ([]byte, error)
}
