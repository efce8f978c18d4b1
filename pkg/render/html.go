package render

import (
	"context"
	"fmt"

	theme "github.com/goliatone/go-theme"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formbuilder/pkg/operations"
	"github.com/goliatone/go-formbuilder/pkg/render/template"
	"github.com/goliatone/go-formbuilder/pkg/render/template/gotemplate"
	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
	"github.com/goliatone/go-formbuilder/pkg/visibility"
	visexpr "github.com/goliatone/go-formbuilder/pkg/visibility/expr"
)

// StylesheetAsset is the theme asset key linked from the preview.
const StylesheetAsset = "preview.stylesheet"

// Sanitizer cleans user authored HTML before it is rendered unescaped.
type Sanitizer interface {
	Sanitize(string) string
}

// Option configures an HTMLRenderer.
type Option func(*HTMLRenderer)

// WithTemplateRenderer replaces the embedded pongo2 templates.
func WithTemplateRenderer(templates template.TemplateRenderer) Option {
	return func(r *HTMLRenderer) {
		r.templates = templates
	}
}

// WithTemplateName selects the template used for the form.
func WithTemplateName(name string) Option {
	return func(r *HTMLRenderer) {
		if name != "" {
			r.templateName = name
		}
	}
}

// WithEvaluator replaces the expr-lang visibility evaluator.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(r *HTMLRenderer) {
		r.evaluator = evaluator
	}
}

// WithThemeSelector resolves Options.Theme and Options.Variant.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(r *HTMLRenderer) {
		r.themes = selector
	}
}

// WithSanitizer replaces the bluemonday UGC policy.
func WithSanitizer(sanitizer Sanitizer) Option {
	return func(r *HTMLRenderer) {
		r.sanitizer = sanitizer
	}
}

// WithEngine sets the operations engine used for field inspection.
func WithEngine(engine *operations.Engine) Option {
	return func(r *HTMLRenderer) {
		r.engine = engine
	}
}

// HTMLRenderer renders the preview form as HTML.
type HTMLRenderer struct {
	templates    template.TemplateRenderer
	templateName string
	evaluator    visibility.Evaluator
	themes       theme.ThemeSelector
	sanitizer    Sanitizer
	engine       *operations.Engine
}

var _ Renderer = (*HTMLRenderer)(nil)

// New constructs an HTMLRenderer with the embedded template, expr-lang
// visibility and a bluemonday UGC sanitizer unless options replace them.
func New(options ...Option) (*HTMLRenderer, error) {
	r := &HTMLRenderer{templateName: DefaultTemplate}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.templates == nil {
		engine, err := gotemplate.New(gotemplate.WithFS(TemplatesFS()))
		if err != nil {
			return nil, fmt.Errorf("render: template engine: %w", err)
		}
		r.templates = engine
	}
	if r.evaluator == nil {
		r.evaluator = visexpr.New()
	}
	if r.sanitizer == nil {
		r.sanitizer = bluemonday.UGCPolicy()
	}
	if r.engine == nil {
		r.engine = operations.New()
	}
	return r, nil
}

// Name implements Renderer.
func (r *HTMLRenderer) Name() string { return "html" }

// ContentType implements Renderer.
func (r *HTMLRenderer) ContentType() string { return "text/html; charset=utf-8" }

// Render implements Renderer.
func (r *HTMLRenderer) Render(ctx context.Context, pair schemadoc.Pair, options Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	form, err := r.View(pair, options)
	if err != nil {
		return nil, err
	}
	if r.themes != nil {
		selection, err := r.themes.Select(options.Theme, options.Variant)
		if err != nil {
			return nil, fmt.Errorf("render: select theme: %w", err)
		}
		form.Theme = themeView(RendererConfig(selection), StylesheetAsset)
	}

	out, err := r.templates.RenderTemplate(r.templateName, map[string]any{"form": form})
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return []byte(out), nil
}
