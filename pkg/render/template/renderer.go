package template

import "io"

// Filter transforms a template value. param is nil when the filter is used
// without an argument.
type Filter func(input any, param any) (any, error)

// TemplateRenderer is what the preview renderer needs from a template engine.
// Output is returned and, when writers are given, also written to each of
// them.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}
