package render

import (
	"embed"
	"io/fs"
)

// DefaultTemplate is the name of the embedded preview template.
const DefaultTemplate = "preview"

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the embedded preview templates so callers can extend
// them or pass a modified copy through WithTemplateRenderer.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}
