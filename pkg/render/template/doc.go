// Package template defines the template engine seam used by the preview
// renderer. The pongo2 backed implementation lives in template/gotemplate.
package template
