package render

import "github.com/goliatone/go-formbuilder/pkg/validation"

// Options describe per-request data renderers use to customise a preview
// without touching the document.
type Options struct {
	// Values pre-populates controls and drives conditional visibility.
	Values map[string]any
	// Extras is passed to visibility rules as extras.
	Extras map[string]any
	// Issues are shown next to the fields they belong to. Unmatched issues
	// are rendered as form-level errors.
	Issues []validation.Issue
	// Theme and Variant select a theme through the configured selector.
	Theme   string
	Variant string
	// Hidden inputs emitted before the fields.
	Hidden map[string]string
	// Action is the form action attribute. Empty renders no action.
	Action string
}
