package render

import (
	"slices"
	"strings"

	"github.com/goliatone/go-formbuilder/pkg/validation"
)

// ErrorMapping splits validation messages into per-field messages and
// form-level messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MapIssues groups issues by the top-level form field they belong to. Nested
// locations (array items, object members) attach to their field. Issues
// that do not resolve to one of fields become form-level messages. Messages
// are trimmed and deduplicated in order.
func MapIssues(issues []validation.Issue, fields []string) ErrorMapping {
	var mapping ErrorMapping
	for _, issue := range issues {
		message := strings.TrimSpace(issue.Message)
		if message == "" {
			continue
		}
		name := issue.TopLevel()
		if name == "" || !slices.Contains(fields, name) {
			mapping.Form = appendUnique(mapping.Form, message)
			continue
		}
		if mapping.Fields == nil {
			mapping.Fields = make(map[string][]string)
		}
		mapping.Fields[name] = appendUnique(mapping.Fields[name], message)
	}
	return mapping
}

func appendUnique(messages []string, message string) []string {
	if slices.Contains(messages, message) {
		return messages
	}
	return append(messages, message)
}
