package validation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-formbuilder/pkg/preview"
	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
)

const resourceURL = "formbuilder://preview/schema.json"

// Issue represents a validation error with optional location metadata.
type Issue struct {
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Keyword string `json:"keyword,omitempty"`
	Message string `json:"message"`
}

// Result captures validation outcomes for builder previews.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues,omitempty"`
}

// Option configures a Validator.
type Option func(*Validator)

// WithMessages replaces the message table.
func WithMessages(messages Messages) Option {
	return func(v *Validator) {
		v.messages = messages
	}
}

// WithFormatAssertions toggles format assertions. They are on by default.
func WithFormatAssertions(enabled bool) Option {
	return func(v *Validator) {
		v.assertFormat = enabled
	}
}

// WithKeepEmptyStrings stops the validator from treating empty top-level
// strings as missing values.
func WithKeepEmptyStrings() Option {
	return func(v *Validator) {
		v.keepEmpty = true
	}
}

// Validator checks preview form data against the preview form of a
// builder document.
type Validator struct {
	messages     Messages
	assertFormat bool
	keepEmpty    bool
}

// New constructs a Validator. Messages default to SwedishMessages.
func New(options ...Option) *Validator {
	v := &Validator{assertFormat: true}
	for _, opt := range options {
		if opt != nil {
			opt(v)
		}
	}
	if v.messages == nil {
		v.messages = SwedishMessages()
	}
	return v
}

// Compiled is a preview schema ready to validate values.
type Compiled struct {
	validator *Validator
	schema    *jsonschema.Schema
	document  any
}

// Compile transforms schema for preview and compiles it as draft 2020-12.
func (v *Validator) Compile(schema schemadoc.Schema) (*Compiled, error) {
	raw, err := json.Marshal(preview.Transform(schema))
	if err != nil {
		return nil, fmt.Errorf("validation: encode schema: %w", err)
	}
	document, err := decodeNumbers(raw)
	if err != nil {
		return nil, fmt.Errorf("validation: decode schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = v.assertFormat
	if !v.assertFormat {
		// Draft 2020 resources keep the format checker attached regardless
		// of AssertFormat, so known formats are overridden to always pass.
		compiler.Formats = annotationOnlyFormats()
	}
	if err := compiler.AddResource(resourceURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("validation: add schema: %w", err)
	}
	compiled, err := compiler.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("validation: compile schema: %w", err)
	}
	return &Compiled{validator: v, schema: compiled, document: document}, nil
}

// Validate compiles the preview schema of pair and validates values. Schema
// problems are reported as issues rather than errors.
func (v *Validator) Validate(ctx context.Context, pair schemadoc.Pair, values map[string]any) Result {
	compiled, err := v.Compile(pair.Schema)
	if err != nil {
		return Result{Issues: []Issue{issueFromError(err)}}
	}
	return compiled.Validate(ctx, values)
}

// Validate checks values against the compiled schema.
func (c *Compiled) Validate(ctx context.Context, values map[string]any) Result {
	if err := ctx.Err(); err != nil {
		return Result{Issues: []Issue{{Message: err.Error()}}}
	}

	instance, err := c.instance(values)
	if err != nil {
		return Result{Issues: []Issue{issueFromError(err)}}
	}

	err = c.schema.Validate(instance)
	if err == nil {
		return Result{Valid: true}
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return Result{Issues: []Issue{issueFromError(err)}}
	}

	var issues []Issue
	for _, leaf := range leaves(verr, nil) {
		issues = append(issues, c.issues(leaf)...)
	}
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Path != issues[j].Path {
			return issues[i].Path < issues[j].Path
		}
		return issues[i].Keyword < issues[j].Keyword
	})
	return Result{Valid: len(issues) == 0, Issues: issues}
}

// instance round-trips values through JSON so the validator sees plain JSON
// types with numbers kept exact.
func (c *Compiled) instance(values map[string]any) (any, error) {
	clean := make(map[string]any, len(values))
	for key, value := range values {
		if text, ok := value.(string); ok && text == "" && !c.validator.keepEmpty {
			continue
		}
		clean[key] = value
	}
	raw, err := json.Marshal(clean)
	if err != nil {
		return nil, fmt.Errorf("validation: encode values: %w", err)
	}
	instance, err := decodeNumbers(raw)
	if err != nil {
		return nil, fmt.Errorf("validation: decode values: %w", err)
	}
	return instance, nil
}

func (c *Compiled) issues(leaf *jsonschema.ValidationError) []Issue {
	keyword := lastSegment(leaf.KeywordLocation)
	param := c.param(leaf.AbsoluteKeywordLocation)

	if keyword == "required" {
		names := missingNames(leaf.Message)
		out := make([]Issue, 0, len(names))
		for _, name := range names {
			path := leaf.InstanceLocation + "/" + escapePointer(name)
			out = append(out, Issue{
				Path:    path,
				Field:   fieldFromInstance(path),
				Keyword: keyword,
				Message: c.message(Params{Keyword: keyword, Field: name, Message: leaf.Message}),
			})
		}
		return out
	}

	field := fieldFromInstance(leaf.InstanceLocation)
	return []Issue{{
		Path:    leaf.InstanceLocation,
		Field:   field,
		Keyword: keyword,
		Message: c.message(Params{Keyword: keyword, Field: field, Param: param, Message: leaf.Message}),
	}}
}

func (c *Compiled) message(params Params) string {
	if build, ok := c.validator.messages[params.Keyword]; ok && build != nil {
		return build(params)
	}
	return params.Message
}

// param reads the keyword value at the fragment of an absolute keyword
// location.
func (c *Compiled) param(location string) any {
	_, fragment, ok := strings.Cut(location, "#")
	if !ok {
		return nil
	}
	node := c.document
	for _, segment := range splitPointer(fragment) {
		switch typed := node.(type) {
		case map[string]any:
			node = typed[segment]
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(typed) {
				return nil
			}
			node = typed[idx]
		default:
			return nil
		}
	}
	return node
}

func annotationOnlyFormats() map[string]func(any) bool {
	out := make(map[string]func(any) bool, len(jsonschema.Formats))
	for name := range jsonschema.Formats {
		out[name] = func(any) bool { return true }
	}
	return out
}

func leaves(err *jsonschema.ValidationError, out []*jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(err.Causes) == 0 {
		if err.Message != "" {
			out = append(out, err)
		}
		return out
	}
	for _, cause := range err.Causes {
		out = leaves(cause, out)
	}
	return out
}

// missingNames extracts the property names of a required failure. The
// library lists them single-quoted and comma separated.
func missingNames(message string) []string {
	var names []string
	rest := message
	for {
		start := strings.IndexByte(rest, '\'')
		if start < 0 {
			return names
		}
		rest = rest[start+1:]
		var b strings.Builder
		closed := false
		for idx := 0; idx < len(rest); idx++ {
			ch := rest[idx]
			if ch == '\\' && idx+1 < len(rest) {
				b.WriteByte(ch)
				b.WriteByte(rest[idx+1])
				idx++
				continue
			}
			if ch == '\'' {
				rest = rest[idx+1:]
				closed = true
				break
			}
			b.WriteByte(ch)
		}
		if !closed {
			return names
		}
		names = append(names, unquoteName(b.String()))
	}
}

func unquoteName(quoted string) string {
	text := strings.ReplaceAll(quoted, `\'`, `'`)
	text = strings.ReplaceAll(text, `"`, `\"`)
	if name, err := strconv.Unquote(`"` + text + `"`); err == nil {
		return name
	}
	return quoted
}

func decodeNumbers(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func issueFromError(err error) Issue {
	if err == nil {
		return Issue{Message: "unknown error"}
	}
	var schemaErr *jsonschema.SchemaError
	if errors.As(err, &schemaErr) {
		var verr *jsonschema.ValidationError
		if errors.As(schemaErr.Err, &verr) {
			leaf := verr
			for len(leaf.Causes) > 0 {
				leaf = leaf.Causes[0]
			}
			return Issue{
				Path:    leaf.InstanceLocation,
				Field:   fieldPathFromPointer(leaf.InstanceLocation),
				Keyword: lastSegment(leaf.KeywordLocation),
				Message: strings.TrimSpace(leaf.Message),
			}
		}
	}

	msg := strings.TrimSpace(err.Error())
	msg = strings.TrimPrefix(msg, "validation: ")
	msg = strings.TrimPrefix(msg, "jsonschema: ")
	return Issue{Message: strings.TrimSpace(msg)}
}
