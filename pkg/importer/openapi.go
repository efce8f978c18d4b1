// Package importer seeds builder documents from external schema sources.
package importer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formbuilder/pkg/fieldtypes"
	"github.com/goliatone/go-formbuilder/pkg/operations"
	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
)

// ExtensionNamespace is the vendor extension read for builder hints.
const ExtensionNamespace = "x-formgen"

// LongTextThreshold is the maxLength above which strings become textareas.
const LongTextThreshold = 255

// Option configures an import.
type Option func(*config)

type config struct {
	engine    *operations.Engine
	validate  bool
	external  bool
	skipped   *[]string
	threshold int
}

// WithEngine sets the engine used to add fields.
func WithEngine(engine *operations.Engine) Option {
	return func(c *config) {
		if engine != nil {
			c.engine = engine
		}
	}
}

// WithValidation validates the OpenAPI document before importing.
func WithValidation(enabled bool) Option {
	return func(c *config) {
		c.validate = enabled
	}
}

// WithExternalRefs allows $ref pointers to other documents.
func WithExternalRefs(enabled bool) Option {
	return func(c *config) {
		c.external = enabled
	}
}

// WithSkipped collects the names of properties that have no field type.
func WithSkipped(target *[]string) Option {
	return func(c *config) {
		c.skipped = target
	}
}

// WithLongTextThreshold overrides LongTextThreshold.
func WithLongTextThreshold(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.threshold = n
		}
	}
}

// FromOpenAPI loads an OpenAPI 3 document and turns the primitive properties
// of components.schemas[component] into builder fields. Properties are added
// in sorted name order; nested objects and arrays are skipped.
func FromOpenAPI(ctx context.Context, raw []byte, component string, options ...Option) (schemadoc.Pair, error) {
	cfg := config{engine: operations.New(), threshold: LongTextThreshold}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := ctx.Err(); err != nil {
		return schemadoc.Pair{}, err
	}
	if len(raw) == 0 {
		return schemadoc.Pair{}, errors.New("importer: openapi document is empty")
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = cfg.external
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return schemadoc.Pair{}, fmt.Errorf("importer: load openapi: %w", err)
	}
	if cfg.validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return schemadoc.Pair{}, fmt.Errorf("importer: validate openapi: %w", err)
		}
	}

	if spec.Components == nil {
		return schemadoc.Pair{}, fmt.Errorf("importer: component %q not found", component)
	}
	ref, ok := spec.Components.Schemas[component]
	if !ok || ref == nil || ref.Value == nil {
		return schemadoc.Pair{}, fmt.Errorf("importer: component %q not found", component)
	}

	return cfg.build(ref.Value), nil
}

func (c config) build(src *openapi3.Schema) schemadoc.Pair {
	pair := schemadoc.NewPair()
	names := make([]string, 0, len(src.Properties))
	for name := range src.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop := src.Properties[name]
		if prop == nil || prop.Value == nil {
			c.skip(name)
			continue
		}
		ft, ok := c.fieldType(prop.Value)
		if !ok {
			c.skip(name)
			continue
		}
		pair = c.engine.AddField(pair, name, ft, -1)
		if !pair.Schema.Properties.Has(name) {
			c.skip(name)
			continue
		}
		pair.Schema = c.engine.UpdateFieldSchema(pair.Schema, name, fieldUpdate(prop.Value, ft))
		if update := uiUpdate(prop.Value); len(update) > 0 {
			pair.UI = c.engine.UpdateFieldUISchema(pair.UI, name, update)
		}
	}

	for _, name := range src.Required {
		if pair.Schema.Properties.Has(name) && !pair.Schema.IsRequired(name) {
			pair.Schema = c.engine.ToggleRequired(pair.Schema, name)
		}
	}
	return pair
}

func (c config) skip(name string) {
	if c.skipped != nil {
		*c.skipped = append(*c.skipped, name)
	}
}

func (c config) fieldType(schema *openapi3.Schema) (fieldtypes.FieldType, bool) {
	switch firstSchemaType(schema.Type) {
	case openapi3.TypeBoolean:
		return fieldtypes.Checkbox, true
	case openapi3.TypeNumber, openapi3.TypeInteger:
		return fieldtypes.Number, true
	case openapi3.TypeString, "":
		if schema.Type == nil && len(schema.Properties) > 0 {
			return "", false
		}
	default:
		return "", false
	}

	switch {
	case len(schema.Enum) > 0:
		return fieldtypes.Select, true
	case schema.Format == "date":
		return fieldtypes.Date, true
	case schema.MaxLength != nil && *schema.MaxLength > uint64(c.threshold):
		return fieldtypes.Textarea, true
	default:
		return fieldtypes.Text, true
	}
}

func fieldUpdate(schema *openapi3.Schema, ft fieldtypes.FieldType) schemadoc.Update {
	update := schemadoc.Update{}
	if schema.Title != "" {
		update[schemadoc.KeyTitle] = schema.Title
	}
	if schema.Description != "" {
		update[schemadoc.KeyDescription] = schema.Description
	}
	if typ := firstSchemaType(schema.Type); typ == openapi3.TypeInteger {
		update[schemadoc.KeyType] = typ
	}
	if schema.Format != "" && ft != fieldtypes.Date {
		update[schemadoc.KeyFormat] = schema.Format
	}
	if ft == fieldtypes.Select {
		update[schemadoc.KeyEnum] = append([]any(nil), schema.Enum...)
		update[schemadoc.KeyEnumNames] = enumNames(schema)
	}
	if schema.MinLength > 0 {
		update["minLength"] = schema.MinLength
	}
	if schema.MaxLength != nil {
		update["maxLength"] = *schema.MaxLength
	}
	if schema.Min != nil {
		update["minimum"] = *schema.Min
	}
	if schema.Max != nil {
		update["maximum"] = *schema.Max
	}
	if schema.Pattern != "" {
		update["pattern"] = schema.Pattern
	}
	return update
}

// enumNames reads x-formgen.enumNames, falling back to the values.
func enumNames(schema *openapi3.Schema) []string {
	hints := extensionHints(schema)
	var labels []string
	if raw, ok := hints["enumNames"].([]any); ok {
		for _, item := range raw {
			labels = append(labels, schemadoc.ValueString(item))
		}
	}
	out := make([]string, len(schema.Enum))
	for idx, value := range schema.Enum {
		out[idx] = schemadoc.ValueString(value)
		if idx < len(labels) && labels[idx] != "" {
			out[idx] = labels[idx]
		}
	}
	return out
}

func uiUpdate(schema *openapi3.Schema) schemadoc.Update {
	hints := extensionHints(schema)
	update := schemadoc.Update{}
	if widget, ok := hints["widget"].(string); ok && widget != "" {
		update[schemadoc.UIWidget] = widget
	}
	if label, ok := hints["label"].(string); ok && label != "" {
		update[schemadoc.UITitle] = label
	}
	if placeholder, ok := hints["placeholder"].(string); ok && placeholder != "" {
		update[schemadoc.UIOptions] = map[string]any{schemadoc.OptionPlaceholder: placeholder}
	}
	return update
}

// extensionHints merges the x-formgen object with flat x-formgen-<key>
// entries, including those declared on allOf members.
func extensionHints(schema *openapi3.Schema) map[string]any {
	hints := make(map[string]any)
	collectHints(hints, schema)
	return hints
}

func collectHints(target map[string]any, schema *openapi3.Schema) {
	if schema == nil {
		return
	}
	for _, ref := range schema.AllOf {
		if ref != nil {
			collectHints(target, ref.Value)
		}
	}
	for key, value := range schema.Extensions {
		switch {
		case key == ExtensionNamespace:
			if mapped, ok := value.(map[string]any); ok {
				for k, v := range mapped {
					target[k] = v
				}
			}
		case strings.HasPrefix(key, ExtensionNamespace+"-"):
			target[strings.TrimPrefix(key, ExtensionNamespace+"-")] = value
		}
	}
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	for _, value := range types.Slice() {
		if value != openapi3.TypeNull {
			return value
		}
	}
	return ""
}
