package schemadoc

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ErrEmptyDocument is returned by the strict parsers for blank or null input.
var ErrEmptyDocument = errors.New("schemadoc: empty document")

// Update is a partial object shallow-merged into a field or UI entry. A nil
// value removes the key.
type Update map[string]any

// ParseSchema decodes a JSON (or YAML) schema document.
func ParseSchema(data []byte) (Schema, error) {
	payload, err := normalizeInput(data)
	if err != nil {
		return Schema{}, err
	}
	var out Schema
	if err := json.Unmarshal(payload, &out); err != nil {
		return Schema{}, fmt.Errorf("schemadoc: parse schema: %w", err)
	}
	return out, nil
}

// ParseUISchema decodes a JSON (or YAML) UI schema document.
func ParseUISchema(data []byte) (UISchema, error) {
	payload, err := normalizeInput(data)
	if err != nil {
		return UISchema{}, err
	}
	var out UISchema
	if err := json.Unmarshal(payload, &out); err != nil {
		return UISchema{}, fmt.Errorf("schemadoc: parse ui schema: %w", err)
	}
	return out, nil
}

// ParseSchemaOr decodes a persisted schema string and falls back to an empty
// object when the input is blank or malformed.
func ParseSchemaOr(raw string) Schema {
	schema, err := ParseSchema([]byte(raw))
	if err != nil {
		return Schema{}
	}
	return schema
}

// ParseUISchemaOr decodes a persisted UI schema string and falls back to an
// empty object when the input is blank or malformed.
func ParseUISchemaOr(raw string) UISchema {
	ui, err := ParseUISchema([]byte(raw))
	if err != nil {
		return UISchema{}
	}
	return ui
}

// ParsePair decodes both persisted strings with the lenient parsers.
func ParsePair(schemaRaw, uiRaw string) Pair {
	return Pair{Schema: ParseSchemaOr(schemaRaw), UI: ParseUISchemaOr(uiRaw)}
}

// Strings serialises the pair into the persisted string form.
func (p Pair) Strings() (string, string, error) {
	schema, err := json.Marshal(p.Schema)
	if err != nil {
		return "", "", fmt.Errorf("schemadoc: encode schema: %w", err)
	}
	ui, err := json.Marshal(p.UI)
	if err != nil {
		return "", "", fmt.Errorf("schemadoc: encode ui schema: %w", err)
	}
	return string(schema), string(ui), nil
}

// MarshalIndent encodes any document value with two space indentation.
func MarshalIndent(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// normalizeInput returns a JSON object payload. Input that does not look
// like JSON is read as YAML, keeping mapping order.
func normalizeInput(data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, ErrEmptyDocument
	}
	if trimmed[0] == '{' {
		if !json.Valid(trimmed) {
			return nil, fmt.Errorf("schemadoc: invalid JSON document")
		}
		return trimmed, nil
	}
	converted, err := yamlToJSON(trimmed)
	if err != nil {
		return nil, err
	}
	if len(converted) == 0 || converted[0] != '{' {
		return nil, errNotObject
	}
	return converted, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("schemadoc: parse yaml: %w", err)
	}
	if root.Kind == 0 {
		return nil, ErrEmptyDocument
	}
	var buf bytes.Buffer
	if err := writeYAMLNode(&buf, &root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeYAMLNode(buf *bytes.Buffer, node *yaml.Node) error {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeYAMLNode(buf, node.Content[0])
	case yaml.AliasNode:
		return writeYAMLNode(buf, node.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for idx := 0; idx+1 < len(node.Content); idx += 2 {
			if idx > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(node.Content[idx].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeYAMLNode(buf, node.Content[idx+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for idx, item := range node.Content {
			if idx > 0 {
				buf.WriteByte(',')
			}
			if err := writeYAMLNode(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		var value any
		if node.Tag == "!!timestamp" {
			value = node.Value
		} else if err := node.Decode(&value); err != nil {
			return fmt.Errorf("schemadoc: decode yaml scalar: %w", err)
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("schemadoc: encode yaml scalar: %w", err)
		}
		buf.Write(encoded)
		return nil
	}
}

// objectBuilder writes a JSON object key by key. Keys already written are
// skipped, so known fields win over colliding Extra entries.
type objectBuilder struct {
	buf     bytes.Buffer
	written map[string]struct{}
	err     error
}

func (b *objectBuilder) add(key string, value any) {
	if b.err != nil {
		return
	}
	if _, dup := b.written[key]; dup {
		return
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		b.err = fmt.Errorf("schemadoc: encode %q: %w", key, err)
		return
	}
	encodedKey, err := json.Marshal(key)
	if err != nil {
		b.err = fmt.Errorf("schemadoc: encode key %q: %w", key, err)
		return
	}
	if b.buf.Len() == 0 {
		b.buf.WriteByte('{')
	} else {
		b.buf.WriteByte(',')
	}
	b.buf.Write(encodedKey)
	b.buf.WriteByte(':')
	b.buf.Write(encoded)
	if b.written == nil {
		b.written = make(map[string]struct{})
	}
	b.written[key] = struct{}{}
}

func (b *objectBuilder) addString(key, value string) {
	if value == "" {
		return
	}
	b.add(key, value)
}

// addExtra writes the listed keys of extra, or every remaining key in sorted
// order when none are listed.
func (b *objectBuilder) addExtra(extra map[string]any, keys ...string) {
	if len(extra) == 0 {
		return
	}
	if len(keys) == 0 {
		keys = make([]string, 0, len(extra))
		for key := range extra {
			keys = append(keys, key)
		}
		sort.Strings(keys)
	}
	for _, key := range keys {
		value, ok := extra[key]
		if !ok {
			continue
		}
		b.add(key, value)
	}
}

func (b *objectBuilder) bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.buf.Len() == 0 {
		return []byte("{}"), nil
	}
	out := append([]byte(nil), b.buf.Bytes()...)
	return append(out, '}'), nil
}

// decodeInto decodes value into target and reports success. Null never
// counts as success so it survives in Extra.
func decodeInto[T any](value json.RawMessage, target *T) bool {
	if isNull(value) {
		return false
	}
	var decoded T
	if err := json.Unmarshal(value, &decoded); err != nil {
		return false
	}
	*target = decoded
	return true
}

func decodeAny(value json.RawMessage) (any, error) {
	var out any
	if err := json.Unmarshal(value, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ValueString renders a JSON scalar the way it is shown and compared in
// condition rules: strings as is, numbers without trailing zeros, other
// values as JSON.
func ValueString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case json.Number:
		return typed.String()
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprint(typed)
		}
		return string(encoded)
	}
}

func isNull(value json.RawMessage) bool {
	return strings.TrimSpace(string(value)) == "null"
}

// mergeObject encodes base, applies update on top and returns the merged
// object encoding.
func mergeObject(base any, update Update) ([]byte, error) {
	encoded, err := json.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("schemadoc: encode base: %w", err)
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(encoded, &fields); err != nil {
		return nil, fmt.Errorf("schemadoc: decode base: %w", err)
	}
	for key, value := range update {
		if value == nil {
			delete(fields, key)
			continue
		}
		fields[key] = value
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("schemadoc: encode update: %w", err)
	}
	return merged, nil
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneSlice(in []any) []any {
	if len(in) == 0 {
		return nil
	}
	out := make([]any, len(in))
	for idx, value := range in {
		out[idx] = cloneAny(value)
	}
	return out
}

func cloneMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = cloneAny(value)
	}
	return out
}

func cloneAny(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		if typed == nil {
			return typed
		}
		out := make(map[string]any, len(typed))
		for key, v := range typed {
			out[key] = cloneAny(v)
		}
		return out
	case []any:
		if typed == nil {
			return typed
		}
		out := make([]any, len(typed))
		for idx, v := range typed {
			out[idx] = cloneAny(v)
		}
		return out
	default:
		return value
	}
}
