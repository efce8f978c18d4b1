package schemadoc

import (
	"bytes"
	"errors"
	"fmt"
	"iter"

	"github.com/goccy/go-json"
)

// Cloner is implemented by values stored in an OrderedMap.
type Cloner[V any] interface {
	Clone() V
}

// OrderedMap is a string keyed map that remembers insertion order. The zero
// value is an absent map and encodes to nothing; NewOrderedMap returns an
// empty map that is present and encodes as {}.
type OrderedMap[V Cloner[V]] struct {
	keys   []string
	values map[string]V
}

// Properties maps field names to their schema in canvas fallback order.
type Properties = OrderedMap[FieldSchema]

// UIFields maps field names to their UI schema entry.
type UIFields = OrderedMap[FieldUISchema]

// NewOrderedMap returns an empty, present map.
func NewOrderedMap[V Cloner[V]]() OrderedMap[V] {
	return OrderedMap[V]{values: make(map[string]V)}
}

// NewProperties returns an empty, present property map.
func NewProperties() Properties {
	return NewOrderedMap[FieldSchema]()
}

// Present reports whether the map exists, even if it has no entries.
func (m OrderedMap[V]) Present() bool {
	return m.values != nil
}

// Len returns the number of entries.
func (m OrderedMap[V]) Len() int {
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m OrderedMap[V]) Keys() []string {
	if len(m.keys) == 0 {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Get returns the entry stored under key.
func (m OrderedMap[V]) Get(key string) (V, bool) {
	value, ok := m.values[key]
	return value, ok
}

// Has reports whether key is present.
func (m OrderedMap[V]) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// IndexOf returns the insertion position of key or -1.
func (m OrderedMap[V]) IndexOf(key string) int {
	for idx, existing := range m.keys {
		if existing == key {
			return idx
		}
	}
	return -1
}

// All iterates entries in insertion order.
func (m OrderedMap[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, key := range m.keys {
			if !yield(key, m.values[key]) {
				return
			}
		}
	}
}

// Clone returns a deep copy.
func (m OrderedMap[V]) Clone() OrderedMap[V] {
	if m.values == nil {
		return OrderedMap[V]{}
	}
	out := OrderedMap[V]{
		keys:   append([]string(nil), m.keys...),
		values: make(map[string]V, len(m.values)),
	}
	for key, value := range m.values {
		out.values[key] = value.Clone()
	}
	return out
}

// Set stores value under key. New keys are appended; existing keys keep
// their position.
func (m *OrderedMap[V]) Set(key string, value V) {
	if m.values == nil {
		m.values = make(map[string]V)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Delete removes key and reports whether it existed.
func (m *OrderedMap[V]) Delete(key string) bool {
	if _, ok := m.values[key]; !ok {
		return false
	}
	delete(m.values, key)
	if idx := m.IndexOf(key); idx >= 0 {
		m.keys = append(m.keys[:idx:idx], m.keys[idx+1:]...)
	}
	return true
}

// Rename moves the entry under from to to, keeping its position. It fails
// when from is missing or to is already taken.
func (m *OrderedMap[V]) Rename(from, to string) bool {
	value, ok := m.values[from]
	if !ok || from == to {
		return false
	}
	if _, taken := m.values[to]; taken {
		return false
	}
	delete(m.values, from)
	m.values[to] = value
	m.keys[m.IndexOf(from)] = to
	return true
}

// MarshalJSON encodes the entries as an object in insertion order.
func (m OrderedMap[V]) MarshalJSON() ([]byte, error) {
	var b objectBuilder
	for _, key := range m.keys {
		b.add(key, m.values[key])
	}
	return b.bytes()
}

// UnmarshalJSON decodes an object, keeping the key order of the input.
func (m *OrderedMap[V]) UnmarshalJSON(data []byte) error {
	keys, raw, err := decodeObject(data)
	if err != nil {
		return err
	}
	out := NewOrderedMap[V]()
	for _, key := range keys {
		var value V
		if err := json.Unmarshal(raw[key], &value); err != nil {
			return fmt.Errorf("schemadoc: decode %q: %w", key, err)
		}
		out.Set(key, value)
	}
	*m = out
	return nil
}

var errNotObject = errors.New("schemadoc: expected a JSON object")

// decodeObject splits an object into its keys, in document order, and the
// raw value of each key. Duplicate keys keep the last value at the first
// position.
func decodeObject(data []byte) ([]string, map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, nil, errNotObject
	}
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, nil, fmt.Errorf("schemadoc: decode object: %w", err)
	}
	keys, err := objectKeys(trimmed)
	if err != nil {
		return nil, nil, err
	}
	return keys, raw, nil
}

func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("schemadoc: scan object: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errNotObject
	}

	var keys []string
	seen := make(map[string]struct{})
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("schemadoc: scan object: %w", err)
		}
		if delim, ok := tok.(json.Delim); ok && delim == '}' {
			return keys, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("schemadoc: scan object: unexpected token %v", tok)
		}
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
		if err := skipValue(dec); err != nil {
			return nil, err
		}
	}
}

func skipValue(dec *json.Decoder) error {
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("schemadoc: scan value: %w", err)
		}
		if delim, ok := tok.(json.Delim); ok {
			switch delim {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
		if depth == 0 {
			return nil
		}
	}
}
