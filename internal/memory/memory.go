// Package memory holds the assistant's persisted key/value memory.
//
// A Memory maps string keys (a prompt, "RAG: <query>", "self_improvement", ...)
// to either a text value or a small record of text fields. Keys keep the order
// in which they were first written; writing an existing key replaces its value
// in place.
package memory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Value is either a plain text value or a record of named text fields.
type Value struct {
	text   string
	record map[string]string
}

// Text returns a text value. Invalid UTF-8 is replaced with U+FFFD, the
// form it takes after a JSON round trip.
func Text(s string) Value {
	return Value{text: validUTF8(s)}
}

// Record returns a record value. The map is copied; names and fields are
// sanitized like Text.
func Record(fields map[string]string) Value {
	r := make(map[string]string, len(fields))
	for k, v := range fields {
		r[validUTF8(k)] = validUTF8(v)
	}
	return Value{record: r}
}

func validUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// IsRecord reports whether v holds a record.
func (v Value) IsRecord() bool { return v.record != nil }

// Field returns a record field. Text values have no fields.
func (v Value) Field(name string) (string, bool) {
	s, ok := v.record[name]
	return s, ok
}

// Fields returns a copy of the record fields, or nil for text values.
func (v Value) Fields() map[string]string {
	if v.record == nil {
		return nil
	}
	out := make(map[string]string, len(v.record))
	for k, s := range v.record {
		out[k] = s
	}
	return out
}

// String renders the value for display. Records render one "name: value"
// line per field in name order.
func (v Value) String() string {
	if v.record == nil {
		return v.text
	}
	names := make([]string, 0, len(v.record))
	for k := range v.record {
		names = append(names, k)
	}
	sort.Strings(names)
	var sb strings.Builder
	for i, k := range names {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(v.record[k])
	}
	return sb.String()
}

// MarshalJSON encodes text as a JSON string and records as a JSON object.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.record != nil {
		return json.Marshal(v.record)
	}
	return json.Marshal(v.text)
}

// UnmarshalJSON accepts a JSON string or an object. Object members that are
// not strings are kept as their raw JSON text.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("memory value: empty input")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Value{text: s}
		return nil
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		rec := make(map[string]string, len(raw))
		for k, r := range raw {
			var s string
			if json.Unmarshal(r, &s) == nil {
				rec[k] = s
			} else {
				rec[k] = string(r)
			}
		}
		*v = Value{record: rec}
		return nil
	default:
		return fmt.Errorf("memory value: expected string or object, got %s", data)
	}
}

// Entry is one key/value pair in insertion order.
type Entry struct {
	Key   string
	Value Value
}

// Memory is an insertion-ordered mapping from key to Value.
// The zero value is an empty memory ready to use.
type Memory struct {
	pairs *orderedmap.OrderedMap[string, Value]
}

// New returns an empty Memory.
func New() *Memory {
	return &Memory{pairs: orderedmap.New[string, Value]()}
}

func (m *Memory) init() {
	if m.pairs == nil {
		m.pairs = orderedmap.New[string, Value]()
	}
}

// Set writes key. Last write wins; an existing key keeps its position.
// Keys are sanitized like Text so they survive a save and reload.
func (m *Memory) Set(key string, v Value) {
	m.init()
	m.pairs.Set(validUTF8(key), v)
}

// SetText is shorthand for Set(key, Text(s)).
func (m *Memory) SetText(key, s string) { m.Set(key, Text(s)) }

// Get returns the value stored under key.
func (m *Memory) Get(key string) (Value, bool) {
	if m.pairs == nil {
		return Value{}, false
	}
	return m.pairs.Get(validUTF8(key))
}

// Len returns the number of keys.
func (m *Memory) Len() int {
	if m.pairs == nil {
		return 0
	}
	return m.pairs.Len()
}

// Keys returns the keys in insertion order.
func (m *Memory) Keys() []string {
	keys := make([]string, 0, m.Len())
	if m.pairs == nil {
		return keys
	}
	for p := m.pairs.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Entries returns all pairs in insertion order.
func (m *Memory) Entries() []Entry {
	out := make([]Entry, 0, m.Len())
	if m.pairs == nil {
		return out
	}
	for p := m.pairs.Oldest(); p != nil; p = p.Next() {
		out = append(out, Entry{Key: p.Key, Value: p.Value})
	}
	return out
}

// Clear removes every key.
func (m *Memory) Clear() {
	m.pairs = orderedmap.New[string, Value]()
}

// Clone returns an independent copy.
func (m *Memory) Clone() *Memory {
	c := New()
	for _, e := range m.Entries() {
		if e.Value.IsRecord() {
			c.Set(e.Key, Record(e.Value.record))
		} else {
			c.Set(e.Key, e.Value)
		}
	}
	return c
}

// String renders the memory as a compact JSON object, the form used inside prompts.
func (m *Memory) String() string {
	data, err := m.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(data)
}

// MarshalJSON encodes the memory as a JSON object with keys in insertion order.
func (m *Memory) MarshalJSON() ([]byte, error) {
	m.init()
	return m.pairs.MarshalJSON()
}

// UnmarshalJSON replaces the memory with the JSON object in data, keeping its key order.
func (m *Memory) UnmarshalJSON(data []byte) error {
	pairs := orderedmap.New[string, Value]()
	if err := pairs.UnmarshalJSON(data); err != nil {
		return err
	}
	m.pairs = pairs
	return nil
}
