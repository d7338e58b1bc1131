package projection

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/sjson"
)

// Map is an insertion-ordered string-keyed map produced by Project.
type Map struct {
	keys   []string
	values map[string]any
}

func newMap(capacity int) *Map {
	return &Map{
		keys:   make([]string, 0, capacity),
		values: make(map[string]any, capacity),
	}
}

func (m *Map) set(key string, value any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// MarshalJSON encodes the map as a JSON object with keys in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return MarshalOrdered(m.keys, func(k string) any { return m.values[k] })
}

// MarshalOrdered encodes keys as a JSON object, in the given order, looking
// each value up through value.
func MarshalOrdered(keys []string, value func(string) any) ([]byte, error) {
	out := []byte("{}")
	for _, k := range keys {
		raw, err := json.Marshal(value(k))
		if err != nil {
			return nil, fmt.Errorf("encode field %q: %w", k, err)
		}
		if k == "" {
			out = appendMember(out, k, raw)
			continue
		}
		out, err = sjson.SetRawBytes(out, EscapeKey(k), raw)
		if err != nil {
			return nil, fmt.Errorf("encode field %q: %w", k, err)
		}
	}
	return out, nil
}

// appendMember adds "key":raw before the closing brace of the compact
// object obj. Used for keys a path cannot address, such as "".
func appendMember(obj []byte, key string, raw []byte) []byte {
	name, _ := json.Marshal(key)
	out := make([]byte, 0, len(obj)+len(name)+len(raw)+2)
	out = append(out, obj[:len(obj)-1]...)
	if len(obj) > 2 {
		out = append(out, ',')
	}
	out = append(out, name...)
	out = append(out, ':')
	out = append(out, raw...)
	return append(out, '}')
}

const pathSpecials = `\.*?|#@!:`

// EscapeKey turns an object key into a single-component gjson/sjson path.
func EscapeKey(key string) string {
	if !strings.ContainsAny(key, pathSpecials) {
		return key
	}
	var b strings.Builder
	b.Grow(len(key) + 4)
	for _, r := range key {
		if strings.ContainsRune(pathSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
