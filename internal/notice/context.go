package notice

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/tidwall/gjson"

	"github.com/gyaneshwarpardhi/noticed/internal/projection"
)

// Entry is a single key/value pair of a Context.
type Entry struct {
	Key   string
	Value any
}

// Context is an insertion-ordered map of auxiliary event data.
// The zero value is an empty, ready to use Context.
type Context struct {
	keys   []string
	values map[string]any
}

// NewContext builds a Context from entries, keeping their order.
// A repeated key overwrites the earlier value in place.
func NewContext(entries ...Entry) Context {
	var c Context
	for _, e := range entries {
		c.Set(e.Key, e.Value)
	}
	return c
}

// Set stores value under key. Replacing a key keeps its position.
func (c *Context) Set(key string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Get returns the value stored under key.
func (c Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Delete removes key if present.
func (c *Context) Delete(key string) {
	if _, ok := c.values[key]; !ok {
		return
	}
	delete(c.values, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of entries.
func (c Context) Len() int { return len(c.keys) }

// Keys returns the keys in insertion order.
func (c Context) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Range calls fn for every entry in order until fn returns false.
func (c Context) Range(fn func(key string, value any) bool) {
	for _, k := range c.keys {
		if !fn(k, c.values[k]) {
			return
		}
	}
}

// Equal reports whether both contexts hold the same keys with deeply equal
// values. Order is ignored.
func (c Context) Equal(other Context) bool {
	if c.Len() != other.Len() {
		return false
	}
	for k, v := range c.values {
		ov, ok := other.values[k]
		if !ok || !reflect.DeepEqual(v, ov) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the context as an object in insertion order.
func (c Context) MarshalJSON() ([]byte, error) {
	return projection.MarshalOrdered(c.keys, func(k string) any { return c.values[k] })
}

// UnmarshalJSON replaces c with the members of a JSON object, keeping the
// document's key order. Nested objects decode as map[string]any.
func (c *Context) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("context: invalid JSON")
	}
	res := gjson.ParseBytes(data)
	if res.Type == gjson.Null {
		*c = Context{}
		return nil
	}
	if !res.IsObject() {
		return fmt.Errorf("context: expected object, got %s", res.Type)
	}
	var out Context
	var err error
	res.ForEach(func(key, value gjson.Result) bool {
		var v any
		if err = json.Unmarshal([]byte(value.Raw), &v); err != nil {
			err = fmt.Errorf("context %q: %w", key.String(), err)
			return false
		}
		out.Set(key.String(), v)
		return true
	})
	if err != nil {
		return err
	}
	*c = out
	return nil
}
