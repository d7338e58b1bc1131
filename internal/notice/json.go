package notice

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/gyaneshwarpardhi/noticed/internal/projection"
)

// maxEncodeDepth bounds how often the same notice may be re-entered while it
// is being encoded. A Target or Context value that refers back to its notice
// would otherwise recurse until the stack overflows.
const maxEncodeDepth = 64

var (
	encMu    sync.Mutex
	encDepth = map[*Notice]int{}
)

func enter(n *Notice) bool {
	encMu.Lock()
	defer encMu.Unlock()
	if encDepth[n] >= maxEncodeDepth {
		return false
	}
	encDepth[n]++
	return true
}

func leave(n *Notice) {
	encMu.Lock()
	defer encMu.Unlock()
	if encDepth[n]--; encDepth[n] <= 0 {
		delete(encDepth, n)
	}
}

// MarshalJSON encodes the reduced projection of n. A notice that contains
// itself fails with ErrNotProjectable.
func (n *Notice) MarshalJSON() ([]byte, error) {
	if !enter(n) {
		return nil, &projection.SelectorError{Selector: n, Err: projection.ErrNotProjectable}
	}
	defer leave(n)
	m, err := n.JSONSerialize()
	if err != nil {
		return nil, err
	}
	return m.MarshalJSON()
}

// UnmarshalJSON decodes {"type": ..., "target": ..., "context": {...}}.
// Context key order is preserved; target decodes into generic JSON values.
func (n *Notice) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("notice: invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return fmt.Errorf("notice: expected object, got %s", doc.Type)
	}

	var out Notice
	if t := doc.Get("type"); t.Exists() && t.Type != gjson.Null {
		if t.Type != gjson.String {
			return fmt.Errorf("notice: type must be a string, got %s", t.Type)
		}
		out.Type = t.String()
	}
	if t := doc.Get("target"); t.Exists() && t.Type != gjson.Null {
		if err := json.Unmarshal([]byte(t.Raw), &out.Target); err != nil {
			return fmt.Errorf("notice target: %w", err)
		}
	}
	if c := doc.Get("context"); c.Exists() {
		if err := out.Context.UnmarshalJSON([]byte(c.Raw)); err != nil {
			return fmt.Errorf("notice: %w", err)
		}
	}
	*n = out
	return nil
}
