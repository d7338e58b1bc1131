package notice

import (
	"encoding/json"
	"testing"
)

func TestContext_ZeroValueUsable(t *testing.T) {
	var c Context
	if c.Len() != 0 {
		t.Fatalf("len = %d", c.Len())
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("get on empty context returned ok")
	}
	c.Delete("missing")
	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("a = %v, %v", v, ok)
	}
	out, err := json.Marshal(Context{})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "{}" {
		t.Errorf("empty context json = %s", out)
	}
}

func TestContext_OrderAndReplace(t *testing.T) {
	c := NewContext(Entry{"b", 1}, Entry{"a", 2}, Entry{"c", 3})
	c.Set("a", 20)
	c.Delete("b")
	c.Set("b", 10)

	want := []string{"a", "c", "b"}
	got := c.Keys()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys = %v, want %v", got, want)
		}
	}

	var visited []string
	c.Range(func(k string, _ any) bool {
		visited = append(visited, k)
		return k != "c"
	})
	if len(visited) != 2 {
		t.Errorf("range should stop after c, visited %v", visited)
	}

	out, err := c.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"a":20,"c":3,"b":10}` {
		t.Errorf("json = %s", out)
	}
}

func TestContext_Equal(t *testing.T) {
	a := NewContext(Entry{"x", []int{1}}, Entry{"y", "z"})
	b := NewContext(Entry{"y", "z"}, Entry{"x", []int{1}})
	if !a.Equal(b) {
		t.Error("contexts with the same entries in a different order should be equal")
	}
	b.Set("y", "other")
	if a.Equal(b) {
		t.Error("contexts with different values should differ")
	}
}

func TestContext_UnmarshalKeepsOrder(t *testing.T) {
	var c Context
	if err := json.Unmarshal([]byte(`{"zeta":true,"alpha":null,"mid":"v"}`), &c); err != nil {
		t.Fatal(err)
	}
	keys := c.Keys()
	if len(keys) != 3 || keys[0] != "zeta" || keys[1] != "alpha" || keys[2] != "mid" {
		t.Errorf("keys = %v", keys)
	}
	if v, ok := c.Get("alpha"); !ok || v != nil {
		t.Errorf("alpha = %v, %v", v, ok)
	}

	if err := json.Unmarshal([]byte(`null`), &c); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 {
		t.Errorf("null should reset the context, len = %d", c.Len())
	}
}
