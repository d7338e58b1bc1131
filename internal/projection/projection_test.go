package projection_test

import (
	"errors"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/gyaneshwarpardhi/noticed/internal/projection"
)

// record is a minimal Projector for tests.
type record struct {
	name  string
	tags  []string
	attrs map[string]any
	count int
	ok    bool
	ptr   *int
}

func (r *record) Fields() []projection.Field {
	return []projection.Field{
		{Name: "name", Value: r.name},
		{Name: "tags", Value: r.tags},
		{Name: "attrs", Value: r.attrs},
		{Name: "count", Value: r.count},
		{Name: "ok", Value: r.ok},
		{Name: "ptr", Value: r.ptr},
	}
}

func TestProject_NoReduceKeepsEveryField(t *testing.T) {
	m := projection.Project(&record{name: "a"}, projection.Options{})
	want := []string{"name", "tags", "attrs", "count", "ok", "ptr"}
	got := m.Keys()
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestProject_ReduceDropsEmptyValues(t *testing.T) {
	m := projection.Project(&record{name: "a"}, projection.Options{Reduce: true})
	for _, k := range []string{"tags", "attrs", "ptr"} {
		if m.Has(k) {
			t.Errorf("%s should have been reduced away", k)
		}
	}
	// false and zero are values, not absence.
	for _, k := range []string{"name", "count", "ok"} {
		if !m.Has(k) {
			t.Errorf("%s should be kept", k)
		}
	}
}

func TestProject_Skip(t *testing.T) {
	m := projection.Project(&record{name: "a", count: 3}, projection.Options{Skip: []string{"count", "name"}})
	if m.Has("count") || m.Has("name") {
		t.Errorf("skipped fields present: %v", m.Keys())
	}
	if m.Len() != 4 {
		t.Errorf("len = %d, want 4", m.Len())
	}
}

func TestOptions_Merge(t *testing.T) {
	base := projection.Options{Skip: []string{"a", "b"}}
	got := base.Merge(projection.Options{Reduce: true, Skip: []string{"b", "c"}})
	if !got.Reduce {
		t.Error("Reduce should be enabled by the override")
	}
	want := []string{"a", "b", "c"}
	if len(got.Skip) != len(want) {
		t.Fatalf("skip = %v, want %v", got.Skip, want)
	}
	for i := range want {
		if got.Skip[i] != want[i] {
			t.Errorf("skip[%d] = %q, want %q", i, got.Skip[i], want[i])
		}
	}

	got = projection.Options{Reduce: true}.Merge(projection.Options{Reduce: false})
	if !got.Reduce {
		t.Error("a false override must not disable Reduce")
	}
}

func TestIsReducible(t *testing.T) {
	var nilMap map[string]int
	var nilSlice []string
	var nilPtr *record
	var nilMapPtr *projection.Map

	cases := []struct {
		name string
		v    any
		want bool
	}{
		{"nil", nil, true},
		{"empty string", "", true},
		{"string", "x", false},
		{"zero int", 0, false},
		{"false", false, false},
		{"empty any slice", []any{}, true},
		{"any slice", []any{1}, false},
		{"empty any map", map[string]any{}, true},
		{"nil typed map", nilMap, true},
		{"nil typed slice", nilSlice, true},
		{"typed slice", []string{"a"}, false},
		{"nil pointer", nilPtr, true},
		{"pointer", &record{}, false},
		{"empty array", [0]int{}, true},
		{"nil projection map", nilMapPtr, true},
		{"empty projection map", projection.Project(&record{}, projection.Options{Skip: []string{"name", "tags", "attrs", "count", "ok", "ptr"}}), true},
		{"struct", struct{}{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := projection.IsReducible(tc.v); got != tc.want {
				t.Errorf("IsReducible(%#v) = %v, want %v", tc.v, got, tc.want)
			}
		})
	}
}

func TestMap_MarshalJSONKeepsOrder(t *testing.T) {
	r := &record{name: "n", tags: []string{"x"}, count: 2}
	m := projection.Project(r, projection.Options{Reduce: true})
	out, err := m.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"name":"n","tags":["x"],"count":2,"ok":false}`
	if string(out) != want {
		t.Errorf("got %s, want %s", out, want)
	}
}

func TestMarshalOrdered_SpecialKeys(t *testing.T) {
	keys := []string{"b.c", "a*", "7"}
	vals := map[string]any{"b.c": 1, "a*": "two", "7": true}
	out, err := projection.MarshalOrdered(keys, func(k string) any { return vals[k] })
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var order []string
	gjson.ParseBytes(out).ForEach(func(k, _ gjson.Result) bool {
		order = append(order, k.String())
		return true
	})
	if len(order) != 3 || order[0] != "b.c" || order[1] != "a*" || order[2] != "7" {
		t.Errorf("key order = %v (json %s)", order, out)
	}
	if got := gjson.GetBytes(out, projection.EscapeKey("b.c")).Int(); got != 1 {
		t.Errorf("b.c = %d, want 1", got)
	}
}

func TestMarshalOrdered_EmptyKey(t *testing.T) {
	vals := map[string]any{"": 1, "a": 2, "b": "x"}
	cases := map[string]struct {
		keys []string
		want string
	}{
		"alone":  {[]string{""}, `{"":1}`},
		"first":  {[]string{"", "a"}, `{"":1,"a":2}`},
		"middle": {[]string{"a", "", "b"}, `{"a":2,"":1,"b":"x"}`},
		"last":   {[]string{"a", "b", ""}, `{"a":2,"b":"x","":1}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := projection.MarshalOrdered(tc.keys, func(k string) any { return vals[k] })
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(out) != tc.want {
				t.Errorf("got %s, want %s", out, tc.want)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	reg := projection.NewRegistry()
	reg.Register("record", func() projection.Projector { return &record{name: "fresh"} })

	p, err := projection.Resolve("record", nil, reg)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := p.(*record).name; got != "fresh" {
		t.Errorf("name = %q, want fresh", got)
	}

	if _, err := projection.Resolve(projection.TypeName("missing"), nil, reg); !errors.Is(err, projection.ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}

	var se *projection.SelectorError
	if _, err := projection.Resolve(42, nil, reg); !errors.As(err, &se) || !errors.Is(err, projection.ErrNotProjectable) {
		t.Errorf("expected SelectorError wrapping ErrNotProjectable, got %v", err)
	}

	var nilRec *record
	if _, err := projection.Resolve(nilRec, nil, reg); !errors.Is(err, projection.ErrNotProjectable) {
		t.Errorf("nil pointer selector: expected ErrNotProjectable, got %v", err)
	}

	self := &record{name: "self"}
	p, err = projection.Resolve(nil, self, reg)
	if err != nil || p != self {
		t.Errorf("nil selector should resolve to self, got %v, %v", p, err)
	}

	if names := reg.Names(); len(names) != 1 || names[0] != "record" {
		t.Errorf("names = %v", names)
	}
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	reg := projection.NewRegistry()
	f := func() projection.Projector { return &record{} }
	reg.Register("record", f)
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	reg.Register("record", f)
}
