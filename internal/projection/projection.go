// Package projection turns values with a statically declared field set into
// ordered, JSON-ready maps.
package projection

// Field is a single named value exposed by a Projector.
type Field struct {
	Name  string
	Value any
}

// Projector is implemented by every type that can be projected.
// Fields must return the exported state in declaration order.
type Projector interface {
	Fields() []Field
}

// Options controls a projection.
type Options struct {
	// Reduce drops fields whose value is nil, "" or an empty collection.
	Reduce bool `json:"reduce" yaml:"-"`
	// Skip lists field names that are never projected.
	Skip []string `json:"skip,omitempty" yaml:"skip"`
}

// Merge returns o with override applied on top of it.
// Reduce is enabled if either side enables it; Skip lists are concatenated
// without duplicates, base entries first.
func (o Options) Merge(override Options) Options {
	out := Options{Reduce: o.Reduce || override.Reduce}
	seen := make(map[string]struct{}, len(o.Skip)+len(override.Skip))
	for _, list := range [][]string{o.Skip, override.Skip} {
		for _, name := range list {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out.Skip = append(out.Skip, name)
		}
	}
	return out
}

func (o Options) skips(name string) bool {
	for _, s := range o.Skip {
		if s == name {
			return true
		}
	}
	return false
}

// Project builds the ordered map for src.
// It reads src only; the returned map shares field values with src.
func Project(src Projector, opts Options) *Map {
	fields := src.Fields()
	m := newMap(len(fields))
	for _, f := range fields {
		if opts.skips(f.Name) {
			continue
		}
		if opts.Reduce && IsReducible(f.Value) {
			continue
		}
		m.set(f.Name, f.Value)
	}
	return m
}
