package projection

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

var (
	// ErrUnknownType is returned when a type name has no registered factory.
	ErrUnknownType = errors.New("unknown type")
	// ErrNotProjectable is returned for selectors that expose no field set.
	ErrNotProjectable = errors.New("value is not projectable")
)

// SelectorError reports a selector that could not be resolved.
type SelectorError struct {
	Selector any
	Err      error
}

func (e *SelectorError) Error() string {
	switch s := e.Selector.(type) {
	case string:
		return fmt.Sprintf("projection: selector %q: %v", s, e.Err)
	case TypeName:
		return fmt.Sprintf("projection: selector %q: %v", string(s), e.Err)
	default:
		return fmt.Sprintf("projection: selector of type %T: %v", s, e.Err)
	}
}

func (e *SelectorError) Unwrap() error { return e.Err }

// TypeName identifies a registered projectable type.
type TypeName string

// Factory returns a fresh value of a registered type.
type Factory func() Projector

// Registry maps type names to factories.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Types is the process-wide registry consulted when no registry is given.
var Types = NewRegistry()

// Register adds a factory. Panics on an empty or duplicate name to surface
// misconfiguration early.
func (r *Registry) Register(name string, f Factory) {
	if name == "" {
		panic("projection registry: empty type name")
	}
	if f == nil {
		panic(fmt.Sprintf("projection registry: nil factory for %q", name))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("projection registry: duplicate type %q", name))
	}
	r.factories[name] = f
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	if !ok {
		return nil, &SelectorError{Selector: name, Err: ErrUnknownType}
	}
	return f, nil
}

// Names returns all registered type names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Resolve picks the Projector a selector refers to:
//   - nil selects self
//   - a string or TypeName is looked up in reg (Types when reg is nil)
//   - a non-nil Projector is used as is
//
// Anything else yields a *SelectorError wrapping ErrNotProjectable.
func Resolve(selector any, self Projector, reg *Registry) (Projector, error) {
	if reg == nil {
		reg = Types
	}
	switch s := selector.(type) {
	case nil:
		return self, nil
	case string:
		return reg.instance(s)
	case TypeName:
		return reg.instance(string(s))
	case Projector:
		if isNilRef(s) {
			return nil, &SelectorError{Selector: selector, Err: ErrNotProjectable}
		}
		return s, nil
	default:
		return nil, &SelectorError{Selector: selector, Err: ErrNotProjectable}
	}
}

func (r *Registry) instance(name string) (Projector, error) {
	f, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	p := f()
	if p == nil || isNilRef(p) {
		return nil, &SelectorError{Selector: name, Err: ErrNotProjectable}
	}
	return p, nil
}

func isNilRef(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func:
		return rv.IsNil()
	}
	return false
}
