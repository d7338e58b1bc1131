package projection

import "reflect"

// lengther covers ordered containers such as *Map and notice.Context.
type lengther interface {
	Len() int
}

// IsReducible reports whether v would be dropped by Options.Reduce.
// nil values, typed nil references, the empty string and empty collections
// are reducible. false and numeric zero are not.
func IsReducible(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	case lengther:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return true
		}
		return t.Len() == 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	case reflect.Map, reflect.Slice:
		return rv.IsNil() || rv.Len() == 0
	case reflect.Array:
		return rv.Len() == 0
	}
	return false
}
