package vals

import "reflect"

// Freezer is implemented by values that can be made read-only. FreezeWith
// should call FreezeWith on the values it holds, passing along visited.
type Freezer interface {
	FreezeWith(visited Visited)
}

// Visited records values already seen during a deep freeze, so that cyclic
// structures are only visited once.
type Visited map[visitKey]struct{}

type visitKey struct {
	kind reflect.Kind
	ptr  uintptr
	typ  reflect.Type
}

// Visit records v and reports whether it was not already recorded. Values
// that have no identity (scalars, structs) are never recorded and always
// report true.
func (vs Visited) Visit(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
	default:
		return true
	}
	key := visitKey{rv.Kind(), rv.Pointer(), rv.Type()}
	if _, ok := vs[key]; ok {
		return false
	}
	vs[key] = struct{}{}
	return true
}

// Freeze makes v and the values reachable from it read-only where possible.
// See FreezeWith.
func Freeze(v any) bool {
	return FreezeWith(v, Visited{})
}

// FreezeWith makes v read-only where possible, recording visited values in
// visited. It reports whether v itself is read-only afterwards. Scalars are
// always read-only. Lists and maps are walked so that any Freezer inside them
// is frozen, but they can't be marked themselves and FreezeWith reports false
// for them. Values that are neither are left alone and also reported as false.
func FreezeWith(v any, visited Visited) bool {
	switch v := v.(type) {
	case nil, bool, string, float64, int, int64:
		return true
	case Freezer:
		if visited.Visit(v) {
			v.FreezeWith(visited)
		}
		return true
	case []any:
		if visited.Visit(v) {
			for _, elem := range v {
				FreezeWith(elem, visited)
			}
		}
		return false
	case map[string]any:
		if visited.Visit(v) {
			for _, elem := range v {
				FreezeWith(elem, visited)
			}
		}
		return false
	default:
		return false
	}
}
