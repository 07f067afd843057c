// Package vals contains basic facilities for manipulating values used in
// expressions.
//
// Values are what encoding/json produces when decoding into an any: nil,
// bool, float64, string, []any and map[string]any. Callables and other Go
// values may appear as well when they are produced by evaluation in-process.
package vals

import "fmt"

// Kinder wraps the Kind method.
type Kinder interface {
	Kind() string
}

// Namer is implemented by values that have a textual identifier, such as
// functions bound in an environment. When such a value is used as an
// operator, its name is used in its place.
type Namer interface {
	Name() string
}

// Arityer is implemented by callables that declare the number of positional
// parameters they take.
type Arityer interface {
	Arity() int
}

// Kind returns the "kind" of the value. It is implemented for the builtin
// nil, bool, string, numbers, lists and maps, and types satisfying the Kinder
// interface. For other types, it returns the Go type name of the argument
// preceded by "!!".
func Kind(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case bool:
		return "bool"
	case string:
		return "string"
	case float64, int, int64:
		return "number"
	case []any:
		return "list"
	case map[string]any:
		return "map"
	case Kinder:
		return v.Kind()
	default:
		return fmt.Sprintf("!!%T", v)
	}
}

// Arity returns the declared arity of v if it implements Arityer, and 0
// otherwise.
func Arity(v any) int {
	if a, ok := v.(Arityer); ok {
		return a.Arity()
	}
	return 0
}
