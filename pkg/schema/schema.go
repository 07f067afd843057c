// Package schema derives and checks the manifest of an API: the ordered list
// of its names and the arity of each.
//
// On the wire a manifest is a JSON array of two-element arrays:
//
//	[["add", 2], ["version", 0]]
package schema

import (
	"encoding/json"
	"fmt"
	"math"

	"src.furver.dev/pkg/eval"
	"src.furver.dev/pkg/eval/vals"
)

// Entry describes one top-level binding of an API.
type Entry struct {
	Name string
	// Declared number of positional parameters; 0 if unknown, variadic or
	// not callable.
	Arity int
}

// Manifest is the ordered list of entries of an API.
type Manifest []Entry

// Derive returns the manifest of the bindings of env itself, in the order
// they were bound. It never calls any callable.
func Derive(env *eval.Env) Manifest {
	names := env.Names()
	m := make(Manifest, len(names))
	for i, name := range names {
		v, _ := env.LocalValue(name)
		arity := 0
		if _, ok := v.(eval.Callable); ok {
			arity = vals.Arity(v)
		}
		m[i] = Entry{name, arity}
	}
	return m
}

// Names returns the names of the entries, in order.
func (m Manifest) Names() []string {
	names := make([]string, len(m))
	for i, e := range m {
		names[i] = e.Name
	}
	return names
}

// MarshalJSON encodes the entry as a [name, arity] pair.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Name, e.Arity})
}

// UnmarshalJSON decodes a [name, arity] pair.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return &InvalidSchemaError{Reason: err.Error()}
	}
	entry, err := checkEntry(v)
	if err != nil {
		return err
	}
	*e = entry
	return nil
}

// InvalidSchemaError is returned when a manifest is not well-formed.
type InvalidSchemaError struct {
	Reason string
}

func (e *InvalidSchemaError) Error() string {
	return "not a valid schema: " + e.Reason
}

// Parse decodes and checks a JSON manifest.
func Parse(data []byte) (Manifest, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, &InvalidSchemaError{Reason: err.Error()}
	}
	return Check(v)
}

// Check converts a decoded JSON value to a Manifest. It fails as a whole if
// any entry is malformed.
func Check(v any) (Manifest, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, &InvalidSchemaError{Reason: "need list, got " + vals.Kind(v)}
	}
	m := make(Manifest, len(list))
	for i, item := range list {
		entry, err := checkEntry(item)
		if err != nil {
			return nil, &InvalidSchemaError{
				Reason: fmt.Sprintf("entry %d: %s", i, err.(*InvalidSchemaError).Reason)}
		}
		m[i] = entry
	}
	return m, nil
}

func checkEntry(v any) (Entry, error) {
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return Entry{}, &InvalidSchemaError{Reason: "need [name, arity] pair, got " + vals.Repr(v)}
	}
	name, ok := pair[0].(string)
	if !ok {
		return Entry{}, &InvalidSchemaError{Reason: "name must be string, got " + vals.Kind(pair[0])}
	}
	arity, ok := pair[1].(float64)
	if !ok || arity < 0 || arity != math.Trunc(arity) {
		return Entry{}, &InvalidSchemaError{Reason: "arity must be a non-negative integer, got " + vals.Repr(pair[1])}
	}
	return Entry{name, int(arity)}, nil
}
