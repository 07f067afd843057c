package eval

import (
	"encoding/json"
	"sort"

	"src.furver.dev/pkg/eval/vals"
)

// EnvBuilder is a helper type used for building an Env.
type EnvBuilder struct {
	names  []string
	values map[string]any
}

// BuildEnv returns a helper for building an Env.
func BuildEnv() *EnvBuilder {
	return &EnvBuilder{values: make(map[string]any)}
}

// AddVar adds a plain value. Adding a name that already exists replaces the
// value but keeps the original position.
func (b *EnvBuilder) AddVar(name string, v any) *EnvBuilder {
	if _, exists := b.values[name]; !exists {
		b.names = append(b.names, name)
	}
	b.values[name] = v
	return b
}

// AddFn adds a callable. Its arity is whatever the callable declares through
// vals.Arityer; use WithArity to declare one explicitly.
func (b *EnvBuilder) AddFn(name string, fn Callable) *EnvBuilder {
	return b.AddVar(name, fn)
}

// AddGoFn adds a Go function, wrapped with NewGoFn.
func (b *EnvBuilder) AddGoFn(name string, impl any) *EnvBuilder {
	return b.AddFn(name, NewGoFn(name, impl))
}

// AddGoFns adds Go functions from a map, in the order of their names.
func (b *EnvBuilder) AddGoFns(fns map[string]any) *EnvBuilder {
	for _, name := range sortedKeys(fns) {
		b.AddGoFn(name, fns[name])
	}
	return b
}

// AddEnv adds all the bindings of e itself (not its ancestors), in order.
func (b *EnvBuilder) AddEnv(e *Env) *EnvBuilder {
	for _, name := range e.Names() {
		v, _ := e.LocalValue(name)
		b.AddVar(name, v)
	}
	return b
}

// Env builds a root Env from the added bindings. The Env is not frozen.
func (b *EnvBuilder) Env() *Env {
	e := newEnv(nil, len(b.names))
	for _, name := range b.names {
		e.set(name, b.values[name])
	}
	return e
}

// WithArity returns a Callable that behaves like fn, but declares the given
// arity.
func WithArity(fn Callable, arity int) Callable {
	return declaredArity{fn, arity}
}

type declaredArity struct {
	Callable
	arity int
}

func (d declaredArity) Arity() int { return d.arity }

func (d declaredArity) Name() string {
	if n, ok := d.Callable.(vals.Namer); ok {
		return n.Name()
	}
	return ""
}

func (d declaredArity) Kind() string { return "fn" }

func (d declaredArity) FreezeWith(visited vals.Visited) {
	vals.FreezeWith(d.Callable, visited)
}

func (d declaredArity) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Callable)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
