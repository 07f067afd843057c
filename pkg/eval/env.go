package eval

import (
	"errors"
	"sync"

	"src.furver.dev/pkg/eval/vals"
)

// ErrFrozen is returned when writing to a frozen Env.
var ErrFrozen = errors.New("environment is frozen")

// Env is a set of name to value bindings, with an optional parent that is
// consulted when a name is not bound locally. Local bindings shadow those of
// the parent; a child never changes its parent.
//
// The zero value is not usable; create Env values with BuildEnv, Extend or
// ExtendOrdered.
type Env struct {
	parent *Env

	mu     sync.RWMutex
	names  []string
	values map[string]any
	frozen bool
}

func newEnv(parent *Env, n int) *Env {
	return &Env{parent: parent, names: make([]string, 0, n), values: make(map[string]any, n)}
}

// Lookup finds the value bound to name, first in e itself and then in its
// ancestors. It reports false if no Env in the chain binds name.
func (e *Env) Lookup(name string) (any, bool) {
	for ; e != nil; e = e.parent {
		e.mu.RLock()
		v, ok := e.values[name]
		e.mu.RUnlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// Extend returns a new child of e with the given bindings. Bindings are added
// in the order of their names.
func (e *Env) Extend(bindings map[string]any) *Env {
	names := sortedKeys(bindings)
	child := newEnv(e, len(names))
	for _, name := range names {
		child.set(name, bindings[name])
	}
	return child
}

// ExtendOrdered returns a new child of e that binds names[i] to values[i].
// When a name occurs more than once, the last value wins.
func (e *Env) ExtendOrdered(names []string, values []any) *Env {
	child := newEnv(e, len(names))
	for i, name := range names {
		child.set(name, values[i])
	}
	return child
}

// Parent returns the parent of e, or nil if e is a root.
func (e *Env) Parent() *Env { return e.parent }

// Set binds name to value in e itself. It returns ErrFrozen if e is frozen.
func (e *Env) Set(name string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.frozen {
		return ErrFrozen
	}
	e.setLocked(name, value)
	return nil
}

func (e *Env) set(name string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setLocked(name, value)
}

func (e *Env) setLocked(name string, value any) {
	if _, exists := e.values[name]; !exists {
		e.names = append(e.names, name)
	}
	e.values[name] = value
}

// Names returns the names bound in e itself, in the order they were first
// bound. Names of ancestors are not included.
func (e *Env) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.names...)
}

// LocalValue returns the value bound to name in e itself.
func (e *Env) LocalValue(name string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.values[name]
	return v, ok
}

// Frozen reports whether e has been frozen.
func (e *Env) Frozen() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.frozen
}

// Kind returns "env".
func (e *Env) Kind() string { return "env" }

// Freeze makes e read-only, and freezes the values bound in it as far as
// their representation allows. See vals.FreezeWith.
func (e *Env) Freeze() {
	visited := vals.Visited{}
	visited.Visit(e)
	e.FreezeWith(visited)
}

// FreezeWith implements vals.Freezer.
func (e *Env) FreezeWith(visited vals.Visited) {
	e.mu.Lock()
	e.frozen = true
	e.mu.Unlock()
	// Names and values can no longer change, so the lock is not needed to
	// read them.
	for _, name := range e.names {
		v := e.values[name]
		if vals.FreezeWith(v, visited) {
			logger.Printf("froze %s", name)
		} else {
			logger.Printf("cannot freeze %s (%s)", name, vals.Kind(v))
		}
	}
}
