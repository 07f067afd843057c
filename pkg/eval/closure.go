package eval

import (
	"encoding/json"
	"fmt"

	"src.furver.dev/pkg/eval/errs"
	"src.furver.dev/pkg/eval/vals"
)

// Closure is a function defined with the fn special form. It captures the
// environment of its definition.
type Closure struct {
	env  *Env
	body any
}

// NewClosure returns a Closure that evaluates body in env extended with the
// bindings it is called with.
func NewClosure(env *Env, body any) *Closure {
	return &Closure{env, body}
}

// Kind returns "fn".
func (*Closure) Kind() string { return "fn" }

// Arity returns 1: a closure takes a single object of bindings.
func (*Closure) Arity() int { return 1 }

// Body returns the body expression of the closure.
func (c *Closure) Body() any { return c.body }

// MarshalJSON encodes the closure as the fn form that defines it.
func (c *Closure) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{"fn", c.body})
}

// FreezeWith implements vals.Freezer. The body is never modified by
// evaluation; the captured environment is frozen.
func (c *Closure) FreezeWith(visited vals.Visited) {
	vals.FreezeWith(c.env, visited)
}

// Call evaluates the body in a new child of the captured environment. The
// only argument, if given, must be a map of bindings for the child.
func (c *Closure) Call(fm *Frame, args []any) (any, error) {
	var bindings map[string]any
	switch len(args) {
	case 0:
	case 1:
		m, ok := args[0].(map[string]any)
		if !ok && args[0] != nil {
			return nil, errs.BadArgument{Index: 1,
				Err: fmt.Errorf("must be map of bindings, got %s", vals.Kind(args[0]))}
		}
		bindings = m
	default:
		return nil, errs.ArityMismatch{
			What: "arguments of fn", ValidLow: 0, ValidHigh: 1, Actual: len(args)}
	}
	return Eval(fm.Context(), c.env.Extend(bindings), c.body)
}
