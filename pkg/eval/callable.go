package eval

import (
	"context"
	"encoding/json"
)

// Callable wraps the Call method.
type Callable interface {
	// Call calls the receiver in a Frame with arguments.
	Call(fm *Frame, args []any) (any, error)
}

// Frame contains information of the current evaluation: its context and the
// environment the call happens in. It is passed to every Callable.
type Frame struct {
	ctx context.Context
	env *Env
}

// NewFrame returns a Frame for evaluating in env.
func NewFrame(ctx context.Context, env *Env) *Frame {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Frame{ctx, env}
}

// Context returns the context of the evaluation.
func (fm *Frame) Context() context.Context { return fm.ctx }

// Env returns the environment of the call.
func (fm *Frame) Env() *Env { return fm.env }

// Lookup looks up a name in the environment of the call.
func (fm *Frame) Lookup(name string) (any, bool) { return fm.env.Lookup(name) }

// Call calls fn with the given arguments in the same Frame.
func (fm *Frame) Call(fn Callable, args ...any) (any, error) {
	return fn.Call(fm, args)
}

// Eval evaluates expr in the environment of the call.
func (fm *Frame) Eval(expr any) (any, error) {
	return Eval(fm.ctx, fm.env, expr)
}

// literal is the Callable used for values that are not callable: it ignores
// its arguments and returns the value.
type literal struct{ v any }

func (l literal) Call(*Frame, []any) (any, error) { return l.v, nil }

func (l literal) MarshalJSON() ([]byte, error) { return json.Marshal(l.v) }

func castCallable(v any) Callable {
	if fn, ok := v.(Callable); ok {
		return fn
	}
	return literal{v}
}
