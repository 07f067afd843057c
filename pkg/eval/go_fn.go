package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"src.furver.dev/pkg/eval/errs"
	"src.furver.dev/pkg/eval/vals"
)

// GoFn is a Callable implemented by a Go function.
type GoFn struct {
	name string
	impl reflect.Value

	// Type information of impl.

	// If true, pass the frame as a *Frame argument.
	frame bool
	// If true, pass the context of the frame as a context.Context argument.
	ctx bool
	// Type of "normal" (non-frame, non-context, non-variadic) arguments.
	normalArgs []reflect.Type
	// If not nil, type of variadic arguments.
	variadicArg reflect.Type
	// Whether the function returns a value and an error, respectively.
	value, err bool
}

var (
	frameType   = reflect.TypeOf((*Frame)(nil))
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	// error(nil) is treated as nil by reflect.TypeOf, so we first get the
	// type of *error and use Elem to obtain type of error.
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// NewGoFn wraps a Go function into a Callable using reflection.
//
// Parameters are passed following these rules:
//
// 1. If the first parameter of function has type *Frame, it gets the current
// call frame. Otherwise, if it has type context.Context, it gets the context
// of the current evaluation.
//
// 2. Other parameters are converted using vals.ScanToGo. A variadic parameter
// takes all remaining arguments.
//
// The function may return nothing, a value, an error, or a value and an
// error. A returned value is converted with vals.FromGo.
//
// The arity of the resulting GoFn is the number of non-variadic parameters
// after the optional *Frame or context.Context one.
//
// NewGoFn panics if impl is not a function or has an unsupported signature.
func NewGoFn(name string, impl any) *GoFn {
	implType := reflect.TypeOf(impl)
	if implType == nil || implType.Kind() != reflect.Func {
		panic(fmt.Sprintf("NewGoFn: %s: need function, got %T", name, impl))
	}
	b := &GoFn{name: name, impl: reflect.ValueOf(impl)}

	i := 0
	if i < implType.NumIn() {
		switch implType.In(i) {
		case frameType:
			b.frame = true
			i++
		case contextType:
			b.ctx = true
			i++
		}
	}
	for ; i < implType.NumIn(); i++ {
		paramType := implType.In(i)
		if i == implType.NumIn()-1 && implType.IsVariadic() {
			b.variadicArg = paramType.Elem()
			break
		}
		b.normalArgs = append(b.normalArgs, paramType)
	}

	switch implType.NumOut() {
	case 0:
	case 1:
		if implType.Out(0) == errorType {
			b.err = true
		} else {
			b.value = true
		}
	case 2:
		if implType.Out(1) != errorType {
			panic(fmt.Sprintf("NewGoFn: %s: second return value must be error", name))
		}
		b.value, b.err = true, true
	default:
		panic(fmt.Sprintf("NewGoFn: %s: too many return values", name))
	}
	return b
}

// Name returns the name the function was created with.
func (b *GoFn) Name() string { return b.name }

// Kind returns "fn".
func (*GoFn) Kind() string { return "fn" }

// Arity returns the number of positional parameters.
func (b *GoFn) Arity() int { return len(b.normalArgs) }

// MarshalJSON encodes the function as its name, so that it can be passed back
// as a reference.
func (b *GoFn) MarshalJSON() ([]byte, error) { return json.Marshal(b.name) }

// FreezeWith implements vals.Freezer. A GoFn holds no mutable state.
func (*GoFn) FreezeWith(vals.Visited) {}

// Call calls the implementation using reflection.
func (b *GoFn) Call(fm *Frame, args []any) (ret any, err error) {
	if b.variadicArg != nil {
		if len(args) < len(b.normalArgs) {
			return nil, errs.ArityMismatch{What: "arguments of " + b.name,
				ValidLow: len(b.normalArgs), ValidHigh: -1, Actual: len(args)}
		}
	} else if len(args) != len(b.normalArgs) {
		return nil, errs.ArityMismatch{What: "arguments of " + b.name,
			ValidLow: len(b.normalArgs), ValidHigh: len(b.normalArgs), Actual: len(args)}
	}

	var in []reflect.Value
	if b.frame {
		in = append(in, reflect.ValueOf(fm))
	} else if b.ctx {
		in = append(in, reflect.ValueOf(fm.Context()))
	}
	for i, arg := range args {
		var typ reflect.Type
		if i < len(b.normalArgs) {
			typ = b.normalArgs[i]
		} else {
			typ = b.variadicArg
		}
		ptr := reflect.New(typ)
		if err := vals.ScanToGo(arg, ptr.Interface()); err != nil {
			return nil, errs.BadArgument{Index: i + 1, Err: err}
		}
		in = append(in, ptr.Elem())
	}

	defer func() {
		if r := recover(); r != nil {
			ret, err = nil, fmt.Errorf("%s: panic: %v", b.name, r)
		}
	}()
	outs := b.impl.Call(in)

	if b.err {
		if e := outs[len(outs)-1].Interface(); e != nil {
			return nil, e.(error)
		}
	}
	if b.value {
		return vals.FromGo(outs[0].Interface()), nil
	}
	return nil, nil
}
