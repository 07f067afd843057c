// Package core implements the core API module: a few pure functions, the
// build version and a demonstration of the immutability of the API.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"src.furver.dev/pkg/buildinfo"
	"src.furver.dev/pkg/eval"
	"src.furver.dev/pkg/eval/vals"
)

// InitialValue is the value of cannotMutate.
const InitialValue = "initial value"

var (
	errDivideByZero = errors.New("divide by zero")
	errBadConcat    = errors.New("concat: arguments must be all strings or all lists")
)

// Env returns the bindings of the module.
func Env() *eval.Env {
	return eval.BuildEnv().
		AddGoFns(map[string]any{
			"add":      func(a, b float64) float64 { return a + b },
			"subtract": func(a, b float64) float64 { return a - b },
			"multiply": func(a, b float64) float64 { return a * b },
			"divide":   divide,
			"inc":      func(a float64) float64 { return a + 1 },
			"dec":      func(a float64) float64 { return a - 1 },
			"identity": func(v any) any { return v },
			"array":    func(items ...any) []any { return append([]any{}, items...) },
			"concat":   concat,
			"prop":     func(key string, m map[string]any) any { return m[key] },
			"map":      mapFn,
			"sleep":    sleep,

			"version":   func() string { return buildinfo.Value().Version },
			"timestamp": func() int64 { return time.Now().UnixMilli() },
			"mutate":    mutate,
		}).
		AddVar("cannotMutate", InitialValue).
		Env()
}

func divide(a, b float64) (float64, error) {
	if b == 0 {
		return 0, errDivideByZero
	}
	return a / b, nil
}

func concat(args ...any) (any, error) {
	if len(args) == 0 {
		return "", nil
	}
	switch args[0].(type) {
	case string:
		s := ""
		for _, arg := range args {
			a, ok := arg.(string)
			if !ok {
				return nil, errBadConcat
			}
			s += a
		}
		return s, nil
	case []any:
		var l []any
		for _, arg := range args {
			a, ok := arg.([]any)
			if !ok {
				return nil, errBadConcat
			}
			l = append(l, a...)
		}
		return l, nil
	}
	return nil, errBadConcat
}

// mapFn calls f on each element of list. The function may be given as a
// callable value or by the name it is bound to; this is how a client passes a
// function it got from the schema. A closure is called with the bindings
// "item" and "index", any other callable with the element as its only
// argument.
func mapFn(fm *eval.Frame, f any, list []any) ([]any, error) {
	if name, ok := f.(string); ok {
		v, found := fm.Lookup(name)
		if !found {
			return nil, fmt.Errorf("map: %s is not bound", name)
		}
		f = v
	}
	fn, ok := f.(eval.Callable)
	if !ok {
		return nil, fmt.Errorf("map: need function, got %s", vals.Kind(f))
	}
	_, closure := fn.(*eval.Closure)
	results := make([]any, len(list))
	for i, item := range list {
		var (
			v   any
			err error
		)
		if closure {
			v, err = fm.Call(fn, map[string]any{"item": item, "index": float64(i)})
		} else {
			v, err = fm.Call(fn, item)
		}
		if err != nil {
			return nil, err
		}
		results[i] = v
	}
	return results, nil
}

func sleep(ctx context.Context, ms float64) error {
	t := time.NewTimer(time.Duration(ms * float64(time.Millisecond)))
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// mutate tries to overwrite cannotMutate in the root environment. Once the
// API is being served the root is frozen and this always fails.
func mutate(fm *eval.Frame) error {
	root := fm.Env()
	for root.Parent() != nil {
		root = root.Parent()
	}
	return root.Set("cannotMutate", "otherValue")
}
