package eval

import (
	"context"
	"errors"
	"testing"

	"src.furver.dev/pkg/eval/errs"
	"src.furver.dev/pkg/tt"
)

type ctxKey struct{}

func callGoFn(impl any, args ...any) (any, error) {
	ctx := context.WithValue(context.Background(), ctxKey{}, "ctx value")
	env := BuildEnv().AddVar("bound", "env value").Env()
	return NewGoFn("f", impl).Call(NewFrame(ctx, env), args)
}

var errBad = errors.New("bad")

func TestGoFn_Call(t *testing.T) {
	tt.Test(t, tt.Fn("callGoFn", callGoFn), tt.Table{
		// Conversion of arguments and return values.
		tt.Args(func(a, b int) int { return a + b }, 1.0, 2.0).Rets(3.0, nil),
		tt.Args(func(s string) string { return s + "!" }, "hi").Rets("hi!", nil),
		tt.Args(func(l []any) int { return len(l) }, []any{1.0, 2.0}).Rets(2.0, nil),
		// Variadic.
		tt.Args(func(first string, rest ...float64) float64 {
			sum := 0.0
			for _, x := range rest {
				sum += x
			}
			return sum
		}, "x", 1.0, 2.0, 3.0).Rets(6.0, nil),
		// Context and frame.
		tt.Args(func(ctx context.Context) any { return ctx.Value(ctxKey{}) }).
			Rets("ctx value", nil),
		tt.Args(func(fm *Frame) any { v, _ := fm.Lookup("bound"); return v }).
			Rets("env value", nil),
		// Errors.
		tt.Args(func() error { return errBad }).Rets(nil, errBad),
		tt.Args(func() (int, error) { return 0, errBad }).Rets(nil, errBad),
		tt.Args(func() error { return nil }).Rets(nil, nil),
		tt.Args(func() {}).Rets(nil, nil),
		tt.Args(func(a, b int) {}, 1.0).Rets(nil,
			errs.ArityMismatch{What: "arguments of f", ValidLow: 2, ValidHigh: 2, Actual: 1}),
		tt.Args(func(a int, rest ...int) {}).Rets(nil,
			errs.ArityMismatch{What: "arguments of f", ValidLow: 1, ValidHigh: -1, Actual: 0}),
		tt.Args(func(a int) {}, "x").Rets(nil, tt.ErrorMatching("wrong type of 1'th argument")),
		tt.Args(func() { panic("boom") }).Rets(nil, tt.ErrorMatching("f: panic: boom")),
	})
}

func TestGoFn_Arity(t *testing.T) {
	tt.Test(t, tt.Fn("arity", func(impl any) int { return NewGoFn("f", impl).Arity() }), tt.Table{
		tt.Args(func() {}).Rets(0),
		tt.Args(func(a, b int) {}).Rets(2),
		tt.Args(func(fm *Frame, a int) {}).Rets(1),
		tt.Args(func(ctx context.Context, a, b, c int) {}).Rets(3),
		tt.Args(func(a int, rest ...int) {}).Rets(1),
		tt.Args(func(rest ...any) {}).Rets(0),
	})
}

func TestNewGoFn_PanicsOnBadSignature(t *testing.T) {
	for _, impl := range []any{
		"not a function",
		func() (int, int) { return 0, 0 },
		func() (int, int, error) { return 0, 0, nil },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("NewGoFn(%T) did not panic", impl)
				}
			}()
			NewGoFn("f", impl)
		}()
	}
}

func TestGoFn_MarshalsAsName(t *testing.T) {
	bs, err := NewGoFn("add", func() {}).MarshalJSON()
	if err != nil || string(bs) != `"add"` {
		t.Errorf("MarshalJSON -> (%s, %v), want (\"add\", nil)", bs, err)
	}
}
