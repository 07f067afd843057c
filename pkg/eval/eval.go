// Package eval evaluates call expressions.
//
// An expression is a JSON value. Anything but a list is a literal and
// evaluates to itself. A list is a call: its first element is the operator
// and the rest are operands. Two operator names are special forms:
//
//	["fn", body]                          closure over the current Env
//	["let", [[name, expr], ...], body]    evaluate body with extra bindings
//
// Any other operator is looked up in the Env and called with the evaluated
// operands. A list operator evaluates each of its elements and returns the
// results as a list; this is how several independent expressions are sent in
// one request:
//
//	[[["add", 1, 2], ["version"]]]
package eval

import (
	"context"
	"sync"

	"src.furver.dev/pkg/eval/errs"
	"src.furver.dev/pkg/eval/vals"
	"src.furver.dev/pkg/logutil"
)

var logger = logutil.GetLogger("[eval] ")

// Names of special forms.
const (
	FnForm  = "fn"
	LetForm = "let"
)

// Eval evaluates expr in env.
//
// Operands of a call and the bindings of a let form are evaluated
// concurrently; results always keep the order of the expressions. When more
// than one of them fails, the error of the first one in order is returned.
// Errors are never recovered from.
func Eval(ctx context.Context, env *Env, expr any) (any, error) {
	list, ok := expr.([]any)
	if !ok {
		return expr, nil
	}
	if len(list) == 0 {
		return nil, errs.UnknownOperator{Name: ""}
	}
	op, operands := list[0], list[1:]

	if ops, ok := op.([]any); ok {
		return evalAll(ctx, env, ops)
	}

	direct, _ := op.(Callable)
	if n, ok := op.(vals.Namer); ok && n.Name() != "" {
		op = n.Name()
	}

	name, ok := op.(string)
	if !ok {
		if direct != nil {
			return call(ctx, env, expr, direct, operands)
		}
		return nil, errs.UnknownOperator{Name: vals.Repr(op)}
	}

	switch name {
	case FnForm:
		return evalFn(env, operands)
	case LetForm:
		return evalLet(ctx, env, operands)
	}

	v, ok := env.Lookup(name)
	if !ok {
		if direct != nil {
			return call(ctx, env, expr, direct, operands)
		}
		return nil, errs.UnknownOperator{Name: name}
	}
	return call(ctx, env, expr, castCallable(v), operands)
}

func evalFn(env *Env, operands []any) (any, error) {
	if len(operands) != 1 {
		return nil, errs.BadForm{Form: FnForm, Reason: "need exactly one body expression"}
	}
	return NewClosure(env, operands[0]), nil
}

func evalLet(ctx context.Context, env *Env, operands []any) (any, error) {
	if len(operands) != 2 {
		return nil, errs.BadForm{Form: LetForm, Reason: "need bindings and body"}
	}
	bindings, ok := operands[0].([]any)
	if !ok {
		return nil, errs.BadForm{Form: LetForm, Reason: "bindings must be a list"}
	}
	names := make([]string, len(bindings))
	exprs := make([]any, len(bindings))
	for i, binding := range bindings {
		pair, ok := binding.([]any)
		if !ok || len(pair) != 2 {
			return nil, errs.BadForm{Form: LetForm, Reason: "each binding must be a [name, expression] pair"}
		}
		name, ok := pair[0].(string)
		if !ok {
			return nil, errs.BadForm{Form: LetForm, Reason: "binding name must be a string, got " + vals.Kind(pair[0])}
		}
		names[i], exprs[i] = name, pair[1]
	}
	// All bindings are evaluated in the child, which stays empty until every
	// one of them is done. Plain lookups can't see siblings, but closures
	// defined here capture the child and see them once they are called.
	child := newEnv(env, len(names))
	values, err := evalAll(ctx, child, exprs)
	if err != nil {
		return nil, err
	}
	for i, name := range names {
		child.set(name, values[i])
	}
	return Eval(ctx, child, operands[1])
}

func call(ctx context.Context, env *Env, expr any, fn Callable, operands []any) (any, error) {
	args, err := evalAll(ctx, env, operands)
	if err != nil {
		return nil, err
	}
	v, err := fn.Call(NewFrame(ctx, env), args)
	if err != nil {
		logger.Printf("error evaluating %s: %v", vals.Repr(expr), err)
		return nil, err
	}
	return v, nil
}

// evalAll evaluates exprs concurrently and returns the results in order.
func evalAll(ctx context.Context, env *Env, exprs []any) ([]any, error) {
	results := make([]any, len(exprs))
	switch len(exprs) {
	case 0:
		return results, nil
	case 1:
		v, err := Eval(ctx, env, exprs[0])
		if err != nil {
			return nil, err
		}
		results[0] = v
		return results, nil
	}

	failures := make([]error, len(exprs))
	var wg sync.WaitGroup
	wg.Add(len(exprs))
	for i, expr := range exprs {
		i, expr := i, expr
		go func() {
			defer wg.Done()
			results[i], failures[i] = Eval(ctx, env, expr)
		}()
	}
	wg.Wait()
	for _, err := range failures {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
