// Package errs declares error types used as exception causes.
package errs

import (
	"fmt"
	"strconv"
)

// UnknownOperator is returned when the operator of an expression can't be
// resolved in the environment chain.
type UnknownOperator struct {
	Name string
}

func (e UnknownOperator) Error() string {
	return "unknown expression: " + e.Name
}

// ArityMismatch encodes an error where the expected number of values is out
// of the valid range.
type ArityMismatch struct {
	What      string
	ValidLow  int
	ValidHigh int
	Actual    int
}

func (e ArityMismatch) Error() string {
	switch {
	case e.ValidHigh == e.ValidLow:
		return fmt.Sprintf("arity mismatch: %v must be %v, but is %v",
			e.What, nValues(e.ValidLow), nValues(e.Actual))
	case e.ValidHigh == -1:
		return fmt.Sprintf("arity mismatch: %v must be %v or more values, but is %v",
			e.What, e.ValidLow, nValues(e.Actual))
	default:
		return fmt.Sprintf("arity mismatch: %v must be %v to %v values, but is %v",
			e.What, e.ValidLow, e.ValidHigh, nValues(e.Actual))
	}
}

func nValues(n int) string {
	if n == 1 {
		return "1 value"
	}
	return strconv.Itoa(n) + " values"
}

// BadForm is returned when a special form is malformed.
type BadForm struct {
	Form   string
	Reason string
}

func (e BadForm) Error() string {
	return "bad " + e.Form + " form: " + e.Reason
}

// BadArgument is returned when an argument can't be converted to the type a
// function expects.
type BadArgument struct {
	// 1-based.
	Index int
	Err   error
}

func (e BadArgument) Error() string {
	return fmt.Sprintf("wrong type of %d'th argument: %v", e.Index, e.Err)
}

func (e BadArgument) Unwrap() error { return e.Err }
