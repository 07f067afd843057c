package errs

import (
	"errors"
	"testing"
)

var errorMessageTests = []struct {
	err     error
	wantMsg string
}{
	{
		UnknownOperator{Name: "add"},
		"unknown expression: add",
	},
	{
		ArityMismatch{What: "arguments", ValidLow: 2, ValidHigh: 2, Actual: 3},
		"arity mismatch: arguments must be 2 values, but is 3 values",
	},
	{
		ArityMismatch{What: "arguments", ValidLow: 2, ValidHigh: -1, Actual: 1},
		"arity mismatch: arguments must be 2 or more values, but is 1 value",
	},
	{
		ArityMismatch{What: "arguments", ValidLow: 2, ValidHigh: 3, Actual: 1},
		"arity mismatch: arguments must be 2 to 3 values, but is 1 value",
	},
	{
		BadForm{Form: "let", Reason: "bindings must be a list"},
		"bad let form: bindings must be a list",
	},
	{
		BadArgument{Index: 2, Err: errors.New("must be number")},
		"wrong type of 2'th argument: must be number",
	},
}

func TestErrorMessages(t *testing.T) {
	for _, test := range errorMessageTests {
		if gotMsg := test.err.Error(); gotMsg != test.wantMsg {
			t.Errorf("got message %v, want %v", gotMsg, test.wantMsg)
		}
	}
}

func TestBadArgument_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	if !errors.Is(BadArgument{Index: 1, Err: cause}, cause) {
		t.Errorf("BadArgument does not unwrap to its cause")
	}
}
