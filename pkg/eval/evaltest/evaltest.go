// Package evaltest provides a framework for testing the evaluation of
// expressions.
//
// Expressions are written as JSON, the way they arrive over the wire:
//
//	Test(t, env,
//		That(`["add", 1, 2]`).Returns(3.0),
//		That(`["missing"]`).Throws(errs.UnknownOperator{Name: "missing"}),
//	)
package evaltest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"src.furver.dev/pkg/eval"
	"src.furver.dev/pkg/tt"
)

// Case is a test case that can be used in Test.
type Case struct {
	code string
	want result
}

type result struct {
	value    any
	err      error
	anyError bool
}

// That returns a new Case with the specified JSON code. The Case returns nil
// and throws no error unless changed by Returns or Throws.
func That(code string) Case {
	return Case{code: code}
}

// Returns returns an altered Case that requires the evaluation to produce v.
// If v implements tt.Matcher, its Match method decides.
func (c Case) Returns(v any) Case {
	c.want.value = v
	return c
}

// Throws returns an altered Case that requires the evaluation to fail with an
// error equal to err, as decided by its message.
func (c Case) Throws(err error) Case {
	c.want.err = err
	return c
}

// ThrowsAny returns an altered Case that requires the evaluation to fail.
func (c Case) ThrowsAny() Case {
	c.want.anyError = true
	return c
}

// Test runs test cases. Each case is evaluated in env.
func Test(t *testing.T, env *eval.Env, tests ...Case) {
	t.Helper()
	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			t.Helper()
			var expr any
			if err := json.Unmarshal([]byte(tc.code), &expr); err != nil {
				t.Fatalf("bad test code %s: %v", tc.code, err)
			}
			v, err := eval.Eval(context.Background(), env, expr)

			switch {
			case tc.want.anyError:
				if err == nil {
					t.Errorf("got nil error, want any error")
				}
				return
			case tc.want.err != nil:
				if err == nil || err.Error() != tc.want.err.Error() {
					t.Errorf("got error %v, want %v", err, tc.want.err)
				}
				return
			case err != nil:
				t.Errorf("got error %v, want nil", err)
				return
			}

			if m, ok := tc.want.value.(tt.Matcher); ok {
				if !m.Match(v) {
					t.Errorf("got %v, which does not match", v)
				}
				return
			}
			if diff := cmp.Diff(tc.want.value, v, tt.CommonCmpOpt); diff != "" {
				t.Errorf("got value (-want +got):\n%s", diff)
			}
		})
	}
}
