// Package errutil contains utilities for working with errors.
package errutil

import "strings"

// Multi combines several errors into one. Nil errors are dropped; if nothing
// is left the result is nil, and if one error is left it is returned as is.
// Results of Multi passed to Multi again are flattened.
func Multi(errs ...error) error {
	var nonNil []error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if m, ok := err.(multiError); ok {
			nonNil = append(nonNil, m...)
		} else {
			nonNil = append(nonNil, err)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	default:
		return multiError(nonNil)
	}
}

type multiError []error

func (me multiError) Error() string {
	var sb strings.Builder
	sb.WriteString("multiple errors: ")
	for i, e := range me {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(e.Error())
	}
	return sb.String()
}

// Unwrap exposes the combined errors to errors.Is and errors.As.
func (me multiError) Unwrap() []error { return me }
