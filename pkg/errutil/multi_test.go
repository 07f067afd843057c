package errutil

import (
	"errors"
	"testing"
)

var (
	err1 = errors.New("error 1")
	err2 = errors.New("error 2")
	err3 = errors.New("error 3")
)

func TestMulti(t *testing.T) {
	if err := Multi(); err != nil {
		t.Errorf("Multi() -> %v, want nil", err)
	}
	if err := Multi(nil, nil); err != nil {
		t.Errorf("Multi(nil, nil) -> %v, want nil", err)
	}
	if err := Multi(nil, err1); err != err1 {
		t.Errorf("Multi(nil, err1) -> %v, want err1", err)
	}

	err := Multi(Multi(err1, err2), err3)
	want := "multiple errors: error 1; error 2; error 3"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
