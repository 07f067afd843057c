package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"src.furver.dev/pkg/testutil"
)

// recordingSend echoes every expression back and records the batches.
type recordingSend struct {
	mu      sync.Mutex
	batches [][]any
}

func (r *recordingSend) send(ctx context.Context, exprs []any) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, exprs)
	return append([]any{}, exprs...), nil
}

func (r *recordingSend) get() [][]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches
}

func waitAll(t *testing.T, fs ...*Future) []any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testutil.Scaled(2*time.Second))
	defer cancel()
	results := make([]any, len(fs))
	for i, f := range fs {
		v, err := f.Wait(ctx)
		if err != nil {
			t.Fatalf("future %d: %v", i, err)
		}
		results[i] = v
	}
	return results
}

func TestBatcher_OneRequestPerWindow(t *testing.T) {
	var r recordingSend
	b := NewBatcher(r.send, testutil.Scaled(10*time.Millisecond))
	f1, f2, f3 := b.Go("a"), b.Go("b"), b.Go("c")

	if diff := cmp.Diff([]any{"a", "b", "c"}, waitAll(t, f1, f2, f3)); diff != "" {
		t.Errorf("results (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]any{{"a", "b", "c"}}, r.get()); diff != "" {
		t.Errorf("batches (-want +got):\n%s", diff)
	}
}

func TestBatcher_ZeroWindow(t *testing.T) {
	var r recordingSend
	b := NewBatcher(r.send, 0)
	v, err := b.Call(context.Background(), "x")
	if v != "x" || err != nil {
		t.Errorf("Call -> (%v, %v), want (x, nil)", v, err)
	}
}

func TestBatcher_Flush(t *testing.T) {
	var r recordingSend
	b := NewBatcher(r.send, time.Hour)
	f1, f2 := b.Go(1.0), b.Go(2.0)
	if s := b.State(); s != Accumulating {
		t.Errorf("State = %v, want accumulating", s)
	}
	b.Flush()
	select {
	case <-f2.Done():
	default:
		t.Errorf("future not resolved after Flush returned")
	}
	if diff := cmp.Diff([]any{1.0, 2.0}, waitAll(t, f1, f2)); diff != "" {
		t.Errorf("results (-want +got):\n%s", diff)
	}
	if s := b.State(); s != Idle {
		t.Errorf("State = %v, want idle", s)
	}
	// Flushing with nothing pending sends nothing.
	b.Flush()
	if n := len(r.get()); n != 1 {
		t.Errorf("got %d batches, want 1", n)
	}
}

func TestBatcher_TransportErrorFailsWholeBatch(t *testing.T) {
	errBoom := &TransportError{Status: 500}
	b := NewBatcher(func(context.Context, []any) (any, error) {
		return nil, errBoom
	}, time.Hour)
	fs := []*Future{b.Go(1.0), b.Go(2.0), b.Go(3.0)}
	b.Flush()
	for i, f := range fs {
		if _, err := f.Wait(context.Background()); err != errBoom {
			t.Errorf("future %d got error %v, want %v", i, err, errBoom)
		}
	}
}

func TestBatcher_Mismatch(t *testing.T) {
	for _, response := range []any{[]any{1.0}, "not a list", nil} {
		b := NewBatcher(func(context.Context, []any) (any, error) {
			return response, nil
		}, time.Hour)
		f1, f2 := b.Go(1.0), b.Go(2.0)
		b.Flush()
		for _, f := range []*Future{f1, f2} {
			_, err := f.Wait(context.Background())
			var mismatch *BatchMismatchError
			if !errors.As(err, &mismatch) || mismatch.Want != 2 {
				t.Errorf("response %v: got error %v, want BatchMismatchError", response, err)
			}
		}
	}
}

func TestBatcher_CallDuringSendingStartsNewBatch(t *testing.T) {
	var r recordingSend
	unblock := make(chan struct{})
	sending := make(chan struct{}, 1)
	b := NewBatcher(func(ctx context.Context, exprs []any) (any, error) {
		if len(r.get()) == 0 {
			sending <- struct{}{}
			<-unblock
		}
		return r.send(ctx, exprs)
	}, time.Hour)

	f1 := b.Go("first")
	go b.Flush()
	<-sending
	if s := b.State(); s != Sending {
		t.Errorf("State = %v, want sending", s)
	}
	f2 := b.Go("second")
	close(unblock)
	waitAll(t, f1)
	b.Flush()
	waitAll(t, f2)

	if diff := cmp.Diff([][]any{{"first"}, {"second"}}, r.get()); diff != "" {
		t.Errorf("batches (-want +got):\n%s", diff)
	}
}

func TestFuture_WaitCancelled(t *testing.T) {
	var r recordingSend
	b := NewBatcher(r.send, time.Hour)
	f := b.Go("x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Wait(ctx); err != context.Canceled {
		t.Errorf("Wait -> %v, want context.Canceled", err)
	}
	b.Flush()
	if v, err := f.Wait(context.Background()); v != "x" || err != nil {
		t.Errorf("Wait after Flush -> (%v, %v)", v, err)
	}
}

func TestState_String(t *testing.T) {
	if s := Demultiplexing.String(); s != "demultiplexing" {
		t.Errorf("got %q", s)
	}
	if s := State(10).String(); s != "State(10)" {
		t.Errorf("got %q", s)
	}
}
