package client

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SendFunc sends the expressions of a batch in one request and returns the
// decoded response, which should be a list with one result per expression.
type SendFunc func(ctx context.Context, exprs []any) (any, error)

// State is the state of a Batcher.
type State int

// Possible values of State.
const (
	// No expressions are pending and no batch is in flight.
	Idle State = iota
	// Expressions are pending, waiting for the window to pass.
	Accumulating
	// A batch has been sent and its response has not arrived.
	Sending
	// The response of a batch is being distributed to its futures.
	Demultiplexing
)

var stateNames = [...]string{"idle", "accumulating", "sending", "demultiplexing"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// BatchMismatchError is the error of every future of a batch when the
// response is not a list with one result per expression.
type BatchMismatchError struct {
	Want int
	// Number of results in the response, or -1 if it was not a list.
	Got int
}

func (e *BatchMismatchError) Error() string {
	if e.Got < 0 {
		return fmt.Sprintf("batch of %d expressions got a response that is not a list", e.Want)
	}
	return fmt.Sprintf("batch of %d expressions got %d results", e.Want, e.Got)
}

// Batcher collects expressions and sends them together.
//
// Each expression added with Go restarts a timer of the configured window;
// when the timer fires, all pending expressions are sent in one request. The
// results are handed out to the futures in the order the expressions were
// added. Expressions added while a batch is in flight form the next batch.
type Batcher struct {
	send   SendFunc
	window time.Duration

	mu             sync.Mutex
	pending        []*Future
	timer          *time.Timer
	sending        int
	demultiplexing int
}

// NewBatcher returns a Batcher that sends batches with send. A zero window
// sends as soon as the timer goroutine gets to run.
func NewBatcher(send SendFunc, window time.Duration) *Batcher {
	return &Batcher{send: send, window: window}
}

// Future is the eventual result of an expression added to a Batcher.
type Future struct {
	expr  any
	done  chan struct{}
	value any
	err   error
}

// Done returns a channel that is closed when the result is available.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait waits for the result. If ctx is done first, it returns the error of
// ctx; the expression is still part of its batch.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Future) resolve(value any, err error) {
	f.value, f.err = value, err
	close(f.done)
}

// Go adds expr to the pending batch and returns its future. It never blocks
// on the network.
func (b *Batcher) Go(expr any) *Future {
	f := &Future{expr: expr, done: make(chan struct{})}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, f)
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.window, b.Flush)
	return f
}

// Call adds expr to the pending batch and waits for its result.
func (b *Batcher) Call(ctx context.Context, expr any) (any, error) {
	return b.Go(expr).Wait(ctx)
}

// State returns the current state. When a batch is in flight and new
// expressions are pending at the same time, the state is Accumulating.
func (b *Batcher) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case len(b.pending) > 0:
		return Accumulating
	case b.demultiplexing > 0:
		return Demultiplexing
	case b.sending > 0:
		return Sending
	default:
		return Idle
	}
}

// Flush sends the pending batch now, and returns when all of its futures have
// been resolved. It does nothing if no expression is pending.
func (b *Batcher) Flush() {
	b.mu.Lock()
	batch := b.pending
	b.pending = nil
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	if len(batch) == 0 {
		b.mu.Unlock()
		return
	}
	b.sending++
	b.mu.Unlock()

	exprs := make([]any, len(batch))
	for i, f := range batch {
		exprs[i] = f.expr
	}
	logger.Printf("sending batch of %d", len(batch))
	response, err := b.send(context.Background(), exprs)

	b.mu.Lock()
	b.sending--
	b.demultiplexing++
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.demultiplexing--
		b.mu.Unlock()
	}()

	if err != nil {
		logger.Println("batch failed:", err)
		for _, f := range batch {
			f.resolve(nil, err)
		}
		return
	}
	results, ok := response.([]any)
	if !ok || len(results) != len(batch) {
		got := -1
		if ok {
			got = len(results)
		}
		err := &BatchMismatchError{Want: len(batch), Got: got}
		logger.Println(err)
		for _, f := range batch {
			f.resolve(nil, err)
		}
		return
	}
	for i, f := range batch {
		f.resolve(results[i], nil)
	}
}
