package jsonrpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sourcegraph/jsonrpc2"
	"src.furver.dev/pkg/client"
	"src.furver.dev/pkg/eval"
	"src.furver.dev/pkg/mods/core"
	"src.furver.dev/pkg/schema"
	"src.furver.dev/pkg/testutil"
)

// connect returns a client connection to a server that serves root over an
// in-memory pipe.
func connect(t *testing.T, root *eval.Env) *jsonrpc2.Conn {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	serverSide, clientSide := net.Pipe()
	serverConn := NewConn(ctx, serverSide, Handler(root))
	clientConn := NewConn(ctx, clientSide, nil)
	t.Cleanup(func() {
		clientConn.Close()
		serverConn.Close()
		cancel()
	})
	return clientConn
}

func timeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), testutil.Scaled(5*time.Second))
	t.Cleanup(cancel)
	return ctx
}

func TestEval(t *testing.T) {
	conn := connect(t, core.Env())
	ctx := timeout(t)

	var result any
	if err := conn.Call(ctx, MethodEval, []any{"add", 1, 2}, &result); err != nil {
		t.Fatal(err)
	}
	if result != 3.0 {
		t.Errorf("got %v, want 3", result)
	}

	tests := []struct {
		method string
		params any
		code   int64
	}{
		{MethodEval, []any{"no-such-fn"}, jsonrpc2.CodeMethodNotFound},
		{MethodEval, []any{"divide", 1, 0}, jsonrpc2.CodeInternalError},
		{MethodEval, nil, jsonrpc2.CodeInvalidParams},
		{"no-such-method", nil, jsonrpc2.CodeMethodNotFound},
	}
	for _, test := range tests {
		err := conn.Call(ctx, test.method, test.params, &result)
		var rpcErr *jsonrpc2.Error
		if !errors.As(err, &rpcErr) || rpcErr.Code != test.code {
			t.Errorf("%s %v: got error %v, want code %d", test.method, test.params, err, test.code)
		}
	}
}

func TestEval_RootIsFrozen(t *testing.T) {
	root := core.Env()
	conn := connect(t, root)
	if !root.Frozen() {
		t.Errorf("root not frozen")
	}
	var result any
	err := conn.Call(timeout(t), MethodEval, []any{"mutate"}, &result)
	if err == nil {
		t.Errorf("mutate succeeded")
	}
}

func TestSchema(t *testing.T) {
	root := core.Env()
	conn := connect(t, root)
	var result any
	if err := conn.Call(timeout(t), MethodSchema, nil, &result); err != nil {
		t.Fatal(err)
	}
	m, err := schema.Check(result)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(schema.Derive(root), m); diff != "" {
		t.Errorf("schema (-want +got):\n%s", diff)
	}
}

func TestClientOverJSONRPC(t *testing.T) {
	conn := connect(t, core.Env())
	c, err := client.New(timeout(t), client.Options{
		SchemaFunc: SchemaFunc(conn),
		Send:       Sender(conn),
		Window:     time.Hour,
	})
	if err != nil {
		t.Fatal(err)
	}
	add, _ := c.Stub("add")
	f1 := add.Go(1, 2)
	f2 := c.Go([]any{"concat", "a", "b"})
	f3 := c.Go([]any{"no-such-fn"})
	c.Flush()

	for _, f := range []*client.Future{f1, f2, f3} {
		_, err := f.Wait(timeout(t))
		var transportErr *client.TransportError
		if !errors.As(err, &transportErr) {
			t.Errorf("got %v, want TransportError", err)
		}
	}

	f1 = add.Go(1, 2)
	f2 = c.Go([]any{"concat", "a", "b"})
	c.Flush()
	if v, err := f1.Wait(timeout(t)); v != 3.0 || err != nil {
		t.Errorf("add -> (%v, %v)", v, err)
	}
	if v, err := f2.Wait(timeout(t)); v != "ab" || err != nil {
		t.Errorf("concat -> (%v, %v)", v, err)
	}
}
