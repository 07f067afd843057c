// Package jsonrpc serves an API as JSON-RPC 2.0 over a byte stream, and
// provides the client side of the same protocol.
//
// Two methods are supported: "eval" takes an expression as its params and
// returns the result (params must not be absent or null), "schema" takes no params and returns the manifest.
// Messages are framed with Content-Length headers.
package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/sourcegraph/jsonrpc2"
	"src.furver.dev/pkg/client"
	"src.furver.dev/pkg/eval"
	"src.furver.dev/pkg/eval/errs"
	"src.furver.dev/pkg/logutil"
	"src.furver.dev/pkg/schema"
)

var logger = logutil.GetLogger("[jsonrpc] ")

// Names of methods.
const (
	MethodEval   = "eval"
	MethodSchema = "schema"
)

var (
	errMethodNotFound = &jsonrpc2.Error{
		Code: jsonrpc2.CodeMethodNotFound, Message: "method not found"}
	errInvalidParams = &jsonrpc2.Error{
		Code: jsonrpc2.CodeInvalidParams, Message: "invalid params"}
)

// NewConn returns a connection over rwc that serves requests with h. A nil h
// rejects all requests.
func NewConn(ctx context.Context, rwc io.ReadWriteCloser, h jsonrpc2.Handler) *jsonrpc2.Conn {
	if h == nil {
		h = routingHandler(nil)
	}
	return jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{}), h)
}

// Handler returns a handler that evaluates requests against root. The root is
// frozen if it is not already. Requests on one connection are handled in
// order; a client batches expressions into one request.
func Handler(root *eval.Env) jsonrpc2.Handler {
	if !root.Frozen() {
		root.Freeze()
	}
	s := &server{root, schema.Derive(root)}
	return routingHandler(map[string]method{
		MethodEval:   s.eval,
		MethodSchema: s.schema,
	})
}

type method func(context.Context, *jsonrpc2.Conn, *json.RawMessage) (any, error)

func routingHandler(methods map[string]method) jsonrpc2.Handler {
	return jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
		fn, ok := methods[req.Method]
		if !ok {
			return nil, errMethodNotFound
		}
		return fn(ctx, conn, req.Params)
	})
}

type server struct {
	root     *eval.Env
	manifest schema.Manifest
}

func (s *server) eval(ctx context.Context, _ *jsonrpc2.Conn, rawParams *json.RawMessage) (any, error) {
	if rawParams == nil {
		return nil, errInvalidParams
	}
	var expr any
	if json.Unmarshal(*rawParams, &expr) != nil || expr == nil {
		return nil, errInvalidParams
	}
	v, err := eval.Eval(ctx, s.root.Extend(nil), expr)
	if err != nil {
		logger.Println("eval failed:", err)
		return nil, toRPCError(err)
	}
	return v, nil
}

func (s *server) schema(context.Context, *jsonrpc2.Conn, *json.RawMessage) (any, error) {
	return s.manifest, nil
}

func toRPCError(err error) *jsonrpc2.Error {
	code := int64(jsonrpc2.CodeInternalError)
	if errors.As(err, new(errs.UnknownOperator)) {
		code = jsonrpc2.CodeMethodNotFound
	}
	return &jsonrpc2.Error{Code: code, Message: err.Error()}
}

// Sender returns a client.SendFunc that sends batches over conn.
func Sender(conn *jsonrpc2.Conn) client.SendFunc {
	return func(ctx context.Context, exprs []any) (any, error) {
		var result any
		err := conn.Call(ctx, MethodEval, client.Envelope(exprs), &result)
		if err != nil {
			return nil, &client.TransportError{Err: err}
		}
		return result, nil
	}
}

// SchemaFunc returns a function suitable for client.Options.SchemaFunc that
// fetches the schema over conn. The URL is ignored.
func SchemaFunc(conn *jsonrpc2.Conn) func(context.Context, string) (any, error) {
	return func(ctx context.Context, _ string) (any, error) {
		var result any
		if err := conn.Call(ctx, MethodSchema, nil, &result); err != nil {
			return nil, &client.TransportError{Err: err}
		}
		return result, nil
	}
}
