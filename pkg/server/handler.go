// Package server serves an API over HTTP.
//
// Each request carries one expression, either as the body of a POST request
// or in the body query parameter of a GET request. The expression is
// evaluated in a child of the frozen API environment, in which the name
// "$http" is bound to the *Exchange of the request. The result is written as
// JSON followed by a newline. Errors are written as a "Status: CODE" text
// body with the matching status code.
//
// The manifest of the API is served at "/schema" under the same prefix.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"src.furver.dev/pkg/eval"
	"src.furver.dev/pkg/eval/errs"
	"src.furver.dev/pkg/logutil"
	"src.furver.dev/pkg/schema"
)

var logger = logutil.GetLogger("[server] ")

// ExchangeName is the name the *Exchange of a request is bound to.
const ExchangeName = "$http"

// SchemaPath is the path of the manifest, relative to the prefix.
const SchemaPath = "/schema"

// Options keeps options for Handler.
type Options struct {
	// Prefix is the path under which the API is served, like "/api". The
	// empty prefix serves at the root.
	Prefix string
	// Hooks are called at the different stages of a request.
	Hooks Hooks
}

// Hooks shape the handling of requests. All fields are optional.
type Hooks struct {
	// OnRequest is called with the parsed payload before it is evaluated. It
	// returns the expression to evaluate instead, or an error to fail the
	// request.
	OnRequest func(x *Exchange, payload any) (any, error)
	// OnResponse is called with the result of a successful evaluation. It
	// returns the value to write instead. It may also write the response
	// itself through x.Response, in which case nothing more is written.
	OnResponse func(x *Exchange, result any) (any, error)
	// OnError is called with the error of a failed request. It returns the
	// status code to respond with; 0 keeps the default one. It may also write
	// the response itself through x.Response.
	OnError func(x *Exchange, err error) int
}

// Exchange is a request and its response.
type Exchange struct {
	Request  *http.Request
	Response http.ResponseWriter

	w *responseWriter
}

func newExchange(w http.ResponseWriter, r *http.Request) *Exchange {
	rw := &responseWriter{ResponseWriter: w}
	return &Exchange{Request: r, Response: rw, w: rw}
}

// Written reports whether the header of the response has been written.
func (x *Exchange) Written() bool { return x.w.written }

// Kind returns "exchange".
func (*Exchange) Kind() string { return "exchange" }

// MarshalJSON encodes the method and the URL of the request.
func (x *Exchange) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"method": x.Request.Method,
		"url":    x.Request.URL.String(),
	})
}

type responseWriter struct {
	http.ResponseWriter
	written bool
}

func (w *responseWriter) WriteHeader(status int) {
	w.written = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(p []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(p)
}

// ParseError is returned when the payload of a request is not valid JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "cannot parse payload: " + e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

// MethodError is returned when a request uses a method other than GET or
// POST.
type MethodError struct {
	Method string
}

func (e *MethodError) Error() string { return "method not allowed: " + e.Method }

// StatusOf returns the HTTP status code for an error: 400 for a *ParseError,
// 404 for an unknown operator, 405 for a *MethodError and 500 otherwise.
func StatusOf(err error) int {
	var (
		parseErr  *ParseError
		methodErr *MethodError
		unknown   errs.UnknownOperator
	)
	switch {
	case errors.As(err, &parseErr):
		return http.StatusBadRequest
	case errors.As(err, &unknown):
		return http.StatusNotFound
	case errors.As(err, &methodErr):
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Handler returns an http.Handler that evaluates requests against root. The
// root is frozen if it is not already.
func Handler(root *eval.Env, opts Options) http.Handler {
	if !root.Frozen() {
		root.Freeze()
	}
	prefix := strings.TrimSuffix(opts.Prefix, "/")
	return &handler{root, schema.Derive(root), prefix, opts.Hooks}
}

type handler struct {
	root     *eval.Env
	manifest schema.Manifest
	prefix   string
	hooks    Hooks
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger.Println(r.Method, r.URL)
	x := newExchange(w, r)

	path, ok := h.route(r.URL.Path)
	if !ok {
		h.writeError(x, errs.UnknownOperator{Name: r.URL.Path})
		return
	}
	if path == SchemaPath {
		writeJSON(x, h.manifest)
		return
	}

	v, err := h.serve(x)
	if err != nil {
		h.writeError(x, err)
		return
	}
	if h.hooks.OnResponse != nil {
		v, err = h.hooks.OnResponse(x, v)
		if err != nil {
			h.writeError(x, err)
			return
		}
	}
	if x.Written() {
		return
	}
	writeJSON(x, v)
}

// route strips the prefix from path. It reports false if path is not under
// the prefix.
func (h *handler) route(path string) (string, bool) {
	if h.prefix == "" {
		return path, true
	}
	if path == h.prefix {
		return "/", true
	}
	if rest := strings.TrimPrefix(path, h.prefix); rest != path && strings.HasPrefix(rest, "/") {
		return rest, true
	}
	return "", false
}

func (h *handler) serve(x *Exchange) (any, error) {
	data, err := readPayload(x.Request)
	if err != nil {
		return nil, err
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &ParseError{err}
	}
	if h.hooks.OnRequest != nil {
		payload, err = h.hooks.OnRequest(x, payload)
		if err != nil {
			return nil, err
		}
	}
	env := h.root.Extend(map[string]any{ExchangeName: x})
	// The evaluation is not tied to the request: a result of a client that
	// has gone away is simply discarded.
	return eval.Eval(context.Background(), env, payload)
}

func readPayload(r *http.Request) ([]byte, error) {
	switch r.Method {
	case http.MethodGet:
		return []byte(r.URL.Query().Get("body")), nil
	case http.MethodPost:
		return io.ReadAll(r.Body)
	default:
		return nil, &MethodError{r.Method}
	}
}

func (h *handler) writeError(x *Exchange, err error) {
	logger.Printf("%s %s: %v", x.Request.Method, x.Request.URL, err)
	status := StatusOf(err)
	if h.hooks.OnError != nil {
		if s := h.hooks.OnError(x, err); s != 0 {
			status = s
		}
	}
	if x.Written() {
		return
	}
	writeStatus(x, status)
}

func writeStatus(x *Exchange, status int) {
	x.Response.Header().Set("Content-Type", "text/plain")
	if status == http.StatusMethodNotAllowed {
		x.Response.Header().Set("Allow", "GET, POST")
	}
	x.Response.WriteHeader(status)
	fmt.Fprintf(x.Response, "Status: %d", status)
}

func writeJSON(x *Exchange, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Println("cannot encode result:", err)
		writeStatus(x, http.StatusInternalServerError)
		return
	}
	x.Response.Header().Set("Content-Type", "application/json")
	x.Response.WriteHeader(http.StatusOK)
	x.Response.Write(append(data, '\n'))
}
