// Package client implements the client of a Furver server.
//
// A Client fetches the schema of the server and exposes every entry as a
// Stub. Calls made through stubs, or with Call, are collected by a Batcher
// and sent together:
//
//	c, err := client.New(ctx, client.Options{Endpoint: "http://localhost:3000"})
//	add, _ := c.Stub("add")
//	v, err := add.Call(ctx, 1, 2)
//
// A Stub encodes to its name in JSON, so it can be passed as an argument to
// another call and resolved on the server.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"src.furver.dev/pkg/logutil"
	"src.furver.dev/pkg/schema"
)

var logger = logutil.GetLogger("[client] ")

// DefaultEndpoint is used when Options.Endpoint is empty.
const DefaultEndpoint = "http://localhost:3000"

// ReservedName is never turned into a stub, since it would shadow Call in
// clients that expose stubs as methods.
const ReservedName = "call"

// Options keeps options for New.
type Options struct {
	// URL of the API. Defaults to DefaultEndpoint.
	Endpoint string
	// Defaults to http.DefaultClient.
	HTTPClient *http.Client
	// "post" (the default) or "get".
	Method string
	// How long the Batcher waits after the last call before sending.
	Window time.Duration
	// If not nil, used as the schema instead of fetching it.
	Schema schema.Manifest
	// If not nil, called to fetch the schema from the URL returned by
	// SchemaURL. The result is checked with schema.Check.
	SchemaFunc func(ctx context.Context, url string) (any, error)
	// If not nil, used to send batches instead of HTTP.
	Send SendFunc
}

// Client is a client of a Furver server.
type Client struct {
	batcher  *Batcher
	manifest schema.Manifest
	stubs    map[string]*Stub
}

// New creates a Client. It fails if the schema cannot be fetched or is not
// valid; in the latter case the error is a *schema.InvalidSchemaError.
func New(ctx context.Context, opts Options) (*Client, error) {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	send := opts.Send
	if send == nil {
		switch strings.ToLower(opts.Method) {
		case "", "post":
			send = PostTransport(httpClient, endpoint)
		case "get":
			send = GetTransport(httpClient, endpoint)
		default:
			return nil, fmt.Errorf("unsupported method %q", opts.Method)
		}
	}

	manifest := opts.Schema
	if manifest == nil {
		fetch := opts.SchemaFunc
		if fetch == nil {
			fetch = func(ctx context.Context, url string) (any, error) {
				return FetchSchema(ctx, httpClient, url)
			}
		}
		v, err := fetch(ctx, SchemaURL(endpoint))
		if err != nil {
			return nil, err
		}
		manifest, err = schema.Check(v)
		if err != nil {
			return nil, err
		}
	}

	c := &Client{NewBatcher(send, opts.Window), manifest, make(map[string]*Stub)}
	for _, e := range manifest {
		if e.Name == ReservedName {
			continue
		}
		c.stubs[e.Name] = &Stub{e.Name, e.Arity, c}
	}
	logger.Printf("client for %s with %d stubs", endpoint, len(c.stubs))
	return c, nil
}

// SchemaURL returns the URL of the schema of the API at endpoint.
func SchemaURL(endpoint string) string {
	if endpoint == "/" {
		return "/schema"
	}
	return strings.TrimSuffix(endpoint, "/") + "/schema"
}

// FetchSchema fetches the JSON at url and decodes it.
func FetchSchema(ctx context.Context, c *http.Client, url string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Status: resp.StatusCode}
	}
	var v any
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, &schema.InvalidSchemaError{Reason: err.Error()}
	}
	return v, nil
}

// Schema returns the schema the client was created with, including any entry
// named "call".
func (c *Client) Schema() schema.Manifest { return c.manifest }

// Stub returns the stub for name.
func (c *Client) Stub(name string) (*Stub, bool) {
	s, ok := c.stubs[name]
	return s, ok
}

// Call sends an arbitrary expression and waits for its result.
func (c *Client) Call(ctx context.Context, expr any) (any, error) {
	return c.batcher.Call(ctx, expr)
}

// Go sends an arbitrary expression without waiting.
func (c *Client) Go(expr any) *Future { return c.batcher.Go(expr) }

// Flush sends pending expressions now.
func (c *Client) Flush() { c.batcher.Flush() }

// Stub stands for a function of the API.
type Stub struct {
	name  string
	arity int
	c     *Client
}

// Name returns the name of the function.
func (s *Stub) Name() string { return s.name }

// Arity returns the arity from the schema.
func (s *Stub) Arity() int { return s.arity }

// MarshalJSON encodes the stub as its name.
func (s *Stub) MarshalJSON() ([]byte, error) { return json.Marshal(s.name) }

// Go calls the function with args without waiting.
func (s *Stub) Go(args ...any) *Future {
	return s.c.Go(append([]any{s.name}, args...))
}

// Call calls the function with args and waits for the result.
func (s *Stub) Call(ctx context.Context, args ...any) (any, error) {
	return s.Go(args...).Wait(ctx)
}
