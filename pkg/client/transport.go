package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// TransportError is the error of every future of a batch whose request
// failed.
type TransportError struct {
	// HTTP status of the response, or 0 if there was no response.
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("server responded with status %d", e.Status)
	}
	return "transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Envelope wraps the expressions of a batch into the expression the server
// evaluates: a call whose operator is the list of expressions.
func Envelope(exprs []any) []any { return []any{exprs} }

// PostTransport returns a SendFunc that POSTs batches to endpoint.
func PostTransport(c *http.Client, endpoint string) SendFunc {
	return func(ctx context.Context, exprs []any) (any, error) {
		body, err := json.Marshal(Envelope(exprs))
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, &TransportError{Err: err}
		}
		req.Header.Set("Content-Type", "application/json")
		return do(c, req)
	}
}

// GetTransport returns a SendFunc that sends batches to endpoint in the body
// query parameter of GET requests.
func GetTransport(c *http.Client, endpoint string) SendFunc {
	return func(ctx context.Context, exprs []any) (any, error) {
		body, err := json.Marshal(Envelope(exprs))
		if err != nil {
			return nil, err
		}
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, &TransportError{Err: err}
		}
		q := u.Query()
		q.Set("body", string(body))
		u.RawQuery = q.Encode()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, &TransportError{Err: err}
		}
		return do(c, req)
	}
}

func do(c *http.Client, req *http.Request) (any, error) {
	resp, err := c.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Status: resp.StatusCode,
			Err: fmt.Errorf("%s", bytes.TrimSpace(data))}
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, &TransportError{Err: err}
	}
	return v, nil
}
