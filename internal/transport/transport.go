package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// Request is the minimal shape of an outgoing call.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response carries the status, headers and fully read body of a reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Requester executes a single request. Implementations block until the
// response body has been read or the call failed.
type Requester interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// RequesterFunc adapts a function to Requester.
type RequesterFunc func(ctx context.Context, req *Request) (*Response, error)

func (f RequesterFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// HTTPClient is an interface for making HTTP requests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Error reports that the request never produced a response
// (DNS, connection, timeout, cancelled context).
type Error struct {
	Method string
	URL    string
	Err    error
}

func (e *Error) Error() string {
	if e.Method == "" && e.URL == "" {
		return fmt.Sprintf("transport error: %v", e.Err)
	}
	return fmt.Sprintf("transport error: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPRequester sends requests through an HTTPClient.
type HTTPRequester struct {
	client HTTPClient
}

// NewRequester wraps client. A nil client falls back to NewHTTPClient.
func NewRequester(client HTTPClient) *HTTPRequester {
	if client == nil {
		client = NewHTTPClient()
	}
	return &HTTPRequester{client: client}
}

// Do implements Requester.
func (h *HTTPRequester) Do(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, &Error{Method: req.Method, URL: req.URL, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Method: req.Method, URL: req.URL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Method: req.Method, URL: req.URL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
