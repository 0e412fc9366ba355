package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRequesterDo(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Equal(t, "a=b", string(body))
		w.Header().Set("X-Test", "yes")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))
	defer ts.Close()

	r := NewRequester(ts.Client())
	resp, err := r.Do(context.Background(), &Request{
		Method: http.MethodPost,
		URL:    ts.URL,
		Header: http.Header{"Content-Type": []string{"application/x-www-form-urlencoded"}},
		Body:   []byte("a=b"),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "yes", resp.Header.Get("X-Test"))
	assert.Equal(t, "short and stout", string(resp.Body))
}

type failingClient struct{ err error }

func (f failingClient) Do(*http.Request) (*http.Response, error) {
	return nil, f.err
}

func TestHTTPRequesterWrapsClientFailures(t *testing.T) {
	cause := errors.New("connection refused")
	r := NewRequester(failingClient{err: cause})

	_, err := r.Do(context.Background(), &Request{Method: http.MethodGet, URL: "https://example.com"})
	require.Error(t, err)

	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "https://example.com", terr.URL)
	assert.ErrorIs(t, err, cause)
}

func TestHTTPRequesterBadURL(t *testing.T) {
	r := NewRequester(failingClient{})
	_, err := r.Do(context.Background(), &Request{Method: "GET", URL: "://bad"})

	var terr *Error
	require.ErrorAs(t, err, &terr)
}

func TestRequesterFunc(t *testing.T) {
	called := false
	var r Requester = RequesterFunc(func(ctx context.Context, req *Request) (*Response, error) {
		called = true
		return &Response{StatusCode: http.StatusOK}, nil
	})
	resp, err := r.Do(context.Background(), &Request{})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
