package prediction

import (
	"context"
	"net"

	"github.com/valyala/fasthttp"
)

// Transport performs one HTTP exchange with the model server
type Transport interface {
	Do(ctx context.Context, method, url string, body []byte) (status int, respBody []byte, err error)
}

// FastHTTPTransport is the default Transport.
// It applies no timeout of its own; a context deadline bounds the request
// and cancelling the context abandons it.
type FastHTTPTransport struct {
	client *fasthttp.Client
}

// TransportOption customizes a FastHTTPTransport
type TransportOption func(*fasthttp.Client)

// WithDial replaces the dialer, e.g. with an in-memory listener in tests
func WithDial(dial func(addr string) (net.Conn, error)) TransportOption {
	return func(c *fasthttp.Client) {
		c.Dial = dial
	}
}

// NewFastHTTPTransport creates a transport backed by a fasthttp client
func NewFastHTTPTransport(opts ...TransportOption) *FastHTTPTransport {
	client := &fasthttp.Client{
		Name:                     "aquasense",
		NoDefaultUserAgentHeader: false,
		MaxConnsPerHost:          16,
	}
	for _, opt := range opts {
		opt(client)
	}
	return &FastHTTPTransport{client: client}
}

// Do sends the request and returns a copy of the response body.
// It returns ctx.Err() as soon as ctx is done; an abandoned exchange
// finishes in the background and its response is dropped.
func (t *FastHTTPTransport) Do(ctx context.Context, method, url string, body []byte) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	if ctx.Done() == nil {
		return t.exchange(ctx, method, url, body)
	}

	type result struct {
		status int
		body   []byte
		err    error
	}
	done := make(chan result, 1)
	go func() {
		status, out, err := t.exchange(ctx, method, url, body)
		done <- result{status: status, body: out, err: err}
	}()

	select {
	case r := <-done:
		return r.status, r.body, r.err
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
}

func (t *FastHTTPTransport) exchange(ctx context.Context, method, url string, body []byte) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = t.client.DoDeadline(req, resp, deadline)
	} else {
		err = t.client.Do(req, resp)
	}
	if err != nil {
		return 0, nil, err
	}

	out := make([]byte, len(resp.Body()))
	copy(out, resp.Body())
	return resp.StatusCode(), out, nil
}

// Close releases idle connections
func (t *FastHTTPTransport) Close() {
	t.client.CloseIdleConnections()
}
