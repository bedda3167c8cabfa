package integration

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/KingInYellow18/medianest-sub018/internal/retry"
)

const maxResponseBytes = 4 << 20 // 4 MiB

// Operation is one raw network call. The integration client runs it
// inside the retry policy, so the function is invoked once per attempt
// with a context that carries the per-attempt timeout.
type Operation func(ctx context.Context) ([]byte, error)

// HTTPTransport builds Operations around an http.Client, mapping
// failures onto the retry taxonomy: transport-level errors and 5xx
// responses are transient, 4xx responses are fatal.
type HTTPTransport struct {
	service string
	timeout time.Duration
	client  *http.Client
}

func NewHTTPTransport(service string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		service: service,
		timeout: timeout,
		client:  &http.Client{},
	}
}

// Operation wraps a request constructor. Each attempt gets its own
// request and its own timeout, distinct from the retry backoff delay.
func (t *HTTPTransport) Operation(newRequest func(ctx context.Context) (*http.Request, error)) Operation {
	return func(ctx context.Context) ([]byte, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, t.timeout)
		defer cancel()

		req, err := newRequest(attemptCtx)
		if err != nil {
			return nil, err
		}

		res, err := t.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				// Caller cancelled; don't dress this up as retryable.
				return nil, ctx.Err()
			}
			return nil, retry.MarkTransient(err)
		}
		defer res.Body.Close()

		body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
		if err != nil {
			return nil, retry.MarkTransient(err)
		}

		if res.StatusCode >= 400 {
			return nil, &UpstreamError{Service: t.service, StatusCode: res.StatusCode}
		}

		return body, nil
	}
}

// Get is a convenience for plain GET operations.
func (t *HTTPTransport) Get(url string) Operation {
	return t.Operation(func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
}
