// Package client calls the subscription API over HTTP.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/vikiai/newsletter/logging"
	"github.com/vikiai/newsletter/metrics"
	"github.com/vikiai/newsletter/webutil"
)

const (
	subscribePath   = "/api/subscribe"
	unsubscribePath = "/api/unsubscribe"

	defaultTimeout   = 10 * time.Second
	maxResponseBytes = 64 << 10

	breakerName          = "newsletter-api"
	breakerOpenTimeout   = 30 * time.Second
	breakerTripThreshold = 5
)

// Response is the status and message of an API answer.
type Response struct {
	StatusCode int
	Message    string
}

// OK reports a 2xx answer.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type clientIPKey struct{}

// ContextWithClientIP records the address of the visitor a call is made for.
// The client sends it as X-Real-IP so the API's per-IP limits apply to the
// visitor.
func ContextWithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func clientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// Client calls the API behind a circuit breaker. Only transport failures
// count against the breaker; any HTTP answer is a success.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[Response]
}

type Option func(*Client)

// WithHTTPClient replaces the default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = newBreaker()
	return c
}

func newBreaker() *gobreaker.CircuitBreaker[Response] {
	metrics.SetCircuitBreakerState(breakerName, gobreaker.StateClosed.String())

	return gobreaker.NewCircuitBreaker[Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state change")
			metrics.SetCircuitBreakerState(name, to.String())
		},
	})
}

func (c *Client) Subscribe(ctx context.Context, email string) (Response, error) {
	return c.post(ctx, subscribePath, email)
}

func (c *Client) Unsubscribe(ctx context.Context, email string) (Response, error) {
	return c.post(ctx, unsubscribePath, email)
}

func (c *Client) post(ctx context.Context, path, email string) (Response, error) {
	resp, err := c.breaker.Execute(func() (Response, error) {
		return c.send(ctx, path, email)
	})
	if err != nil {
		return Response{}, fmt.Errorf("failed to call %s: %w", path, err)
	}
	return resp, nil
}

// send posts {email} to path. Any answer from the server, whatever its
// status, is a Response; only a missing answer is an error.
func (c *Client) send(ctx context.Context, path, email string) (Response, error) {
	payload, err := json.Marshal(webutil.EmailRequest{Email: email})
	if err != nil {
		return Response{}, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set(webutil.HeaderContentType, webutil.ContentTypeJSONUTF8)
	if ip := clientIPFromContext(ctx); ip != "" {
		req.Header.Set(webutil.HeaderRealIP, ip)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	out := Response{StatusCode: resp.StatusCode}

	var body webutil.MessageResponse
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, fmt.Errorf("failed to read %s response: %w", path, err)
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		out.Message = body.Message
	}
	return out, nil
}
