package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/wf4ever/rodl-go"
)

var tracer = otel.Tracer("client")

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "rodl-go/1.0"
	maxErrorBody     = 4096
)

// Client is the HTTP transport shared by every RODL service wrapper. It is
// safe for concurrent use.
type Client struct {
	client     *http.Client
	noRedirect *http.Client
	transport  http.RoundTripper
	cache      DocumentCache
	limiter    *rate.Limiter
	metrics    *metrics
	userAgent  string
	token      string
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the OAuth2 bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTimeout sets the per request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
		c.noRedirect.Timeout = d
	}
}

// WithCache enables caching of RDF documents fetched with GetRDF.
func WithCache(cache DocumentCache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithRateLimit throttles outgoing requests.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(r, burst) }
}

// WithTransport replaces the underlying round tripper, mostly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

func New(opts ...Option) *Client {
	c := &Client{
		transport: http.DefaultTransport,
		userAgent: defaultUserAgent,
	}
	c.client = &http.Client{
		Timeout:   defaultTimeout,
		Transport: c,
	}
	c.noRedirect = &http.Client{
		Timeout:   defaultTimeout,
		Transport: c,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the configured bearer token.
func (c *Client) Token() string {
	return c.token
}

// WithBearer returns a shallow copy of the client that authenticates with a
// different token. Cache, limiter and metrics are shared.
func (c *Client) WithBearer(token string) *Client {
	cp := *c
	cp.token = token
	cp.client = &http.Client{Timeout: c.client.Timeout, Transport: &cp}
	cp.noRedirect = &http.Client{
		Timeout:       c.noRedirect.Timeout,
		Transport:     &cp,
		CheckRedirect: c.noRedirect.CheckRedirect,
	}
	return &cp
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.transport.RoundTrip(req)
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	URL        string
}

// Location returns the Location header resolved against the request URL.
func (r *Response) Location() string {
	loc := r.Header.Get("Location")
	if loc == "" {
		return ""
	}
	abs, err := rodl.ResolveURI(r.URL, loc)
	if err != nil {
		return loc
	}
	return abs
}

// Links parses the Link headers of the response.
func (r *Response) Links() rodl.Links {
	return rodl.ParseLinks(r.Header.Values("Link"))
}

// ContentType returns the Content-Type header.
func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

// NewRequest builds a request with an optional body and content type.
func (c *Client) NewRequest(ctx context.Context, method, uri string, body []byte, contentType string) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, uri, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// Do performs req following redirects. When expected is not empty any other
// status code is turned into a *rodl.StatusError carrying the response.
func (c *Client) Do(op string, req *http.Request, expected ...int) (*Response, error) {
	return c.do(c.client, op, req, expected)
}

// DoNoRedirect is Do without following redirects. It does not touch the
// shared client, so it is safe to use concurrently with Do.
func (c *Client) DoNoRedirect(op string, req *http.Request, expected ...int) (*Response, error) {
	return c.do(c.noRedirect, op, req, expected)
}

func (c *Client) do(hc *http.Client, op string, req *http.Request, expected []int) (*Response, error) {
	ctx, span := tracer.Start(req.Context(), "Client."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", req.URL.String()),
		),
	)
	defer span.End()
	req = req.WithContext(ctx)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			span.RecordError(err)
			return nil, errors.Wrap(err, "rate limiter")
		}
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.metrics.observe(op, "error", time.Since(start))
		span.RecordError(err)
		return nil, errors.Wrapf(err, "%s: failed to perform request", op)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.WarnContext(
				ctx,
				"failed to close response body",
				slog.String("error", cerr.Error()),
				slog.String("operation", op),
				slog.String("module", "client"),
			)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.observe(op, "error", time.Since(start))
		return nil, errors.Wrapf(err, "%s: failed to read response body", op)
	}
	c.metrics.observe(op, strconv.Itoa(resp.StatusCode), time.Since(start))

	slog.DebugContext(
		ctx,
		"remote call",
		slog.String("operation", op),
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
		slog.Int("status", resp.StatusCode),
		slog.String("module", "client"),
	)

	final := req.URL
	if resp.Request != nil {
		final = resp.Request.URL
	}
	response := &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       body,
		URL:        final.String(),
	}

	if len(expected) > 0 && !contains(expected, resp.StatusCode) {
		return response, NewStatusError(op, response)
	}
	return response, nil
}

// NewStatusError builds the typed error for an unexpected response.
func NewStatusError(op string, resp *Response) *rodl.StatusError {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	body := resp.Body
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &rodl.StatusError{
		Operation:  op,
		StatusCode: resp.StatusCode,
		Reason:     reason,
		Body:       string(body),
	}
}

func contains(codes []int, code int) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
