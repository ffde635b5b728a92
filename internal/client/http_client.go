package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"catalog-admin/internal/logger"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
)

var HttpClientTracer = otel.Tracer("HttpClient")

// HTTPClient talks JSON to a single backend rooted at baseURL.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	headers map[string]string
}

// RequestOptions describes one request. URL is relative to the base URL unless
// it is absolute.
type RequestOptions struct {
	Method      string
	URL         string
	Headers     map[string]string
	QueryParams map[string]string
	Body        any
	Timeout     time.Duration
}

// StatusError is returned for any response outside the 2xx range. Body is kept
// for diagnostics only.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}

// NewHTTPClient creates a client. A zero timeout leaves requests unbounded
// except by their context.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: map[string]string{"Accept": "application/json"},
	}
}

func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// SetDefaultHeader adds a header sent with every request.
func (c *HTTPClient) SetDefaultHeader(key, value string) {
	c.headers[key] = value
}

// Do performs the request and decodes a JSON response into result when result
// is non-nil and the body is not empty.
func (c *HTTPClient) Do(ctx context.Context, opts RequestOptions, result any) error {
	fullURL, err := c.buildURL(opts.URL, opts.QueryParams)
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}

	var body []byte
	if opts.Body != nil {
		body, err = encodeBody(opts.Body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	ctx, span := HttpClientTracer.Start(ctx, "HttpClient "+opts.Method)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", opts.Method),
		attribute.String("http.url", fullURL),
	)

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, opts.Method, fullURL, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	c.setHeaders(req, opts.Headers, body != nil)
	req.Header.Set("X-Trace-ID", span.SpanContext().TraceID().String())
	req.Header.Set("X-Request-ID", uuid.NewString())

	logger.Info(ctx, "HttpClient", logger.RequestAttrs(logger.OutgoingRequest, req, body)...)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		logger.Error(ctx, "HttpClient request failed",
			slog.String("http.method", req.Method),
			slog.String("http.url", fullURL),
			logger.Err(err),
		)
		return fmt.Errorf("%s %s: %w", opts.Method, fullURL, err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return fmt.Errorf("read response body: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	logger.Info(ctx, "HttpClient",
		logger.ResponseAttrs(logger.OutgoingResponse, req, resp.Header, resp.StatusCode, rawBody, time.Since(start))...)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		return &StatusError{
			Method:     opts.Method,
			URL:        fullURL,
			StatusCode: resp.StatusCode,
			Body:       rawBody,
		}
	}
	span.SetStatus(codes.Ok, "")

	if result == nil || len(bytes.TrimSpace(rawBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(rawBody, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) Get(ctx context.Context, path string, result any, opts ...RequestOptions) error {
	return c.Do(ctx, merge(RequestOptions{Method: http.MethodGet, URL: path}, opts), result)
}

func (c *HTTPClient) Post(ctx context.Context, path string, body, result any, opts ...RequestOptions) error {
	return c.Do(ctx, merge(RequestOptions{Method: http.MethodPost, URL: path, Body: body}, opts), result)
}

func (c *HTTPClient) Delete(ctx context.Context, path string, result any, opts ...RequestOptions) error {
	return c.Do(ctx, merge(RequestOptions{Method: http.MethodDelete, URL: path}, opts), result)
}

func (c *HTTPClient) buildURL(endpoint string, query map[string]string) (string, error) {
	full := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		full = c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	}

	u, err := url.Parse(full)
	if err != nil {
		return "", err
	}
	if len(query) > 0 {
		q := u.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case io.Reader:
		return io.ReadAll(v)
	default:
		return json.Marshal(body)
	}
}

func (c *HTTPClient) setHeaders(req *http.Request, headers map[string]string, hasBody bool) {
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if hasBody && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}

func merge(base RequestOptions, overrides []RequestOptions) RequestOptions {
	if len(overrides) == 0 {
		return base
	}
	o := overrides[0]
	if o.Timeout > 0 {
		base.Timeout = o.Timeout
	}
	if o.Body != nil {
		base.Body = o.Body
	}
	if len(o.Headers) > 0 {
		base.Headers = make(map[string]string, len(o.Headers))
		for k, v := range o.Headers {
			base.Headers[k] = v
		}
	}
	if len(o.QueryParams) > 0 {
		base.QueryParams = make(map[string]string, len(o.QueryParams))
		for k, v := range o.QueryParams {
			base.QueryParams[k] = v
		}
	}
	return base
}
