// Package upstream forwards validated requests to the route optimizer. Each
// call is a single attempt bounded by a cancellation deadline; transport
// failures are translated into the gateway's error vocabulary.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"pedalgate/internal/optimizer/metrics"
	"pedalgate/internal/platform/config"
	dErrors "pedalgate/pkg/domain-errors"
	"pedalgate/pkg/platform/middleware/trace"
	"pedalgate/pkg/requestcontext"
)

const maxResponseBytes = 10 << 20

// Request describes one upstream call.
type Request struct {
	Operation string
	Method    string
	Path      string
	Query     url.Values
	Body      any
}

// Client calls the optimizer.
type Client struct {
	cfg     config.Optimizer
	http    *http.Client
	metrics *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithMetrics attaches upstream metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New builds a Client. A zero timeout falls back to 10 seconds.
func New(cfg config.Optimizer, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	c := &Client{
		cfg:  cfg,
		http: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether calls will be attempted.
func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

// Do issues req once. Missing configuration fails with optimizer_unavailable
// before any network activity.
func (c *Client) Do(ctx context.Context, req Request) (resp *Response, err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveUpstream(req.Operation, outcome(resp, err), time.Since(start))
	}()

	if !c.Configured() {
		return nil, dErrors.New(dErrors.CodeOptimizerUnavailable, "route optimizer is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, classify(ctx, err)
	}
	if len(body) > maxResponseBytes {
		return nil, dErrors.New(dErrors.CodeRequestFailed, "route optimizer response exceeds size limit")
	}

	return newResponse(httpResp.StatusCode, httpResp.Header.Get("Content-Type"), body, time.Since(start)), nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := c.cfg.BaseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode upstream payload")
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeRequestFailed, "build upstream request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	httpReq.Header.Set("Accept", "application/json")
	if traceID := requestcontext.TraceID(ctx); traceID != "" {
		httpReq.Header.Set(trace.HeaderTraceID, traceID)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return httpReq, nil
}

// classify maps transport failures: an expired deadline is upstream_timeout,
// anything else is request_failed.
func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeUpstreamTimeout, "route optimizer did not respond in time")
	}
	return dErrors.Wrap(err, dErrors.CodeRequestFailed, "route optimizer request failed")
}

func outcome(resp *Response, err error) string {
	switch {
	case err != nil:
		return string(dErrors.CodeOf(err))
	case resp.OK():
		return "ok"
	default:
		return "upstream_error"
	}
}
