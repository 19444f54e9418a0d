package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"pedalgate/internal/optimizer/audit"
	"pedalgate/internal/optimizer/metrics"
	"pedalgate/internal/optimizer/models"
	"pedalgate/internal/optimizer/penalty"
	"pedalgate/internal/optimizer/sanitize"
	"pedalgate/internal/optimizer/upstream"
	dErrors "pedalgate/pkg/domain-errors"
	"pedalgate/pkg/requestcontext"
)

// Forwarder performs one upstream optimizer call.
type Forwarder interface {
	Do(ctx context.Context, req upstream.Request) (*upstream.Response, error)
}

// Recorder persists audit rows. Implementations never surface errors.
type Recorder interface {
	RecordRun(ctx context.Context, run audit.Run)
	RecordDecision(ctx context.Context, decision audit.Decision)
}

// Upstream operation names, also used as metric labels.
const (
	OpHealth   = "health"
	OpAudit    = "audit"
	OpOptimize = "optimize"
	OpDecision = "decision"
)

// Service orchestrates optimizer calls: forwarding under deadline, penalty
// generation and best-effort audit.
type Service struct {
	forwarder Forwarder
	recorder  Recorder
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches optimizer metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(forwarder Forwarder, recorder Recorder, opts ...Option) *Service {
	s := &Service{
		forwarder: forwarder,
		recorder:  recorder,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Health relays the optimizer's own health endpoint.
func (s *Service) Health(ctx context.Context) (*upstream.Response, error) {
	return s.forwarder.Do(ctx, upstream.Request{
		Operation: OpHealth,
		Method:    http.MethodGet,
		Path:      "/health",
	})
}

// TokenAudit relays the optimizer's token audit listing.
func (s *Service) TokenAudit(ctx context.Context, limit int) (*upstream.Response, error) {
	return s.forwarder.Do(ctx, upstream.Request{
		Operation: OpAudit,
		Method:    http.MethodGet,
		Path:      "/audit",
		Query:     url.Values{"limit": {strconv.Itoa(limit)}},
	})
}

// Penalties builds the edge penalty matrix locally.
func (s *Service) Penalties(ctx context.Context, locs []models.Location, prefs *models.Preferences) ([][]float64, error) {
	matrix, err := penalty.Generate(locs, prefs)
	s.metrics.IncrementPenaltyGeneration(err)
	if err != nil {
		s.logger.ErrorContext(ctx, "penalty generation failed",
			"trace_id", requestcontext.TraceID(ctx),
			"location_count", len(locs),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodePenaltyGenerationFailed, "failed to generate edge penalties")
	}
	return matrix, nil
}

// Optimize forwards req and records exactly one run row, whatever the
// outcome.
func (s *Service) Optimize(ctx context.Context, req *models.OptimizeRequest) (*upstream.Response, error) {
	start := time.Now()
	resp, err := s.forwarder.Do(ctx, upstream.Request{
		Operation: OpOptimize,
		Method:    http.MethodPost,
		Path:      "/optimize",
		Body:      req,
	})

	run := audit.Run{
		TraceID:        requestcontext.TraceID(ctx),
		UserID:         requestcontext.Caller(ctx).UserID,
		RequestSummary: sanitize.Request(req),
		DurationMs:     time.Since(start).Milliseconds(),
		LocationCount:  len(req.Locations),
		StartIndex:     req.StartIndex,
	}
	switch {
	case err != nil:
		run.Status = audit.StatusError
		run.ErrorCode = string(dErrors.CodeOf(err))
	case resp.OK():
		run.Status = audit.StatusSuccess
	default:
		run.Status = audit.StatusError
		run.ErrorCode = upstreamStatusCode(resp.Status)
	}
	if resp != nil && resp.Kind == upstream.BodyJSON {
		run.ResponseSummary = sanitize.Response(resp.JSON)
	}
	s.recorder.RecordRun(ctx, run)

	if err != nil {
		s.logger.WarnContext(ctx, "route optimization failed",
			"trace_id", run.TraceID,
			"code", run.ErrorCode,
			"duration_ms", run.DurationMs,
		)
		return nil, err
	}
	s.logger.InfoContext(ctx, "route optimization completed",
		"trace_id", run.TraceID,
		"status", resp.Status,
		"location_count", run.LocationCount,
		"duration_ms", run.DurationMs,
	)
	return resp, nil
}

// Decide forwards an admin decision and records one decision row. The row is
// keyed by the body trace id when given so it links to the judged run.
func (s *Service) Decide(ctx context.Context, req *models.DecisionRequest) (*upstream.Response, error) {
	resp, err := s.forwarder.Do(ctx, upstream.Request{
		Operation: OpDecision,
		Method:    http.MethodPost,
		Path:      "/decision",
		Body:      req,
	})

	requestTraceID := requestcontext.TraceID(ctx)
	traceID := req.TraceID
	if traceID == "" {
		traceID = requestTraceID
	}
	caller := requestcontext.Caller(ctx)
	decision := audit.Decision{
		TraceID:        traceID,
		RequestTraceID: requestTraceID,
		UserID:         caller.UserID,
		AdminID:        caller.ActingAdmin(),
		Action:         string(req.Action),
		Route:          sanitize.Route(req.Route),
	}
	if len(req.Metadata) > 0 {
		decision.Metadata = req.Metadata
	}
	s.recorder.RecordDecision(ctx, decision)

	if err != nil {
		s.logger.WarnContext(ctx, "route decision forward failed",
			"trace_id", requestTraceID,
			"action", req.Action,
			"code", dErrors.CodeOf(err),
		)
		return nil, err
	}
	return resp, nil
}

func upstreamStatusCode(status int) string {
	return fmt.Sprintf("upstream_status_%d", status)
}
