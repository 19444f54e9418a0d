package health

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"pedalgate/pkg/requestcontext"
)

const defaultCheckTimeout = 5 * time.Second

// Aggregator runs every check concurrently and reduces the results.
type Aggregator struct {
	checks  []Check
	primary string
	timeout time.Duration
	logger  *slog.Logger
	gauge   *prometheus.GaugeVec
	now     func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTimeout bounds each individual check.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRegisterer exports a per-check gauge (1 ok, 0 error) on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(a *Aggregator) {
		a.gauge = promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "pedalgate_health_check_up",
			Help: "Result of the last health check by name (1 ok, 0 error)",
		}, []string{"check"})
	}
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAggregator creates an aggregator over checks. primary names the check
// whose failure makes the gateway down.
func NewAggregator(primary string, checks []Check, opts ...Option) *Aggregator {
	a := &Aggregator{
		checks:  checks,
		primary: primary,
		timeout: defaultCheckTimeout,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes all checks. It never fails; individual failures are reported
// in the result list.
func (a *Aggregator) Run(ctx context.Context) Report {
	results := make([]Result, len(a.checks))

	var g errgroup.Group
	for i, check := range a.checks {
		i, check := i, check
		g.Go(func() error {
			results[i] = a.runOne(ctx, check)
			return nil
		})
	}
	_ = g.Wait()

	return Report{
		Status:    Reduce(a.primary, results),
		Checks:    results,
		Timestamp: a.now().UTC(),
	}
}

func (a *Aggregator) runOne(ctx context.Context, check Check) Result {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	result := Result{Name: check.Name(), Status: CheckOK}
	err := check.Run(ctx)
	if err != nil {
		result.Status = CheckError
		result.Message = err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			result.Message = "check timed out"
		}
		a.logger.WarnContext(ctx, "health check failed",
			"check", result.Name,
			"trace_id", requestcontext.TraceID(ctx),
			"error", err,
		)
	}
	if a.gauge != nil {
		up := 1.0
		if err != nil {
			up = 0
		}
		a.gauge.WithLabelValues(result.Name).Set(up)
	}
	return result
}
