// Package trace assigns every request a correlation id and echoes it back in
// the X-Trace-Id response header.
package trace

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"pedalgate/pkg/requestcontext"
)

const (
	HeaderTraceID   = "X-Trace-Id"
	HeaderRequestID = "X-Request-Id"

	// MaxIDLength bounds inbound ids; longer values are ignored.
	MaxIDLength = 200
)

// IDSource produces a fresh random identifier.
type IDSource func() (string, error)

// Correlator resolves the trace id for a request.
type Correlator struct {
	newID IDSource
	now   func() time.Time
}

// Option configures a Correlator.
type Option func(*Correlator)

// WithIDSource replaces the random id source.
func WithIDSource(src IDSource) Option {
	return func(c *Correlator) {
		if src != nil {
			c.newID = src
		}
	}
}

// WithClock replaces the clock used by the fallback id.
func WithClock(now func() time.Time) Option {
	return func(c *Correlator) {
		if now != nil {
			c.now = now
		}
	}
}

// New builds a Correlator backed by random UUIDs.
func New(opts ...Option) *Correlator {
	c := &Correlator{
		newID: func() (string, error) {
			id, err := uuid.NewRandom()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve applies the precedence X-Trace-Id, X-Request-Id, random id,
// timestamp fallback.
func (c *Correlator) Resolve(r *http.Request) string {
	for _, h := range []string{HeaderTraceID, HeaderRequestID} {
		if v := usable(r.Header.Get(h)); v != "" {
			return v
		}
	}
	if id, err := c.newID(); err == nil && id != "" {
		return id
	}
	return "trace-" + strconv.FormatInt(c.now().UnixNano(), 36)
}

// Middleware stores the trace id in the request context and response header.
func (c *Correlator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := c.Resolve(r)
		w.Header().Set(HeaderTraceID, traceID)
		ctx := requestcontext.WithTraceID(r.Context(), traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func usable(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > MaxIDLength {
		return ""
	}
	return v
}
