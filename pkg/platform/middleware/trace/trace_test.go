package trace

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pedalgate/pkg/requestcontext"
)

func TestResolvePrecedence(t *testing.T) {
	c := New()

	t.Run("trace header wins", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(HeaderTraceID, "abc-123")
		r.Header.Set(HeaderRequestID, "req-9")
		assert.Equal(t, "abc-123", c.Resolve(r))
	})

	t.Run("request id used when trace header absent", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(HeaderRequestID, " req-9 ")
		assert.Equal(t, "req-9", c.Resolve(r))
	})

	t.Run("oversized header is ignored", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(HeaderTraceID, strings.Repeat("x", MaxIDLength+1))
		r.Header.Set(HeaderRequestID, "req-9")
		assert.Equal(t, "req-9", c.Resolve(r))
	})

	t.Run("generates uuid when no header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		_, err := uuid.Parse(c.Resolve(r))
		assert.NoError(t, err)
	})

	t.Run("falls back to timestamp without random source", func(t *testing.T) {
		fixed := time.Unix(1700000000, 0)
		broken := New(
			WithIDSource(func() (string, error) { return "", errors.New("no entropy") }),
			WithClock(func() time.Time { return fixed }),
		)
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		id := broken.Resolve(r)
		assert.True(t, strings.HasPrefix(id, "trace-"))
		assert.Equal(t, id, broken.Resolve(r), "fallback is deterministic for a fixed clock")
	})
}

func TestMiddlewarePropagates(t *testing.T) {
	var seen string
	h := New().Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.TraceID(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderTraceID, "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderTraceID))
}
