package httptransport

import (
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"pedalgate/pkg/platform/middleware/accesslog"
	"pedalgate/pkg/platform/middleware/auth"
	"pedalgate/pkg/platform/middleware/requesttime"
	"pedalgate/pkg/platform/middleware/trace"
)

// Module is a handler group mounted under a path prefix. Routes lists the
// methods accepted per sub-path and drives preflight answers.
type Module struct {
	Prefix   string
	Register func(r chi.Router)
	Routes   map[string][]string
}

// Deps are the collaborators the router needs.
type Deps struct {
	Logger     *slog.Logger
	Correlator *trace.Correlator
	Callers    auth.CallerProvider
	AdminRoles []string
	CORSOrigin string
	Metrics    http.Handler
	Modules    []Module
}

const allowedHeaders = "Authorization, Content-Type, X-Trace-Id, X-Request-Id"

// NewRouter wires the middleware chain and mounts every module behind the
// admin check. Preflight requests and /metrics bypass the check.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requesttime.Middleware)
	r.Use(d.Correlator.Middleware)
	r.Use(accesslog.Middleware(d.Logger))
	r.Use(cors(d.CORSOrigin))

	table := make(map[string]http.HandlerFunc)
	for _, m := range d.Modules {
		for path, methods := range m.Routes {
			table[m.Prefix+path] = preflight(methods)
		}
	}
	r.Use(answerPreflight(table))

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin(d.Callers, d.AdminRoles, d.Logger))
		for _, m := range d.Modules {
			if m.Prefix == "" {
				m.Register(r)
				continue
			}
			r.Route(m.Prefix, m.Register)
		}
	})
	return r
}

func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Expose-Headers", trace.HeaderTraceID)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// answerPreflight replies to OPTIONS on known paths before any auth runs.
func answerPreflight(table map[string]http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				if h, ok := table[strings.TrimSuffix(r.URL.Path, "/")]; ok {
					h(w, r)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func preflight(methods []string) http.HandlerFunc {
	allowed := append([]string{http.MethodOptions}, methods...)
	sort.Strings(allowed)
	allow := strings.Join(allowed, ", ")
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", allow)
		w.Header().Set("Access-Control-Allow-Methods", allow)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
		w.WriteHeader(http.StatusNoContent)
	}
}
