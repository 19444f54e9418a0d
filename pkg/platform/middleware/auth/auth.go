package auth

import (
	"log/slog"
	"net/http"

	"pedalgate/pkg/domain"
	dErrors "pedalgate/pkg/domain-errors"
	"pedalgate/pkg/platform/httputil"
	"pedalgate/pkg/requestcontext"
)

// CallerProvider resolves the identity behind a request. It is the only
// coupling between handlers and the identity provider.
type CallerProvider interface {
	Caller(r *http.Request) (domain.Caller, error)
}

// CallerFunc adapts a function to CallerProvider.
type CallerFunc func(r *http.Request) (domain.Caller, error)

func (f CallerFunc) Caller(r *http.Request) (domain.Caller, error) {
	return f(r)
}

// RequireAdmin rejects requests whose caller cannot be resolved or does not
// hold one of the admin roles. Every rejection is a 401 unauthorized.
func RequireAdmin(provider CallerProvider, adminRoles []string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			traceID := requestcontext.TraceID(ctx)

			caller, err := provider.Caller(r)
			if err != nil || caller.IsZero() {
				logger.WarnContext(ctx, "unauthorized access - caller not resolved",
					"error", err,
					"trace_id", traceID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin authorization required"))
				return
			}
			if !caller.HasRole(adminRoles) {
				logger.WarnContext(ctx, "unauthorized access - caller lacks admin role",
					"user_id", caller.UserID,
					"role", caller.Role,
					"trace_id", traceID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin authorization required"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithCaller(ctx, caller)))
		})
	}
}
