package testutil

import (
	"net/http"

	"pedalgate/pkg/domain"
	"pedalgate/pkg/requestcontext"
)

// WithCaller simulates what the admin middleware does for authorized requests.
func WithCaller(req *http.Request, caller domain.Caller) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}
