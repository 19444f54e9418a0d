package httputil

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "pedalgate/pkg/domain-errors"
	"pedalgate/pkg/platform/validation"
	"pedalgate/pkg/requestcontext"
)

// ReadBody reads the request body, bounded by validation.MaxTransportBytes.
func ReadBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, validation.MaxTransportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, dErrors.New(dErrors.CodePayloadTooLarge, "payload exceeds transport limit")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidJSON, "failed to read request body")
	}
	return body, nil
}

// DecodeAndPrepare reads, decodes and validates a request body into T. On
// failure it writes the error envelope and returns false.
func DecodeAndPrepare[T any, PT interface {
	*T
	validation.Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, maxBytes int) (PT, bool) {
	ctx := r.Context()
	traceID := requestcontext.TraceID(ctx)

	fail := func(err error) (PT, bool) {
		logger.WarnContext(ctx, "request rejected",
			"trace_id", traceID,
			"path", r.URL.Path,
			"code", dErrors.CodeOf(err),
			"error", err,
		)
		WriteError(w, err)
		return nil, false
	}

	raw, err := ReadBody(w, r)
	if err != nil {
		return fail(err)
	}

	req := PT(new(T))
	if err := validation.Decode(raw, maxBytes, req); err != nil {
		return fail(err)
	}
	if err := req.Validate(); err != nil {
		return fail(err)
	}
	return req, true
}
