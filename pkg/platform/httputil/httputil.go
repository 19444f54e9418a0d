// Package httputil holds the JSON envelope helpers shared by every handler.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "pedalgate/pkg/domain-errors"
)

// ErrorResponse is the envelope written for every gateway-level failure.
type ErrorResponse struct {
	Error       string          `json:"error"`
	Description string          `json:"error_description,omitempty"`
	Issues      []dErrors.Issue `json:"issues,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteRaw writes a pre-encoded body verbatim. An empty content type defaults
// to text/plain.
func WriteRaw(w http.ResponseWriter, status int, contentType string, body []byte) {
	if contentType == "" {
		contentType = "text/plain; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// WriteError translates err into the gateway error envelope. Errors that are
// not *dErrors.Error are reported as internal_error without detail.
func WriteError(w http.ResponseWriter, err error) {
	var de *dErrors.Error
	if !errors.As(err, &de) {
		de = dErrors.New(dErrors.CodeInternal, "internal error")
	}

	resp := ErrorResponse{Error: string(de.Code)}
	if !dErrors.IsInternal(de.Code) {
		resp.Description = de.Message
		resp.Issues = de.Issues
	}
	WriteJSON(w, dErrors.HTTPStatus(de.Code), resp)
}
