package health

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pedalgate/pkg/platform/httputil"
)

// Handler serves the aggregate health report.
type Handler struct {
	aggregator *Aggregator
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{aggregator: aggregator}
}

// Register mounts GET /health on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.handleHealth)
}

// handleHealth always answers 200; the body carries the reduced status.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.aggregator.Run(r.Context()))
}
