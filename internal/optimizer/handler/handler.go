package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pedalgate/internal/optimizer/models"
	"pedalgate/internal/optimizer/upstream"
	dErrors "pedalgate/pkg/domain-errors"
	"pedalgate/pkg/platform/httputil"
	"pedalgate/pkg/platform/validation"
	"pedalgate/pkg/requestcontext"
)

// Service defines the optimizer operations exposed over HTTP.
type Service interface {
	Health(ctx context.Context) (*upstream.Response, error)
	TokenAudit(ctx context.Context, limit int) (*upstream.Response, error)
	Penalties(ctx context.Context, locs []models.Location, prefs *models.Preferences) ([][]float64, error)
	Optimize(ctx context.Context, req *models.OptimizeRequest) (*upstream.Response, error)
	Decide(ctx context.Context, req *models.DecisionRequest) (*upstream.Response, error)
}

// Route paths relative to the /optimize mount point, with the methods each
// accepts. The router uses this table to answer preflight requests.
var Routes = map[string][]string{
	"/health":    {http.MethodGet},
	"/audit":     {http.MethodGet},
	"/penalties": {http.MethodPost},
	"/route":     {http.MethodPost},
	"/decision":  {http.MethodPost},
}

// Handler serves the /optimize endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a new optimizer Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register registers the optimizer routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Get("/audit", h.handleAudit)
	r.Post("/penalties", h.handlePenalties)
	r.Post("/route", h.handleRoute)
	r.Post("/decision", h.handleDecision)
}

type penaltiesResponse struct {
	EdgePenalties [][]float64 `json:"edge_penalties"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Health(r.Context())
	h.relay(w, r, resp, err)
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit, err := parseAuditLimit(r.URL.Query().Get("limit"))
	if err != nil {
		h.reject(w, r, err)
		return
	}
	resp, err := h.service.TokenAudit(r.Context(), limit)
	h.relay(w, r, resp, err)
}

func (h *Handler) handlePenalties(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[PenaltyRequest](w, r, h.logger, validation.MaxPenaltyBytes)
	if !ok {
		return
	}
	matrix, err := h.service.Penalties(r.Context(), req.Locations, req.Preferences)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, penaltiesResponse{EdgePenalties: matrix})
}

func (h *Handler) handleRoute(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[RouteRequest](w, r, h.logger, validation.MaxRouteBytes)
	if !ok {
		return
	}
	resp, err := h.service.Optimize(r.Context(), req.Optimize())
	h.relay(w, r, resp, err)
}

func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[DecisionRequest](w, r, h.logger, validation.MaxDecisionBytes)
	if !ok {
		return
	}
	resp, err := h.service.Decide(r.Context(), req.Decision())
	h.relay(w, r, resp, err)
}

// relay writes the upstream status and body verbatim, or the error envelope.
func (h *Handler) relay(w http.ResponseWriter, r *http.Request, resp *upstream.Response, err error) {
	if err != nil {
		h.logger.WarnContext(r.Context(), "optimizer call failed",
			"trace_id", requestcontext.TraceID(r.Context()),
			"path", r.URL.Path,
			"code", dErrors.CodeOf(err),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	contentType := resp.ContentType
	if resp.Kind == upstream.BodyJSON {
		contentType = "application/json"
	}
	httputil.WriteRaw(w, resp.Status, contentType, resp.Body())
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.WarnContext(r.Context(), "request rejected",
		"trace_id", requestcontext.TraceID(r.Context()),
		"path", r.URL.Path,
		"code", dErrors.CodeOf(err),
	)
	httputil.WriteError(w, err)
}
