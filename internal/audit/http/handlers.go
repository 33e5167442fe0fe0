package audithttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rpac/rpac/internal/audit"
	"github.com/rpac/rpac/internal/platform/httpx"
)

// EventService defines the business contract for listing auth events.
type EventService interface {
	Recent(ctx context.Context, f audit.Filters) ([]audit.Event, error)
}

// Handler serves the auth event listing.
type Handler struct {
	logger    *slog.Logger
	service   EventService
	responder *httpx.Responder
	guard     func(http.Handler) http.Handler
}

// NewHandler builds the audit handler. guard may be nil.
func NewHandler(logger *slog.Logger, service EventService, responder *httpx.Responder, guard func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, responder: responder, guard: guard}
}

type eventsResponse struct {
	Events []audit.Event `json:"events"`
	Page   int           `json:"page"`
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	filters := audit.Filters{
		Username: q.Get("username"),
		Kind:     audit.Kind(q.Get("kind")),
		Page:     page,
		PageSize: pageSize,
	}
	events, err := h.service.Recent(r.Context(), filters)
	if err != nil {
		h.responder.RespondError(w, r, err)
		return
	}
	if page <= 0 {
		page = 1
	}
	httpx.JSON(w, http.StatusOK, eventsResponse{Events: events, Page: page})
}
