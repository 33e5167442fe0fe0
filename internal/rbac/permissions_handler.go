package rbac

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rpac/rpac/internal/platform/httpx"
	"github.com/rpac/rpac/internal/shared"
)

// PermissionsHandler manages permission endpoints.
type PermissionsHandler struct {
	logger    *slog.Logger
	service   *Service
	responder *httpx.Responder
	guard     func(http.Handler) http.Handler
	validator *validator.Validate
}

// NewPermissionsHandler builds PermissionsHandler instance. guard may be nil
// when administrative routes are not permission-gated.
func NewPermissionsHandler(logger *slog.Logger, service *Service, responder *httpx.Responder, guard func(http.Handler) http.Handler) *PermissionsHandler {
	return &PermissionsHandler{
		logger:    logger,
		service:   service,
		responder: responder,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.guard != nil {
			r.Use(h.guard)
		}
		r.Post("/create", h.createPermission)
	})
}

func (h *PermissionsHandler) createPermission(w http.ResponseWriter, r *http.Request) {
	var req CreatePermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.responder.RespondError(w, r, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.responder.RespondError(w, r, err)
		return
	}
	perm, err := h.service.CreatePermission(r.Context(), req.Name, req.Description)
	if err != nil {
		h.responder.RespondError(w, r, err)
		return
	}
	h.logger.Info("permission created", slog.Int64("permission_id", perm.ID), slog.String("name", perm.Name))
	httpx.JSON(w, http.StatusCreated, ToPermissionResponse(perm))
}
