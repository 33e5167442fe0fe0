package roles

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rpac/rpac/internal/platform/httpx"
	"github.com/rpac/rpac/internal/shared"
)

// Handler manages role management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	responder *httpx.Responder
	guard     func(http.Handler) http.Handler
	validator *validator.Validate
}

// NewHandler builds Handler instance. guard may be nil when administrative
// routes are not permission-gated.
func NewHandler(logger *slog.Logger, service *Service, responder *httpx.Responder, guard func(http.Handler) http.Handler) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		responder: responder,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.guard != nil {
			r.Use(h.guard)
		}
		r.Post("/create", h.createRole)
		r.Post("/{role_id}/permissions", h.assignPermission)
	})
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.responder.RespondError(w, r, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.responder.RespondError(w, r, err)
		return
	}
	role, err := h.service.CreateRole(r.Context(), req.Name, req.Description)
	if err != nil {
		h.responder.RespondError(w, r, err)
		return
	}
	h.logger.Info("role created", slog.Int64("role_id", role.ID), slog.String("name", role.Name))
	httpx.JSON(w, http.StatusCreated, ToRoleResponse(role))
}

func (h *Handler) assignPermission(w http.ResponseWriter, r *http.Request) {
	roleID, err := strconv.ParseInt(chi.URLParam(r, "role_id"), 10, 64)
	if err != nil || roleID <= 0 {
		h.responder.RespondError(w, r, fmt.Errorf("%w: role_id must be a positive integer", shared.ErrValidation))
		return
	}
	var req AssignPermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.responder.RespondError(w, r, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.responder.RespondError(w, r, err)
		return
	}
	if req.RoleID != nil && *req.RoleID != roleID {
		h.responder.RespondError(w, r, fmt.Errorf("%w: role_id in body does not match path", shared.ErrValidation))
		return
	}
	result, err := h.service.AssignPermission(r.Context(), roleID, req.PermissionID)
	if err != nil {
		h.responder.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, RolePermissionsResponse{Role: result.Role, Permissions: result.Permissions})
}
