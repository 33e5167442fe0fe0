package users

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

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	responder *httpx.Responder
	guard     func(http.Handler) http.Handler
	validator *validator.Validate
}

// NewHandler builds Handler instance. guard protects role assignment and may be nil.
func NewHandler(logger *slog.Logger, service *Service, responder *httpx.Responder, guard func(http.Handler) http.Handler) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		responder: responder,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/me", h.me)
	r.Group(func(r chi.Router) {
		if h.guard != nil {
			r.Use(h.guard)
		}
		r.Post("/{user_id}/roles", h.assignRole)
	})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		h.responder.RespondError(w, r, shared.ErrTokenMissing)
		return
	}
	profile, err := h.service.Me(r.Context(), userID)
	if err != nil {
		h.responder.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ProfileResponse{
		UserID:      profile.User.ID,
		Username:    profile.User.Username,
		Email:       profile.User.Email,
		Roles:       profile.Roles,
		Permissions: profile.Permissions,
	})
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil || userID <= 0 {
		h.responder.RespondError(w, r, fmt.Errorf("%w: user_id must be a positive integer", shared.ErrValidation))
		return
	}
	var req AssignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.responder.RespondError(w, r, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.responder.RespondError(w, r, err)
		return
	}
	if req.UserID != nil && *req.UserID != userID {
		h.responder.RespondError(w, r, fmt.Errorf("%w: user_id in body does not match path", shared.ErrValidation))
		return
	}
	result, err := h.service.AssignRole(r.Context(), userID, req.RoleID)
	if err != nil {
		h.responder.RespondError(w, r, err)
		return
	}
	h.logger.Info("role assigned", slog.Int64("user_id", userID), slog.Int64("role_id", req.RoleID))
	httpx.JSON(w, http.StatusOK, UserRolesResponse{Username: result.Username, Roles: result.Roles})
}
