package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/rpac/rpac/internal/audit"
	"github.com/rpac/rpac/internal/platform/httpx"
	"github.com/rpac/rpac/internal/shared"
	"github.com/rpac/rpac/internal/users"
)

// DefaultRateLimit is the number of login/register attempts allowed per IP per minute.
const DefaultRateLimit = 20

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	responder *httpx.Responder
	validator *validator.Validate
	rateLimit int
}

// NewHandler constructs a Handler instance. A non-positive rateLimit disables limiting.
func NewHandler(logger *slog.Logger, service *Service, responder *httpx.Responder, rateLimit int) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		responder: responder,
		validator: validator.New(),
		rateLimit: rateLimit,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.rateLimit > 0 {
			r.Use(httprate.Limit(h.rateLimit, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					h.responder.RespondError(w, r, shared.ErrRateLimited)
				}),
			))
		}
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.responder.RespondError(w, r, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.responder.RespondError(w, r, err)
		return
	}
	user, err := h.service.Register(r.Context(), RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Source:   audit.SourceFromRequest(r),
	})
	if err != nil {
		h.responder.RespondError(w, r, err)
		return
	}
	h.logger.Info("user registered", slog.Int64("user_id", user.ID), slog.String("username", user.Username))
	httpx.JSON(w, http.StatusCreated, users.ToUserResponse(user))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.responder.RespondError(w, r, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.responder.RespondError(w, r, err)
		return
	}
	token, err := h.service.Login(r.Context(), LoginInput{
		Username: req.Username,
		Password: req.Password,
		Source:   audit.SourceFromRequest(r),
	})
	if err != nil {
		h.responder.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
	})
}
