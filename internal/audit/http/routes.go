package audithttp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/rpac/rpac/internal/shared"
)

const rateLimit = 30
const rateWindow = time.Minute

// MountRoutes registers the auth event listing.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(rateLimit, rateWindow,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			h.responder.RespondError(w, r, shared.ErrRateLimited)
		}),
	)
	r.Group(func(gr chi.Router) {
		if h.guard != nil {
			gr.Use(h.guard)
		}
		gr.Use(limiter)
		gr.Get("/events", h.handleEvents)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if userID, ok := shared.UserIDFromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(userID, 10), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
