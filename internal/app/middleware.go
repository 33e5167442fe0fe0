package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/unrolled/secure"

	"github.com/rpac/rpac/internal/observability"
	"github.com/rpac/rpac/internal/platform/httpx"
	"github.com/rpac/rpac/internal/shared"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger    *slog.Logger
	Config    *Config
	Responder *httpx.Responder
	Metrics   *observability.Metrics
	// Gate authenticates requests; nil leaves every request anonymous.
	Gate func(http.Handler) http.Handler
}

// MiddlewareStack installs the rpac middleware chain in order.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		SSLRedirect:           cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         cfg.Config == nil || !cfg.Config.IsProduction(),
	})

	timeout := 30 * time.Second
	var origins []string
	if cfg.Config != nil {
		if cfg.Config.AppRequestTimeout > 0 {
			timeout = cfg.Config.AppRequestTimeout
		}
		origins = cfg.Config.CORSOrigins()
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		requestLogger(cfg.Logger),
		recoverer(cfg.Logger, cfg.Responder),
		middleware.Timeout(timeout),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		middleware.Compress(5),
		cors(origins),
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, cfg.Metrics.Middleware)
	}
	if cfg.Gate != nil {
		middlewares = append(middlewares, cfg.Gate, captureIdentity)
	}
	return middlewares
}

type requestMetaKey struct{}

// requestMeta lets inner middleware report facts back to the request logger.
type requestMeta struct {
	userID *int64
}

func captureIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if meta, ok := r.Context().Value(requestMetaKey{}).(*requestMeta); ok {
			meta.userID = shared.IdentityFromContext(r.Context()).UserID
		}
		next.ServeHTTP(w, r)
	})
}

// timingWriter stamps X-Process-Time when the status line is written.
type timingWriter struct {
	http.ResponseWriter
	start       time.Time
	wroteHeader bool
}

func (w *timingWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.Header().Set("X-Process-Time", strconv.FormatFloat(time.Since(w.start).Seconds(), 'f', 6, 64))
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *timingWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

var sensitiveHeaders = map[string]struct{}{
	"Authorization": {},
	"Cookie":        {},
	"Set-Cookie":    {},
	"X-Api-Key":     {},
}

func safeHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		if _, secret := sensitiveHeaders[http.CanonicalHeaderKey(name)]; secret {
			continue
		}
		out[name] = strings.Join(values, ",")
	}
	return out
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			meta := &requestMeta{}
			r = r.WithContext(context.WithValue(r.Context(), requestMetaKey{}, meta))
			ww := middleware.NewWrapResponseWriter(&timingWriter{ResponseWriter: w, start: start}, r.ProtoMajor)

			logger.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Any("headers", safeHeaders(r.Header)),
			)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			}
			if meta.userID != nil {
				attrs = append(attrs, slog.Int64("user_id", *meta.userID))
			}
			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), level, "request completed", attrs...)
		})
	}
}

func recoverer(logger *slog.Logger, responder *httpx.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				logger.Error("panic recovered",
					slog.Any("panic", rvr),
					slog.String("path", r.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)
				if r.Header.Get("Connection") != "Upgrade" {
					responder.RespondError(w, r, fmt.Errorf("panic: %v", rvr))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// cors answers preflight requests and echoes allowed origins. An empty list
// allows nothing. "*" allows any origin without credentials, and entries of
// the form "*.example.com" match that domain and its subdomains.
func cors(allowed []string) func(http.Handler) http.Handler {
	var allowAll bool
	exact := make(map[string]struct{}, len(allowed))
	var suffixes []string
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		switch {
		case origin == "":
		case origin == "*":
			allowAll = true
		case strings.HasPrefix(origin, "*."):
			suffixes = append(suffixes, origin[1:])
		default:
			exact[origin] = struct{}{}
		}
	}
	matches := func(origin string) bool {
		if _, ok := exact[origin]; ok {
			return true
		}
		host := origin
		if i := strings.Index(host, "://"); i >= 0 {
			host = host[i+3:]
		}
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		for _, suffix := range suffixes {
			if strings.HasSuffix(host, suffix) || host == suffix[1:] {
				return true
			}
		}
		return false
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")
			if origin := r.Header.Get("Origin"); origin != "" {
				explicit := matches(origin)
				if explicit || allowAll {
					if explicit {
						h.Set("Access-Control-Allow-Origin", origin)
						h.Set("Access-Control-Allow-Credentials", "true")
					} else {
						h.Set("Access-Control-Allow-Origin", "*")
					}
					h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
					h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
					h.Set("Access-Control-Expose-Headers", "X-Process-Time, X-Request-ID")
					h.Set("Access-Control-Max-Age", "86400")
				}
			}
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
