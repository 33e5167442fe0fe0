package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/rpac/rpac/internal/audit"
	audithttp "github.com/rpac/rpac/internal/audit/http"
	"github.com/rpac/rpac/internal/auth"
	"github.com/rpac/rpac/internal/memstore"
	"github.com/rpac/rpac/internal/observability"
	"github.com/rpac/rpac/internal/platform/cache"
	"github.com/rpac/rpac/internal/platform/db"
	"github.com/rpac/rpac/internal/platform/httpx"
	"github.com/rpac/rpac/internal/rbac"
	"github.com/rpac/rpac/internal/roles"
	"github.com/rpac/rpac/internal/shared"
	"github.com/rpac/rpac/internal/users"
	"github.com/rpac/rpac/jobs"
)

var (
	errRouteNotFound    = fmt.Errorf("route: %w", shared.ErrNotFound)
	errMethodNotAllowed = shared.ErrMethodNotAllowed
)

// Stores bundles the credential store ports.
type Stores struct {
	Users       users.RepositoryPort
	Roles       roles.RepositoryPort
	Permissions rbac.RepositoryPort
}

// Services exposes the domain services built by Wire.
type Services struct {
	Auth        *auth.Service
	Users       *users.Service
	Roles       *roles.Service
	Permissions *rbac.Service
}

// Container owns every long-lived dependency of the HTTP server.
type Container struct {
	Config   *Config
	Logger   *slog.Logger
	Router   http.Handler
	Stores   Stores
	Services Services
	Metrics  *observability.Metrics

	closers []func()
}

// Close releases pools and clients in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Wire builds the application graph from configuration. Connections to
// PostgreSQL and Redis are opened only when the configuration needs them.
func Wire(ctx context.Context, cfg *Config, logger *slog.Logger) (*Container, error) {
	if cfg == nil {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = slog.Default()
	}
	tokens, err := auth.NewTokenService([]byte(cfg.AuthSecret), cfg.AuthTokenTTL)
	if err != nil {
		return nil, err
	}
	c := &Container{Config: cfg, Logger: logger, Metrics: observability.NewMetrics()}
	checks := map[string]HealthCheck{}

	var (
		stores Stores
		pool   *pgxpool.Pool
	)
	switch cfg.StoreDriver {
	case StoreDriverMemory:
		mem := memstore.New()
		stores = Stores{Users: mem, Roles: mem, Permissions: mem}
	default:
		if cfg.DBMigrate {
			if err := db.Migrate(ctx, cfg.PGDSN); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		pool, err = db.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, pool.Close)
		checks["postgres"] = func(ctx context.Context) error { return pool.Ping(ctx) }
		stores = Stores{
			Users:       users.NewRepository(pool),
			Roles:       roles.NewRepository(pool),
			Permissions: rbac.NewRepository(pool),
		}
	}

	var redisClient *redis.Client
	if cfg.AuthCheckSubject {
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("subject cache disabled", slog.Any("error", err))
		} else {
			redisClient = client
			c.closers = append(c.closers, func() { _ = client.Close() })
			checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		}
	}

	var sink audit.Sink = audit.LogSink{Logger: logger}
	var jobHandler *jobs.Handler
	if cfg.AuditEnabled {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		client := jobs.NewClient(redisOpts, c.Metrics)
		inspector := asynq.NewInspector(redisOpts)
		c.closers = append(c.closers, func() {
			_ = client.Close()
			_ = inspector.Close()
		})
		sink = client
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	c.Stores = stores
	c.Services = buildServices(cfg, logger, stores, tokens, sink)
	responder := &httpx.Responder{Logger: logger, IncludeDetails: !cfg.IsProduction()}

	gateOpts := []auth.GateOption{auth.WithDecisionRecorder(c.Metrics), auth.WithGateLogger(logger)}
	if cfg.AuthCheckSubject {
		gateOpts = append(gateOpts, auth.WithSubjectVerifier(
			auth.NewSubjectChecker(stores.Users, redisClient, cfg.AuthSubjectCacheTTL, logger)))
	}
	gate := auth.NewGate(auth.PublicPaths{Exact: cfg.PublicPaths(), Prefixes: cfg.PublicPrefixes()}, tokens, responder, gateOpts...)

	var guard func(http.Handler) http.Handler
	rbacMW := rbac.Middleware{Resolver: c.Services.Permissions, Logger: logger, Responder: responder}
	if cfg.RBACEnforce {
		guard = rbacMW.RequireAny(rbac.PermissionManage)
	}

	var auditHandler *audithttp.Handler
	if pool != nil {
		auditHandler = audithttp.NewHandler(logger, audit.NewService(audit.NewRepository(pool)), responder,
			rbacMW.RequireAny(rbac.PermissionManage))
	}

	c.Router = NewRouter(RouterParams{
		Logger:             logger,
		Config:             cfg,
		Responder:          responder,
		Gate:               gate.Middleware,
		AuthHandler:        auth.NewHandler(logger, c.Services.Auth, responder, cfg.LoginRateLimit),
		UsersHandler:       users.NewHandler(logger, c.Services.Users, responder, guard),
		RolesHandler:       roles.NewHandler(logger, c.Services.Roles, responder, guard),
		PermissionsHandler: rbac.NewPermissionsHandler(logger, c.Services.Permissions, responder, guard),
		AuditHandler:       auditHandler,
		JobHandler:         jobHandler,
		Metrics:            c.Metrics,
		HealthChecks:       checks,
	})
	return c, nil
}

func buildServices(cfg *Config, logger *slog.Logger, stores Stores, tokens *auth.TokenService, sink audit.Sink) Services {
	permissions := rbac.NewService(stores.Permissions)
	roleService := roles.NewService(stores.Roles, permissions)
	userService := users.NewService(stores.Users, roleService, permissions)
	authService := auth.NewService(stores.Users, auth.NewHasher(cfg.BcryptCost), tokens, sink, logger)
	return Services{Auth: authService, Users: userService, Roles: roleService, Permissions: permissions}
}

// ErrNotConfigured is returned when Wire is given no configuration.
var ErrNotConfigured = errors.New("app: configuration missing")
