package catalog

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"FileCatalog/internal/auth"
	"FileCatalog/pkg/kit"
)

const defaultLoginLimitPerMin = 5

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	Auth             *auth.Server
	LoginLimitPerMin int
	LoginLimitWindow time.Duration

	// TrustForwardedFor keys the login limiter on X-Forwarded-For. Enable only
	// behind a proxy that sets the header.
	TrustForwardedFor bool
}

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	r := chi.NewRouter()

	setupMiddleware(r, deps)
	setupMetrics(r, deps)
	setupRoutes(r, s, deps)

	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func setupRoutes(r *chi.Mux, s *Server, deps HTTPDeps) {
	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)

	r.Get("/products", s.list)
	r.Get("/products/{id}", s.get)

	if deps.Auth == nil {
		return
	}

	limit := deps.LoginLimitPerMin
	if limit <= 0 {
		limit = defaultLoginLimitPerMin
	}
	window := deps.LoginLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	loginLimiter := kit.NewIPRateLimiter(limit, window)
	loginLimiter.TrustForwardedFor = deps.TrustForwardedFor
	r.With(loginLimiter.Middleware).Post("/auth/login", deps.Auth.HandleLogin)

	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireRole(deps.Auth.JWT, auth.RoleAdmin))
		ar.Post("/products", s.create)
		ar.Patch("/products/{id}", s.update)
		ar.Delete("/products/{id}", s.delete)
	})
}
