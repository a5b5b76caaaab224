package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/staff-portal/app"
	"github.com/upb/staff-portal/guard"
	"github.com/upb/staff-portal/handlers"
	"github.com/upb/staff-portal/models"
	"github.com/upb/staff-portal/utils"
)

// Route binds a method and pattern to a handler and its access rule
type Route struct {
	Method  string
	Pattern string
	Meta    guard.RouteMetadata
	Handler http.HandlerFunc
}

// Guarder wraps handlers with the access check for a route
type Guarder interface {
	Guard(meta guard.RouteMetadata) func(http.Handler) http.Handler
}

// Table returns every route served by the API. Access rules live only here.
func Table(users *handlers.UserHandler, health *handlers.HealthHandler) []Route {
	admin := guard.RequireRoles(models.RoleAdminUser)

	return []Route{
		{http.MethodGet, "/healthz", guard.Public(), health.HandleHealth},
		{http.MethodGet, "/readyz", guard.Public(), health.HandleReadiness},

		{http.MethodPost, "/api/v1/auth/login", guard.Public(), users.HandleLogin},
		{http.MethodPost, "/api/v1/auth/register", guard.Public(), users.HandleRegister},

		{http.MethodPost, "/api/v1/users", admin, users.HandleCreate},
		{http.MethodGet, "/api/v1/users", admin, users.HandleList},
		{http.MethodGet, "/api/v1/users/me", guard.Authenticated(), users.HandleMe},
		{http.MethodGet, "/api/v1/users/{id}", admin, users.HandleGet},
		{http.MethodPatch, "/api/v1/users/{id}/status", admin, users.HandleUpdateStatus},
		{http.MethodDelete, "/api/v1/users/{id}", admin, users.HandleDelete},
	}
}

// MetricsExporter instruments requests and serves the collected metrics
type MetricsExporter interface {
	Instrument(next http.Handler) http.Handler
	Handler() http.Handler
}

// Options configures the router outside of the route table
type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	// Metrics, when set, instruments every request and is served on /metrics
	Metrics MetricsExporter
}

// NewRouter registers table on a chi router behind the common middleware
func NewRouter(table []Route, access Guarder, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Instrument)
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Access-Token"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	for _, route := range table {
		r.With(access.Guard(route.Meta)).Method(route.Method, route.Pattern, route.Handler)
	}

	if opts.Metrics != nil {
		r.With(access.Guard(guard.Public())).Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}

// SetupRoutes builds the API handler from the application dependencies
func SetupRoutes(deps *app.Dependencies) http.Handler {
	users := handlers.NewUserHandler(deps.UserService, deps.Logger)
	health := handlers.NewHealthHandler(deps.DB, deps.Config.Auth.HasSigningSecret(), deps.Logger)

	opts := Options{
		AllowedOrigins: deps.Config.CORS.AllowedOrigins,
		RequestTimeout: deps.Config.Server.RequestTimeout,
	}
	if deps.Config.Observability.MetricsEnabled {
		opts.Metrics = deps.Metrics
	}

	return NewRouter(Table(users, health), deps.AccessMiddleware, opts)
}
