package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aryan0dhankhar/travellistings/internal/observability/metrics"
	"github.com/aryan0dhankhar/travellistings/internal/security/audit"
	"github.com/aryan0dhankhar/travellistings/internal/security/auth"
	"github.com/aryan0dhankhar/travellistings/internal/security/middleware"
	"github.com/aryan0dhankhar/travellistings/internal/security/ratelimit"
)

const maxBodyBytes = 1 << 20

// RouterConfig carries everything the HTTP surface is assembled from
type RouterConfig struct {
	Auth     *AuthHandler
	Listings *ListingHandler
	Bookings *BookingHandler
	Reviews  *ReviewHandler
	Health   *HealthHandler

	Tokens         *auth.TokenManager
	Limiter        *ratelimit.Limiter
	Audit          *audit.Logger
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter builds the chi router for the API
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(metrics.HTTPMetricsMiddleware)
	r.Use(middleware.RejectTraversal(log))

	r.Get("/healthz", cfg.Health.Health)
	r.Get("/readyz", cfg.Health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.LimitBody(maxBodyBytes))
		r.Use(middleware.ValidateJSONContentType(log))
		r.Use(middleware.Authenticate(cfg.Tokens, log))
		if cfg.Limiter != nil {
			r.Use(middleware.RateLimit(cfg.Limiter, log))
		}
		r.Use(middleware.AuditMutations(cfg.Audit))

		requireAuth := middleware.RequireAuth(cfg.Audit)

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if cfg.Limiter != nil {
					r.Use(middleware.StrictRateLimit(cfg.Limiter, 10, time.Minute))
				}
				r.Post("/register", cfg.Auth.Register)
				r.Post("/login", cfg.Auth.Login)
			})
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/change-password", cfg.Auth.ChangePassword)
				r.Delete("/account", cfg.Auth.DeleteAccount)
			})
		})

		r.Get("/search", cfg.Listings.Search)

		r.Route("/listings", func(r chi.Router) {
			r.Get("/", cfg.Listings.List)
			r.With(requireAuth).Post("/", cfg.Listings.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.Listings.Get)
				r.Get("/reviews", cfg.Listings.Reviews)
				r.Get("/availability", cfg.Listings.Availability)
				r.Get("/rating", cfg.Listings.Rating)
				r.Group(func(r chi.Router) {
					r.Use(requireAuth)
					r.Patch("/", cfg.Listings.Update)
					r.Delete("/", cfg.Listings.Deactivate)
					r.Get("/bookings", cfg.Listings.Bookings)
				})
			})
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", cfg.Bookings.List)
			r.Post("/", cfg.Bookings.Create)
			r.Post("/bulk", cfg.Bookings.Bulk)
			r.Get("/{id}", cfg.Bookings.Get)
			r.Post("/{id}/{action}", cfg.Bookings.Transition)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", cfg.Reviews.List)
			// anonymous callers get the policy's 403 rather than 401
			r.Post("/", cfg.Reviews.Create)
			r.Get("/{id}", cfg.Reviews.Get)
			r.With(requireAuth).Delete("/{id}", cfg.Reviews.Deactivate)
		})
	})

	return otelhttp.NewHandler(r, "travellistings.http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
