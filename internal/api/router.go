package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/riandyrn/otelchi"
	otelchimetric "github.com/riandyrn/otelchi/metric"
	"go.opentelemetry.io/otel"

	"github.com/pantrychef/recipegen/internal/middleware"
	"github.com/pantrychef/recipegen/internal/sentry"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	ServiceName    string
	AllowedOrigins []string
	// Auth mounts the job routes when non-nil.
	Auth *middleware.AuthConfig
	// StaticDir is served at /static when set.
	StaticDir string
}

// NewRouter mounts every endpoint of srv.
func NewRouter(srv *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(sentry.HTTPMiddleware)

	r.Use(otelchi.Middleware(opts.ServiceName,
		otelchi.WithChiRoutes(r),
		otelchi.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health"
		}),
	))

	// HTTP metrics
	metricCfg := otelchimetric.NewBaseConfig(opts.ServiceName, otelchimetric.WithMeterProvider(otel.GetMeterProvider()))
	r.Use(otelchimetric.NewRequestDurationMillis(metricCfg))
	r.Use(otelchimetric.NewRequestInFlight(metricCfg))
	r.Use(otelchimetric.NewResponseSizeBytes(metricCfg))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", srv.HandleHealth)
	r.Post("/generate", srv.HandleGenerate)
	r.Post("/detect-ingredients", srv.HandleDetectIngredients)

	if opts.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir))))
	}

	if opts.Auth != nil && srv.jobs != nil && srv.queue != nil {
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(*opts.Auth))
			r.Post("/api/generate-jobs", srv.HandleCreateJob)
			r.Get("/api/generate-jobs", srv.HandleListJobs)
			r.Get("/api/generate-jobs/{id}", srv.HandleGetJob)
		})
	}

	return r
}
