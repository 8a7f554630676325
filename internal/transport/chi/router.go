package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kailas-cloud/inquirydesk/internal/metrics"
)

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	APIPrefix        string
	APIKeys          []string
	AllowedOrigins   []string
	AllowCredentials bool
}

// NewRouter mounts the server handlers with the middleware stack.
// Inquiry routes live under APIPrefix; "/", "/health" and "/metrics" stay at the root.
func NewRouter(s *Server, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(BearerAuthMiddleware(cfg.APIKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})

	r.Get("/", s.Root)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route(cfg.APIPrefix, func(r chi.Router) {
		r.Post("/process", s.ProcessInquiry)
		r.Post("/process/", s.ProcessInquiry)
		r.Route("/inquiries", func(r chi.Router) {
			r.Post("/create", s.CreateInquiry)
			r.Get("/all", s.ListInquiries)
			r.Delete("/reset/all", s.ResetInquiries)
			r.Get("/{id}", s.GetInquiry)
			r.Delete("/{id}", s.DeleteInquiry)
		})
	})

	return r
}
