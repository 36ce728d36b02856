package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"terraincore/cmd/terrain-service/metrics"
	"terraincore/internal/logging"
)

// NewRouter assembles the demo's chi router: request-id/logging/recoverer
// middleware, CORS, Prometheus metrics, and the worlds/admin/notifications
// routes, following the layout of the teacher's game-server main.go.
func NewRouter(handler *Handler, notifier *Notifier, m *metrics.Metrics, adminSigningKey []byte, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(logging.Middleware)
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if m != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if strings.HasSuffix(r.URL.Path, "/notifications") {
					next.ServeHTTP(w, r)
					return
				}
				m.Middleware(next).ServeHTTP(w, r)
			})
		})
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Post("/worlds", handler.CreateWorld)
	r.Route("/worlds/{id}", func(r chi.Router) {
		r.Get("/snapshot", handler.GetSnapshot)
		r.Get("/path", handler.GetPath)
		r.Get("/pick", handler.GetPick)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(AdminMiddleware(adminSigningKey))
		r.Post("/regenerate/{id}", handler.RegenerateWorld)
	})

	r.Get("/worlds/{id}/notifications", func(w http.ResponseWriter, r *http.Request) {
		worldID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid world id")
			return
		}
		notifier.ServeWS(w, r, worldID)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}
