package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rezkam/mono/internal/fanout"
	"github.com/rezkam/mono/internal/http/handler"
	mw "github.com/rezkam/mono/internal/http/middleware"
	"github.com/rezkam/mono/internal/http/openapi"
	"github.com/rezkam/mono/internal/ws"
)

const (
	// DefaultMaxBodyBytes is the default maximum request body size (1MB).
	DefaultMaxBodyBytes = 1 << 20 // 1MB
)

// Config holds configuration for the HTTP router.
type Config struct {
	MaxBodyBytes int64
}

// NewRouter creates and configures the chi router: the jobs/scheduler API
// under /api, the websocket upgrade at /ws, and a liveness probe at
// /health. Authentication and CORS are intentionally not wired here (§0
// scopes those out of the core); a reverse proxy is expected to front this
// service in any deployment that needs them.
func NewRouter(server *handler.Server, fanoutMgr *fanout.Manager, config Config) *chi.Mux {
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(mw.MaxBodyBytes(config.MaxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			slog.ErrorContext(r.Context(), "failed to write health check response", "error", err)
		}
	})

	r.Get("/ws", ws.Handler(fanoutMgr))

	spec, err := openapi.GetSwagger()
	if err != nil {
		slog.Error("failed to load OpenAPI spec for validation", "error", err)
	}
	var validatorMw func(http.Handler) http.Handler
	if spec != nil {
		validatorMw = mw.NewValidator(spec, mw.ValidationConfig{MultiError: true})
	}

	r.Route("/api", func(r chi.Router) {
		if validatorMw != nil {
			r.Use(validatorMw)
		}

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", server.CreateJob)
			r.Get("/", server.ListJobs)
			r.Get("/{jobID}", server.GetJob)
			r.Delete("/{jobID}", server.DeleteJob)
		})

		r.Route("/scheduler", func(r chi.Router) {
			r.Post("/start", server.StartScheduler)
			r.Post("/stop", server.StopScheduler)
			r.Get("/status", server.SchedulerStatus)
			r.Get("/jobs", server.ActiveJobs)
		})
	})

	return r
}
