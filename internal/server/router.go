package server

import (
	"context"
	"log"
	"net/http"

	"github.com/EmpoweredVote/czone-backend/internal/location"
	"github.com/EmpoweredVote/czone-backend/internal/metrics"
	"github.com/EmpoweredVote/czone-backend/internal/middleware"
	"github.com/EmpoweredVote/czone-backend/internal/utils"
	"github.com/EmpoweredVote/czone-backend/internal/zones"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Deps are the process-wide collaborators, built once in main.
type Deps struct {
	Zones zones.Store
	// Resolver is nil when geocoding is not configured.
	Resolver       *location.Resolver
	AllowedOrigins []string
	// Ping reports database health for /healthz. Optional.
	Ping func(ctx context.Context) error
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.CORSMiddleware(d.AllowedOrigins))

	r.Get("/", RootHandler)
	r.Get("/healthz", healthHandler(d.Ping))
	r.Handle("/metrics", metrics.Handler())

	zones.NewHandler(d.Zones).RegisterRoutes(r)
	location.NewHandler(d.Resolver).RegisterRoutes(r)

	return r
}

func RootHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteMessage(w, http.StatusOK, "Hello, World!")
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				log.Printf("[server] health check failed: %v", err)
				utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
