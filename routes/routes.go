package routes

import (
	"net/http"
	"time"

	"github.com/Dosada05/bracket-engine/handlers"
	"github.com/Dosada05/bracket-engine/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes mounts the API on router. Reads are public; every mutation requires an
// organizer token. gatherer may be nil to leave /metrics unmounted.
func SetupRoutes(
	router chi.Router,
	jwtSecret string,
	tournamentHandler *handlers.TournamentHandler,
	webSocketHandler *handlers.WebSocketHandler,
	gatherer prometheus.Gatherer,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	router.Get("/ws/tournaments/{key}", webSocketHandler.ServeWs)

	router.Route("/tournaments", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Get("/", tournamentHandler.ListTournaments)
		r.Get("/snapshots", tournamentHandler.ListSnapshots)
		r.Get("/{key}", tournamentHandler.GetTournament)
		r.Get("/{key}/export", tournamentHandler.ExportTournament)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize(middleware.RoleOrganizer))

			r.Post("/", tournamentHandler.CreateTournament)
			r.Delete("/{key}", tournamentHandler.DeleteTournament)
			r.Post("/{key}/load", tournamentHandler.LoadTournament)
			r.Put("/{key}/document", tournamentHandler.ImportTournament)
			r.Post("/{key}/restore", tournamentHandler.RestoreTournament)
			r.Post("/{key}/winner", tournamentHandler.RecordWinner)
			r.Post("/{key}/reset", tournamentHandler.ResetTournament)
			r.Post("/{key}/save", tournamentHandler.SaveTournament)
		})
	})
}
