package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/people-api/backend/internal/handler/events"
	"github.com/zhouzirui/people-api/backend/internal/handler/people"
	middlewarePkg "github.com/zhouzirui/people-api/backend/internal/middleware"
	"github.com/zhouzirui/people-api/backend/internal/service/directory"
	"github.com/zhouzirui/people-api/backend/internal/service/feed"
	"github.com/zhouzirui/people-api/backend/pkg/utils"
)

// Options tunes router wiring.
type Options struct {
	AllowedOrigins []string
	FeedBuffer     int
}

// NewRouter wires HTTP routes to core services. hub may be nil, in which
// case the change-feed routes are not registered.
func NewRouter(dir *directory.Service, hub *feed.Hub, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.NewCORS(opts.AllowedOrigins))

	peopleHandler := people.New(dir)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"people": dir.Len(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		// Register people routes
		peopleHandler.RegisterRoutes(api)

		// Change feed over SSE and WebSocket
		if hub != nil {
			events.New(hub, opts.FeedBuffer, opts.AllowedOrigins).RegisterRoutes(api)
		}
	})

	return r
}
