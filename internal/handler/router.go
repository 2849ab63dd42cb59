package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	squeakHandler "github.com/squeakview/backend/internal/handler/squeak"
	streamHandler "github.com/squeakview/backend/internal/handler/stream"
	middlewarePkg "github.com/squeakview/backend/internal/middleware"
	"github.com/squeakview/backend/internal/service/thread"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(views *thread.Service, nodeAPI squeakHandler.NodeAPI, network string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	squeaks := squeakHandler.New(views, nodeAPI, network)
	streams := streamHandler.New(views)

	r.Route("/api", func(api chi.Router) {
		squeaks.RegisterRoutes(api)
		streams.RegisterRoutes(api)
	})

	return r
}
