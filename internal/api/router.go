package api

import (
	"net/http"

	"github.com/dom/task-manager/internal/api/handlers"
	"github.com/dom/task-manager/internal/api/middleware"
	"github.com/dom/task-manager/internal/config"
	"github.com/dom/task-manager/internal/httpx"
	"github.com/dom/task-manager/internal/service"
	"github.com/dom/task-manager/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(services *service.Services, hub *websocket.Hub, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.IsDevelopment() {
		r.Use(middleware.Delay(cfg.APIDelay))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusNotFound, "Not found")
	})

	r.Get("/", handlers.Root)
	r.Get("/health", handlers.Health)

	authHandler := handlers.NewAuthHandler(services.Auth)
	taskHandler := handlers.NewTaskHandler(services.Task)
	wsHandler := handlers.NewWebSocketHandler(hub, services.Auth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(services.Auth))
				r.Get("/me", authHandler.Me)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth))
			r.Get("/", taskHandler.List)
			r.Post("/", taskHandler.Create)
			r.Get("/{id}", taskHandler.Get)
			r.Put("/{id}", taskHandler.Update)
			r.Delete("/{id}", taskHandler.Delete)
		})

		r.Get("/ws", wsHandler.Handle)
	})

	return r
}
