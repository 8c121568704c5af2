package api

import (
	"net/http"

	"github.com/dom/storefront/internal/api/handlers"
	"github.com/dom/storefront/internal/api/middleware"
	"github.com/dom/storefront/internal/config"
	"github.com/dom/storefront/internal/logger"
	"github.com/dom/storefront/internal/service"
	"github.com/dom/storefront/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(services *service.Services, hub *websocket.Hub, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(logger.HTTPMiddleware(logger.L()))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.ClearFlag)
	r.Use(middleware.Session(services.Session, cfg.Session.CookieName))

	authHandler := handlers.NewAuthHandler(services.Auth, handlers.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
		TTL:    services.Session.TTL(),
	})
	productHandler := handlers.NewProductHandler(services.Catalog)
	cartHandler := handlers.NewCartHandler(services.Cart)
	chatHandler := handlers.NewChatHandler(services.Chat)
	wsHandler := handlers.NewWebSocketHandler(hub, services.Chat)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.With(middleware.RequirePrincipal).Get("/current", authHandler.Current)
			r.With(middleware.RequirePrincipal).Post("/password", authHandler.ChangePassword)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Get("/{id}", productHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/", productHandler.Create)
				r.Put("/{id}", productHandler.Update)
				r.Delete("/{id}", productHandler.Delete)
			})
		})

		r.With(middleware.RequirePrincipal).Get("/cart", cartHandler.Mine)

		r.Route("/carts/{cartId}", func(r chi.Router) {
			r.Get("/", cartHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePrincipal)
				r.Delete("/", cartHandler.Clear)
				r.Post("/products/{productId}", cartHandler.AddItem)
				r.Put("/products/{productId}", cartHandler.UpdateItem)
				r.Delete("/products/{productId}", cartHandler.RemoveItem)
			})
		})

		r.Get("/chat", chatHandler.History)
		r.Post("/chat", chatHandler.Submit)

		r.Get("/ws", wsHandler.Handle)
	})

	return r
}
