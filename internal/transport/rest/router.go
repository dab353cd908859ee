package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/mechmaster/subscription-management/internal/auth"
	"github.com/mechmaster/subscription-management/internal/content"
	"github.com/mechmaster/subscription-management/internal/subscription"
	"github.com/mechmaster/subscription-management/internal/transport/middleware"
	"github.com/mechmaster/subscription-management/internal/transport/swagger"
	"github.com/mechmaster/subscription-management/internal/user"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, rbac *auth.RBACAuthorization, userHandler *user.Handler, contentHandler *content.Handler, subscriptionHandler *subscription.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(middleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1
	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/register", authHandler.Register)
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
				sr.Post("/logout", authHandler.Logout)
			})
		}

		// Public content browsing (no auth required)
		if contentHandler != nil {
			r.Get("/categories", contentHandler.GetCategories)
			r.Get("/categories/{categoryID}/topics", contentHandler.GetTopics)
			r.Get("/topics/{topicID}/articles", contentHandler.GetArticles)
			r.Get("/content/suggest", contentHandler.Suggest)
		}

		if authHandler != nil {
			// Protected routes that require authentication
			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)

				// Current user
				if userHandler != nil {
					pr.Get("/users/me", userHandler.GetCurrentUser)
				}

				// Payment routes
				if subscriptionHandler != nil {
					pr.Post("/payment/order", subscriptionHandler.CreateOrder)
					pr.Post("/payment/verify", subscriptionHandler.VerifyPayment)
					pr.Get("/subscription/status", subscriptionHandler.GetStatus)
				}

				// Article bodies are subscription-gated in the service
				if contentHandler != nil {
					pr.Get("/articles/{articleID}", contentHandler.GetArticle)

					// Content administration
					pr.Group(func(ar chi.Router) {
						ar.Use(rbac.RequireManageContent())

						ar.Post("/topics", contentHandler.CreateTopic)
						ar.Put("/topics/{topicID}", contentHandler.UpdateTopic)
						ar.Delete("/topics/{topicID}", contentHandler.DeleteTopic)

						ar.Post("/articles", contentHandler.CreateArticle)
						ar.Put("/articles/{articleID}", contentHandler.UpdateArticle)
						ar.Delete("/articles/{articleID}", contentHandler.DeleteArticle)
					})
				}
			})
		}
	})
}
