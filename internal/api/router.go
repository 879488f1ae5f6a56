package api

import (
	"net/http"
	"time"

	"bookstack/internal/api/handler"
	"bookstack/internal/api/middleware"
	"bookstack/internal/app/service"
	"bookstack/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/rs/zerolog"
)

func NewRouter(
	logger zerolog.Logger,
	tokens *security.TokenService,
	authService *service.AuthService,
	bookService *service.BookService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifies the bearer token from "Authorization: Bearer <token>" and puts
	// the result in the request context; Authenticator enforces it per group.
	r.Use(jwtauth.Verifier(tokens.TokenAuth()))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(apiRouter chi.Router) {
		// Identity routes: register/login public, promote admin-gated
		authHandler := handler.NewAuthHandler(authService)
		apiRouter.Route("/users", authHandler.RegisterRoutes)

		// Catalog routes: reads authenticated, writes admin-gated
		bookHandler := handler.NewBookHandler(bookService)
		apiRouter.Route("/books", bookHandler.RegisterRoutes)
	})

	return r
}
