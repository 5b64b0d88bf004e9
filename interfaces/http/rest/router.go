package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"stuffmd/application/engine"
	"stuffmd/infrastructure/config"
	"stuffmd/interfaces/http/rest/handlers"
	"stuffmd/interfaces/http/rest/middleware"
	"stuffmd/pkg/auth"
)

// Router creates and configures the HTTP router
type Router struct {
	engine *engine.Engine
	config *config.Config
	logger *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(engine *engine.Engine, cfg *config.Config, logger *zap.Logger) *Router {
	return &Router{
		engine: engine,
		config: cfg,
		logger: logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.config.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readyCheck)

	var validator *auth.JWTValidator
	if rt.config.JWTSecret != "" {
		v, err := auth.NewJWTValidator(auth.JWTConfig{
			SigningMethod: "HS256",
			SecretKey:     rt.config.JWTSecret,
			Issuer:        rt.config.JWTIssuer,
		})
		if err != nil {
			rt.logger.Error("Failed to create JWT validator, tokens will be rejected", zap.Error(err))
		} else {
			validator = v
		}
	} else {
		rt.logger.Warn("JWT_SECRET not set, bearer tokens are forwarded unvalidated")
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(middleware.AuthConfig{
			Validator:     validator,
			IPRateLimit:   rt.config.IPRateLimit,
			UserRateLimit: rt.config.UserRateLimit,
		}, rt.logger))

		noteHandler := handlers.NewNoteHandler(rt.engine, rt.logger)
		r.Route("/notes", func(r chi.Router) {
			r.Get("/", noteHandler.ListNotes)
			r.Post("/", noteHandler.CreateNote)
			r.Post("/bulk-delete", noteHandler.BulkDelete)
			r.Patch("/{noteID}", noteHandler.UpdateNote)
			r.Delete("/{noteID}", noteHandler.DeleteNote)
			r.Post("/{noteID}/regenerate", noteHandler.RegenerateNote)
			r.Delete("/{noteID}/tags/{tag}", noteHandler.DeleteTag)
		})

		r.Get("/tags", noteHandler.ListTags)

		categoryHandler := handlers.NewCategoryHandler(rt.engine, rt.logger)
		r.Route("/categories", func(r chi.Router) {
			r.Post("/rename", categoryHandler.Rename)
			r.Post("/delete", categoryHandler.Delete)
		})

		exportHandler := handlers.NewExportHandler(rt.engine, rt.logger)
		r.Get("/export", exportHandler.Export)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readyCheck reports readiness for traffic. The engine lazily fetches
// on first authenticated request, so readiness has no store dependency.
func (rt *Router) readyCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
