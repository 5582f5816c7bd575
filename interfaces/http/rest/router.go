package rest

import (
	"net/http"

	"tangent-backend/interfaces/http/rest/handlers"
	"tangent-backend/interfaces/http/rest/middleware"
	"tangent-backend/pkg/auth"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	boardHandler  *handlers.BoardHandler
	nodeHandler   *handlers.NodeHandler
	linkHandler   *handlers.LinkHandler
	branchHandler *handlers.BranchHandler
	chatHandler   *handlers.ChatHandler
	validator     *auth.JWTValidator
	logger        *zap.Logger
	enableCORS    bool
}

// NewRouter creates a new router instance
func NewRouter(
	boardHandler *handlers.BoardHandler,
	nodeHandler *handlers.NodeHandler,
	linkHandler *handlers.LinkHandler,
	branchHandler *handlers.BranchHandler,
	chatHandler *handlers.ChatHandler,
	validator *auth.JWTValidator,
	logger *zap.Logger,
	enableCORS bool,
) *Router {
	return &Router{
		boardHandler:  boardHandler,
		nodeHandler:   nodeHandler,
		linkHandler:   linkHandler,
		branchHandler: branchHandler,
		chatHandler:   chatHandler,
		validator:     validator,
		logger:        logger,
		enableCORS:    enableCORS,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.tangent.app"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// API routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.logger))

		r.Route("/boards", func(r chi.Router) {
			r.Post("/", rt.boardHandler.CreateBoard)
			r.Get("/", rt.boardHandler.ListBoards)
			r.Get("/{boardID}", rt.boardHandler.GetBoard)
			r.Delete("/{boardID}", rt.boardHandler.DeleteBoard)

			r.Route("/{boardID}", func(r chi.Router) {
				// Canvas node endpoints
				r.Route("/nodes", func(r chi.Router) {
					r.Post("/", rt.nodeHandler.CreateNode)
					r.Get("/", rt.nodeHandler.ListNodes)
					r.Get("/{nodeID}", rt.nodeHandler.GetNode)
					r.Put("/{nodeID}/position", rt.nodeHandler.MoveNode)
					r.Delete("/{nodeID}", rt.nodeHandler.DeleteNode)
					r.Get("/{nodeID}/ancestors", rt.linkHandler.GetAncestors)
				})

				// Context link endpoints
				r.Route("/links", func(r chi.Router) {
					r.Post("/", rt.linkHandler.CreateLink)
					r.Get("/", rt.linkHandler.ListLinks)
					r.Delete("/{linkID}", rt.linkHandler.DeleteLink)
				})

				// Branch creation
				r.Post("/branches", rt.branchHandler.CreateBranch)

				// Conversation endpoints
				r.Route("/blocks/{blockID}", func(r chi.Router) {
					r.Post("/messages", rt.chatHandler.AppendMessage)
					r.Get("/messages", rt.chatHandler.GetHistory)
					r.Get("/prompt", rt.chatHandler.AssemblePrompt)
				})
			})
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
