package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dtroode/chatstation-server/internal/api/http/handler"
	"github.com/dtroode/chatstation-server/internal/api/http/middleware"
	"github.com/dtroode/chatstation-server/internal/logger"
	"github.com/dtroode/chatstation-server/internal/model"
)

// Router wires the chat API routes and their middleware.
type Router struct {
	chatService    handler.ChatService
	authenticator  middleware.Authenticator
	live           *handler.Live
	health         *handler.Health
	contextManager model.ContextManager
	allowedOrigin  string
	logger         *logger.Logger
}

func New(
	chatService handler.ChatService,
	authenticator middleware.Authenticator,
	live *handler.Live,
	health *handler.Health,
	contextManager model.ContextManager,
	allowedOrigin string,
	logger *logger.Logger,
) *Router {
	return &Router{
		chatService:    chatService,
		authenticator:  authenticator,
		live:           live,
		health:         health,
		contextManager: contextManager,
		allowedOrigin:  allowedOrigin,
		logger:         logger,
	}
}

// Register builds the HTTP handler. Every route except the readiness probe
// requires a bearer token.
func (r *Router) Register() http.Handler {
	logging := middleware.NewLogging(r.logger)
	cors := middleware.NewCORS(r.allowedOrigin)
	authenticate := middleware.NewAuthenticate(r.authenticator, r.contextManager, r.logger)

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(logging.Handle)
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handle)

	mux.Get("/healthz", r.health.Check)

	mux.Group(func(protected chi.Router) {
		protected.Use(authenticate.Handle)
		r.registerChatRoutes(protected)
		r.registerUserRoutes(protected)
		protected.Get("/ws", r.live.Connect)
	})

	return mux
}

func (r *Router) registerChatRoutes(mux chi.Router) {
	chatHandler := handler.NewChat(r.chatService, r.contextManager, r.logger)
	mux.Route("/chat", func(chat chi.Router) {
		chat.Post("/send", chatHandler.Send)
		chat.Post("/fetch", chatHandler.Fetch)
	})
}

func (r *Router) registerUserRoutes(mux chi.Router) {
	userHandler := handler.NewUser(r.contextManager)
	mux.Post("/getUser", userHandler.Get)
}
