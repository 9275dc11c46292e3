package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atinyakov/GophChat/internal/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves
// the GophChat API.
//
// Routes:
//
//	POST /api/http_user_login                 → authHandler.Login
//	GET  /api/http_chatbot_get_sessions       → chatHandler.ListSessions
//	POST /api/http_chatbot_create_session     → chatHandler.CreateSession
//	POST /api/http_chatbot_delete_session     → chatHandler.DeleteSession
//	POST /api/http_chatbot_get_messages       → chatHandler.GetMessages
//	POST /api/http_chatbot_clear_chat         → chatHandler.ClearMessages
//	POST /api/http_chatbot_message            → chatHandler.SendMessage
//	POST /api/http_chatbot_speech_to_text     → SpeechUnavailable
//	POST /api/http_chatbot_text_to_speech     → SpeechUnavailable
//	GET  /api/http_ai_search_list_indexes     → knowledgeHandler.ListIndexes
//	POST /api/http_ai_search_create_index     → knowledgeHandler.CreateIndex
//	POST /api/http_ai_search_delete_index     → knowledgeHandler.DeleteIndex
//	GET  /api/http_ai_search_list_documents   → knowledgeHandler.ListDocuments
//	POST /api/http_ai_search_add_documents    → knowledgeHandler.AddDocuments
//	POST /api/http_ai_search_delete_document  → knowledgeHandler.DeleteDocument
//	GET  /metrics                             → Prometheus exposition
//
// Middleware chain (applied in order):
//  1. RequestID and Recoverer
//  2. CORS for browser clients
//  3. WithRequestLogging(logger) and Metrics
//  4. AllowContentType on /api: JSON or multipart bodies only
func NewRouter(
	authHandler *AuthHandler,
	chatHandler *ChatHandler,
	knowledgeHandler *KnowledgeHandler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(middleware.Metrics)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(chiMiddleware.AllowContentType("application/json", "multipart/form-data"))

		r.Post("/http_user_login", authHandler.Login)

		r.Get("/http_chatbot_get_sessions", chatHandler.ListSessions)
		r.Post("/http_chatbot_create_session", chatHandler.CreateSession)
		r.Post("/http_chatbot_delete_session", chatHandler.DeleteSession)
		r.Post("/http_chatbot_get_messages", chatHandler.GetMessages)
		r.Post("/http_chatbot_clear_chat", chatHandler.ClearMessages)
		r.Post("/http_chatbot_message", chatHandler.SendMessage)
		r.Post("/http_chatbot_speech_to_text", SpeechUnavailable)
		r.Post("/http_chatbot_text_to_speech", SpeechUnavailable)

		r.Get("/http_ai_search_list_indexes", knowledgeHandler.ListIndexes)
		r.Post("/http_ai_search_create_index", knowledgeHandler.CreateIndex)
		r.Post("/http_ai_search_delete_index", knowledgeHandler.DeleteIndex)
		r.Get("/http_ai_search_list_documents", knowledgeHandler.ListDocuments)
		r.Post("/http_ai_search_add_documents", knowledgeHandler.AddDocuments)
		r.Post("/http_ai_search_delete_document", knowledgeHandler.DeleteDocument)
	})

	return r
}
