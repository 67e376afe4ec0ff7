package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Attach mounts the chat API onto the router.
func Attach(router chi.Router, h *Handler) {
	router.Route("/api/chat", func(r chi.Router) {
		r.Post("/conversations", h.FindOrCreateConversation)
		r.Get("/conversations", h.GetConversations)

		r.Get("/conversations/{conversation_id}/messages", func(w http.ResponseWriter, req *http.Request) {
			h.GetConversationMessages(w, req, chi.URLParam(req, "conversation_id"))
		})
		r.Post("/conversations/{conversation_id}/messages", func(w http.ResponseWriter, req *http.Request) {
			h.SendMessage(w, req, chi.URLParam(req, "conversation_id"))
		})
		r.Post("/conversations/{conversation_id}/read", func(w http.ResponseWriter, req *http.Request) {
			h.MarkConversationRead(w, req, chi.URLParam(req, "conversation_id"))
		})
		r.Get("/conversations/{conversation_id}/token", func(w http.ResponseWriter, req *http.Request) {
			h.GetConversationSubscribeToken(w, req, chi.URLParam(req, "conversation_id"))
		})

		r.Put("/presence", h.SetPresence)
		r.Get("/listeners", h.GetAvailableListeners)
		r.Get("/realtime/token", h.GetConnectAccessToken)
	})
}
