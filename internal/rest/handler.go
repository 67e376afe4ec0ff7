package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/quietline/chat-service/internal/api"
	"github.com/quietline/chat-service/internal/config"
	"github.com/quietline/chat-service/internal/conversation"
	"github.com/quietline/chat-service/internal/feed"
	"github.com/quietline/chat-service/internal/model"
	"github.com/quietline/chat-service/internal/pkg/tx"
)

type Handler struct {
	repository       DBRepo
	conversations    ConversationManager
	presence         PresenceTracker
	directory        ListenerDirectory
	broker           FeedPublisher
	centrifugeClient CentrifugeClient
	validator        Validator
	jwtGenerator     JWTGenerator
}

func New(
	repo DBRepo,
	conversations ConversationManager,
	presence PresenceTracker,
	directory ListenerDirectory,
	broker FeedPublisher,
	centrifugeClient CentrifugeClient,
	validator Validator,
	jwtGenerator JWTGenerator,
) *Handler {
	return &Handler{
		repository:       repo,
		conversations:    conversations,
		presence:         presence,
		directory:        directory,
		broker:           broker,
		centrifugeClient: centrifugeClient,
		validator:        validator,
		jwtGenerator:     jwtGenerator,
	}
}

func (h *Handler) FindOrCreateConversation(w http.ResponseWriter, r *http.Request) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("FindOrCreateConversation")

	var req api.FindOrCreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error(fmt.Sprintf("failed to decode request: %v", err))
		h.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	requesterID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get requester ID")
		h.writeError(w, "failed to get requester ID", http.StatusInternalServerError)
		return
	}

	if err := h.validator.ValidateFindOrCreate(&req, requesterID); err != nil {
		logger.Error(fmt.Sprintf("conversation validation failed: %v", err))
		h.writeError(w, fmt.Sprintf("conversation validation failed: %v", err), http.StatusBadRequest)
		return
	}

	conversationID, err := h.conversations.FindOrCreate(r.Context(), requesterID, req.PeerId)
	if err != nil {
		if errors.Is(err, conversation.ErrSelfConversation) || errors.Is(err, conversation.ErrMissingUser) {
			logger.Error(fmt.Sprintf("invalid pair: %v", err))
			h.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Error(fmt.Sprintf("failed to find or create conversation: %v", err))
		h.writeError(w, "failed to start chat", http.StatusInternalServerError)
		return
	}

	response := api.FindOrCreateConversationResponse{
		Id: conversationID,
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) GetConversations(w http.ResponseWriter, r *http.Request) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("GetConversations")

	requesterID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get requester id")
		h.writeError(w, "failed to get requester id", http.StatusInternalServerError)
		return
	}

	conversations, err := h.conversations.ListForUser(r.Context(), requesterID)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to get conversations: %v", err))
		h.writeError(w, fmt.Sprintf("failed to get conversations: %v", err), http.StatusInternalServerError)
		return
	}

	apiConversations := make([]api.Conversation, len(conversations))
	for i, conv := range conversations {
		participants := make([]api.Participant, len(conv.Participants))
		for j, participant := range conv.Participants {
			participants[j] = api.Participant{
				UserId:      participant.UserID,
				Username:    participant.Username,
				IsTherapist: participant.IsTherapist,
				UserType:    participant.UserType,
				JoinedAt:    participant.JoinedAt.Format(time.RFC3339),
			}
		}

		apiConversations[i] = api.Conversation{
			Id:            conv.ID,
			CreatedAt:     conv.CreatedAt.Format(time.RFC3339),
			LastMessageAt: conv.LastMessageAt.Format(time.RFC3339),
			IsActive:      conv.IsActive,
			Participants:  participants,
		}
	}

	response := api.GetConversationsResponse{
		Conversations: apiConversations,
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) GetConversationMessages(w http.ResponseWriter, r *http.Request, conversationId string) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("GetConversationMessages")

	userUUID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to find uuid")
		h.writeError(w, "failed to find uuid", http.StatusInternalServerError)
		return
	}

	isParticipant, err := h.repository.IsParticipant(r.Context(), conversationId, userUUID)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to check conversation membership: %v", err))
		h.writeError(w, fmt.Sprintf("failed to check conversation membership: %v", err), http.StatusInternalServerError)
		return
	}

	if !isParticipant {
		logger.Error("user is not a participant of the conversation")
		h.writeError(w, "user is not a participant of the conversation", http.StatusForbidden)
		return
	}

	messages, err := h.repository.GetConversationMessages(r.Context(), conversationId)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to fetch messages: %v", err))
		h.writeError(w, fmt.Sprintf("failed to fetch messages: %v", err), http.StatusInternalServerError)
		return
	}

	apiMessages := make([]api.Message, len(*messages))
	for i, msg := range *messages {
		var readAt *string
		if msg.ReadAt != nil {
			timestamp := msg.ReadAt.Format(time.RFC3339)
			readAt = &timestamp
		}

		apiMessages[i] = api.Message{
			Id:             msg.ID.String(),
			ConversationId: msg.ConversationID.String(),
			SenderId:       msg.SenderID.String(),
			Content:        msg.Content,
			CreatedAt:      msg.CreatedAt.Format(time.RFC3339),
			ReadAt:         readAt,
		}
	}

	response := api.GetConversationMessagesResponse{
		Messages: apiMessages,
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request, conversationId string) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("SendMessage")

	var req api.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error(fmt.Sprintf("failed to decode request: %v", err))
		h.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	senderID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get sender ID")
		h.writeError(w, "failed to get sender ID", http.StatusInternalServerError)
		return
	}

	if err := h.validator.ValidateSendMessage(&req); err != nil {
		logger.Error(fmt.Sprintf("message validation failed: %v", err))
		h.writeError(w, fmt.Sprintf("message validation failed: %v", err), http.StatusBadRequest)
		return
	}

	var message model.Message
	err := tx.TxExecute(r.Context(), func(ctx context.Context) error {
		isParticipant, err := h.repository.IsParticipant(ctx, conversationId, senderID)
		if err != nil {
			logger.Error(fmt.Sprintf("failed to check conversation membership: %v", err))
			return fmt.Errorf("failed to check conversation membership: %v", err)
		}

		if !isParticipant {
			logger.Error(fmt.Sprintf("user %s is not a participant of conversation %s", senderID, conversationId))
			return fmt.Errorf("user is not a participant of this conversation")
		}

		message = model.Message{
			ID:             uuid.New(),
			ConversationID: uuid.MustParse(conversationId),
			SenderID:       uuid.MustParse(senderID),
			Content:        req.Content,
			CreatedAt:      time.Now(),
		}

		if err := h.repository.SaveMessage(ctx, &message); err != nil {
			logger.Error(fmt.Sprintf("failed to save message: %v", err))
			return fmt.Errorf("failed to save message: %v", err)
		}

		if err := h.repository.TouchLastMessage(ctx, conversationId, message.CreatedAt); err != nil {
			logger.Error(fmt.Sprintf("failed to advance last_message_at: %v", err))
			return fmt.Errorf("failed to advance last_message_at: %v", err)
		}

		return nil
	})

	if err != nil {
		logger.Error(fmt.Sprintf("failed to send message transaction: %v", err))
		h.writeError(w, fmt.Sprintf("failed to send message: %v", err), http.StatusInternalServerError)
		return
	}

	h.broker.Publish(feed.Topic{
		Table:  feed.TableMessages,
		Event:  feed.EventInsert,
		Filter: conversationId,
	}, feed.Event{
		Type:   feed.EventInsert,
		NewRow: message,
	})

	if err := h.centrifugeClient.Publish(r.Context(), conversationId, message); err != nil {
		logger.Error(fmt.Sprintf("failed to publish message to conversation channel: %v", err))
	}

	response := api.SendMessageResponse{
		MessageId: message.ID.String(),
		CreatedAt: message.CreatedAt.Format(time.RFC3339),
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) MarkConversationRead(w http.ResponseWriter, r *http.Request, conversationId string) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("MarkConversationRead")

	userUUID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get user UUID")
		h.writeError(w, "failed to get user UUID", http.StatusInternalServerError)
		return
	}

	isParticipant, err := h.repository.IsParticipant(r.Context(), conversationId, userUUID)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to check conversation membership: %v", err))
		h.writeError(w, fmt.Sprintf("failed to check conversation membership: %v", err), http.StatusInternalServerError)
		return
	}

	if !isParticipant {
		logger.Error("user is not a participant of the conversation")
		h.writeError(w, "user is not a participant of the conversation", http.StatusForbidden)
		return
	}

	// Read-marking is best-effort: a store failure is logged, the client
	// still gets an OK and the next mark attempt covers the gap.
	if err := h.repository.MarkMessagesRead(r.Context(), conversationId, userUUID, time.Now()); err != nil {
		logger.Error(fmt.Sprintf("failed to mark messages read: %v", err))
	}

	h.writeJSON(w, struct{}{}, http.StatusOK)
}

func (h *Handler) SetPresence(w http.ResponseWriter, r *http.Request) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("SetPresence")

	var req api.SetPresenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error(fmt.Sprintf("failed to decode request: %v", err))
		h.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	userUUID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get user UUID")
		h.writeError(w, "failed to get user UUID", http.StatusInternalServerError)
		return
	}

	if err := h.validator.ValidateSetPresence(&req); err != nil {
		logger.Error(fmt.Sprintf("presence validation failed: %v", err))
		h.writeError(w, fmt.Sprintf("presence validation failed: %v", err), http.StatusBadRequest)
		return
	}

	h.presence.SetOnline(r.Context(), userUUID, req.IsOnline, req.IsAvailable)

	h.writeJSON(w, struct{}{}, http.StatusOK)
}

func (h *Handler) GetAvailableListeners(w http.ResponseWriter, r *http.Request) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("GetAvailableListeners")

	userUUID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get user UUID")
		h.writeError(w, "failed to get user UUID", http.StatusInternalServerError)
		return
	}

	profiles := h.directory.Snapshot(userUUID)

	// Usernames and bios stay server-side; the listing is anonymous.
	listeners := make([]api.Listener, len(profiles))
	for i, profile := range profiles {
		listeners[i] = api.Listener{
			UserId:      profile.ID,
			UserType:    profile.UserType,
			IsTherapist: profile.IsTherapist,
		}
	}

	response := api.GetAvailableListenersResponse{
		Listeners: listeners,
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) GetConnectAccessToken(w http.ResponseWriter, r *http.Request) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("GetConnectAccessToken")

	userUUID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get user UUID")
		h.writeError(w, "failed to get user UUID", http.StatusInternalServerError)
		return
	}

	token, expiresAt, err := h.jwtGenerator.GenerateConnectToken(userUUID)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to generate access token: %v", err))
		h.writeError(w, fmt.Sprintf("failed to generate access token: %v", err), http.StatusInternalServerError)
		return
	}

	response := api.GetConnectAccessTokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) GetConversationSubscribeToken(w http.ResponseWriter, r *http.Request, conversationId string) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("GetConversationSubscribeToken")

	userUUID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get user UUID")
		h.writeError(w, "failed to get user UUID", http.StatusInternalServerError)
		return
	}

	isParticipant, err := h.repository.IsParticipant(r.Context(), conversationId, userUUID)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to check conversation membership: %v", err))
		h.writeError(w, fmt.Sprintf("failed to check conversation membership: %v", err), http.StatusInternalServerError)
		return
	}

	if !isParticipant {
		logger.Error("user is not a participant of the conversation")
		h.writeError(w, "user is not a participant of the conversation", http.StatusForbidden)
		return
	}

	token, expiresAt, err := h.jwtGenerator.GenerateSubscribeToken(userUUID, conversationId)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to generate subscribe token: %v", err))
		h.writeError(w, fmt.Sprintf("failed to generate subscribe token: %v", err), http.StatusInternalServerError)
		return
	}

	response := api.GetConversationSubscribeTokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Channel:   conversationId,
	}

	h.writeJSON(w, response, http.StatusOK)
}

// ----------------------------- helpers -----------------------------

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(api.Error{Error: message})
}
