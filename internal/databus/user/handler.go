// Package user consumes account events and mirrors them into profile rows.
// The account service owns identity; this keeps the chat-side denormalized
// copy current.
package user

import (
	"context"
	"encoding/json"
	"fmt"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/quietline/chat-service/internal/config"
	"github.com/quietline/chat-service/internal/model"
)

type ProfileEvent struct {
	UserUUID string  `json:"user_uuid"`
	Username *string `json:"username"`
	UserType string  `json:"user_type"`
	Bio      *string `json:"bio"`
}

type Handler struct {
	repository DBRepo
}

func New(repo DBRepo) *Handler {
	return &Handler{
		repository: repo,
	}
}

// Handler decodes one account event and upserts the profile row. Malformed
// payloads are logged and skipped; the consumer keeps going.
func (h *Handler) Handler(ctx context.Context, in []byte) {
	logger := logger_lib.FromContext(ctx, config.KeyLogger)
	logger.AddFuncName("ProfileEventHandler")

	var event ProfileEvent
	if err := json.Unmarshal(in, &event); err != nil {
		logger.Error(fmt.Sprintf("failed to decode profile event: %v", err))
		return
	}

	if event.UserUUID == "" {
		logger.Error("profile event without user_uuid, skipping")
		return
	}

	if event.UserType == "" {
		event.UserType = model.ListenerUserType
	}

	params := &model.ProfileParams{
		ID:          event.UserUUID,
		Username:    event.Username,
		UserType:    event.UserType,
		IsTherapist: event.UserType == model.TherapistUserType,
		Bio:         event.Bio,
	}

	if err := h.repository.UpsertProfile(ctx, params); err != nil {
		logger.Error(fmt.Sprintf("failed to upsert profile %s: %v", event.UserUUID, err))
		return
	}

	logger.Info(fmt.Sprintf("profile %s synced", event.UserUUID))
}
