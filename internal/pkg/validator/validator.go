package validator

import (
	"fmt"
	"strings"

	"github.com/quietline/chat-service/internal/api"
)

const maxContentRunes = 500

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

func (v *Validator) ValidateFindOrCreate(req *api.FindOrCreateConversationRequest, requesterID string) error {
	if strings.TrimSpace(req.PeerId) == "" {
		return fmt.Errorf("peer_id is required")
	}

	if req.PeerId == requesterID {
		return fmt.Errorf("cannot start a conversation with yourself")
	}

	return nil
}

func (v *Validator) ValidateSendMessage(req *api.SendMessageRequest) error {
	if strings.TrimSpace(req.Content) == "" {
		return fmt.Errorf("content cannot be empty")
	}

	if len([]rune(req.Content)) > maxContentRunes {
		return fmt.Errorf("content exceeds maximum length of %d characters", maxContentRunes)
	}

	return nil
}

func (v *Validator) ValidateSetPresence(req *api.SetPresenceRequest) error {
	// Going online without declaring availability is allowed; going offline
	// while staying available is not.
	if !req.IsOnline && req.IsAvailable != nil && *req.IsAvailable {
		return fmt.Errorf("cannot be available while offline")
	}

	return nil
}
