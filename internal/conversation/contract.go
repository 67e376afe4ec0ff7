package conversation

import (
	"context"

	"github.com/quietline/chat-service/internal/model"
)

type DBRepo interface {
	GetUserConversationIDs(ctx context.Context, userID string) ([]string, error)
	CreateConversation(ctx context.Context) (string, error)
	AddParticipants(ctx context.Context, conversationID string, userIDs []string) error
	GetUserConversations(ctx context.Context, userID string) (model.ConversationList, error)
}
