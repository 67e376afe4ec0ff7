package chat

import (
	"context"
	"time"

	"github.com/quietline/chat-service/internal/feed"
	"github.com/quietline/chat-service/internal/model"
)

type DBRepo interface {
	GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error)
	GetParticipants(ctx context.Context, conversationID string) ([]model.ConversationParticipant, error)
	GetConversationMessages(ctx context.Context, conversationID string) (*model.MessageList, error)
	SaveMessage(ctx context.Context, message *model.Message) error
	TouchLastMessage(ctx context.Context, conversationID string, ts time.Time) error
	MarkMessagesRead(ctx context.Context, conversationID, readerID string, ts time.Time) error
}

type Feed interface {
	Subscribe(topic feed.Topic, fn feed.Handler) *feed.Subscription
	Unsubscribe(sub *feed.Subscription)
	Publish(topic feed.Topic, event feed.Event)
}
