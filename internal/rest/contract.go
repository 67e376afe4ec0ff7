//go:generate mockgen -destination=mock_contract_test.go -package=${GOPACKAGE} -source=contract.go
package rest

import (
	"context"
	"time"

	"github.com/quietline/chat-service/internal/api"
	"github.com/quietline/chat-service/internal/feed"
	"github.com/quietline/chat-service/internal/model"
)

type DBRepo interface {
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
	GetConversationMessages(ctx context.Context, conversationID string) (*model.MessageList, error)
	SaveMessage(ctx context.Context, message *model.Message) error
	TouchLastMessage(ctx context.Context, conversationID string, ts time.Time) error
	MarkMessagesRead(ctx context.Context, conversationID, readerID string, ts time.Time) error

	WithTx(ctx context.Context, cb func(ctx context.Context) error) error
}

type ConversationManager interface {
	FindOrCreate(ctx context.Context, userA, userB string) (string, error)
	ListForUser(ctx context.Context, userID string) (model.ConversationList, error)
}

type PresenceTracker interface {
	SetOnline(ctx context.Context, userID string, online bool, available *bool)
}

type ListenerDirectory interface {
	Snapshot(excludingUserID string) model.ProfileList
}

type FeedPublisher interface {
	Publish(topic feed.Topic, event feed.Event)
}

type CentrifugeClient interface {
	Publish(ctx context.Context, channel string, data interface{}) error
}

type Validator interface {
	ValidateFindOrCreate(req *api.FindOrCreateConversationRequest, requesterID string) error
	ValidateSendMessage(req *api.SendMessageRequest) error
	ValidateSetPresence(req *api.SetPresenceRequest) error
}

type JWTGenerator interface {
	GenerateConnectToken(userID string) (string, int64, error)
	GenerateSubscribeToken(userID, conversationID string) (string, int64, error)
	ValidateConnectToken(tokenString string) (*model.CentrifugoConnectClaims, error)
	ValidateSubscribeToken(tokenString string) (*model.CentrifugoSubscribeClaims, error)
}
