package presence

import (
	"context"

	"github.com/quietline/chat-service/internal/feed"
)

type DBRepo interface {
	SetPresence(ctx context.Context, userID string, online bool, available *bool) error
}

type FeedPublisher interface {
	Publish(topic feed.Topic, event feed.Event)
}

type RealtimePublisher interface {
	Publish(ctx context.Context, channel string, data interface{}) error
}
