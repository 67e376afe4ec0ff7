package directory

import (
	"context"

	"github.com/quietline/chat-service/internal/feed"
	"github.com/quietline/chat-service/internal/model"
)

type DBRepo interface {
	GetAvailableProfiles(ctx context.Context, excludingUserID string) (model.ProfileList, error)
}

type Feed interface {
	Subscribe(topic feed.Topic, fn feed.Handler) *feed.Subscription
	Unsubscribe(sub *feed.Subscription)
}
