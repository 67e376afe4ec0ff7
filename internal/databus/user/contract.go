//go:generate mockgen -destination=mock_contract_test.go -package=${GOPACKAGE} -source=contract.go
package user

import (
	"context"

	"github.com/quietline/chat-service/internal/model"
)

type DBRepo interface {
	UpsertProfile(ctx context.Context, params *model.ProfileParams) error
}
