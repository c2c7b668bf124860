package repository

import (
	"context"

	"mediahub/domain/model"
)

type IAccount interface {
	ListByUser(ctx context.Context, userID string) ([]*model.Account, error)
	GetByIDs(ctx context.Context, ids []string) ([]*model.Account, error)
	// GetByID returns model.ErrNotFound unless the account exists and belongs to userID.
	GetByID(ctx context.Context, userID, id string) (*model.Account, error)
	// FindByPlatformUser returns nil, nil when no row matches.
	FindByPlatformUser(ctx context.Context, userID, platform, platformUserID string) (*model.Account, error)
	Create(ctx context.Context, account *model.Account) error
	Update(ctx context.Context, account *model.Account) error
	Delete(ctx context.Context, userID, id string) error
}
