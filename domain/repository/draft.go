package repository

import (
	"context"

	"mediahub/domain/model"
)

type IDraft interface {
	Create(ctx context.Context, draft *model.Draft) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.Draft, error)
	Get(ctx context.Context, userID, id string) (*model.Draft, error)
	Update(ctx context.Context, draft *model.Draft) error
	Delete(ctx context.Context, userID, id string) error
}
