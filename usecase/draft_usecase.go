package usecase

import (
	"context"

	"github.com/google/uuid"
	"mediahub/domain/model"
	"mediahub/domain/repository"
)

const draftListLimit = 20

type IDraftUsecase interface {
	Create(ctx context.Context, userID string, d *model.Draft) (*model.Draft, error)
	List(ctx context.Context, userID string) ([]*model.Draft, error)
	Get(ctx context.Context, userID, id string) (*model.Draft, error)
	Update(ctx context.Context, userID, id string, d *model.Draft) (*model.Draft, error)
	Delete(ctx context.Context, userID, id string) error
}

type DraftUsecase struct {
	drafts repository.IDraft
}

func NewDraftUsecase(drafts repository.IDraft) *DraftUsecase {
	return &DraftUsecase{drafts: drafts}
}

func (u *DraftUsecase) Create(ctx context.Context, userID string, d *model.Draft) (*model.Draft, error) {
	d.ID = uuid.NewString()
	d.UserID = userID
	if err := u.drafts.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (u *DraftUsecase) List(ctx context.Context, userID string) ([]*model.Draft, error) {
	list, err := u.drafts.ListByUser(ctx, userID, draftListLimit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*model.Draft{}
	}
	return list, nil
}

func (u *DraftUsecase) Get(ctx context.Context, userID, id string) (*model.Draft, error) {
	return u.drafts.Get(ctx, userID, id)
}

func (u *DraftUsecase) Update(ctx context.Context, userID, id string, d *model.Draft) (*model.Draft, error) {
	existing, err := u.drafts.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	d.ID = existing.ID
	d.UserID = userID
	d.CreatedAt = existing.CreatedAt
	if err := u.drafts.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (u *DraftUsecase) Delete(ctx context.Context, userID, id string) error {
	return u.drafts.Delete(ctx, userID, id)
}

var _ IDraftUsecase = (*DraftUsecase)(nil)
