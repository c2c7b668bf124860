package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"mediahub/domain/model"
	"mediahub/domain/repository"
)

type DraftRepository struct {
	db *gorm.DB
}

func NewDraftRepository(db *gorm.DB) *DraftRepository { return &DraftRepository{db: db} }

func (r *DraftRepository) Migrate() error {
	return r.db.AutoMigrate(&model.Draft{})
}

func (r *DraftRepository) Create(ctx context.Context, d *model.Draft) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DraftRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Draft, error) {
	var out []*model.Draft
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *DraftRepository) Get(ctx context.Context, userID, id string) (*model.Draft, error) {
	var d model.Draft
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: draft %s", model.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Update overwrites every editable column of the owner's draft.
func (r *DraftRepository) Update(ctx context.Context, d *model.Draft) error {
	res := r.db.WithContext(ctx).
		Model(&model.Draft{}).
		Where("id = ? AND user_id = ?", d.ID, d.UserID).
		Select("*").
		Omit("id", "user_id", "created_at").
		Updates(d)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: draft %s", model.ErrNotFound, d.ID)
	}
	return nil
}

func (r *DraftRepository) Delete(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Draft{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: draft %s", model.ErrNotFound, id)
	}
	return nil
}

var _ repository.IDraft = (*DraftRepository)(nil)
