package repository

import (
	"context"
	"time"

	"mediahub/domain/model"
)

type NewTask struct {
	Task     *model.PublishTask
	Accounts []*model.TaskAccount
}

type ITask interface {
	// CreateWithAccounts writes every task and task account or none of them.
	CreateWithAccounts(ctx context.Context, tasks []NewTask) error
	GetByID(ctx context.Context, id string) (*model.PublishTask, error)
	// GetForUser returns model.ErrNotFound unless the task belongs to userID.
	GetForUser(ctx context.Context, userID, id string) (*model.PublishTask, error)
	// GetByShareID returns nil, nil when no task carries shareID.
	GetByShareID(ctx context.Context, shareID string) (*model.PublishTask, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.PublishTask, error)
	// ListDue returns scheduled tasks whose scheduled_at is at or before now.
	ListDue(ctx context.Context, now time.Time) ([]*model.PublishTask, error)
	// TransitionStatus moves the task to `to` only if its current status is
	// one of `from`, and returns the number of affected rows.
	TransitionStatus(ctx context.Context, id string, from []model.TaskStatus, to model.TaskStatus) (int64, error)
	SetStatus(ctx context.Context, id string, status model.TaskStatus) error
	SetShareID(ctx context.Context, id, shareID string) error
}

type ITaskAccount interface {
	ListByTask(ctx context.Context, taskID string) ([]*model.TaskAccount, error)
	ListByTasks(ctx context.Context, taskIDs []string) (map[string][]*model.TaskAccount, error)
	MarkSuccess(ctx context.Context, id, publishedURL string, at time.Time) error
	MarkFailed(ctx context.Context, id, errMsg string) error
	// CompleteAll marks every account of the task successful with the same url.
	CompleteAll(ctx context.Context, taskID, publishedURL string, at time.Time) error
}
