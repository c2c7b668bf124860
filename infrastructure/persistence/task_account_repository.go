package persistence

import (
	"context"
	"database/sql"
	"time"

	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/infrastructure/utils"
)

type TaskAccountRepository struct {
	db      *sql.DB
	dialect Dialect
	clock   utils.Clock
}

func NewTaskAccountRepository(db *sql.DB, dialect Dialect, clock utils.Clock) *TaskAccountRepository {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &TaskAccountRepository{db: db, dialect: dialect, clock: clock}
}

func scanTaskAccount(row rowScanner) (*model.TaskAccount, error) {
	ta := &model.TaskAccount{}
	var errMsg, url, override sql.NullString
	var publishedAt sql.NullTime
	var status string
	if err := row.Scan(&ta.ID, &ta.TaskID, &ta.AccountID, &status, &errMsg, &url, &publishedAt, &override, &ta.CreatedAt, &ta.UpdatedAt); err != nil {
		return nil, err
	}
	ta.Status = model.TaskAccountStatus(status)
	ta.ErrorMessage = stringPtr(errMsg)
	ta.PublishedURL = stringPtr(url)
	ta.PublishedAt = timePtr(publishedAt)
	if override.Valid {
		ta.Override = &model.ContentOverride{}
		if err := decodeJSON(override, ta.Override); err != nil {
			return nil, err
		}
	}
	return ta, nil
}

func (r *TaskAccountRepository) ListByTask(ctx context.Context, taskID string) ([]*model.TaskAccount, error) {
	byTask, err := r.ListByTasks(ctx, []string{taskID})
	if err != nil {
		return nil, err
	}
	return byTask[taskID], nil
}

func (r *TaskAccountRepository) ListByTasks(ctx context.Context, taskIDs []string) (map[string][]*model.TaskAccount, error) {
	out := make(map[string][]*model.TaskAccount, len(taskIDs))
	if len(taskIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(`SELECT `+taskAccountColumns+` FROM task_accounts WHERE task_id IN (`+Placeholders(len(taskIDs))+`) ORDER BY created_at ASC, id ASC`), stringArgs(taskIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		ta, err := scanTaskAccount(rows)
		if err != nil {
			return nil, err
		}
		out[ta.TaskID] = append(out[ta.TaskID], ta)
	}
	return out, rows.Err()
}

// MarkSuccess settles a pending account. Settled accounts are left untouched.
func (r *TaskAccountRepository) MarkSuccess(ctx context.Context, id, publishedURL string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(`UPDATE task_accounts SET status=?, published_url=?, published_at=?, error_message=NULL, updated_at=? WHERE id=? AND status=?`),
		string(model.TaskAccountSuccess), publishedURL, at.UTC(), r.clock.Now().UTC(), id, string(model.TaskAccountPending))
	return err
}

func (r *TaskAccountRepository) MarkFailed(ctx context.Context, id, errMsg string) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(`UPDATE task_accounts SET status=?, error_message=?, updated_at=? WHERE id=? AND status=?`),
		string(model.TaskAccountFailed), errMsg, r.clock.Now().UTC(), id, string(model.TaskAccountPending))
	return err
}

func (r *TaskAccountRepository) CompleteAll(ctx context.Context, taskID, publishedURL string, at time.Time) error {
	// an empty url keeps whatever each account already recorded
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(`UPDATE task_accounts SET status=?, published_url=COALESCE(?, published_url), published_at=?, error_message=NULL, updated_at=? WHERE task_id=?`),
		string(model.TaskAccountSuccess), sql.NullString{String: publishedURL, Valid: publishedURL != ""}, at.UTC(), r.clock.Now().UTC(), taskID)
	return err
}

var _ repository.ITaskAccount = (*TaskAccountRepository)(nil)
