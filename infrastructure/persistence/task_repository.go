package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/infrastructure/utils"
)

const taskColumns = `id, user_id, content_type, title, description, video_url, image_urls, article_content, cover_url, visibility, topics, distribution_mode, status, scheduled_at, share_id, batch_id, created_at, updated_at`

const taskAccountColumns = `id, task_id, account_id, status, error_message, published_url, published_at, override, created_at, updated_at`

type TaskRepository struct {
	db      *sql.DB
	dialect Dialect
	clock   utils.Clock
}

// NewTaskRepository stamps created_at and updated_at from clock, or the system clock when nil.
func NewTaskRepository(db *sql.DB, dialect Dialect, clock utils.Clock) *TaskRepository {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &TaskRepository{db: db, dialect: dialect, clock: clock}
}

func scanTask(row rowScanner) (*model.PublishTask, error) {
	t := &model.PublishTask{}
	var desc, videoURL, images, article, cover, topics, shareID, batchID sql.NullString
	var scheduled sql.NullTime
	var contentType, mode, status string
	if err := row.Scan(&t.ID, &t.UserID, &contentType, &t.Title, &desc, &videoURL, &images, &article, &cover, &t.Visibility, &topics, &mode, &status, &scheduled, &shareID, &batchID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.ContentType = model.ContentType(contentType)
	t.DistributionMode = model.DistributionMode(mode)
	t.Status = model.TaskStatus(status)
	t.Description = stringPtr(desc)
	t.VideoURL = stringPtr(videoURL)
	t.ArticleContent = stringPtr(article)
	t.CoverURL = stringPtr(cover)
	t.ScheduledAt = timePtr(scheduled)
	t.ShareID = stringPtr(shareID)
	t.BatchID = stringPtr(batchID)
	if err := decodeJSON(images, &t.ImageURLs); err != nil {
		return nil, err
	}
	if err := decodeJSON(topics, &t.Topics); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TaskRepository) CreateWithAccounts(ctx context.Context, tasks []repository.NewTask) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := r.clock.Now().UTC()
	insertTask := r.dialect.Rebind(`INSERT INTO publish_tasks (` + taskColumns + `) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertAccount := r.dialect.Rebind(`INSERT INTO task_accounts (` + taskAccountColumns + `) VALUES (?,?,?,?,?,?,?,?,?,?)`)
	for _, nt := range tasks {
		t := nt.Task
		t.CreatedAt, t.UpdatedAt = now, now
		images, err := jsonColumn(t.ImageURLs)
		if err != nil {
			return err
		}
		topics, err := jsonColumn(t.Topics)
		if err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, insertTask,
			t.ID, t.UserID, string(t.ContentType), t.Title, nullString(t.Description), nullString(t.VideoURL), images,
			nullString(t.ArticleContent), nullString(t.CoverURL), t.Visibility, topics, string(t.DistributionMode),
			string(t.Status), nullTime(t.ScheduledAt), nullString(t.ShareID), nullString(t.BatchID), t.CreatedAt, t.UpdatedAt,
		); err != nil {
			return err
		}
		for _, ta := range nt.Accounts {
			ta.CreatedAt, ta.UpdatedAt = now, now
			var override sql.NullString
			if ta.Override != nil {
				if override, err = jsonColumn(ta.Override); err != nil {
					return err
				}
			}
			if _, err = tx.ExecContext(ctx, insertAccount,
				ta.ID, ta.TaskID, ta.AccountID, string(ta.Status), nullString(ta.ErrorMessage), nullString(ta.PublishedURL),
				nullTime(ta.PublishedAt), override, ta.CreatedAt, ta.UpdatedAt,
			); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (r *TaskRepository) get(ctx context.Context, where string, args ...interface{}) (*model.PublishTask, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.Rebind(`SELECT `+taskColumns+` FROM publish_tasks WHERE `+where), args...)
	return scanTask(row)
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*model.PublishTask, error) {
	t, err := r.get(ctx, `id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: task %s", model.ErrNotFound, id)
	}
	return t, err
}

func (r *TaskRepository) GetForUser(ctx context.Context, userID, id string) (*model.PublishTask, error) {
	t, err := r.get(ctx, `id=? AND user_id=?`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: task %s", model.ErrNotFound, id)
	}
	return t, err
}

func (r *TaskRepository) GetByShareID(ctx context.Context, shareID string) (*model.PublishTask, error) {
	t, err := r.get(ctx, `share_id=?`, shareID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (r *TaskRepository) list(ctx context.Context, q string, args ...interface{}) ([]*model.PublishTask, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.PublishTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*model.PublishTask, error) {
	n := strconv.Itoa(limit)
	if r.dialect == MSSQL {
		return r.list(ctx, `SELECT TOP (`+n+`) `+taskColumns+` FROM publish_tasks WHERE user_id=? ORDER BY created_at DESC`, userID)
	}
	return r.list(ctx, `SELECT `+taskColumns+` FROM publish_tasks WHERE user_id=? ORDER BY created_at DESC LIMIT `+n, userID)
}

func (r *TaskRepository) ListDue(ctx context.Context, now time.Time) ([]*model.PublishTask, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM publish_tasks WHERE status=? AND scheduled_at<=? ORDER BY scheduled_at ASC`,
		string(model.TaskStatusScheduled), now.UTC())
}

// TransitionStatus is a compare-and-set on status. Callers treat 0 affected
// rows as losing the race.
func (r *TaskRepository) TransitionStatus(ctx context.Context, id string, from []model.TaskStatus, to model.TaskStatus) (int64, error) {
	if len(from) == 0 {
		return 0, nil
	}
	args := []interface{}{string(to), r.clock.Now().UTC(), id}
	for _, s := range from {
		args = append(args, string(s))
	}
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`UPDATE publish_tasks SET status=?, updated_at=? WHERE id=? AND status IN (`+Placeholders(len(from))+`)`), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *TaskRepository) SetStatus(ctx context.Context, id string, status model.TaskStatus) error {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`UPDATE publish_tasks SET status=?, updated_at=? WHERE id=?`), string(status), r.clock.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectRow(res, "task", id)
}

func (r *TaskRepository) SetShareID(ctx context.Context, id, shareID string) error {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`UPDATE publish_tasks SET share_id=?, updated_at=? WHERE id=?`), shareID, r.clock.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectRow(res, "task", id)
}

var _ repository.ITask = (*TaskRepository)(nil)
