// Package memory keeps accounts and tasks in process memory. It backs
// DB_VENDOR=memory and the usecase tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/infrastructure/utils"
)

// Store holds every table behind a single mutex so status transitions are atomic.
type Store struct {
	mu           sync.Mutex
	clock        utils.Clock
	accounts     map[string]*model.Account
	tasks        map[string]*model.PublishTask
	taskAccounts map[string]*model.TaskAccount
	// insertion order of task accounts
	order []string
}

func NewStore(clock utils.Clock) *Store {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &Store{
		clock:        clock,
		accounts:     make(map[string]*model.Account),
		tasks:        make(map[string]*model.PublishTask),
		taskAccounts: make(map[string]*model.TaskAccount),
	}
}

func (s *Store) Accounts() *AccountRepository         { return &AccountRepository{s} }
func (s *Store) Tasks() *TaskRepository               { return &TaskRepository{s} }
func (s *Store) TaskAccounts() *TaskAccountRepository { return &TaskAccountRepository{s} }

func copyAccount(a *model.Account) *model.Account {
	c := *a
	return &c
}

func copyTask(t *model.PublishTask) *model.PublishTask {
	c := *t
	c.ImageURLs = append([]string(nil), t.ImageURLs...)
	c.Topics = append([]string(nil), t.Topics...)
	return &c
}

func copyTaskAccount(ta *model.TaskAccount) *model.TaskAccount {
	c := *ta
	if ta.Override != nil {
		o := *ta.Override
		c.Override = &o
	}
	return &c
}

type AccountRepository struct{ s *Store }

func (r *AccountRepository) ListByUser(_ context.Context, userID string) ([]*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Account
	for _, a := range r.s.accounts {
		if a.UserID == userID {
			out = append(out, copyAccount(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *AccountRepository) GetByIDs(_ context.Context, ids []string) ([]*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Account
	for _, id := range ids {
		if a, ok := r.s.accounts[id]; ok {
			out = append(out, copyAccount(a))
		}
	}
	return out, nil
}

func (r *AccountRepository) GetByID(_ context.Context, userID, id string) (*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok || a.UserID != userID {
		return nil, fmt.Errorf("%w: account %s", model.ErrNotFound, id)
	}
	return copyAccount(a), nil
}

func (r *AccountRepository) FindByPlatformUser(_ context.Context, userID, platform, platformUserID string) (*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.UserID == userID && a.Platform == platform && a.PlatformUserID == platformUserID {
			return copyAccount(a), nil
		}
	}
	return nil, nil
}

func (r *AccountRepository) Create(_ context.Context, a *model.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.accounts[a.ID]; ok {
		return fmt.Errorf("account %s already exists", a.ID)
	}
	now := r.s.clock.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	r.s.accounts[a.ID] = copyAccount(a)
	return nil
}

func (r *AccountRepository) Update(_ context.Context, a *model.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.accounts[a.ID]
	if !ok {
		return fmt.Errorf("%w: account %s", model.ErrNotFound, a.ID)
	}
	a.UpdatedAt = r.s.clock.Now()
	a.CreatedAt = cur.CreatedAt
	r.s.accounts[a.ID] = copyAccount(a)
	return nil
}

func (r *AccountRepository) Delete(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok || a.UserID != userID {
		return fmt.Errorf("%w: account %s", model.ErrNotFound, id)
	}
	delete(r.s.accounts, id)
	return nil
}

type TaskRepository struct{ s *Store }

func (r *TaskRepository) CreateWithAccounts(_ context.Context, tasks []repository.NewTask) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, nt := range tasks {
		if _, ok := r.s.tasks[nt.Task.ID]; ok {
			return fmt.Errorf("task %s already exists", nt.Task.ID)
		}
		for _, ta := range nt.Accounts {
			if _, ok := r.s.taskAccounts[ta.ID]; ok {
				return fmt.Errorf("task account %s already exists", ta.ID)
			}
		}
	}
	now := r.s.clock.Now()
	for _, nt := range tasks {
		nt.Task.CreatedAt, nt.Task.UpdatedAt = now, now
		r.s.tasks[nt.Task.ID] = copyTask(nt.Task)
		for _, ta := range nt.Accounts {
			ta.CreatedAt, ta.UpdatedAt = now, now
			r.s.taskAccounts[ta.ID] = copyTaskAccount(ta)
			r.s.order = append(r.s.order, ta.ID)
		}
	}
	return nil
}

func (r *TaskRepository) GetByID(_ context.Context, id string) (*model.PublishTask, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: task %s", model.ErrNotFound, id)
	}
	return copyTask(t), nil
}

func (r *TaskRepository) GetForUser(_ context.Context, userID, id string) (*model.PublishTask, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok || t.UserID != userID {
		return nil, fmt.Errorf("%w: task %s", model.ErrNotFound, id)
	}
	return copyTask(t), nil
}

func (r *TaskRepository) GetByShareID(_ context.Context, shareID string) (*model.PublishTask, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tasks {
		if t.ShareID != nil && *t.ShareID == shareID {
			return copyTask(t), nil
		}
	}
	return nil, nil
}

func (r *TaskRepository) ListByUser(_ context.Context, userID string, limit int) ([]*model.PublishTask, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.PublishTask
	for _, t := range r.s.tasks {
		if t.UserID == userID {
			out = append(out, copyTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *TaskRepository) ListDue(_ context.Context, now time.Time) ([]*model.PublishTask, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.PublishTask
	for _, t := range r.s.tasks {
		if t.Status == model.TaskStatusScheduled && t.ScheduledAt != nil && !t.ScheduledAt.After(now) {
			out = append(out, copyTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(*out[j].ScheduledAt) })
	return out, nil
}

func (r *TaskRepository) TransitionStatus(_ context.Context, id string, from []model.TaskStatus, to model.TaskStatus) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok || !t.Status.In(from) {
		return 0, nil
	}
	t.Status = to
	t.UpdatedAt = r.s.clock.Now()
	return 1, nil
}

func (r *TaskRepository) SetStatus(_ context.Context, id string, status model.TaskStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return fmt.Errorf("%w: task %s", model.ErrNotFound, id)
	}
	t.Status = status
	t.UpdatedAt = r.s.clock.Now()
	return nil
}

func (r *TaskRepository) SetShareID(_ context.Context, id, shareID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return fmt.Errorf("%w: task %s", model.ErrNotFound, id)
	}
	t.ShareID = &shareID
	t.UpdatedAt = r.s.clock.Now()
	return nil
}

type TaskAccountRepository struct{ s *Store }

func (r *TaskAccountRepository) ListByTask(ctx context.Context, taskID string) ([]*model.TaskAccount, error) {
	byTask, err := r.ListByTasks(ctx, []string{taskID})
	return byTask[taskID], err
}

func (r *TaskAccountRepository) ListByTasks(_ context.Context, taskIDs []string) (map[string][]*model.TaskAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[string]bool, len(taskIDs))
	for _, id := range taskIDs {
		want[id] = true
	}
	out := make(map[string][]*model.TaskAccount, len(taskIDs))
	for _, id := range r.s.order {
		ta, ok := r.s.taskAccounts[id]
		if ok && want[ta.TaskID] {
			out[ta.TaskID] = append(out[ta.TaskID], copyTaskAccount(ta))
		}
	}
	return out, nil
}

func (r *TaskAccountRepository) settle(id string, fn func(ta *model.TaskAccount)) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ta, ok := r.s.taskAccounts[id]
	if !ok || ta.Status != model.TaskAccountPending {
		return
	}
	fn(ta)
	ta.UpdatedAt = r.s.clock.Now()
}

func (r *TaskAccountRepository) MarkSuccess(_ context.Context, id, publishedURL string, at time.Time) error {
	r.settle(id, func(ta *model.TaskAccount) {
		ta.Status = model.TaskAccountSuccess
		ta.PublishedURL = &publishedURL
		ta.PublishedAt = &at
		ta.ErrorMessage = nil
	})
	return nil
}

func (r *TaskAccountRepository) MarkFailed(_ context.Context, id, errMsg string) error {
	r.settle(id, func(ta *model.TaskAccount) {
		ta.Status = model.TaskAccountFailed
		ta.ErrorMessage = &errMsg
	})
	return nil
}

func (r *TaskAccountRepository) CompleteAll(_ context.Context, taskID, publishedURL string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.clock.Now()
	for _, ta := range r.s.taskAccounts {
		if ta.TaskID != taskID {
			continue
		}
		u, p := publishedURL, at
		ta.Status = model.TaskAccountSuccess
		if u != "" {
			ta.PublishedURL = &u
		}
		ta.PublishedAt = &p
		ta.ErrorMessage = nil
		ta.UpdatedAt = now
	}
	return nil
}

var (
	_ repository.IAccount     = (*AccountRepository)(nil)
	_ repository.ITask        = (*TaskRepository)(nil)
	_ repository.ITaskAccount = (*TaskAccountRepository)(nil)
)
