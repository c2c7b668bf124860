package usecase

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mediahub/domain/model"
)

// runAndWait submits one task and waits for the fan-out to finish.
func runAndWait(t *testing.T, d *Dispatcher, task *model.PublishTask, jobs []Job) {
	t.Helper()
	require.NoError(t, d.Submit(task, jobs))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))
}

func jobsFor(t *testing.T, e *env, task *model.PublishTask) []Job {
	t.Helper()
	tas, err := e.store.TaskAccounts().ListByTask(context.Background(), task.ID)
	require.NoError(t, err)
	jobs, err := BuildJobs(context.Background(), e.store.Accounts(), tas)
	require.NoError(t, err)
	return jobs
}

func settled(t *testing.T, e *env, taskID string) (model.TaskStatus, map[string]*model.TaskAccount) {
	t.Helper()
	task, err := e.store.Tasks().GetByID(context.Background(), taskID)
	require.NoError(t, err)
	tas, err := e.store.TaskAccounts().ListByTask(context.Background(), taskID)
	require.NoError(t, err)
	byAccount := map[string]*model.TaskAccount{}
	for _, ta := range tas {
		byAccount[ta.AccountID] = ta
	}
	return task.Status, byAccount
}

func TestDispatcher_MixedResultsComplete(t *testing.T) {
	e := newEnv()
	e.addAccount(t, "a1", "user-1", "douyin", model.AccountStatusActive)
	e.addAccount(t, "a2", "user-1", "douyin", model.AccountStatusActive)
	e.douyin.publishFn = func(_ context.Context, req model.PublishVideoRequest) (string, error) {
		if req.OpenID == "open-a2" {
			return "", errors.New(strings.Repeat("x", 800))
		}
		return "777", nil
	}
	task := e.seedTask(t, "task-1", model.TaskStatusPublishing, "a1", "a2")

	runAndWait(t, e.dispatcher(4), task, jobsFor(t, e, task))

	status, accounts := settled(t, e, "task-1")
	assert.Equal(t, model.TaskStatusCompleted, status)
	assert.Equal(t, model.TaskAccountSuccess, accounts["a1"].Status)
	assert.Equal(t, "https://douyin.example/video/777", *accounts["a1"].PublishedURL)
	assert.True(t, accounts["a1"].PublishedAt.Equal(t0))
	assert.Equal(t, model.TaskAccountFailed, accounts["a2"].Status)
	assert.Len(t, *accounts["a2"].ErrorMessage, 500)

	// exactly one attempt per account
	assert.Len(t, e.douyin.Calls(), 2)

	var changed []model.TaskEvent
	for _, evt := range e.sink.Events() {
		if evt.Type == model.TaskEventStatusChanged {
			changed = append(changed, evt)
		}
	}
	require.Len(t, changed, 1)
	assert.Equal(t, "completed", changed[0].Status)
}

func TestDispatcher_AllFailed(t *testing.T) {
	e := newEnv()
	e.addAccount(t, "a1", "user-1", "douyin", model.AccountStatusActive)
	e.addAccount(t, "a2", "user-1", "kuaishou", model.AccountStatusActive)
	e.douyin.publishFn = func(context.Context, model.PublishVideoRequest) (string, error) {
		panic("adapter bug")
	}
	task := e.seedTask(t, "task-1", model.TaskStatusPublishing, "a1", "a2")

	runAndWait(t, e.dispatcher(4), task, jobsFor(t, e, task))

	status, accounts := settled(t, e, "task-1")
	assert.Equal(t, model.TaskStatusFailed, status)
	assert.Contains(t, *accounts["a1"].ErrorMessage, "panicked")
	assert.Contains(t, *accounts["a2"].ErrorMessage, "not configured")
}

func TestDispatcher_UnusableAccountsFailWithoutCalls(t *testing.T) {
	e := newEnv()
	e.addAccount(t, "expired", "user-1", "douyin", model.AccountStatusExpired)
	task := e.seedTask(t, "task-1", model.TaskStatusPublishing, "expired", "deleted")

	runAndWait(t, e.dispatcher(4), task, jobsFor(t, e, task))

	status, accounts := settled(t, e, "task-1")
	assert.Equal(t, model.TaskStatusFailed, status)
	assert.Contains(t, *accounts["expired"].ErrorMessage, "expired")
	assert.Contains(t, *accounts["deleted"].ErrorMessage, "no longer exists")
	assert.Empty(t, e.douyin.Calls())
}

func TestDispatcher_NonVideoContentFails(t *testing.T) {
	e := newEnv()
	e.addAccount(t, "a1", "user-1", "douyin", model.AccountStatusActive)
	task := e.seedTask(t, "task-1", model.TaskStatusPublishing, "a1")
	task.ContentType = model.ContentTypeArticle

	runAndWait(t, e.dispatcher(4), task, jobsFor(t, e, task))

	_, accounts := settled(t, e, "task-1")
	assert.Equal(t, model.TaskAccountFailed, accounts["a1"].Status)
	assert.Contains(t, *accounts["a1"].ErrorMessage, "unsupported content")
	assert.Empty(t, e.douyin.Calls())
}

func TestDispatcher_AppliesOverride(t *testing.T) {
	e := newEnv()
	e.addAccount(t, "a1", "user-1", "douyin", model.AccountStatusActive)
	task := e.seedTask(t, "task-1", model.TaskStatusPublishing, "a1")
	task.Visibility = "private"
	jobs := jobsFor(t, e, task)
	jobs[0].TaskAccount.Override = &model.ContentOverride{Title: strPtr("Custom"), Topics: []string{"city"}}

	runAndWait(t, e.dispatcher(4), task, jobs)

	calls := e.douyin.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Custom", calls[0].Title)
	assert.Equal(t, []string{"city"}, calls[0].Topics)
	assert.Equal(t, "token-a1", calls[0].AccessToken)
	assert.Equal(t, "private", calls[0].Visibility)
	assert.Equal(t, "https://cdn.example/task-1.mp4", calls[0].VideoURL)
}

func TestDispatcher_CallTimeoutFailsAccount(t *testing.T) {
	e := newEnv()
	e.addAccount(t, "a1", "user-1", "douyin", model.AccountStatusActive)
	e.douyin.publishFn = func(ctx context.Context, _ model.PublishVideoRequest) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	task := e.seedTask(t, "task-1", model.TaskStatusPublishing, "a1")
	d := NewDispatcher(DispatcherConfig{MaxConcurrency: 1, CallTimeout: 20 * time.Millisecond},
		e.registry, e.store.TaskAccounts(), e.aggregator(), e.sink, nil, e.clock)

	runAndWait(t, d, task, jobsFor(t, e, task))

	status, accounts := settled(t, e, "task-1")
	assert.Equal(t, model.TaskStatusFailed, status)
	assert.Contains(t, *accounts["a1"].ErrorMessage, "deadline exceeded")
}

func TestDispatcher_BoundsConcurrency(t *testing.T) {
	e := newEnv()
	ids := []string{"a1", "a2", "a3", "a4", "a5", "a6"}
	for _, id := range ids {
		e.addAccount(t, id, "user-1", "douyin", model.AccountStatusActive)
	}
	var running, peak int64
	e.douyin.publishFn = func(context.Context, model.PublishVideoRequest) (string, error) {
		n := atomic.AddInt64(&running, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&running, -1)
		return "ok", nil
	}
	task := e.seedTask(t, "task-1", model.TaskStatusPublishing, ids...)

	runAndWait(t, e.dispatcher(2), task, jobsFor(t, e, task))

	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(2))
	status, _ := settled(t, e, "task-1")
	assert.Equal(t, model.TaskStatusCompleted, status)
}

func TestDispatcher_RejectsAfterShutdown(t *testing.T) {
	e := newEnv()
	d := e.dispatcher(1)
	require.NoError(t, d.Shutdown(context.Background()))
	err := d.Submit(&model.PublishTask{ID: "x"}, nil)
	assert.True(t, errors.Is(err, ErrDispatcherClosed))
}

func TestBuildJobs_SkipsSettled(t *testing.T) {
	e := newEnv()
	e.addAccount(t, "a1", "user-1", "douyin", model.AccountStatusActive)
	e.addAccount(t, "a2", "user-1", "douyin", model.AccountStatusActive)
	task := e.seedTask(t, "task-1", model.TaskStatusPublishing, "a1", "a2")
	require.NoError(t, e.store.TaskAccounts().MarkFailed(context.Background(), "task-1-ta-0", "boom"))

	jobs := jobsFor(t, e, task)
	require.Len(t, jobs, 1)
	assert.Equal(t, "a2", jobs[0].Account.ID)
}
