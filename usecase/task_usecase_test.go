package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"mediahub/domain/model"
)

func videoInput(accounts ...string) CreateTaskInput {
	return CreateTaskInput{
		ContentType: model.ContentTypeVideo,
		Title:       "Sunset",
		VideoURL:    strPtr("https://cdn.example/sunset.mp4"),
		AccountIDs:  accounts,
	}
}

func submittedJobs(d *MockDispatcher) [][]Job {
	var out [][]Job
	for _, c := range d.Calls {
		if c.Method == "Submit" {
			out = append(out, c.Arguments.Get(1).([]Job))
		}
	}
	return out
}

func TestTaskUsecase_CreateBroadcast(t *testing.T) {
	e := newEnv()
	for _, id := range []string{"a1", "a2", "a3"} {
		e.addAccount(t, id, "user-1", "douyin", model.AccountStatusActive)
	}
	d := new(MockDispatcher)
	d.On("Submit", mock.Anything, mock.Anything).Return(nil)
	u := e.taskUsecase(d)

	res, err := u.Create(context.Background(), "user-1", videoInput("a1", "a2", "a3", "a2"))
	require.NoError(t, err)
	require.Len(t, res.Tasks, 1)
	assert.Nil(t, res.BatchID)

	task := res.Tasks[0]
	assert.Equal(t, model.TaskStatusPublishing, task.Status)
	assert.Equal(t, model.DistributionBroadcast, task.DistributionMode)
	require.Len(t, task.Accounts, 3)
	assert.Equal(t, "user a1", task.Accounts[0].Username)

	jobs := submittedJobs(d)
	require.Len(t, jobs, 1)
	assert.Len(t, jobs[0], 3)

	stored, err := e.store.TaskAccounts().ListByTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestTaskUsecase_CreateOneToOneRoundRobin(t *testing.T) {
	e := newEnv()
	e.addAccount(t, "a1", "user-1", "douyin", model.AccountStatusActive)
	e.addAccount(t, "a2", "user-1", "douyin", model.AccountStatusActive)
	d := new(MockDispatcher)
	d.On("Submit", mock.Anything, mock.Anything).Return(nil)
	u := e.taskUsecase(d)

	in := videoInput("a1", "a2")
	in.DistributionMode = model.DistributionOneToOne
	in.VideoURLs = []string{"https://cdn/1.mp4", "https://cdn/2.mp4", "https://cdn/3.mp4"}

	res, err := u.Create(context.Background(), "user-1", in)
	require.NoError(t, err)
	require.Len(t, res.Tasks, 3)
	require.NotNil(t, res.BatchID)

	want := []string{"a1", "a2", "a1"}
	for i, task := range res.Tasks {
		require.Len(t, task.Accounts, 1)
		assert.Equal(t, want[i], task.Accounts[0].AccountID)
		assert.Equal(t, *res.BatchID, *task.BatchID)
		assert.Equal(t, in.VideoURLs[i], *task.VideoURL)
	}
	assert.Len(t, submittedJobs(d), 3)
}

func TestTaskUsecase_CreateBroadcastMultipleItems(t *testing.T) {
	e := newEnv()
	e.addAccount(t, "a1", "user-1", "douyin", model.AccountStatusActive)
	e.addAccount(t, "a2", "user-1", "youtube", model.AccountStatusActive)
	d := new(MockDispatcher)
	d.On("Submit", mock.Anything, mock.Anything).Return(nil)

	in := videoInput("a1", "a2")
	in.VideoURLs = []string{"https://cdn/1.mp4", "https://cdn/2.mp4"}
	res, err := e.taskUsecase(d).Create(context.Background(), "user-1", in)
	require.NoError(t, err)
	require.Len(t, res.Tasks, 2)
	for _, task := range res.Tasks {
		assert.Len(t, task.Accounts, 2)
	}
}

func TestTaskUsecase_CreateRejectsWithoutWrites(t *testing.T) {
	tests := []struct {
		name    string
		input   func() CreateTaskInput
		wantErr error
	}{
		{"no accounts", func() CreateTaskInput { return videoInput() }, model.ErrValidation},
		{"one_to_one single item", func() CreateTaskInput {
			in := videoInput("a1", "a2")
			in.DistributionMode = model.DistributionOneToOne
			return in
		}, model.ErrValidation},
		{"unknown mode", func() CreateTaskInput {
			in := videoInput("a1")
			in.DistributionMode = "random"
			return in
		}, model.ErrValidation},
		{"video without url", func() CreateTaskInput {
			in := videoInput("a1")
			in.VideoURL = nil
			return in
		}, model.ErrValidation},
		{"foreign account", func() CreateTaskInput { return videoInput("a1", "foreign") }, model.ErrInvalidAccount},
		{"expired account", func() CreateTaskInput { return videoInput("a1", "expired") }, model.ErrInvalidAccount},
		{"missing account", func() CreateTaskInput { return videoInput("a1", "ghost") }, model.ErrInvalidAccount},
		{"share on unsupported platform", func() CreateTaskInput {
			in := videoInput("yt")
			in.UseShare = true
			return in
		}, model.ErrValidation},
		{"share with several videos", func() CreateTaskInput {
			in := videoInput("a1")
			in.UseShare = true
			in.VideoURLs = []string{"https://cdn/1.mp4", "https://cdn/2.mp4"}
			return in
		}, model.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv()
			e.addAccount(t, "a1", "user-1", "douyin", model.AccountStatusActive)
			e.addAccount(t, "a2", "user-1", "douyin", model.AccountStatusActive)
			e.addAccount(t, "yt", "user-1", "youtube", model.AccountStatusActive)
			e.addAccount(t, "expired", "user-1", "douyin", model.AccountStatusExpired)
			e.addAccount(t, "foreign", "user-2", "douyin", model.AccountStatusActive)
			d := new(MockDispatcher)
			u := e.taskUsecase(d)

			_, err := u.Create(context.Background(), "user-1", tt.input())
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

			list, err := u.List(context.Background(), "user-1")
			require.NoError(t, err)
			assert.Empty(t, list)
			d.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
		})
	}
}

func TestTaskUsecase_CreateScheduled(t *testing.T) {
	e := newEnv()
	e.addAccount(t, "a1", "user-1", "douyin", model.AccountStatusActive)
	d := new(MockDispatcher)
	u := e.taskUsecase(d)

	in := videoInput("a1")
	at := t0.Add(time.Hour)
	in.ScheduledAt = &at
	in.UseShare = true

	res, err := u.Create(context.Background(), "user-1", in)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusScheduled, res.Tasks[0].Status)
	assert.Nil(t, res.Tasks[0].ShareID)
	d.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestTaskUsecase_CreatePastScheduleDispatchesNow(t *testing.T) {
	e := newEnv()
	e.addAccount(t, "a1", "user-1", "douyin", model.AccountStatusActive)
	d := new(MockDispatcher)
	d.On("Submit", mock.Anything, mock.Anything).Return(nil)

	in := videoInput("a1")
	at := t0.Add(-time.Minute)
	in.ScheduledAt = &at

	res, err := e.taskUsecase(d).Create(context.Background(), "user-1", in)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusPublishing, res.Tasks[0].Status)
	assert.Nil(t, res.Tasks[0].ScheduledAt)
	d.AssertNumberOfCalls(t, "Submit", 1)
}

func TestTaskUsecase_CreateShareFlow(t *testing.T) {
	e := newEnv()
	e.addAccount(t, "a1", "user-1", "douyin", model.AccountStatusActive)
	d := new(MockDispatcher)

	in := videoInput("a1")
	in.UseShare = true
	res, err := e.taskUsecase(d).Create(context.Background(), "user-1", in)
	require.NoError(t, err)

	task := res.Tasks[0]
	assert.Equal(t, model.TaskStatusPendingShare, task.Status)
	require.NotNil(t, task.ShareID)
	assert.Len(t, *task.ShareID, 22)
	d.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestTaskUsecase_CreateKeepsOverridePerAccount(t *testing.T) {
	e := newEnv()
	e.addAccount(t, "a1", "user-1", "douyin", model.AccountStatusActive)
	e.addAccount(t, "a2", "user-1", "douyin", model.AccountStatusActive)
	d := new(MockDispatcher)
	d.On("Submit", mock.Anything, mock.Anything).Return(nil)

	in := videoInput("a1", "a2")
	in.AccountConfigs = map[string]model.ContentOverride{"a2": {Title: strPtr("Alt title")}}
	_, err := e.taskUsecase(d).Create(context.Background(), "user-1", in)
	require.NoError(t, err)

	jobs := submittedJobs(d)[0]
	byAccount := map[string]Job{}
	for _, j := range jobs {
		byAccount[j.TaskAccount.AccountID] = j
	}
	assert.Nil(t, byAccount["a1"].TaskAccount.Override)
	require.NotNil(t, byAccount["a2"].TaskAccount.Override)
	assert.Equal(t, "Alt title", *byAccount["a2"].TaskAccount.Override.Title)
}

func TestTaskUsecase_Cancel(t *testing.T) {
	e := newEnv()
	u := e.taskUsecase(new(MockDispatcher))
	ctx := context.Background()

	e.seedTask(t, "scheduled", model.TaskStatusScheduled, "a1")
	e.seedTask(t, "share", model.TaskStatusPendingShare, "a1")
	e.seedTask(t, "running", model.TaskStatusPublishing, "a1")

	require.NoError(t, u.Cancel(ctx, "user-1", "scheduled"))
	require.NoError(t, u.Cancel(ctx, "user-1", "share"))

	err := u.Cancel(ctx, "user-1", "running")
	assert.True(t, errors.Is(err, model.ErrInvalidState))
	err = u.Cancel(ctx, "user-1", "scheduled")
	assert.True(t, errors.Is(err, model.ErrInvalidState))
	err = u.Cancel(ctx, "user-2", "share")
	assert.True(t, errors.Is(err, model.ErrNotFound))

	got, err := u.Get(ctx, "user-1", "scheduled")
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCancelled, got.Status)
	// accounts stay pending
	assert.Equal(t, model.TaskAccountPending, got.Accounts[0].Status)
	assert.Equal(t, "Unknown", got.Accounts[0].Username)

	running, err := u.Get(ctx, "user-1", "running")
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusPublishing, running.Status)
}

func TestTaskUsecase_ListNewestFirst(t *testing.T) {
	e := newEnv()
	e.addAccount(t, "a1", "user-1", "douyin", model.AccountStatusActive)
	u := e.taskUsecase(new(MockDispatcher))

	e.seedTask(t, "old", model.TaskStatusScheduled, "a1")
	e.clock.Advance(time.Minute)
	e.seedTask(t, "new", model.TaskStatusScheduled, "a1")

	list, err := u.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "user a1", list[0].Accounts[0].Username)

	empty, err := u.List(context.Background(), "user-2")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
