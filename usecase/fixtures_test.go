package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/infrastructure/clients"
	"mediahub/infrastructure/clients/stub"
	"mediahub/infrastructure/persistence/memory"
	"mediahub/infrastructure/utils"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fakePlatform records publish calls and answers with publishFn.
type fakePlatform struct {
	name      string
	mu        sync.Mutex
	calls     []model.PublishVideoRequest
	publishFn func(ctx context.Context, req model.PublishVideoRequest) (string, error)
	refreshFn func(refreshToken string) (*model.PlatformToken, error)
}

func (p *fakePlatform) Name() string { return p.name }

func (p *fakePlatform) AuthURL(state string) (string, error) {
	return "https://" + p.name + ".example/authorize?state=" + state, nil
}

func (p *fakePlatform) ExchangeToken(_ context.Context, code string) (*model.PlatformToken, error) {
	if code == "bad" {
		return nil, errors.New("invalid code")
	}
	return &model.PlatformToken{AccessToken: "at-" + code, RefreshToken: "rt-" + code, OpenID: "open-1", ExpiresIn: 7200}, nil
}

func (p *fakePlatform) RefreshToken(_ context.Context, refreshToken string) (*model.PlatformToken, error) {
	if p.refreshFn != nil {
		return p.refreshFn(refreshToken)
	}
	return &model.PlatformToken{AccessToken: "at-new", RefreshToken: "rt-new", ExpiresIn: 3600}, nil
}

func (p *fakePlatform) UserInfo(context.Context, string, string) (*model.PlatformUser, error) {
	return &model.PlatformUser{Username: "creator", AvatarURL: "https://img/avatar.png"}, nil
}

func (p *fakePlatform) PublishVideo(ctx context.Context, req model.PublishVideoRequest) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	p.mu.Unlock()
	if p.publishFn != nil {
		return p.publishFn(ctx, req)
	}
	return "item-" + req.OpenID, nil
}

func (p *fakePlatform) ItemURL(itemID string) string { return "https://" + p.name + ".example/video/" + itemID }

func (p *fakePlatform) Calls() []model.PublishVideoRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.PublishVideoRequest(nil), p.calls...)
}

// shareablePlatform also signs share links.
type shareablePlatform struct {
	*fakePlatform
	lastShare model.ShareParams
}

func (p *shareablePlatform) ShareURL(_ context.Context, params model.ShareParams) (string, error) {
	p.lastShare = params
	return "snssdk1128://openplatform/share?state=" + params.ShareID, nil
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Submit(task *model.PublishTask, jobs []Job) error {
	args := m.Called(task, jobs)
	return args.Error(0)
}

// recordingSink keeps every emitted event.
type recordingSink struct {
	mu     sync.Mutex
	events []model.TaskEvent
}

func (s *recordingSink) Emit(_ context.Context, evt *model.TaskEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *evt)
	return nil
}

func (s *recordingSink) Events() []model.TaskEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.TaskEvent(nil), s.events...)
}

type env struct {
	clock    *utils.FakeClock
	store    *memory.Store
	douyin   *shareablePlatform
	youtube  *fakePlatform
	registry *clients.Registry
	sink     *recordingSink
}

func newEnv() *env {
	clock := utils.NewFakeClock(t0)
	douyin := &shareablePlatform{fakePlatform: &fakePlatform{name: clients.Douyin}}
	youtube := &fakePlatform{name: clients.YouTube}
	return &env{
		clock:    clock,
		store:    memory.NewStore(clock),
		douyin:   douyin,
		youtube:  youtube,
		registry: clients.NewRegistry(douyin, youtube, stub.New(clients.Kuaishou)),
		sink:     &recordingSink{},
	}
}

func (e *env) addAccount(t *testing.T, id, userID, platform string, status model.AccountStatus) *model.Account {
	t.Helper()
	a := &model.Account{
		ID:             id,
		UserID:         userID,
		Platform:       platform,
		PlatformUserID: "open-" + id,
		Username:       "user " + id,
		AccessToken:    "token-" + id,
		RefreshToken:   "refresh-" + id,
		Status:         status,
	}
	require.NoError(t, e.store.Accounts().Create(context.Background(), a))
	return a
}

func (e *env) aggregator() *Aggregator {
	return NewAggregator(e.store.Tasks(), e.store.TaskAccounts(), e.sink, e.clock)
}

func (e *env) dispatcher(maxConcurrency int) *Dispatcher {
	return NewDispatcher(DispatcherConfig{MaxConcurrency: maxConcurrency, CallTimeout: time.Second},
		e.registry, e.store.TaskAccounts(), e.aggregator(), e.sink, nil, e.clock)
}

func (e *env) taskUsecase(d IDispatcher) *TaskUsecase {
	return NewTaskUsecase(e.store.Tasks(), e.store.TaskAccounts(), e.store.Accounts(), e.registry, d, e.sink, nil, e.clock)
}

// seedTask writes a task with one pending task account per account id.
func (e *env) seedTask(t *testing.T, id string, status model.TaskStatus, accountIDs ...string) *model.PublishTask {
	t.Helper()
	return e.seedTaskAt(t, id, status, nil, accountIDs...)
}

func (e *env) seedTaskAt(t *testing.T, id string, status model.TaskStatus, scheduledAt *time.Time, accountIDs ...string) *model.PublishTask {
	t.Helper()
	video := "https://cdn.example/" + id + ".mp4"
	task := &model.PublishTask{
		ID: id, UserID: "user-1", ContentType: model.ContentTypeVideo, Title: "Title " + id,
		VideoURL: &video, DistributionMode: model.DistributionBroadcast, Status: status, ScheduledAt: scheduledAt,
	}
	nt := repository.NewTask{Task: task}
	for i, a := range accountIDs {
		nt.Accounts = append(nt.Accounts, &model.TaskAccount{
			ID: fmt.Sprintf("%s-ta-%d", id, i), TaskID: id, AccountID: a, Status: model.TaskAccountPending,
		})
	}
	require.NoError(t, e.store.Tasks().CreateWithAccounts(context.Background(), []repository.NewTask{nt}))
	return task
}

func strPtr(s string) *string { return &s }
