package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/infrastructure/logger"
	"mediahub/infrastructure/metrics"
	"mediahub/infrastructure/utils"
)

const taskListLimit = 50

// CreateTaskInput is one submission. It may expand into several tasks.
type CreateTaskInput struct {
	ContentType      model.ContentType                `json:"content_type"`
	Title            string                           `json:"title"`
	Description      *string                          `json:"description"`
	VideoURL         *string                          `json:"video_url"`
	VideoURLs        []string                         `json:"video_urls"`
	ImageURLs        []string                         `json:"image_urls"`
	ArticleContent   *string                          `json:"article_content"`
	CoverURL         *string                          `json:"cover_url"`
	Visibility       string                           `json:"visibility"`
	Topics           []string                         `json:"topics"`
	AccountIDs       []string                         `json:"account_ids"`
	AccountConfigs   map[string]model.ContentOverride `json:"account_configs"`
	DistributionMode model.DistributionMode           `json:"distribution_mode"`
	ScheduledAt      *time.Time                       `json:"scheduled_at"`
	UseShare         bool                             `json:"use_share"`
}

type TaskAccountView struct {
	ID           string                  `json:"id"`
	AccountID    string                  `json:"account_id"`
	Platform     string                  `json:"platform,omitempty"`
	Username     string                  `json:"username"`
	AvatarURL    *string                 `json:"avatar_url"`
	Status       model.TaskAccountStatus `json:"status"`
	ErrorMessage *string                 `json:"error_message"`
	PublishedURL *string                 `json:"published_url"`
	PublishedAt  *time.Time              `json:"published_at,omitempty"`
}

type TaskView struct {
	*model.PublishTask
	Accounts []TaskAccountView `json:"accounts"`
}

type CreateTaskResult struct {
	BatchID *string     `json:"batch_id,omitempty"`
	Tasks   []*TaskView `json:"tasks"`
}

type ITaskUsecase interface {
	Create(ctx context.Context, userID string, in CreateTaskInput) (*CreateTaskResult, error)
	Get(ctx context.Context, userID, taskID string) (*TaskView, error)
	List(ctx context.Context, userID string) ([]*TaskView, error)
	Cancel(ctx context.Context, userID, taskID string) error
}

type TaskUsecase struct {
	tasks        repository.ITask
	taskAccounts repository.ITaskAccount
	accounts     repository.IAccount
	registry     repository.IPlatformRegistry
	dispatcher   IDispatcher
	events       repository.ITaskEventSink
	metrics      *metrics.Metrics
	clock        utils.Clock
}

func NewTaskUsecase(tasks repository.ITask, taskAccounts repository.ITaskAccount, accounts repository.IAccount,
	registry repository.IPlatformRegistry, dispatcher IDispatcher, events repository.ITaskEventSink, m *metrics.Metrics, clock utils.Clock) *TaskUsecase {
	return &TaskUsecase{
		tasks:        tasks,
		taskAccounts: taskAccounts,
		accounts:     accounts,
		registry:     registry,
		dispatcher:   dispatcher,
		events:       events,
		metrics:      m,
		clock:        clock,
	}
}

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", model.ErrValidation, fmt.Sprintf(format, args...))
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// items lists the content variants of a submission: one per video for
// video content, exactly one otherwise.
func (in *CreateTaskInput) items() []*string {
	if in.ContentType != model.ContentTypeVideo {
		return []*string{nil}
	}
	var out []*string
	for _, u := range in.VideoURLs {
		if strings.TrimSpace(u) == "" {
			continue
		}
		u := u
		out = append(out, &u)
	}
	if len(out) == 0 {
		out = append(out, in.VideoURL)
	}
	return out
}

func (u *TaskUsecase) Create(ctx context.Context, userID string, in CreateTaskInput) (*CreateTaskResult, error) {
	now := u.clock.Now()
	accountIDs := dedupe(in.AccountIDs)
	if len(accountIDs) == 0 {
		return nil, validationf("at least one account is required")
	}
	mode := in.DistributionMode
	if mode == "" {
		mode = model.DistributionBroadcast
	}
	if mode != model.DistributionBroadcast && mode != model.DistributionOneToOne {
		return nil, validationf("unknown distribution_mode %q", mode)
	}
	items := in.items()
	if mode == model.DistributionOneToOne && len(items) < 2 {
		return nil, validationf("one_to_one distribution needs at least two items")
	}

	// every item is validated before anything is written
	tasks := make([]*model.PublishTask, 0, len(items))
	for _, videoURL := range items {
		t := &model.PublishTask{
			UserID:           userID,
			ContentType:      in.ContentType,
			Title:            strings.TrimSpace(in.Title),
			Description:      in.Description,
			VideoURL:         videoURL,
			ImageURLs:        in.ImageURLs,
			ArticleContent:   in.ArticleContent,
			CoverURL:         in.CoverURL,
			Visibility:       in.Visibility,
			Topics:           in.Topics,
			DistributionMode: mode,
			ScheduledAt:      in.ScheduledAt,
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	accounts, err := u.loadAccounts(ctx, userID, accountIDs)
	if err != nil {
		return nil, err
	}

	status := model.TaskStatusPublishing
	switch {
	case in.ScheduledAt != nil && in.ScheduledAt.After(now):
		status = model.TaskStatusScheduled
	case in.UseShare:
		if err := u.checkShareable(in, items, accounts); err != nil {
			return nil, err
		}
		status = model.TaskStatusPendingShare
	}
	if status != model.TaskStatusScheduled {
		for _, t := range tasks {
			t.ScheduledAt = nil
		}
	}

	var batchID *string
	if len(tasks) > 1 {
		b := uuid.NewString()
		batchID = &b
	}

	batch := make([]repository.NewTask, 0, len(tasks))
	for i, t := range tasks {
		t.ID = uuid.NewString()
		t.Status = status
		t.BatchID = batchID
		if status == model.TaskStatusPendingShare {
			shareID, err := utils.URLSafeToken(16)
			if err != nil {
				return nil, err
			}
			t.ShareID = &shareID
		}
		targets := accounts
		if mode == model.DistributionOneToOne {
			targets = []*model.Account{accounts[i%len(accounts)]}
		}
		nt := repository.NewTask{Task: t}
		for _, acc := range targets {
			ta := &model.TaskAccount{
				ID:        uuid.NewString(),
				TaskID:    t.ID,
				AccountID: acc.ID,
				Status:    model.TaskAccountPending,
			}
			if o, ok := in.AccountConfigs[acc.ID]; ok {
				o := o
				ta.Override = &o
			}
			nt.Accounts = append(nt.Accounts, ta)
		}
		batch = append(batch, nt)
	}

	if err := u.tasks.CreateWithAccounts(ctx, batch); err != nil {
		return nil, err
	}

	byID := make(map[string]*model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	result := &CreateTaskResult{BatchID: batchID}
	for _, nt := range batch {
		u.metrics.TaskCreated(string(nt.Task.ContentType), string(nt.Task.Status))
		logger.GetLogger().
			WithField("task_id", nt.Task.ID).
			WithField("status", nt.Task.Status).
			WithField("accounts", len(nt.Accounts)).
			Info("Publish task created")
		result.Tasks = append(result.Tasks, toView(nt.Task, nt.Accounts, byID))

		if status != model.TaskStatusPublishing {
			continue
		}
		jobs := make([]Job, 0, len(nt.Accounts))
		for _, ta := range nt.Accounts {
			jobs = append(jobs, Job{TaskAccount: ta, Account: byID[ta.AccountID]})
		}
		if err := u.dispatcher.Submit(nt.Task, jobs); err != nil {
			logger.GetLogger().WithField("error", err).WithField("task_id", nt.Task.ID).Error("Error while dispatching task")
		}
	}
	return result, nil
}

func (u *TaskUsecase) loadAccounts(ctx context.Context, userID string, ids []string) ([]*model.Account, error) {
	found, err := u.accounts.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Account, len(found))
	for _, a := range found {
		if a.UserID == userID {
			byID[a.ID] = a
		}
	}
	out := make([]*model.Account, 0, len(ids))
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: account %s not found", model.ErrInvalidAccount, id)
		}
		if !a.IsActive() {
			return nil, fmt.Errorf("%w: account %s is not active", model.ErrInvalidAccount, a.Username)
		}
		out = append(out, a)
	}
	return out, nil
}

func (u *TaskUsecase) checkShareable(in CreateTaskInput, items []*string, accounts []*model.Account) error {
	if in.ContentType != model.ContentTypeVideo || len(items) != 1 {
		return validationf("the share flow takes exactly one video")
	}
	for _, a := range accounts {
		p, err := u.registry.Get(a.Platform)
		if err != nil {
			return err
		}
		if _, ok := p.(repository.IShareLinker); !ok {
			return validationf("%s does not support share links", a.Platform)
		}
	}
	return nil
}

func (u *TaskUsecase) Get(ctx context.Context, userID, taskID string) (*TaskView, error) {
	task, err := u.tasks.GetForUser(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	tas, err := u.taskAccounts.ListByTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	byID, err := u.accountIndex(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toView(task, tas, byID), nil
}

func (u *TaskUsecase) List(ctx context.Context, userID string) ([]*TaskView, error) {
	tasks, err := u.tasks.ListByUser(ctx, userID, taskListLimit)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return []*TaskView{}, nil
	}
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	byTask, err := u.taskAccounts.ListByTasks(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID, err := u.accountIndex(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*TaskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toView(t, byTask[t.ID], byID))
	}
	return out, nil
}

// Cancel is only legal before dispatch. In-flight publishes are not interrupted.
func (u *TaskUsecase) Cancel(ctx context.Context, userID, taskID string) error {
	task, err := u.tasks.GetForUser(ctx, userID, taskID)
	if err != nil {
		return err
	}
	n, err := u.tasks.TransitionStatus(ctx, task.ID, model.CancellableStatuses, model.TaskStatusCancelled)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: task is %s", model.ErrInvalidState, task.Status)
	}
	logger.GetLogger().WithField("task_id", task.ID).Info("Task cancelled")
	_ = u.events.Emit(ctx, &model.TaskEvent{
		Type:   model.TaskEventStatusChanged,
		TaskID: task.ID,
		UserID: task.UserID,
		Status: string(model.TaskStatusCancelled),
		At:     u.clock.Now(),
	})
	return nil
}

func (u *TaskUsecase) accountIndex(ctx context.Context, userID string) (map[string]*model.Account, error) {
	list, err := u.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Account, len(list))
	for _, a := range list {
		byID[a.ID] = a
	}
	return byID, nil
}

func toView(t *model.PublishTask, tas []*model.TaskAccount, accounts map[string]*model.Account) *TaskView {
	v := &TaskView{PublishTask: t, Accounts: make([]TaskAccountView, 0, len(tas))}
	for _, ta := range tas {
		av := TaskAccountView{
			ID:           ta.ID,
			AccountID:    ta.AccountID,
			Username:     "Unknown",
			Status:       ta.Status,
			ErrorMessage: ta.ErrorMessage,
			PublishedURL: ta.PublishedURL,
			PublishedAt:  ta.PublishedAt,
		}
		if a, ok := accounts[ta.AccountID]; ok {
			av.Platform = a.Platform
			av.Username = a.Username
			av.AvatarURL = a.AvatarURL
		}
		v.Accounts = append(v.Accounts, av)
	}
	return v
}

var _ ITaskUsecase = (*TaskUsecase)(nil)
