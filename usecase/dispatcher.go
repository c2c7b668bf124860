package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/infrastructure/logger"
	"mediahub/infrastructure/metrics"
	"mediahub/infrastructure/utils"
)

const maxErrorMessage = 500

var ErrDispatcherClosed = errors.New("dispatcher is shut down")

// Job is one pending task account and the account it publishes to.
// Account is nil when the row has since been deleted.
type Job struct {
	TaskAccount *model.TaskAccount
	Account     *model.Account
}

type IDispatcher interface {
	// Submit starts publishing jobs in the background and returns immediately.
	Submit(task *model.PublishTask, jobs []Job) error
}

type DispatcherConfig struct {
	MaxConcurrency int
	CallTimeout    time.Duration
}

type Dispatcher struct {
	registry     repository.IPlatformRegistry
	taskAccounts repository.ITaskAccount
	aggregator   *Aggregator
	events       repository.ITaskEventSink
	metrics      *metrics.Metrics
	clock        utils.Clock

	sem         *semaphore.Weighted
	callTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

func NewDispatcher(cfg DispatcherConfig, registry repository.IPlatformRegistry, taskAccounts repository.ITaskAccount,
	aggregator *Aggregator, events repository.ITaskEventSink, m *metrics.Metrics, clock utils.Clock) *Dispatcher {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 16
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 300 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		registry:     registry,
		taskAccounts: taskAccounts,
		aggregator:   aggregator,
		events:       events,
		metrics:      m,
		clock:        clock,
		sem:          semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
		callTimeout:  cfg.CallTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (d *Dispatcher) Submit(task *model.PublishTask, jobs []Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	d.wg.Add(1)
	go d.run(task, jobs)
	return nil
}

func (d *Dispatcher) run(task *model.PublishTask, jobs []Job) {
	defer d.wg.Done()
	var g errgroup.Group
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			d.publishOne(d.ctx, task, job)
			return nil
		})
	}
	_ = g.Wait()
	// settles tasks whose accounts were all resolved before dispatch
	if _, err := d.aggregator.Evaluate(d.ctx, task); err != nil {
		logger.GetLogger().WithField("error", err).WithField("task_id", task.ID).Error("Error while aggregating task")
	}
}

func (d *Dispatcher) publishOne(ctx context.Context, task *model.PublishTask, job Job) {
	ta := job.TaskAccount
	lg := logger.GetLogger().WithField("task_id", task.ID).WithField("task_account_id", ta.ID)

	var url string
	err := d.sem.Acquire(ctx, 1)
	if err == nil {
		done := d.metrics.TrackInFlight()
		url, err = d.publish(ctx, task, job)
		done()
		d.sem.Release(1)
	}

	platform := ""
	if job.Account != nil {
		platform = job.Account.Platform
	}
	d.metrics.AccountPublished(platform, err == nil)

	// settlement must survive a forced shutdown of the publish context
	sctx := context.WithoutCancel(ctx)
	evt := &model.TaskEvent{
		Type:          model.TaskEventAccountSettled,
		TaskID:        task.ID,
		UserID:        task.UserID,
		TaskAccountID: ta.ID,
		AccountID:     ta.AccountID,
		At:            d.clock.Now(),
	}
	if err != nil {
		msg := utils.Truncate(err.Error(), maxErrorMessage)
		lg.WithField("error", msg).Warn("Publish failed")
		if werr := d.taskAccounts.MarkFailed(sctx, ta.ID, msg); werr != nil {
			lg.WithField("error", werr).Error("Error while marking task account failed")
			return
		}
		evt.Status = string(model.TaskAccountFailed)
		evt.Error = &msg
	} else {
		lg.WithField("published_url", url).Info("Publish succeeded")
		if werr := d.taskAccounts.MarkSuccess(sctx, ta.ID, url, evt.At); werr != nil {
			lg.WithField("error", werr).Error("Error while marking task account success")
			return
		}
		evt.Status = string(model.TaskAccountSuccess)
		evt.PublishedURL = &url
	}
	_ = d.events.Emit(sctx, evt)

	if _, aerr := d.aggregator.Evaluate(sctx, task); aerr != nil {
		lg.WithField("error", aerr).Error("Error while aggregating task")
	}
}

// publish makes exactly one adapter call. Panics become errors.
func (d *Dispatcher) publish(ctx context.Context, task *model.PublishTask, job Job) (url string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("publish panicked: %v", r)
		}
	}()
	if job.Account == nil {
		return "", fmt.Errorf("%w: account %s no longer exists", model.ErrInvalidAccount, job.TaskAccount.AccountID)
	}
	if !job.Account.IsActive() {
		return "", fmt.Errorf("%w: account %s is %s", model.ErrInvalidAccount, job.Account.Username, job.Account.Status)
	}
	if task.ContentType != model.ContentTypeVideo {
		return "", fmt.Errorf("%w: %s publishing is not supported", model.ErrUnsupportedContent, task.ContentType)
	}
	platform, err := d.registry.Get(job.Account.Platform)
	if err != nil {
		return "", err
	}
	content := task.EffectiveContent(job.TaskAccount)

	callCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()
	itemID, err := platform.PublishVideo(callCtx, model.PublishVideoRequest{
		AccessToken: job.Account.AccessToken,
		OpenID:      job.Account.PlatformUserID,
		VideoURL:    content.VideoURL,
		Title:       content.Title,
		Description: content.Description,
		Topics:      content.Topics,
		Visibility:  task.Visibility,
	})
	if err != nil {
		return "", err
	}
	return platform.ItemURL(itemID), nil
}

// Shutdown stops accepting work and waits for in-flight fan-outs. When ctx
// ends first the remaining publish calls are cancelled.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

// BuildJobs pairs task accounts with their accounts.
func BuildJobs(ctx context.Context, accounts repository.IAccount, taskAccounts []*model.TaskAccount) ([]Job, error) {
	ids := make([]string, 0, len(taskAccounts))
	for _, ta := range taskAccounts {
		ids = append(ids, ta.AccountID)
	}
	found, err := accounts.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Account, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}
	jobs := make([]Job, 0, len(taskAccounts))
	for _, ta := range taskAccounts {
		if ta.Status != model.TaskAccountPending {
			continue
		}
		jobs = append(jobs, Job{TaskAccount: ta, Account: byID[ta.AccountID]})
	}
	return jobs, nil
}
