package usecase

import (
	"context"
	"fmt"
	"time"

	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/infrastructure/logger"
	"mediahub/infrastructure/metrics"
	"mediahub/infrastructure/utils"
)

// Scheduler moves due scheduled tasks into publishing.
type Scheduler struct {
	tasks        repository.ITask
	taskAccounts repository.ITaskAccount
	accounts     repository.IAccount
	dispatcher   IDispatcher
	events       repository.ITaskEventSink
	metrics      *metrics.Metrics
	clock        utils.Clock
	interval     time.Duration
}

func NewScheduler(tasks repository.ITask, taskAccounts repository.ITaskAccount, accounts repository.IAccount,
	dispatcher IDispatcher, events repository.ITaskEventSink, m *metrics.Metrics, clock utils.Clock, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Scheduler{
		tasks:        tasks,
		taskAccounts: taskAccounts,
		accounts:     accounts,
		dispatcher:   dispatcher,
		events:       events,
		metrics:      m,
		clock:        clock,
		interval:     interval,
	}
}

// Run ticks until ctx is cancelled. Tick failures never stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	logger.GetLogger().WithField("interval", s.interval.String()).Info("Scheduler started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.GetLogger().Info("Scheduler stopped")
			return nil
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil {
				logger.GetLogger().WithField("error", err).Error("Scheduler tick failed")
			}
		}
	}
}

// Tick claims every due task and hands it to the dispatcher without waiting.
// It returns the number of tasks this instance claimed.
func (s *Scheduler) Tick(ctx context.Context) (claimed int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scheduler tick panicked: %v", r)
		}
	}()
	due, err := s.tasks.ListDue(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	for _, task := range due {
		n, err := s.tasks.TransitionStatus(ctx, task.ID, []model.TaskStatus{model.TaskStatusScheduled}, model.TaskStatusPublishing)
		if err != nil {
			logger.GetLogger().WithField("error", err).WithField("task_id", task.ID).Error("Error while claiming task")
			continue
		}
		s.metrics.SchedulerClaim(n > 0)
		if n == 0 {
			// cancelled or claimed elsewhere
			continue
		}
		claimed++
		task.Status = model.TaskStatusPublishing
		_ = s.events.Emit(ctx, &model.TaskEvent{
			Type:   model.TaskEventStatusChanged,
			TaskID: task.ID,
			UserID: task.UserID,
			Status: string(model.TaskStatusPublishing),
			At:     s.clock.Now(),
		})
		if err := s.dispatch(ctx, task); err != nil {
			logger.GetLogger().WithField("error", err).WithField("task_id", task.ID).Error("Error while dispatching scheduled task")
		}
	}
	return claimed, nil
}

func (s *Scheduler) dispatch(ctx context.Context, task *model.PublishTask) error {
	tas, err := s.taskAccounts.ListByTask(ctx, task.ID)
	if err != nil {
		return err
	}
	jobs, err := BuildJobs(ctx, s.accounts, tas)
	if err != nil {
		return err
	}
	logger.GetLogger().WithField("task_id", task.ID).WithField("accounts", len(jobs)).Info("Dispatching scheduled task")
	return s.dispatcher.Submit(task, jobs)
}
