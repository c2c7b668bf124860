package usecase

import (
	"context"

	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/infrastructure/logger"
	"mediahub/infrastructure/utils"
)

// Aggregator derives a publishing task's final status from its accounts.
type Aggregator struct {
	tasks        repository.ITask
	taskAccounts repository.ITaskAccount
	events       repository.ITaskEventSink
	clock        utils.Clock
}

func NewAggregator(tasks repository.ITask, taskAccounts repository.ITaskAccount, events repository.ITaskEventSink, clock utils.Clock) *Aggregator {
	return &Aggregator{tasks: tasks, taskAccounts: taskAccounts, events: events, clock: clock}
}

// Evaluate is idempotent. It moves the task out of publishing once every
// account has settled and reports whether this call made the change.
func (a *Aggregator) Evaluate(ctx context.Context, task *model.PublishTask) (bool, error) {
	accounts, err := a.taskAccounts.ListByTask(ctx, task.ID)
	if err != nil {
		return false, err
	}
	statuses := make([]model.TaskAccountStatus, 0, len(accounts))
	for _, ta := range accounts {
		statuses = append(statuses, ta.Status)
	}
	status, settled := model.AggregateStatus(statuses)
	if !settled {
		return false, nil
	}
	n, err := a.tasks.TransitionStatus(ctx, task.ID, []model.TaskStatus{model.TaskStatusPublishing}, status)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	logger.GetLogger().WithField("task_id", task.ID).WithField("status", status).Info("Task settled")
	_ = a.events.Emit(ctx, &model.TaskEvent{
		Type:   model.TaskEventStatusChanged,
		TaskID: task.ID,
		UserID: task.UserID,
		Status: string(status),
		At:     a.clock.Now(),
	})
	return true, nil
}
