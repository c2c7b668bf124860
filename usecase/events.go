package usecase

import (
	"context"
	"time"

	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/infrastructure/logger"
)

const sinkTimeout = 5 * time.Second

// EventBus fans task events out to every registered sink. Sink failures are
// logged and never reach the caller.
type EventBus struct {
	sinks []repository.ITaskEventSink
}

func NewEventBus(sinks ...repository.ITaskEventSink) *EventBus {
	b := &EventBus{}
	for _, s := range sinks {
		if s != nil {
			b.sinks = append(b.sinks, s)
		}
	}
	return b
}

func (b *EventBus) Emit(ctx context.Context, evt *model.TaskEvent) error {
	if b == nil || evt == nil {
		return nil
	}
	for _, s := range b.sinks {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
		if err := s.Emit(sctx, evt); err != nil {
			logger.GetLogger().
				WithField("error", err).
				WithField("task_id", evt.TaskID).
				WithField("type", evt.Type).
				Warn("Task event sink failed")
		}
		cancel()
	}
	return nil
}

var _ repository.ITaskEventSink = (*EventBus)(nil)
