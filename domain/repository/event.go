package repository

import (
	"context"

	"mediahub/domain/model"
)

// ITaskEventSink receives task lifecycle events. Sinks are best effort.
type ITaskEventSink interface {
	Emit(ctx context.Context, event *model.TaskEvent) error
}
