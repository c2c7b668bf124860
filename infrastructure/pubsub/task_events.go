package pubsub

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/pubsub"
	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/infrastructure/logger"
)

// TaskEventPublisher forwards task events to a Pub/Sub topic.
type TaskEventPublisher struct {
	topic *pubsub.Topic
}

// NewTaskEventPublisher resolves topicName, creating it when missing.
func NewTaskEventPublisher(ctx context.Context, client *pubsub.Client, topicName string) (*TaskEventPublisher, error) {
	topic := client.Topic(topicName)

	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		logger.GetLogger().WithField("topic", topicName).Info("Topic doesn't exist - creating it")
		if topic, err = client.CreateTopic(ctx, topicName); err != nil {
			return nil, err
		}
	}
	return &TaskEventPublisher{topic: topic}, nil
}

func (p *TaskEventPublisher) Emit(ctx context.Context, evt *model.TaskEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	msg := &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"type":    string(evt.Type),
			"task_id": evt.TaskID,
			"status":  evt.Status,
		},
	}
	serverID, err := p.topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return err
	}
	logger.GetLogger().WithField("server ID", serverID).WithField("task_id", evt.TaskID).Debug("Task event published")
	return nil
}

// Stop flushes pending messages.
func (p *TaskEventPublisher) Stop() {
	p.topic.Stop()
}

var _ repository.ITaskEventSink = (*TaskEventPublisher)(nil)
