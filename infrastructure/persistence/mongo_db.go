package persistence

import (
	"context"
	"fmt"
	"net/url"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/infrastructure/logger"
)

func NewMongoDb(host, port, user, password, _ string) (*mongo.Client, error) {
	if host == "" {
		return nil, fmt.Errorf("mongo host not configured")
	}
	u := &url.URL{Scheme: "mongodb", Host: fmt.Sprintf("%s:%s", host, port)}
	if user != "" {
		u.User = url.UserPassword(user, password)
	}
	return mongo.Connect(options.Client().ApplyURI(u.String()))
}

// TaskEventAudit appends every task event to the task_events collection.
type TaskEventAudit struct {
	collection *mongo.Collection
}

func NewTaskEventAudit(client *mongo.Client, database string) *TaskEventAudit {
	return &TaskEventAudit{collection: client.Database(database).Collection("task_events")}
}

func (a *TaskEventAudit) Emit(ctx context.Context, event *model.TaskEvent) error {
	if _, err := a.collection.InsertOne(ctx, event); err != nil {
		logger.GetLogger().WithField("error", err).WithField("task_id", event.TaskID).Error("Error while writing task event audit")
		return err
	}
	return nil
}

var _ repository.ITaskEventSink = (*TaskEventAudit)(nil)
