package model

import "time"

type TaskEventType string

const (
	TaskEventAccountSettled TaskEventType = "task_account_settled"
	TaskEventStatusChanged  TaskEventType = "task_status_changed"
)

// TaskEvent is emitted whenever a task account settles or a task changes status.
type TaskEvent struct {
	Type          TaskEventType `json:"type" bson:"type"`
	TaskID        string        `json:"task_id" bson:"taskId"`
	UserID        string        `json:"user_id" bson:"userId"`
	TaskAccountID string        `json:"task_account_id,omitempty" bson:"taskAccountId,omitempty"`
	AccountID     string        `json:"account_id,omitempty" bson:"accountId,omitempty"`
	Status        string        `json:"status" bson:"status"`
	PublishedURL  *string       `json:"published_url,omitempty" bson:"publishedUrl,omitempty"`
	Error         *string       `json:"error,omitempty" bson:"error,omitempty"`
	At            time.Time     `json:"at" bson:"at"`
}
