package model

import (
	"fmt"
	"strings"
	"time"
)

type ContentType string

const (
	ContentTypeVideo     ContentType = "video"
	ContentTypeImageText ContentType = "image_text"
	ContentTypeArticle   ContentType = "article"
)

func (c ContentType) Valid() bool {
	switch c {
	case ContentTypeVideo, ContentTypeImageText, ContentTypeArticle:
		return true
	}
	return false
}

type DistributionMode string

const (
	DistributionBroadcast DistributionMode = "broadcast"
	DistributionOneToOne  DistributionMode = "one_to_one"
)

type TaskStatus string

const (
	TaskStatusPendingShare TaskStatus = "pending_share"
	TaskStatusScheduled    TaskStatus = "scheduled"
	TaskStatusPublishing   TaskStatus = "publishing"
	TaskStatusCompleted    TaskStatus = "completed"
	TaskStatusFailed       TaskStatus = "failed"
	TaskStatusCancelled    TaskStatus = "cancelled"
)

// CancellableStatuses are the pre-dispatch states cancel() may leave.
var CancellableStatuses = []TaskStatus{TaskStatusScheduled, TaskStatusPendingShare}

// ShareableStatuses are the states a share link may be produced for.
var ShareableStatuses = []TaskStatus{TaskStatusPendingShare, TaskStatusScheduled}

func (s TaskStatus) In(set []TaskStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

type TaskAccountStatus string

const (
	TaskAccountPending TaskAccountStatus = "pending"
	TaskAccountSuccess TaskAccountStatus = "success"
	TaskAccountFailed  TaskAccountStatus = "failed"
)

// PublishTask is one content item bound for one or more accounts.
type PublishTask struct {
	ID               string           `json:"id"`
	UserID           string           `json:"user_id"`
	ContentType      ContentType      `json:"content_type"`
	Title            string           `json:"title"`
	Description      *string          `json:"description,omitempty"`
	VideoURL         *string          `json:"video_url,omitempty"`
	ImageURLs        []string         `json:"image_urls,omitempty"`
	ArticleContent   *string          `json:"article_content,omitempty"`
	CoverURL         *string          `json:"cover_url,omitempty"`
	Visibility       string           `json:"visibility,omitempty"`
	Topics           []string         `json:"topics,omitempty"`
	DistributionMode DistributionMode `json:"distribution_mode"`
	Status           TaskStatus       `json:"status"`
	ScheduledAt      *time.Time       `json:"scheduled_at,omitempty"`
	ShareID          *string          `json:"share_id,omitempty"`
	BatchID          *string          `json:"batch_id,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ContentOverride replaces parts of the task content for a single account.
type ContentOverride struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Topics      []string `json:"topics,omitempty"`
}

// TaskAccount is the execution record of a task on one account.
type TaskAccount struct {
	ID           string            `json:"id"`
	TaskID       string            `json:"task_id"`
	AccountID    string            `json:"account_id"`
	Status       TaskAccountStatus `json:"status"`
	ErrorMessage *string           `json:"error_message,omitempty"`
	PublishedURL *string           `json:"published_url,omitempty"`
	PublishedAt  *time.Time        `json:"published_at,omitempty"`
	Override     *ContentOverride  `json:"override,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Content is what actually gets published to one account.
type Content struct {
	VideoURL    string
	Title       string
	Description string
	Topics      []string
}

// EffectiveContent merges the task content with the account override.
func (t *PublishTask) EffectiveContent(ta *TaskAccount) Content {
	c := Content{Title: t.Title, Topics: t.Topics}
	if t.VideoURL != nil {
		c.VideoURL = *t.VideoURL
	}
	if t.Description != nil {
		c.Description = *t.Description
	}
	if ta == nil || ta.Override == nil {
		return c
	}
	if ta.Override.Title != nil {
		c.Title = *ta.Override.Title
	}
	if ta.Override.Description != nil {
		c.Description = *ta.Override.Description
	}
	if ta.Override.Topics != nil {
		c.Topics = ta.Override.Topics
	}
	return c
}

// Validate checks the type-specific required content fields.
func (t *PublishTask) Validate() error {
	if !t.ContentType.Valid() {
		return fmt.Errorf("%w: unknown content_type %q", ErrValidation, t.ContentType)
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	switch t.ContentType {
	case ContentTypeVideo:
		if t.VideoURL == nil || strings.TrimSpace(*t.VideoURL) == "" {
			return fmt.Errorf("%w: video content requires a video url", ErrValidation)
		}
	case ContentTypeImageText:
		if len(t.ImageURLs) == 0 {
			return fmt.Errorf("%w: image_text content requires at least one image", ErrValidation)
		}
	case ContentTypeArticle:
		if t.ArticleContent == nil || strings.TrimSpace(*t.ArticleContent) == "" {
			return fmt.Errorf("%w: article content is required", ErrValidation)
		}
	}
	return nil
}

// AggregateStatus derives the task status from its account statuses.
// settled is false while any account is pending. A mix of success and
// failure counts as completed.
func AggregateStatus(statuses []TaskAccountStatus) (status TaskStatus, settled bool) {
	if len(statuses) == 0 {
		return "", false
	}
	failed := 0
	for _, s := range statuses {
		switch s {
		case TaskAccountSuccess:
		case TaskAccountFailed:
			failed++
		default:
			return "", false
		}
	}
	if failed == len(statuses) {
		return TaskStatusFailed, true
	}
	return TaskStatusCompleted, true
}
