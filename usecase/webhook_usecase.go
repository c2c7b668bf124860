package usecase

import (
	"context"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/infrastructure/logger"
	"mediahub/infrastructure/metrics"
	"mediahub/infrastructure/utils"
)

const (
	webhookEventVerify      = "verify_webhook"
	webhookEventCreateVideo = "create_video"
)

type webhookPayload struct {
	Event     string          `json:"event"`
	Challenge json.RawMessage `json:"challenge"`
	Content   json.RawMessage `json:"content"`
}

type createVideoContent struct {
	ShareID string `json:"share_id"`
	ItemID  string `json:"item_id"`
}

type IWebhookUsecase interface {
	// Handle verifies and applies one delivery and returns the response body.
	Handle(ctx context.Context, platform string, body []byte, signature string) (map[string]interface{}, error)
}

// WebhookUsecase completes share-flow tasks from platform callbacks.
type WebhookUsecase struct {
	secrets      map[string]string
	registry     repository.IPlatformRegistry
	tasks        repository.ITask
	taskAccounts repository.ITaskAccount
	events       repository.ITaskEventSink
	metrics      *metrics.Metrics
	clock        utils.Clock
}

// NewWebhookUsecase takes the signing secret of every platform that calls back.
func NewWebhookUsecase(secrets map[string]string, registry repository.IPlatformRegistry, tasks repository.ITask,
	taskAccounts repository.ITaskAccount, events repository.ITaskEventSink, m *metrics.Metrics, clock utils.Clock) *WebhookUsecase {
	return &WebhookUsecase{
		secrets:      secrets,
		registry:     registry,
		tasks:        tasks,
		taskAccounts: taskAccounts,
		events:       events,
		metrics:      m,
		clock:        clock,
	}
}

// Sign returns hex(SHA1(secret + body)).
func Sign(secret string, body []byte) string {
	h := sha1.New()
	h.Write([]byte(secret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func (u *WebhookUsecase) verify(platform string, body []byte, signature string) error {
	secret, ok := u.secrets[platform]
	if !ok || secret == "" {
		return fmt.Errorf("%w: %s webhooks", model.ErrNotConfigured, platform)
	}
	expected := Sign(secret, body)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(signature))) != 1 {
		return model.ErrSignatureMismatch
	}
	return nil
}

func (u *WebhookUsecase) Handle(ctx context.Context, platform string, body []byte, signature string) (map[string]interface{}, error) {
	platform = strings.ToLower(platform)
	if _, err := u.registry.Get(platform); err != nil {
		return nil, err
	}
	if err := u.verify(platform, body, signature); err != nil {
		logger.GetLogger().WithField("platform", platform).Warn("Webhook signature mismatch")
		return nil, err
	}

	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: malformed webhook body", model.ErrValidation)
	}
	u.metrics.WebhookEvent(platform, p.Event)

	switch p.Event {
	case webhookEventVerify:
		logger.GetLogger().Info("Webhook verification request received")
		challenge := p.Challenge
		if len(challenge) == 0 {
			challenge = json.RawMessage("0")
		}
		return map[string]interface{}{"challenge": challenge}, nil
	case webhookEventCreateVideo:
		if err := u.completeShare(ctx, platform, p.Content); err != nil {
			return nil, err
		}
	default:
		logger.GetLogger().WithField("event", p.Event).Debug("Ignoring webhook event")
	}
	return map[string]interface{}{"msg": "ok"}, nil
}

// decodeContent accepts the content as an object or as a JSON encoded string.
func decodeContent(raw json.RawMessage) (createVideoContent, error) {
	var c createVideoContent
	if len(raw) == 0 || string(raw) == "null" {
		return c, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return c, err
		}
		if s == "" {
			return c, nil
		}
		raw = json.RawMessage(s)
	}
	err := json.Unmarshal(raw, &c)
	return c, err
}

func (u *WebhookUsecase) completeShare(ctx context.Context, platform string, raw json.RawMessage) error {
	content, err := decodeContent(raw)
	if err != nil {
		return fmt.Errorf("%w: malformed create_video content", model.ErrValidation)
	}
	lg := logger.GetLogger().WithField("share_id", content.ShareID)
	if content.ShareID == "" {
		lg.Warn("Webhook create_video missing share_id")
		return nil
	}
	task, err := u.tasks.GetByShareID(ctx, content.ShareID)
	if err != nil {
		return err
	}
	if task == nil {
		lg.Warn("Webhook: no task found for share_id")
		return nil
	}

	publishedURL := ""
	if content.ItemID != "" {
		adapter, err := u.registry.Get(platform)
		if err != nil {
			return err
		}
		publishedURL = adapter.ItemURL(content.ItemID)
	}
	now := u.clock.Now()
	if err := u.tasks.SetStatus(ctx, task.ID, model.TaskStatusCompleted); err != nil {
		return err
	}
	if err := u.taskAccounts.CompleteAll(ctx, task.ID, publishedURL, now); err != nil {
		return err
	}
	lg.WithField("task_id", task.ID).WithField("item_id", content.ItemID).Info("Task completed via share")

	evt := &model.TaskEvent{
		Type:   model.TaskEventStatusChanged,
		TaskID: task.ID,
		UserID: task.UserID,
		Status: string(model.TaskStatusCompleted),
		At:     now,
	}
	if publishedURL != "" {
		evt.PublishedURL = &publishedURL
	}
	_ = u.events.Emit(ctx, evt)
	return nil
}

var _ IWebhookUsecase = (*WebhookUsecase)(nil)
