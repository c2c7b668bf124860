package usecase

import (
	"context"
	"fmt"

	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/infrastructure/utils"
)

type ShareSchema struct {
	SchemaURL string `json:"schema_url"`
	ShareID   string `json:"share_id"`
}

type IShareUsecase interface {
	Schema(ctx context.Context, userID, platform, taskID string) (*ShareSchema, error)
}

type ShareUsecase struct {
	tasks    repository.ITask
	registry repository.IPlatformRegistry
}

func NewShareUsecase(tasks repository.ITask, registry repository.IPlatformRegistry) *ShareUsecase {
	return &ShareUsecase{tasks: tasks, registry: registry}
}

// Schema signs a fresh share link for the task. The share id is created
// once and reused afterwards.
func (u *ShareUsecase) Schema(ctx context.Context, userID, platform, taskID string) (*ShareSchema, error) {
	adapter, err := u.registry.Get(platform)
	if err != nil {
		return nil, err
	}
	linker, ok := adapter.(repository.IShareLinker)
	if !ok {
		return nil, fmt.Errorf("%w: %s share links", model.ErrNotConfigured, adapter.Name())
	}
	task, err := u.tasks.GetForUser(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if !task.Status.In(model.ShareableStatuses) {
		return nil, fmt.Errorf("%w: task is not in a shareable state", model.ErrInvalidState)
	}
	if task.VideoURL == nil {
		return nil, fmt.Errorf("%w: only video tasks can be shared", model.ErrUnsupportedContent)
	}

	shareID := ""
	if task.ShareID != nil {
		shareID = *task.ShareID
	}
	if shareID == "" {
		if shareID, err = utils.URLSafeToken(16); err != nil {
			return nil, err
		}
		if err := u.tasks.SetShareID(ctx, task.ID, shareID); err != nil {
			return nil, err
		}
	}

	title := task.Title
	if task.Description != nil && *task.Description != "" {
		title = title + " " + *task.Description
	}
	schemaURL, err := linker.ShareURL(ctx, model.ShareParams{
		VideoURL: *task.VideoURL,
		Title:    title,
		ShareID:  shareID,
		Hashtags: task.Topics,
	})
	if err != nil {
		return nil, err
	}
	return &ShareSchema{SchemaURL: schemaURL, ShareID: shareID}, nil
}

var _ IShareUsecase = (*ShareUsecase)(nil)
