package repository

import (
	"context"

	"mediahub/domain/model"
)

// IPlatform is the adapter every social platform integration implements.
type IPlatform interface {
	Name() string
	AuthURL(state string) (string, error)
	ExchangeToken(ctx context.Context, code string) (*model.PlatformToken, error)
	RefreshToken(ctx context.Context, refreshToken string) (*model.PlatformToken, error)
	UserInfo(ctx context.Context, accessToken, openID string) (*model.PlatformUser, error)
	// PublishVideo publishes one video and returns the platform item id.
	PublishVideo(ctx context.Context, req model.PublishVideoRequest) (string, error)
	// ItemURL derives the public url of a published item.
	ItemURL(itemID string) string
}

// IShareLinker is implemented by adapters that can hand publishing off to
// the platform's own app through a signed deep link.
type IShareLinker interface {
	ShareURL(ctx context.Context, params model.ShareParams) (string, error)
}

type IPlatformRegistry interface {
	Get(name string) (IPlatform, error)
	Names() []string
}
