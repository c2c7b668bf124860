package stub

import (
	"context"
	"fmt"

	"mediahub/domain/model"
	"mediahub/domain/repository"
)

// Platform is a known platform whose integration is not wired yet.
// Every call fails with model.ErrNotConfigured.
type Platform struct {
	name string
}

func New(name string) *Platform { return &Platform{name: name} }

func (p *Platform) Name() string { return p.name }

func (p *Platform) notConfigured() error {
	return fmt.Errorf("%w: %s", model.ErrNotConfigured, p.name)
}

func (p *Platform) AuthURL(string) (string, error) { return "", p.notConfigured() }

func (p *Platform) ExchangeToken(context.Context, string) (*model.PlatformToken, error) {
	return nil, p.notConfigured()
}

func (p *Platform) RefreshToken(context.Context, string) (*model.PlatformToken, error) {
	return nil, p.notConfigured()
}

func (p *Platform) UserInfo(context.Context, string, string) (*model.PlatformUser, error) {
	return nil, p.notConfigured()
}

func (p *Platform) PublishVideo(context.Context, model.PublishVideoRequest) (string, error) {
	return "", p.notConfigured()
}

func (p *Platform) ItemURL(string) string { return "" }

var _ repository.IPlatform = (*Platform)(nil)
