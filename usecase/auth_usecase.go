package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/infrastructure/logger"
	"mediahub/infrastructure/utils"
)

type IAuthUsecase interface {
	// Begin returns the platform authorize url for userID.
	Begin(ctx context.Context, userID, platform string) (string, error)
	// Callback finishes the OAuth round trip and binds the account.
	Callback(ctx context.Context, platform, code, state string) (*model.Account, error)
}

type AuthUsecase struct {
	states   *OAuthStateStore
	registry repository.IPlatformRegistry
	accounts repository.IAccount
	clock    utils.Clock
}

func NewAuthUsecase(states *OAuthStateStore, registry repository.IPlatformRegistry, accounts repository.IAccount, clock utils.Clock) *AuthUsecase {
	return &AuthUsecase{states: states, registry: registry, accounts: accounts, clock: clock}
}

func (u *AuthUsecase) Begin(ctx context.Context, userID, platform string) (string, error) {
	adapter, err := u.registry.Get(platform)
	if err != nil {
		return "", err
	}
	state, err := u.states.Issue(ctx, userID, adapter.Name())
	if err != nil {
		return "", err
	}
	return adapter.AuthURL(state)
}

func (u *AuthUsecase) Callback(ctx context.Context, platform, code, state string) (*model.Account, error) {
	platform = strings.ToLower(platform)
	st, err := u.states.Consume(ctx, state)
	if err != nil {
		return nil, err
	}
	if st.Platform != platform {
		return nil, fmt.Errorf("%w: state was issued for %s", model.ErrStateInvalid, st.Platform)
	}
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", model.ErrValidation)
	}
	adapter, err := u.registry.Get(platform)
	if err != nil {
		return nil, err
	}
	tok, err := adapter.ExchangeToken(ctx, code)
	if err != nil {
		return nil, err
	}
	info, err := adapter.UserInfo(ctx, tok.AccessToken, tok.OpenID)
	if err != nil {
		return nil, err
	}

	acc, err := u.accounts.FindByPlatformUser(ctx, st.UserID, platform, tok.OpenID)
	if err != nil {
		return nil, err
	}
	create := acc == nil
	if create {
		acc = &model.Account{
			ID:             uuid.NewString(),
			UserID:         st.UserID,
			Platform:       platform,
			PlatformUserID: tok.OpenID,
		}
	}
	acc.Username = info.Username
	acc.AvatarURL = nil
	if info.AvatarURL != "" {
		avatar := info.AvatarURL
		acc.AvatarURL = &avatar
	}
	applyToken(acc, tok, u.clock.Now())
	if create {
		err = u.accounts.Create(ctx, acc)
	} else {
		err = u.accounts.Update(ctx, acc)
	}
	if err != nil {
		return nil, err
	}
	logger.GetLogger().
		WithField("account_id", acc.ID).
		WithField("platform", platform).
		WithField("created", create).
		Info("Account bound")
	return acc, nil
}

var _ IAuthUsecase = (*AuthUsecase)(nil)
