package usecase

import (
	"context"
	"fmt"
	"time"

	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/infrastructure/logger"
	"mediahub/infrastructure/utils"
)

type IAccountUsecase interface {
	List(ctx context.Context, userID string) ([]*model.Account, error)
	Delete(ctx context.Context, userID, accountID string) error
	Refresh(ctx context.Context, userID, accountID string) (*model.Account, error)
}

type AccountUsecase struct {
	accounts repository.IAccount
	registry repository.IPlatformRegistry
	clock    utils.Clock
}

func NewAccountUsecase(accounts repository.IAccount, registry repository.IPlatformRegistry, clock utils.Clock) *AccountUsecase {
	return &AccountUsecase{accounts: accounts, registry: registry, clock: clock}
}

func (u *AccountUsecase) List(ctx context.Context, userID string) ([]*model.Account, error) {
	list, err := u.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*model.Account{}
	}
	return list, nil
}

func (u *AccountUsecase) Delete(ctx context.Context, userID, accountID string) error {
	if err := u.accounts.Delete(ctx, userID, accountID); err != nil {
		return err
	}
	logger.GetLogger().WithField("account_id", accountID).Info("Account unbound")
	return nil
}

func (u *AccountUsecase) Refresh(ctx context.Context, userID, accountID string) (*model.Account, error) {
	acc, err := u.accounts.GetByID(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	if acc.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token available", model.ErrInvalidState)
	}
	platform, err := u.registry.Get(acc.Platform)
	if err != nil {
		return nil, err
	}
	tok, err := platform.RefreshToken(ctx, acc.RefreshToken)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("account_id", acc.ID).Warn("Token refresh failed")
		return nil, err
	}
	applyToken(acc, tok, u.clock.Now())
	if err := u.accounts.Update(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

func applyToken(acc *model.Account, tok *model.PlatformToken, now time.Time) {
	acc.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		acc.RefreshToken = tok.RefreshToken
	}
	if tok.ExpiresIn > 0 {
		exp := now.Add(time.Duration(tok.ExpiresIn) * time.Second)
		acc.TokenExpiresAt = &exp
	}
	acc.Status = model.AccountStatusActive
}

var _ IAccountUsecase = (*AccountUsecase)(nil)
