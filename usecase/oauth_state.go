package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/infrastructure/utils"
)

const (
	oauthStateTTL       = 10 * time.Minute
	oauthStateKeyPrefix = "oauth_state:"
	// entries outlive the TTL so a late callback reports expiry instead of an unknown state
	oauthStateRetention = time.Hour
)

// OAuthStateStore issues single-use CSRF tokens for the OAuth round trip.
type OAuthStateStore struct {
	cache repository.ICache
	clock utils.Clock
}

func NewOAuthStateStore(cache repository.ICache, clock utils.Clock) *OAuthStateStore {
	return &OAuthStateStore{cache: cache, clock: clock}
}

func (s *OAuthStateStore) Issue(ctx context.Context, userID, platform string) (string, error) {
	token, err := utils.URLSafeToken(32)
	if err != nil {
		return "", err
	}
	now := s.clock.Now()
	raw, err := json.Marshal(model.OAuthState{UserID: userID, Platform: platform, CreatedAt: now})
	if err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, oauthStateKeyPrefix+token, model.CacheEntry{
		Value:     string(raw),
		ExpiresAt: now.Add(oauthStateRetention),
	}); err != nil {
		return "", err
	}
	return token, nil
}

// Consume resolves and destroys token. A token can be consumed once.
func (s *OAuthStateStore) Consume(ctx context.Context, token string) (*model.OAuthState, error) {
	if token == "" {
		return nil, model.ErrStateMissing
	}
	entry, err := s.cache.Pop(ctx, oauthStateKeyPrefix+token)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, model.ErrStateInvalid
	}
	var st model.OAuthState
	if err := json.Unmarshal([]byte(entry.Value), &st); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStateInvalid, err)
	}
	if s.clock.Now().Sub(st.CreatedAt) > oauthStateTTL {
		return nil, model.ErrStateExpired
	}
	return &st, nil
}
