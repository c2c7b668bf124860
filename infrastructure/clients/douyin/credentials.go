package douyin

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"mediahub/domain/model"
	"mediahub/infrastructure/logger"
)

// refreshMargin is how long before expiry a cached credential is renewed.
const refreshMargin = 60 * time.Second

func (c *Client) clientTokenKey() string { return "douyin:client_token:" + c.cacheKeySalt }
func (c *Client) ticketKey() string      { return "douyin:ticket:" + c.cacheKeySalt }

// ClientToken returns the app-level client_token, fetching a new one when
// the cached value is missing or within refreshMargin of expiry.
func (c *Client) ClientToken(ctx context.Context) (string, error) {
	if v, ok := c.cached(ctx, c.clientTokenKey()); ok {
		return v, nil
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	err := c.postJSON(ctx, c.cfg.BaseURL+clientTokenPath, map[string]string{
		"client_key":    c.cfg.ClientKey,
		"client_secret": c.cfg.ClientSecret,
		"grant_type":    "client_credential",
	}, "Failed to get client_token", &out)
	if err != nil {
		return "", err
	}
	c.store(ctx, c.clientTokenKey(), out.AccessToken, out.ExpiresIn)
	logger.GetLogger().WithField("expires_in", out.ExpiresIn).Info("Douyin client_token refreshed")
	return out.AccessToken, nil
}

// Ticket returns the share ticket. Renewal goes through ClientToken first.
func (c *Client) Ticket(ctx context.Context) (string, error) {
	if v, ok := c.cached(ctx, c.ticketKey()); ok {
		return v, nil
	}

	clientToken, err := c.ClientToken(ctx)
	if err != nil {
		return "", err
	}
	q := url.Values{"access_token": {clientToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+ticketPath+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	var out struct {
		Ticket    string `json:"ticket"`
		ExpiresIn int64  `json:"expires_in"`
	}
	if err := c.do(c.api, req, "Failed to get ticket", &out); err != nil {
		return "", err
	}
	c.store(ctx, c.ticketKey(), out.Ticket, out.ExpiresIn)
	logger.GetLogger().WithField("expires_in", out.ExpiresIn).Info("Douyin ticket refreshed")
	return out.Ticket, nil
}

func (c *Client) cached(ctx context.Context, key string) (string, bool) {
	e, err := c.cache.Get(ctx, key)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("key", key).Warn("Credential cache read failed")
		return "", false
	}
	if !e.FreshAt(c.clock.Now(), refreshMargin) {
		return "", false
	}
	return e.Value, true
}

func (c *Client) store(ctx context.Context, key, value string, expiresIn int64) {
	entry := model.CacheEntry{
		Value:     value,
		ExpiresAt: c.clock.Now().Add(time.Duration(expiresIn) * time.Second),
	}
	if err := c.cache.Set(ctx, key, entry); err != nil {
		logger.GetLogger().WithField("error", err).WithField("key", key).Warn("Credential cache write failed")
	}
}
