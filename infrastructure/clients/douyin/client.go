package douyin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/infrastructure/utils"
)

const (
	PlatformName = "douyin"

	DefaultBaseURL = "https://open.douyin.com"

	authPath        = "/platform/oauth/connect/"
	tokenPath       = "/oauth/access_token/"
	refreshPath     = "/oauth/refresh_token/"
	userInfoPath    = "/oauth/userinfo/"
	videoUploadPath = "/api/douyin/v1/video/upload/"
	videoCreatePath = "/api/douyin/v1/video/create/"
	clientTokenPath = "/oauth/client_token/"
	ticketPath      = "/open/getticket/"

	authScope = "trial.whitelist,user_info"

	itemURLPrefix = "https://www.douyin.com/video/"
)

type Config struct {
	ClientKey     string
	ClientSecret  string
	RedirectURI   string
	BaseURL       string
	APITimeout    time.Duration
	UploadTimeout time.Duration
}

// Client is the Douyin open platform adapter.
type Client struct {
	cfg          Config
	api          *http.Client
	upload       *http.Client
	cache        repository.ICache
	clock        utils.Clock
	nonce        func() (string, error)
	cacheKeySalt string
}

func NewClient(cfg Config, cache repository.ICache, clock utils.Clock) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.APITimeout <= 0 {
		cfg.APITimeout = 15 * time.Second
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = 300 * time.Second
	}
	return &Client{
		cfg:          cfg,
		api:          &http.Client{Timeout: cfg.APITimeout},
		upload:       &http.Client{Timeout: cfg.UploadTimeout},
		cache:        cache,
		clock:        clock,
		nonce:        func() (string, error) { return utils.HexToken(16) },
		cacheKeySalt: cfg.ClientKey,
	}
}

func (c *Client) Name() string { return PlatformName }

type authQuery struct {
	ClientKey    string `url:"client_key"`
	ResponseType string `url:"response_type"`
	Scope        string `url:"scope"`
	RedirectURI  string `url:"redirect_uri"`
	State        string `url:"state"`
}

func (c *Client) AuthURL(state string) (string, error) {
	v, err := query.Values(authQuery{
		ClientKey:    c.cfg.ClientKey,
		ResponseType: "code",
		Scope:        authScope,
		RedirectURI:  c.cfg.RedirectURI,
		State:        state,
	})
	if err != nil {
		return "", err
	}
	return c.cfg.BaseURL + authPath + "?" + v.Encode(), nil
}

type tokenForm struct {
	ClientKey    string `url:"client_key"`
	ClientSecret string `url:"client_secret,omitempty"`
	Code         string `url:"code,omitempty"`
	RefreshToken string `url:"refresh_token,omitempty"`
	GrantType    string `url:"grant_type"`
}

type tokenData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	OpenID       string `json:"open_id"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (d tokenData) toModel() *model.PlatformToken {
	return &model.PlatformToken{
		AccessToken:  d.AccessToken,
		RefreshToken: d.RefreshToken,
		OpenID:       d.OpenID,
		ExpiresIn:    d.ExpiresIn,
	}
}

func (c *Client) ExchangeToken(ctx context.Context, code string) (*model.PlatformToken, error) {
	var out tokenData
	err := c.postForm(ctx, tokenPath, tokenForm{
		ClientKey:    c.cfg.ClientKey,
		ClientSecret: c.cfg.ClientSecret,
		Code:         code,
		GrantType:    "authorization_code",
	}, "Token exchange failed", &out)
	if err != nil {
		return nil, err
	}
	return out.toModel(), nil
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*model.PlatformToken, error) {
	var out tokenData
	err := c.postForm(ctx, refreshPath, tokenForm{
		ClientKey:    c.cfg.ClientKey,
		RefreshToken: refreshToken,
		GrantType:    "refresh_token",
	}, "Token refresh failed", &out)
	if err != nil {
		return nil, err
	}
	return out.toModel(), nil
}

func (c *Client) UserInfo(ctx context.Context, accessToken, openID string) (*model.PlatformUser, error) {
	q := url.Values{"access_token": {accessToken}, "open_id": {openID}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+userInfoPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Nickname string `json:"nickname"`
		Avatar   string `json:"avatar"`
	}
	if err := c.do(c.api, req, "Get user info failed", &out); err != nil {
		return nil, err
	}
	return &model.PlatformUser{Username: out.Nickname, AvatarURL: out.Avatar}, nil
}

func (c *Client) ItemURL(itemID string) string { return itemURLPrefix + itemID }

// apiStatus is embedded in every response's data object.
type apiStatus struct {
	ErrorCode   int64  `json:"error_code"`
	Description string `json:"description"`
}

// APIError is a non-zero error_code returned by the open platform.
type APIError struct {
	Code        int64
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("douyin: %s (error_code %d)", e.Description, e.Code)
}

func (c *Client) postForm(ctx context.Context, path string, form interface{}, fallback string, out interface{}) error {
	v, err := query.Values(form)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, strings.NewReader(v.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(c.api, req, fallback, out)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body interface{}, fallback string, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(c.api, req, fallback, out)
}

// do sends req and decodes the `data` object of the envelope into out.
// fallback is used as the error description when the platform sends none.
func (c *Client) do(hc *http.Client, req *http.Request, fallback string, out interface{}) error {
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("douyin: %s: unexpected response (status %d): %w", fallback, resp.StatusCode, err)
	}
	if len(env.Data) == 0 {
		return &APIError{Code: -1, Description: fallback}
	}
	var status apiStatus
	if err := json.Unmarshal(env.Data, &status); err != nil {
		return err
	}
	if status.ErrorCode != 0 {
		desc := status.Description
		if desc == "" {
			desc = fallback
		}
		return &APIError{Code: status.ErrorCode, Description: desc}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

var (
	_ repository.IPlatform    = (*Client)(nil)
	_ repository.IShareLinker = (*Client)(nil)
)
