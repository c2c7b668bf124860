package youtube

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/infrastructure/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const PlatformName = "youtube"

// Client publishes to the YouTube channel of the account that granted access.
type Client struct {
	oauthConfig *oauth2.Config
	download    *http.Client
	// endpoint overrides the API base url, used by tests.
	endpoint string
}

// Config represents YouTube API configuration
type Config struct {
	ClientID      string
	ClientSecret  string
	RedirectURL   string
	Scopes        []string
	UploadTimeout time.Duration
	// Endpoint and TokenURL are left empty in production.
	Endpoint string
	AuthURL  string
	TokenURL string
}

func NewYouTubeClient(config *Config) *Client {
	scopes := config.Scopes
	if len(scopes) == 0 {
		scopes = []string{
			youtube.YoutubeReadonlyScope,
			youtube.YoutubeUploadScope,
		}
	}
	endpoint := google.Endpoint
	if config.AuthURL != "" {
		endpoint.AuthURL = config.AuthURL
	}
	if config.TokenURL != "" {
		endpoint.TokenURL = config.TokenURL
	}
	timeout := config.UploadTimeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Client{
		oauthConfig: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		download: &http.Client{Timeout: timeout},
		endpoint: config.Endpoint,
	}
}

func (c *Client) Name() string { return PlatformName }

func (c *Client) AuthURL(state string) (string, error) {
	return c.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// ExchangeToken trades the code for tokens. The channel id is used as open id.
func (c *Client) ExchangeToken(ctx context.Context, code string) (*model.PlatformToken, error) {
	token, err := c.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	channel, err := c.myChannel(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}
	return toPlatformToken(token, channel.Id), nil
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*model.PlatformToken, error) {
	token, err := c.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return toPlatformToken(token, ""), nil
}

func (c *Client) UserInfo(ctx context.Context, accessToken, _ string) (*model.PlatformUser, error) {
	channel, err := c.myChannel(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	user := &model.PlatformUser{Username: channel.Snippet.Title}
	if th := channel.Snippet.Thumbnails; th != nil {
		switch {
		case th.High != nil:
			user.AvatarURL = th.High.Url
		case th.Medium != nil:
			user.AvatarURL = th.Medium.Url
		case th.Default != nil:
			user.AvatarURL = th.Default.Url
		}
	}
	return user, nil
}

func (c *Client) PublishVideo(ctx context.Context, req model.PublishVideoRequest) (string, error) {
	service, err := c.service(ctx, req.AccessToken)
	if err != nil {
		return "", err
	}

	src, err := http.NewRequestWithContext(ctx, http.MethodGet, req.VideoURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.download.Do(src)
	if err != nil {
		return "", fmt.Errorf("download video: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("download video: unexpected status %d", resp.StatusCode)
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       req.Title,
			Description: req.Description,
			Tags:        req.Topics,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: privacyStatus(req.Visibility),
		},
	}
	uploaded, err := service.Videos.Insert([]string{"snippet", "status"}, video).
		Media(resp.Body).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload video: %w", err)
	}
	logger.GetLogger().WithField("video_id", uploaded.Id).Info("YouTube video uploaded")
	return uploaded.Id, nil
}

func (c *Client) ItemURL(itemID string) string {
	return "https://www.youtube.com/watch?v=" + itemID
}

func (c *Client) myChannel(ctx context.Context, accessToken string) (*youtube.Channel, error) {
	service, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	response, err := service.Channels.List([]string{"snippet"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get my channel: %w", err)
	}
	if len(response.Items) == 0 {
		return nil, fmt.Errorf("no channel found for authenticated user")
	}
	channel := response.Items[0]
	if channel.Snippet == nil {
		channel.Snippet = &youtube.ChannelSnippet{}
	}
	return channel, nil
}

func (c *Client) service(ctx context.Context, accessToken string) (*youtube.Service, error) {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return service, nil
}

func toPlatformToken(token *oauth2.Token, openID string) *model.PlatformToken {
	out := &model.PlatformToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		OpenID:       openID,
	}
	if !token.Expiry.IsZero() {
		out.ExpiresIn = int64(time.Until(token.Expiry).Seconds())
	}
	return out
}

// privacyStatus maps task visibility onto YouTube privacy levels.
func privacyStatus(visibility string) string {
	switch visibility {
	case "private":
		return "unlisted"
	case "draft":
		return "private"
	default:
		return "public"
	}
}

var _ repository.IPlatform = (*Client)(nil)
