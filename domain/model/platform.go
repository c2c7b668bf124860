package model

// PlatformToken is the credential set returned by a code exchange or refresh.
type PlatformToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	OpenID       string `json:"open_id"`
	ExpiresIn    int64  `json:"expires_in"`
}

type PlatformUser struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

type PublishVideoRequest struct {
	AccessToken string
	OpenID      string
	VideoURL    string
	Title       string
	Description string
	Topics      []string
	Visibility  string
}

// ShareParams pre-fills an external app's publish page.
type ShareParams struct {
	VideoURL string
	Title    string
	ShareID  string
	Hashtags []string
}
