package douyin

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mediahub/domain/model"
	"mediahub/infrastructure/cache"
	"mediahub/infrastructure/utils"
)

var epoch = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

type fakeDouyin struct {
	server       *httptest.Server
	clientTokens int32
	tickets      int32

	mu            sync.Mutex
	lastCreate    map[string]string
	uploadedBytes []byte
}

func writeData(w http.ResponseWriter, data map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
}

func newFakeDouyin(t *testing.T) *fakeDouyin {
	t.Helper()
	f := &fakeDouyin{}
	mux := http.NewServeMux()
	mux.HandleFunc(tokenPath, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") == "bad" {
			writeData(w, map[string]interface{}{"error_code": 10008, "description": "code expired"})
			return
		}
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		writeData(w, map[string]interface{}{
			"error_code": 0, "access_token": "at", "refresh_token": "rt", "open_id": "oid", "expires_in": 1296000,
		})
	})
	mux.HandleFunc(refreshPath, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "old-rt", r.PostForm.Get("refresh_token"))
		writeData(w, map[string]interface{}{
			"error_code": 0, "access_token": "at2", "refresh_token": "rt2", "open_id": "oid", "expires_in": 1296000,
		})
	})
	mux.HandleFunc(userInfoPath, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "at", r.URL.Query().Get("access_token"))
		assert.Equal(t, "oid", r.URL.Query().Get("open_id"))
		writeData(w, map[string]interface{}{"error_code": 0, "nickname": "creator", "avatar": "https://img/a.png"})
	})
	mux.HandleFunc("/media/video.mp4", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("fake-mp4-bytes"))
	})
	mux.HandleFunc(videoUploadPath, func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("video")
		require.NoError(t, err)
		content, _ := io.ReadAll(file)
		f.mu.Lock()
		f.uploadedBytes = content
		f.mu.Unlock()
		writeData(w, map[string]interface{}{"error_code": 0, "video": map[string]string{"video_id": "v-1"}})
	})
	mux.HandleFunc(videoCreatePath, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.lastCreate = body
		f.mu.Unlock()
		writeData(w, map[string]interface{}{"error_code": 0, "item_id": "item-9"})
	})
	mux.HandleFunc(clientTokenPath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.clientTokens, 1)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "client_credential", body["grant_type"])
		writeData(w, map[string]interface{}{"error_code": 0, "access_token": "ct", "expires_in": 7200})
	})
	mux.HandleFunc(ticketPath, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&f.tickets, 1)
		assert.Equal(t, "ct", r.URL.Query().Get("access_token"))
		writeData(w, map[string]interface{}{"error_code": 0, "ticket": fmt.Sprintf("ticket-%d", n), "expires_in": 7200})
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func newTestClient(f *fakeDouyin, clock utils.Clock) *Client {
	return NewClient(Config{
		ClientKey:    "ck",
		ClientSecret: "secret",
		RedirectURI:  "https://api.example.com/auth/douyin/callback",
		BaseURL:      f.server.URL,
	}, cache.NewMemoryCache(clock), clock)
}

func TestClient_AuthURL(t *testing.T) {
	c := NewClient(Config{ClientKey: "ck", RedirectURI: "https://api.example.com/cb"}, nil, utils.SystemClock{})

	raw, err := c.AuthURL("state-123")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "open.douyin.com", u.Host)
	assert.Equal(t, authPath, u.Path)
	q := u.Query()
	assert.Equal(t, "ck", q.Get("client_key"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "trial.whitelist,user_info", q.Get("scope"))
	assert.Equal(t, "https://api.example.com/cb", q.Get("redirect_uri"))
	assert.Equal(t, "state-123", q.Get("state"))
}

func TestClient_ExchangeAndRefresh(t *testing.T) {
	f := newFakeDouyin(t)
	c := newTestClient(f, utils.NewFakeClock(epoch))
	ctx := context.Background()

	tok, err := c.ExchangeToken(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, &model.PlatformToken{AccessToken: "at", RefreshToken: "rt", OpenID: "oid", ExpiresIn: 1296000}, tok)

	refreshed, err := c.RefreshToken(ctx, "old-rt")
	require.NoError(t, err)
	assert.Equal(t, "at2", refreshed.AccessToken)
	assert.Equal(t, "rt2", refreshed.RefreshToken)
}

func TestClient_ExchangeError(t *testing.T) {
	f := newFakeDouyin(t)
	c := newTestClient(f, utils.NewFakeClock(epoch))

	_, err := c.ExchangeToken(context.Background(), "bad")
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, int64(10008), apiErr.Code)
	assert.Contains(t, err.Error(), "code expired")
}

func TestClient_UserInfo(t *testing.T) {
	f := newFakeDouyin(t)
	c := newTestClient(f, utils.NewFakeClock(epoch))

	u, err := c.UserInfo(context.Background(), "at", "oid")
	require.NoError(t, err)
	assert.Equal(t, &model.PlatformUser{Username: "creator", AvatarURL: "https://img/a.png"}, u)
}

func TestClient_PublishVideo(t *testing.T) {
	f := newFakeDouyin(t)
	c := newTestClient(f, utils.NewFakeClock(epoch))

	itemID, err := c.PublishVideo(context.Background(), model.PublishVideoRequest{
		AccessToken: "at",
		OpenID:      "oid",
		VideoURL:    f.server.URL + "/media/video.mp4",
		Title:       "Sunset",
		Description: "Shot on the pier",
	})
	require.NoError(t, err)
	assert.Equal(t, "item-9", itemID)
	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, []byte("fake-mp4-bytes"), f.uploadedBytes)
	assert.Equal(t, map[string]string{"video_id": "v-1", "text": "Sunset\nShot on the pier"}, f.lastCreate)
	assert.Equal(t, "https://www.douyin.com/video/item-9", c.ItemURL(itemID))
}

func TestPostText(t *testing.T) {
	assert.Equal(t, "Title", PostText("Title", "", nil))
	assert.Equal(t, "Title\nDesc", PostText("Title", "Desc", nil))
	assert.Equal(t, "Title\nDesc #travel #sea", PostText("Title", "Desc", []string{"travel", "#sea", " "}))
}

func TestSignature_Deterministic(t *testing.T) {
	sum := md5.Sum([]byte("nonce_str=abc&ticket=t-1&timestamp=1700000000"))
	want := hex.EncodeToString(sum[:])

	assert.Equal(t, want, Signature("t-1", "abc", 1700000000))
	assert.Equal(t, Signature("t-1", "abc", 1700000000), Signature("t-1", "abc", 1700000000))
	assert.NotEqual(t, want, Signature("t-1", "abd", 1700000000))
}

func TestBuildShareSchema(t *testing.T) {
	got := BuildShareSchema("ck", "n1", 1700000000, "sig", model.ShareParams{
		VideoURL: "https://cdn.example.com/v 1.mp4?x=1&y=2",
		Title:    "Hello world/你好",
		ShareID:  "share_id-1",
		Hashtags: []string{"a", "b"},
	})
	want := "snssdk1128://openplatform/share?client_key=ck&nonce_str=n1&timestamp=1700000000&signature=sig" +
		"&state=share_id-1" +
		"&video_url=https%3A%2F%2Fcdn.example.com%2Fv%201.mp4%3Fx%3D1%26y%3D2" +
		"&title=Hello%20world%2F%E4%BD%A0%E5%A5%BD" +
		"&hashtag_list=a%2Cb"
	assert.Equal(t, want, got)

	noTags := BuildShareSchema("ck", "n1", 1, "sig", model.ShareParams{VideoURL: "v", Title: "t", ShareID: "s"})
	assert.NotContains(t, noTags, "hashtag_list")
}

func TestShareURL_CachesTicketButNotNonce(t *testing.T) {
	f := newFakeDouyin(t)
	clock := utils.NewFakeClock(epoch)
	c := newTestClient(f, clock)
	ctx := context.Background()
	params := model.ShareParams{VideoURL: "https://cdn/v.mp4", Title: "t", ShareID: "s1"}

	first, err := c.ShareURL(ctx, params)
	require.NoError(t, err)
	second, err := c.ShareURL(ctx, params)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&f.clientTokens))
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.tickets))

	q1 := schemaQuery(t, first)
	q2 := schemaQuery(t, second)
	assert.NotEqual(t, q1.Get("nonce_str"), q2.Get("nonce_str"))
	assert.Len(t, q1.Get("nonce_str"), 32)
	assert.Equal(t, Signature("ticket-1", q1.Get("nonce_str"), epoch.Unix()), q1.Get("signature"))
	assert.Equal(t, "s1", q1.Get("state"))
}

func TestCredentials_RefreshWithinMargin(t *testing.T) {
	f := newFakeDouyin(t)
	clock := utils.NewFakeClock(epoch)
	c := newTestClient(f, clock)
	ctx := context.Background()

	_, err := c.Ticket(ctx)
	require.NoError(t, err)

	// 7200s lifetime: still fresh 7139s later, renewed once inside the 60s margin.
	clock.Advance(7139 * time.Second)
	_, err = c.Ticket(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.tickets))

	clock.Advance(2 * time.Second)
	ticket, err := c.Ticket(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ticket-2", ticket)
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.tickets))
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.clientTokens))
}

func schemaQuery(t *testing.T, schema string) url.Values {
	t.Helper()
	require.True(t, strings.HasPrefix(schema, shareSchemePrefix))
	q, err := url.ParseQuery(strings.TrimPrefix(schema, shareSchemePrefix))
	require.NoError(t, err)
	return q
}
