package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"mediahub/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const frontend = "http://localhost:5173"

func authRouter(uc *MockAuthUsecase, userID string) http.Handler {
	r := newEngine()
	h := NewAuthHandler(uc, frontend)
	r.GET("/auth/:platform", asUser(userID), h.Begin)
	r.GET("/auth/:platform/callback", h.Callback)
	return r
}

func TestAuthHandlerBegin(t *testing.T) {
	uc := new(MockAuthUsecase)
	uc.On("Begin", mock.Anything, "user-1", "douyin").Return("https://open.douyin.com/platform/oauth/connect/?state=s", nil)
	uc.On("Begin", mock.Anything, "user-1", "myspace").Return("", model.ErrUnsupportedPlatform)
	router := authRouter(uc, "user-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/douyin", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://open.douyin.com/platform/oauth/connect/?state=s", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/myspace", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerCallback(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		code      string
		state     string
		acc       *model.Account
		err       error
		wantError string
	}{
		{name: "bound", query: "?code=c&state=s", code: "c", state: "s", acc: &model.Account{ID: "acc-1"}},
		{name: "missing state", query: "?code=c", code: "c", err: model.ErrStateMissing, wantError: model.ErrStateMissing.Error()},
		{name: "expired state", query: "?code=c&state=s", code: "c", state: "s", err: model.ErrStateExpired, wantError: "authorization expired, please bind the account again"},
		{name: "exchange failure", query: "?code=c&state=s", code: "c", state: "s", err: errors.New("douyin: code expired"), wantError: "douyin: code expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := new(MockAuthUsecase)
			uc.On("Callback", mock.Anything, "douyin", tt.code, tt.state).Return(tt.acc, tt.err)

			w := httptest.NewRecorder()
			authRouter(uc, "").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/douyin/callback"+tt.query, nil))

			assert.Equal(t, http.StatusFound, w.Code)
			loc, err := url.Parse(w.Header().Get("Location"))
			assert.NoError(t, err)
			assert.Equal(t, "/accounts", loc.Path)
			assert.Equal(t, tt.wantError, loc.Query().Get("error"))
			uc.AssertExpectations(t)
		})
	}
}
