package http

import (
	"errors"
	"net/http"
	"net/url"

	"mediahub/domain/model"
	"mediahub/infrastructure/logger"
	"mediahub/usecase"

	"github.com/gin-gonic/gin"
)

type IAuthHandler interface {
	Begin(ctx *gin.Context)
	Callback(ctx *gin.Context)
}

type AuthHandler struct {
	authUsecase usecase.IAuthUsecase
	frontendURL string
}

func NewAuthHandler(uc usecase.IAuthUsecase, frontendURL string) IAuthHandler {
	return &AuthHandler{authUsecase: uc, frontendURL: frontendURL}
}

// Begin handles GET /auth/:platform and redirects to the platform's authorize page.
func (h *AuthHandler) Begin(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	platform := ctx.Param("platform")
	authURL, err := h.authUsecase.Begin(ctx.Request.Context(), userID, platform)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, authURL)
}

// Callback handles GET /auth/:platform/callback. The browser always lands
// back on the accounts page, with ?error= when binding failed.
func (h *AuthHandler) Callback(ctx *gin.Context) {
	platform := ctx.Param("platform")
	acc, err := h.authUsecase.Callback(ctx.Request.Context(), platform, ctx.Query("code"), ctx.Query("state"))
	if err != nil {
		logger.GetLogger().WithField("platform", platform).WithField("error", err.Error()).Warn("oauth callback failed")
		ctx.Redirect(http.StatusFound, h.accountsURL(callbackMessage(err)))
		return
	}
	logger.GetLogger().WithField("platform", platform).WithField("account_id", acc.ID).Info("Account bound")
	ctx.Redirect(http.StatusFound, h.accountsURL(""))
}

func callbackMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrStateMissing):
		return model.ErrStateMissing.Error()
	case errors.Is(err, model.ErrStateInvalid), errors.Is(err, model.ErrStateExpired):
		return "authorization expired, please bind the account again"
	}
	return err.Error()
}

func (h *AuthHandler) accountsURL(errMsg string) string {
	u := h.frontendURL + "/accounts"
	if errMsg != "" {
		u += "?error=" + url.QueryEscape(errMsg)
	}
	return u
}
