package http

import (
	"io"
	"net/http"

	"mediahub/infrastructure/logger"
	"mediahub/usecase"

	"github.com/gin-gonic/gin"
)

const (
	SignatureHeader = "X-Douyin-Signature"

	maxWebhookBody = 1 << 20
)

type IWebhookHandler interface {
	Receive(ctx *gin.Context)
}

type WebhookHandler struct {
	webhookUsecase usecase.IWebhookUsecase
}

func NewWebhookHandler(uc usecase.IWebhookUsecase) IWebhookHandler {
	return &WebhookHandler{webhookUsecase: uc}
}

// Receive handles POST /webhook/:platform. The raw body is what gets signed,
// so it is read before any decoding.
func (h *WebhookHandler) Receive(ctx *gin.Context) {
	platform := ctx.Param("platform")
	body, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxWebhookBody))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "unable to read body"})
		return
	}
	res, err := h.webhookUsecase.Handle(ctx.Request.Context(), platform, body, ctx.GetHeader(SignatureHeader))
	if err != nil {
		logger.GetLogger().WithField("platform", platform).WithField("error", err.Error()).Warn("webhook rejected")
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, res)
}
