package http

import (
	"net/http"

	"mediahub/infrastructure/logger"
	"mediahub/usecase"

	"github.com/gin-gonic/gin"
)

type IShareHandler interface {
	Schema(ctx *gin.Context)
}

type ShareHandler struct {
	shareUsecase usecase.IShareUsecase
}

func NewShareHandler(uc usecase.IShareUsecase) IShareHandler {
	return &ShareHandler{shareUsecase: uc}
}

// Schema handles GET /api/share/:platform/:taskId. Every call signs a new link.
func (h *ShareHandler) Schema(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	platform, taskID := ctx.Param("platform"), ctx.Param("taskId")
	schema, err := h.shareUsecase.Schema(ctx.Request.Context(), userID, platform, taskID)
	if err != nil {
		logger.GetLogger().WithField("task_id", taskID).WithField("platform", platform).WithField("error", err.Error()).Warn("share schema failed")
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, schema)
}
