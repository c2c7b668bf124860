package http

import (
	"net/http"

	"mediahub/infrastructure/logger"
	"mediahub/infrastructure/realtime"
	"mediahub/usecase"

	"github.com/gin-gonic/gin"
)

type ITaskHandler interface {
	Create(ctx *gin.Context)
	List(ctx *gin.Context)
	Get(ctx *gin.Context)
	Cancel(ctx *gin.Context)
	Stream(ctx *gin.Context)
}

type TaskHandler struct {
	taskUsecase usecase.ITaskUsecase
	hub         *realtime.Hub
}

func NewTaskHandler(uc usecase.ITaskUsecase, hub *realtime.Hub) ITaskHandler {
	return &TaskHandler{taskUsecase: uc, hub: hub}
}

func (h *TaskHandler) Create(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	var req usecase.CreateTaskInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	res, err := h.taskUsecase.Create(ctx.Request.Context(), userID, req)
	if err != nil {
		logger.GetLogger().WithField("user_id", userID).WithField("error", err.Error()).Warn("create task failed")
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, res)
}

func (h *TaskHandler) List(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	list, err := h.taskUsecase.List(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if list == nil {
		list = []*usecase.TaskView{}
	}
	ctx.JSON(http.StatusOK, list)
}

func (h *TaskHandler) Get(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	view, err := h.taskUsecase.Get(ctx.Request.Context(), userID, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, view)
}

func (h *TaskHandler) Cancel(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	taskID := ctx.Param("id")
	if err := h.taskUsecase.Cancel(ctx.Request.Context(), userID, taskID); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"id": taskID, "status": "cancelled"})
}

// Stream pushes task events for the caller as server-sent events.
func (h *TaskHandler) Stream(ctx *gin.Context) {
	if h.hub == nil {
		ctx.JSON(http.StatusNotImplemented, gin.H{"error": "event stream not configured"})
		return
	}
	h.hub.Serve(ctx)
}
