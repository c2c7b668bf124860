package http

import (
	"net/http"

	"mediahub/domain/model"
	"mediahub/usecase"

	"github.com/gin-gonic/gin"
)

type IDraftHandler interface {
	Create(ctx *gin.Context)
	List(ctx *gin.Context)
	Get(ctx *gin.Context)
	Update(ctx *gin.Context)
	Delete(ctx *gin.Context)
}

type DraftHandler struct {
	draftUsecase usecase.IDraftUsecase
}

func NewDraftHandler(uc usecase.IDraftUsecase) IDraftHandler {
	return &DraftHandler{draftUsecase: uc}
}

func (h *DraftHandler) bind(ctx *gin.Context) (*model.Draft, bool) {
	var d model.Draft
	if err := ctx.ShouldBindJSON(&d); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return nil, false
	}
	return &d, true
}

func (h *DraftHandler) Create(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	d, ok := h.bind(ctx)
	if !ok {
		return
	}
	created, err := h.draftUsecase.Create(ctx.Request.Context(), userID, d)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, created)
}

func (h *DraftHandler) List(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	list, err := h.draftUsecase.List(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, list)
}

func (h *DraftHandler) Get(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	d, err := h.draftUsecase.Get(ctx.Request.Context(), userID, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, d)
}

func (h *DraftHandler) Update(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	d, ok := h.bind(ctx)
	if !ok {
		return
	}
	updated, err := h.draftUsecase.Update(ctx.Request.Context(), userID, ctx.Param("id"), d)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, updated)
}

func (h *DraftHandler) Delete(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	if err := h.draftUsecase.Delete(ctx.Request.Context(), userID, ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}
