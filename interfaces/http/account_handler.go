package http

import (
	"net/http"

	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/usecase"

	"github.com/gin-gonic/gin"
)

type IAccountHandler interface {
	List(ctx *gin.Context)
	Delete(ctx *gin.Context)
	Refresh(ctx *gin.Context)
	Platforms(ctx *gin.Context)
}

type AccountHandler struct {
	accountUsecase usecase.IAccountUsecase
	registry       repository.IPlatformRegistry
}

func NewAccountHandler(uc usecase.IAccountUsecase, registry repository.IPlatformRegistry) IAccountHandler {
	return &AccountHandler{accountUsecase: uc, registry: registry}
}

func (h *AccountHandler) List(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	list, err := h.accountUsecase.List(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if list == nil {
		list = []*model.Account{}
	}
	ctx.JSON(http.StatusOK, list)
}

func (h *AccountHandler) Delete(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	if err := h.accountUsecase.Delete(ctx.Request.Context(), userID, ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}

func (h *AccountHandler) Refresh(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	acc, err := h.accountUsecase.Refresh(ctx.Request.Context(), userID, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, acc)
}

// Platforms lists the registered platform names.
func (h *AccountHandler) Platforms(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"platforms": h.registry.Names()})
}
