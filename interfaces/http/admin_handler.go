package http

import (
	"net/http"

	"vod-catalog/infrastructure/logger"
	"vod-catalog/usecase"

	"github.com/gin-gonic/gin"
)

const ErrorUnmarshal = "Error while unmarshal"

type IAdminHandler interface {
	ClearCache(ctx *gin.Context)
	PurgeExpired(ctx *gin.Context)
}

type AdminHandler struct {
	catalogUseCase usecase.ICatalogUseCase
}

func NewAdminHandler(catalogUseCase usecase.ICatalogUseCase) IAdminHandler {
	return &AdminHandler{catalogUseCase: catalogUseCase}
}

// ClearCache handles DELETE /api/admin/cache
func (h *AdminHandler) ClearCache(ctx *gin.Context) {
	if err := h.catalogUseCase.ClearCaches(ctx.Request.Context()); err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to clear caches")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear caches", "message": err.Error()})
		return
	}
	logger.GetLogger().WithField("user", ctx.GetString("user_name")).Info("Caches cleared")
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

// PurgeExpired handles POST /api/admin/purge
func (h *AdminHandler) PurgeExpired(ctx *gin.Context) {
	removed, err := h.catalogUseCase.PurgeExpired(ctx.Request.Context())
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to purge warm store")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to purge expired videos", "message": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"removed": removed}})
}
