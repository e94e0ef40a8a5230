package http

import (
	"net/http"

	"vod-catalog/domain/dto"
	"vod-catalog/domain/repository"
	"vod-catalog/infrastructure/logger"
	"vod-catalog/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IScrollHandler exposes infinite-scroll sessions over HTTP
type IScrollHandler interface {
	CreateSession(ctx *gin.Context)
	NextPage(ctx *gin.Context)
	ReportPosition(ctx *gin.Context)
	GetSession(ctx *gin.Context)
}

type ScrollHandler struct {
	catalogUseCase usecase.ICatalogUseCase
	sessions       repository.ICache[*usecase.ScrollController]
}

func NewScrollHandler(catalogUseCase usecase.ICatalogUseCase, sessions repository.ICache[*usecase.ScrollController]) IScrollHandler {
	return &ScrollHandler{catalogUseCase: catalogUseCase, sessions: sessions}
}

// CreateSession handles POST /api/scroll and returns the first page
func (h *ScrollHandler) CreateSession(ctx *gin.Context) {
	var req dto.ScrollSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": ErrorUnmarshal, "message": err.Error()})
		return
	}

	pageSize := req.PageSize
	if pageSize <= 0 || pageSize > maxLimit {
		pageSize = 12
	}
	controller := usecase.NewScrollController(h.catalogUseCase, usecase.ScrollMode(req.Mode), req.Key, pageSize, nil).
		WithExcluded(req.SeedIDs)
	update, loaded := controller.LoadMore(ctx.Request.Context())

	sessionID := uuid.NewString()
	h.sessions.Set(sessionID, controller)
	ctx.JSON(http.StatusCreated, gin.H{"success": true, "data": toSessionResponse(sessionID, controller, update, loaded)})
}

// NextPage handles POST /api/scroll/:id/next
func (h *ScrollHandler) NextPage(ctx *gin.Context) {
	sessionID, controller, ok := h.session(ctx)
	if !ok {
		return
	}
	update, loaded := controller.LoadMore(ctx.Request.Context())
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": toSessionResponse(sessionID, controller, update, loaded)})
}

// ReportPosition handles POST /api/scroll/:id/position and loads when near the bottom
func (h *ScrollHandler) ReportPosition(ctx *gin.Context) {
	sessionID, controller, ok := h.session(ctx)
	if !ok {
		return
	}
	var req dto.ScrollPositionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": ErrorUnmarshal, "message": err.Error()})
		return
	}

	update, loaded := controller.OnScroll(ctx.Request.Context(), usecase.ScrollPosition{
		ScrollTop:    req.ScrollTop,
		ScrollHeight: req.ScrollHeight,
		ClientHeight: req.ClientHeight,
		Threshold:    req.Threshold,
	})
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": toSessionResponse(sessionID, controller, update, loaded)})
}

// GetSession handles GET /api/scroll/:id
func (h *ScrollHandler) GetSession(ctx *gin.Context) {
	sessionID, controller, ok := h.session(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": toSessionResponse(sessionID, controller, controller.Snapshot(), false)})
}

func (h *ScrollHandler) session(ctx *gin.Context) (string, *usecase.ScrollController, bool) {
	sessionID := ctx.Param("id")
	controller, ok := h.sessions.Get(sessionID)
	if !ok || controller == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Scroll session not found", "sessionId": sessionID})
		return sessionID, nil, false
	}
	return sessionID, controller, true
}

func toSessionResponse(sessionID string, controller *usecase.ScrollController, update usecase.ScrollUpdate, triggered bool) dto.ScrollSessionResponse {
	return dto.ScrollSessionResponse{
		SessionID: sessionID,
		Mode:      string(controller.Mode()),
		Key:       controller.Key(),
		State:     string(update.State),
		Page:      update.Page,
		Videos:    update.Videos,
		Added:     update.Added,
		HasMore:   update.HasMore,
		Triggered: triggered,
	}
}
