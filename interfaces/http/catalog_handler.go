package http

import (
	"net/http"
	"strconv"
	"strings"

	"vod-catalog/domain/model"
	"vod-catalog/usecase"

	"github.com/gin-gonic/gin"
)

const (
	maxLimit    = 100
	maxPageSpan = 20
)

// ICatalogHandler defines the read-only catalog endpoints
type ICatalogHandler interface {
	Healthz(ctx *gin.Context)
	Status(ctx *gin.Context)
	ListVideos(ctx *gin.Context)
	GetVideo(ctx *gin.Context)
	RelatedVideos(ctx *gin.Context)
	SearchVideos(ctx *gin.Context)
	Categories(ctx *gin.Context)
	CategoryVideos(ctx *gin.Context)
	MoreInCategory(ctx *gin.Context)
	Pages(ctx *gin.Context)
	FilterPage(ctx *gin.Context)
}

type CatalogHandler struct {
	catalogUseCase usecase.ICatalogUseCase
}

func NewCatalogHandler(catalogUseCase usecase.ICatalogUseCase) ICatalogHandler {
	return &CatalogHandler{catalogUseCase: catalogUseCase}
}

// Healthz returns OK for health checks
func (h *CatalogHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status handles GET /api/status
func (h *CatalogHandler) Status(ctx *gin.Context) {
	status := h.catalogUseCase.Status(ctx.Request.Context())
	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusBadGateway
	}
	ctx.JSON(code, gin.H{"success": status.Status == "ok", "data": status})
}

// ListVideos handles GET /api/videos?limit=&progressive=
func (h *CatalogHandler) ListVideos(ctx *gin.Context) {
	limit := queryInt(ctx, "limit", 20, maxLimit)
	progressive := ctx.Query("progressive") == "true" || ctx.Query("progressive") == "1"

	videos := h.catalogUseCase.AllVideos(ctx.Request.Context(), limit, progressive)
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": model.CleanVideos(videos)})
}

// GetVideo handles GET /api/videos/:id
func (h *CatalogHandler) GetVideo(ctx *gin.Context) {
	videoID := ctx.Param("id")
	if strings.TrimSpace(videoID) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Video ID is required"})
		return
	}

	video := h.catalogUseCase.VideoByID(ctx.Request.Context(), videoID)
	if video == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Video not found", "id": videoID})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": video})
}

// RelatedVideos handles GET /api/videos/:id/related?category=&title=&limit=
// When category is omitted the seed video is looked up first.
func (h *CatalogHandler) RelatedVideos(ctx *gin.Context) {
	videoID := ctx.Param("id")
	category := ctx.Query("category")
	title := ctx.Query("title")
	limit := queryInt(ctx, "limit", 12, maxLimit)

	if category == "" {
		seed := h.catalogUseCase.VideoByID(ctx.Request.Context(), videoID)
		if seed == nil {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Video not found", "id": videoID})
			return
		}
		category = seed.Category
		if title == "" {
			title = seed.Title
		}
	}

	videos := h.catalogUseCase.RelatedVideos(ctx.Request.Context(), videoID, category, title, limit)
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": model.CleanVideos(videos)})
}

// SearchVideos handles GET /api/search?q=&limit=
func (h *CatalogHandler) SearchVideos(ctx *gin.Context) {
	query := ctx.Query("q")
	if strings.TrimSpace(query) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter q is required"})
		return
	}
	limit := queryInt(ctx, "limit", 20, maxLimit)

	videos := h.catalogUseCase.SearchVideos(ctx.Request.Context(), query, limit)
	ctx.JSON(http.StatusOK, gin.H{"success": true, "query": query, "data": model.CleanVideos(videos)})
}

// Categories handles GET /api/categories
func (h *CatalogHandler) Categories(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": h.catalogUseCase.Categories(ctx.Request.Context())})
}

// CategoryVideos handles GET /api/categories/:category?limit=
func (h *CatalogHandler) CategoryVideos(ctx *gin.Context) {
	limit := queryInt(ctx, "limit", 20, maxLimit)
	videos := h.catalogUseCase.VideosByCategory(ctx.Request.Context(), ctx.Param("category"), limit)
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": model.CleanVideos(videos)})
}

// MoreInCategory handles GET /api/categories/:category/more?page=&limit=&exclude=a,b
func (h *CatalogHandler) MoreInCategory(ctx *gin.Context) {
	page := queryInt(ctx, "page", 1, 0)
	limit := queryInt(ctx, "limit", 12, maxLimit)

	res := h.catalogUseCase.MoreInCategory(ctx.Request.Context(), ctx.Param("category"), splitIDs(ctx.Query("exclude")), page, limit)
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": model.CleanVideos(res.Videos), "hasMore": res.HasMore, "page": page})
}

// Pages handles GET /api/pages?start=&count=&size=
func (h *CatalogHandler) Pages(ctx *gin.Context) {
	start := queryInt(ctx, "start", 1, 0)
	count := queryInt(ctx, "count", 3, maxPageSpan)
	size := queryInt(ctx, "size", 18, maxLimit)

	res := h.catalogUseCase.PagedVideos(ctx.Request.Context(), start, count, size)
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": res})
}

// FilterPage handles GET /api/filters/:filter?page=&limit=&exclude=a,b
func (h *CatalogHandler) FilterPage(ctx *gin.Context) {
	page := queryInt(ctx, "page", 1, 0)
	limit := queryInt(ctx, "limit", 12, maxLimit)

	res := h.catalogUseCase.FilterPage(ctx.Request.Context(), ctx.Param("filter"), page, limit, splitIDs(ctx.Query("exclude")))
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": model.CleanVideos(res.Videos), "hasMore": res.HasMore, "page": page})
}

// queryInt reads a positive integer query parameter. Invalid values fall back
// to def; a positive ceiling caps the result.
func queryInt(ctx *gin.Context, key string, def, ceiling int) int {
	raw := ctx.Query(key)
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return def
	}
	if ceiling > 0 && val > ceiling {
		return ceiling
	}
	return val
}

func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
