package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"vod-catalog/domain/dto"
	"vod-catalog/domain/model"
	"vod-catalog/domain/repository"
	"vod-catalog/infrastructure/logger"
	"vod-catalog/infrastructure/retry"

	"golang.org/x/sync/errgroup"
)

const (
	defaultLimit       = 20
	defaultScrollLimit = 12
)

// ICatalogUseCase defines the caller-facing catalog operations.
// None of them fail: upstream errors degrade to empty or partial results.
type ICatalogUseCase interface {
	SearchVideos(ctx context.Context, query string, limit int) []model.Video
	VideosByCategory(ctx context.Context, category string, limit int) []model.Video
	AllVideos(ctx context.Context, limit int, progressive bool) []model.Video
	VideoByID(ctx context.Context, id string) *model.Video
	RelatedVideos(ctx context.Context, seedID, seedCategory, seedTitle string, limit int) []model.Video
	MoreInCategory(ctx context.Context, category string, excludeIDs []string, page, limit int) model.ScrollPage
	PagedVideos(ctx context.Context, startPage, pageCount, pageSize int) model.PageResult
	FilterPage(ctx context.Context, filter string, page, limit int, excludeIDs []string) model.ScrollPage
	Categories(ctx context.Context) []string
	Status(ctx context.Context) model.APIStatus
	ClearCaches(ctx context.Context) error
	PurgeExpired(ctx context.Context) (int64, error)
}

// CatalogUseCase wires the fetcher, pagination engine and related resolver behind ICatalogUseCase
type CatalogUseCase struct {
	source     repository.ICatalogSource
	exec       *retry.Executor
	items      repository.ICache[model.Video]
	snapshot   repository.ISnapshotStore
	store      repository.IVideoStore // optional
	categories *model.CategoryTable

	fetcher *BatchFetcher
	pager   *PaginationEngine
	related *RelatedResolver

	initialPages int
	maxPages     int
}

var _ ICatalogUseCase = (*CatalogUseCase)(nil)

// NewCatalogUseCase creates the catalog use case. items and snapshot are the
// process-wide caches; exec carries the wait strategy for retries and pacing.
func NewCatalogUseCase(source repository.ICatalogSource, items repository.ICache[model.Video], snapshot repository.ISnapshotStore, exec *retry.Executor) *CatalogUseCase {
	if exec == nil {
		exec = retry.NewExecutor(nil)
	}
	categories := model.DefaultCategoryTable()
	fetcher := NewBatchFetcher(source, exec, items)
	return &CatalogUseCase{
		source:       source,
		exec:         exec,
		items:        items,
		snapshot:     snapshot,
		categories:   categories,
		fetcher:      fetcher,
		pager:        NewPaginationEngine(source, exec, fetcher, snapshot),
		related:      NewRelatedResolver(source, exec, fetcher, categories),
		initialPages: 15,
		maxPages:     100,
	}
}

// WithVideoStore enables the persistent warm store (fluent)
func (u *CatalogUseCase) WithVideoStore(store repository.IVideoStore) *CatalogUseCase {
	u.store = store
	u.pager.WithVideoStore(store)
	return u
}

// WithSnapshotObserver forwards every homepage snapshot change to fn (fluent)
func (u *CatalogUseCase) WithSnapshotObserver(fn func(*model.PageResult)) *CatalogUseCase {
	u.pager.WithSnapshotObserver(fn)
	return u
}

// WithProgressivePages overrides the progressive homepage page counts (fluent)
func (u *CatalogUseCase) WithProgressivePages(initialPages, maxPages int) *CatalogUseCase {
	if initialPages > 0 {
		u.initialPages = initialPages
	}
	if maxPages >= u.initialPages {
		u.maxPages = maxPages
	}
	return u
}

// Pager exposes the pagination engine, mainly to await background loading.
func (u *CatalogUseCase) Pager() *PaginationEngine {
	return u.pager
}

func (u *CatalogUseCase) SearchVideos(ctx context.Context, query string, limit int) []model.Video {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Video{}
	}
	return u.listAndResolve(ctx, &dto.VodListRequest{Query: query, Limit: orLimit(limit, defaultLimit)})
}

func (u *CatalogUseCase) VideosByCategory(ctx context.Context, category string, limit int) []model.Video {
	category = strings.TrimSpace(category)
	if category == "" || category == "all" {
		return u.AllVideos(ctx, limit, false)
	}
	limit = orLimit(limit, defaultLimit)
	items, err := u.list(ctx, listRetries, &dto.VodListRequest{TypeID: category, Limit: limit})
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{"category": category, "error": err}).Error("Failed to list category")
		return []model.Video{}
	}
	if len(items) == 0 {
		return u.SearchVideos(ctx, category, limit)
	}
	return u.resolve(ctx, items, limit)
}

func (u *CatalogUseCase) AllVideos(ctx context.Context, limit int, progressive bool) []model.Video {
	limit = orLimit(limit, defaultLimit)
	if progressive {
		res := u.pager.LoadProgressive(ctx, u.initialPages, u.maxPages)
		return model.Truncate(res.Videos, limit)
	}
	return u.listAndResolve(ctx, &dto.VodListRequest{Limit: limit})
}

// VideoByID looks in the item cache, then the warm store, then asks upstream.
func (u *CatalogUseCase) VideoByID(ctx context.Context, id string) *model.Video {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	if v, ok := u.fetcher.cached(id); ok {
		return &v
	}
	if u.store != nil {
		if v, _, err := u.store.GetVideo(ctx, id); err == nil && v != nil {
			u.fetcher.remember(*v)
			return v
		} else if err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{"id": id, "error": err}).Warn("Warm store lookup failed")
		}
	}
	v, err := u.fetcher.FetchOne(ctx, id)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{"id": id, "error": err}).Warn("Failed to fetch video")
		return nil
	}
	if u.store != nil {
		if err := u.store.UpsertVideo(ctx, v, warmStoreTTL); err != nil {
			logger.GetLogger().WithField("error", err).Warn("Failed to persist video")
		}
	}
	return v
}

func (u *CatalogUseCase) RelatedVideos(ctx context.Context, seedID, seedCategory, seedTitle string, limit int) []model.Video {
	return u.related.FindRelated(ctx, seedID, seedCategory, seedTitle, orLimit(limit, defaultScrollLimit))
}

// MoreInCategory returns the next page of videos in category, skipping excludeIDs.
// HasMore comes from probing the following page.
func (u *CatalogUseCase) MoreInCategory(ctx context.Context, category string, excludeIDs []string, page, limit int) model.ScrollPage {
	category = strings.TrimSpace(category)
	if category == "" {
		return model.ScrollPage{Videos: []model.Video{}}
	}
	if page <= 0 {
		page = 1
	}
	limit = orLimit(limit, defaultScrollLimit)

	seen := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		seen[id] = struct{}{}
	}

	typeID, mapped := u.categories.IDFor(category)
	strategies := make([]dto.VodListRequest, 0, 3)
	if mapped {
		strategies = append(strategies, dto.VodListRequest{TypeID: typeID})
	}
	strategies = append(strategies, dto.VodListRequest{TypeID: category}, dto.VodListRequest{Query: category})

	var found []model.Video
	for _, req := range strategies {
		if len(found) >= limit {
			break
		}
		req.Page = page
		req.Limit = limit * 2
		items, err := u.list(ctx, strategyRetries, &req)
		if err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{"category": category, "page": page, "error": err}).Warn("Category strategy failed")
			continue
		}
		ids, listed := pickCategoryMatches(items, category, seen, limit-len(found))
		if len(ids) == 0 {
			continue
		}
		for _, v := range u.fetcher.FetchDetails(ctx, ids, listed...) {
			if sameCategory(v, category) {
				found = append(found, v)
			}
		}
	}

	hasMore := false
	if len(found) > 0 {
		probe := dto.VodListRequest{TypeID: category, Page: page + 1, Limit: 1}
		if mapped {
			probe.TypeID = typeID
		}
		items, err := u.listWithDelay(ctx, probeRetries, probeRetryDelay, &probe)
		if err != nil {
			hasMore = len(found) >= limit
		} else {
			hasMore = len(items) > 0
		}
	}

	videos := model.DedupeByID(found)
	model.SortByPopularity(videos)
	return model.ScrollPage{Videos: model.Truncate(videos, limit), HasMore: hasMore}
}

func (u *CatalogUseCase) PagedVideos(ctx context.Context, startPage, pageCount, pageSize int) model.PageResult {
	return u.pager.LoadPages(ctx, startPage, pageCount, pageSize)
}

// FilterPage lists one upstream page for a type filter. A blank or "all"
// filter pages through the whole catalog. HasMore is true while upstream returns full pages.
func (u *CatalogUseCase) FilterPage(ctx context.Context, filter string, page, limit int, excludeIDs []string) model.ScrollPage {
	filter = strings.TrimSpace(filter)
	if filter == "all" {
		filter = ""
	}
	if page <= 0 {
		page = 1
	}
	limit = orLimit(limit, defaultScrollLimit)
	items, err := u.list(ctx, listRetries, &dto.VodListRequest{TypeID: filter, Page: page, Limit: limit})
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{"filter": filter, "page": page, "error": err}).Error("Failed to list filter page")
		return model.ScrollPage{Videos: []model.Video{}}
	}

	exclude := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		exclude[id] = struct{}{}
	}
	fresh := make([]model.RawRecord, 0, len(items))
	for _, raw := range items {
		if _, ok := exclude[model.RecordID(raw)]; ok {
			continue
		}
		fresh = append(fresh, raw)
	}
	return model.ScrollPage{
		Videos:  u.resolve(ctx, fresh, limit),
		HasMore: len(items) >= limit,
	}
}

// Categories gathers the distinct category labels seen across a few listing
// calls made concurrently. When every call fails the known labels are returned.
func (u *CatalogUseCase) Categories(ctx context.Context) []string {
	requests := []*dto.VodListRequest{
		{Action: dto.ActionList, Limit: 100},
		{Action: dto.ActionList, Page: 2, Limit: 50},
		{Action: dto.ActionVideoList},
	}
	results := make([][]model.RawRecord, len(requests))
	failed := make([]bool, len(requests))
	var g errgroup.Group
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			res, err := u.source.List(ctx, req)
			if err != nil {
				failed[i] = true
				logger.GetLogger().WithFields(map[string]interface{}{"source": i + 1, "error": err}).Warn("Category source failed")
				return nil
			}
			results[i] = res.Items()
			return nil
		})
	}
	_ = g.Wait()

	allFailed := true
	set := make(map[string]struct{})
	for i, items := range results {
		if !failed[i] {
			allFailed = false
		}
		for _, raw := range items {
			if c := model.RecordCategory(raw); c != "" && c != "undefined" {
				set[c] = struct{}{}
			}
		}
	}
	if allFailed {
		return u.categories.Names()
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Status probes the upstream with a single-item listing.
func (u *CatalogUseCase) Status(ctx context.Context) model.APIStatus {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()
	if _, err := u.source.List(ctx, &dto.VodListRequest{Action: dto.ActionList, Limit: 1}); err != nil {
		return model.APIStatus{Status: "error", Error: err.Error()}
	}
	return model.APIStatus{Status: "ok"}
}

// ClearCaches empties the item cache and the homepage snapshot.
func (u *CatalogUseCase) ClearCaches(ctx context.Context) error {
	if u.items != nil {
		u.items.Clear()
	}
	return u.snapshot.Clear(ctx)
}

// PurgeExpired removes expired rows from the warm store, if one is configured.
func (u *CatalogUseCase) PurgeExpired(ctx context.Context) (int64, error) {
	if u.store == nil {
		return 0, nil
	}
	return u.store.PurgeExpired(ctx)
}

func (u *CatalogUseCase) listAndResolve(ctx context.Context, req *dto.VodListRequest) []model.Video {
	items, err := u.list(ctx, listRetries, req)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{"request": req, "error": err}).Error("Failed to list videos")
		return []model.Video{}
	}
	return u.resolve(ctx, items, req.Limit)
}

// resolve fetches details for the first limit listed IDs.
func (u *CatalogUseCase) resolve(ctx context.Context, items []model.RawRecord, limit int) []model.Video {
	if len(items) > limit {
		items = items[:limit]
	}
	ids := make([]string, 0, len(items))
	for _, raw := range items {
		if id := model.RecordID(raw); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return []model.Video{}
	}
	return u.fetcher.FetchDetails(ctx, ids, items...)
}

func (u *CatalogUseCase) list(ctx context.Context, retries int, req *dto.VodListRequest) ([]model.RawRecord, error) {
	return u.listWithDelay(ctx, retries, baseRetryDelay, req)
}

func (u *CatalogUseCase) listWithDelay(ctx context.Context, retries int, delay time.Duration, req *dto.VodListRequest) ([]model.RawRecord, error) {
	req.Action = dto.ActionList
	res, err := retry.Execute(ctx, u.exec, retries, delay, func(ctx context.Context) (*dto.VodListResponse, error) {
		return u.source.List(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return res.Items(), nil
}

func orLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}
