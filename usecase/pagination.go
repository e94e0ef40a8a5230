package usecase

import (
	"context"
	"sync"

	"vod-catalog/domain/dto"
	"vod-catalog/domain/model"
	"vod-catalog/domain/repository"
	"vod-catalog/infrastructure/logger"
	"vod-catalog/infrastructure/metrics"
	"vod-catalog/infrastructure/retry"

	"golang.org/x/sync/errgroup"
)

// PaginationEngine loads ranges of upstream pages and maintains the homepage
// snapshot, extending it in the background after the first response.
type PaginationEngine struct {
	source   repository.ICatalogSource
	exec     *retry.Executor
	fetcher  *BatchFetcher
	snapshot repository.ISnapshotStore
	store    repository.IVideoStore
	observer func(*model.PageResult)

	mu         sync.Mutex
	background chan struct{}
}

func NewPaginationEngine(source repository.ICatalogSource, exec *retry.Executor, fetcher *BatchFetcher, snapshot repository.ISnapshotStore) *PaginationEngine {
	done := make(chan struct{})
	close(done)
	return &PaginationEngine{
		source:     source,
		exec:       exec,
		fetcher:    fetcher,
		snapshot:   snapshot,
		background: done,
	}
}

// WithSnapshotObserver registers a callback invoked with every new snapshot (fluent)
func (e *PaginationEngine) WithSnapshotObserver(fn func(*model.PageResult)) *PaginationEngine {
	e.observer = fn
	return e
}

// WithVideoStore persists background-loaded videos to a warm store (fluent)
func (e *PaginationEngine) WithVideoStore(store repository.IVideoStore) *PaginationEngine {
	e.store = store
	return e
}

type pageLoad struct {
	page   int
	ok     bool
	empty  bool
	videos []model.Video
}

// LoadPages loads pageCount pages starting at startPage. Pages are requested
// in groups of PageGroupSize; groups run in order, pages inside a group run
// concurrently. A failed page counts as not processed; an empty page ends the range.
func (e *PaginationEngine) LoadPages(ctx context.Context, startPage, pageCount, pageSize int) model.PageResult {
	res, _ := e.loadRange(ctx, startPage, pageCount, pageSize)
	return res
}

// loadRange is LoadPages that also reports whether an empty page ended the range.
func (e *PaginationEngine) loadRange(ctx context.Context, startPage, pageCount, pageSize int) (model.PageResult, bool) {
	if startPage <= 0 {
		startPage = 1
	}
	if pageCount <= 0 {
		return model.PageResult{Videos: []model.Video{}}, false
	}
	if pageSize <= 0 {
		pageSize = HomePageSize
	}

	var (
		seenMu sync.Mutex
		seen   = make(map[string]struct{})
		all    []model.Video
	)
	claim := func(items []model.RawRecord) []string {
		seenMu.Lock()
		defer seenMu.Unlock()
		ids := make([]string, 0, len(items))
		for _, raw := range items {
			id := model.RecordID(raw)
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
			if len(ids) == pageSize {
				break
			}
		}
		return ids
	}

	hasMorePages := true
	processed := 0
	lastPage := startPage + pageCount - 1
	for groupStart := startPage; groupStart <= lastPage && hasMorePages; groupStart += PageGroupSize {
		if groupStart > startPage {
			e.exec.Pause(ctx, groupPause)
		}
		groupEnd := groupStart + PageGroupSize - 1
		if groupEnd > lastPage {
			groupEnd = lastPage
		}

		loads := make([]pageLoad, groupEnd-groupStart+1)
		var g errgroup.Group
		for i := range loads {
			i := i
			page := groupStart + i
			g.Go(func() error {
				loads[i] = e.loadPage(ctx, page, pageSize, claim)
				return nil
			})
		}
		_ = g.Wait()

		for _, load := range loads {
			if !load.ok {
				continue
			}
			if load.empty {
				hasMorePages = false
				continue
			}
			processed++
			all = append(all, load.videos...)
		}
	}

	videos := model.DedupeByID(all)
	model.SortByPopularity(videos)
	return model.PageResult{
		Videos:      videos,
		HasMore:     hasMorePages && processed == pageCount,
		PagesLoaded: processed,
		TotalCount:  len(videos),
	}, !hasMorePages
}

func (e *PaginationEngine) loadPage(ctx context.Context, page, pageSize int, claim func([]model.RawRecord) []string) pageLoad {
	res, err := retry.Execute(ctx, e.exec, pageRetries, baseRetryDelay, func(ctx context.Context) (*dto.VodListResponse, error) {
		return e.source.List(ctx, &dto.VodListRequest{Action: dto.ActionList, Page: page, Limit: pageSize})
	})
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{"page": page, "error": err}).Warn("Failed to load page")
		return pageLoad{page: page}
	}
	items := res.Items()
	if len(items) == 0 {
		return pageLoad{page: page, ok: true, empty: true}
	}

	ids := claim(items)
	if len(ids) == 0 {
		return pageLoad{page: page, ok: true, videos: []model.Video{}}
	}
	videos := e.fetcher.FetchDetails(ctx, ids, items...)
	if len(videos) == 0 {
		videos = degradedFromList(items, ids)
	}
	return pageLoad{page: page, ok: true, videos: videos}
}

// LoadProgressive returns the homepage snapshot, building it from the first
// initialPages pages on a miss and extending it up to maxPages in the background.
func (e *PaginationEngine) LoadProgressive(ctx context.Context, initialPages, maxPages int) model.PageResult {
	if snap, ok := e.snapshot.Get(ctx); ok && snap != nil {
		return *snap
	}

	initial, ended := e.loadRange(ctx, 1, initialPages, HomePageSize)
	if len(initial.Videos) == 0 {
		logger.GetLogger().Warn("Progressive load found no videos; snapshot not cached")
		return initial
	}
	if err := e.snapshot.Set(ctx, &initial); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Failed to store homepage snapshot")
	}
	e.notify(&initial)

	// a failed page does not end the catalog, only an empty one does
	if !ended && initialPages < maxPages {
		e.startBackground(context.WithoutCancel(ctx), initialPages+1, maxPages)
	}
	return *initial.Clone()
}

// Background returns a channel closed when the current background extension
// finishes. It is already closed when none is running.
func (e *PaginationEngine) Background() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.background
}

// Wait blocks until the current background extension finishes.
func (e *PaginationEngine) Wait() {
	<-e.Background()
}

func (e *PaginationEngine) startBackground(ctx context.Context, fromPage, maxPages int) bool {
	e.mu.Lock()
	select {
	case <-e.background:
	default:
		e.mu.Unlock()
		return false
	}
	done := make(chan struct{})
	e.background = done
	e.mu.Unlock()

	go func() {
		defer close(done)
		e.extendSnapshot(ctx, fromPage, maxPages)
	}()
	return true
}

func (e *PaginationEngine) extendSnapshot(ctx context.Context, fromPage, maxPages int) {
	for page := fromPage; page <= maxPages; page += BackgroundBatchPages {
		if page > fromPage {
			e.exec.Pause(ctx, backgroundPause)
		}
		count := BackgroundBatchPages
		if page+count-1 > maxPages {
			count = maxPages - page + 1
		}

		batch, ended := e.loadRange(ctx, page, count, HomePageSize)
		last := page+count-1 >= maxPages
		stop := ended || last
		if last {
			batch.HasMore = false
		}

		var merged *model.PageResult
		err := e.snapshot.Update(ctx, func(current *model.PageResult) *model.PageResult {
			merged = mergeSnapshot(current, &batch)
			return merged
		})
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Failed to merge background pages into snapshot")
			return
		}
		if merged == nil {
			logger.GetLogger().Info("Homepage snapshot gone, stopping background load")
			return
		}
		e.notify(merged)
		e.persist(ctx, batch.Videos)

		logger.GetLogger().WithFields(map[string]interface{}{
			"fromPage": page,
			"pages":    batch.PagesLoaded,
			"total":    merged.TotalCount,
			"hasMore":  merged.HasMore,
		}).Debug("Extended homepage snapshot")

		if stop {
			return
		}
	}
}

// mergeSnapshot adds the batch's unseen videos to current and re-sorts.
// HasMore is taken from the batch. A missing snapshot is not recreated.
func mergeSnapshot(current, batch *model.PageResult) *model.PageResult {
	if current == nil {
		return nil
	}
	next := current.Clone()
	next.HasMore = batch.HasMore
	next.PagesLoaded += batch.PagesLoaded
	if len(batch.Videos) == 0 {
		return next
	}
	next.Videos = model.DedupeByID(append(next.Videos, batch.Videos...))
	model.SortByPopularity(next.Videos)
	next.TotalCount = len(next.Videos)
	return next
}

func (e *PaginationEngine) notify(snap *model.PageResult) {
	if e.observer != nil {
		e.observer(snap.Clone())
	}
}

// persist writes fully resolved videos to the warm store. Degraded records are skipped.
func (e *PaginationEngine) persist(ctx context.Context, videos []model.Video) {
	if e.store == nil {
		return
	}
	resolved := make([]model.Video, 0, len(videos))
	for _, v := range videos {
		if !v.Degraded {
			resolved = append(resolved, v)
		}
	}
	if len(resolved) == 0 {
		return
	}
	if err := e.store.UpsertVideos(ctx, resolved, warmStoreTTL); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Failed to persist background videos")
	}
}

func degradedFromList(items []model.RawRecord, ids []string) []model.Video {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]model.Video, 0, len(ids))
	for _, v := range model.NormalizeVideos(items) {
		if _, ok := want[v.ID]; !ok {
			continue
		}
		delete(want, v.ID)
		v.Degraded = true
		out = append(out, v)
		metrics.DegradedVideos.Inc()
	}
	return out
}
