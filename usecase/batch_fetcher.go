package usecase

import (
	"context"
	"errors"

	"vod-catalog/domain/dto"
	"vod-catalog/domain/model"
	"vod-catalog/domain/repository"
	"vod-catalog/infrastructure/logger"
	"vod-catalog/infrastructure/metrics"
	"vod-catalog/infrastructure/retry"
)

var errVideoNotFound = errors.New("video not found upstream")

// BatchFetcher resolves video IDs into full records, chunking requests and
// degrading to per-ID requests and list-level data when a chunk fails.
type BatchFetcher struct {
	source repository.ICatalogSource
	exec   *retry.Executor
	items  repository.ICache[model.Video]
}

func NewBatchFetcher(source repository.ICatalogSource, exec *retry.Executor, items repository.ICache[model.Video]) *BatchFetcher {
	return &BatchFetcher{source: source, exec: exec, items: items}
}

// FetchDetails returns at most one record per distinct requested ID, in request order.
// listed supplies list-level records used to build degraded records for IDs
// whose detail cannot be fetched. It never fails; unresolvable IDs are omitted.
func (f *BatchFetcher) FetchDetails(ctx context.Context, ids []string, listed ...model.RawRecord) []model.Video {
	order := make([]string, 0, len(ids))
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := wanted[id]; dup {
			continue
		}
		wanted[id] = struct{}{}
		order = append(order, id)
	}
	if len(order) == 0 {
		return []model.Video{}
	}

	found := make(map[string]model.Video, len(order))
	pending := make([]string, 0, len(order))
	for _, id := range order {
		if v, ok := f.cached(id); ok {
			found[id] = v
			continue
		}
		pending = append(pending, id)
	}

	fallback := make(map[string]model.RawRecord, len(listed))
	for _, raw := range listed {
		if id := model.RecordID(raw); id != "" {
			fallback[id] = raw
		}
	}

	for start := 0; start < len(pending); start += DetailChunkSize {
		if start > 0 {
			f.exec.Pause(ctx, chunkPause)
		}
		end := start + DetailChunkSize
		if end > len(pending) {
			end = len(pending)
		}
		f.fetchChunk(ctx, pending[start:end], fallback, found)
	}

	out := make([]model.Video, 0, len(found))
	for _, id := range order {
		if v, ok := found[id]; ok {
			out = append(out, v)
		}
	}
	return out
}

func (f *BatchFetcher) fetchChunk(ctx context.Context, chunk []string, fallback map[string]model.RawRecord, found map[string]model.Video) {
	res, err := retry.Execute(ctx, f.exec, detailRetries, baseRetryDelay, func(ctx context.Context) (*dto.VodListResponse, error) {
		return f.source.Detail(ctx, chunk)
	})
	if err == nil {
		inChunk := make(map[string]struct{}, len(chunk))
		for _, id := range chunk {
			inChunk[id] = struct{}{}
		}
		for _, raw := range res.Items() {
			v := model.NormalizeVideo(raw)
			if _, ok := inChunk[v.ID]; !ok {
				continue
			}
			if _, dup := found[v.ID]; dup {
				continue
			}
			found[v.ID] = v
			f.remember(v)
		}
		return
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"ids":   chunk,
		"error": err,
	}).Warn("Detail chunk failed, falling back to single requests")

	for i, id := range chunk {
		if i > 0 {
			f.exec.Pause(ctx, singleFetchPause)
		}
		v, err := f.fetchSingle(ctx, id)
		if err == nil {
			found[id] = *v
			continue
		}
		raw, ok := fallback[id]
		if !ok {
			logger.GetLogger().WithFields(map[string]interface{}{"id": id, "error": err}).Warn("Dropping unresolvable video")
			continue
		}
		degraded := model.NormalizeVideo(raw)
		degraded.Degraded = true
		found[id] = degraded
		metrics.DegradedVideos.Inc()
	}
}

// FetchOne resolves a single ID through the item cache and one detail request.
func (f *BatchFetcher) FetchOne(ctx context.Context, id string) (*model.Video, error) {
	if id == "" {
		return nil, errVideoNotFound
	}
	if v, ok := f.cached(id); ok {
		return &v, nil
	}
	return f.fetchSingle(ctx, id)
}

func (f *BatchFetcher) fetchSingle(ctx context.Context, id string) (*model.Video, error) {
	res, err := retry.Execute(ctx, f.exec, detailRetries, baseRetryDelay, func(ctx context.Context) (*dto.VodListResponse, error) {
		return f.source.Detail(ctx, []string{id})
	})
	if err != nil {
		return nil, err
	}
	for _, raw := range res.Items() {
		v := model.NormalizeVideo(raw)
		if v.ID == id {
			f.remember(v)
			return &v, nil
		}
	}
	return nil, errVideoNotFound
}

func (f *BatchFetcher) cached(id string) (model.Video, bool) {
	if f.items == nil {
		return model.Video{}, false
	}
	return f.items.Get(videoKey(id))
}

func (f *BatchFetcher) remember(v model.Video) {
	if f.items != nil && v.ID != "" && !v.Degraded {
		f.items.Set(videoKey(v.ID), v)
	}
}
