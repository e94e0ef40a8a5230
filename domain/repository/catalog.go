package repository

import (
	"context"
	"time"

	"vod-catalog/domain/dto"
	"vod-catalog/domain/model"
)

// ICatalogSource is the upstream content API
type ICatalogSource interface {
	// List returns one page of list-level records for the given filters.
	List(ctx context.Context, req *dto.VodListRequest) (*dto.VodListResponse, error)
	// Detail returns full records for the given IDs in a single request.
	Detail(ctx context.Context, ids []string) (*dto.VodListResponse, error)
}

// ICache is a bounded key/value cache with per-entry expiry
type ICache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V)
	Has(key string) bool
	Clear()
	Len() int
}

// ISnapshotStore holds the single homepage snapshot.
// Update applies fn to the current value and stores its result as one atomic step.
type ISnapshotStore interface {
	Get(ctx context.Context) (*model.PageResult, bool)
	Set(ctx context.Context, snapshot *model.PageResult) error
	Update(ctx context.Context, fn func(current *model.PageResult) *model.PageResult) error
	Clear(ctx context.Context) error
}

// IVideoStore is a persistent second-level cache of normalized videos
type IVideoStore interface {
	// GetVideo returns a stored video if present. Expired rows are a miss but still report their expiry.
	GetVideo(ctx context.Context, videoID string) (*model.Video, *time.Time, error)
	UpsertVideo(ctx context.Context, video *model.Video, ttl time.Duration) error
	UpsertVideos(ctx context.Context, videos []model.Video, ttl time.Duration) error
	// PurgeExpired deletes expired rows and returns how many were removed.
	PurgeExpired(ctx context.Context) (int64, error)
}
