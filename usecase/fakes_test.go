package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"vod-catalog/domain/dto"
	"vod-catalog/domain/model"
	"vod-catalog/infrastructure/cache"
	"vod-catalog/infrastructure/retry"

	"github.com/stretchr/testify/mock"
)

var errUpstream = errors.New("upstream unavailable")

// fakeSource is an in-memory upstream. Listing filters and paginates the
// catalog the way the real API does; hooks override individual calls.
type fakeSource struct {
	mu         sync.Mutex
	catalog    []model.RawRecord
	listHook   func(req dto.VodListRequest) ([]model.RawRecord, error)
	detailHook func(ids []string) error
	lists      []dto.VodListRequest
	details    [][]string
}

func newFakeSource(records ...model.RawRecord) *fakeSource {
	return &fakeSource{catalog: records}
}

func record(id, typeName string, hits int) model.RawRecord {
	return model.RawRecord{
		"vod_id":    id,
		"vod_name":  "Video " + id,
		"type_name": typeName,
		"vod_hits":  hits,
		"vod_year":  "2020",
	}
}

func records(prefix, typeName string, n int) []model.RawRecord {
	out := make([]model.RawRecord, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, record(fmt.Sprintf("%s%d", prefix, i), typeName, 1000-i))
	}
	return out
}

func (f *fakeSource) List(_ context.Context, req *dto.VodListRequest) (*dto.VodListResponse, error) {
	f.mu.Lock()
	r := *req
	f.lists = append(f.lists, r)
	hook := f.listHook
	f.mu.Unlock()

	if hook != nil {
		items, err := hook(r)
		if err != nil {
			return nil, err
		}
		return &dto.VodListResponse{List: items, Total: len(items)}, nil
	}

	matches := f.filter(r)
	page, limit := r.Page, r.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	start := (page - 1) * limit
	if start >= len(matches) {
		return &dto.VodListResponse{List: []model.RawRecord{}, Total: len(matches)}, nil
	}
	end := start + limit
	if end > len(matches) {
		end = len(matches)
	}
	return &dto.VodListResponse{List: matches[start:end], Total: len(matches)}, nil
}

func (f *fakeSource) filter(r dto.VodListRequest) []model.RawRecord {
	out := make([]model.RawRecord, 0, len(f.catalog))
	for _, raw := range f.catalog {
		typeName, _ := raw["type_name"].(string)
		typeID, _ := raw["type_id"].(string)
		name, _ := raw["vod_name"].(string)
		if r.TypeID != "" && r.TypeID != typeName && r.TypeID != typeID {
			continue
		}
		if r.Class != "" && r.Class != typeName {
			continue
		}
		if r.Query != "" && !strings.Contains(name, r.Query) && r.Query != typeName {
			continue
		}
		out = append(out, raw)
	}
	return out
}

func (f *fakeSource) Detail(_ context.Context, ids []string) (*dto.VodListResponse, error) {
	f.mu.Lock()
	f.details = append(f.details, append([]string(nil), ids...))
	hook := f.detailHook
	f.mu.Unlock()

	if hook != nil {
		if err := hook(ids); err != nil {
			return nil, err
		}
	}
	out := make([]model.RawRecord, 0, len(ids))
	for _, id := range ids {
		for _, raw := range f.catalog {
			if model.RecordID(raw) == id {
				out = append(out, raw)
				break
			}
		}
	}
	return &dto.VodListResponse{List: out, Total: len(out)}, nil
}

func (f *fakeSource) listCalls() []dto.VodListRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dto.VodListRequest(nil), f.lists...)
}

func (f *fakeSource) detailCalls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.details...)
}

func newItemCache() *cache.TTLCache[model.Video] {
	return cache.NewTTLCache[model.Video]("items", cache.ItemCacheCapacity, cache.ItemCacheTTL, time.Now)
}

func noWait() *retry.Executor {
	return retry.NewExecutor(retry.NoSleep)
}

// MockCatalogSource is a testify mock of the upstream
type MockCatalogSource struct {
	mock.Mock
}

func (m *MockCatalogSource) List(ctx context.Context, req *dto.VodListRequest) (*dto.VodListResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.VodListResponse), args.Error(1)
}

func (m *MockCatalogSource) Detail(ctx context.Context, ids []string) (*dto.VodListResponse, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.VodListResponse), args.Error(1)
}

// MockVideoStore is a testify mock of the warm store
type MockVideoStore struct {
	mock.Mock
}

func (m *MockVideoStore) GetVideo(ctx context.Context, videoID string) (*model.Video, *time.Time, error) {
	args := m.Called(ctx, videoID)
	var v *model.Video
	if got := args.Get(0); got != nil {
		v = got.(*model.Video)
	}
	var exp *time.Time
	if got := args.Get(1); got != nil {
		exp = got.(*time.Time)
	}
	return v, exp, args.Error(2)
}

func (m *MockVideoStore) UpsertVideo(ctx context.Context, video *model.Video, ttl time.Duration) error {
	args := m.Called(ctx, video, ttl)
	return args.Error(0)
}

func (m *MockVideoStore) UpsertVideos(ctx context.Context, videos []model.Video, ttl time.Duration) error {
	args := m.Called(ctx, videos, ttl)
	return args.Error(0)
}

func (m *MockVideoStore) PurgeExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockCatalogUseCase is a testify mock of ICatalogUseCase
type MockCatalogUseCase struct {
	mock.Mock
}

func (m *MockCatalogUseCase) SearchVideos(ctx context.Context, query string, limit int) []model.Video {
	return m.Called(ctx, query, limit).Get(0).([]model.Video)
}

func (m *MockCatalogUseCase) VideosByCategory(ctx context.Context, category string, limit int) []model.Video {
	return m.Called(ctx, category, limit).Get(0).([]model.Video)
}

func (m *MockCatalogUseCase) AllVideos(ctx context.Context, limit int, progressive bool) []model.Video {
	return m.Called(ctx, limit, progressive).Get(0).([]model.Video)
}

func (m *MockCatalogUseCase) VideoByID(ctx context.Context, id string) *model.Video {
	v, _ := m.Called(ctx, id).Get(0).(*model.Video)
	return v
}

func (m *MockCatalogUseCase) RelatedVideos(ctx context.Context, seedID, seedCategory, seedTitle string, limit int) []model.Video {
	return m.Called(ctx, seedID, seedCategory, seedTitle, limit).Get(0).([]model.Video)
}

func (m *MockCatalogUseCase) MoreInCategory(ctx context.Context, category string, excludeIDs []string, page, limit int) model.ScrollPage {
	return m.Called(ctx, category, excludeIDs, page, limit).Get(0).(model.ScrollPage)
}

func (m *MockCatalogUseCase) PagedVideos(ctx context.Context, startPage, pageCount, pageSize int) model.PageResult {
	return m.Called(ctx, startPage, pageCount, pageSize).Get(0).(model.PageResult)
}

func (m *MockCatalogUseCase) FilterPage(ctx context.Context, filter string, page, limit int, excludeIDs []string) model.ScrollPage {
	return m.Called(ctx, filter, page, limit, excludeIDs).Get(0).(model.ScrollPage)
}

func (m *MockCatalogUseCase) Categories(ctx context.Context) []string {
	return m.Called(ctx).Get(0).([]string)
}

func (m *MockCatalogUseCase) Status(ctx context.Context) model.APIStatus {
	return m.Called(ctx).Get(0).(model.APIStatus)
}

func (m *MockCatalogUseCase) ClearCaches(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockCatalogUseCase) PurgeExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
