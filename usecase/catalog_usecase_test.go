package usecase_test

import (
	"context"
	"testing"
	"time"

	"vod-catalog/domain/dto"
	"vod-catalog/domain/model"
	"vod-catalog/infrastructure/cache"
	"vod-catalog/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type catalogFixture struct {
	source   *fakeSource
	items    *cache.TTLCache[model.Video]
	snapshot *cache.MemorySnapshotStore
	uc       *usecase.CatalogUseCase
}

func newCatalog(catalog ...model.RawRecord) *catalogFixture {
	f := &catalogFixture{
		source:   newFakeSource(catalog...),
		items:    newItemCache(),
		snapshot: cache.NewMemorySnapshotStore(cache.SnapshotTTL, time.Now),
	}
	f.uc = usecase.NewCatalogUseCase(f.source, f.items, f.snapshot, noWait())
	return f
}

func dramaAndComedy() []model.RawRecord {
	drama := records("d", "Drama", 30)
	comedy := records("c", "Comedy", 10)
	out := make([]model.RawRecord, 0, len(drama)+len(comedy))
	for i, raw := range drama {
		out = append(out, raw)
		if i < len(comedy) {
			out = append(out, comedy[i])
		}
	}
	return out
}

func TestSearchVideos(t *testing.T) {
	f := newCatalog(dramaAndComedy()...)
	ctx := context.Background()

	assert.Empty(t, f.uc.SearchVideos(ctx, "   ", 10))
	assert.Empty(t, f.source.listCalls())

	videos := f.uc.SearchVideos(ctx, "Video", 5)
	assert.Len(t, videos, 5)
	calls := f.source.listCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Video", calls[0].Query)
	assert.Equal(t, 5, calls[0].Limit)
}

func TestVideosByCategory_BlankOrAllMatchesAllVideos(t *testing.T) {
	ctx := context.Background()
	all := newCatalog(dramaAndComedy()...).uc.AllVideos(ctx, 10, false)

	blank := newCatalog(dramaAndComedy()...).uc.VideosByCategory(ctx, "", 10)
	everything := newCatalog(dramaAndComedy()...).uc.VideosByCategory(ctx, "all", 10)

	assert.Len(t, all, 10)
	assert.Equal(t, model.IDs(all), model.IDs(blank))
	assert.Equal(t, model.IDs(all), model.IDs(everything))
}

func TestVideosByCategory_FiltersByType(t *testing.T) {
	f := newCatalog(dramaAndComedy()...)

	videos := f.uc.VideosByCategory(context.Background(), "Comedy", 20)

	assert.Len(t, videos, 10)
	for _, v := range videos {
		assert.Equal(t, "Comedy", v.Category)
	}
}

func TestVideosByCategory_FallsBackToSearch(t *testing.T) {
	thriller := record("t1", "Drama", 3)
	thriller["vod_name"] = "Thriller Night"
	f := newCatalog(append(dramaAndComedy(), thriller)...)

	videos := f.uc.VideosByCategory(context.Background(), "Thriller", 10)

	assert.Equal(t, []string{"t1"}, model.IDs(videos))
	calls := f.source.listCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "Thriller", calls[0].TypeID)
	assert.Equal(t, "Thriller", calls[1].Query)
}

func TestVideosByCategory_UpstreamFailureIsEmpty(t *testing.T) {
	f := newCatalog(dramaAndComedy()...)
	f.source.listHook = func(dto.VodListRequest) ([]model.RawRecord, error) { return nil, errUpstream }

	assert.Empty(t, f.uc.VideosByCategory(context.Background(), "Drama", 10))
	assert.Len(t, f.source.listCalls(), 3)
}

func TestMoreInCategory_PagesAreDisjoint(t *testing.T) {
	f := newCatalog(dramaAndComedy()...)
	ctx := context.Background()

	first := f.uc.MoreInCategory(ctx, "Drama", nil, 1, 12)
	require.Len(t, first.Videos, 12)
	assert.True(t, first.HasMore)

	second := f.uc.MoreInCategory(ctx, "Drama", model.IDs(first.Videos), 2, 12)
	assert.NotEmpty(t, second.Videos)

	shown := make(map[string]struct{})
	for _, v := range append(first.Videos, second.Videos...) {
		assert.Equal(t, "Drama", v.Category)
		_, dup := shown[v.ID]
		assert.False(t, dup, "video %s shown twice", v.ID)
		shown[v.ID] = struct{}{}
	}
}

func TestMoreInCategory_UsesMappedTypeID(t *testing.T) {
	var catalog []model.RawRecord
	for _, raw := range records("a", "动作片", 20) {
		raw["type_id"] = "48"
		catalog = append(catalog, raw)
	}
	f := newCatalog(catalog...)

	page := f.uc.MoreInCategory(context.Background(), "动作片", nil, 1, 8)

	assert.Len(t, page.Videos, 8)
	assert.True(t, page.HasMore)
	calls := f.source.listCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "48", calls[0].TypeID)
	assert.Equal(t, 16, calls[0].Limit)
	// probe of the following page
	assert.Equal(t, "48", calls[1].TypeID)
	assert.Equal(t, 2, calls[1].Page)
	assert.Equal(t, 1, calls[1].Limit)
}

func TestMoreInCategory_ProbeFailureFallsBackToFullPage(t *testing.T) {
	f := newCatalog(dramaAndComedy()...)
	inner := f.source.filter
	f.source.listHook = func(req dto.VodListRequest) ([]model.RawRecord, error) {
		if req.Limit == 1 {
			return nil, errUpstream
		}
		all := inner(req)
		return all[:req.Limit], nil
	}

	page := f.uc.MoreInCategory(context.Background(), "Drama", nil, 1, 5)

	assert.Len(t, page.Videos, 5)
	assert.True(t, page.HasMore)
}

func TestMoreInCategory_NothingFoundHasNoMore(t *testing.T) {
	f := newCatalog(dramaAndComedy()...)

	page := f.uc.MoreInCategory(context.Background(), "Western", nil, 1, 12)
	assert.Empty(t, page.Videos)
	assert.False(t, page.HasMore)

	blank := f.uc.MoreInCategory(context.Background(), "", nil, 1, 12)
	assert.Empty(t, blank.Videos)
	assert.False(t, blank.HasMore)
}

func TestFilterPage(t *testing.T) {
	f := newCatalog(dramaAndComedy()...)
	ctx := context.Background()

	first := f.uc.FilterPage(ctx, "Drama", 1, 12, []string{"d1"})
	assert.Len(t, first.Videos, 11)
	assert.NotContains(t, model.IDs(first.Videos), "d1")
	assert.True(t, first.HasMore)

	last := f.uc.FilterPage(ctx, "Drama", 3, 12, nil)
	assert.Len(t, last.Videos, 6)
	assert.False(t, last.HasMore)

	f.uc.FilterPage(ctx, "all", 1, 12, nil)
	calls := f.source.listCalls()
	assert.Equal(t, "", calls[len(calls)-1].TypeID)
}

func TestAllVideos_Progressive(t *testing.T) {
	f := newCatalog(records("v", "Drama", 18*4)...)
	f.uc.WithProgressivePages(2, 4)

	videos := f.uc.AllVideos(context.Background(), 100, true)
	assert.Len(t, videos, 36)

	f.uc.Pager().Wait()
	snap, ok := f.snapshot.Get(context.Background())
	require.True(t, ok)
	assert.Len(t, snap.Videos, 72)
	assert.Len(t, f.uc.AllVideos(context.Background(), 50, true), 50)
}

func TestVideoByID_StoreAndCache(t *testing.T) {
	f := newCatalog(record("a", "Drama", 1), record("b", "Drama", 2))
	store := new(MockVideoStore)
	f.uc.WithVideoStore(store)
	ctx := context.Background()

	store.On("GetVideo", mock.Anything, "a").Return(nil, nil, nil).Once()
	store.On("UpsertVideo", mock.Anything, mock.MatchedBy(func(v *model.Video) bool { return v.ID == "a" }), 10*time.Minute).Return(nil).Once()
	store.On("GetVideo", mock.Anything, "b").Return(&model.Video{ID: "b", Title: "stored"}, nil, nil).Once()

	v := f.uc.VideoByID(ctx, "a")
	require.NotNil(t, v)
	assert.Equal(t, "a", v.ID)

	// second lookup is served by the item cache
	assert.NotNil(t, f.uc.VideoByID(ctx, "a"))

	stored := f.uc.VideoByID(ctx, "b")
	require.NotNil(t, stored)
	assert.Equal(t, "stored", stored.Title)
	assert.True(t, f.items.Has("video:b"))

	assert.Len(t, f.source.detailCalls(), 1)
	store.AssertExpectations(t)
}

func TestVideoByID_Missing(t *testing.T) {
	f := newCatalog(record("a", "Drama", 1))

	assert.Nil(t, f.uc.VideoByID(context.Background(), "zz"))
	assert.Nil(t, f.uc.VideoByID(context.Background(), ""))
}

func TestRelatedVideos(t *testing.T) {
	f := newCatalog(dramaAndComedy()...)

	related := f.uc.RelatedVideos(context.Background(), "c1", "Comedy", "", 4)

	assert.Len(t, related, 4)
	for _, v := range related {
		assert.Equal(t, "Comedy", v.Category)
	}
}

func TestPagedVideos(t *testing.T) {
	f := newCatalog(records("v", "Drama", 50)...)

	res := f.uc.PagedVideos(context.Background(), 1, 2, 20)

	assert.Len(t, res.Videos, 40)
	assert.Equal(t, 2, res.PagesLoaded)
	assert.True(t, res.HasMore)
}

func TestCategories(t *testing.T) {
	f := newCatalog()
	f.source.listHook = func(req dto.VodListRequest) ([]model.RawRecord, error) {
		switch {
		case req.Action == dto.ActionVideoList:
			return []model.RawRecord{record("1", "Drama", 1)}, nil
		case req.Page == 2:
			return []model.RawRecord{record("2", "Action", 1), record("3", "undefined", 1), {"vod_id": "4"}}, nil
		default:
			return []model.RawRecord{record("5", "Comedy", 1), record("6", "Drama", 1)}, nil
		}
	}

	assert.Equal(t, []string{"Action", "Comedy", "Drama"}, f.uc.Categories(context.Background()))
}

func TestCategories_FallsBackToKnownNames(t *testing.T) {
	f := newCatalog()
	f.source.listHook = func(dto.VodListRequest) ([]model.RawRecord, error) { return nil, errUpstream }

	assert.Equal(t, model.DefaultCategoryTable().Names(), f.uc.Categories(context.Background()))
}

func TestStatus(t *testing.T) {
	f := newCatalog(record("a", "Drama", 1))
	assert.Equal(t, model.APIStatus{Status: "ok"}, f.uc.Status(context.Background()))

	f.source.listHook = func(dto.VodListRequest) ([]model.RawRecord, error) { return nil, errUpstream }
	status := f.uc.Status(context.Background())
	assert.Equal(t, "error", status.Status)
	assert.Equal(t, errUpstream.Error(), status.Error)
}

func TestClearCaches(t *testing.T) {
	f := newCatalog(records("v", "Drama", 18)...)
	f.uc.WithProgressivePages(1, 1)
	ctx := context.Background()

	f.uc.AllVideos(ctx, 10, true)
	require.Greater(t, f.items.Len(), 0)
	_, ok := f.snapshot.Get(ctx)
	require.True(t, ok)

	require.NoError(t, f.uc.ClearCaches(ctx))

	assert.Equal(t, 0, f.items.Len())
	_, ok = f.snapshot.Get(ctx)
	assert.False(t, ok)
}

func TestPurgeExpired(t *testing.T) {
	f := newCatalog()
	n, err := f.uc.PurgeExpired(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, n)

	store := new(MockVideoStore)
	store.On("PurgeExpired", mock.Anything).Return(int64(3), nil)
	f.uc.WithVideoStore(store)
	n, err = f.uc.PurgeExpired(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
