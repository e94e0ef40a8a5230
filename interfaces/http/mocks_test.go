package http_test

import (
	"context"

	"vod-catalog/domain/model"

	"github.com/stretchr/testify/mock"
)

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
