package persistence

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vod-catalog/domain/model"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestRepository(t *testing.T) (*VideoCacheRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := NewVideoCacheRepository(db)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

func TestVideoCacheRepository_GetVideo(t *testing.T) {
	repo, mock := newTestRepository(t)
	video := model.Video{ID: "42", Title: "Answer", Views: 9, Category: "Drama"}
	raw, _ := json.Marshal(video)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT data, expires_at FROM catalog_video_cache WHERE video_id=$1`)).
		WithArgs("42").
		WillReturnRows(sqlmock.NewRows([]string{"data", "expires_at"}).AddRow(raw, fixedNow.Add(time.Minute)))

	got, exp, err := repo.GetVideo(context.Background(), "42")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, video, *got)
	assert.Equal(t, fixedNow.Add(time.Minute), *exp)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoCacheRepository_GetVideo_Expired(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT data, expires_at FROM catalog_video_cache WHERE video_id=$1`)).
		WithArgs("42").
		WillReturnRows(sqlmock.NewRows([]string{"data", "expires_at"}).AddRow([]byte(`{}`), fixedNow.Add(-time.Second)))

	got, exp, err := repo.GetVideo(context.Background(), "42")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NotNil(t, exp)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoCacheRepository_GetVideo_Missing(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT data, expires_at FROM catalog_video_cache WHERE video_id=$1`)).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"data", "expires_at"}))

	got, exp, err := repo.GetVideo(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Nil(t, exp)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoCacheRepository_UpsertVideo(t *testing.T) {
	repo, mock := newTestRepository(t)
	video := &model.Video{ID: "7", Category: "Comedy", Views: 100}

	mock.ExpectExec(regexp.QuoteMeta(upsertVideoQuery)).
		WithArgs("7", "Comedy", int64(100), sqlmock.AnyArg(), fixedNow.Add(10*time.Minute), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpsertVideo(context.Background(), video, 10*time.Minute))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoCacheRepository_UpsertVideos(t *testing.T) {
	repo, mock := newTestRepository(t)
	videos := []model.Video{{ID: "1", Category: "A"}, {ID: ""}, {ID: "2", Category: "B", Views: 3}}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(upsertVideoQuery))
	prep.ExpectExec().WithArgs("1", "A", int64(0), sqlmock.AnyArg(), sqlmock.AnyArg(), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs("2", "B", int64(3), sqlmock.AnyArg(), sqlmock.AnyArg(), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpsertVideos(context.Background(), videos, time.Hour))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoCacheRepository_UpsertVideos_RollsBack(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta(upsertVideoQuery)).
		ExpectExec().WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.UpsertVideos(context.Background(), []model.Video{{ID: "1"}}, time.Hour)
	require.ErrorIs(t, err, assert.AnError)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoCacheRepository_PurgeExpired(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM catalog_video_cache WHERE expires_at < $1`)).
		WithArgs(fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoCacheRepository_NilDB(t *testing.T) {
	repo := NewVideoCacheRepository(nil)
	got, _, err := repo.GetVideo(context.Background(), "1")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, repo.UpsertVideo(context.Background(), &model.Video{ID: "1"}, time.Minute))
	n, err := repo.PurgeExpired(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, n)
}
