package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vod-catalog/domain/model"
	"vod-catalog/domain/repository"
	"vod-catalog/infrastructure/logger"
)

const upsertVideoQuery = `INSERT INTO catalog_video_cache(video_id, category, views, data, expires_at, updated_at)
          VALUES ($1,$2,$3,$4,$5,$6)
          ON CONFLICT (video_id) DO UPDATE SET category=EXCLUDED.category, views=EXCLUDED.views, data=EXCLUDED.data, expires_at=EXCLUDED.expires_at, updated_at=EXCLUDED.updated_at`

// EnsureVideoCacheSchema creates the table for the warm video store if not exists
func EnsureVideoCacheSchema(db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS catalog_video_cache (
        video_id TEXT PRIMARY KEY,
        category TEXT NOT NULL,
        views BIGINT NOT NULL DEFAULT 0,
        data JSONB NOT NULL,
        expires_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create catalog_video_cache table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_catalog_video_cache_expires_at ON catalog_video_cache(expires_at)`); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed creating idx_catalog_video_cache_expires_at")
	}
	return nil
}

// VideoCacheRepository stores normalized videos as JSONB rows with an expiry
type VideoCacheRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ repository.IVideoStore = (*VideoCacheRepository)(nil)

func NewVideoCacheRepository(db *sql.DB) *VideoCacheRepository {
	return &VideoCacheRepository{db: db, now: time.Now}
}

// GetVideo returns a stored video and its expiry time if present and not expired
func (r *VideoCacheRepository) GetVideo(ctx context.Context, videoID string) (*model.Video, *time.Time, error) {
	if r.db == nil {
		return nil, nil, nil
	}
	row := r.db.QueryRowContext(ctx, `SELECT data, expires_at FROM catalog_video_cache WHERE video_id=$1`, videoID)
	var raw []byte
	var expiresAt time.Time
	if err := row.Scan(&raw, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to read cached video %s: %w", videoID, err)
	}
	if r.now().After(expiresAt) {
		return nil, &expiresAt, nil
	}
	var v model.Video
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, nil, fmt.Errorf("failed to decode cached video %s: %w", videoID, err)
	}
	return &v, &expiresAt, nil
}

// UpsertVideo stores or updates one row with TTL from now
func (r *VideoCacheRepository) UpsertVideo(ctx context.Context, video *model.Video, ttl time.Duration) error {
	if r.db == nil || video == nil || video.ID == "" {
		return nil
	}
	raw, err := json.Marshal(video)
	if err != nil {
		return err
	}
	now := r.now().UTC()
	_, err = r.db.ExecContext(ctx, upsertVideoQuery, video.ID, video.Category, video.Views, raw, now.Add(ttl), now)
	if err != nil {
		return fmt.Errorf("failed to upsert video %s: %w", video.ID, err)
	}
	return nil
}

// UpsertVideos bulk upserts videos in one transaction
func (r *VideoCacheRepository) UpsertVideos(ctx context.Context, videos []model.Video, ttl time.Duration) (err error) {
	if r.db == nil || len(videos) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin upsert: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	stmt, err := tx.PrepareContext(ctx, upsertVideoQuery)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := r.now().UTC()
	exp := now.Add(ttl)
	for i := range videos {
		if videos[i].ID == "" {
			continue
		}
		raw, mErr := json.Marshal(&videos[i])
		if mErr != nil {
			return mErr
		}
		if _, err = stmt.ExecContext(ctx, videos[i].ID, videos[i].Category, videos[i].Views, raw, exp, now); err != nil {
			return fmt.Errorf("failed to upsert video %s: %w", videos[i].ID, err)
		}
	}
	return tx.Commit()
}

// PurgeExpired removes rows past their expiry
func (r *VideoCacheRepository) PurgeExpired(ctx context.Context) (int64, error) {
	if r.db == nil {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM catalog_video_cache WHERE expires_at < $1`, r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired videos: %w", err)
	}
	return res.RowsAffected()
}
