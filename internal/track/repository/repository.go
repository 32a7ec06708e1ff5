package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	trackdomain "github.com/smallbiznis/roomledger/internal/track/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() trackdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, t *trackdomain.Track) error {
	return db.WithContext(ctx).Create(t).Error
}

func (r *repo) FindBySID(ctx context.Context, db *gorm.DB, sid string) (*trackdomain.Track, error) {
	var t trackdomain.Track
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM tracks WHERE track_sid = ?`, sid,
	).Scan(&t).Error
	if err != nil {
		return nil, err
	}
	if t.ID == 0 {
		return nil, nil
	}
	return &t, nil
}

func (r *repo) MarkUnpublished(ctx context.Context, db *gorm.DB, id snowflake.ID, unpublishedAt time.Time, durationSeconds int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE tracks
		 SET unpublished_at = ?, duration_seconds = ?, updated_at = ?
		 WHERE id = ? AND unpublished_at IS NULL`,
		unpublishedAt,
		durationSeconds,
		unpublishedAt,
		id,
	).Error
}

func (r *repo) ListByRoom(ctx context.Context, db *gorm.DB, roomID snowflake.ID) ([]trackdomain.Track, error) {
	var tracks []trackdomain.Track
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM tracks WHERE room_id = ? ORDER BY published_at ASC, id ASC`,
		roomID,
	).Scan(&tracks).Error
	if err != nil {
		return nil, err
	}
	return tracks, nil
}
