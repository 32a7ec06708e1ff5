package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, track *Track) error
	FindBySID(ctx context.Context, db *gorm.DB, sid string) (*Track, error)
	MarkUnpublished(ctx context.Context, db *gorm.DB, id snowflake.ID, unpublishedAt time.Time, durationSeconds int64) error
	ListByRoom(ctx context.Context, db *gorm.DB, roomID snowflake.ID) ([]Track, error)
}
