package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, participant *Participant) error
	FindBySID(ctx context.Context, db *gorm.DB, sid string) (*Participant, error)
	MarkLeft(ctx context.Context, db *gorm.DB, id snowflake.ID, leftAt time.Time, durationSeconds int64) error
	ListByRoom(ctx context.Context, db *gorm.DB, roomID snowflake.ID) ([]Participant, error)
}
