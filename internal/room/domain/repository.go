package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("room_not_found")

// ListFilter narrows room listings.
type ListFilter struct {
	Status  string
	AfterID snowflake.ID
	Limit   int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, room *Room) error
	FindBySID(ctx context.Context, db *gorm.DB, sid string) (*Room, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Room, error)
	End(ctx context.Context, db *gorm.DB, id snowflake.ID, endedAt time.Time) error
	AddParticipants(ctx context.Context, db *gorm.DB, id snowflake.ID, delta int) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Room, error)
	ListEnded(ctx context.Context, db *gorm.DB, afterID snowflake.ID, limit int) ([]Room, error)
	ListEndedWithoutCost(ctx context.Context, db *gorm.DB, limit int) ([]Room, error)
}
