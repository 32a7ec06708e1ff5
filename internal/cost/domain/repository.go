package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, cost *Cost) error
	FindByRoom(ctx context.Context, db *gorm.DB, roomID snowflake.ID) (*Cost, error)
	DeleteByRoom(ctx context.Context, db *gorm.DB, roomID snowflake.ID) error
	DeleteAll(ctx context.Context, db *gorm.DB) error
	Totals(ctx context.Context, db *gorm.DB) (*Summary, error)
}
