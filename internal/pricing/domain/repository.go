package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, config *PricingConfig) error
	FindActive(ctx context.Context, db *gorm.DB) (*PricingConfig, error)
	Deactivate(ctx context.Context, db *gorm.DB, at time.Time) error
}
