package repository

import (
	"context"
	"time"

	pricingdomain "github.com/smallbiznis/roomledger/internal/pricing/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() pricingdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, config *pricingdomain.PricingConfig) error {
	return db.WithContext(ctx).Create(config).Error
}

func (r *repo) FindActive(ctx context.Context, db *gorm.DB) (*pricingdomain.PricingConfig, error) {
	var config pricingdomain.PricingConfig
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM pricing_configs WHERE active = ? ORDER BY effective_from DESC LIMIT 1`,
		true,
	).Scan(&config).Error
	if err != nil {
		return nil, err
	}
	if config.ID == 0 {
		return nil, nil
	}
	return &config, nil
}

func (r *repo) Deactivate(ctx context.Context, db *gorm.DB, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE pricing_configs SET active = ?, effective_to = ?, updated_at = ? WHERE active = ?`,
		false,
		at,
		at,
		true,
	).Error
}
