package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	costdomain "github.com/smallbiznis/roomledger/internal/cost/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() costdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, cost *costdomain.Cost) error {
	return db.WithContext(ctx).Create(cost).Error
}

func (r *repo) FindByRoom(ctx context.Context, db *gorm.DB, roomID snowflake.ID) (*costdomain.Cost, error) {
	var cost costdomain.Cost
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM costs WHERE room_id = ?`, roomID,
	).Scan(&cost).Error
	if err != nil {
		return nil, err
	}
	if cost.ID == 0 {
		return nil, nil
	}
	return &cost, nil
}

func (r *repo) DeleteByRoom(ctx context.Context, db *gorm.DB, roomID snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM costs WHERE room_id = ?`, roomID).Error
}

func (r *repo) DeleteAll(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Exec(`DELETE FROM costs`).Error
}

func (r *repo) Totals(ctx context.Context, db *gorm.DB) (*costdomain.Summary, error) {
	var summary costdomain.Summary
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) AS room_count,
		        COALESCE(SUM(participant_minutes), 0) AS total_participant_minutes,
		        COALESCE(SUM(egress_gb), 0) AS total_egress_gb,
		        COALESCE(SUM(ingress_gb), 0) AS total_ingress_gb,
		        COALESCE(SUM(total_cost), 0) AS total_cost
		 FROM costs`,
	).Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
