package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	roomdomain "github.com/smallbiznis/roomledger/internal/room/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() roomdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, room *roomdomain.Room) error {
	return db.WithContext(ctx).Create(room).Error
}

func (r *repo) FindBySID(ctx context.Context, db *gorm.DB, sid string) (*roomdomain.Room, error) {
	var room roomdomain.Room
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM rooms WHERE room_sid = ?`, sid,
	).Scan(&room).Error
	if err != nil {
		return nil, err
	}
	if room.ID == 0 {
		return nil, nil
	}
	return &room, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*roomdomain.Room, error) {
	var room roomdomain.Room
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM rooms WHERE id = ?`, id,
	).Scan(&room).Error
	if err != nil {
		return nil, err
	}
	if room.ID == 0 {
		return nil, nil
	}
	return &room, nil
}

func (r *repo) End(ctx context.Context, db *gorm.DB, id snowflake.ID, endedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE rooms SET status = ?, ended_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
		roomdomain.StatusEnded,
		endedAt,
		endedAt,
		id,
		roomdomain.StatusActive,
	).Error
}

func (r *repo) AddParticipants(ctx context.Context, db *gorm.DB, id snowflake.ID, delta int) error {
	return db.WithContext(ctx).Exec(
		`UPDATE rooms SET participant_count = participant_count + ?, updated_at = ? WHERE id = ?`,
		delta,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter roomdomain.ListFilter) ([]roomdomain.Room, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 25
	}

	query := db.WithContext(ctx).Model(&roomdomain.Room{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.AfterID != 0 {
		query = query.Where("id < ?", filter.AfterID)
	}

	var rooms []roomdomain.Room
	err := query.Order("id DESC").Limit(limit).Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *repo) ListEnded(ctx context.Context, db *gorm.DB, afterID snowflake.ID, limit int) ([]roomdomain.Room, error) {
	if limit <= 0 {
		limit = 100
	}

	var rooms []roomdomain.Room
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM rooms WHERE status = ? AND id > ? ORDER BY id ASC LIMIT ?`,
		roomdomain.StatusEnded,
		afterID,
		limit,
	).Scan(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *repo) ListEndedWithoutCost(ctx context.Context, db *gorm.DB, limit int) ([]roomdomain.Room, error) {
	if limit <= 0 {
		limit = 50
	}

	var rooms []roomdomain.Room
	err := db.WithContext(ctx).Raw(
		`SELECT r.* FROM rooms r
		 LEFT JOIN costs c ON c.room_id = r.id
		 WHERE r.status = ? AND c.id IS NULL
		 ORDER BY r.id ASC LIMIT ?`,
		roomdomain.StatusEnded,
		limit,
	).Scan(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}
