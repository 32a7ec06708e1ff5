package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	participantdomain "github.com/smallbiznis/roomledger/internal/participant/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() participantdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *participantdomain.Participant) error {
	return db.WithContext(ctx).Create(p).Error
}

func (r *repo) FindBySID(ctx context.Context, db *gorm.DB, sid string) (*participantdomain.Participant, error) {
	var p participantdomain.Participant
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM participants WHERE participant_sid = ?`, sid,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) MarkLeft(ctx context.Context, db *gorm.DB, id snowflake.ID, leftAt time.Time, durationSeconds int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE participants
		 SET state = ?, left_at = ?, duration_seconds = ?, updated_at = ?
		 WHERE id = ? AND state = ?`,
		participantdomain.StateLeft,
		leftAt,
		durationSeconds,
		leftAt,
		id,
		participantdomain.StateActive,
	).Error
}

func (r *repo) ListByRoom(ctx context.Context, db *gorm.DB, roomID snowflake.ID) ([]participantdomain.Participant, error) {
	var participants []participantdomain.Participant
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM participants WHERE room_id = ? ORDER BY joined_at ASC, id ASC`,
		roomID,
	).Scan(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}
