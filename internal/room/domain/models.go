package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Room lifecycle statuses.
const (
	StatusActive = "active"
	StatusEnded  = "ended"
)

// Room tracks a media room from room_started to room_finished.
type Room struct {
	ID               snowflake.ID      `json:"id" gorm:"primaryKey"`
	RoomSID          string            `json:"room_sid" gorm:"column:room_sid;type:text;not null;uniqueIndex"`
	RoomName         string            `json:"room_name" gorm:"type:text;not null"`
	StartedAt        time.Time         `json:"started_at" gorm:"not null"`
	EndedAt          *time.Time        `json:"ended_at,omitempty"`
	ParticipantCount int               `json:"participant_count" gorm:"not null;default:0"`
	Status           string            `json:"status" gorm:"type:text;not null;default:'active'"`
	Metadata         datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt        time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Room) TableName() string { return "rooms" }

// DurationSeconds returns the room lifetime, zero while the room is active.
func (r *Room) DurationSeconds() int64 {
	if r.EndedAt == nil {
		return 0
	}
	d := r.EndedAt.Sub(r.StartedAt)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}
