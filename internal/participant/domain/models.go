package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Participant lifecycle states.
const (
	StateActive = "active"
	StateLeft   = "left"
)

// Participant tracks a room member from participant_joined to participant_left.
type Participant struct {
	ID              snowflake.ID      `json:"id" gorm:"primaryKey"`
	ParticipantSID  string            `json:"participant_sid" gorm:"column:participant_sid;type:text;not null;uniqueIndex"`
	RoomID          snowflake.ID      `json:"room_id" gorm:"not null;index"`
	Identity        string            `json:"identity" gorm:"type:text;not null"`
	Name            string            `json:"name,omitempty" gorm:"type:text"`
	JoinedAt        time.Time         `json:"joined_at" gorm:"not null"`
	LeftAt          *time.Time        `json:"left_at,omitempty"`
	DurationSeconds *int64            `json:"duration_seconds,omitempty"`
	State           string            `json:"state" gorm:"type:text;not null"`
	IsAgent         bool              `json:"is_agent" gorm:"not null;default:false"`
	Metadata        datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt       time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Participant) TableName() string { return "participants" }
