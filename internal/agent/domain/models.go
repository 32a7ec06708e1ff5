package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Agent session statuses.
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
)

// Agent is a server-side automation identity observed across rooms.
type Agent struct {
	ID            snowflake.ID      `json:"id" gorm:"primaryKey"`
	AgentID       string            `json:"agent_id" gorm:"column:agent_id;type:text;not null;uniqueIndex"`
	AgentName     string            `json:"agent_name,omitempty" gorm:"type:text"`
	AgentType     string            `json:"agent_type,omitempty" gorm:"type:text"`
	TotalSessions int               `json:"total_sessions" gorm:"not null;default:0"`
	FirstSeenAt   time.Time         `json:"first_seen_at" gorm:"not null"`
	LastSeenAt    time.Time         `json:"last_seen_at" gorm:"not null"`
	Metadata      datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt     time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Agent) TableName() string { return "agents" }

// Session records one agent joining and leaving a room as a participant.
type Session struct {
	ID            snowflake.ID `json:"id" gorm:"primaryKey"`
	AgentID       snowflake.ID `json:"agent_id" gorm:"not null;index"`
	ParticipantID snowflake.ID `json:"participant_id" gorm:"not null;index"`
	RoomID        snowflake.ID `json:"room_id" gorm:"not null;index"`
	JoinedAt      time.Time    `json:"joined_at" gorm:"not null"`
	LeftAt        *time.Time   `json:"left_at,omitempty"`
	Status        string       `json:"status" gorm:"type:text;not null;default:'active'"`
	CreatedAt     time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "agent_sessions" }
