package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Track tracks a published media track from track_published to track_unpublished.
type Track struct {
	ID              snowflake.ID      `json:"id" gorm:"primaryKey"`
	TrackSID        string            `json:"track_sid" gorm:"column:track_sid;type:text;not null;uniqueIndex"`
	RoomID          snowflake.ID      `json:"room_id" gorm:"not null;index"`
	ParticipantID   snowflake.ID      `json:"participant_id" gorm:"not null;index"`
	TrackName       string            `json:"track_name,omitempty" gorm:"type:text"`
	TrackType       string            `json:"track_type" gorm:"type:text;not null"`
	Source          string            `json:"source,omitempty" gorm:"type:text"`
	PublishedAt     time.Time         `json:"published_at" gorm:"not null"`
	UnpublishedAt   *time.Time        `json:"unpublished_at,omitempty"`
	DurationSeconds *int64            `json:"duration_seconds,omitempty"`
	EgressBytes     int64             `json:"egress_bytes" gorm:"not null;default:0"`
	IngressBytes    int64             `json:"ingress_bytes" gorm:"not null;default:0"`
	Muted           bool              `json:"muted" gorm:"not null;default:false"`
	Metadata        datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt       time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Track) TableName() string { return "tracks" }
