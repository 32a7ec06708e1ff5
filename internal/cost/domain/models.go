package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Cost is the computed bill for one room. At most one row exists per room
// and the row is replaced as a whole, never partially updated.
type Cost struct {
	ID                 snowflake.ID `json:"id" gorm:"primaryKey"`
	RoomID             snowflake.ID `json:"room_id" gorm:"not null;uniqueIndex"`
	ParticipantMinutes int64        `json:"participant_minutes" gorm:"not null;default:0"`
	EgressGB           int64        `json:"egress_gb" gorm:"column:egress_gb;not null;default:0"`
	IngressGB          int64        `json:"ingress_gb" gorm:"column:ingress_gb;not null;default:0"`
	ParticipantCost    int64        `json:"participant_cost" gorm:"not null;default:0"`
	EgressCost         int64        `json:"egress_cost" gorm:"not null;default:0"`
	IngressCost        int64        `json:"ingress_cost" gorm:"not null;default:0"`
	TotalCost          int64        `json:"total_cost" gorm:"not null;default:0"`
	CalculatedAt       time.Time    `json:"calculated_at" gorm:"not null"`
	CreatedAt          time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Cost) TableName() string { return "costs" }

// Summary aggregates every computed cost row.
type Summary struct {
	RoomCount               int64 `json:"room_count"`
	TotalParticipantMinutes int64 `json:"total_participant_minutes"`
	TotalEgressGB           int64 `json:"total_egress_gb"`
	TotalIngressGB          int64 `json:"total_ingress_gb"`
	TotalCost               int64 `json:"total_cost"`
	AverageCost             int64 `json:"average_cost" gorm:"-"`
}
