package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PricingConfig is a versioned rate table. Per-minute rates are stored in
// micro-cents, per-GB rates in cents. Rows are superseded, never mutated:
// exactly one row is active at a time.
type PricingConfig struct {
	ID                    snowflake.ID `json:"id" gorm:"primaryKey"`
	ParticipantMinuteRate int64        `json:"participant_minute_rate" gorm:"not null"`
	EgressGBRate          int64        `json:"egress_gb_rate" gorm:"column:egress_gb_rate;not null"`
	IngressGBRate         int64        `json:"ingress_gb_rate" gorm:"column:ingress_gb_rate;not null;default:0"`
	RecordingMinuteRate   int64        `json:"recording_minute_rate" gorm:"not null;default:0"`
	Active                bool         `json:"active" gorm:"not null;default:true"`
	EffectiveFrom         time.Time    `json:"effective_from" gorm:"not null"`
	EffectiveTo           *time.Time   `json:"effective_to,omitempty"`
	CreatedAt             time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt             time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PricingConfig) TableName() string { return "pricing_configs" }
