package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotConfigured = errors.New("pricing_not_configured")
	ErrInvalidRate   = errors.New("invalid_rate")
)

type Service interface {
	GetActive(ctx context.Context) (*Response, error)
	ActiveConfig(ctx context.Context) (*PricingConfig, error)
	Replace(ctx context.Context, req ReplaceRequest) (*Response, error)
}

// ReplaceRequest carries operator-supplied rates in dollars.
type ReplaceRequest struct {
	CostPerParticipantMinute float64 `json:"cost_per_participant_minute"`
	CostPerEgressGB          float64 `json:"cost_per_egress_gb"`
	CostPerIngressGB         float64 `json:"cost_per_ingress_gb"`
	CostPerRecordingMinute   float64 `json:"cost_per_recording_minute"`
}

// Response presents the active configuration in dollars.
type Response struct {
	ID                       string     `json:"id"`
	CostPerParticipantMinute float64    `json:"cost_per_participant_minute"`
	CostPerEgressGB          float64    `json:"cost_per_egress_gb"`
	CostPerIngressGB         float64    `json:"cost_per_ingress_gb"`
	CostPerRecordingMinute   float64    `json:"cost_per_recording_minute"`
	EffectiveFrom            time.Time  `json:"effective_from"`
	EffectiveTo              *time.Time `json:"effective_to,omitempty"`
}
