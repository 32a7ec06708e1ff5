package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const bytesPerGB = int64(1024 * 1024 * 1024)

// RoomUsage is the aggregated billable usage of one room.
type RoomUsage struct {
	RoomID             snowflake.ID
	ParticipantSeconds int64
	EgressBytes        int64
	IngressBytes       int64
}

// ParticipantMinutes rounds the participant seconds up to whole minutes.
func (u RoomUsage) ParticipantMinutes() int64 {
	return ceilDiv(u.ParticipantSeconds, 60)
}

// EgressGB rounds the egress bytes up to whole gigabytes.
func (u RoomUsage) EgressGB() int64 {
	return ceilDiv(u.EgressBytes, bytesPerGB)
}

// IngressGB rounds the ingress bytes up to whole gigabytes.
func (u RoomUsage) IngressGB() int64 {
	return ceilDiv(u.IngressBytes, bytesPerGB)
}

func ceilDiv(value, unit int64) int64 {
	if value <= 0 {
		return 0
	}
	return (value + unit - 1) / unit
}

type Aggregator interface {
	ForRoom(ctx context.Context, db *gorm.DB, roomID snowflake.ID) (*RoomUsage, error)
}
