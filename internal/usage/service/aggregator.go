package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/smallbiznis/roomledger/internal/usage/domain"
	"gorm.io/gorm"
)

type aggregator struct{}

func Provide() usagedomain.Aggregator {
	return &aggregator{}
}

// ForRoom sums billable usage per room. Participant durations and track
// byte counters are summed independently so a room with many tracks does
// not multiply its participant seconds.
func (a *aggregator) ForRoom(ctx context.Context, db *gorm.DB, roomID snowflake.ID) (*usagedomain.RoomUsage, error) {
	usage := &usagedomain.RoomUsage{RoomID: roomID}

	var participantSeconds int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(duration_seconds), 0) FROM participants WHERE room_id = ?`,
		roomID,
	).Scan(&participantSeconds).Error
	if err != nil {
		return nil, err
	}
	usage.ParticipantSeconds = participantSeconds

	var trackTotals struct {
		EgressBytes  int64
		IngressBytes int64
	}
	err = db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(egress_bytes), 0) AS egress_bytes,
		        COALESCE(SUM(ingress_bytes), 0) AS ingress_bytes
		 FROM tracks WHERE room_id = ?`,
		roomID,
	).Scan(&trackTotals).Error
	if err != nil {
		return nil, err
	}
	usage.EgressBytes = trackTotals.EgressBytes
	usage.IngressBytes = trackTotals.IngressBytes

	return usage, nil
}
