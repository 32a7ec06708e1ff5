package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/roomledger/internal/clock"
	costdomain "github.com/smallbiznis/roomledger/internal/cost/domain"
	costrepository "github.com/smallbiznis/roomledger/internal/cost/repository"
	participantdomain "github.com/smallbiznis/roomledger/internal/participant/domain"
	pricingdomain "github.com/smallbiznis/roomledger/internal/pricing/domain"
	pricingrepository "github.com/smallbiznis/roomledger/internal/pricing/repository"
	pricingservice "github.com/smallbiznis/roomledger/internal/pricing/service"
	roomdomain "github.com/smallbiznis/roomledger/internal/room/domain"
	roomrepository "github.com/smallbiznis/roomledger/internal/room/repository"
	trackdomain "github.com/smallbiznis/roomledger/internal/track/domain"
	usageservice "github.com/smallbiznis/roomledger/internal/usage/service"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type costFixture struct {
	svc     costdomain.Service
	pricing pricingdomain.Service
	db      *gorm.DB
	genID   *snowflake.Node
	clock   *clock.FakeClock
}

func newCostFixture(t *testing.T) *costFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	err = db.AutoMigrate(
		&roomdomain.Room{},
		&participantdomain.Participant{},
		&trackdomain.Track{},
		&pricingdomain.PricingConfig{},
		&costdomain.Cost{},
	)
	if err != nil {
		t.Fatal(err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatal(err)
	}

	fake := clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	pricingSvc := pricingservice.New(pricingservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fake,
		Repo:  pricingrepository.Provide(),
	})

	costSvc := New(Params{
		DB:      db,
		Log:     log,
		GenID:   node,
		Clock:   fake,
		Repo:    costrepository.Provide(),
		Rooms:   roomrepository.Provide(),
		Usage:   usageservice.Provide(),
		Pricing: pricingSvc,
	})

	return &costFixture{svc: costSvc, pricing: pricingSvc, db: db, genID: node, clock: fake}
}

func (f *costFixture) seedEndedRoom(t *testing.T, participantSeconds, egressBytes int64) snowflake.ID {
	t.Helper()

	now := f.clock.Now()
	endedAt := now
	room := &roomdomain.Room{
		ID:        f.genID.Generate(),
		RoomSID:   "RM_" + f.genID.Generate().String(),
		RoomName:  "demo",
		StartedAt: now.Add(-time.Hour),
		EndedAt:   &endedAt,
		Status:    roomdomain.StatusEnded,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.db.Create(room).Error; err != nil {
		t.Fatal(err)
	}

	participant := &participantdomain.Participant{
		ID:              f.genID.Generate(),
		ParticipantSID:  "PA_" + f.genID.Generate().String(),
		RoomID:          room.ID,
		Identity:        "alice",
		JoinedAt:        now.Add(-time.Hour),
		DurationSeconds: &participantSeconds,
		State:           participantdomain.StateLeft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := f.db.Create(participant).Error; err != nil {
		t.Fatal(err)
	}

	track := &trackdomain.Track{
		ID:            f.genID.Generate(),
		TrackSID:      "TR_" + f.genID.Generate().String(),
		RoomID:        room.ID,
		ParticipantID: participant.ID,
		TrackType:     "video",
		PublishedAt:   now.Add(-time.Hour),
		EgressBytes:   egressBytes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := f.db.Create(track).Error; err != nil {
		t.Fatal(err)
	}

	return room.ID
}

func TestComputeForRoom(t *testing.T) {
	f := newCostFixture(t)
	ctx := context.Background()

	// 500 micro-cents per participant minute, 10 cents per egress GB.
	_, err := f.pricing.Replace(ctx, pricingdomain.ReplaceRequest{
		CostPerParticipantMinute: 0.0005,
		CostPerEgressGB:          0.10,
	})
	assert.NoError(t, err)

	roomID := f.seedEndedRoom(t, 600, 2*1024*1024*1024)

	cost, err := f.svc.ComputeForRoom(ctx, roomID)
	assert.NoError(t, err)
	assert.Equal(t, int64(10), cost.ParticipantMinutes)
	assert.Equal(t, int64(2), cost.EgressGB)
	assert.Equal(t, int64(5000), cost.ParticipantCost)
	assert.Equal(t, int64(20), cost.EgressCost)
	assert.Equal(t, int64(5020), cost.TotalCost)
}

func TestComputeForRoom_NotConfigured(t *testing.T) {
	f := newCostFixture(t)

	roomID := f.seedEndedRoom(t, 600, 0)

	cost, err := f.svc.ComputeForRoom(context.Background(), roomID)
	assert.ErrorIs(t, err, pricingdomain.ErrNotConfigured)
	assert.Nil(t, cost)
}

func TestComputeForRoom_ReplacesExistingRow(t *testing.T) {
	f := newCostFixture(t)
	ctx := context.Background()

	_, err := f.pricing.Replace(ctx, pricingdomain.ReplaceRequest{CostPerParticipantMinute: 0.0005, CostPerEgressGB: 0.10})
	assert.NoError(t, err)

	roomID := f.seedEndedRoom(t, 600, 0)

	first, err := f.svc.ComputeForRoom(ctx, roomID)
	assert.NoError(t, err)
	second, err := f.svc.ComputeForRoom(ctx, roomID)
	assert.NoError(t, err)
	assert.Equal(t, first.TotalCost, second.TotalCost)

	var rows int64
	assert.NoError(t, f.db.Model(&costdomain.Cost{}).Where("room_id = ?", roomID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestRecalculateAll(t *testing.T) {
	f := newCostFixture(t)
	ctx := context.Background()

	_, err := f.pricing.Replace(ctx, pricingdomain.ReplaceRequest{CostPerParticipantMinute: 0.0005, CostPerEgressGB: 0.10})
	assert.NoError(t, err)

	f.seedEndedRoom(t, 600, 2*1024*1024*1024)
	f.seedEndedRoom(t, 120, 0)

	// An active room must not be billed.
	now := f.clock.Now()
	active := &roomdomain.Room{
		ID:        f.genID.Generate(),
		RoomSID:   "RM_active",
		RoomName:  "live",
		StartedAt: now,
		Status:    roomdomain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	assert.NoError(t, f.db.Create(active).Error)

	count, err := f.svc.RecalculateAll(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, count)

	var rows int64
	assert.NoError(t, f.db.Model(&costdomain.Cost{}).Count(&rows).Error)
	assert.Equal(t, int64(2), rows)

	// Running again yields the same totals.
	summaryBefore, err := f.svc.Summarize(ctx)
	assert.NoError(t, err)

	count, err = f.svc.RecalculateAll(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, count)

	summaryAfter, err := f.svc.Summarize(ctx)
	assert.NoError(t, err)
	assert.Equal(t, summaryBefore, summaryAfter)
}

func TestRecalculateAll_UsesOnlyActiveConfig(t *testing.T) {
	f := newCostFixture(t)
	ctx := context.Background()

	_, err := f.pricing.Replace(ctx, pricingdomain.ReplaceRequest{CostPerParticipantMinute: 0.0005, CostPerEgressGB: 0.10})
	assert.NoError(t, err)

	roomID := f.seedEndedRoom(t, 600, 0)

	_, err = f.svc.ComputeForRoom(ctx, roomID)
	assert.NoError(t, err)

	// Supersede the configuration and recalculate. The room closed under
	// the old rates is re-billed with the new ones.
	f.clock.Advance(time.Hour)
	_, err = f.pricing.Replace(ctx, pricingdomain.ReplaceRequest{CostPerParticipantMinute: 0.001, CostPerEgressGB: 0.10})
	assert.NoError(t, err)

	count, err := f.svc.RecalculateAll(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	cost, err := f.svc.ForRoom(ctx, roomID)
	assert.NoError(t, err)
	assert.Equal(t, int64(10*1000), cost.ParticipantCost)
}

func TestRecalculateAll_NotConfigured(t *testing.T) {
	f := newCostFixture(t)

	count, err := f.svc.RecalculateAll(context.Background())
	assert.ErrorIs(t, err, pricingdomain.ErrNotConfigured)
	assert.Equal(t, 0, count)
}
