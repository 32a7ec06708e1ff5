package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/roomledger/internal/clock"
	costdomain "github.com/smallbiznis/roomledger/internal/cost/domain"
	costrepository "github.com/smallbiznis/roomledger/internal/cost/repository"
	costservice "github.com/smallbiznis/roomledger/internal/cost/service"
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

type sweeperFixture struct {
	sweeper *Sweeper
	pricing pricingdomain.Service
	db      *gorm.DB
	genID   *snowflake.Node
	clock   *clock.FakeClock
}

func newSweeperFixture(t *testing.T) *sweeperFixture {
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

	costSvc := costservice.New(costservice.Params{
		DB:      db,
		Log:     log,
		GenID:   node,
		Clock:   fake,
		Repo:    costrepository.Provide(),
		Rooms:   roomrepository.Provide(),
		Usage:   usageservice.Provide(),
		Pricing: pricingSvc,
	})

	sweeper, err := New(Params{
		DB:      db,
		Log:     log,
		Clock:   fake,
		Rooms:   roomrepository.Provide(),
		CostSvc: costSvc,
	})
	if err != nil {
		t.Fatal(err)
	}

	return &sweeperFixture{sweeper: sweeper, pricing: pricingSvc, db: db, genID: node, clock: fake}
}

func (f *sweeperFixture) seedEndedRoom(t *testing.T, sid string) snowflake.ID {
	t.Helper()

	now := f.clock.Now()
	endedAt := now
	room := &roomdomain.Room{
		ID:        f.genID.Generate(),
		RoomSID:   sid,
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
	return room.ID
}

func TestRunOnce_BillsUnbilledRooms(t *testing.T) {
	f := newSweeperFixture(t)
	ctx := context.Background()

	_, err := f.pricing.Replace(ctx, pricingdomain.ReplaceRequest{CostPerParticipantMinute: 0.0005, CostPerEgressGB: 0.10})
	assert.NoError(t, err)

	f.seedEndedRoom(t, "RM_1")
	f.seedEndedRoom(t, "RM_2")

	swept, err := f.sweeper.RunOnce(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, swept)

	var costs int64
	assert.NoError(t, f.db.Model(&costdomain.Cost{}).Count(&costs).Error)
	assert.Equal(t, int64(2), costs)

	// Billed rooms are not picked up again.
	swept, err = f.sweeper.RunOnce(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, swept)
}

func TestRunOnce_SkipsWithoutPricing(t *testing.T) {
	f := newSweeperFixture(t)

	f.seedEndedRoom(t, "RM_1")

	swept, err := f.sweeper.RunOnce(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, swept)

	var costs int64
	assert.NoError(t, f.db.Model(&costdomain.Cost{}).Count(&costs).Error)
	assert.Equal(t, int64(0), costs)
}

func TestRunOnce_IgnoresActiveRooms(t *testing.T) {
	f := newSweeperFixture(t)
	ctx := context.Background()

	_, err := f.pricing.Replace(ctx, pricingdomain.ReplaceRequest{CostPerParticipantMinute: 0.0005, CostPerEgressGB: 0.10})
	assert.NoError(t, err)

	now := f.clock.Now()
	active := &roomdomain.Room{
		ID:        f.genID.Generate(),
		RoomSID:   "RM_live",
		RoomName:  "live",
		StartedAt: now,
		Status:    roomdomain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	assert.NoError(t, f.db.Create(active).Error)

	swept, err := f.sweeper.RunOnce(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, swept)
}
