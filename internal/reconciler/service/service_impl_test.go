package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	agentdomain "github.com/smallbiznis/roomledger/internal/agent/domain"
	agentrepository "github.com/smallbiznis/roomledger/internal/agent/repository"
	"github.com/smallbiznis/roomledger/internal/clock"
	costdomain "github.com/smallbiznis/roomledger/internal/cost/domain"
	costrepository "github.com/smallbiznis/roomledger/internal/cost/repository"
	costservice "github.com/smallbiznis/roomledger/internal/cost/service"
	"github.com/smallbiznis/roomledger/internal/event"
	participantdomain "github.com/smallbiznis/roomledger/internal/participant/domain"
	participantrepository "github.com/smallbiznis/roomledger/internal/participant/repository"
	pricingdomain "github.com/smallbiznis/roomledger/internal/pricing/domain"
	pricingrepository "github.com/smallbiznis/roomledger/internal/pricing/repository"
	pricingservice "github.com/smallbiznis/roomledger/internal/pricing/service"
	reconcilerdomain "github.com/smallbiznis/roomledger/internal/reconciler/domain"
	roomdomain "github.com/smallbiznis/roomledger/internal/room/domain"
	roomrepository "github.com/smallbiznis/roomledger/internal/room/repository"
	trackdomain "github.com/smallbiznis/roomledger/internal/track/domain"
	trackrepository "github.com/smallbiznis/roomledger/internal/track/repository"
	usageservice "github.com/smallbiznis/roomledger/internal/usage/service"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const baseUnix = int64(1700000000)

type fixture struct {
	svc     reconcilerdomain.Service
	pricing pricingdomain.Service
	db      *gorm.DB
	clock   *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	err = db.AutoMigrate(
		&roomdomain.Room{},
		&participantdomain.Participant{},
		&trackdomain.Track{},
		&agentdomain.Agent{},
		&agentdomain.Session{},
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

	fake := clock.NewFakeClock(time.Unix(baseUnix, 0).UTC())
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

	svc := New(Params{
		DB:           db,
		Log:          log,
		GenID:        node,
		Clock:        fake,
		Rooms:        roomrepository.Provide(),
		Participants: participantrepository.Provide(),
		Tracks:       trackrepository.Provide(),
		Agents:       agentrepository.Provide(),
		Costs:        costSvc,
	})

	return &fixture{svc: svc, pricing: pricingSvc, db: db, clock: fake}
}

func roomStarted(sid string, at int64) *event.Envelope {
	return &event.Envelope{
		Event:     event.KindRoomStarted,
		CreatedAt: at,
		Room:      &event.RoomPayload{SID: sid, Name: "demo", CreationTime: at},
	}
}

func roomFinished(sid string, at int64) *event.Envelope {
	return &event.Envelope{
		Event:     event.KindRoomFinished,
		CreatedAt: at,
		Room:      &event.RoomPayload{SID: sid, Name: "demo"},
	}
}

func participantJoined(roomSID, sid, identity string, at int64, metadata string) *event.Envelope {
	return &event.Envelope{
		Event:       event.KindParticipantJoined,
		CreatedAt:   at,
		Room:        &event.RoomPayload{SID: roomSID},
		Participant: &event.ParticipantPayload{SID: sid, Identity: identity, JoinedAt: at, Metadata: metadata},
	}
}

func participantLeft(roomSID, sid string, at int64) *event.Envelope {
	return &event.Envelope{
		Event:       event.KindParticipantLeft,
		CreatedAt:   at,
		Room:        &event.RoomPayload{SID: roomSID},
		Participant: &event.ParticipantPayload{SID: sid},
	}
}

func trackPublished(roomSID, participantSID, sid string, at int64) *event.Envelope {
	return &event.Envelope{
		Event:       event.KindTrackPublished,
		CreatedAt:   at,
		Room:        &event.RoomPayload{SID: roomSID},
		Participant: &event.ParticipantPayload{SID: participantSID},
		Track:       &event.TrackPayload{SID: sid, Type: "audio", Source: "microphone"},
	}
}

func trackUnpublished(roomSID, participantSID, sid string, at int64) *event.Envelope {
	return &event.Envelope{
		Event:       event.KindTrackUnpublished,
		CreatedAt:   at,
		Room:        &event.RoomPayload{SID: roomSID},
		Participant: &event.ParticipantPayload{SID: participantSID},
		Track:       &event.TrackPayload{SID: sid},
	}
}

func TestApply_FullRoomLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.NoError(t, f.svc.Apply(ctx, roomStarted("RM_1", baseUnix)))
	assert.NoError(t, f.svc.Apply(ctx, participantJoined("RM_1", "PA_1", "alice", baseUnix, "")))
	assert.NoError(t, f.svc.Apply(ctx, trackPublished("RM_1", "PA_1", "TR_1", baseUnix)))
	assert.NoError(t, f.svc.Apply(ctx, trackUnpublished("RM_1", "PA_1", "TR_1", baseUnix+120)))
	assert.NoError(t, f.svc.Apply(ctx, participantLeft("RM_1", "PA_1", baseUnix+300)))
	assert.NoError(t, f.svc.Apply(ctx, roomFinished("RM_1", baseUnix+301)))

	var participant participantdomain.Participant
	assert.NoError(t, f.db.Where("participant_sid = ?", "PA_1").First(&participant).Error)
	assert.Equal(t, participantdomain.StateLeft, participant.State)
	if assert.NotNil(t, participant.DurationSeconds) {
		assert.Equal(t, int64(300), *participant.DurationSeconds)
	}

	var track trackdomain.Track
	assert.NoError(t, f.db.Where("track_sid = ?", "TR_1").First(&track).Error)
	if assert.NotNil(t, track.DurationSeconds) {
		assert.Equal(t, int64(120), *track.DurationSeconds)
	}

	var room roomdomain.Room
	assert.NoError(t, f.db.Where("room_sid = ?", "RM_1").First(&room).Error)
	assert.Equal(t, roomdomain.StatusEnded, room.Status)
	assert.NotNil(t, room.EndedAt)
	assert.Equal(t, 1, room.ParticipantCount)
}

func TestApply_RoomStartedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.NoError(t, f.svc.Apply(ctx, roomStarted("RM_1", baseUnix)))
	assert.NoError(t, f.svc.Apply(ctx, roomStarted("RM_1", baseUnix)))

	var count int64
	assert.NoError(t, f.db.Model(&roomdomain.Room{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestApply_RoomFinishedReplayIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.NoError(t, f.svc.Apply(ctx, roomStarted("RM_1", baseUnix)))
	assert.NoError(t, f.svc.Apply(ctx, roomFinished("RM_1", baseUnix+60)))

	var room roomdomain.Room
	assert.NoError(t, f.db.Where("room_sid = ?", "RM_1").First(&room).Error)
	firstEndedAt := room.EndedAt

	assert.NoError(t, f.svc.Apply(ctx, roomFinished("RM_1", baseUnix+600)))
	assert.NoError(t, f.db.Where("room_sid = ?", "RM_1").First(&room).Error)
	assert.Equal(t, firstEndedAt.UTC(), room.EndedAt.UTC())
}

func TestApply_OrphanEventsAreDropped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.Apply(ctx, participantLeft("RM_none", "PA_none", baseUnix))
	assert.ErrorIs(t, err, reconcilerdomain.ErrOrphanEvent)

	err = f.svc.Apply(ctx, participantJoined("RM_none", "PA_1", "alice", baseUnix, ""))
	assert.ErrorIs(t, err, reconcilerdomain.ErrOrphanEvent)

	err = f.svc.Apply(ctx, trackUnpublished("RM_none", "PA_none", "TR_none", baseUnix))
	assert.ErrorIs(t, err, reconcilerdomain.ErrOrphanEvent)

	var participants, tracks int64
	assert.NoError(t, f.db.Model(&participantdomain.Participant{}).Count(&participants).Error)
	assert.NoError(t, f.db.Model(&trackdomain.Track{}).Count(&tracks).Error)
	assert.Equal(t, int64(0), participants)
	assert.Equal(t, int64(0), tracks)
}

func TestApply_AgentSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	metadata := `{"agent_id":"voice-bot","type":"voice"}`

	assert.NoError(t, f.svc.Apply(ctx, roomStarted("RM_1", baseUnix)))
	assert.NoError(t, f.svc.Apply(ctx, participantJoined("RM_1", "PA_1", "voice-bot-1", baseUnix, metadata)))

	var agent agentdomain.Agent
	assert.NoError(t, f.db.Where("agent_id = ?", "voice-bot").First(&agent).Error)
	assert.Equal(t, "voice", agent.AgentType)
	assert.Equal(t, 1, agent.TotalSessions)

	var session agentdomain.Session
	assert.NoError(t, f.db.Where("agent_id = ?", agent.ID).First(&session).Error)
	assert.Equal(t, agentdomain.SessionActive, session.Status)

	assert.NoError(t, f.svc.Apply(ctx, participantLeft("RM_1", "PA_1", baseUnix+60)))
	assert.NoError(t, f.db.Where("agent_id = ?", agent.ID).First(&session).Error)
	assert.Equal(t, agentdomain.SessionCompleted, session.Status)
	assert.NotNil(t, session.LeftAt)

	// The same agent identity joining again bumps the session counter.
	assert.NoError(t, f.svc.Apply(ctx, roomStarted("RM_2", baseUnix+100)))
	assert.NoError(t, f.svc.Apply(ctx, participantJoined("RM_2", "PA_2", "voice-bot-2", baseUnix+100, metadata)))

	assert.NoError(t, f.db.Where("agent_id = ?", "voice-bot").First(&agent).Error)
	assert.Equal(t, 2, agent.TotalSessions)

	var sessions int64
	assert.NoError(t, f.db.Model(&agentdomain.Session{}).Where("agent_id = ?", agent.ID).Count(&sessions).Error)
	assert.Equal(t, int64(2), sessions)
}

func TestApply_RoomFinishedComputesCost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.pricing.Replace(ctx, pricingdomain.ReplaceRequest{
		CostPerParticipantMinute: 0.0005,
		CostPerEgressGB:          0.10,
	})
	assert.NoError(t, err)

	assert.NoError(t, f.svc.Apply(ctx, roomStarted("RM_1", baseUnix)))
	assert.NoError(t, f.svc.Apply(ctx, participantJoined("RM_1", "PA_1", "alice", baseUnix, "")))
	assert.NoError(t, f.svc.Apply(ctx, participantLeft("RM_1", "PA_1", baseUnix+600)))
	assert.NoError(t, f.svc.Apply(ctx, roomFinished("RM_1", baseUnix+601)))

	var room roomdomain.Room
	assert.NoError(t, f.db.Where("room_sid = ?", "RM_1").First(&room).Error)

	var cost costdomain.Cost
	assert.NoError(t, f.db.Where("room_id = ?", room.ID).First(&cost).Error)
	assert.Equal(t, int64(10), cost.ParticipantMinutes)
	assert.Equal(t, int64(5000), cost.ParticipantCost)
	assert.Equal(t, int64(5000), cost.TotalCost)
}

func TestApply_RoomFinishedWithoutPricingStillEndsRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.NoError(t, f.svc.Apply(ctx, roomStarted("RM_1", baseUnix)))
	assert.NoError(t, f.svc.Apply(ctx, roomFinished("RM_1", baseUnix+60)))

	var room roomdomain.Room
	assert.NoError(t, f.db.Where("room_sid = ?", "RM_1").First(&room).Error)
	assert.Equal(t, roomdomain.StatusEnded, room.Status)

	var costs int64
	assert.NoError(t, f.db.Model(&costdomain.Cost{}).Count(&costs).Error)
	assert.Equal(t, int64(0), costs)
}
