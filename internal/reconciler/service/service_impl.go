package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	agentdomain "github.com/smallbiznis/roomledger/internal/agent/domain"
	"github.com/smallbiznis/roomledger/internal/clock"
	costdomain "github.com/smallbiznis/roomledger/internal/cost/domain"
	"github.com/smallbiznis/roomledger/internal/event"
	participantdomain "github.com/smallbiznis/roomledger/internal/participant/domain"
	reconcilerdomain "github.com/smallbiznis/roomledger/internal/reconciler/domain"
	roomdomain "github.com/smallbiznis/roomledger/internal/room/domain"
	trackdomain "github.com/smallbiznis/roomledger/internal/track/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Rooms        roomdomain.Repository
	Participants participantdomain.Repository
	Tracks       trackdomain.Repository
	Agents       agentdomain.Repository
	Costs        costdomain.Service
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	rooms        roomdomain.Repository
	participants participantdomain.Repository
	tracks       trackdomain.Repository
	agents       agentdomain.Repository
	costs        costdomain.Service
}

func New(p Params) reconcilerdomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("reconciler.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		rooms:        p.Rooms,
		participants: p.Participants,
		tracks:       p.Tracks,
		agents:       p.Agents,
		costs:        p.Costs,
	}
}

// Apply dispatches one decoded event to its lifecycle handler. Handlers
// are idempotent: replays of a create are no-ops and updates only fire
// from the expected prior state.
func (s *Service) Apply(ctx context.Context, env *event.Envelope) error {
	occurredAt := env.OccurredAt(s.clock.Now())

	switch env.Event {
	case event.KindRoomStarted:
		return s.applyRoomStarted(ctx, env, occurredAt)
	case event.KindRoomFinished:
		return s.applyRoomFinished(ctx, env, occurredAt)
	case event.KindParticipantJoined:
		return s.applyParticipantJoined(ctx, env, occurredAt)
	case event.KindParticipantLeft:
		return s.applyParticipantLeft(ctx, env, occurredAt)
	case event.KindTrackPublished:
		return s.applyTrackPublished(ctx, env, occurredAt)
	case event.KindTrackUnpublished:
		return s.applyTrackUnpublished(ctx, env, occurredAt)
	default:
		return event.ErrUnknownKind
	}
}
