package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	agentdomain "github.com/smallbiznis/roomledger/internal/agent/domain"
	"github.com/smallbiznis/roomledger/internal/event"
	participantdomain "github.com/smallbiznis/roomledger/internal/participant/domain"
	pricingdomain "github.com/smallbiznis/roomledger/internal/pricing/domain"
	reconcilerdomain "github.com/smallbiznis/roomledger/internal/reconciler/domain"
	roomdomain "github.com/smallbiznis/roomledger/internal/room/domain"
	trackdomain "github.com/smallbiznis/roomledger/internal/track/domain"
	"github.com/smallbiznis/roomledger/pkg/db"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func (s *Service) applyRoomStarted(ctx context.Context, env *event.Envelope, occurredAt time.Time) error {
	existing, err := s.rooms.FindBySID(ctx, s.db, env.Room.SID)
	if err != nil {
		return err
	}
	if existing != nil {
		s.log.Debug("room already exists, replay dropped", zap.String("room_sid", env.Room.SID))
		return nil
	}

	now := s.clock.Now().UTC()
	room := &roomdomain.Room{
		ID:        s.genID.Generate(),
		RoomSID:   env.Room.SID,
		RoomName:  env.Room.Name,
		StartedAt: occurredAt,
		Status:    roomdomain.StatusActive,
		Metadata:  datatypes.JSONMap(env.Room.DecodedMetadata()),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.rooms.Insert(ctx, s.db, room); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil
		}
		return err
	}

	s.log.Info("room started", zap.String("room_sid", room.RoomSID), zap.String("room_name", room.RoomName))
	return nil
}

func (s *Service) applyRoomFinished(ctx context.Context, env *event.Envelope, occurredAt time.Time) error {
	room, err := s.rooms.FindBySID(ctx, s.db, env.Room.SID)
	if err != nil {
		return err
	}
	if room == nil {
		return reconcilerdomain.ErrOrphanEvent
	}
	if room.Status == roomdomain.StatusEnded {
		return nil
	}

	if err := s.rooms.End(ctx, s.db, room.ID, occurredAt.UTC()); err != nil {
		return err
	}
	s.log.Info("room finished", zap.String("room_sid", room.RoomSID))

	// Billing is best effort here. A missing pricing configuration must
	// not reject the lifecycle event; the sweeper picks the room up later.
	if _, err := s.costs.ComputeForRoom(ctx, room.ID); err != nil {
		if errors.Is(err, pricingdomain.ErrNotConfigured) {
			s.log.Warn("room closed without pricing configuration", zap.String("room_sid", room.RoomSID))
		} else {
			s.log.Error("room cost computation failed", zap.String("room_sid", room.RoomSID), zap.Error(err))
		}
	}

	return nil
}

func (s *Service) applyParticipantJoined(ctx context.Context, env *event.Envelope, occurredAt time.Time) error {
	room, err := s.rooms.FindBySID(ctx, s.db, env.Room.SID)
	if err != nil {
		return err
	}
	if room == nil {
		return reconcilerdomain.ErrOrphanEvent
	}

	existing, err := s.participants.FindBySID(ctx, s.db, env.Participant.SID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	now := s.clock.Now().UTC()
	name := strings.TrimSpace(env.Participant.Name)
	if name == "" {
		name = env.Participant.Identity
	}

	participant := &participantdomain.Participant{
		ID:             s.genID.Generate(),
		ParticipantSID: env.Participant.SID,
		RoomID:         room.ID,
		Identity:       env.Participant.Identity,
		Name:           name,
		JoinedAt:       occurredAt.UTC(),
		State:          participantdomain.StateActive,
		IsAgent:        env.Participant.IsAgent(),
		Metadata:       datatypes.JSONMap(env.Participant.DecodedMetadata()),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.participants.Insert(ctx, tx, participant); err != nil {
			return err
		}
		if err := s.rooms.AddParticipants(ctx, tx, room.ID, 1); err != nil {
			return err
		}
		if participant.IsAgent {
			return s.recordAgentJoin(ctx, tx, env.Participant, participant, room.ID, occurredAt.UTC())
		}
		return nil
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil
		}
		return err
	}

	s.log.Info("participant joined",
		zap.String("participant_sid", participant.ParticipantSID),
		zap.String("identity", participant.Identity),
		zap.String("room_sid", room.RoomSID),
		zap.Bool("is_agent", participant.IsAgent),
	)
	return nil
}

func (s *Service) applyParticipantLeft(ctx context.Context, env *event.Envelope, occurredAt time.Time) error {
	participant, err := s.participants.FindBySID(ctx, s.db, env.Participant.SID)
	if err != nil {
		return err
	}
	if participant == nil {
		return reconcilerdomain.ErrOrphanEvent
	}
	if participant.State == participantdomain.StateLeft {
		return nil
	}

	leftAt := occurredAt.UTC()
	duration := int64(leftAt.Sub(participant.JoinedAt) / time.Second)
	if duration < 0 {
		duration = 0
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.participants.MarkLeft(ctx, tx, participant.ID, leftAt, duration); err != nil {
			return err
		}
		if participant.IsAgent {
			session, err := s.agents.FindActiveSessionByParticipant(ctx, tx, participant.ID)
			if err != nil {
				return err
			}
			if session != nil {
				return s.agents.CloseSession(ctx, tx, session.ID, leftAt)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("participant left",
		zap.String("participant_sid", participant.ParticipantSID),
		zap.Int64("duration_seconds", duration),
	)
	return nil
}

func (s *Service) applyTrackPublished(ctx context.Context, env *event.Envelope, occurredAt time.Time) error {
	room, err := s.rooms.FindBySID(ctx, s.db, env.Room.SID)
	if err != nil {
		return err
	}
	if room == nil {
		return reconcilerdomain.ErrOrphanEvent
	}

	participant, err := s.participants.FindBySID(ctx, s.db, env.Participant.SID)
	if err != nil {
		return err
	}
	if participant == nil {
		return reconcilerdomain.ErrOrphanEvent
	}

	existing, err := s.tracks.FindBySID(ctx, s.db, env.Track.SID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	now := s.clock.Now().UTC()
	trackName := strings.TrimSpace(env.Track.Name)
	if trackName == "" {
		trackName = "unnamed"
	}
	source := strings.TrimSpace(env.Track.Source)
	if source == "" {
		source = "unknown"
	}

	track := &trackdomain.Track{
		ID:            s.genID.Generate(),
		TrackSID:      env.Track.SID,
		RoomID:        room.ID,
		ParticipantID: participant.ID,
		TrackName:     trackName,
		TrackType:     env.Track.Type,
		Source:        source,
		PublishedAt:   occurredAt.UTC(),
		Muted:         env.Track.Muted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.tracks.Insert(ctx, s.db, track); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil
		}
		return err
	}

	s.log.Info("track published",
		zap.String("track_sid", track.TrackSID),
		zap.String("track_type", track.TrackType),
		zap.String("participant_sid", participant.ParticipantSID),
	)
	return nil
}

func (s *Service) applyTrackUnpublished(ctx context.Context, env *event.Envelope, occurredAt time.Time) error {
	track, err := s.tracks.FindBySID(ctx, s.db, env.Track.SID)
	if err != nil {
		return err
	}
	if track == nil {
		return reconcilerdomain.ErrOrphanEvent
	}
	if track.UnpublishedAt != nil {
		return nil
	}

	unpublishedAt := occurredAt.UTC()
	duration := int64(unpublishedAt.Sub(track.PublishedAt) / time.Second)
	if duration < 0 {
		duration = 0
	}

	if err := s.tracks.MarkUnpublished(ctx, s.db, track.ID, unpublishedAt, duration); err != nil {
		return err
	}

	s.log.Info("track unpublished",
		zap.String("track_sid", track.TrackSID),
		zap.Int64("duration_seconds", duration),
	)
	return nil
}

// recordAgentJoin upserts the agent identity and opens a session row for
// the joining participant, inside the caller's transaction.
func (s *Service) recordAgentJoin(ctx context.Context, tx *gorm.DB, payload *event.ParticipantPayload, participant *participantdomain.Participant, roomID snowflake.ID, occurredAt time.Time) error {
	agentID := payload.Identity
	agentType := "unknown"
	if meta := payload.DecodedMetadata(); meta != nil {
		if v, ok := meta["agent_id"].(string); ok && strings.TrimSpace(v) != "" {
			agentID = v
		}
		if v, ok := meta["type"].(string); ok && strings.TrimSpace(v) != "" {
			agentType = v
		}
	}

	agent, err := s.agents.FindByAgentID(ctx, tx, agentID)
	if err != nil {
		return err
	}

	if agent == nil {
		agent = &agentdomain.Agent{
			ID:            s.genID.Generate(),
			AgentID:       agentID,
			AgentName:     participant.Name,
			AgentType:     agentType,
			TotalSessions: 1,
			FirstSeenAt:   occurredAt,
			LastSeenAt:    occurredAt,
			Metadata:      datatypes.JSONMap(payload.DecodedMetadata()),
			CreatedAt:     occurredAt,
			UpdatedAt:     occurredAt,
		}
		if err := s.agents.Insert(ctx, tx, agent); err != nil {
			return err
		}
	} else {
		if err := s.agents.RecordSession(ctx, tx, agent.ID, occurredAt); err != nil {
			return err
		}
	}

	session := &agentdomain.Session{
		ID:            s.genID.Generate(),
		AgentID:       agent.ID,
		ParticipantID: participant.ID,
		RoomID:        roomID,
		JoinedAt:      occurredAt,
		Status:        agentdomain.SessionActive,
		CreatedAt:     occurredAt,
		UpdatedAt:     occurredAt,
	}
	return s.agents.InsertSession(ctx, tx, session)
}
