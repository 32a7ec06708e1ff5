package event

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Webhook event kinds emitted by the media server.
const (
	KindRoomStarted       = "room_started"
	KindRoomFinished      = "room_finished"
	KindParticipantJoined = "participant_joined"
	KindParticipantLeft   = "participant_left"
	KindTrackPublished    = "track_published"
	KindTrackUnpublished  = "track_unpublished"
)

var (
	ErrDecode             = errors.New("invalid_event_payload")
	ErrUnknownKind        = errors.New("unknown_event_kind")
	ErrMissingRoom        = errors.New("missing_room_payload")
	ErrMissingParticipant = errors.New("missing_participant_payload")
	ErrMissingTrack       = errors.New("missing_track_payload")
)

// Envelope is the decoded webhook body. Optional payload sections are nil
// when the event kind does not carry them.
type Envelope struct {
	Event       string              `json:"event"`
	ID          string              `json:"id"`
	CreatedAt   int64               `json:"createdAt"`
	Room        *RoomPayload        `json:"room,omitempty"`
	Participant *ParticipantPayload `json:"participant,omitempty"`
	Track       *TrackPayload       `json:"track,omitempty"`
}

// RoomPayload mirrors the room section of the webhook body.
type RoomPayload struct {
	SID             string `json:"sid"`
	Name            string `json:"name"`
	CreationTime    int64  `json:"creationTime"`
	Metadata        string `json:"metadata"`
	NumParticipants int    `json:"numParticipants"`
}

// ParticipantPayload mirrors the participant section of the webhook body.
type ParticipantPayload struct {
	SID      string `json:"sid"`
	Identity string `json:"identity"`
	Name     string `json:"name"`
	JoinedAt int64  `json:"joinedAt"`
	Metadata string `json:"metadata"`
	Kind     string `json:"kind"`
}

// TrackPayload mirrors the track section of the webhook body.
type TrackPayload struct {
	SID    string `json:"sid"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Source string `json:"source"`
	Muted  bool   `json:"muted"`
}

// IsAgent reports whether the participant represents a server-side agent.
// The media server marks agents either by kind or by an agent_id entry in
// the participant metadata.
func (p *ParticipantPayload) IsAgent() bool {
	if p == nil {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(p.Kind), "agent") {
		return true
	}
	meta := p.DecodedMetadata()
	if meta == nil {
		return false
	}
	if _, ok := meta["agent_id"]; ok {
		return true
	}
	return false
}

// DecodedMetadata parses the participant metadata string as JSON. It
// returns nil when the metadata is absent or not a JSON object.
func (p *ParticipantPayload) DecodedMetadata() map[string]any {
	if p == nil {
		return nil
	}
	return decodeMetadata(p.Metadata)
}

// DecodedMetadata parses the room metadata string as JSON.
func (r *RoomPayload) DecodedMetadata() map[string]any {
	if r == nil {
		return nil
	}
	return decodeMetadata(r.Metadata)
}

func decodeMetadata(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

// OccurredAt resolves the best-known time of the event. Payload timestamps
// win over the envelope timestamp, and a caller-provided fallback covers
// bodies that carry neither.
func (e *Envelope) OccurredAt(fallback time.Time) time.Time {
	switch e.Event {
	case KindRoomStarted:
		if e.Room != nil && e.Room.CreationTime > 0 {
			return time.Unix(e.Room.CreationTime, 0).UTC()
		}
	case KindParticipantJoined:
		if e.Participant != nil && e.Participant.JoinedAt > 0 {
			return time.Unix(e.Participant.JoinedAt, 0).UTC()
		}
	}
	if e.CreatedAt > 0 {
		return time.Unix(e.CreatedAt, 0).UTC()
	}
	return fallback.UTC()
}

// Decode parses and validates a webhook body. It rejects unknown event
// kinds and bodies missing the payload section their kind requires.
func Decode(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, ErrDecode
	}

	env.Event = strings.TrimSpace(env.Event)
	if env.Event == "" {
		return nil, ErrDecode
	}

	switch env.Event {
	case KindRoomStarted, KindRoomFinished:
		if env.Room == nil || strings.TrimSpace(env.Room.SID) == "" {
			return nil, ErrMissingRoom
		}
	case KindParticipantJoined, KindParticipantLeft:
		if env.Room == nil || strings.TrimSpace(env.Room.SID) == "" {
			return nil, ErrMissingRoom
		}
		if env.Participant == nil || strings.TrimSpace(env.Participant.SID) == "" {
			return nil, ErrMissingParticipant
		}
	case KindTrackPublished, KindTrackUnpublished:
		if env.Room == nil || strings.TrimSpace(env.Room.SID) == "" {
			return nil, ErrMissingRoom
		}
		if env.Participant == nil || strings.TrimSpace(env.Participant.SID) == "" {
			return nil, ErrMissingParticipant
		}
		if env.Track == nil || strings.TrimSpace(env.Track.SID) == "" {
			return nil, ErrMissingTrack
		}
	default:
		return nil, ErrUnknownKind
	}

	return &env, nil
}
