package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		expectedErr error
		expectKind  string
	}{
		{
			name:       "room started",
			body:       `{"event":"room_started","id":"EV_1","createdAt":1700000000,"room":{"sid":"RM_1","name":"demo","creationTime":1700000000}}`,
			expectKind: KindRoomStarted,
		},
		{
			name:       "track published",
			body:       `{"event":"track_published","id":"EV_2","createdAt":1700000100,"room":{"sid":"RM_1","name":"demo"},"participant":{"sid":"PA_1","identity":"alice"},"track":{"sid":"TR_1","type":"video","source":"camera"}}`,
			expectKind: KindTrackPublished,
		},
		{
			name:        "unknown kind",
			body:        `{"event":"egress_started","id":"EV_3","room":{"sid":"RM_1"}}`,
			expectedErr: ErrUnknownKind,
		},
		{
			name:        "malformed json",
			body:        `{"event":`,
			expectedErr: ErrDecode,
		},
		{
			name:        "missing event",
			body:        `{"id":"EV_4","room":{"sid":"RM_1"}}`,
			expectedErr: ErrDecode,
		},
		{
			name:        "room started without room",
			body:        `{"event":"room_started","id":"EV_5"}`,
			expectedErr: ErrMissingRoom,
		},
		{
			name:        "participant joined without participant",
			body:        `{"event":"participant_joined","id":"EV_6","room":{"sid":"RM_1"}}`,
			expectedErr: ErrMissingParticipant,
		},
		{
			name:        "track published without track",
			body:        `{"event":"track_published","id":"EV_7","room":{"sid":"RM_1"},"participant":{"sid":"PA_1"}}`,
			expectedErr: ErrMissingTrack,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env, err := Decode([]byte(tc.body))
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Nil(t, env)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expectKind, env.Event)
		})
	}
}

func TestOccurredAt(t *testing.T) {
	fallback := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	joined := &Envelope{
		Event:       KindParticipantJoined,
		CreatedAt:   1700000500,
		Participant: &ParticipantPayload{SID: "PA_1", JoinedAt: 1700000400},
	}
	assert.Equal(t, time.Unix(1700000400, 0).UTC(), joined.OccurredAt(fallback))

	envelopeOnly := &Envelope{Event: KindParticipantLeft, CreatedAt: 1700000500}
	assert.Equal(t, time.Unix(1700000500, 0).UTC(), envelopeOnly.OccurredAt(fallback))

	bare := &Envelope{Event: KindRoomFinished}
	assert.Equal(t, fallback, bare.OccurredAt(fallback))
}

func TestParticipantIsAgent(t *testing.T) {
	assert.True(t, (&ParticipantPayload{Kind: "agent"}).IsAgent())
	assert.True(t, (&ParticipantPayload{Metadata: `{"agent_id":"voice-bot"}`}).IsAgent())
	assert.False(t, (&ParticipantPayload{Metadata: `{"role":"viewer"}`}).IsAgent())
	assert.False(t, (&ParticipantPayload{}).IsAgent())

	var nilParticipant *ParticipantPayload
	assert.False(t, nilParticipant.IsAgent())
}
