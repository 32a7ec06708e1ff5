package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomUsageRounding(t *testing.T) {
	tests := []struct {
		name            string
		usage           RoomUsage
		expectedMinutes int64
		expectedEgress  int64
		expectedIngress int64
	}{
		{
			name:            "zero usage",
			usage:           RoomUsage{},
			expectedMinutes: 0,
			expectedEgress:  0,
			expectedIngress: 0,
		},
		{
			name:            "exact minutes and gigabytes",
			usage:           RoomUsage{ParticipantSeconds: 600, EgressBytes: 2 * 1024 * 1024 * 1024},
			expectedMinutes: 10,
			expectedEgress:  2,
		},
		{
			name:            "partial units round up",
			usage:           RoomUsage{ParticipantSeconds: 301, EgressBytes: 1, IngressBytes: 1024*1024*1024 + 1},
			expectedMinutes: 6,
			expectedEgress:  1,
			expectedIngress: 2,
		},
		{
			name:            "negative counters clamp to zero",
			usage:           RoomUsage{ParticipantSeconds: -30},
			expectedMinutes: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedMinutes, tc.usage.ParticipantMinutes())
			assert.Equal(t, tc.expectedEgress, tc.usage.EgressGB())
			assert.Equal(t, tc.expectedIngress, tc.usage.IngressGB())
		})
	}
}
