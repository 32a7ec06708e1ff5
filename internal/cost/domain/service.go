package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var ErrRoomNotFound = errors.New("room_not_found")

type Service interface {
	ComputeForRoom(ctx context.Context, roomID snowflake.ID) (*Cost, error)
	RecalculateAll(ctx context.Context) (int, error)
	ForRoom(ctx context.Context, roomID snowflake.ID) (*Cost, error)
	Summarize(ctx context.Context) (*Summary, error)
}
