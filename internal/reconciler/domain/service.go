package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/roomledger/internal/event"
)

// ErrOrphanEvent marks an event whose owner entity is not in the store.
// Orphans are tolerated: the caller logs, drops and acknowledges them.
var ErrOrphanEvent = errors.New("orphan_event")

type Service interface {
	Apply(ctx context.Context, env *event.Envelope) error
}
