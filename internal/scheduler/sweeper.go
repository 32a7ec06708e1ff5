package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/roomledger/internal/clock"
	costdomain "github.com/smallbiznis/roomledger/internal/cost/domain"
	pricingdomain "github.com/smallbiznis/roomledger/internal/pricing/domain"
	roomdomain "github.com/smallbiznis/roomledger/internal/room/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("invalid_sweeper_config")

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Rooms   roomdomain.Repository
	CostSvc costdomain.Service
	Config  Config `optional:"true"`
}

// Sweeper bills ended rooms that have no cost row yet. Rooms slip
// through when they close before any pricing configuration exists, or
// when the inline computation on room close fails.
type Sweeper struct {
	db      *gorm.DB
	log     *zap.Logger
	cfg     Config
	clock   clock.Clock
	rooms   roomdomain.Repository
	costSvc costdomain.Service
}

func New(p Params) (*Sweeper, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.Rooms == nil || p.CostSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Sweeper{
		db:      p.DB,
		log:     p.Log.Named("scheduler").With(zap.String("component", "cost_sweeper")),
		cfg:     p.Config.withDefaults(),
		clock:   p.Clock,
		rooms:   p.Rooms,
		costSvc: p.CostSvc,
	}, nil
}

func (s *Sweeper) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Warn("sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce bills one batch of unbilled ended rooms and returns how many
// rooms were billed. Without an active pricing configuration the sweep
// is skipped entirely rather than failing each room in turn.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	rooms, err := s.rooms.ListEndedWithoutCost(ctx, s.db, s.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(rooms) == 0 {
		return 0, nil
	}

	swept := 0
	for i := range rooms {
		if err := ctx.Err(); err != nil {
			return swept, err
		}

		if _, err := s.costSvc.ComputeForRoom(ctx, rooms[i].ID); err != nil {
			if errors.Is(err, pricingdomain.ErrNotConfigured) {
				s.log.Debug("sweep skipped, no pricing configuration", zap.Int("pending_rooms", len(rooms)))
				return swept, nil
			}
			s.log.Error("sweep cost computation failed",
				zap.String("room_sid", rooms[i].RoomSID),
				zap.Error(err),
			)
			continue
		}
		swept++
	}

	if swept > 0 {
		s.log.Info("swept unbilled rooms", zap.Int("rooms", swept))
	}
	return swept, nil
}
