package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/roomledger/internal/clock"
	costdomain "github.com/smallbiznis/roomledger/internal/cost/domain"
	"github.com/smallbiznis/roomledger/internal/observability/metrics"
	pricingdomain "github.com/smallbiznis/roomledger/internal/pricing/domain"
	roomdomain "github.com/smallbiznis/roomledger/internal/room/domain"
	usagedomain "github.com/smallbiznis/roomledger/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const recalculateBatchSize = 200

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       costdomain.Repository
	Rooms      roomdomain.Repository
	Usage      usagedomain.Aggregator
	Pricing    pricingdomain.Service
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    costdomain.Repository
	rooms   roomdomain.Repository
	usage   usagedomain.Aggregator
	pricing pricingdomain.Service
	metrics *metrics.Metrics
}

func New(p Params) costdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("cost.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		rooms:   p.Rooms,
		usage:   p.Usage,
		pricing: p.Pricing,
		metrics: p.Metrics,
	}
}

// ComputeForRoom replaces the cost row for one room using the active
// pricing configuration. The old row is deleted and a fresh one inserted
// inside a single transaction so the room never shows a partial bill.
func (s *Service) ComputeForRoom(ctx context.Context, roomID snowflake.ID) (*costdomain.Cost, error) {
	config, err := s.pricing.ActiveConfig(ctx)
	if err != nil {
		return nil, err
	}

	room, err := s.rooms.FindByID(ctx, s.db, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, costdomain.ErrRoomNotFound
	}

	var cost *costdomain.Cost
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cost, err = s.computeAndInsert(ctx, tx, roomID, config, true)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCostComputation(ctx, "room_finished")
	s.log.Info("room cost computed",
		zap.String("room_id", roomID.String()),
		zap.Int64("total_cost", cost.TotalCost),
	)

	return cost, nil
}

// RecalculateAll rebuilds every cost row from the active pricing
// configuration. All existing rows are deleted and every ended room is
// re-billed inside one transaction, so a cancelled run leaves the
// previous rows untouched. Historical configurations are not consulted.
func (s *Service) RecalculateAll(ctx context.Context) (int, error) {
	config, err := s.pricing.ActiveConfig(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.DeleteAll(ctx, tx); err != nil {
			return err
		}

		var afterID snowflake.ID
		for {
			rooms, err := s.rooms.ListEnded(ctx, tx, afterID, recalculateBatchSize)
			if err != nil {
				return err
			}
			if len(rooms) == 0 {
				return nil
			}

			for i := range rooms {
				if err := ctx.Err(); err != nil {
					return err
				}
				if _, err := s.computeAndInsert(ctx, tx, rooms[i].ID, config, false); err != nil {
					return err
				}
				count++
				afterID = rooms[i].ID
			}
		}
	})
	if err != nil {
		return 0, err
	}

	s.metrics.RecordCostComputation(ctx, "recalculate")
	s.log.Info("cost recalculation finished", zap.Int("rooms", count))

	return count, nil
}

func (s *Service) ForRoom(ctx context.Context, roomID snowflake.ID) (*costdomain.Cost, error) {
	return s.repo.FindByRoom(ctx, s.db, roomID)
}

func (s *Service) Summarize(ctx context.Context) (*costdomain.Summary, error) {
	summary, err := s.repo.Totals(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if summary.RoomCount > 0 {
		summary.AverageCost = summary.TotalCost / summary.RoomCount
	}
	return summary, nil
}

func (s *Service) computeAndInsert(ctx context.Context, tx *gorm.DB, roomID snowflake.ID, config *pricingdomain.PricingConfig, deleteExisting bool) (*costdomain.Cost, error) {
	if deleteExisting {
		if err := s.repo.DeleteByRoom(ctx, tx, roomID); err != nil {
			return nil, err
		}
	}

	usage, err := s.usage.ForRoom(ctx, tx, roomID)
	if err != nil {
		return nil, err
	}

	minutes := usage.ParticipantMinutes()
	egressGB := usage.EgressGB()
	ingressGB := usage.IngressGB()

	participantCost := minutes * config.ParticipantMinuteRate
	egressCost := egressGB * config.EgressGBRate
	ingressCost := ingressGB * config.IngressGBRate

	now := s.clock.Now().UTC()
	cost := &costdomain.Cost{
		ID:                 s.genID.Generate(),
		RoomID:             roomID,
		ParticipantMinutes: minutes,
		EgressGB:           egressGB,
		IngressGB:          ingressGB,
		ParticipantCost:    participantCost,
		EgressCost:         egressCost,
		IngressCost:        ingressCost,
		TotalCost:          participantCost + egressCost + ingressCost,
		CalculatedAt:       now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Insert(ctx, tx, cost); err != nil {
		return nil, err
	}
	return cost, nil
}
