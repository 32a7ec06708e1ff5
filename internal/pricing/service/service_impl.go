package service

import (
	"context"
	"math"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/roomledger/internal/clock"
	pricingdomain "github.com/smallbiznis/roomledger/internal/pricing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  pricingdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  pricingdomain.Repository
}

func New(p Params) pricingdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("pricing.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) GetActive(ctx context.Context) (*pricingdomain.Response, error) {
	config, err := s.ActiveConfig(ctx)
	if err != nil {
		return nil, err
	}
	return toResponse(config), nil
}

func (s *Service) ActiveConfig(ctx context.Context) (*pricingdomain.PricingConfig, error) {
	config, err := s.repo.FindActive(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, pricingdomain.ErrNotConfigured
	}
	return config, nil
}

// Replace supersedes the active configuration. The previous row is
// deactivated with effective_to stamped and a fresh active row inserted,
// both inside one transaction.
func (s *Service) Replace(ctx context.Context, req pricingdomain.ReplaceRequest) (*pricingdomain.Response, error) {
	for _, rate := range []float64{
		req.CostPerParticipantMinute,
		req.CostPerEgressGB,
		req.CostPerIngressGB,
		req.CostPerRecordingMinute,
	} {
		if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
			return nil, pricingdomain.ErrInvalidRate
		}
	}

	now := s.clock.Now().UTC()
	config := &pricingdomain.PricingConfig{
		ID:                    s.genID.Generate(),
		ParticipantMinuteRate: dollarsToMicroCents(req.CostPerParticipantMinute),
		EgressGBRate:          dollarsToCents(req.CostPerEgressGB),
		IngressGBRate:         dollarsToCents(req.CostPerIngressGB),
		RecordingMinuteRate:   dollarsToMicroCents(req.CostPerRecordingMinute),
		Active:                true,
		EffectiveFrom:         now,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Deactivate(ctx, tx, now); err != nil {
			return err
		}
		return s.repo.Insert(ctx, tx, config)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("pricing configuration replaced",
		zap.String("config_id", config.ID.String()),
		zap.Int64("participant_minute_rate", config.ParticipantMinuteRate),
		zap.Int64("egress_gb_rate", config.EgressGBRate),
	)

	return toResponse(config), nil
}

func toResponse(config *pricingdomain.PricingConfig) *pricingdomain.Response {
	return &pricingdomain.Response{
		ID:                       config.ID.String(),
		CostPerParticipantMinute: microCentsToDollars(config.ParticipantMinuteRate),
		CostPerEgressGB:          centsToDollars(config.EgressGBRate),
		CostPerIngressGB:         centsToDollars(config.IngressGBRate),
		CostPerRecordingMinute:   microCentsToDollars(config.RecordingMinuteRate),
		EffectiveFrom:            config.EffectiveFrom,
		EffectiveTo:              config.EffectiveTo,
	}
}

func dollarsToMicroCents(v float64) int64 { return int64(math.Round(v * 1_000_000)) }

func dollarsToCents(v float64) int64 { return int64(math.Round(v * 100)) }

func microCentsToDollars(v int64) float64 { return float64(v) / 1_000_000 }

func centsToDollars(v int64) float64 { return float64(v) / 100 }
