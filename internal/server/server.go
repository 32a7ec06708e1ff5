package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/roomledger/internal/agent"
	agentdomain "github.com/smallbiznis/roomledger/internal/agent/domain"
	"github.com/smallbiznis/roomledger/internal/config"
	"github.com/smallbiznis/roomledger/internal/cost"
	costdomain "github.com/smallbiznis/roomledger/internal/cost/domain"
	"github.com/smallbiznis/roomledger/internal/event"
	"github.com/smallbiznis/roomledger/internal/observability"
	obsmiddleware "github.com/smallbiznis/roomledger/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/roomledger/internal/observability/metrics"
	obstracing "github.com/smallbiznis/roomledger/internal/observability/tracing"
	"github.com/smallbiznis/roomledger/internal/participant"
	participantdomain "github.com/smallbiznis/roomledger/internal/participant/domain"
	"github.com/smallbiznis/roomledger/internal/pricing"
	pricingdomain "github.com/smallbiznis/roomledger/internal/pricing/domain"
	"github.com/smallbiznis/roomledger/internal/ratelimit"
	"github.com/smallbiznis/roomledger/internal/reconciler"
	reconcilerdomain "github.com/smallbiznis/roomledger/internal/reconciler/domain"
	"github.com/smallbiznis/roomledger/internal/room"
	roomdomain "github.com/smallbiznis/roomledger/internal/room/domain"
	"github.com/smallbiznis/roomledger/internal/track"
	trackdomain "github.com/smallbiznis/roomledger/internal/track/domain"
	"github.com/smallbiznis/roomledger/internal/usage"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	room.Module,
	participant.Module,
	track.Module,
	agent.Module,
	usage.Module,
	pricing.Module,
	cost.Module,
	reconciler.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine) {
	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	genID  *snowflake.Node

	verifier      *event.Verifier
	reconcilerSvc reconcilerdomain.Service
	pricingSvc    pricingdomain.Service
	costSvc       costdomain.Service
	rooms         roomdomain.Repository
	participants  participantdomain.Repository
	tracks        trackdomain.Repository
	agents        agentdomain.Repository

	webhookLimiter *ratelimit.WebhookLimiter
	obsMetrics     *obsmetrics.Metrics
	log            *zap.Logger
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	ReconcilerSvc reconcilerdomain.Service
	PricingSvc    pricingdomain.Service
	CostSvc       costdomain.Service
	Rooms         roomdomain.Repository
	Participants  participantdomain.Repository
	Tracks        trackdomain.Repository
	Agents        agentdomain.Repository

	WebhookLimiter *ratelimit.WebhookLimiter `optional:"true"`
	ObsMetrics     *obsmetrics.Metrics       `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		db:             p.DB,
		log:            p.Log.Named("http.server"),
		genID:          p.GenID,
		verifier:       event.NewVerifier(p.Cfg.LiveKitAPIKey, p.Cfg.LiveKitAPISecret),
		reconcilerSvc:  p.ReconcilerSvc,
		pricingSvc:     p.PricingSvc,
		costSvc:        p.CostSvc,
		rooms:          p.Rooms,
		participants:   p.Participants,
		tracks:         p.Tracks,
		agents:         p.Agents,
		webhookLimiter: p.WebhookLimiter,
		obsMetrics:     p.ObsMetrics,
	}

	svc.registerWebhookRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerWebhookRoutes() {
	s.engine.POST("/webhooks/livekit", s.HandleLivekitWebhook)
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	v1.GET("/pricing", s.GetPricing)
	v1.PUT("/pricing", s.UpdatePricing)
	v1.POST("/pricing/recalculate", s.RecalculateCosts)

	v1.GET("/rooms", s.ListRooms)
	v1.GET("/rooms/:sid", s.GetRoom)
	v1.GET("/agents", s.ListAgents)
	v1.GET("/agents/:id/sessions", s.ListAgentSessions)
	v1.GET("/costs/summary", s.CostSummary)
}
