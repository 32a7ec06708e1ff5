package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/roomledger/internal/event"
	reconcilerdomain "github.com/smallbiznis/roomledger/internal/reconciler/domain"
	"go.uber.org/zap"
)

// HandleLivekitWebhook ingests one signed lifecycle event. Deliberate
// drops (unknown kinds, orphans, replays) are acknowledged with 200 so
// the sender does not redeliver them.
func (s *Server) HandleLivekitWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, event.ErrDecode)
		return
	}

	if s.webhookLimiter.Enabled() {
		allowed, err := s.webhookLimiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			s.log.Warn("webhook rate limiter unavailable", zap.Error(err))
		}
		if !allowed {
			s.obsMetrics.RecordRateLimitDenied(c.Request.Context(), "webhooks_livekit")
			AbortWithError(c, ErrRateLimited)
			return
		}
	}

	if err := s.verifier.Verify(c.GetHeader("Authorization"), body); err != nil {
		AbortWithError(c, err)
		return
	}

	env, err := event.Decode(body)
	if err != nil {
		if errors.Is(err, event.ErrUnknownKind) {
			// Forward compatibility: new event kinds must not break ingestion.
			s.log.Info("unknown webhook event kind dropped")
			s.obsMetrics.RecordWebhookEvent(c.Request.Context(), "unknown", "dropped")
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.Set("event_kind", env.Event)

	if err := s.reconcilerSvc.Apply(c.Request.Context(), env); err != nil {
		if errors.Is(err, reconcilerdomain.ErrOrphanEvent) {
			s.log.Warn("orphan webhook event dropped",
				zap.String("event_kind", env.Event),
				zap.String("event_id", env.ID),
			)
			s.obsMetrics.RecordOrphanEvent(c.Request.Context(), env.Event)
			c.JSON(http.StatusOK, gin.H{"status": "dropped"})
			return
		}
		s.obsMetrics.RecordWebhookEvent(c.Request.Context(), env.Event, "failed")
		AbortWithError(c, err)
		return
	}

	s.obsMetrics.RecordWebhookEvent(c.Request.Context(), env.Event, "applied")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
