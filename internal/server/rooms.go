package server

import (
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	costdomain "github.com/smallbiznis/roomledger/internal/cost/domain"
	participantdomain "github.com/smallbiznis/roomledger/internal/participant/domain"
	roomdomain "github.com/smallbiznis/roomledger/internal/room/domain"
	trackdomain "github.com/smallbiznis/roomledger/internal/track/domain"
	"github.com/smallbiznis/roomledger/pkg/db/pagination"
)

type roomView struct {
	roomdomain.Room
	DurationSeconds int64 `json:"duration_seconds"`
}

type roomDetail struct {
	roomView
	Participants []participantdomain.Participant `json:"participants"`
	Tracks       []trackdomain.Track             `json:"tracks"`
	Cost         *costdomain.Cost                `json:"cost,omitempty"`
}

func newRoomView(r roomdomain.Room) roomView {
	return roomView{Room: r, DurationSeconds: r.DurationSeconds()}
}

func (s *Server) ListRooms(c *gin.Context) {
	status := c.Query("status")
	if status != "" && status != roomdomain.StatusActive && status != roomdomain.StatusEnded {
		AbortWithError(c, newValidationError("status", "invalid_status", "must be active or ended"))
		return
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, newValidationError("page_size", "invalid_page_size", "must be a positive integer"))
		return
	}
	limit := page.PageSize
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var afterID snowflake.ID
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			AbortWithError(c, newValidationError("page_token", "invalid_page_token", "malformed page token"))
			return
		}
		id, err := strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			AbortWithError(c, newValidationError("page_token", "invalid_page_token", "malformed page token"))
			return
		}
		afterID = snowflake.ID(id)
	}

	rooms, err := s.rooms.List(c.Request.Context(), s.db, roomdomain.ListFilter{
		Status:  status,
		AfterID: afterID,
		Limit:   limit + 1,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	info, rooms := pagination.BuildCursorPageInfo(rooms, limit, func(r roomdomain.Room) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: r.ID.String()})
		return token
	})

	views := make([]roomView, 0, len(rooms))
	for _, r := range rooms {
		views = append(views, newRoomView(r))
	}
	c.JSON(http.StatusOK, gin.H{
		"rooms":     views,
		"page_info": info,
	})
}

func (s *Server) GetRoom(c *gin.Context) {
	ctx := c.Request.Context()

	room, err := s.rooms.FindBySID(ctx, s.db, c.Param("sid"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if room == nil {
		AbortWithError(c, roomdomain.ErrNotFound)
		return
	}

	participants, err := s.participants.ListByRoom(ctx, s.db, room.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	tracks, err := s.tracks.ListByRoom(ctx, s.db, room.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	cost, err := s.costSvc.ForRoom(ctx, room.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, roomDetail{
		roomView:     newRoomView(*room),
		Participants: participants,
		Tracks:       tracks,
		Cost:         cost,
	})
}

func (s *Server) ListAgents(c *gin.Context) {
	agents, err := s.agents.List(c.Request.Context(), s.db)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

func (s *Server) ListAgentSessions(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	agent, err := s.agents.FindByID(ctx, s.db, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if agent == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	sessions, err := s.agents.ListSessionsByAgent(ctx, s.db, agent.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"agent":    agent,
		"sessions": sessions,
	})
}

func (s *Server) CostSummary(c *gin.Context) {
	summary, err := s.costSvc.Summarize(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
