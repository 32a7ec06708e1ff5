package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	agentdomain "github.com/smallbiznis/roomledger/internal/agent/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() agentdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, a *agentdomain.Agent) error {
	return db.WithContext(ctx).Create(a).Error
}

func (r *repo) FindByAgentID(ctx context.Context, db *gorm.DB, agentID string) (*agentdomain.Agent, error) {
	var a agentdomain.Agent
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM agents WHERE agent_id = ?`, agentID,
	).Scan(&a).Error
	if err != nil {
		return nil, err
	}
	if a.ID == 0 {
		return nil, nil
	}
	return &a, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*agentdomain.Agent, error) {
	var a agentdomain.Agent
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM agents WHERE id = ?`, id,
	).Scan(&a).Error
	if err != nil {
		return nil, err
	}
	if a.ID == 0 {
		return nil, nil
	}
	return &a, nil
}

func (r *repo) RecordSession(ctx context.Context, db *gorm.DB, id snowflake.ID, seenAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE agents
		 SET total_sessions = total_sessions + 1, last_seen_at = ?, updated_at = ?
		 WHERE id = ?`,
		seenAt,
		seenAt,
		id,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]agentdomain.Agent, error) {
	var agents []agentdomain.Agent
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM agents ORDER BY last_seen_at DESC, id DESC`,
	).Scan(&agents).Error
	if err != nil {
		return nil, err
	}
	return agents, nil
}

func (r *repo) InsertSession(ctx context.Context, db *gorm.DB, session *agentdomain.Session) error {
	return db.WithContext(ctx).Create(session).Error
}

func (r *repo) FindActiveSessionByParticipant(ctx context.Context, db *gorm.DB, participantID snowflake.ID) (*agentdomain.Session, error) {
	var session agentdomain.Session
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM agent_sessions WHERE participant_id = ? AND status = ?`,
		participantID,
		agentdomain.SessionActive,
	).Scan(&session).Error
	if err != nil {
		return nil, err
	}
	if session.ID == 0 {
		return nil, nil
	}
	return &session, nil
}

func (r *repo) CloseSession(ctx context.Context, db *gorm.DB, id snowflake.ID, leftAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE agent_sessions
		 SET status = ?, left_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		agentdomain.SessionCompleted,
		leftAt,
		leftAt,
		id,
		agentdomain.SessionActive,
	).Error
}

func (r *repo) ListSessionsByAgent(ctx context.Context, db *gorm.DB, agentID snowflake.ID) ([]agentdomain.Session, error) {
	var sessions []agentdomain.Session
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM agent_sessions WHERE agent_id = ? ORDER BY joined_at DESC, id DESC`,
		agentID,
	).Scan(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
