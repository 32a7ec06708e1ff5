package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, agent *Agent) error
	FindByAgentID(ctx context.Context, db *gorm.DB, agentID string) (*Agent, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Agent, error)
	RecordSession(ctx context.Context, db *gorm.DB, id snowflake.ID, seenAt time.Time) error
	List(ctx context.Context, db *gorm.DB) ([]Agent, error)

	InsertSession(ctx context.Context, db *gorm.DB, session *Session) error
	FindActiveSessionByParticipant(ctx context.Context, db *gorm.DB, participantID snowflake.ID) (*Session, error)
	CloseSession(ctx context.Context, db *gorm.DB, id snowflake.ID, leftAt time.Time) error
	ListSessionsByAgent(ctx context.Context, db *gorm.DB, agentID snowflake.ID) ([]Session, error)
}
