package repository

import (
	"context"
	"errors"
	"fmt"

	"event-marketplace/internal/data/entity"
	"event-marketplace/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// SessionRepository resolves bearer tokens issued by the auth collaborator.
type SessionRepository interface {
	FindValidSession(ctx context.Context, token uuid.UUID) (*entity.Session, error)
}

type sessionRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSessionRepository(db database.PgxIface, log *zap.Logger) SessionRepository {
	return &sessionRepository{
		db:  db,
		log: log.With(zap.String("repository", "session")),
	}
}

func (r *sessionRepository) FindValidSession(ctx context.Context, token uuid.UUID) (*entity.Session, error) {
	query := `
		SELECT id, user_id, token, user_agent, ip_address,
		       expires_at, revoked_at, created_at
		FROM sessions
		WHERE token = $1
		  AND revoked_at IS NULL
		  AND expires_at > NOW()
	`

	var session entity.Session
	err := r.db.QueryRow(ctx, query, token).Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.UserAgent,
		&session.IPAddress,
		&session.ExpiresAt,
		&session.RevokedAt,
		&session.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find valid session", zap.Error(err))
		return nil, fmt.Errorf("find session: %w", err)
	}

	return &session, nil
}
