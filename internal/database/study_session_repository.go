package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/studyplan/pkg/models"
)

// StudySessionRepository handles database operations for study history
type StudySessionRepository struct {
	db *sqlx.DB
}

// NewStudySessionRepository creates a new repository instance
func NewStudySessionRepository(db *sqlx.DB) *StudySessionRepository {
	return &StudySessionRepository{db: db}
}

// Create inserts a completed session
func (r *StudySessionRepository) Create(ctx context.Context, session *models.StudySession) error {
	now := time.Now().UTC()
	query := r.db.Rebind(`
		INSERT INTO study_sessions (user_id, started_at, duration, items_studied, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`)
	err := r.db.QueryRowxContext(ctx, query,
		session.UserID,
		session.StartedAt.UTC(),
		session.Duration,
		session.ItemsStudied,
		now,
	).Scan(&session.ID)
	if err != nil {
		return fmt.Errorf("failed to create study session: %w", err)
	}
	session.CreatedAt = now
	return nil
}

// ListByUserBetween returns sessions started in [from, to)
func (r *StudySessionRepository) ListByUserBetween(ctx context.Context, userID int64, from, to time.Time) ([]models.StudySession, error) {
	query := r.db.Rebind(`
		SELECT id, user_id, started_at, duration, items_studied, created_at
		FROM study_sessions
		WHERE user_id = ? AND started_at >= ? AND started_at < ?
		ORDER BY started_at ASC`)

	var sessions []models.StudySession
	if err := r.db.SelectContext(ctx, &sessions, query, userID, from.UTC(), to.UTC()); err != nil {
		return nil, fmt.Errorf("failed to list study sessions: %w", err)
	}
	return sessions, nil
}
