package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/studyplan/pkg/models"
)

// ReviewableItemRepository handles database operations for scheduling records
type ReviewableItemRepository struct {
	db *sqlx.DB
}

// NewReviewableItemRepository creates a new repository instance
func NewReviewableItemRepository(db *sqlx.DB) *ReviewableItemRepository {
	return &ReviewableItemRepository{db: db}
}

// Create inserts a new item and fills in its ID
func (r *ReviewableItemRepository) Create(ctx context.Context, item *models.ReviewableItem) error {
	now := time.Now().UTC()
	query := r.db.Rebind(`
		INSERT INTO reviewable_items (
			user_id, content_id, content_type, due, stability, difficulty,
			elapsed_days, scheduled_days, reps, lapses, state, last_review,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	var lastReview *time.Time
	if item.LastReview != nil {
		lr := item.LastReview.UTC()
		lastReview = &lr
	}

	err := r.db.QueryRowxContext(ctx, query,
		item.UserID,
		item.ContentID,
		item.ContentType,
		item.Due.UTC(),
		item.Stability,
		item.Difficulty,
		item.ElapsedDays,
		item.ScheduledDays,
		item.Reps,
		item.Lapses,
		item.State,
		lastReview,
		now,
		now,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to create reviewable item: %w", err)
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	return nil
}

// GetByID returns an item owned by userID
func (r *ReviewableItemRepository) GetByID(ctx context.Context, userID, id int64) (*models.ReviewableItem, error) {
	var item models.ReviewableItem
	query := r.db.Rebind(`SELECT ` + itemColumns + ` FROM reviewable_items WHERE id = ? AND user_id = ?`)
	err := r.db.GetContext(ctx, &item, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reviewable item %d: %w", id, err)
	}
	return &item, nil
}

// GetByContent returns the user's record for a piece of content
func (r *ReviewableItemRepository) GetByContent(ctx context.Context, userID int64, contentType models.ContentType, contentID int64) (*models.ReviewableItem, error) {
	var item models.ReviewableItem
	query := r.db.Rebind(`SELECT ` + itemColumns + `
		FROM reviewable_items
		WHERE user_id = ? AND content_type = ? AND content_id = ?`)
	err := r.db.GetContext(ctx, &item, query, userID, contentType, contentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reviewable item by content: %w", err)
	}
	return &item, nil
}

// ListByUser returns all of a user's items ordered by due date
func (r *ReviewableItemRepository) ListByUser(ctx context.Context, userID int64) ([]models.ReviewableItem, error) {
	var items []models.ReviewableItem
	query := r.db.Rebind(`SELECT ` + itemColumns + `
		FROM reviewable_items
		WHERE user_id = ?
		ORDER BY due ASC, id ASC`)
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list reviewable items: %w", err)
	}
	return items, nil
}

// ListByIDs returns the subset of ids that exist and belong to userID
func (r *ReviewableItemRepository) ListByIDs(ctx context.Context, userID int64, ids []int64) ([]models.ReviewableItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+itemColumns+`
		FROM reviewable_items
		WHERE user_id = ? AND id IN (?)
		ORDER BY id ASC`, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build item query: %w", err)
	}

	var items []models.ReviewableItem
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list reviewable items by id: %w", err)
	}
	return items, nil
}

// UpdateDue rewrites only the due date of an item
func (r *ReviewableItemRepository) UpdateDue(ctx context.Context, userID, id int64, due time.Time) error {
	query := r.db.Rebind(`
		UPDATE reviewable_items SET
			due = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ?`)
	result, err := r.db.ExecContext(ctx, query, due.UTC(), time.Now().UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to update due date of item %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByUser returns how many items a user has
func (r *ReviewableItemRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM reviewable_items WHERE user_id = ?`)
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count reviewable items: %w", err)
	}
	return count, nil
}
