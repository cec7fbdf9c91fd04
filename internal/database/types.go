package database

import "errors"

// ErrNotFound is returned when a row does not exist or belongs to another user
var ErrNotFound = errors.New("not found")

// itemColumns is the column list matching models.ReviewableItem db tags
const itemColumns = `id, user_id, content_id, content_type, due, stability, difficulty,
	elapsed_days, scheduled_days, reps, lapses, state, last_review, created_at, updated_at`
