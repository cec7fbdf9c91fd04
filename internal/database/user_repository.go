package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/studyplan/internal/timezone"
	"github.com/example/studyplan/pkg/models"
)

// PreferenceDefaults are applied to users without a stored row
type PreferenceDefaults struct {
	Timezone      string
	DailyCapacity int
}

// UserRepository handles database operations for users and their study preferences
type UserRepository struct {
	db       *sqlx.DB
	defaults PreferenceDefaults
}

// NewUserRepository creates a new repository instance
func NewUserRepository(db *sqlx.DB, defaults PreferenceDefaults) *UserRepository {
	if defaults.DailyCapacity <= 0 {
		defaults.DailyCapacity = 20
	}
	if defaults.Timezone == "" {
		defaults.Timezone = "UTC"
	}
	return &UserRepository{db: db, defaults: defaults}
}

const userColumns = `id, username, first_name, timezone, study_days, daily_capacity,
	auto_recovery, is_active, created_at, updated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row scanner) (*models.User, error) {
	var user models.User
	var studyDaysJSON string

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.FirstName,
		&user.Timezone,
		&studyDaysJSON,
		&user.DailyCapacity,
		&user.AutoRecovery,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Parse JSON array of weekdays
	if studyDaysJSON != "" {
		if err := json.Unmarshal([]byte(studyDaysJSON), &user.StudyDays); err != nil {
			return nil, fmt.Errorf("failed to parse study days: %w", err)
		}
	}
	return &user, nil
}

// GetByID returns a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	user, err := scanUser(r.db.QueryRowxContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

// ListActive returns users that should be included in periodic checks
func (r *UserRepository) ListActive(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT `+userColumns+` FROM users WHERE is_active = true ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// Upsert inserts a user or updates the existing row
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	studyDays, err := encodeStudyDays(user.StudyDays)
	if err != nil {
		return err
	}
	if user.Timezone == "" {
		user.Timezone = r.defaults.Timezone
	}
	if user.DailyCapacity <= 0 {
		user.DailyCapacity = r.defaults.DailyCapacity
	}

	now := time.Now().UTC()
	query := r.db.Rebind(`
		INSERT INTO users (
			id, username, first_name, timezone, study_days, daily_capacity,
			auto_recovery, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			timezone = excluded.timezone,
			study_days = excluded.study_days,
			daily_capacity = excluded.daily_capacity,
			auto_recovery = excluded.auto_recovery,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`)

	_, err = r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.FirstName,
		user.Timezone,
		studyDays,
		user.DailyCapacity,
		user.AutoRecovery,
		user.IsActive,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// UpdateStudyDays replaces the set of weekdays a user studies on
func (r *UserRepository) UpdateStudyDays(ctx context.Context, userID int64, days []int) error {
	encoded, err := encodeStudyDays(days)
	if err != nil {
		return err
	}
	return r.updateColumn(ctx, userID, "study_days", encoded)
}

// UpdateTimezone stores the user's IANA timezone
func (r *UserRepository) UpdateTimezone(ctx context.Context, userID int64, tz string) error {
	if !timezone.IsValidTimezone(tz) {
		return fmt.Errorf("invalid timezone %q", tz)
	}
	return r.updateColumn(ctx, userID, "timezone", tz)
}

// UpdateDailyCapacity stores how many reviews the user typically completes per day
func (r *UserRepository) UpdateDailyCapacity(ctx context.Context, userID int64, capacity int) error {
	if capacity < 1 {
		return fmt.Errorf("daily capacity must be positive, got %d", capacity)
	}
	return r.updateColumn(ctx, userID, "daily_capacity", capacity)
}

// SetAutoRecovery toggles automatic backlog recovery
func (r *UserRepository) SetAutoRecovery(ctx context.Context, userID int64, enabled bool) error {
	return r.updateColumn(ctx, userID, "auto_recovery", enabled)
}

func (r *UserRepository) updateColumn(ctx context.Context, userID int64, column string, value interface{}) error {
	// column is always one of the fixed names above
	query := r.db.Rebind(fmt.Sprintf(`UPDATE users SET %s = ?, updated_at = ? WHERE id = ?`, column))
	result, err := r.db.ExecContext(ctx, query, value, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
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

// GetPreferences resolves a user's study preferences, falling back to defaults
// when the user has never stored any.
func (r *UserRepository) GetPreferences(ctx context.Context, userID int64) (models.StudyPreferences, error) {
	user, err := r.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		loc, _ := timezone.ParseTimezone(r.defaults.Timezone)
		return models.StudyPreferences{
			UserID:        userID,
			StudyDays:     append([]time.Weekday(nil), models.AllWeekdays...),
			Location:      loc,
			DailyCapacity: r.defaults.DailyCapacity,
		}, nil
	}
	if err != nil {
		return models.StudyPreferences{}, err
	}

	loc, err := timezone.ParseTimezone(user.Timezone)
	if err != nil {
		return models.StudyPreferences{}, fmt.Errorf("user %d: %w", userID, err)
	}

	days := make([]time.Weekday, 0, len(user.StudyDays))
	for _, d := range user.StudyDays {
		days = append(days, time.Weekday(d))
	}

	capacity := user.DailyCapacity
	if capacity <= 0 {
		capacity = r.defaults.DailyCapacity
	}

	return models.StudyPreferences{
		UserID:        userID,
		StudyDays:     days,
		Location:      loc,
		DailyCapacity: capacity,
		AutoRecovery:  user.AutoRecovery,
	}, nil
}

// encodeStudyDays validates, sorts and de-duplicates weekday indexes
func encodeStudyDays(days []int) (string, error) {
	if days == nil {
		days = []int{0, 1, 2, 3, 4, 5, 6}
	}
	seen := make(map[int]bool, len(days))
	clean := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return "", fmt.Errorf("study day %d out of range 0..6", d)
		}
		if !seen[d] {
			seen[d] = true
			clean = append(clean, d)
		}
	}
	sort.Ints(clean)

	b, err := json.Marshal(clean)
	if err != nil {
		return "", fmt.Errorf("failed to marshal study days: %w", err)
	}
	return string(b), nil
}
