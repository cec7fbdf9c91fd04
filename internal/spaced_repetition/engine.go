package spaced_repetition

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/example/studyplan/pkg/models"
)

// DefaultDuplicateWindow is how close two reviews of the same item must be
// for an engine to treat the second one as a repeat and skip recomputation.
const DefaultDuplicateWindow = 60 * time.Second

// Engine turns a review grade into an updated scheduling record.
// Implementations never mutate their input.
type Engine interface {
	// Process returns item as it would look after being graded. With
	// forceRecompute the near-duplicate shortcut is never taken.
	Process(ctx context.Context, item models.ReviewableItem, grade models.Grade, userID int64, forceRecompute bool) (models.ReviewableItem, error)
}

// New builds the engine named in configuration ("fsrs" or "sm2")
func New(name string, now func() time.Time) (Engine, error) {
	switch name {
	case "", "fsrs":
		return NewFSRSEngine(now), nil
	case "sm2":
		return NewSM2Engine(now), nil
	}
	return nil, fmt.Errorf("unknown scheduling engine %q", name)
}

func checkInput(ctx context.Context, item models.ReviewableItem, grade models.Grade, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !grade.Valid() {
		return fmt.Errorf("invalid grade %d", int(grade))
	}
	if item.UserID != 0 && item.UserID != userID {
		return fmt.Errorf("item %d does not belong to user %d", item.ID, userID)
	}
	return nil
}

// isNearDuplicate reports whether a review at now repeats the last one
func isNearDuplicate(item models.ReviewableItem, now time.Time, window time.Duration) bool {
	if item.LastReview == nil || window <= 0 {
		return false
	}
	since := now.Sub(*item.LastReview)
	return since >= 0 && since < window
}

// lastReviewed returns when item was last reviewed. Records that left NEW
// without a review time (imports) are assumed to have been reviewed one
// interval before their due date, never later than now.
func lastReviewed(item models.ReviewableItem, now time.Time) (time.Time, bool) {
	if item.LastReview != nil {
		return *item.LastReview, true
	}
	if item.State == models.StateNew || item.State == "" {
		return time.Time{}, false
	}
	interval := item.ScheduledDays
	if interval <= 0 {
		interval = int(math.Round(item.Stability))
	}
	ref := item.Due.AddDate(0, 0, -interval)
	if ref.After(now) {
		ref = now
	}
	return ref, true
}

func elapsedDays(item models.ReviewableItem, now time.Time) int {
	last, ok := lastReviewed(item, now)
	if !ok {
		return 0
	}
	days := int(now.Sub(last).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func cloneItem(item models.ReviewableItem) models.ReviewableItem {
	out := item
	if item.LastReview != nil {
		lr := *item.LastReview
		out.LastReview = &lr
	}
	return out
}
