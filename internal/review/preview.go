package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/studyplan/internal/database"
	"github.com/example/studyplan/internal/spaced_repetition"
	"github.com/example/studyplan/pkg/models"
)

// thresholdTolerance is how close a recomputed due may be to the original
// before the outcome is flagged as having taken the engine's shortcut
const thresholdTolerance = time.Second

// Preview shows what each grade would do to the user's record for a piece of
// content. Nothing is persisted. Content the user has never studied is
// previewed as a fresh item.
func (s *Service) Preview(ctx context.Context, userID int64, contentType models.ContentType, contentID int64) (*models.Preview, error) {
	if !contentType.Valid() {
		return nil, validationf("unknown content type %q", contentType)
	}
	if _, ok := ctx.Deadline(); !ok && s.previewTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.previewTimeout)
		defer cancel()
	}

	var base models.ReviewableItem
	ephemeral := false
	item, err := s.items.GetByContent(ctx, userID, contentType, contentID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		base = models.NewReviewableItem(userID, contentType, contentID, s.now())
		ephemeral = true
	case err != nil:
		return nil, fmt.Errorf("failed to load item for preview: %w", err)
	default:
		base = *item
	}

	preview, err := PreviewItem(ctx, s.engine, base, userID)
	if err != nil {
		s.log.Warn("preview failed", "user_id", userID, "content_type", contentType, "content_id", contentID, "error", err)
		return nil, err
	}
	preview.ItemID = base.ID
	preview.Ephemeral = ephemeral
	return preview, nil
}

// PreviewItem asks the engine for every grade's outcome on item, always
// forcing full recomputation. Any engine failure fails the whole preview.
func PreviewItem(ctx context.Context, engine spaced_repetition.Engine, item models.ReviewableItem, userID int64) (*models.Preview, error) {
	preview := &models.Preview{}
	for _, g := range models.AllGrades {
		out, err := engine.Process(ctx, item, g, userID, true)
		if err != nil {
			return nil, engineFailure(fmt.Errorf("grade %s: %w", g, err))
		}
		preview.Set(models.PreviewOutcome{
			Grade:         g,
			ScheduledDays: out.ScheduledDays,
			DueDate:       out.Due.UTC().Format(time.RFC3339),
			Stability:     out.Stability,
			Difficulty:    out.Difficulty,
			UsedThreshold: absDuration(out.Due.Sub(item.Due)) <= thresholdTolerance,
		})
	}
	return preview, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
