package review

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/studyplan/internal/database"
	"github.com/example/studyplan/pkg/models"
)

type dueUpdate struct {
	item models.ReviewableItem
	due  time.Time
}

// applyDueUpdates writes every update concurrently and reports each outcome.
// Writes run on a context detached from the caller so an abandoned request
// still finishes the batch it started.
func (s *Service) applyDueUpdates(ctx context.Context, userID int64, updates []dueUpdate) ([]models.ItemChange, []models.ItemFailure) {
	ctx = context.WithoutCancel(ctx)

	results := make([]error, len(updates))
	var g errgroup.Group
	g.SetLimit(s.batchConcurrency)
	for i, u := range updates {
		i, u := i, u
		g.Go(func() error {
			results[i] = s.items.UpdateDue(ctx, userID, u.item.ID, u.due)
			return nil
		})
	}
	_ = g.Wait()

	changes := make([]models.ItemChange, 0, len(updates))
	var failed []models.ItemFailure
	for i, u := range updates {
		if err := results[i]; err != nil {
			failed = append(failed, models.ItemFailure{ItemID: u.item.ID, Reason: failureReason(err)})
			continue
		}
		changes = append(changes, models.ItemChange{ItemID: u.item.ID, OldDue: u.item.Due, NewDue: u.due})
	}
	return changes, failed
}

func failureReason(err error) string {
	if errors.Is(err, database.ErrNotFound) {
		return "item no longer exists"
	}
	return err.Error()
}

func planUpdates(plan *Plan) []dueUpdate {
	updates := make([]dueUpdate, 0, len(plan.Assignments))
	for _, a := range plan.Assignments {
		updates = append(updates, dueUpdate{item: a.Item, due: a.NewDue})
	}
	return updates
}

func failedIDs(failed []models.ItemFailure) []int64 {
	ids := make([]int64, 0, len(failed))
	for _, f := range failed {
		ids = append(ids, f.ItemID)
	}
	return ids
}
