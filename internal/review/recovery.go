package review

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/example/studyplan/internal/timezone"
	"github.com/example/studyplan/pkg/models"
)

const maxRecoveryDays = 90

// ActivateRecovery spreads whatever is overdue right now across the next
// daysToSpread study days, starting tomorrow. Running it again only touches
// items that are still overdue.
func (s *Service) ActivateRecovery(ctx context.Context, userID int64, daysToSpread int) (*models.RecoveryResult, error) {
	if daysToSpread < 1 || daysToSpread > maxRecoveryDays {
		return nil, validationf("days to spread must be between 1 and %d, got %d", maxRecoveryDays, daysToSpread)
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	prefs, loc, err := s.preferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	items, err := s.items.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	result := &models.RecoveryResult{BatchID: uuid.NewString(), Days: []models.DayLoad{}}
	now := s.now()
	overdue := overdueItems(items, loc, now)
	if len(overdue) == 0 {
		s.log.Info("recovery found nothing overdue", "user_id", userID, "batch_id", result.BatchID)
		return result, nil
	}

	tomorrow := timezone.AddDays(timezone.StartOfDay(now, loc), 1)
	plan, err := PlanDistribution(overdue, prefs, tomorrow, daysToSpread)
	if err != nil {
		return nil, err
	}

	changes, failed := s.applyDueUpdates(ctx, userID, planUpdates(plan))
	result.RedistributedCount = len(changes)
	result.Days = plan.Loads()
	result.Failed = failed

	s.log.Info("recovery applied",
		"user_id", userID,
		"batch_id", result.BatchID,
		"redistributed", result.RedistributedCount,
		"days", len(result.Days),
		"failed_ids", failedIDs(failed),
	)
	return result, nil
}
