package review

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/example/studyplan/internal/timezone"
	"github.com/example/studyplan/pkg/models"
)

const (
	maxDistributeDays = 365
	// specificAnchorHour is the local time every item moved to one date lands on
	specificAnchorHour = 12
)

// Reschedule moves the chosen items either all to one date or across several
// study days by priority. The request is validated in full before anything
// is written; writes are best effort and the result lists any failures.
func (s *Service) Reschedule(ctx context.Context, userID int64, req models.RescheduleRequest) (*models.RescheduleResult, error) {
	ids := uniqueIDs(req.ItemIDs)
	if len(ids) == 0 {
		return nil, validationf("item ids must not be empty")
	}

	prefs, loc, err := s.preferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	today := timezone.StartOfDay(s.now(), loc)

	var target time.Time
	switch req.Mode {
	case models.ModeSpecific:
		if req.SpecificDate == "" {
			return nil, validationf("specific date is required in %s mode", models.ModeSpecific)
		}
		if target, err = timezone.ParseDate(req.SpecificDate, loc); err != nil {
			return nil, validationf("%v", err)
		}
		if target.Equal(today) {
			return nil, validationf("cannot reschedule to today (%s)", req.SpecificDate)
		}
	case models.ModeDistribute:
		if req.DistributeDays == 0 || req.DistributeStartDate == "" {
			return nil, validationf("distribute days and start date are required in %s mode", models.ModeDistribute)
		}
		if req.DistributeDays < 1 || req.DistributeDays > maxDistributeDays {
			return nil, validationf("distribute days must be between 1 and %d, got %d", maxDistributeDays, req.DistributeDays)
		}
		if target, err = timezone.ParseDate(req.DistributeStartDate, loc); err != nil {
			return nil, validationf("%v", err)
		}
		if !target.After(today) {
			return nil, validationf("start date %s must be after today", req.DistributeStartDate)
		}
	default:
		return nil, validationf("unknown reschedule mode %q", req.Mode)
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	items, err := s.items.ListByIDs(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	if missing := missingIDs(ids, items); len(missing) > 0 {
		return nil, notFound("items not found", missing)
	}

	result := &models.RescheduleResult{BatchID: uuid.NewString()}
	var updates []dueUpdate
	if req.Mode == models.ModeSpecific {
		var clashing []int64
		for _, it := range items {
			if timezone.SameDay(it.Due, target, loc) {
				clashing = append(clashing, it.ID)
			}
		}
		if len(clashing) > 0 {
			return nil, &Error{
				Kind:    KindValidation,
				Message: fmt.Sprintf("items are already due on %s", req.SpecificDate),
				ItemIDs: clashing,
			}
		}
		due := timezone.AtHour(target, specificAnchorHour)
		for _, it := range items {
			updates = append(updates, dueUpdate{item: it, due: due})
		}
		result.Days = []models.DayLoad{{Date: req.SpecificDate, Count: len(items)}}
	} else {
		plan, err := PlanDistribution(items, prefs, target, req.DistributeDays)
		if err != nil {
			return nil, err
		}
		updates = planUpdates(plan)
		result.Days = plan.Loads()
	}

	result.Details, result.Failed = s.applyDueUpdates(ctx, userID, updates)
	result.RescheduledCount = len(result.Details)

	log := s.log.With("user_id", userID, "batch_id", result.BatchID, "mode", req.Mode)
	if len(result.Failed) > 0 {
		log.Warn("reschedule partially failed", "rescheduled", result.RescheduledCount, "failed_ids", failedIDs(result.Failed))
	} else {
		log.Info("reschedule applied", "rescheduled", result.RescheduledCount)
	}
	return result, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func missingIDs(want []int64, found []models.ReviewableItem) []int64 {
	have := make(map[int64]bool, len(found))
	for _, it := range found {
		have[it.ID] = true
	}
	var missing []int64
	for _, id := range want {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}
