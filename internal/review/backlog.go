package review

import (
	"context"
	"fmt"
	"time"

	"github.com/example/studyplan/internal/timezone"
	"github.com/example/studyplan/pkg/models"
)

const (
	defaultDailyCapacity = 20
	maxSuggestedDays     = 30
)

// AnalyzeBacklog buckets the user's items around their local today and grades
// the overdue load against their daily capacity
func (s *Service) AnalyzeBacklog(ctx context.Context, userID int64) (*models.BacklogStatus, error) {
	prefs, _, err := s.preferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	items, err := s.items.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	status := Analyze(userID, items, prefs, s.now())
	s.log.Debug("backlog analyzed", "user_id", userID, "overdue", status.Overdue, "severity", status.Severity)
	return status, nil
}

// Analyze is the pure backlog classification
func Analyze(userID int64, items []models.ReviewableItem, prefs models.StudyPreferences, now time.Time) *models.BacklogStatus {
	loc := prefs.Location
	if loc == nil {
		loc = time.UTC
	}
	capacity := prefs.DailyCapacity
	if capacity <= 0 {
		capacity = defaultDailyCapacity
	}

	startOfToday := timezone.StartOfDay(now, loc)
	endOfToday := timezone.EndOfDay(now, loc)

	status := &models.BacklogStatus{
		UserID:        userID,
		Total:         len(items),
		OverdueByType: make(map[models.ContentType]int),
		DailyCapacity: capacity,
		Timezone:      loc.String(),
		GeneratedAt:   now,
	}
	for _, it := range items {
		switch {
		case it.Due.Before(startOfToday):
			status.Overdue++
			status.OverdueByType[it.ContentType]++
			if status.OldestOverdue == nil || it.Due.Before(*status.OldestOverdue) {
				due := it.Due
				status.OldestOverdue = &due
			}
		case it.Due.After(endOfToday):
			status.Upcoming++
		default:
			status.DueToday++
		}
	}

	status.Severity, status.RecoveryRecommended, status.SuggestedDays = Assess(status.Overdue, capacity)
	return status
}

// Assess grades an overdue count against a daily capacity. The result never
// weakens as overdue grows.
func Assess(overdue, capacity int) (models.Severity, bool, int) {
	if overdue <= 0 {
		return models.SeverityNone, false, 0
	}
	if capacity <= 0 {
		capacity = defaultDailyCapacity
	}

	ratio := float64(overdue) / float64(capacity)
	var severity models.Severity
	switch {
	case ratio <= 1:
		severity = models.SeverityLow
	case ratio <= 3:
		severity = models.SeverityModerate
	case ratio <= 7:
		severity = models.SeverityHigh
	default:
		severity = models.SeverityCritical
	}

	days := (overdue + capacity - 1) / capacity
	if days < 1 {
		days = 1
	}
	if days > maxSuggestedDays {
		days = maxSuggestedDays
	}
	return severity, severity >= models.SeverityModerate, days
}

// overdueItems returns items due before the start of the user's today
func overdueItems(items []models.ReviewableItem, loc *time.Location, now time.Time) []models.ReviewableItem {
	startOfToday := timezone.StartOfDay(now, loc)
	var overdue []models.ReviewableItem
	for _, it := range items {
		if it.Due.Before(startOfToday) {
			overdue = append(overdue, it)
		}
	}
	return overdue
}
