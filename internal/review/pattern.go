package review

import (
	"context"
	"fmt"
	"time"

	"github.com/example/studyplan/internal/timezone"
	"github.com/example/studyplan/pkg/models"
)

// PatternWindowDays is the trailing window compared against study days
const PatternWindowDays = 28

// CheckStudyPattern compares the days the user actually studied over the
// trailing window with the study days they declared
func (s *Service) CheckStudyPattern(ctx context.Context, userID int64) (*models.StudyPattern, error) {
	prefs, loc, err := s.preferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	now := s.now()
	today := timezone.StartOfDay(now, loc)
	start := timezone.AddDays(today, -(PatternWindowDays - 1))
	// sessions are keyed by end time, so one started the evening before still counts
	sessions, err := s.sessions.ListByUserBetween(ctx, userID, timezone.AddDays(start, -1), timezone.AddDays(today, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to list study sessions: %w", err)
	}
	return SummarizePattern(userID, sessions, prefs, now, PatternWindowDays), nil
}

// SummarizePattern is the pure adherence computation over the days-long window
// ending on now's local day. Today only counts once something was studied.
func SummarizePattern(userID int64, sessions []models.StudySession, prefs models.StudyPreferences, now time.Time, days int) *models.StudyPattern {
	loc := prefs.Location
	if loc == nil {
		loc = time.UTC
	}
	today := timezone.StartOfDay(now, loc)
	start := timezone.AddDays(today, -(days - 1))

	pattern := &models.StudyPattern{
		UserID:            userID,
		WindowStart:       start.Format(timezone.DateLayout),
		WindowEnd:         today.Format(timezone.DateLayout),
		DeclaredDays:      prefs.StudyDays,
		MissedDays:        []string{},
		SessionsByWeekday: make(map[time.Weekday]int),
	}

	studied := make(map[string]bool)
	for _, sess := range sessions {
		local := sess.EndedAt().In(loc)
		if local.Before(start) || !local.Before(timezone.AddDays(today, 1)) {
			continue
		}
		studied[local.Format(timezone.DateLayout)] = true
		pattern.SessionsByWeekday[local.Weekday()]++
	}

	occurrences := make(map[time.Weekday]int)
	studiedOn := make(map[time.Weekday]int)
	for i := 0; i < days; i++ {
		day := timezone.AddDays(start, i)
		key := day.Format(timezone.DateLayout)
		wd := day.Weekday()
		isToday := i == days-1

		if !isToday || studied[key] {
			occurrences[wd]++
		}
		if studied[key] {
			studiedOn[wd]++
		}

		switch {
		case prefs.IsStudyDay(wd) && studied[key]:
			pattern.ExpectedDays++
			pattern.StudiedOnPlan++
		case prefs.IsStudyDay(wd) && !isToday:
			pattern.ExpectedDays++
			pattern.MissedDays = append(pattern.MissedDays, key)
		case studied[key]:
			pattern.StudiedOffPlan++
		}
	}

	if pattern.ExpectedDays > 0 {
		pattern.Adherence = float64(pattern.StudiedOnPlan) / float64(pattern.ExpectedDays)
	}

	for _, wd := range models.AllWeekdays {
		if occurrences[wd] > 0 && studiedOn[wd]*2 >= occurrences[wd] && studiedOn[wd] > 0 {
			pattern.SuggestedStudyDays = append(pattern.SuggestedStudyDays, wd)
		}
	}
	return pattern
}
