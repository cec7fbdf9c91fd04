package review

import (
	"encoding/binary"
	"hash/fnv"
	"time"

	"github.com/example/studyplan/internal/timezone"
	"github.com/example/studyplan/pkg/models"
)

const (
	// firstReviewHour and lastReviewHour bound the hour a spread item lands on
	firstReviewHour = 8
	lastReviewHour  = 20
	// dayScanFactor caps how far past the requested count the calendar is walked
	dayScanFactor = 3
)

// Assignment is one item's planned new due date
type Assignment struct {
	Item   models.ReviewableItem
	Day    time.Time
	NewDue time.Time
}

// Plan is a complete distribution computed before anything is written
type Plan struct {
	Assignments []Assignment
	Days        []time.Time
	PerDay      int
}

// AvailableDays walks forward from start (a local midnight) collecting days that
// fall on a study day and are not the current due day of any of items.
func AvailableDays(start time.Time, want int, prefs models.StudyPreferences, items []models.ReviewableItem, loc *time.Location) []time.Time {
	busy := make(map[string]bool, len(items))
	for _, it := range items {
		busy[timezone.DateKey(it.Due, loc)] = true
	}

	var days []time.Time
	for i := 0; i < want*dayScanFactor && len(days) < want; i++ {
		day := timezone.AddDays(start, i)
		if !prefs.IsStudyDay(day.Weekday()) {
			continue
		}
		if busy[timezone.DateKey(day, loc)] {
			continue
		}
		days = append(days, day)
	}
	return days
}

// PlanDistribution spreads items over up to days study days beginning at start.
// Highest-priority items take the earliest days; the last day absorbs any remainder.
func PlanDistribution(items []models.ReviewableItem, prefs models.StudyPreferences, start time.Time, days int) (*Plan, error) {
	loc := prefs.Location
	if loc == nil {
		loc = time.UTC
	}
	start = timezone.StartOfDay(start, loc)

	available := AvailableDays(start, days, prefs, items, loc)
	if len(available) == 0 {
		return nil, noEligibleDays("no eligible study days in the selected range")
	}

	sorted := SortByPriority(items)
	perDay := (len(sorted) + len(available) - 1) / len(available)
	plan := &Plan{
		Assignments: make([]Assignment, 0, len(sorted)),
		Days:        available,
		PerDay:      perDay,
	}
	for i, it := range sorted {
		idx := i / perDay
		if idx > len(available)-1 {
			idx = len(available) - 1
		}
		day := available[idx]
		plan.Assignments = append(plan.Assignments, Assignment{
			Item:   it,
			Day:    day,
			NewDue: timezone.AtHour(day, reviewHour(it.ID, day)),
		})
	}
	return plan, nil
}

// Loads counts assignments per day, skipping empty days
func (p *Plan) Loads() []models.DayLoad {
	counts := make(map[string]int, len(p.Days))
	for _, a := range p.Assignments {
		counts[a.Day.Format(timezone.DateLayout)]++
	}
	loads := make([]models.DayLoad, 0, len(p.Days))
	for _, day := range p.Days {
		key := day.Format(timezone.DateLayout)
		if counts[key] > 0 {
			loads = append(loads, models.DayLoad{Date: key, Count: counts[key]})
		}
	}
	return loads
}

// reviewHour picks a stable hour in 8..20 for an item on a day
func reviewHour(itemID int64, day time.Time) int {
	h := fnv.New32a()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(itemID))
	h.Write(buf[:])
	h.Write([]byte(day.Format(timezone.DateLayout)))
	return firstReviewHour + int(h.Sum32()%uint32(lastReviewHour-firstReviewHour+1))
}
