package review

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studyplan/internal/timezone"
	"github.com/example/studyplan/pkg/models"
)

func mwfPrefs(loc *time.Location) models.StudyPreferences {
	return models.StudyPreferences{
		UserID:        testUser,
		StudyDays:     []time.Weekday{time.Monday, time.Wednesday, time.Friday},
		Location:      loc,
		DailyCapacity: 20,
	}
}

func TestAvailableDays(t *testing.T) {
	start := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC) // Tuesday
	items := []models.ReviewableItem{item(1, models.StateReview, time.Date(2024, 6, 14, 15, 0, 0, 0, time.UTC))}

	days := AvailableDays(start, 3, mwfPrefs(time.UTC), items, time.UTC)

	var keys []string
	for _, d := range days {
		keys = append(keys, d.Format(timezone.DateLayout))
	}
	// Friday the 14th is skipped because the item is already due then
	assert.Equal(t, []string{"2024-06-12", "2024-06-17", "2024-06-19"}, keys)
}

func TestAvailableDays_ScanLimit(t *testing.T) {
	start := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC) // Tuesday
	prefs := mwfPrefs(time.UTC)
	prefs.StudyDays = []time.Weekday{time.Sunday}

	// 2 days wanted, 6 scanned: Tue..Sun reaches one Sunday
	days := AvailableDays(start, 2, prefs, nil, time.UTC)
	require.Len(t, days, 1)
	assert.Equal(t, time.Sunday, days[0].Weekday())

	assert.Empty(t, AvailableDays(start, 1, prefs, nil, time.UTC))
}

func TestPlanDistribution_NoEligibleDays(t *testing.T) {
	start := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)
	prefs := mwfPrefs(time.UTC)
	prefs.StudyDays = nil

	_, err := PlanDistribution([]models.ReviewableItem{item(1, models.StateNew, start)}, prefs, start, 5)
	require.Error(t, err)
	assert.True(t, IsNoEligibleDays(err))
}

func TestPlanDistribution_CapacityAndConformance(t *testing.T) {
	loc := mustLoad("America/New_York")
	prefs := mwfPrefs(loc)
	start := time.Date(2024, 3, 5, 0, 0, 0, 0, loc) // Tuesday, DST begins on the 10th
	oldDue := time.Date(2024, 3, 6, 9, 0, 0, 0, loc)

	states := []models.ItemState{models.StateNew, models.StateLearning, models.StateReview, models.StateRelearning}

	for n := 1; n <= 23; n++ {
		var items []models.ReviewableItem
		for i := 0; i < n; i++ {
			items = append(items, item(int64(i+1), states[i%4], oldDue))
		}

		plan, err := PlanDistribution(items, prefs, start, 4)
		require.NoError(t, err)
		require.Len(t, plan.Assignments, n)

		perDay := make(map[string]int)
		for _, a := range plan.Assignments {
			local := a.NewDue.In(loc)
			key := local.Format(timezone.DateLayout)
			perDay[key]++
			assert.True(t, prefs.IsStudyDay(local.Weekday()), "n=%d: %s not a study day", n, key)
			assert.NotEqual(t, "2024-03-06", key, "n=%d: moved onto its current due day", n)
			assert.GreaterOrEqual(t, local.Hour(), 8)
			assert.LessOrEqual(t, local.Hour(), 20)
		}
		limit := (n + len(plan.Days) - 1) / len(plan.Days)
		for key, c := range perDay {
			assert.LessOrEqual(t, c, limit, "n=%d day %s", n, key)
		}
	}
}

func TestPlanDistribution_PriorityTakesEarliestDays(t *testing.T) {
	start := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	items := []models.ReviewableItem{
		item(1, models.StateReview, due),
		item(2, models.StateRelearning, due),
		item(3, models.StateNew, due),
		item(4, models.StateLearning, due),
	}

	plan, err := PlanDistribution(items, mwfPrefs(time.UTC), start, 4)
	require.NoError(t, err)

	for i := 1; i < len(plan.Assignments); i++ {
		prev, cur := plan.Assignments[i-1], plan.Assignments[i]
		assert.GreaterOrEqual(t, PriorityScore(prev.Item), PriorityScore(cur.Item))
		assert.False(t, cur.Day.Before(prev.Day))
	}
	assert.Equal(t, int64(2), plan.Assignments[0].Item.ID)
	assert.Equal(t, "2024-06-12", plan.Assignments[0].Day.Format(timezone.DateLayout))
}

func TestPlanDistribution_Deterministic(t *testing.T) {
	start := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	items := []models.ReviewableItem{item(1, models.StateReview, due), item(2, models.StateReview, due)}

	a, err := PlanDistribution(items, mwfPrefs(time.UTC), start, 2)
	require.NoError(t, err)
	b, err := PlanDistribution(items, mwfPrefs(time.UTC), start, 2)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPlan_Loads(t *testing.T) {
	start := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	var items []models.ReviewableItem
	for i := int64(1); i <= 4; i++ {
		items = append(items, item(i, models.StateReview, due))
	}

	plan, err := PlanDistribution(items, mwfPrefs(time.UTC), start, 3)
	require.NoError(t, err)
	// ceil(4/3) = 2 per day leaves the third day empty
	assert.Equal(t, []models.DayLoad{
		{Date: "2024-06-12", Count: 2},
		{Date: "2024-06-14", Count: 2},
	}, plan.Loads())
}
