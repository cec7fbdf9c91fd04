package spaced_repetition

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studyplan/pkg/models"
)

var fixedNow = time.Date(2024, 6, 11, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func reviewItem() models.ReviewableItem {
	last := fixedNow.AddDate(0, 0, -20)
	return models.ReviewableItem{
		ID:            1,
		UserID:        42,
		ContentID:     9,
		ContentType:   models.ContentFlashcard,
		Due:           fixedNow,
		Stability:     20,
		Difficulty:    5,
		ElapsedDays:   20,
		ScheduledDays: 20,
		Reps:          10,
		State:         models.StateReview,
		LastReview:    &last,
	}
}

func engines() map[string]Engine {
	return map[string]Engine{
		"fsrs": NewFSRSEngine(clock),
		"sm2":  NewSM2Engine(clock),
	}
}

func TestNew(t *testing.T) {
	e, err := New("fsrs", clock)
	require.NoError(t, err)
	assert.IsType(t, &FSRSEngine{}, e)

	e, err = New("sm2", nil)
	require.NoError(t, err)
	assert.IsType(t, &SM2Engine{}, e)

	_, err = New("leitner", clock)
	assert.Error(t, err)
}

func TestEngines_DoNotMutateInput(t *testing.T) {
	for name, engine := range engines() {
		t.Run(name, func(t *testing.T) {
			item := reviewItem()
			before := item
			beforeLast := *item.LastReview

			_, err := engine.Process(context.Background(), item, models.GradeAgain, 42, true)
			require.NoError(t, err)

			assert.Equal(t, before.Due, item.Due)
			assert.Equal(t, before.Reps, item.Reps)
			assert.Equal(t, before.State, item.State)
			assert.Equal(t, beforeLast, *item.LastReview)
		})
	}
}

func TestEngines_Deterministic(t *testing.T) {
	for name, engine := range engines() {
		t.Run(name, func(t *testing.T) {
			a, err := engine.Process(context.Background(), reviewItem(), models.GradeGood, 42, true)
			require.NoError(t, err)
			b, err := engine.Process(context.Background(), reviewItem(), models.GradeGood, 42, true)
			require.NoError(t, err)
			assert.Equal(t, a, b)
		})
	}
}

func TestEngines_GradesOrderIntervals(t *testing.T) {
	for name, engine := range engines() {
		t.Run(name, func(t *testing.T) {
			var prev models.ReviewableItem
			for i, g := range models.AllGrades {
				out, err := engine.Process(context.Background(), reviewItem(), g, 42, true)
				require.NoError(t, err)
				assert.Equal(t, fixedNow, *out.LastReview)
				if i > 0 {
					assert.False(t, out.Due.Before(prev.Due), "%s due before %s", g, models.AllGrades[i-1])
				}
				prev = out
			}
		})
	}
}

func TestEngines_AgainOnReviewLapses(t *testing.T) {
	for name, engine := range engines() {
		t.Run(name, func(t *testing.T) {
			out, err := engine.Process(context.Background(), reviewItem(), models.GradeAgain, 42, true)
			require.NoError(t, err)
			assert.Equal(t, models.StateRelearning, out.State)
			assert.Equal(t, 1, out.Lapses)
			assert.Equal(t, 11, out.Reps)
		})
	}
}

func TestEngines_NewItemLeavesNewState(t *testing.T) {
	for name, engine := range engines() {
		t.Run(name, func(t *testing.T) {
			item := models.NewReviewableItem(42, models.ContentQuestion, 3, fixedNow)
			out, err := engine.Process(context.Background(), item, models.GradeGood, 42, false)
			require.NoError(t, err)
			assert.NotEqual(t, models.StateNew, out.State)
			assert.Equal(t, 1, out.Reps)
			assert.False(t, out.Due.Before(fixedNow))
		})
	}
}

func TestEngines_NearDuplicateShortcut(t *testing.T) {
	for name, engine := range engines() {
		t.Run(name, func(t *testing.T) {
			item := reviewItem()
			recent := fixedNow.Add(-10 * time.Second)
			item.LastReview = &recent

			out, err := engine.Process(context.Background(), item, models.GradeEasy, 42, false)
			require.NoError(t, err)
			assert.Equal(t, item.Due, out.Due)
			assert.Equal(t, item.Reps, out.Reps)

			forced, err := engine.Process(context.Background(), item, models.GradeEasy, 42, true)
			require.NoError(t, err)
			assert.Equal(t, item.Reps+1, forced.Reps)
		})
	}
}

func TestEngines_ImportedReviewWithoutLastReview(t *testing.T) {
	for name, engine := range engines() {
		t.Run(name, func(t *testing.T) {
			reviewed := reviewItem()
			imported := reviewItem()
			imported.LastReview = nil

			want, err := engine.Process(context.Background(), reviewed, models.GradeGood, 42, true)
			require.NoError(t, err)
			got, err := engine.Process(context.Background(), imported, models.GradeGood, 42, true)
			require.NoError(t, err)
			assert.Equal(t, want.ScheduledDays, got.ScheduledDays)
			assert.Equal(t, want.Due, got.Due)
			assert.Equal(t, want.ElapsedDays, got.ElapsedDays)

			imported.ScheduledDays = 0
			got, err = engine.Process(context.Background(), imported, models.GradeEasy, 42, true)
			require.NoError(t, err)
			assert.Less(t, got.ScheduledDays, 365)
		})
	}
}

func TestLastReviewed(t *testing.T) {
	item := reviewItem()
	item.LastReview = nil

	last, ok := lastReviewed(item, fixedNow)
	require.True(t, ok)
	assert.Equal(t, fixedNow.AddDate(0, 0, -20), last)

	item.ScheduledDays = 0
	item.Stability = 12.4
	last, ok = lastReviewed(item, fixedNow)
	require.True(t, ok)
	assert.Equal(t, fixedNow.AddDate(0, 0, -12), last)

	item.Due = fixedNow.AddDate(0, 0, 30)
	last, ok = lastReviewed(item, fixedNow)
	require.True(t, ok)
	assert.Equal(t, fixedNow, last)

	item.State = models.StateNew
	_, ok = lastReviewed(item, fixedNow)
	assert.False(t, ok)
}

func TestEngines_RejectBadInput(t *testing.T) {
	for name, engine := range engines() {
		t.Run(name, func(t *testing.T) {
			_, err := engine.Process(context.Background(), reviewItem(), models.Grade(4), 42, true)
			assert.Error(t, err)

			_, err = engine.Process(context.Background(), reviewItem(), models.GradeGood, 7, true)
			assert.Error(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err = engine.Process(ctx, reviewItem(), models.GradeGood, 42, true)
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}

func TestSM2_ComputeNextInterval(t *testing.T) {
	sm := NewSM2()

	interval, ef, reps := sm.ComputeNextInterval(int(QualityPerfect), 0, 2.5, 1)
	assert.Equal(t, 1, interval)
	assert.InDelta(t, 2.6, ef, 1e-9)
	assert.Equal(t, 1, reps)

	interval, _, reps = sm.ComputeNextInterval(int(QualityIncorrect), 5, 2.5, 10)
	assert.Equal(t, 1, interval)
	assert.Equal(t, 0, reps)

	interval, _, _ = sm.ComputeNextInterval(int(QualityPerfect), 20, 2.5, 300)
	assert.Equal(t, sm.MaxInterval, interval)

	_, ef, _ = sm.ComputeNextInterval(int(QualityBlackout), 0, 1.3, 1)
	assert.Equal(t, minEase, ef)
}

func TestEaseDifficultyRoundTrip(t *testing.T) {
	assert.InDelta(t, 3.0, easeFromDifficulty(1), 1e-9)
	assert.InDelta(t, 1.3, easeFromDifficulty(10), 1e-9)
	assert.InDelta(t, 3.0, easeFromDifficulty(-4), 1e-9)
	for _, d := range []float64{1, 2.5, 5, 7.75, 10} {
		assert.InDelta(t, d, difficultyFromEase(easeFromDifficulty(d)), 1e-9)
	}
}
