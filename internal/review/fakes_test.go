package review

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/example/studyplan/internal/database"
	"github.com/example/studyplan/pkg/models"
)

type fakeItems struct {
	mu      sync.Mutex
	items   map[int64]models.ReviewableItem
	failIDs map[int64]error
	writes  int
	// sawCanceled is set when a write arrives on a canceled context
	sawCanceled bool
}

func newFakeItems(items ...models.ReviewableItem) *fakeItems {
	f := &fakeItems{items: make(map[int64]models.ReviewableItem), failIDs: make(map[int64]error)}
	for _, it := range items {
		f.items[it.ID] = it
	}
	return f
}

func (f *fakeItems) GetByContent(_ context.Context, userID int64, contentType models.ContentType, contentID int64) (*models.ReviewableItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items {
		if it.UserID == userID && it.ContentType == contentType && it.ContentID == contentID {
			cp := it
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeItems) ListByUser(_ context.Context, userID int64) ([]models.ReviewableItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ReviewableItem
	for _, it := range f.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeItems) ListByIDs(_ context.Context, userID int64, ids []int64) ([]models.ReviewableItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ReviewableItem
	for _, id := range ids {
		if it, ok := f.items[id]; ok && it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeItems) UpdateDue(ctx context.Context, userID, id int64, due time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if ctx.Err() != nil {
		f.sawCanceled = true
	}
	if err, ok := f.failIDs[id]; ok {
		return err
	}
	it, ok := f.items[id]
	if !ok || it.UserID != userID {
		return database.ErrNotFound
	}
	it.Due = due
	f.items[id] = it
	return nil
}

func (f *fakeItems) get(id int64) models.ReviewableItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id]
}

type fakePrefs struct {
	prefs map[int64]models.StudyPreferences
}

func (f *fakePrefs) GetPreferences(_ context.Context, userID int64) (models.StudyPreferences, error) {
	if p, ok := f.prefs[userID]; ok {
		return p, nil
	}
	return models.StudyPreferences{
		UserID:        userID,
		StudyDays:     models.AllWeekdays,
		Location:      time.UTC,
		DailyCapacity: 20,
	}, nil
}

type fakeSessions struct {
	sessions []models.StudySession
}

func (f *fakeSessions) ListByUserBetween(_ context.Context, userID int64, from, to time.Time) ([]models.StudySession, error) {
	var out []models.StudySession
	for _, s := range f.sessions {
		if s.UserID == userID && !s.StartedAt.Before(from) && s.StartedAt.Before(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

// fakeEngine schedules grade g at (g+1)*2 days and records the force flag
type fakeEngine struct {
	mu     sync.Mutex
	now    time.Time
	forced []bool
	err    error
	failOn models.Grade
}

func (e *fakeEngine) Process(_ context.Context, item models.ReviewableItem, grade models.Grade, _ int64, forceRecompute bool) (models.ReviewableItem, error) {
	e.mu.Lock()
	e.forced = append(e.forced, forceRecompute)
	e.mu.Unlock()
	if e.err != nil && grade == e.failOn {
		return models.ReviewableItem{}, e.err
	}
	out := item
	days := (int(grade) + 1) * 2
	out.ScheduledDays = days
	out.Due = e.now.AddDate(0, 0, days)
	out.Stability = item.Stability + float64(days)
	out.Difficulty = item.Difficulty - float64(grade)
	return out, nil
}

var errWriteFailed = errors.New("write failed")

const testUser int64 = 42

func item(id int64, state models.ItemState, due time.Time) models.ReviewableItem {
	return models.ReviewableItem{
		ID:          id,
		UserID:      testUser,
		ContentID:   id * 10,
		ContentType: models.ContentFlashcard,
		Due:         due,
		Stability:   5,
		Difficulty:  5,
		State:       state,
	}
}

func newTestService(items *fakeItems, prefs *fakePrefs, now time.Time, opts ...Option) *Service {
	if prefs == nil {
		prefs = &fakePrefs{}
	}
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	return New(items, prefs, &fakeSessions{}, &fakeEngine{now: now}, opts...)
}

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}
