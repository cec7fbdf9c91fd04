package spaced_repetition

import (
	"context"
	"time"

	"github.com/open-spaced-repetition/go-fsrs"

	"github.com/example/studyplan/pkg/models"
)

// FSRSEngine schedules with the Free Spaced Repetition Scheduler
type FSRSEngine struct {
	parameters      fsrs.Parameters
	now             func() time.Time
	DuplicateWindow time.Duration
}

// NewFSRSEngine creates an engine with the library's default parameters
func NewFSRSEngine(now func() time.Time) *FSRSEngine {
	return NewFSRSEngineWithParams(fsrs.DefaultParam(), now)
}

// NewFSRSEngineWithParams creates an engine with custom weights
func NewFSRSEngineWithParams(params fsrs.Parameters, now func() time.Time) *FSRSEngine {
	if now == nil {
		now = time.Now
	}
	return &FSRSEngine{
		parameters:      params,
		now:             now,
		DuplicateWindow: DefaultDuplicateWindow,
	}
}

// Process implements Engine
func (e *FSRSEngine) Process(ctx context.Context, item models.ReviewableItem, grade models.Grade, userID int64, forceRecompute bool) (models.ReviewableItem, error) {
	if err := checkInput(ctx, item, grade, userID); err != nil {
		return models.ReviewableItem{}, err
	}

	now := e.now()
	if !forceRecompute && isNearDuplicate(item, now, e.DuplicateWindow) {
		return cloneItem(item), nil
	}

	params := e.parameters
	infos := params.Repeat(toCard(item, now), now)
	card := infos[toRating(grade)].Card

	out := cloneItem(item)
	out.Due = card.Due
	out.Stability = card.Stability
	out.Difficulty = card.Difficulty
	out.ElapsedDays = int(card.ElapsedDays)
	out.ScheduledDays = int(card.ScheduledDays)
	out.Reps = int(card.Reps)
	out.Lapses = int(card.Lapses)
	out.State = fromFSRSState(card.State)
	reviewed := now
	out.LastReview = &reviewed
	return out, nil
}

func toCard(item models.ReviewableItem, now time.Time) fsrs.Card {
	card := fsrs.Card{
		Due:           item.Due,
		Stability:     item.Stability,
		Difficulty:    item.Difficulty,
		ElapsedDays:   uint64(item.ElapsedDays),
		ScheduledDays: uint64(item.ScheduledDays),
		Reps:          uint64(item.Reps),
		Lapses:        uint64(item.Lapses),
		State:         toFSRSState(item.State),
	}
	if last, ok := lastReviewed(item, now); ok {
		card.LastReview = last
	}
	return card
}

// toRating maps Again..Easy (0..3) onto the library's 1..4
func toRating(g models.Grade) fsrs.Rating {
	switch g {
	case models.GradeAgain:
		return fsrs.Again
	case models.GradeHard:
		return fsrs.Hard
	case models.GradeGood:
		return fsrs.Good
	default:
		return fsrs.Easy
	}
}

func toFSRSState(s models.ItemState) fsrs.State {
	switch s {
	case models.StateLearning:
		return fsrs.Learning
	case models.StateReview:
		return fsrs.Review
	case models.StateRelearning:
		return fsrs.Relearning
	default:
		return fsrs.New
	}
}

func fromFSRSState(s fsrs.State) models.ItemState {
	switch s {
	case fsrs.Learning:
		return models.StateLearning
	case fsrs.Review:
		return models.StateReview
	case fsrs.Relearning:
		return models.StateRelearning
	default:
		return models.StateNew
	}
}
