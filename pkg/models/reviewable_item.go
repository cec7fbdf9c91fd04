package models

import (
	"fmt"
	"time"
)

// ContentType identifies what kind of learning content an item schedules
type ContentType string

const (
	ContentFlashcard ContentType = "FLASHCARD"
	ContentQuestion  ContentType = "QUESTION"
	ContentErrorNote ContentType = "ERROR_NOTE"
)

// Valid reports whether c is one of the known content types
func (c ContentType) Valid() bool {
	switch c {
	case ContentFlashcard, ContentQuestion, ContentErrorNote:
		return true
	}
	return false
}

// ParseContentType accepts the canonical upper-case names
func ParseContentType(s string) (ContentType, error) {
	c := ContentType(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown content type %q", s)
	}
	return c, nil
}

// ItemState is the learning stage owned by the scheduling engine
type ItemState string

const (
	StateNew        ItemState = "NEW"
	StateLearning   ItemState = "LEARNING"
	StateReview     ItemState = "REVIEW"
	StateRelearning ItemState = "RELEARNING"
)

// Valid reports whether s is one of the known states
func (s ItemState) Valid() bool {
	switch s {
	case StateNew, StateLearning, StateReview, StateRelearning:
		return true
	}
	return false
}

// Grade is the learner's self-assessed recall quality
type Grade int

const (
	GradeAgain Grade = 0
	GradeHard  Grade = 1
	GradeGood  Grade = 2
	GradeEasy  Grade = 3
)

// AllGrades lists every grade in ascending order
var AllGrades = []Grade{GradeAgain, GradeHard, GradeGood, GradeEasy}

// Valid reports whether g is within Again..Easy
func (g Grade) Valid() bool {
	return g >= GradeAgain && g <= GradeEasy
}

func (g Grade) String() string {
	switch g {
	case GradeAgain:
		return "again"
	case GradeHard:
		return "hard"
	case GradeGood:
		return "good"
	case GradeEasy:
		return "easy"
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// ReviewableItem is the scheduling record for one (user, content) pair
type ReviewableItem struct {
	ID            int64       `json:"id" db:"id"`
	UserID        int64       `json:"user_id" db:"user_id"`
	ContentID     int64       `json:"content_id" db:"content_id"`
	ContentType   ContentType `json:"content_type" db:"content_type"`
	Due           time.Time   `json:"due" db:"due"`
	Stability     float64     `json:"stability" db:"stability"`
	Difficulty    float64     `json:"difficulty" db:"difficulty"`
	ElapsedDays   int         `json:"elapsed_days" db:"elapsed_days"`
	ScheduledDays int         `json:"scheduled_days" db:"scheduled_days"`
	Reps          int         `json:"reps" db:"reps"`
	Lapses        int         `json:"lapses" db:"lapses"`
	State         ItemState   `json:"state" db:"state"`
	LastReview    *time.Time  `json:"last_review" db:"last_review"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// NeutralDifficulty is the midpoint used for items that have never been reviewed
const NeutralDifficulty = 5.0

// NewReviewableItem builds the record a user gets on first encounter with a piece of content.
// It is due immediately.
func NewReviewableItem(userID int64, contentType ContentType, contentID int64, now time.Time) ReviewableItem {
	return ReviewableItem{
		UserID:      userID,
		ContentID:   contentID,
		ContentType: contentType,
		Due:         now,
		Difficulty:  NeutralDifficulty,
		State:       StateNew,
	}
}
