package models

import "time"

// StudySession is one completed study session from the learner's history
type StudySession struct {
	ID           int64     `json:"id" db:"id"`
	UserID       int64     `json:"user_id" db:"user_id"`
	StartedAt    time.Time `json:"started_at" db:"started_at"`
	Duration     int       `json:"duration" db:"duration"` // seconds
	ItemsStudied int       `json:"items_studied" db:"items_studied"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// EndedAt is when the session finished. A session belongs to the day it ended on.
func (s StudySession) EndedAt() time.Time {
	return s.StartedAt.Add(time.Duration(s.Duration) * time.Second)
}
