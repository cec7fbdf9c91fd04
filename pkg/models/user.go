package models

import "time"

// User is a learner together with their study preferences
type User struct {
	ID            int64     `json:"id" db:"id"`
	Username      string    `json:"username" db:"username"`
	FirstName     string    `json:"first_name" db:"first_name"`
	Timezone      string    `json:"timezone" db:"timezone"`             // IANA zone used for local-day boundaries
	StudyDays     []int     `json:"study_days" db:"-"`                  // 0=Sunday..6=Saturday, stored as JSON
	DailyCapacity int       `json:"daily_capacity" db:"daily_capacity"` // typical reviews per study day
	AutoRecovery  bool      `json:"auto_recovery" db:"auto_recovery"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// StudyPreferences are the per-user scheduling constraints
type StudyPreferences struct {
	UserID        int64          `json:"user_id"`
	StudyDays     []time.Weekday `json:"study_days"`
	Location      *time.Location `json:"-"`
	DailyCapacity int            `json:"daily_capacity"`
	AutoRecovery  bool           `json:"auto_recovery"`
}

// AllWeekdays is the study-day set for users who never configured one
var AllWeekdays = []time.Weekday{
	time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
	time.Thursday, time.Friday, time.Saturday,
}

// IsStudyDay reports whether the weekday is one the user accepts reviews on
func (p StudyPreferences) IsStudyDay(d time.Weekday) bool {
	for _, sd := range p.StudyDays {
		if sd == d {
			return true
		}
	}
	return false
}
