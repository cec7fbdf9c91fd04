package models

import "time"

// StudyPattern compares actual study history with declared study days
type StudyPattern struct {
	UserID             int64                `json:"user_id"`
	WindowStart        string               `json:"window_start"`
	WindowEnd          string               `json:"window_end"`
	DeclaredDays       []time.Weekday       `json:"declared_days"`
	ExpectedDays       int                  `json:"expected_days"`
	StudiedOnPlan      int                  `json:"studied_on_plan"`
	StudiedOffPlan     int                  `json:"studied_off_plan"`
	MissedDays         []string             `json:"missed_days"`
	Adherence          float64              `json:"adherence"`
	SessionsByWeekday  map[time.Weekday]int `json:"sessions_by_weekday"`
	SuggestedStudyDays []time.Weekday       `json:"suggested_study_days"`
}
