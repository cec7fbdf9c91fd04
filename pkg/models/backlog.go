package models

import "time"

// Severity grades how unhealthy a backlog is. Higher values are worse.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityModerate
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityLow:
		return "low"
	case SeverityModerate:
		return "moderate"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	}
	return "unknown"
}

// MarshalText lets severities serialize by name
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// BacklogStatus is a derived snapshot of a user's outstanding items
type BacklogStatus struct {
	UserID              int64               `json:"user_id"`
	Overdue             int                 `json:"overdue"`
	DueToday            int                 `json:"due_today"`
	Upcoming            int                 `json:"upcoming"`
	Total               int                 `json:"total"`
	OverdueByType       map[ContentType]int `json:"overdue_by_type"`
	OldestOverdue       *time.Time          `json:"oldest_overdue,omitempty"`
	DailyCapacity       int                 `json:"daily_capacity"`
	Severity            Severity            `json:"severity"`
	RecoveryRecommended bool                `json:"recovery_recommended"`
	SuggestedDays       int                 `json:"suggested_days"`
	Timezone            string              `json:"timezone"`
	GeneratedAt         time.Time           `json:"generated_at"`
}
