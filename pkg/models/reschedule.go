package models

import "time"

// RescheduleMode selects how a manual reschedule places items
type RescheduleMode string

const (
	ModeSpecific   RescheduleMode = "SPECIFIC"
	ModeDistribute RescheduleMode = "DISTRIBUTE"
)

// RescheduleRequest asks to move a set of items to a date or across several study days.
// Dates are calendar dates in the user's timezone.
type RescheduleRequest struct {
	ItemIDs             []int64        `json:"item_ids"`
	Mode                RescheduleMode `json:"mode"`
	SpecificDate        string         `json:"specific_date,omitempty"`
	DistributeDays      int            `json:"distribute_days,omitempty"`
	DistributeStartDate string         `json:"distribute_start_date,omitempty"`
}

// ItemChange records one rewritten due date
type ItemChange struct {
	ItemID int64     `json:"item_id"`
	OldDue time.Time `json:"old_due"`
	NewDue time.Time `json:"new_due"`
}

// ItemFailure records an item whose due date could not be written
type ItemFailure struct {
	ItemID int64  `json:"item_id"`
	Reason string `json:"reason"`
}

// DayLoad is the number of items assigned to one calendar day
type DayLoad struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// RescheduleResult is the outcome of a best-effort batch of due-date writes
type RescheduleResult struct {
	BatchID          string        `json:"batch_id"`
	RescheduledCount int           `json:"rescheduled_count"`
	Details          []ItemChange  `json:"details"`
	Failed           []ItemFailure `json:"failed,omitempty"`
	Days             []DayLoad     `json:"days,omitempty"`
}

// Partial reports whether some but not all writes failed
func (r RescheduleResult) Partial() bool {
	return len(r.Failed) > 0 && r.RescheduledCount > 0
}

// SucceededIDs lists the items whose due date was rewritten
func (r RescheduleResult) SucceededIDs() []int64 {
	ids := make([]int64, 0, len(r.Details))
	for _, d := range r.Details {
		ids = append(ids, d.ItemID)
	}
	return ids
}

// FailedIDs lists the items a caller may retry
func (r RescheduleResult) FailedIDs() []int64 {
	ids := make([]int64, 0, len(r.Failed))
	for _, f := range r.Failed {
		ids = append(ids, f.ItemID)
	}
	return ids
}

// RecoveryResult is the outcome of spreading a user's overdue backlog
type RecoveryResult struct {
	BatchID            string        `json:"batch_id"`
	RedistributedCount int           `json:"redistributed_count"`
	Days               []DayLoad     `json:"days"`
	Failed             []ItemFailure `json:"failed,omitempty"`
}
