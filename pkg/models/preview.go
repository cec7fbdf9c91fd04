package models

// PreviewOutcome is the hypothetical result of grading an item one way
type PreviewOutcome struct {
	Grade         Grade   `json:"grade"`
	ScheduledDays int     `json:"scheduled_days"`
	DueDate       string  `json:"due_date"` // RFC 3339
	Stability     float64 `json:"stability"`
	Difficulty    float64 `json:"difficulty"`
	UsedThreshold bool    `json:"used_threshold"`
}

// Preview holds one outcome per grade
type Preview struct {
	ItemID    int64          `json:"item_id,omitempty"` // zero for content never studied
	Ephemeral bool           `json:"ephemeral"`
	Again     PreviewOutcome `json:"again"`
	Hard      PreviewOutcome `json:"hard"`
	Good      PreviewOutcome `json:"good"`
	Easy      PreviewOutcome `json:"easy"`
}

// Outcome returns the outcome for g
func (p *Preview) Outcome(g Grade) PreviewOutcome {
	switch g {
	case GradeAgain:
		return p.Again
	case GradeHard:
		return p.Hard
	case GradeGood:
		return p.Good
	default:
		return p.Easy
	}
}

// Set stores o under its grade
func (p *Preview) Set(o PreviewOutcome) {
	switch o.Grade {
	case GradeAgain:
		p.Again = o
	case GradeHard:
		p.Hard = o
	case GradeGood:
		p.Good = o
	case GradeEasy:
		p.Easy = o
	}
}
