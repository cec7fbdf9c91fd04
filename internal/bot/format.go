package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/studyplan/internal/review"
	"github.com/example/studyplan/internal/timezone"
	"github.com/example/studyplan/pkg/models"
)

var severityIcons = map[models.Severity]string{
	models.SeverityNone:     "✅",
	models.SeverityLow:      "🟢",
	models.SeverityModerate: "🟡",
	models.SeverityHigh:     "🟠",
	models.SeverityCritical: "🔴",
}

func formatBacklog(status *models.BacklogStatus) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s Backlog: %s\n\n", severityIcons[status.Severity], status.Severity)
	fmt.Fprintf(&sb, "Overdue: %d\n", status.Overdue)
	fmt.Fprintf(&sb, "Due today: %d\n", status.DueToday)
	fmt.Fprintf(&sb, "Upcoming: %d\n", status.Upcoming)
	fmt.Fprintf(&sb, "Daily capacity: %d\n", status.DailyCapacity)

	if status.Overdue > 0 {
		for _, ct := range []models.ContentType{models.ContentFlashcard, models.ContentQuestion, models.ContentErrorNote} {
			if n := status.OverdueByType[ct]; n > 0 {
				fmt.Fprintf(&sb, "  • %s: %d\n", strings.ToLower(string(ct)), n)
			}
		}
	}
	if status.OldestOverdue != nil {
		loc, _ := timezone.ParseTimezone(status.Timezone)
		fmt.Fprintf(&sb, "Oldest overdue since %s\n", timezone.DateKey(*status.OldestOverdue, loc))
	}
	if status.RecoveryRecommended {
		fmt.Fprintf(&sb, "\n💡 Recovery recommended: spread over %d study days with /recover %d", status.SuggestedDays, status.SuggestedDays)
	}
	return sb.String()
}

func formatRecovery(result *models.RecoveryResult) string {
	if result.RedistributedCount == 0 && len(result.Failed) == 0 {
		return "✅ Nothing overdue, no recovery needed."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔄 Recovery: %d items redistributed\n", result.RedistributedCount)
	writeDays(&sb, result.Days)
	writeFailures(&sb, result.Failed)
	return sb.String()
}

func formatReschedule(result *models.RescheduleResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 Rescheduled %d items\n", result.RescheduledCount)
	writeDays(&sb, result.Days)
	writeFailures(&sb, result.Failed)
	return sb.String()
}

func writeDays(sb *strings.Builder, days []models.DayLoad) {
	for _, d := range days {
		fmt.Fprintf(sb, "  %s: %d\n", d.Date, d.Count)
	}
}

func writeFailures(sb *strings.Builder, failed []models.ItemFailure) {
	if len(failed) == 0 {
		return
	}
	fmt.Fprintf(sb, "⚠️ %d items could not be moved:\n", len(failed))
	for _, f := range failed {
		fmt.Fprintf(sb, "  #%d: %s\n", f.ItemID, f.Reason)
	}
}

func formatPreview(p *models.Preview) string {
	var sb strings.Builder
	if p.Ephemeral {
		sb.WriteString("🔮 Preview (not studied yet)\n\n")
	} else {
		fmt.Fprintf(&sb, "🔮 Preview for item #%d\n\n", p.ItemID)
	}
	for _, g := range models.AllGrades {
		o := p.Outcome(g)
		due := o.DueDate
		if t, err := time.Parse(time.RFC3339, o.DueDate); err == nil {
			due = t.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(&sb, "%-5s → %d days (%s UTC)\n", capitalize(g.String()), o.ScheduledDays, due)
	}
	return sb.String()
}

func formatPattern(p *models.StudyPattern) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Study pattern %s to %s\n\n", p.WindowStart, p.WindowEnd)
	fmt.Fprintf(&sb, "Planned days: %s\n", weekdayList(p.DeclaredDays))
	fmt.Fprintf(&sb, "Studied on plan: %d of %d (%.0f%%)\n", p.StudiedOnPlan, p.ExpectedDays, p.Adherence*100)
	fmt.Fprintf(&sb, "Studied off plan: %d\n", p.StudiedOffPlan)
	if len(p.MissedDays) > 0 {
		fmt.Fprintf(&sb, "Missed: %s\n", strings.Join(p.MissedDays, ", "))
	}
	if len(p.SuggestedStudyDays) > 0 {
		fmt.Fprintf(&sb, "\nYou actually study on: %s", weekdayList(p.SuggestedStudyDays))
	}
	return sb.String()
}

func weekdayList(days []time.Weekday) string {
	if len(days) == 0 {
		return "none"
	}
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, d.String()[:3])
	}
	return strings.Join(names, ", ")
}

// userError turns a service error into a reply. Unexpected errors get a
// generic message and are reported back to the caller for logging.
func userError(err error) (string, bool) {
	var rerr *review.Error
	if errors.As(err, &rerr) {
		switch rerr.Kind {
		case review.KindValidation:
			return "⚠️ " + rerr.Message, true
		case review.KindNotFound:
			return fmt.Sprintf("❓ Items not found: %v", rerr.ItemIDs), true
		case review.KindNoEligibleDays:
			return "📭 " + rerr.Message, true
		}
	}
	return "❌ Something went wrong, please try again later.", false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
