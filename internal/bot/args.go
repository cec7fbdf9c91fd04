package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/example/studyplan/pkg/models"
)

var weekdayNames = map[string]int{
	"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6,
}

// splitList splits "1,2 3" style arguments on commas and spaces
func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == ';' })
}

// parseIDs parses a list of item ids
func parseIDs(s string, max int) ([]int64, error) {
	parts := splitList(s)
	if len(parts) == 0 {
		return nil, fmt.Errorf("no item ids given")
	}
	if max > 0 && len(parts) > max {
		return nil, fmt.Errorf("too many items: %d, at most %d per command", len(parts), max)
	}
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid item id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseStudyDays accepts weekday numbers (0=Sunday) or three-letter names
func parseStudyDays(s string) ([]int, error) {
	parts := splitList(strings.ToLower(s))
	if len(parts) == 0 {
		return nil, fmt.Errorf("no study days given")
	}
	days := make([]int, 0, len(parts))
	for _, p := range parts {
		if d, ok := weekdayNames[p]; ok {
			days = append(days, d)
			continue
		}
		if len(p) > 3 {
			if d, ok := weekdayNames[p[:3]]; ok {
				days = append(days, d)
				continue
			}
		}
		d, err := strconv.Atoi(p)
		if err != nil || d < 0 || d > 6 {
			return nil, fmt.Errorf("invalid study day %q, use 0-6 or mon..sun", p)
		}
		days = append(days, d)
	}
	return days, nil
}

// parseMoveArgs parses "YYYY-MM-DD id,id"
func parseMoveArgs(args string, max int) (models.RescheduleRequest, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return models.RescheduleRequest{}, fmt.Errorf("usage: /move YYYY-MM-DD id,id")
	}
	ids, err := parseIDs(strings.Join(fields[1:], " "), max)
	if err != nil {
		return models.RescheduleRequest{}, err
	}
	return models.RescheduleRequest{
		ItemIDs:      ids,
		Mode:         models.ModeSpecific,
		SpecificDate: fields[0],
	}, nil
}

// parseSpreadArgs parses "DAYS YYYY-MM-DD id,id"
func parseSpreadArgs(args string, max int) (models.RescheduleRequest, error) {
	fields := strings.Fields(args)
	if len(fields) < 3 {
		return models.RescheduleRequest{}, fmt.Errorf("usage: /spread DAYS YYYY-MM-DD id,id")
	}
	days, err := strconv.Atoi(fields[0])
	if err != nil {
		return models.RescheduleRequest{}, fmt.Errorf("invalid number of days %q", fields[0])
	}
	ids, err := parseIDs(strings.Join(fields[2:], " "), max)
	if err != nil {
		return models.RescheduleRequest{}, err
	}
	return models.RescheduleRequest{
		ItemIDs:             ids,
		Mode:                models.ModeDistribute,
		DistributeDays:      days,
		DistributeStartDate: fields[1],
	}, nil
}

// parsePreviewArgs parses "TYPE CONTENT_ID"
func parsePreviewArgs(args string) (models.ContentType, int64, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return "", 0, fmt.Errorf("usage: /preview FLASHCARD|QUESTION|ERROR_NOTE CONTENT_ID")
	}
	ct, err := models.ParseContentType(strings.ToUpper(fields[0]))
	if err != nil {
		return "", 0, err
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("invalid content id %q", fields[1])
	}
	return ct, id, nil
}

// parseOnOff parses "on" or "off"
func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "yes", "true", "1":
		return true, nil
	case "off", "no", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}
