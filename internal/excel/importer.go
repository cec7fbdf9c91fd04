package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/studyplan/internal/database"
	"github.com/example/studyplan/internal/timezone"
	"github.com/example/studyplan/pkg/models"
)

// ItemRepository is what the importer needs from the ReviewableItem store
type ItemRepository interface {
	GetByContent(ctx context.Context, userID int64, contentType models.ContentType, contentID int64) (*models.ReviewableItem, error)
	Create(ctx context.Context, item *models.ReviewableItem) error
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath          string // Path to the Excel or CSV file
	UserIDColumn      string
	ContentTypeColumn string
	ContentIDColumn   string
	StateColumn       string
	DueColumn         string
	StabilityColumn   string
	DifficultyColumn  string
	RepsColumn        string
	LapsesColumn      string
	LastReviewColumn  string
	SheetName         string // Name of the sheet to import
	StartRow          int    // The row to start importing from (1-based index)
	// Now is used for rows without a due date
	Now func() time.Time
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		UserIDColumn:      "A",
		ContentTypeColumn: "B",
		ContentIDColumn:   "C",
		StateColumn:       "D",
		DueColumn:         "E",
		StabilityColumn:   "F",
		DifficultyColumn:  "G",
		RepsColumn:        "H",
		LapsesColumn:      "I",
		LastReviewColumn:  "J",
		SheetName:         "Sheet1",
		StartRow:          2, // skip header
		Now:               time.Now,
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

// ImportItems imports scheduling records from an Excel or CSV file.
// Bad rows are reported in the result; pairs that already exist are skipped.
func ImportItems(ctx context.Context, repo ItemRepository, config ImportConfig) (*ImportResult, error) {
	if config.Now == nil {
		config.Now = time.Now
	}
	columns, err := config.columnIndexes()
	if err != nil {
		return nil, err
	}

	var rows [][]string
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		rowNum := i + 1
		if rowNum < config.StartRow || isBlank(row) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.TotalProcessed++

		item, err := parseRow(row, columns, config.Now())
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}

		_, err = repo.GetByContent(ctx, item.UserID, item.ContentType, item.ContentID)
		switch {
		case err == nil:
			result.Skipped++
			continue
		case !errors.Is(err, database.ErrNotFound):
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}

		if err := repo.Create(ctx, &item); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		result.Created++
	}
	return result, nil
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %v", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type columnMap struct {
	userID, contentType, contentID, state, due, stability, difficulty, reps, lapses, lastReview int
}

// columnIndexes converts column letters into zero-based indexes
func (c ImportConfig) columnIndexes() (columnMap, error) {
	var idx columnMap
	for _, col := range []struct {
		name string
		dst  *int
	}{
		{c.UserIDColumn, &idx.userID},
		{c.ContentTypeColumn, &idx.contentType},
		{c.ContentIDColumn, &idx.contentID},
		{c.StateColumn, &idx.state},
		{c.DueColumn, &idx.due},
		{c.StabilityColumn, &idx.stability},
		{c.DifficultyColumn, &idx.difficulty},
		{c.RepsColumn, &idx.reps},
		{c.LapsesColumn, &idx.lapses},
		{c.LastReviewColumn, &idx.lastReview},
	} {
		if col.name == "" {
			*col.dst = -1
			continue
		}
		n, err := excelize.ColumnNameToNumber(col.name)
		if err != nil {
			return idx, fmt.Errorf("invalid column %q: %v", col.name, err)
		}
		*col.dst = n - 1
	}
	if idx.userID < 0 || idx.contentType < 0 || idx.contentID < 0 {
		return idx, fmt.Errorf("user, content type and content id columns are required")
	}
	return idx, nil
}

var dueLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", timezone.DateLayout}

func parseRow(row []string, cols columnMap, now time.Time) (models.ReviewableItem, error) {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	userID, err := strconv.ParseInt(cell(cols.userID), 10, 64)
	if err != nil || userID <= 0 {
		return models.ReviewableItem{}, fmt.Errorf("invalid user id %q", cell(cols.userID))
	}
	contentType, err := models.ParseContentType(strings.ToUpper(cell(cols.contentType)))
	if err != nil {
		return models.ReviewableItem{}, err
	}
	contentID, err := strconv.ParseInt(cell(cols.contentID), 10, 64)
	if err != nil || contentID <= 0 {
		return models.ReviewableItem{}, fmt.Errorf("invalid content id %q", cell(cols.contentID))
	}

	item := models.NewReviewableItem(userID, contentType, contentID, now)

	if s := cell(cols.state); s != "" {
		state := models.ItemState(strings.ToUpper(s))
		if !state.Valid() {
			return item, fmt.Errorf("unknown state %q", s)
		}
		item.State = state
	}
	if s := cell(cols.due); s != "" {
		due, err := parseDue(s)
		if err != nil {
			return item, err
		}
		item.Due = due
	}
	if s := cell(cols.stability); s != "" {
		if item.Stability, err = parseFinite(s); err != nil || item.Stability < 0 {
			return item, fmt.Errorf("invalid stability %q", s)
		}
	}
	if s := cell(cols.difficulty); s != "" {
		if item.Difficulty, err = parseFinite(s); err != nil {
			return item, fmt.Errorf("invalid difficulty %q", s)
		}
	}
	if s := cell(cols.reps); s != "" {
		if item.Reps, err = strconv.Atoi(s); err != nil || item.Reps < 0 {
			return item, fmt.Errorf("invalid reps %q", s)
		}
	}
	if s := cell(cols.lapses); s != "" {
		if item.Lapses, err = strconv.Atoi(s); err != nil || item.Lapses < 0 {
			return item, fmt.Errorf("invalid lapses %q", s)
		}
	}
	if s := cell(cols.lastReview); s != "" {
		last, err := parseDue(s)
		if err != nil {
			return item, fmt.Errorf("invalid last review %q", s)
		}
		if last.After(now) {
			return item, fmt.Errorf("last review %q is in the future", s)
		}
		item.LastReview = &last
	}
	return item, nil
}

// parseFinite rejects NaN and infinities, which strconv accepts
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return v, nil
}

func parseDue(s string) (time.Time, error) {
	for _, layout := range dueLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid due date %q", s)
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
