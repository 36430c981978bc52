package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrUnsupportedFormat = errors.New("unsupported file format, expected .csv or .xlsx")

var requiredColumns = []string{"TemplateName", "PrimaryText", "Headline", "CTA", "Industry", "Goal"}

// columnSetters maps a normalized header to the row field it fills.
var columnSetters = map[string]func(*CandidateRow, string){
	"templatename":     func(r *CandidateRow, v string) { r.TemplateName = v },
	"primarytext":      func(r *CandidateRow, v string) { r.PrimaryText = v },
	"headline":         func(r *CandidateRow, v string) { r.Headline = v },
	"cta":              func(r *CandidateRow, v string) { r.CTA = v },
	"industry":         func(r *CandidateRow, v string) { r.Industry = v },
	"goal":             func(r *CandidateRow, v string) { r.Goal = v },
	"description":      func(r *CandidateRow, v string) { r.Description = v },
	"headline2":        func(r *CandidateRow, v string) { r.Headline2 = v },
	"headline3":        func(r *CandidateRow, v string) { r.Headline3 = v },
	"primarytext2":     func(r *CandidateRow, v string) { r.PrimaryText2 = v },
	"primarytext3":     func(r *CandidateRow, v string) { r.PrimaryText3 = v },
	"description2":     func(r *CandidateRow, v string) { r.Description2 = v },
	"description3":     func(r *CandidateRow, v string) { r.Description3 = v },
	"budget":           func(r *CandidateRow, v string) { r.Budget = v },
	"agemin":           func(r *CandidateRow, v string) { r.AgeMin = v },
	"agemax":           func(r *CandidateRow, v string) { r.AgeMax = v },
	"interests":        func(r *CandidateRow, v string) { r.Interests = v },
	"islocal":          func(r *CandidateRow, v string) { r.IsLocal = v },
	"radius":           func(r *CandidateRow, v string) { r.Radius = v },
	"currency":         func(r *CandidateRow, v string) { r.Currency = v },
	"budgetreasoning":  func(r *CandidateRow, v string) { r.BudgetReasoning = v },
	"imageurl":         func(r *CandidateRow, v string) { r.ImageURL = v },
	"objective":        func(r *CandidateRow, v string) { r.Objective = v },
	"conversionmethod": func(r *CandidateRow, v string) { r.ConversionMethod = v },
}

// ReadRows picks a reader by file extension.
func ReadRows(filename string, r io.Reader, maxRows int) ([]CandidateRow, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ReadCSV(r, maxRows)
	case ".xlsx":
		return ReadXLSX(r, maxRows)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// ReadCSV parses a header row followed by data rows. maxRows <= 0 means no limit.
func ReadCSV(r io.Reader, maxRows int) ([]CandidateRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("file is empty")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	setters, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var rows []CandidateRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlankRecord(record) {
			continue
		}
		if maxRows > 0 && len(rows) >= maxRows {
			return nil, fmt.Errorf("file has more than %d rows", maxRows)
		}
		rows = append(rows, buildRow(setters, record))
	}
	return rows, nil
}

// ReadXLSX reads the first sheet of a workbook with the same column layout as CSV.
func ReadXLSX(r io.Reader, maxRows int) ([]CandidateRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	setters, err := mapHeader(records[0])
	if err != nil {
		return nil, err
	}

	var rows []CandidateRow
	for _, record := range records[1:] {
		if isBlankRecord(record) {
			continue
		}
		if maxRows > 0 && len(rows) >= maxRows {
			return nil, fmt.Errorf("file has more than %d rows", maxRows)
		}
		rows = append(rows, buildRow(setters, record))
	}
	return rows, nil
}

func mapHeader(header []string) ([]func(*CandidateRow, string), error) {
	setters := make([]func(*CandidateRow, string), len(header))
	seen := map[string]bool{}
	for i, h := range header {
		key := normalizeHeader(h)
		if set, ok := columnSetters[key]; ok {
			setters[i] = set
			seen[key] = true
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if !seen[normalizeHeader(col)] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return setters, nil
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

func buildRow(setters []func(*CandidateRow, string), record []string) CandidateRow {
	var row CandidateRow
	for i, v := range record {
		if i < len(setters) && setters[i] != nil {
			setters[i](&row, v)
		}
	}
	return row
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
