package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/username/tradejournal/src/logger"
	"github.com/username/tradejournal/src/models"
	"github.com/username/tradejournal/src/processors"
	"github.com/username/tradejournal/src/security/validation"
	"github.com/username/tradejournal/src/utils"
)

// Column headers matched case-insensitively, by substring, against the header
// row of the export.
var requiredColumns = []string{"activity date", "trans code", "description"}

// FooterLines is the number of trailing summary lines every brokerage export
// carries. They are stripped unconditionally before CSV parsing; the export
// format is assumed fixed.
const FooterLines = 2

// ActivityParser turns a raw brokerage activity export into normalized
// ActivityRecords.
type ActivityParser struct{}

func NewActivityParser() *ActivityParser {
	return &ActivityParser{}
}

// HasRequiredColumns reports whether the header row names every column the
// pipeline depends on. Used both at upload time and before parsing.
func HasRequiredColumns(headerLine string) bool {
	lower := strings.ToLower(headerLine)
	for _, col := range requiredColumns {
		if !strings.Contains(lower, col) {
			return false
		}
	}
	return true
}

// Parse reads a whole export, strips the footer, maps columns by header name
// and returns one record per data row. Rows with unparseable activity dates
// are skipped; if no row yields a usable date the file is rejected so the
// caller can mark it errored.
func (p *ActivityParser) Parse(file io.Reader, sourceFile string) ([]models.ActivityRecord, error) {
	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}

	lines := strings.Split(strings.ReplaceAll(string(raw), "\r\n", "\n"), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) <= FooterLines {
		return nil, fmt.Errorf("file too short: %d lines", len(lines))
	}
	lines = lines[:len(lines)-FooterLines]

	if !HasRequiredColumns(lines[0]) {
		return nil, fmt.Errorf("header row missing required columns (%s)", strings.Join(requiredColumns, ", "))
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols := mapColumns(header)

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV records: %w", err)
	}

	var records []models.ActivityRecord
	for i, row := range rows {
		dateStr := field(row, cols, "activity date")
		date, ok := utils.ParseActivityDate(dateStr)
		if !ok {
			logger.L.Warn("Skipping row with unparseable activity date",
				"file", sourceFile, "row", i+1, "value", dateStr)
			continue
		}

		rec := models.ActivityRecord{
			ActivityDate: dateStr,
			TransCode:    strings.TrimSpace(field(row, cols, "trans code")),
			Description:  validation.StripUnprintable(strings.TrimSpace(field(row, cols, "description"))),
			Instrument:   validation.StripUnprintable(strings.TrimSpace(field(row, cols, "instrument"))),
			Quantity:     processors.ParseQuantityOrZero(field(row, cols, "quantity")),
			Price:        processors.ParseCurrencyOrZero(field(row, cols, "price")),
			Amount:       processors.ParseCurrencyOrZero(field(row, cols, "amount")),
			SourceFile:   sourceFile,
			RowIndex:     i,
			Date:         date,
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no rows with parseable activity dates")
	}
	return records, nil
}

// mapColumns builds a lookup from the known column names to their index in
// the header row, matching case-insensitively by substring.
func mapColumns(header []string) map[string]int {
	known := []string{"activity date", "trans code", "description", "instrument", "quantity", "price", "amount"}
	cols := make(map[string]int)
	for idx, h := range header {
		lower := strings.ToLower(strings.TrimSpace(h))
		for _, name := range known {
			if _, taken := cols[name]; !taken && strings.Contains(lower, name) {
				cols[name] = idx
			}
		}
	}
	return cols
}

func field(row []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}
