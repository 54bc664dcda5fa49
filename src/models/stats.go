package models

// DuplicateClass is the outcome of classifying one occurrence of a record
// fingerprint during deduplication.
type DuplicateClass string

const (
	ClassUnique           DuplicateClass = "unique"
	ClassRepeatSameFile   DuplicateClass = "legitimate_repeat_same_file"
	ClassDuplicateOverlap DuplicateClass = "duplicate_overlapping_dates"
	ClassSeparateTrade    DuplicateClass = "legitimate_separate_trade"
)

// Occurrence is one sighting of a fingerprint: which file it came from and
// that file's date range, plus how the sighting was classified. RecordID is
// the file-scoped fingerprint of the physical row, unique even across
// identical content.
type Occurrence struct {
	RecordID   string         `json:"record_id"`
	SourceFile string         `json:"source_file"`
	DateRange  DateRange      `json:"date_range"`
	Class      DuplicateClass `json:"classification"`
	Admitted   bool           `json:"admitted"`
}

// FingerprintOccurrence tracks every sighting of one base fingerprint within
// a single processing run. It is rebuilt from scratch each run and never
// persisted.
type FingerprintOccurrence struct {
	Fingerprint string       `json:"fingerprint"`
	Description string       `json:"description"`
	Instrument  string       `json:"instrument"`
	FirstFile   string       `json:"first_file"`
	FirstRange  DateRange    `json:"first_range"`
	Occurrences []Occurrence `json:"occurrences"`
}

// FileRecordStats is the per-file breakdown inside ProcessingStats.
type FileRecordStats struct {
	Filename          string `json:"filename"`
	TotalRecords      int    `json:"total_records"`
	UniqueRecords     int    `json:"unique_records"`
	DuplicatesRemoved int    `json:"duplicates_removed"`
}

// ProcessingStats is the derived summary for one processing run. It is
// recomputed on every request and never stored. WinRate counts only Win and
// Loss trades; breakevens affect neither the rate nor the averages.
type ProcessingStats struct {
	TotalRawRecords   int                     `json:"total_raw_records"`
	UniqueRecords     int                     `json:"unique_records"`
	DuplicatesRemoved int                     `json:"duplicates_removed"`
	FileBreakdown     []FileRecordStats       `json:"file_breakdown"`
	ProcessedTrades   int                     `json:"processed_trades"`
	TradesByType      map[string]int          `json:"trades_by_type"`
	TradesByStatus    map[string]int          `json:"trades_by_status"`
	TotalPnL          float64                 `json:"total_pnl"`
	WinRate           float64                 `json:"win_rate"`
	AvgWin            float64                 `json:"avg_win"`
	AvgLoss           float64                 `json:"avg_loss"`
	DateRangeStart    string                  `json:"date_range_start,omitempty"`
	DateRangeEnd      string                  `json:"date_range_end,omitempty"`
	Warnings          []string                `json:"processing_warnings"`
	Errors            []string                `json:"processing_errors"`
	DuplicateDetails  []FingerprintOccurrence `json:"duplicate_details"`
}

// ValidationCheck is one boolean sanity check in the verification report.
type ValidationCheck struct {
	Name     string `json:"name"`
	Category string `json:"category"` // data_integrity, completeness or consistency
	Passed   bool   `json:"passed"`
	Detail   string `json:"detail,omitempty"`
}

// ValidationReport summarizes all checks. Score is the percentage of checks
// that passed; Passed requires every check to pass. The report is advisory
// and never blocks a response.
type ValidationReport struct {
	Checks   []ValidationCheck `json:"checks"`
	Score    float64           `json:"score"`
	Passed   bool              `json:"passed"`
	Warnings []string          `json:"warnings"`
	Errors   []string          `json:"errors"`
}
