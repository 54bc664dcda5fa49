package processors

import (
	"strings"
	"testing"
	"time"

	"github.com/username/tradejournal/src/models"
)

func sampleTrades() []models.CompletedTrade {
	return []models.CompletedTrade{
		{Symbol: "AAPL", CloseDate: "01/19/2024", TradeType: models.TradeTypeCall, PnL: -150, Status: models.StatusLoss, SourceFile: "jan.csv"},
		{Symbol: "AAPL", CloseDate: "01/03/2024", TradeType: models.TradeTypeStock, PnL: 200, Status: models.StatusWin, SourceFile: "jan.csv"},
		{Symbol: "AAPL", CloseDate: "01/03/2024", TradeType: models.TradeTypeStock, PnL: 50, Status: models.StatusWin, SourceFile: "jan.csv"},
	}
}

func TestBuildStatsAggregation(t *testing.T) {
	dedup := DedupResult{
		TotalRawRecords:   6,
		UniqueRecords:     5,
		DuplicatesRemoved: 1,
		FileStats: []models.FileRecordStats{
			{Filename: "jan.csv", TotalRecords: 6, UniqueRecords: 5, DuplicatesRemoved: 1},
		},
	}
	trades := sampleTrades()

	stats := BuildStats(dedup, MatchResult{OpenCount: 2, CloseCount: 2}, MatchResult{OpenCount: 1, CloseCount: 1}, trades, nil)

	if stats.ProcessedTrades != 3 {
		t.Errorf("ProcessedTrades = %d, want 3", stats.ProcessedTrades)
	}
	if stats.TradesByType[models.TradeTypeStock] != 2 || stats.TradesByType[models.TradeTypeCall] != 1 {
		t.Errorf("TradesByType = %v", stats.TradesByType)
	}
	if stats.TradesByStatus[models.StatusWin] != 2 || stats.TradesByStatus[models.StatusLoss] != 1 {
		t.Errorf("TradesByStatus = %v", stats.TradesByStatus)
	}
	if stats.TotalPnL != 100 {
		t.Errorf("TotalPnL = %v, want 100", stats.TotalPnL)
	}
	if stats.WinRate != 66.7 {
		t.Errorf("WinRate = %v, want 66.7", stats.WinRate)
	}
	if stats.AvgWin != 125 || stats.AvgLoss != -150 {
		t.Errorf("AvgWin/AvgLoss = %v/%v, want 125/-150", stats.AvgWin, stats.AvgLoss)
	}
	if stats.DateRangeStart != "01/03/2024" || stats.DateRangeEnd != "01/19/2024" {
		t.Errorf("date range = %s..%s", stats.DateRangeStart, stats.DateRangeEnd)
	}
	if len(stats.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", stats.Warnings)
	}
}

func TestBuildStatsPerformanceMetrics(t *testing.T) {
	tests := []struct {
		name    string
		pnls    []float64
		winRate float64
		avgWin  float64
		avgLoss float64
	}{
		{"no trades", nil, 0, 0, 0},
		{"all wins", []float64{100, 300}, 100, 200, 0},
		{"all losses", []float64{-100, -50}, 0, 0, -75},
		{"breakeven excluded from rate", []float64{100, 0, -50}, 50, 100, -50},
		{"mixed", []float64{200, 50, -150}, 66.7, 125, -150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var trades []models.CompletedTrade
			for _, pnl := range tt.pnls {
				trades = append(trades, models.CompletedTrade{
					Symbol:    "AAPL",
					CloseDate: "01/03/2024",
					TradeType: models.TradeTypeStock,
					PnL:       pnl,
					Status:    models.StatusForPnL(pnl),
				})
			}

			stats := BuildStats(DedupResult{}, MatchResult{}, MatchResult{}, trades, nil)

			if stats.WinRate != tt.winRate {
				t.Errorf("WinRate = %v, want %v", stats.WinRate, tt.winRate)
			}
			if stats.AvgWin != tt.avgWin {
				t.Errorf("AvgWin = %v, want %v", stats.AvgWin, tt.avgWin)
			}
			if stats.AvgLoss != tt.avgLoss {
				t.Errorf("AvgLoss = %v, want %v", stats.AvgLoss, tt.avgLoss)
			}
		})
	}
}

func TestBuildStatsWarnings(t *testing.T) {
	dedup := DedupResult{TotalRawRecords: 4, UniqueRecords: 4}

	stats := BuildStats(dedup, MatchResult{OpenCount: 4}, MatchResult{}, nil, nil)

	var sawNoCloses, sawNoTrades bool
	for _, w := range stats.Warnings {
		if strings.Contains(w, "no closing transactions") {
			sawNoCloses = true
		}
		if strings.Contains(w, "no round-trip trades") {
			sawNoTrades = true
		}
	}
	if !sawNoCloses {
		t.Errorf("missing open/close imbalance warning: %v", stats.Warnings)
	}
	if !sawNoTrades {
		t.Errorf("missing zero-completed-trades warning: %v", stats.Warnings)
	}
}

func TestValidatePassing(t *testing.T) {
	trades := sampleTrades()
	files := []models.FileMetadata{
		{Filename: "jan.csv", Status: models.FileStatusProcessed, UploadedAt: time.Now()},
	}
	stats := models.ProcessingStats{
		TotalRawRecords: 6,
		ProcessedTrades: len(trades),
		TotalPnL:        100,
		FileBreakdown: []models.FileRecordStats{
			{Filename: "jan.csv", TotalRecords: 6},
		},
	}

	report := Validate(trades, files, stats)

	if !report.Passed {
		t.Fatalf("expected all checks to pass: %+v", report.Checks)
	}
	if report.Score != 100 {
		t.Errorf("Score = %v, want 100", report.Score)
	}
}

func TestValidateFailures(t *testing.T) {
	files := []models.FileMetadata{
		{Filename: "bad.csv", Status: models.FileStatusPending},
	}
	stats := models.ProcessingStats{
		TotalRawRecords: 100,
		ProcessedTrades: 5, // trade list is empty below
		Errors:          []string{"file bad.csv: parse failure"},
		FileBreakdown: []models.FileRecordStats{
			{Filename: "bad.csv", TotalRecords: 10}, // far below the raw count
		},
	}

	report := Validate(nil, files, stats)

	if report.Passed {
		t.Fatal("expected validation to fail")
	}
	if report.Score >= 100 {
		t.Errorf("Score = %v, want < 100", report.Score)
	}

	failed := make(map[string]bool)
	for _, c := range report.Checks {
		if !c.Passed {
			failed[c.Name] = true
		}
	}
	for _, name := range []string{
		"trades_present",
		"trade_count_consistent",
		"files_reached_terminal_status",
		"no_processing_errors",
		"record_counts_within_tolerance",
	} {
		if !failed[name] {
			t.Errorf("expected check %q to fail", name)
		}
	}
}
