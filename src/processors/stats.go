package processors

import (
	"fmt"
	"math"

	"github.com/username/tradejournal/src/models"
	"github.com/username/tradejournal/src/utils"
)

// Fraction of the raw record count that per-file tallies must reach for the
// consistency check; the slack absorbs dedup removal.
const recordCountTolerance = 0.90

// BuildStats rolls one processing run into the derived summary. Pure
// aggregation: no I/O, no persistence, rebuilt on every request.
func BuildStats(dedup DedupResult, optResult, eqResult MatchResult, trades []models.CompletedTrade, processingErrors []string) models.ProcessingStats {
	stats := models.ProcessingStats{
		TotalRawRecords:   dedup.TotalRawRecords,
		UniqueRecords:     dedup.UniqueRecords,
		DuplicatesRemoved: dedup.DuplicatesRemoved,
		FileBreakdown:     dedup.FileStats,
		ProcessedTrades:   len(trades),
		TradesByType:      make(map[string]int),
		TradesByStatus:    make(map[string]int),
		Warnings:          []string{},
		Errors:            []string{},
		DuplicateDetails:  dedup.Details,
	}

	var totalPnL, winSum, lossSum float64
	var minClose, maxClose string
	for _, trade := range trades {
		stats.TradesByType[trade.TradeType]++
		stats.TradesByStatus[trade.Status]++
		totalPnL += trade.PnL

		switch trade.Status {
		case models.StatusWin:
			winSum += trade.PnL
		case models.StatusLoss:
			lossSum += trade.PnL
		}

		closeDate := utils.ParseDate(trade.CloseDate)
		if minClose == "" || closeDate.Before(utils.ParseDate(minClose)) {
			minClose = trade.CloseDate
		}
		if maxClose == "" || closeDate.After(utils.ParseDate(maxClose)) {
			maxClose = trade.CloseDate
		}
	}
	stats.TotalPnL = utils.RoundFloat(totalPnL, 2)
	stats.DateRangeStart = minClose
	stats.DateRangeEnd = maxClose

	wins := stats.TradesByStatus[models.StatusWin]
	losses := stats.TradesByStatus[models.StatusLoss]
	if wins+losses > 0 {
		stats.WinRate = utils.RoundFloat(100*float64(wins)/float64(wins+losses), 1)
	}
	if wins > 0 {
		stats.AvgWin = utils.RoundFloat(winSum/float64(wins), 2)
	}
	if losses > 0 {
		stats.AvgLoss = utils.RoundFloat(lossSum/float64(losses), 2)
	}

	stats.Warnings = append(stats.Warnings, dedup.Warnings...)
	stats.Warnings = append(stats.Warnings, optResult.Warnings...)
	stats.Warnings = append(stats.Warnings, eqResult.Warnings...)

	opens := optResult.OpenCount + eqResult.OpenCount
	closes := optResult.CloseCount + eqResult.CloseCount
	if opens > 0 && closes == 0 {
		stats.Warnings = append(stats.Warnings, fmt.Sprintf(
			"%d opening transactions but no closing transactions; all positions remain open", opens))
	}
	if closes > 0 && opens == 0 {
		stats.Warnings = append(stats.Warnings, fmt.Sprintf(
			"%d closing transactions but no opening transactions; export may be missing history", closes))
	}
	if stats.TotalRawRecords > 0 && len(trades) == 0 {
		stats.Warnings = append(stats.Warnings,
			"input contained records but no round-trip trades were completed")
	}

	stats.Errors = append(stats.Errors, processingErrors...)

	return stats
}

// Validate runs the structural sanity checks over a finished run. The report
// is advisory: a failing check never blocks the response.
func Validate(trades []models.CompletedTrade, files []models.FileMetadata, stats models.ProcessingStats) models.ValidationReport {
	var checks []models.ValidationCheck

	add := func(category, name string, passed bool, detail string) {
		checks = append(checks, models.ValidationCheck{
			Name: name, Category: category, Passed: passed, Detail: detail,
		})
	}

	add("data_integrity", "trades_present", len(trades) > 0,
		fmt.Sprintf("%d completed trades", len(trades)))
	add("data_integrity", "file_metadata_present", len(files) > 0,
		fmt.Sprintf("%d files tracked", len(files)))
	add("data_integrity", "trade_count_consistent", stats.ProcessedTrades == len(trades),
		fmt.Sprintf("stats report %d, trade list has %d", stats.ProcessedTrades, len(trades)))

	terminal := true
	for _, f := range files {
		if f.Status != models.FileStatusProcessed && f.Status != models.FileStatusError {
			terminal = false
			break
		}
	}
	add("completeness", "files_reached_terminal_status", terminal, "")
	add("completeness", "no_processing_errors", len(stats.Errors) == 0,
		fmt.Sprintf("%d errors", len(stats.Errors)))

	var fileRecordSum int
	for _, fb := range stats.FileBreakdown {
		fileRecordSum += fb.TotalRecords
	}
	countsOK := stats.TotalRawRecords == 0 ||
		float64(fileRecordSum) >= recordCountTolerance*float64(stats.TotalRawRecords)
	add("consistency", "record_counts_within_tolerance", countsOK,
		fmt.Sprintf("per-file sum %d vs %d raw", fileRecordSum, stats.TotalRawRecords))

	pnlOK := len(trades) == 0 || (!math.IsNaN(stats.TotalPnL) && !math.IsInf(stats.TotalPnL, 0))
	add("consistency", "pnl_defined", pnlOK, "")

	passedCount := 0
	for _, c := range checks {
		if c.Passed {
			passedCount++
		}
	}

	return models.ValidationReport{
		Checks:   checks,
		Score:    utils.RoundFloat(100*float64(passedCount)/float64(len(checks)), 1),
		Passed:   passedCount == len(checks),
		Warnings: stats.Warnings,
		Errors:   stats.Errors,
	}
}
