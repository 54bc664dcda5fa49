package processors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/username/tradejournal/src/models"
	"github.com/username/tradejournal/src/utils"
)

// MatchEpsilon is the remaining-quantity threshold below which an open lot is
// considered fully consumed. Strict zero would leave lots dangling after
// rounding; anything this small can never be matched again anyway.
const MatchEpsilon = 1e-9

// LotMatcher reconstructs round-trip trades by consuming open lots in FIFO
// order. The same algorithm serves both instruments; the two instances differ
// only in lot key, code set and close-price resolution.
type LotMatcher struct {
	name       string
	openCodes  map[string]bool
	closeCodes map[string]bool
	precedence map[string]int
	lotKey     func(models.ActivityRecord) string
	closePrice func(models.ActivityRecord) float64
	newLot     func(models.ActivityRecord) models.OpenLot
}

// NewOptionsMatcher matches option contracts. Lots are keyed by the contract
// description, which uniquely identifies a contract series in the export.
func NewOptionsMatcher() *LotMatcher {
	return &LotMatcher{
		name:       "option",
		openCodes:  map[string]bool{models.CodeBTO: true},
		closeCodes: map[string]bool{models.CodeSTC: true, models.CodeOEXP: true},
		// Opens sort before closes on the same day so a lot exists before
		// same-day consumption.
		precedence: map[string]int{models.CodeBTO: 0, models.CodeSTC: 1, models.CodeOEXP: 2},
		lotKey:     func(rec models.ActivityRecord) string { return rec.Description },
		closePrice: func(rec models.ActivityRecord) float64 {
			if rec.TransCode == models.CodeOEXP {
				return 0 // expired worthless, no sale proceeds
			}
			return rec.Price
		},
		newLot: newOptionLot,
	}
}

// NewEquitiesMatcher matches share trades, keyed by ticker symbol.
func NewEquitiesMatcher() *LotMatcher {
	return &LotMatcher{
		name:       "equity",
		openCodes:  map[string]bool{models.CodeBuy: true},
		closeCodes: map[string]bool{models.CodeSell: true},
		precedence: map[string]int{models.CodeBuy: 0, models.CodeSell: 1},
		lotKey:     func(rec models.ActivityRecord) string { return rec.Instrument },
		closePrice: func(rec models.ActivityRecord) float64 { return rec.Price },
		newLot: func(rec models.ActivityRecord) models.OpenLot {
			return models.OpenLot{
				Quantity: rec.Quantity,
				Amount:   rec.Amount,
				Price:    rec.Price,
				Date:     rec.Date,
				DateStr:  rec.ActivityDate,
				Ticker:   rec.Instrument,
				Type:     models.TradeTypeStock,
				Source:   rec.SourceFile,
			}
		},
	}
}

func newOptionLot(rec models.ActivityRecord) models.OpenLot {
	lot := models.OpenLot{
		Quantity: rec.Quantity,
		Amount:   rec.Amount,
		Price:    rec.Price,
		Date:     rec.Date,
		DateStr:  rec.ActivityDate,
		Ticker:   rec.Instrument,
		Source:   rec.SourceFile,
	}
	if details, ok := ParseOptionDescription(rec.Description); ok {
		lot.Option = details
		lot.Ticker = details.Ticker
	}
	if lot.Option.OptionType == "Put" || strings.Contains(rec.Description, "Put") {
		lot.Type = models.TradeTypePut
	} else {
		lot.Type = models.TradeTypeCall
	}
	return lot
}

// MatchResult carries the completed trades for one matcher instance along
// with everything the aggregation layer wants to know about the pass.
type MatchResult struct {
	Trades        []models.CompletedTrade
	RemainingLots map[string][]models.OpenLot
	Warnings      []string
	OpenCount     int
	CloseCount    int
}

// Match runs one FIFO pass over the record set. Records the matcher's code
// set does not recognize are ignored; the options and equities instances can
// therefore be handed the same deduplicated set.
func (m *LotMatcher) Match(records []models.ActivityRecord) MatchResult {
	var relevant []models.ActivityRecord
	for _, rec := range records {
		if (m.openCodes[rec.TransCode] || m.closeCodes[rec.TransCode]) && m.lotKey(rec) != "" {
			relevant = append(relevant, rec)
		}
	}

	// Temporal order, with code precedence breaking same-day ties. The sort
	// is stable so equal records keep their file order.
	sort.SliceStable(relevant, func(i, j int) bool {
		if !relevant[i].Date.Equal(relevant[j].Date) {
			return relevant[i].Date.Before(relevant[j].Date)
		}
		return m.precedence[relevant[i].TransCode] < m.precedence[relevant[j].TransCode]
	})

	result := MatchResult{RemainingLots: make(map[string][]models.OpenLot)}
	queues := make(map[string][]*models.OpenLot)

	for _, rec := range relevant {
		key := m.lotKey(rec)

		if m.openCodes[rec.TransCode] {
			result.OpenCount++
			lot := m.newLot(rec)
			queues[key] = append(queues[key], &lot)
			continue
		}

		result.CloseCount++
		remaining := rec.Quantity
		closeTotalQty := rec.Quantity
		sellPrice := m.closePrice(rec)

		for remaining > MatchEpsilon && len(queues[key]) > 0 {
			lot := queues[key][0]
			lotQty := utils.MinFloat(remaining, lot.Quantity)

			// Cost basis is re-derived from the lot's current remaining
			// amount/quantity so partial consumption stays proportional.
			// Proceeds are per-unit over the whole close record, constant
			// across every lot it touches.
			var costBasis float64
			if lot.Quantity > 0 {
				costBasis = lot.Amount / lot.Quantity * lotQty
			}
			var proceeds float64
			if closeTotalQty > 0 {
				proceeds = rec.Amount / closeTotalQty * lotQty
			}

			// Amount is signed by the brokerage convention (purchases
			// negative), so proceeds + cost is realized P&L.
			pnl := proceeds + costBasis

			result.Trades = append(result.Trades, models.CompletedTrade{
				Symbol:      m.symbolFor(lot, rec, key),
				OpenDate:    lot.DateStr,
				CloseDate:   rec.ActivityDate,
				Quantity:    lotQty,
				BuyPrice:    lot.Price,
				SellPrice:   sellPrice,
				StrikePrice: lot.Option.Strike,
				Expiration:  lot.Option.Expiration,
				HoldingDays: utils.HoldingDays(lot.Date, rec.Date),
				TradeType:   lot.Type,
				PnL:         pnl,
				Status:      models.StatusForPnL(pnl),
				SourceFile:  rec.SourceFile,
			})

			lot.Quantity -= lotQty
			lot.Amount -= costBasis
			remaining -= lotQty

			if lot.Quantity < MatchEpsilon {
				queues[key] = queues[key][1:]
			}
		}

		if remaining > MatchEpsilon {
			// Flagged rather than silently dropped: usually means the export
			// window starts after the position was opened, or a short sale.
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%s close on %s for %q exceeds open quantity by %s units; excess not matched (missing history or short position?)",
				m.name, rec.ActivityDate, key, trimQty(remaining)))
		}
	}

	for key, lots := range queues {
		for _, lot := range lots {
			result.RemainingLots[key] = append(result.RemainingLots[key], *lot)
		}
	}

	return result
}

func (m *LotMatcher) symbolFor(lot *models.OpenLot, rec models.ActivityRecord, key string) string {
	if lot.Ticker != "" {
		return lot.Ticker
	}
	if rec.Instrument != "" {
		return rec.Instrument
	}
	return key
}

func trimQty(q float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", q), "0"), ".")
}
