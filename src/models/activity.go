package models

import "time"

// Transaction codes recognized by the matchers. Any other code is carried
// through parsing but ignored by trade reconstruction.
const (
	CodeBTO  = "BTO"  // option buy to open
	CodeSTC  = "STC"  // option sell to close
	CodeOEXP = "OEXP" // option expiration
	CodeBuy  = "Buy"
	CodeSell = "Sell"
)

// Trade classification values used in CompletedTrade.
const (
	TradeTypeStock = "Stock"
	TradeTypeCall  = "Call Option"
	TradeTypePut   = "Put Option"

	StatusWin       = "Win"
	StatusLoss      = "Loss"
	StatusBreakeven = "Breakeven"
)

// ActivityRecord is one row from a brokerage activity export. String fields
// come straight from the CSV; numeric fields are populated by the normalizer
// (zero on parse failure, never an error).
type ActivityRecord struct {
	ActivityDate string  `json:"activity_date"`
	TransCode    string  `json:"trans_code"`
	Description  string  `json:"description"`
	Instrument   string  `json:"instrument"`
	Quantity     float64 `json:"quantity"`
	Price        float64 `json:"price"`
	Amount       float64 `json:"amount"`

	// Provenance, filled by the parser.
	SourceFile string `json:"source_file"`
	RowIndex   int    `json:"-"`

	// Parsed form of ActivityDate. Zero if the date was unparseable.
	Date time.Time `json:"-"`
}

// OptionDetails is the result of parsing an option description of the form
// "TICKER MM/DD/YYYY Call|Put $STRIKE". A malformed description yields the
// zero value rather than an error.
type OptionDetails struct {
	Ticker     string  `json:"ticker"`
	Expiration string  `json:"expiration"`
	OptionType string  `json:"option_type"`
	Strike     float64 `json:"strike"`
}

// OpenLot is an unmatched open position waiting to be consumed by closing
// transactions. Quantity and Amount shrink together as the lot is partially
// consumed; the lot is removed from its queue once Quantity drops below the
// matching epsilon.
type OpenLot struct {
	Quantity float64
	Amount   float64 // signed per the brokerage convention, negative for purchases
	Price    float64
	Date     time.Time
	DateStr  string
	Ticker   string
	Type     string // TradeTypeStock, TradeTypeCall or TradeTypePut
	Option   OptionDetails
	Source   string
}

// CompletedTrade is one matched round-trip slice. A single closing record may
// produce several of these when it consumes more than one open lot.
type CompletedTrade struct {
	Symbol      string  `json:"symbol"`
	OpenDate    string  `json:"open_date"`
	CloseDate   string  `json:"close_date"`
	Quantity    float64 `json:"quantity"`
	BuyPrice    float64 `json:"buy_price"`
	SellPrice   float64 `json:"sell_price"`
	StrikePrice float64 `json:"strike_price,omitempty"`
	Expiration  string  `json:"expiration,omitempty"`
	HoldingDays int     `json:"holding_days"`
	TradeType   string  `json:"trade_type"`
	PnL         float64 `json:"pnl"`
	Status      string  `json:"status"`
	SourceFile  string  `json:"source_file"`
}

// StatusForPnL classifies a realized P&L. Exact zero is a breakeven.
func StatusForPnL(pnl float64) string {
	switch {
	case pnl > 0:
		return StatusWin
	case pnl < 0:
		return StatusLoss
	default:
		return StatusBreakeven
	}
}
