package processors

import (
	"math"
	"strings"
	"testing"

	"github.com/username/tradejournal/src/models"
	"github.com/username/tradejournal/src/utils"
)

func activityRecord(date, code, description, instrument string, qty, price, amount float64) models.ActivityRecord {
	return models.ActivityRecord{
		ActivityDate: date,
		TransCode:    code,
		Description:  description,
		Instrument:   instrument,
		Quantity:     qty,
		Price:        price,
		Amount:       amount,
		Date:         utils.ParseDate(date),
		SourceFile:   "test.csv",
	}
}

func TestEquitiesFIFOOrdering(t *testing.T) {
	records := []models.ActivityRecord{
		activityRecord("01/01/2024", models.CodeBuy, "", "AAPL", 10, 10, -100),
		activityRecord("01/02/2024", models.CodeBuy, "", "AAPL", 10, 20, -200),
		activityRecord("01/03/2024", models.CodeSell, "", "AAPL", 15, 30, 450),
	}

	result := NewEquitiesMatcher().Match(records)

	if len(result.Trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(result.Trades))
	}

	first := result.Trades[0]
	if first.Quantity != 10 || first.BuyPrice != 10 {
		t.Errorf("first trade should consume the earliest lot fully: %+v", first)
	}
	if first.PnL != 200 {
		t.Errorf("first trade PnL = %v, want 200", first.PnL)
	}
	if first.Status != models.StatusWin {
		t.Errorf("first trade status = %q, want Win", first.Status)
	}

	second := result.Trades[1]
	if second.Quantity != 5 || second.BuyPrice != 20 {
		t.Errorf("second trade should partially consume the second lot: %+v", second)
	}
	if second.PnL != 50 {
		t.Errorf("second trade PnL = %v, want 50", second.PnL)
	}

	remaining := result.RemainingLots["AAPL"]
	if len(remaining) != 1 || remaining[0].Quantity != 5 {
		t.Errorf("expected 5 shares remaining in the second lot, got %+v", remaining)
	}
}

func TestEquitiesSameDayOpenBeforeClose(t *testing.T) {
	// Close listed before the open in the input; the code-precedence tie-break
	// must still put the lot in place first.
	records := []models.ActivityRecord{
		activityRecord("01/05/2024", models.CodeSell, "", "TSLA", 5, 220, 1100),
		activityRecord("01/05/2024", models.CodeBuy, "", "TSLA", 5, 200, -1000),
	}

	result := NewEquitiesMatcher().Match(records)

	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d (warnings: %v)", len(result.Trades), result.Warnings)
	}
	if result.Trades[0].PnL != 100 {
		t.Errorf("PnL = %v, want 100", result.Trades[0].PnL)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}

func TestEpsilonClosure(t *testing.T) {
	// A lot left with a numerically-tiny remainder must be popped, not left
	// dangling to absorb future closes.
	records := []models.ActivityRecord{
		activityRecord("01/01/2024", models.CodeBuy, "", "MSFT", 10, 100, -1000),
		activityRecord("01/02/2024", models.CodeSell, "", "MSFT", 10 - 1e-10, 110, 1100),
	}

	result := NewEquitiesMatcher().Match(records)

	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(result.Trades))
	}
	if lots := result.RemainingLots["MSFT"]; len(lots) != 0 {
		t.Errorf("lot with remainder below epsilon should be removed, got %+v", lots)
	}
}

func TestStatusClassificationBoundary(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{100, models.StatusBreakeven},
		{100.01, models.StatusWin},
		{99.99, models.StatusLoss},
	}

	for _, tt := range tests {
		records := []models.ActivityRecord{
			activityRecord("01/01/2024", models.CodeBuy, "", "NVDA", 1, 100, -100),
			activityRecord("01/02/2024", models.CodeSell, "", "NVDA", 1, tt.amount, tt.amount),
		}
		result := NewEquitiesMatcher().Match(records)
		if len(result.Trades) != 1 {
			t.Fatalf("expected 1 trade for close amount %v", tt.amount)
		}
		if got := result.Trades[0].Status; got != tt.want {
			t.Errorf("close amount %v: status = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestOptionExpirationClosesAtZero(t *testing.T) {
	desc := "AAPL 01/19/2024 Call $150.00"
	records := []models.ActivityRecord{
		activityRecord("01/02/2024", models.CodeBTO, desc, "AAPL", 1, 1.50, -150),
		activityRecord("01/19/2024", models.CodeOEXP, desc, "AAPL", 1, 0, 0),
	}

	result := NewOptionsMatcher().Match(records)

	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(result.Trades))
	}
	trade := result.Trades[0]
	if trade.SellPrice != 0 {
		t.Errorf("expiration sell price = %v, want 0", trade.SellPrice)
	}
	if trade.PnL != -150 {
		t.Errorf("PnL = %v, want -150", trade.PnL)
	}
	if trade.Status != models.StatusLoss {
		t.Errorf("status = %q, want Loss", trade.Status)
	}
	if trade.TradeType != models.TradeTypeCall {
		t.Errorf("trade type = %q, want %q", trade.TradeType, models.TradeTypeCall)
	}
	if trade.Symbol != "AAPL" || trade.StrikePrice != 150 || trade.Expiration != "01/19/2024" {
		t.Errorf("contract details not carried: %+v", trade)
	}
	if trade.HoldingDays != 17 {
		t.Errorf("holding days = %d, want 17", trade.HoldingDays)
	}
}

func TestOptionPartialCloseAcrossLots(t *testing.T) {
	desc := "SPY 03/15/2024 Put $410.50"
	records := []models.ActivityRecord{
		activityRecord("02/01/2024", models.CodeBTO, desc, "SPY", 2, 1.00, -200),
		activityRecord("02/05/2024", models.CodeBTO, desc, "SPY", 2, 2.00, -400),
		activityRecord("02/10/2024", models.CodeSTC, desc, "SPY", 3, 3.00, 900),
	}

	result := NewOptionsMatcher().Match(records)

	if len(result.Trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(result.Trades))
	}
	// Proceeds per contract are 300 across both slices.
	if got := result.Trades[0].PnL; math.Abs(got-400) > 1e-9 {
		t.Errorf("first slice PnL = %v, want 400", got)
	}
	if got := result.Trades[1].PnL; math.Abs(got-100) > 1e-9 {
		t.Errorf("second slice PnL = %v, want 100", got)
	}
	if result.Trades[0].TradeType != models.TradeTypePut {
		t.Errorf("trade type = %q, want %q", result.Trades[0].TradeType, models.TradeTypePut)
	}
}

func TestExcessCloseQuantityWarns(t *testing.T) {
	records := []models.ActivityRecord{
		activityRecord("01/01/2024", models.CodeBuy, "", "AMD", 5, 100, -500),
		activityRecord("01/02/2024", models.CodeSell, "", "AMD", 8, 110, 880),
	}

	result := NewEquitiesMatcher().Match(records)

	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade for the matched portion, got %d", len(result.Trades))
	}
	if result.Trades[0].Quantity != 5 {
		t.Errorf("matched quantity = %v, want 5", result.Trades[0].Quantity)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected a warning for the unmatched excess, got %v", result.Warnings)
	}
	if !strings.Contains(result.Warnings[0], "exceeds open quantity") {
		t.Errorf("warning does not mention the excess: %q", result.Warnings[0])
	}
}

func TestMatchersIgnoreForeignCodes(t *testing.T) {
	records := []models.ActivityRecord{
		activityRecord("01/01/2024", models.CodeBTO, "AAPL 01/19/2024 Call $150.00", "AAPL", 1, 1.50, -150),
		activityRecord("01/01/2024", models.CodeBuy, "", "AAPL", 10, 100, -1000),
		activityRecord("01/02/2024", "ACH", "ACH deposit", "", 0, 0, 500),
	}

	optResult := NewOptionsMatcher().Match(records)
	eqResult := NewEquitiesMatcher().Match(records)

	if optResult.OpenCount != 1 || eqResult.OpenCount != 1 {
		t.Errorf("each matcher should see exactly its own opening record: opt=%d eq=%d",
			optResult.OpenCount, eqResult.OpenCount)
	}
}
