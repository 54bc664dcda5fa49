package processors

import "testing"

func TestParseOptionDescription(t *testing.T) {
	details, ok := ParseOptionDescription("AAPL 01/19/2024 Call $150.00")
	if !ok {
		t.Fatal("expected description to parse")
	}
	if details.Ticker != "AAPL" {
		t.Errorf("Ticker = %q, want AAPL", details.Ticker)
	}
	if details.Expiration != "01/19/2024" {
		t.Errorf("Expiration = %q, want 01/19/2024", details.Expiration)
	}
	if details.OptionType != "Call" {
		t.Errorf("OptionType = %q, want Call", details.OptionType)
	}
	if details.Strike != 150.00 {
		t.Errorf("Strike = %v, want 150.00", details.Strike)
	}
}

func TestParseOptionDescriptionUnpaddedDate(t *testing.T) {
	details, ok := ParseOptionDescription("AAPL 1/19/2024 Call $150.00")
	if !ok {
		t.Fatal("expected unpadded expiration date to parse")
	}
	if details.Expiration != "1/19/2024" {
		t.Errorf("Expiration = %q, want 1/19/2024", details.Expiration)
	}
	if details.Ticker != "AAPL" || details.Strike != 150.00 {
		t.Errorf("unexpected details: %+v", details)
	}
}

func TestParseOptionDescriptionPut(t *testing.T) {
	details, ok := ParseOptionDescription("SPY 03/15/2024 Put $410.50")
	if !ok {
		t.Fatal("expected description to parse")
	}
	if details.OptionType != "Put" || details.Strike != 410.50 || details.Ticker != "SPY" {
		t.Errorf("unexpected details: %+v", details)
	}
}

func TestParseOptionDescriptionMalformed(t *testing.T) {
	malformed := []string{
		"",
		"AAPL",
		"just some stock purchase",
		"AAPL 2024-01-19 Call $150.00",  // wrong date format
		"AAPL 01/19/2024 Straddle $150", // unknown contract type
		"aapl 01/19/2024 Call $150.00",  // lowercase ticker
	}
	for _, desc := range malformed {
		details, ok := ParseOptionDescription(desc)
		if ok {
			t.Errorf("ParseOptionDescription(%q) parsed unexpectedly: %+v", desc, details)
		}
		if details.Ticker != "" || details.Expiration != "" || details.OptionType != "" || details.Strike != 0 {
			t.Errorf("ParseOptionDescription(%q) should yield zero value, got %+v", desc, details)
		}
	}
}
