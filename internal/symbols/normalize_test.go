package symbols

import "testing"

func TestNormalizeUS(t *testing.T) {
	if got := Normalize("aapl", nil); got != "AAPL" {
		t.Fatalf("expected AAPL, got %s", got)
	}
	if got := Normalize("  MSFT ", nil); got != "MSFT" {
		t.Fatalf("expected MSFT, got %s", got)
	}
}

func TestNormalizeIndian(t *testing.T) {
	if got := Normalize("hdfcbank", nil); got != "HDFCBANK.NS" {
		t.Fatalf("expected HDFCBANK.NS, got %s", got)
	}
	if got := Normalize("M&M", nil); got != "M&M.NS" {
		t.Fatalf("expected M&M.NS, got %s", got)
	}
}

func TestNormalizeUnderscoreSuffix(t *testing.T) {
	if got := Normalize("HDFCBANK_NS", nil); got != "HDFCBANK.NS" {
		t.Fatalf("expected HDFCBANK.NS, got %s", got)
	}
	if got := Normalize("reliance_ns", nil); got != "RELIANCE.NS" {
		t.Fatalf("expected RELIANCE.NS, got %s", got)
	}
}

func TestNormalizeDotSuffixUnchanged(t *testing.T) {
	// Any already-suffixed symbol passes through, even unknown markets.
	for _, s := range []string{"HDFCBANK.NS", "SIEMENS.BO", "VOD.L"} {
		if got := Normalize(s, nil); got != s {
			t.Fatalf("suffixed %s changed to %s", s, got)
		}
	}
}

func TestNormalizeArtifactProbe(t *testing.T) {
	probe := func(symbol string) bool { return symbol == "ZOMATO.NS" }

	if got := Normalize("ZOMATO", probe); got != "ZOMATO.NS" {
		t.Fatalf("expected ZOMATO.NS, got %s", got)
	}
	// No artifact under the suffixed form: default to a US listing.
	if got := Normalize("SHOP", probe); got != "SHOP" {
		t.Fatalf("expected SHOP, got %s", got)
	}
	// A known US ticker never consults the probe.
	if got := Normalize("AAPL", func(string) bool { return true }); got != "AAPL" {
		t.Fatalf("expected AAPL, got %s", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, s := range []string{"aapl", "hdfcbank", "HDFCBANK_NS", "XYZ", "VOD.L"} {
		once := Normalize(s, nil)
		twice := Normalize(once, nil)
		if once != twice {
			t.Fatalf("%s: not idempotent (%s then %s)", s, once, twice)
		}
	}
}
