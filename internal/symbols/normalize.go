// Package symbols canonicalizes user-supplied tickers into the form used
// for market-data fetches and artifact storage keys.
package symbols

import "strings"

// usStocks are tickers always treated as US listings.
var usStocks = map[string]struct{}{
	"AAPL": {}, "ADBE": {}, "AMD": {}, "AMZN": {}, "GOOGL": {}, "INTC": {}, "JPM": {},
	"META": {}, "MSFT": {}, "NFLX": {}, "NVDA": {}, "TSLA": {}, "V": {}, "WMT": {},
	"BA": {}, "BAC": {}, "CRM": {}, "CSCO": {}, "DIS": {}, "JNJ": {}, "KO": {},
	"MA": {}, "MCD": {}, "NKE": {}, "ORCL": {}, "PEP": {}, "PG": {}, "PYPL": {},
}

// indianStocks are NSE base tickers that get the .NS suffix appended.
var indianStocks = map[string]struct{}{
	"HDFCBANK": {}, "INFY": {}, "RELIANCE": {}, "TCS": {}, "ICICIBANK": {},
	"SBIN": {}, "WIPRO": {}, "TITAN": {}, "BAJFINANCE": {}, "MARUTI": {},
	"HINDUNILVR": {}, "BHARTIARTL": {}, "ITC": {}, "AXISBANK": {},
	"KOTAKBANK": {}, "LT": {}, "HCLTECH": {}, "TECHM": {}, "NESTLEIND": {},
	"SUNPHARMA": {}, "DRREDDY": {}, "CIPLA": {}, "ONGC": {}, "BPCL": {},
	"ADANIENT": {}, "ADANIPORTS": {}, "BAJAJ-AUTO": {}, "INDUSINDBK": {},
	"M&M": {}, "ASIANPAINT": {},
}

// HasArtifactFunc reports whether any trained artifact exists for the given
// canonical symbol. Injected so normalization stays free of storage
// dependencies and trivially testable.
type HasArtifactFunc func(symbol string) bool

// Normalize canonicalizes a ticker. Handles AAPL, HDFCBANK.NS, HDFCBANK_NS
// and lowercase variants. Deterministic and idempotent; never touches the
// network. hasArtifact may be nil, which skips the registry probe.
func Normalize(symbol string, hasArtifact HasArtifactFunc) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))

	// Underscore-style market suffix written by some clients.
	if strings.HasSuffix(s, "_NS") {
		s = s[:len(s)-3] + ".NS"
	}

	// Already suffixed (.NS, .BO, ...).
	if strings.Contains(s, ".") {
		return s
	}

	if _, ok := usStocks[s]; ok {
		return s
	}
	if _, ok := indianStocks[s]; ok {
		return s + ".NS"
	}

	// A trained model under the suffixed form settles the ambiguity.
	if hasArtifact != nil && hasArtifact(s+".NS") {
		return s + ".NS"
	}

	// Default: assume a US listing.
	return s
}
