package domain

import "strings"

// currencyAliases maps display currency codes to the backend codes the
// ledger carries, and back. Two codes joined by an alias denote the same
// underlying asset; resolution always tries the display code first and
// the canonical code second.
var currencyAliases = map[string]string{
	"USDT": "USD",
	"EURC": "EUR",
	"GBPT": "GBP",
	"JPYT": "JPY",
	"USD":  "USDT",
	"EUR":  "EURC",
	"GBP":  "GBPT",
	"JPY":  "JPYT",
}

// NormalizeCurrency uppercases and trims a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CurrencyAlias returns the aliased code for a display code, if any.
func CurrencyAlias(code string) (string, bool) {
	alias, ok := currencyAliases[NormalizeCurrency(code)]
	return alias, ok
}

// CanonicalCurrency maps a display code to its backend code. Codes
// without an alias are already canonical.
func CanonicalCurrency(code string) string {
	normalized := NormalizeCurrency(code)
	if alias, ok := currencyAliases[normalized]; ok {
		return alias
	}
	return normalized
}

// SameCurrency reports whether two codes denote the same underlying
// asset, directly or through the alias table.
func SameCurrency(a, b string) bool {
	a, b = NormalizeCurrency(a), NormalizeCurrency(b)
	if a == b {
		return true
	}
	if alias, ok := currencyAliases[a]; ok && alias == b {
		return true
	}
	return false
}
