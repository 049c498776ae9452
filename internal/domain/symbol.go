package domain

import "strings"

// highPipSymbols are instruments quoted with one decimal of pip precision:
// JPY crosses, metals, indices, and synthetic volatility products.
var highPipSymbols = []string{
	"JPY", "V75", "V10", "V25", "V50", "V100",
	"R_", "BOOM", "CRASH", "STEP", "JUMP", "1HZ",
	"XAU", "XAG", "US30", "NAS", "GER", "US500", "UK100",
}

// alwaysOpenKeys mark 24/7 instruments (crypto and synthetics) that have no
// weekend market closure.
var alwaysOpenKeys = []string{
	"BTC", "ETH", "SOL", "USDT", "R_",
	"V75", "V10", "V25", "V50", "V100",
	"1HZ", "BOOM", "CRASH", "JUMP", "STEP",
}

// PipValue returns the pip divisor for a symbol, so that pips / PipValue
// yields a price distance. Crypto is scaled per asset price magnitude.
func PipValue(symbol string) float64 {
	clean := strings.ToUpper(symbol)
	if strings.Contains(clean, "BTC") {
		return 0.1 // 1 pip ~ $10
	}
	if strings.Contains(clean, "ETH") {
		return 1 // 1 pip ~ $1
	}
	if strings.Contains(clean, "SOL") {
		return 10 // 1 pip ~ $0.1
	}
	for _, k := range highPipSymbols {
		if strings.Contains(clean, k) {
			return 10
		}
	}
	return 10000
}

// AlwaysOpen reports whether a symbol trades around the clock.
func AlwaysOpen(symbol string) bool {
	clean := strings.ToUpper(symbol)
	for _, k := range alwaysOpenKeys {
		if strings.Contains(clean, k) {
			return true
		}
	}
	return false
}
