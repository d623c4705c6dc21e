package models

import "math"

// AmountToCents rounds a two-decimal amount to integer cents
func AmountToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func CentsToAmount(cents int64) float64 {
	return float64(cents) / 100
}

// RoundAmount rounds to two decimals
func RoundAmount(amount float64) float64 {
	return CentsToAmount(AmountToCents(amount))
}
