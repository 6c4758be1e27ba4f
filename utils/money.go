package utils

import "math"

// ToMinorUnits converts a major-unit amount (e.g. dollars) to the
// gateway's integer minor units (e.g. cents).
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
