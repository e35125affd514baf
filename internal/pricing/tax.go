// Package pricing holds the pure money and calendar helpers used when valuing baskets.
package pricing

import "math"

// DeliveryMomsRate is the moms rate applied to delivery charges.
const DeliveryMomsRate = 25

// ComputeTax back-calculates the moms contained in a tax-inclusive gross amount.
// Amounts are in öre; the result is rounded to the nearest öre with halves rounded
// towards positive infinity. Negative gross amounts are reversals.
func ComputeTax(gross int64, ratePercent int) int64 {
	if gross == 0 || ratePercent == 0 {
		return 0
	}

	g := float64(gross)
	net := g / (1 + float64(ratePercent)/100)

	return int64(math.Floor(g - net + 0.5))
}
