package broker

import (
	"github.com/shopspring/decimal"
)

// MaxQuantity returns the largest quantity that balance can buy at price,
// fees included.
func MaxQuantity(balance float64, price float64, fee CommissionFee) float64 {
	if price <= 0 || balance <= 0 {
		return 0
	}

	maxQty := balance / price

	// usually converges in one or two rounds
	for range 10 {
		totalCost := maxQty*price + fee.Calculate(maxQty)
		if totalCost <= balance {
			break
		}

		maxQty *= balance / totalCost
	}

	return maxQty
}

// RoundToDecimalPrecision truncates quantity to the given number of decimals.
func RoundToDecimalPrecision(quantity float64, decimalPrecision int) float64 {
	return decimal.NewFromFloat(quantity).Truncate(int32(decimalPrecision)).InexactFloat64()
}

// QuantityByPercentage sizes an order spending percentage of balance.
func QuantityByPercentage(balance float64, price float64, fee CommissionFee, percentage float64) float64 {
	return MaxQuantity(balance*percentage, price, fee)
}
