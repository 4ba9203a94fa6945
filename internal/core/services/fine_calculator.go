package services

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// FineResult is the outcome of one late-return computation
type FineResult struct {
	DaysLate int
	Amount   decimal.Decimal
}

// FineCalculator prices late returns. It has no state and never fails.
type FineCalculator struct{}

// Compute charges dailyRate per started day past dueAt, capped at maxCap.
// A non-positive maxCap means no cap.
func (FineCalculator) Compute(dueAt, returnedAt time.Time, dailyRate, maxCap decimal.Decimal) FineResult {
	late := returnedAt.Sub(dueAt)
	if late <= 0 {
		return FineResult{Amount: decimal.Zero}
	}

	days := int(math.Ceil(late.Hours() / 24))
	amount := dailyRate.Mul(decimal.NewFromInt(int64(days))).Round(2)
	if maxCap.IsPositive() && amount.GreaterThan(maxCap) {
		amount = maxCap
	}
	return FineResult{DaysLate: days, Amount: amount}
}
