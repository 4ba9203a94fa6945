package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestFineCalculatorCompute(t *testing.T) {
	due := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	calc := FineCalculator{}

	tests := []struct {
		name     string
		returned time.Time
		rate     string
		cap      string
		days     int
		amount   string
	}{
		{"five days late", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "2.00", "20.00", 5, "10"},
		{"cap applies", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "2.00", "20.00", 22, "20"},
		{"on time", due, "2.00", "20.00", 0, "0"},
		{"early", due.Add(-48 * time.Hour), "2.00", "20.00", 0, "0"},
		{"one second late counts a day", due.Add(time.Second), "2.00", "20.00", 1, "2"},
		{"partial day rounds up", due.Add(49 * time.Hour), "2.00", "20.00", 3, "6"},
		{"zero cap means uncapped", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "2.00", "0", 22, "44"},
		{"fractional rate", due.Add(72 * time.Hour), "0.333", "20.00", 3, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Compute(due, tt.returned, dec(tt.rate), dec(tt.cap))
			assert.Equal(t, tt.days, got.DaysLate)
			assert.True(t, got.Amount.Equal(dec(tt.amount)), "amount %s, want %s", got.Amount, tt.amount)
		})
	}
}

func TestFineCalculatorIsDeterministic(t *testing.T) {
	due := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	calc := FineCalculator{}

	for offset := time.Duration(0); offset < 40*24*time.Hour; offset += 7 * time.Hour {
		first := calc.Compute(due, due.Add(offset), dec("1.25"), dec("15.00"))
		second := calc.Compute(due, due.Add(offset), dec("1.25"), dec("15.00"))
		assert.Equal(t, first.DaysLate, second.DaysLate)
		assert.True(t, first.Amount.Equal(second.Amount))
	}
}

func TestFineCalculatorCapIsExact(t *testing.T) {
	due := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	calc := FineCalculator{}

	rates := []string{"2.00", "3.00", "0.75", "7.50"}
	caps := []string{"20.00", "10.00", "5.25"}

	for _, rate := range rates {
		for _, limit := range caps {
			threshold := dec(limit).Div(dec(rate)).IntPart()
			for days := threshold + 1; days <= threshold+10; days++ {
				t.Run(fmt.Sprintf("rate=%s cap=%s days=%d", rate, limit, days), func(t *testing.T) {
					got := calc.Compute(due, due.AddDate(0, 0, int(days)), dec(rate), dec(limit))
					assert.True(t, got.Amount.Equal(dec(limit)), "amount %s", got.Amount)
				})
			}
		}
	}
}
