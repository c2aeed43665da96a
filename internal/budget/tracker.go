// Package budget accumulates the cost reported by the backend and enforces
// an optional spending cap.
package budget

import (
	"sync"

	"github.com/shopspring/decimal"
)

// MaxDecimal is a sentinel value representing an effectively unlimited remaining budget.
var MaxDecimal = decimal.New(1, 18) // 1e18

// Tracker tracks cumulative cost across backend calls.
// It is safe for concurrent use.
type Tracker struct {
	maxBudget decimal.Decimal // 0 = unlimited
	totalCost decimal.Decimal
	calls     int
	mu        sync.Mutex
}

// NewTracker creates a new tracker. maxBudget of 0 means unlimited.
func NewTracker(maxBudget decimal.Decimal) *Tracker {
	return &Tracker{
		maxBudget: maxBudget,
		totalCost: decimal.Zero,
	}
}

// Record adds the cost of one backend call.
func (b *Tracker) Record(cost decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.totalCost = b.totalCost.Add(cost)
	b.calls++
}

// TotalCost returns the cumulative cost across all recorded calls.
func (b *Tracker) TotalCost() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalCost
}

// Calls returns the number of recorded calls.
func (b *Tracker) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// Remaining returns the remaining budget. If maxBudget is 0 (unlimited), returns MaxDecimal.
func (b *Tracker) Remaining() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxBudget.IsZero() {
		return MaxDecimal
	}
	return b.maxBudget.Sub(b.totalCost)
}

// Exhausted returns true if the total cost has reached or exceeded maxBudget.
// Always returns false if maxBudget is 0 (unlimited).
func (b *Tracker) Exhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxBudget.IsZero() {
		return false
	}
	return b.totalCost.GreaterThanOrEqual(b.maxBudget)
}
