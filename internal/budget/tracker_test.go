package budget

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTracker_Unlimited(t *testing.T) {
	tr := NewTracker(decimal.Zero)
	tr.Record(d("1000"))

	assert.False(t, tr.Exhausted())
	assert.True(t, tr.Remaining().Equal(MaxDecimal))
	assert.True(t, tr.TotalCost().Equal(d("1000")))
}

func TestTracker_Accumulates(t *testing.T) {
	tr := NewTracker(d("0.05"))
	tr.Record(d("0.0125"))
	tr.Record(d("0.0040"))

	assert.Equal(t, 2, tr.Calls())
	assert.Equal(t, "0.0165", tr.TotalCost().String())
	assert.Equal(t, "0.0335", tr.Remaining().String())
	assert.False(t, tr.Exhausted())
}

func TestTracker_ExhaustedAtCap(t *testing.T) {
	tr := NewTracker(d("0.025"))
	tr.Record(d("0.0125"))
	assert.False(t, tr.Exhausted())
	tr.Record(d("0.0125"))
	assert.True(t, tr.Exhausted(), "reaching the cap exactly exhausts the budget")
	assert.True(t, tr.Remaining().IsZero())
}

func TestTracker_Concurrent(t *testing.T) {
	tr := NewTracker(decimal.Zero)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Record(d("0.01"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, tr.Calls())
	assert.True(t, tr.TotalCost().Equal(d("1")))
}
