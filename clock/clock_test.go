package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/studio-grid/kernel/clock"
)

func TestSystemMonotonicTicksAdvance(t *testing.T) {
	clk := clock.System{}
	first := clk.MonotonicTicks()
	time.Sleep(time.Millisecond)
	assert.Greater(t, clk.MonotonicTicks(), first)
}

func TestFakeAdvance(t *testing.T) {
	start := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFake(start)

	assert.Equal(t, start, clk.Now())
	assert.EqualValues(t, 0, clk.MonotonicTicks())

	clk.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), clk.Now())
	assert.EqualValues(t, 90*time.Second, clk.MonotonicTicks())
}
