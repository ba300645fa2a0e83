package clock_test

import (
	"testing"
	"time"

	"github.com/jensholdgaard/auction-house/internal/clock"
)

func TestReal_Now(t *testing.T) {
	clk := clock.Real{}
	before := time.Now()
	got := clk.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("Real.Now() = %v, expected between %v and %v", got, before, after)
	}
}

func TestMock_NowAndAdvance(t *testing.T) {
	fixed := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMock(fixed)

	if got := clk.Now(); !got.Equal(fixed) {
		t.Errorf("Mock.Now() = %v, want %v", got, fixed)
	}

	clk.Advance(90 * time.Second)
	want := fixed.Add(90 * time.Second)
	if got := clk.Now(); !got.Equal(want) {
		t.Errorf("Mock.Now() after Advance = %v, want %v", got, want)
	}
}
