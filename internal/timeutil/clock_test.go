package timeutil

import (
	"testing"
	"time"
)

func TestMockClock_AdvanceFiresTicker(t *testing.T) {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	tk := c.NewTicker(time.Second)

	c.Advance(500 * time.Millisecond)
	select {
	case <-tk.C():
		t.Fatal("ticker fired before its interval elapsed")
	default:
	}

	c.Advance(500 * time.Millisecond)
	select {
	case got := <-tk.C():
		if !got.Equal(start.Add(time.Second)) {
			t.Errorf("tick time = %v, want %v", got, start.Add(time.Second))
		}
	default:
		t.Fatal("ticker did not fire after one interval")
	}
}

func TestMockClock_StoppedTickerIsSilent(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	tk := c.NewTicker(time.Second)
	tk.Stop()

	c.Advance(5 * time.Second)

	select {
	case <-tk.C():
		t.Fatal("stopped ticker fired")
	default:
	}
	if !tk.(*MockTicker).Stopped() {
		t.Error("expected Stopped() to report true")
	}
}

func TestMockClock_NowAndSince(t *testing.T) {
	start := time.Unix(100, 0)
	c := NewMockClock(start)
	c.Advance(3 * time.Second)

	if got := c.Since(start); got != 3*time.Second {
		t.Errorf("Since = %v, want 3s", got)
	}
	if c.TickerCount() != 0 {
		t.Errorf("TickerCount = %d, want 0", c.TickerCount())
	}
}
