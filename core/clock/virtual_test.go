package clock

import (
	"testing"
	"time"
)

func TestVirtualFiresInDeadlineOrder(t *testing.T) {
	clk := NewVirtual(time.Unix(0, 0))
	fired := []string{}

	clk.AfterFunc(30*time.Millisecond, func() { fired = append(fired, "c") })
	clk.AfterFunc(10*time.Millisecond, func() { fired = append(fired, "a") })
	clk.AfterFunc(10*time.Millisecond, func() { fired = append(fired, "b") })

	clk.Advance(20 * time.Millisecond)
	if len(fired) != 2 || fired[0] != "a" || fired[1] != "b" {
		t.Fatalf("expected [a b], got %v", fired)
	}

	clk.Advance(10 * time.Millisecond)
	if len(fired) != 3 || fired[2] != "c" {
		t.Fatalf("expected c to fire last, got %v", fired)
	}
	if clk.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", clk.Pending())
	}
}

func TestVirtualEveryRearms(t *testing.T) {
	clk := NewVirtual(time.Unix(0, 0))
	ticks := 0

	timer := clk.Every(10*time.Millisecond, func() { ticks++ })
	clk.Advance(35 * time.Millisecond)
	if ticks != 3 {
		t.Fatalf("expected 3 ticks, got %d", ticks)
	}

	if !timer.Stop() {
		t.Fatalf("expected first stop to report true")
	}
	if timer.Stop() {
		t.Fatalf("expected second stop to report false")
	}
	clk.Advance(time.Second)
	if ticks != 3 {
		t.Fatalf("expected no ticks after stop, got %d", ticks)
	}
}

func TestVirtualTimerArmedFromCallback(t *testing.T) {
	clk := NewVirtual(time.Unix(0, 0))
	var firedAt time.Time

	clk.AfterFunc(10*time.Millisecond, func() {
		clk.AfterFunc(5*time.Millisecond, func() { firedAt = clk.Now() })
	})
	clk.Advance(20 * time.Millisecond)

	expected := time.Unix(0, 0).Add(15 * time.Millisecond)
	if !firedAt.Equal(expected) {
		t.Fatalf("expected nested timer to fire at %v, got %v", expected, firedAt)
	}
	if !clk.Now().Equal(time.Unix(0, 0).Add(20 * time.Millisecond)) {
		t.Fatalf("expected clock to end at the advance target, got %v", clk.Now())
	}
}

func TestVirtualStopBeforeDeadline(t *testing.T) {
	clk := NewVirtual(time.Unix(0, 0))
	fired := false

	timer := clk.AfterFunc(time.Second, func() { fired = true })
	timer.Stop()
	clk.Advance(2 * time.Second)

	if fired {
		t.Fatalf("expected stopped timer not to fire")
	}
}
