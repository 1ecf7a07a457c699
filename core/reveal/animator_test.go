package reveal

import (
	"testing"
	"time"

	"github.com/koscakluka/ema-stage/core/clock"
)

func newTestAnimator(t *testing.T) (*Animator, *clock.Virtual, *[]string) {
	t.Helper()

	clk := clock.NewVirtual(time.Unix(0, 0))
	renders := []string{}
	a := New(clk, WithRenderCallback(func(visible string) {
		renders = append(renders, visible)
	}))
	return a, clk, &renders
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestDrainOnIdleAnimatorResolvesImmediately(t *testing.T) {
	a, clk, _ := newTestAnimator(t)

	if !isClosed(a.Drain()) {
		t.Fatalf("expected drain on idle animator to resolve immediately")
	}
	if clk.Pending() != 0 {
		t.Fatalf("expected no timer to be started, got %d pending", clk.Pending())
	}
}

func TestEnqueueRevealsOneRunePerTick(t *testing.T) {
	a, clk, renders := newTestAnimator(t)

	a.Enqueue("Héllo")
	drained := a.Drain()

	for i := 1; i <= 4; i++ {
		clk.Advance(DefaultInterval)
		if len(*renders) != i {
			t.Fatalf("expected %d renders after %d ticks, got %d", i, i, len(*renders))
		}
		if isClosed(drained) {
			t.Fatalf("expected drain to stay pending after %d of 5 characters", i)
		}
	}

	clk.Advance(DefaultInterval)
	if !isClosed(drained) {
		t.Fatalf("expected drain to resolve on the tick revealing the last character")
	}

	expected := []string{"H", "Hé", "Hél", "Héll", "Héllo"}
	for i, visible := range expected {
		if (*renders)[i] != visible {
			t.Fatalf("expected render %d to be %q, got %q", i, visible, (*renders)[i])
		}
	}
	if !a.Idle() {
		t.Fatalf("expected animator to be idle after draining")
	}
	if clk.Pending() != 0 {
		t.Fatalf("expected timer to be stopped, got %d pending", clk.Pending())
	}
}

func TestEnqueueWhileRevealingAppends(t *testing.T) {
	a, clk, _ := newTestAnimator(t)

	a.Enqueue("ab")
	clk.Advance(DefaultInterval)
	a.Enqueue("cd")

	if a.Pending() != 3 {
		t.Fatalf("expected 3 pending runes, got %d", a.Pending())
	}
	if clk.Pending() != 1 {
		t.Fatalf("expected a single running timer, got %d", clk.Pending())
	}

	clk.Advance(3 * DefaultInterval)
	if a.Visible() != "abcd" {
		t.Fatalf("expected visible text %q, got %q", "abcd", a.Visible())
	}
}

func TestResetResolvesAllWaiters(t *testing.T) {
	a, clk, renders := newTestAnimator(t)

	a.Enqueue("Hello there")
	clk.Advance(2 * DefaultInterval)

	first := a.Drain()
	second := a.Drain()
	a.Reset()

	if !isClosed(first) || !isClosed(second) {
		t.Fatalf("expected reset to resolve every pending drain")
	}
	if !a.Idle() {
		t.Fatalf("expected animator to be idle after reset")
	}
	if a.Pending() != 0 {
		t.Fatalf("expected empty queue after reset, got %d", a.Pending())
	}
	if a.Visible() != "" {
		t.Fatalf("expected empty visible text after reset, got %q", a.Visible())
	}
	if last := (*renders)[len(*renders)-1]; last != "" {
		t.Fatalf("expected reset to render empty text, got %q", last)
	}

	rendersBefore := len(*renders)
	clk.Advance(10 * DefaultInterval)
	if len(*renders) != rendersBefore {
		t.Fatalf("expected no renders after reset, got %d more", len(*renders)-rendersBefore)
	}
}

func TestStaleTickIsDropped(t *testing.T) {
	clk := clock.NewVirtual(time.Unix(0, 0))
	a := New(clk)

	a.Enqueue("abc")
	staleGeneration := a.generation
	a.Reset()
	a.Enqueue("xyz")

	a.tick(staleGeneration)
	if a.Visible() != "" {
		t.Fatalf("expected stale tick to be dropped, got visible %q", a.Visible())
	}

	clk.Advance(DefaultInterval)
	if a.Visible() != "x" {
		t.Fatalf("expected %q after one tick, got %q", "x", a.Visible())
	}
}

func TestWithInterval(t *testing.T) {
	clk := clock.NewVirtual(time.Unix(0, 0))
	a := New(clk, WithInterval(50*time.Millisecond))

	a.Enqueue("ab")
	clk.Advance(49 * time.Millisecond)
	if a.Visible() != "" {
		t.Fatalf("expected nothing revealed before the interval, got %q", a.Visible())
	}
	clk.Advance(time.Millisecond)
	if a.Visible() != "a" {
		t.Fatalf("expected %q after one interval, got %q", "a", a.Visible())
	}
}
