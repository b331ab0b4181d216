package console

import (
	"testing"
	"time"
)

const quiet = 500 * time.Millisecond

func TestDebouncer_BurstSettlesOnceWithLastValue(t *testing.T) {
	clock := newFakeClock()
	var settled []string
	d := NewDebouncer(clock, quiet, "", func(v string) { settled = append(settled, v) })

	for _, v := range []string{"a", "ab", "abc"} {
		d.Set(v)
		clock.Advance(100 * time.Millisecond)
	}
	if len(settled) != 0 {
		t.Fatalf("settled during burst: %v", settled)
	}
	if d.Raw() != "abc" || d.Settled() != "" {
		t.Fatalf("raw=%q settled=%q, want abc and empty", d.Raw(), d.Settled())
	}

	clock.Advance(quiet)
	if len(settled) != 1 || settled[0] != "abc" {
		t.Fatalf("expected one settle with abc, got %v", settled)
	}
	if d.Settled() != "abc" {
		t.Fatalf("settled = %q, want abc", d.Settled())
	}
	if d.pending() {
		t.Fatal("expected no pending timer after settle")
	}
}

func TestDebouncer_SingleChangeSettlesAfterQuietPeriod(t *testing.T) {
	clock := newFakeClock()
	var settled []string
	d := NewDebouncer(clock, quiet, "", func(v string) { settled = append(settled, v) })

	d.Set("x")
	clock.Advance(quiet - time.Millisecond)
	if len(settled) != 0 {
		t.Fatalf("settled too early: %v", settled)
	}
	clock.Advance(time.Millisecond)
	if len(settled) != 1 || settled[0] != "x" {
		t.Fatalf("expected settle with x, got %v", settled)
	}
}

func TestDebouncer_SameValueIsNoOp(t *testing.T) {
	clock := newFakeClock()
	calls := 0
	d := NewDebouncer(clock, quiet, "x", func(string) { calls++ })

	d.Set("x")
	if d.pending() {
		t.Fatal("setting the current value should not schedule a settle")
	}
	clock.Advance(quiet)
	if calls != 0 {
		t.Fatalf("onSettle called %d times, want 0", calls)
	}
}

func TestDebouncer_RevertWithinQuietPeriodDoesNotSettle(t *testing.T) {
	clock := newFakeClock()
	calls := 0
	d := NewDebouncer(clock, quiet, "", func(string) { calls++ })

	d.Set("a")
	d.Set("")
	clock.Advance(quiet)
	if calls != 0 {
		t.Fatalf("onSettle called %d times, want 0 when raw returns to settled", calls)
	}
}

func TestDebouncer_StopReleasesPendingTimer(t *testing.T) {
	clock := newFakeClock()
	calls := 0
	d := NewDebouncer(clock, quiet, "", func(string) { calls++ })

	d.Set("a")
	d.Stop()
	if clock.active() != 0 {
		t.Fatalf("expected pending timer to be stopped, %d active", clock.active())
	}
	clock.Advance(quiet)
	d.Set("b")
	clock.Advance(quiet)
	if calls != 0 {
		t.Fatalf("onSettle called %d times after Stop", calls)
	}
}

func TestDebouncer_SetNowSkipsCallback(t *testing.T) {
	clock := newFakeClock()
	calls := 0
	d := NewDebouncer(clock, quiet, "", func(string) { calls++ })

	d.Set("typing")
	d.SetNow("submitted")
	clock.Advance(quiet)

	if calls != 0 {
		t.Fatalf("onSettle called %d times, want 0", calls)
	}
	if d.Raw() != "submitted" || d.Settled() != "submitted" {
		t.Fatalf("raw=%q settled=%q, want submitted for both", d.Raw(), d.Settled())
	}
}

func TestDebouncer_StructValues(t *testing.T) {
	clock := newFakeClock()
	var got []UserFilter
	d := NewDebouncer(clock, quiet, UserFilter{}, func(f UserFilter) { got = append(got, f) })

	d.Set(UserFilter{Role: "ADMIN"})
	clock.Advance(200 * time.Millisecond)
	d.Set(UserFilter{Role: "ADMIN", Search: "jo"})
	clock.Advance(quiet)

	if len(got) != 1 || got[0] != (UserFilter{Role: "ADMIN", Search: "jo"}) {
		t.Fatalf("unexpected settles: %+v", got)
	}
}
