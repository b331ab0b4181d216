package console

import (
	"sync"
	"time"
)

// Debouncer turns a rapidly changing raw value into a settled value that only
// follows the raw value once it has been stable for the quiet period.
//
// Every Set with a new value cancels the pending timer and starts a new one,
// so only the last value of a burst settles. onSettle is called once per
// settled change, serialised, and never after Stop.
type Debouncer[T comparable] struct {
	clock    Clock
	quiet    time.Duration
	onSettle func(T)

	mu      sync.Mutex
	raw     T
	settled T
	seq     uint64
	timer   Timer
	stopped bool

	// settleMu orders onSettle calls without holding mu while they run.
	settleMu sync.Mutex
}

// NewDebouncer returns a Debouncer whose raw and settled values start at initial.
func NewDebouncer[T comparable](clock Clock, quiet time.Duration, initial T, onSettle func(T)) *Debouncer[T] {
	if clock == nil {
		clock = SystemClock
	}
	return &Debouncer[T]{
		clock:    clock,
		quiet:    quiet,
		onSettle: onSettle,
		raw:      initial,
		settled:  initial,
	}
}

// Set records a new raw value. Setting the current raw value again is a no-op
// and does not restart the quiet period.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || v == d.raw {
		return
	}
	d.raw = v
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
	}
	seq := d.seq
	d.timer = d.clock.AfterFunc(d.quiet, func() { d.fire(seq) })
}

// SetNow makes v both the raw and the settled value immediately and drops any
// pending settle. onSettle is not called; the caller acts on v itself.
func (d *Debouncer[T]) SetNow(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.raw = v
	d.settled = v
}

func (d *Debouncer[T]) fire(seq uint64) {
	d.mu.Lock()
	// A timer whose Stop lost the race still fires; seq tells it apart.
	if d.stopped || seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	if d.raw == d.settled {
		d.mu.Unlock()
		return
	}
	d.settled = d.raw
	v := d.settled

	d.settleMu.Lock()
	d.mu.Unlock()
	defer d.settleMu.Unlock()

	if d.onSettle != nil {
		d.onSettle(v)
	}
}

// Raw returns the latest value passed to Set.
func (d *Debouncer[T]) Raw() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.raw
}

// Settled returns the last value that outlived the quiet period.
func (d *Debouncer[T]) Settled() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settled
}

// pending reports whether a settle is scheduled.
func (d *Debouncer[T]) pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop releases the pending timer and waits for a running onSettle to
// return. Nothing settles after Stop returns. Stop must not be called from
// onSettle.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	d.settleMu.Lock()
	d.settleMu.Unlock()
}
