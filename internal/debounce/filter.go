// Package debounce collapses bouncing hotplug signals into one settled
// transition per port.
package debounce

import (
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"
	"k8s.io/utils/keymutex"

	"github.com/comcastmike/rdkservices/internal/util"
)

// DefaultWindow is the settle time used when none is configured.
const DefaultWindow = 500 * time.Millisecond

// EmitFunc receives settled port states. It is called with the port's key
// lock held, so emissions for one port never overlap.
type EmitFunc func(portID int, connected bool)

type pending struct {
	first      time.Time
	emitted    bool
	latest     bool
	generation uint64
	lastSignal time.Time
	deadline   time.Time
	timer      clock.Timer
}

type emission struct {
	connected bool
	at        time.Time
}

// Filter debounces hotplug signals per port.
type Filter struct {
	window time.Duration
	clock  clock.WithDelayedExecution
	emit   EmitFunc
	keys   keymutex.KeyMutex
	logger *slog.Logger

	// mu guards the tables below; the key lock orders signals, expiries and
	// emissions of one port.
	mu         sync.Mutex
	pending    map[int]*pending
	emitted    map[int]emission
	generation uint64
	stopped    bool

	stale atomic.Uint64
}

// New creates a filter. A nil clock means the real clock.
func New(window time.Duration, clk clock.WithDelayedExecution, emit EmitFunc) *Filter {
	if window <= 0 {
		window = DefaultWindow
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Filter{
		window:  window,
		clock:   clk,
		emit:    emit,
		keys:    keymutex.NewHashed(0),
		logger:  util.GetLogger().With("component", "debounce"),
		pending: make(map[int]*pending),
		emitted: make(map[int]emission),
	}
}

// Window returns the configured settle time.
func (f *Filter) Window() time.Duration {
	return f.window
}

func key(portID int) string {
	return strconv.Itoa(portID)
}

// Signal records a raw hotplug signal for a port. The first signal of a
// burst opens a pending record; each further signal re-arms its timer. A
// burst that keeps bouncing for a whole window emits its current state
// immediately if it differs from the last emitted one.
//
// The clock is only called after the port's key lock is released: fake
// clocks run expiry callbacks under their own lock, and those callbacks
// take the key lock.
func (f *Filter) Signal(portID int, connected bool) {
	prev, gen, ok := f.record(portID, connected)
	if !ok {
		return
	}
	if prev != nil {
		prev.Stop()
	}
	timer := f.clock.AfterFunc(f.window, func() { f.fire(portID, gen) })

	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.pending[portID]
	if f.stopped || p == nil || p.generation != gen {
		// superseded or already fired; the newer signal owns the record
		timer.Stop()
		return
	}
	p.timer = timer
}

// record updates the pending record under the port's key lock and emits
// immediately when a bouncing burst outlasted the window. It returns the
// timer to cancel and the generation of this signal.
func (f *Filter) record(portID int, connected bool) (clock.Timer, uint64, bool) {
	now := f.clock.Now()

	k := key(portID)
	f.keys.LockKey(k)
	defer f.keys.UnlockKey(k)

	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return nil, 0, false
	}
	f.generation++
	gen := f.generation

	immediate := false
	p := f.pending[portID]
	if p == nil {
		p = &pending{first: now}
		f.pending[portID] = p
	} else {
		if now.Before(p.lastSignal) {
			now = p.lastSignal
		}
		last, seen := f.emitted[portID]
		since := p.first
		if seen && last.at.After(since) {
			since = last.at
		}
		if (!seen || last.connected != connected) && now.Sub(since) >= f.window {
			f.emitted[portID] = emission{connected: connected, at: now}
			p.emitted = true
			immediate = true
		}
	}
	prev := p.timer
	p.timer = nil
	p.latest = connected
	p.generation = gen
	p.lastSignal = now
	p.deadline = now.Add(f.window)
	f.mu.Unlock()

	if immediate {
		f.logger.Debug("Emitting port state after a full window of bouncing", "port", portID, "connected", connected)
		f.emit(portID, connected)
	}
	return prev, gen, true
}

// fire must not call into the clock.
func (f *Filter) fire(portID int, gen uint64) {
	k := key(portID)
	f.keys.LockKey(k)
	defer f.keys.UnlockKey(k)

	f.mu.Lock()
	p := f.pending[portID]
	if f.stopped || p == nil || p.generation != gen {
		f.mu.Unlock()
		f.stale.Add(1)
		f.logger.Debug("Dropping stale debounce timer", "port", portID, "generation", gen)
		return
	}
	delete(f.pending, portID)

	if last := f.emitted[portID]; p.emitted && last.connected == p.latest {
		f.mu.Unlock()
		f.logger.Debug("Port settled on the state already emitted for this burst", "port", portID, "connected", p.latest)
		return
	}
	f.emitted[portID] = emission{connected: p.latest, at: p.deadline}
	f.mu.Unlock()

	f.logger.Debug("Emitting settled port state", "port", portID, "connected", p.latest, "lastSignal", p.lastSignal)
	f.emit(portID, p.latest)
}

// Pending returns the number of ports waiting for their window to expire.
func (f *Filter) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Stale returns how many timer expiries were dropped as superseded.
func (f *Filter) Stale() uint64 {
	return f.stale.Load()
}

// Stop cancels all pending timers. Later signals are ignored.
func (f *Filter) Stop() {
	f.mu.Lock()
	f.stopped = true
	timers := make([]clock.Timer, 0, len(f.pending))
	for _, p := range f.pending {
		if p.timer != nil {
			timers = append(timers, p.timer)
		}
	}
	f.pending = make(map[int]*pending)
	f.mu.Unlock()

	for _, t := range timers {
		t.Stop()
	}
}
