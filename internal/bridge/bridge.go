// Package bridge connects a hardware event bus to the settings coordinator
// and the notification fan-out.
package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"k8s.io/utils/clock"

	"github.com/comcastmike/rdkservices/internal/debounce"
	"github.com/comcastmike/rdkservices/internal/event"
	"github.com/comcastmike/rdkservices/internal/hal"
	"github.com/comcastmike/rdkservices/internal/notify"
	"github.com/comcastmike/rdkservices/internal/settings"
	"github.com/comcastmike/rdkservices/internal/util"
)

// Options tune the event path.
type Options struct {
	DebounceWindow time.Duration
	PayloadVersion int
	// Clock drives the debounce timers; nil means the real clock.
	Clock clock.WithDelayedExecution
}

// Bridge owns one device's event path and state.
type Bridge struct {
	Ports       *settings.PortTable
	Fanout      *notify.Fanout
	Coordinator *settings.Coordinator
	Normalizer  *event.Normalizer
	Debounce    *debounce.Filter

	bus hal.EventBus

	mu           sync.Mutex
	unsubscribes []func()
	started      bool
	stopped      bool
	startedAt    time.Time
}

// New assembles the bridge. Nothing is subscribed until Start.
func New(display hal.Display, bus hal.EventBus, opts Options) (*Bridge, error) {
	if opts.PayloadVersion == 0 {
		opts.PayloadVersion = event.PayloadVersion
	}

	ports, err := settings.NewPortTable(display.Ports())
	if err != nil {
		return nil, errors.Wrap(err, "invalid port table")
	}

	fanout := notify.NewFanout()
	coordinator := settings.New(display, ports, fanout)
	filter := debounce.New(opts.DebounceWindow, opts.Clock, coordinator.HotplugChanged)

	normalizer, err := event.NewNormalizer(opts.PayloadVersion, ports, coordinator, filter)
	if err != nil {
		return nil, err
	}

	return &Bridge{
		Ports:       ports,
		Fanout:      fanout,
		Coordinator: coordinator,
		Normalizer:  normalizer,
		Debounce:    filter,
		bus:         bus,
	}, nil
}

// Start seeds the display state and subscribes to every event kind.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return errors.New("bridge already stopped")
	}
	if b.started {
		return nil
	}

	b.Coordinator.Initialize(ctx)

	for _, kind := range hal.EventKinds {
		unsubscribe, err := b.bus.Subscribe(kind, b.handle)
		if err != nil {
			b.unsubscribeLocked()
			return errors.Wrapf(err, "failed to subscribe to %s", kind)
		}
		b.unsubscribes = append(b.unsubscribes, unsubscribe)
	}

	b.started = true
	b.startedAt = time.Now()
	util.GetLogger().Info("Display event bridge started", "debounceWindow", b.Debounce.Window().String())
	return nil
}

// handle runs on the bus delivery goroutine. Failures are already logged
// and counted by the normalizer.
func (b *Bridge) handle(kind hal.EventKind, payload []byte) {
	_, _ = b.Normalizer.HandleRaw(kind, payload)
}

// Stop unsubscribes from the bus, cancels pending debounce timers and drops
// all subscribers. It is safe to call more than once.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return
	}
	b.stopped = true
	b.unsubscribeLocked()
	b.Debounce.Stop()
	b.Fanout.Close()
	util.GetLogger().Info("Display event bridge stopped")
}

func (b *Bridge) unsubscribeLocked() {
	for _, unsubscribe := range b.unsubscribes {
		unsubscribe()
	}
	b.unsubscribes = nil
}

// Status summarizes the bridge for health reporting.
type Status struct {
	Running     bool                      `json:"running"`
	Uptime      string                    `json:"uptime,omitempty"`
	Events      map[string]event.Counters `json:"events"`
	Subscribers map[notify.Kind]int       `json:"subscribers"`
	Pending     int                       `json:"pendingHotplug"`
	Stale       uint64                    `json:"staleDebounceTimers"`
	Video       settings.VideoSnapshot    `json:"video"`
	Audio       settings.AudioSnapshot    `json:"audio"`
}

// Status returns the current counters and state snapshots.
func (b *Bridge) Status() Status {
	b.mu.Lock()
	running := b.started && !b.stopped
	startedAt := b.startedAt
	b.mu.Unlock()

	s := Status{
		Running:     running,
		Events:      b.Normalizer.Stats(),
		Subscribers: b.Fanout.Counts(),
		Pending:     b.Debounce.Pending(),
		Stale:       b.Debounce.Stale(),
		Video:       b.Coordinator.Video.Snapshot(),
		Audio:       b.Coordinator.Audio.Snapshot(),
	}
	if running {
		s.Uptime = time.Since(startedAt).Round(time.Second).String()
	}
	return s
}
