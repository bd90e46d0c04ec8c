package event

import (
	"log/slog"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/comcastmike/rdkservices/internal/hal"
	"github.com/comcastmike/rdkservices/internal/util"
)

// Sink receives decoded events. Methods returning false report that the
// state already reflected the event.
type Sink interface {
	PreResolutionChange(width, height int)
	PostResolutionChange(width, height int)
	ActiveInputChanged(active bool) bool
	ZoomChanged(mode string) bool
}

// HotplugFilter receives raw hotplug signals before they reach the sink.
type HotplugFilter interface {
	Signal(portID int, connected bool)
}

// PortLookup reports whether a port id exists on the device.
type PortLookup interface {
	HasPort(id int) bool
}

// Counters are the per-kind event totals.
type Counters struct {
	Received  uint64 `json:"received"`
	Malformed uint64 `json:"malformed"`
	Duplicate uint64 `json:"duplicate"`
	Applied   uint64 `json:"applied"`
}

type counters struct {
	received  atomic.Uint64
	malformed atomic.Uint64
	duplicate atomic.Uint64
	applied   atomic.Uint64
}

// Normalizer validates raw events and forwards them on the caller's goroutine.
type Normalizer struct {
	ports   PortLookup
	sink    Sink
	hotplug HotplugFilter
	logger  *slog.Logger

	// index 0 collects events of unknown kind
	stats [int(hal.EventZoomSettingsChanged) + 1]counters
}

// NewNormalizer creates a normalizer for the given payload version.
func NewNormalizer(version int, ports PortLookup, sink Sink, hotplug HotplugFilter) (*Normalizer, error) {
	if err := CheckVersion(version); err != nil {
		return nil, err
	}
	if ports == nil || sink == nil || hotplug == nil {
		return nil, errors.New("normalizer requires ports, sink and hotplug filter")
	}
	return &Normalizer{
		ports:   ports,
		sink:    sink,
		hotplug: hotplug,
		logger:  util.GetLogger().With("component", "normalizer"),
	}, nil
}

func (n *Normalizer) counters(kind hal.EventKind) *counters {
	if _, ok := payloadLength[kind]; !ok {
		return &n.stats[0]
	}
	return &n.stats[kind]
}

// HandleRaw decodes one raw event and applies it. HotPlug events are handed
// to the hotplug filter instead of the sink.
func (n *Normalizer) HandleRaw(kind hal.EventKind, payload []byte) (Event, error) {
	c := n.counters(kind)
	c.received.Add(1)

	ev, err := Decode(kind, payload)
	if err != nil {
		c.malformed.Add(1)
		n.logger.Error("Discarding malformed event", "kind", kind.String(), "length", len(payload), "error", err)
		return nil, err
	}

	switch e := ev.(type) {
	case ResolutionPreChange:
		n.sink.PreResolutionChange(e.Width, e.Height)
	case ResolutionPostChange:
		n.sink.PostResolutionChange(e.Width, e.Height)
	case ActiveInputChanged:
		if !n.sink.ActiveInputChanged(e.Active) {
			return n.duplicate(c, ev)
		}
	case ZoomChanged:
		if !n.sink.ZoomChanged(e.Mode) {
			return n.duplicate(c, ev)
		}
	case HotPlug:
		if !n.ports.HasPort(e.PortID) {
			c.malformed.Add(1)
			err := malformed(kind, "unknown port id %d", e.PortID)
			n.logger.Error("Discarding malformed event", "kind", kind.String(), "error", err)
			return nil, err
		}
		n.logger.Debug("Hotplug signal", "port", e.PortID, "connected", e.Connected)
		n.hotplug.Signal(e.PortID, e.Connected)
	}

	c.applied.Add(1)
	return ev, nil
}

func (n *Normalizer) duplicate(c *counters, ev Event) (Event, error) {
	c.duplicate.Add(1)
	n.logger.Debug("Discarding duplicate event", "kind", ev.Kind().String(), "event", ev)
	return ev, ErrDuplicateEvent
}

// Stats returns a snapshot of the per-kind counters keyed by kind name.
func (n *Normalizer) Stats() map[string]Counters {
	out := make(map[string]Counters, len(n.stats))
	for i := range n.stats {
		kind := hal.EventKind(i)
		c := &n.stats[i]
		snap := Counters{
			Received:  c.received.Load(),
			Malformed: c.malformed.Load(),
			Duplicate: c.duplicate.Load(),
			Applied:   c.applied.Load(),
		}
		if i == 0 && snap.Received == 0 {
			continue
		}
		out[kind.String()] = snap
	}
	return out
}
