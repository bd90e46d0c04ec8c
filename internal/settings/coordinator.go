// Package settings holds the authoritative in-memory display state and
// serializes hardware events against API reads and writes.
//
// State is split into a video and an audio field-group. Each group has a
// state lock, taken briefly by readers, event hooks and commits, and a write
// lock held across the single hardware call a setter makes. Operations on
// different groups never wait for each other.
package settings

import (
	"context"
	"log/slog"
	"sync"

	"github.com/comcastmike/rdkservices/internal/hal"
	"github.com/comcastmike/rdkservices/internal/notify"
	"github.com/comcastmike/rdkservices/internal/util"
)

// Notifier receives notifications produced by state changes.
type Notifier interface {
	Notify(n notify.Notification) int
}

// Coordinator owns one device's display state.
type Coordinator struct {
	Video *VideoGroup
	Audio *AudioGroup

	ports  *PortTable
	logger *slog.Logger

	initOnce sync.Once
}

// New creates a coordinator over a hardware display. Notifications from
// event hooks go to notifier.
func New(display hal.Display, ports *PortTable, notifier Notifier) *Coordinator {
	return &Coordinator{
		Video:  newVideoGroup(display, ports, notifier),
		Audio:  newAudioGroup(display, ports),
		ports:  ports,
		logger: util.GetLogger().With("component", "settings"),
	}
}

func groupLogger(group string) *slog.Logger {
	return util.GetLogger().With("component", "settings", "group", group)
}

// Ports returns the port table.
func (c *Coordinator) Ports() *PortTable {
	return c.ports
}

// Initialize seeds the cached state from hardware. Fields the hardware
// cannot report stay unavailable until set or changed by an event. Only the
// first call has any effect.
func (c *Coordinator) Initialize(ctx context.Context) {
	c.initOnce.Do(func() {
		c.Video.seed(ctx)
		c.Audio.seed(ctx)

		video := c.Video.Snapshot()
		c.logger.Info("Display state initialized",
			"resolution", video.Resolution.Name,
			"connectedVideoDisplays", video.ConnectedPorts,
			"connectedAudioPorts", c.Audio.ConnectedAudioPorts())
	})
}

// ConnectedPortIDs returns the ids of ports currently marked connected in
// either group.
func (c *Coordinator) ConnectedPortIDs() map[int]bool {
	out := make(map[int]bool)
	for _, name := range c.Video.ConnectedVideoDisplays() {
		if p, ok := c.ports.PortByName(name); ok {
			out[p.ID] = true
		}
	}
	for _, name := range c.Audio.ConnectedAudioPorts() {
		if p, ok := c.ports.PortByName(name); ok {
			out[p.ID] = true
		}
	}
	return out
}

// HasPort reports whether a port id exists.
func (c *Coordinator) HasPort(id int) bool {
	return c.ports.HasPort(id)
}

// PreResolutionChange moves the video group to PreChangeAnnounced and
// notifies, also when a change was already announced.
func (c *Coordinator) PreResolutionChange(width, height int) {
	c.Video.preResolutionChange(width, height)
}

// PostResolutionChange commits a new resolution for the primary video port.
func (c *Coordinator) PostResolutionChange(width, height int) {
	c.Video.postResolutionChange(width, height)
}

// ActiveInputChanged records the active input flag. It returns false if
// the flag was unchanged.
func (c *Coordinator) ActiveInputChanged(active bool) bool {
	return c.Video.activeInputChanged(active)
}

// ZoomChanged records a zoom mode raised by the hardware. It returns false
// if the hardware already reported that mode since the last API write.
func (c *Coordinator) ZoomChanged(mode string) bool {
	return c.Video.zoomChanged(mode)
}

// HotplugChanged records a settled connection state for a port.
func (c *Coordinator) HotplugChanged(portID int, connected bool) {
	p, ok := c.ports.PortByID(portID)
	if !ok {
		c.logger.Warn("Hotplug for unknown port", "port", portID)
		return
	}
	if p.Audio {
		c.Audio.hotplugChanged(p, connected)
	}
	if p.Video {
		c.Video.hotplugChanged(p, connected)
	}
}
