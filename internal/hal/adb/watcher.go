package adb

import (
	"runtime/debug"

	adb "github.com/basiooo/goadb"
	"github.com/pkg/errors"

	"github.com/comcastmike/rdkservices/internal/event"
	"github.com/comcastmike/rdkservices/internal/hal"
	"github.com/comcastmike/rdkservices/internal/util"
)

// Watcher turns adb device state changes of one serial into HotPlug events
// for the single port of the device.
type Watcher struct {
	display *Display
	serial  string
	watcher *adb.DeviceWatcher
	done    chan struct{}
}

// Watch starts watching client for state changes. An empty serial follows
// every device.
func Watch(client *adb.Adb, display *Display, serial string) *Watcher {
	w := &Watcher{
		display: display,
		serial:  serial,
		watcher: client.NewDeviceWatcher(),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Watcher) loop() {
	defer close(w.done)
	logger := util.GetLogger().With("component", "adb-watcher")

	for ev := range w.watcher.C() {
		logger.Debug("Device state changed", "serial", ev.Serial, "from", ev.OldState.String(), "to", ev.NewState.String())
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Recovered from device event handler", "serial", ev.Serial, "panic", r, "stack", string(debug.Stack()))
				}
			}()
			w.handle(ev.Serial, ev.NewState)
		}()
	}
	if err := w.watcher.Err(); err != nil {
		logger.Error("adb device watcher stopped", "error", errors.Wrap(err, "adb device watcher error"))
	}
}

func (w *Watcher) handle(serial string, state adb.DeviceState) {
	if w.serial != "" && serial != w.serial {
		return
	}
	connected, ok := hotplugState(state)
	if !ok {
		return
	}
	w.display.setOnline(connected)
	w.display.bus.Publish(hal.EventHotPlug, event.EncodeHotPlug(0, connected))
}

// hotplugState maps an adb state to a connection state. States that say
// nothing about the link are ignored.
func hotplugState(state adb.DeviceState) (connected bool, ok bool) {
	switch state {
	case adb.StateOnline:
		return true, true
	case adb.StateOffline, adb.StateDisconnected:
		return false, true
	default:
		return false, false
	}
}

// Close stops the device watcher and waits for the event loop to finish.
func (w *Watcher) Close() {
	w.watcher.Shutdown()
	<-w.done
}
