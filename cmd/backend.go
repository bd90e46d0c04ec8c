package cmd

import (
	"github.com/pkg/errors"

	"github.com/comcastmike/rdkservices/config"
	"github.com/comcastmike/rdkservices/internal/hal"
	"github.com/comcastmike/rdkservices/internal/hal/adb"
	"github.com/comcastmike/rdkservices/internal/hal/sim"
	"github.com/comcastmike/rdkservices/internal/util"
)

// backend is an opened hardware layer with its event source.
type backend struct {
	name    string
	display hal.Display
	bus     hal.EventBus
	close   func()
}

// openBackend opens the hardware layer selected by hal.backend.
func openBackend(name string) (*backend, error) {
	switch name {
	case "", "sim":
		profile := sim.DefaultProfile()
		if path := config.GetProfilePath(); path != "" {
			p, err := sim.LoadProfile(path)
			if err != nil {
				return nil, err
			}
			profile = p
		}
		device, err := sim.New(profile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create simulated device")
		}
		util.GetLogger().Info("Using simulated device", "profile", profile.Name)
		return &backend{
			name:    "sim",
			display: device,
			bus:     device.Bus(),
			close:   func() { device.Close() },
		}, nil

	case "adb":
		serial := config.GetADBSerial()
		display, client, err := adb.Connect(adb.Config{Port: config.GetADBPort(), Serial: serial})
		if err != nil {
			return nil, err
		}
		watcher := adb.Watch(client, display, serial)
		util.GetLogger().Info("Using adb device", "serial", serial, "adbPort", config.GetADBPort())
		return &backend{
			name:    "adb",
			display: display,
			bus:     display.Bus(),
			close: func() {
				watcher.Close()
				display.Bus().Close()
			},
		}, nil

	default:
		return nil, errors.Errorf("unknown backend %q, expected sim or adb", name)
	}
}
