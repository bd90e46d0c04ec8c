// Package event turns raw hardware callbacks into typed domain events and
// hands them to the settings coordinator.
package event

import (
	"fmt"

	"github.com/comcastmike/rdkservices/internal/hal"
)

// Event is a decoded hardware event.
type Event interface {
	Kind() hal.EventKind
}

// ResolutionPreChange announces an upcoming resolution switch. Width and
// Height carry the target mode when the hardware reports it, zero otherwise.
type ResolutionPreChange struct {
	Width  int
	Height int
}

func (ResolutionPreChange) Kind() hal.EventKind { return hal.EventPreResolutionChange }

// ResolutionPostChange reports the resolution now being output.
type ResolutionPostChange struct {
	Width  int
	Height int
}

func (ResolutionPostChange) Kind() hal.EventKind { return hal.EventPostResolutionChange }

func (e ResolutionPostChange) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

// HotPlug is a raw connect or disconnect signal for one port.
type HotPlug struct {
	PortID    int
	Connected bool
}

func (HotPlug) Kind() hal.EventKind { return hal.EventHotPlug }

// ActiveInputChanged reports whether the device is the active source on the sink.
type ActiveInputChanged struct {
	Input  int
	Active bool
}

func (ActiveInputChanged) Kind() hal.EventKind { return hal.EventActiveInputChanged }

// ZoomChanged reports a new zoom mode by name.
type ZoomChanged struct {
	Mode string
}

func (ZoomChanged) Kind() hal.EventKind { return hal.EventZoomSettingsChanged }
