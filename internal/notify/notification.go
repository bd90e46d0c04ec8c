// Package notify delivers display notifications to registered subscribers.
package notify

import (
	"github.com/pkg/errors"
)

// Kind names a notification subscribers can register for.
type Kind string

const (
	KindResolutionPreChange           Kind = "resolutionPreChange"
	KindResolutionChanged             Kind = "resolutionChanged"
	KindZoomSettingUpdated            Kind = "zoomSettingUpdated"
	KindActiveInputChanged            Kind = "activeInputChanged"
	KindConnectedVideoDisplaysUpdated Kind = "connectedVideoDisplaysUpdated"
)

// Kinds lists every notification kind.
var Kinds = []Kind{
	KindResolutionPreChange,
	KindResolutionChanged,
	KindZoomSettingUpdated,
	KindActiveInputChanged,
	KindConnectedVideoDisplaysUpdated,
}

// ParseKind validates a notification name.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == name {
			return k, nil
		}
	}
	return "", errors.Errorf("unknown notification %q", name)
}

// Notification is one event as seen by subscribers.
type Notification struct {
	Kind   Kind                   `json:"event"`
	Params map[string]interface{} `json:"params"`
}

func ResolutionPreChange() Notification {
	return Notification{Kind: KindResolutionPreChange, Params: map[string]interface{}{}}
}

func ResolutionChanged(width, height int, resolution string) Notification {
	return Notification{Kind: KindResolutionChanged, Params: map[string]interface{}{
		"width":      width,
		"height":     height,
		"resolution": resolution,
	}}
}

func ZoomSettingUpdated(mode string) Notification {
	return Notification{Kind: KindZoomSettingUpdated, Params: map[string]interface{}{
		"zoomSetting": mode,
	}}
}

func ActiveInputChanged(active bool) Notification {
	return Notification{Kind: KindActiveInputChanged, Params: map[string]interface{}{
		"activeInput": active,
	}}
}

// ConnectedVideoDisplaysUpdated carries the connected video ports both as a
// bit mask of port ids and by name.
func ConnectedVideoDisplaysUpdated(portMask int, displays []string) Notification {
	if displays == nil {
		displays = []string{}
	}
	return Notification{Kind: KindConnectedVideoDisplaysUpdated, Params: map[string]interface{}{
		"portMask":               portMask,
		"connectedVideoDisplays": displays,
	}}
}
