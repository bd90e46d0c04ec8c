package event

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/comcastmike/rdkservices/internal/hal"
)

// PayloadVersion is the payload layout this package decodes.
const PayloadVersion = 1

var payloadLength = map[hal.EventKind]int{
	hal.EventPreResolutionChange:  8,
	hal.EventPostResolutionChange: 8,
	hal.EventHotPlug:              8,
	hal.EventActiveInputChanged:   8,
	hal.EventZoomSettingsChanged:  4,
}

// CheckVersion returns an error for payload layouts this package cannot decode.
func CheckVersion(version int) error {
	if version != PayloadVersion {
		return errors.Errorf("unsupported event payload version %d (supported: %d)", version, PayloadVersion)
	}
	return nil
}

// Decode validates a raw payload and returns the typed event. Any length or
// range mismatch yields a MalformedEventError; nothing is guessed.
func Decode(kind hal.EventKind, payload []byte) (Event, error) {
	want, ok := payloadLength[kind]
	if !ok {
		return nil, malformed(kind, "unknown event kind %d", uint8(kind))
	}
	if len(payload) != want {
		return nil, malformed(kind, "payload length %d, want %d", len(payload), want)
	}

	switch kind {
	case hal.EventPreResolutionChange:
		w, h := word(payload, 0), word(payload, 1)
		if w < 0 || h < 0 {
			return nil, malformed(kind, "negative target size %dx%d", w, h)
		}
		return ResolutionPreChange{Width: w, Height: h}, nil

	case hal.EventPostResolutionChange:
		w, h := word(payload, 0), word(payload, 1)
		if w <= 0 || h <= 0 {
			return nil, malformed(kind, "invalid size %dx%d", w, h)
		}
		return ResolutionPostChange{Width: w, Height: h}, nil

	case hal.EventHotPlug:
		port := word(payload, 0)
		connected, err := flag(kind, word(payload, 1))
		if err != nil {
			return nil, err
		}
		if port < 0 {
			return nil, malformed(kind, "negative port id %d", port)
		}
		return HotPlug{PortID: port, Connected: connected}, nil

	case hal.EventActiveInputChanged:
		active, err := flag(kind, word(payload, 1))
		if err != nil {
			return nil, err
		}
		return ActiveInputChanged{Input: word(payload, 0), Active: active}, nil

	case hal.EventZoomSettingsChanged:
		idx := word(payload, 0)
		if idx < 0 || idx >= len(hal.ZoomModes) {
			return nil, malformed(kind, "zoom index %d out of range", idx)
		}
		return ZoomChanged{Mode: hal.ZoomModes[idx]}, nil
	}

	return nil, malformed(kind, "unhandled event kind")
}

func word(payload []byte, i int) int {
	return int(int32(binary.LittleEndian.Uint32(payload[i*4:])))
}

func flag(kind hal.EventKind, v int) (bool, error) {
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, malformed(kind, "flag value %d is neither 0 nor 1", v)
	}
}

func words(values ...int) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(int32(v)))
	}
	return buf
}

// EncodeWords packs raw 32-bit words without validation. Used to inject
// arbitrary, possibly malformed, payloads.
func EncodeWords(values ...int) []byte {
	return words(values...)
}

func boolWord(b bool) int {
	if b {
		return 1
	}
	return 0
}

// EncodeResolution builds a Pre or Post resolution payload.
func EncodeResolution(width, height int) []byte {
	return words(width, height)
}

// EncodeHotPlug builds a HotPlug payload.
func EncodeHotPlug(portID int, connected bool) []byte {
	return words(portID, boolWord(connected))
}

// EncodeActiveInput builds an ActiveInputChanged payload.
func EncodeActiveInput(input int, active bool) []byte {
	return words(input, boolWord(active))
}

// EncodeZoom builds a ZoomSettingsChanged payload for a named mode.
func EncodeZoom(mode string) ([]byte, error) {
	idx, ok := hal.ZoomIndex(mode)
	if !ok {
		return nil, errors.Errorf("unknown zoom mode %q", mode)
	}
	return words(idx), nil
}

// Encode builds the payload for a typed event.
func Encode(e Event) ([]byte, error) {
	switch ev := e.(type) {
	case ResolutionPreChange:
		return EncodeResolution(ev.Width, ev.Height), nil
	case ResolutionPostChange:
		return EncodeResolution(ev.Width, ev.Height), nil
	case HotPlug:
		return EncodeHotPlug(ev.PortID, ev.Connected), nil
	case ActiveInputChanged:
		return EncodeActiveInput(ev.Input, ev.Active), nil
	case ZoomChanged:
		return EncodeZoom(ev.Mode)
	default:
		return nil, errors.Errorf("cannot encode event %T", e)
	}
}
