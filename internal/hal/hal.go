// Package hal defines the hardware abstraction the display settings service
// drives. Implementations forward to a real device layer; nothing in this
// package makes decisions about display state.
package hal

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotSupported is returned by backends for operations the device cannot perform.
var ErrNotSupported = errors.New("operation not supported by hardware")

// Port describes one physical output on the device.
type Port struct {
	ID    int    `json:"id" yaml:"id" toml:"id"`
	Name  string `json:"name" yaml:"name" toml:"name"`
	Video bool   `json:"video" yaml:"video" toml:"video"`
	Audio bool   `json:"audio" yaml:"audio" toml:"audio"`
}

// Resolution is a named video mode.
type Resolution struct {
	Name   string `json:"name" yaml:"name" toml:"name"`
	Width  int    `json:"width" yaml:"width" toml:"width"`
	Height int    `json:"height" yaml:"height" toml:"height"`
}

func (r Resolution) String() string {
	return fmt.Sprintf("%s(%dx%d)", r.Name, r.Width, r.Height)
}

// HDRSupport lists the HDR standards supported by a sink or by the set-top.
type HDRSupport struct {
	Supported bool     `json:"supportsHDR"`
	Standards []string `json:"standards"`
}

// OutputSettings are the current video output characteristics of a port.
type OutputSettings struct {
	ColorSpace         int `json:"colorSpace"`
	ColorDepth         int `json:"colorDepth"`
	MatrixCoefficients int `json:"matrixCoefficients"`
	VideoEOTF          int `json:"videoEOTF"`
}

// Leveller is the volume leveller configuration of an audio port.
type Leveller struct {
	Mode  int `json:"mode"`
	Level int `json:"level"`
}

// Virtualizer is the surround virtualizer configuration of an audio port.
type Virtualizer struct {
	Mode  int `json:"mode"`
	Boost int `json:"boost"`
}

// ZoomModes are the zoom settings in hardware index order.
var ZoomModes = []string{
	"NONE",
	"FULL",
	"LB_16_9",
	"LB_14_9",
	"CCO",
	"PAN_SCAN",
	"LB_2_21_1_ON_4_3",
	"LB_2_21_1_ON_16_9",
	"PLATFORM",
	"16_9_ZOOM",
	"PILLARBOX_4_3",
	"WIDE_4_3",
}

// ZoomIndex returns the hardware index of a zoom mode.
func ZoomIndex(mode string) (int, bool) {
	for i, m := range ZoomModes {
		if m == mode {
			return i, true
		}
	}
	return -1, false
}

// Ports exposes the static port table of a device.
type Ports interface {
	Ports() []Port
}

// Video is the video half of the hardware abstraction.
type Video interface {
	ConnectedVideoPorts(ctx context.Context) ([]string, error)
	SupportedResolutions(ctx context.Context, port string) ([]Resolution, error)
	SupportedTvResolutions(ctx context.Context, port string) ([]string, error)
	SupportedSettopResolutions(ctx context.Context) ([]string, error)
	CurrentResolution(ctx context.Context, port string) (Resolution, error)
	SetCurrentResolution(ctx context.Context, port, resolution string, persist bool) (Resolution, error)
	DefaultResolution(ctx context.Context, port string) (string, error)
	ZoomSetting(ctx context.Context) (string, error)
	SetZoomSetting(ctx context.Context, mode string) error
	ActiveInput(ctx context.Context) (bool, error)
	ReadEDID(ctx context.Context, port string) ([]byte, error)
	ReadHostEDID(ctx context.Context) ([]byte, error)
	TvHDRSupport(ctx context.Context) (HDRSupport, error)
	SettopHDRSupport(ctx context.Context) (HDRSupport, error)
	TVHDRCapabilities(ctx context.Context) (int, error)
	VideoPortStatusInStandby(ctx context.Context, port string) (bool, error)
	SetVideoPortStatusInStandby(ctx context.Context, port string, enabled bool) error
	CurrentOutputSettings(ctx context.Context, port string) (OutputSettings, error)
	SetScartParameter(ctx context.Context, parameter, data string) error
}

// Audio is the audio half of the hardware abstraction.
type Audio interface {
	ConnectedAudioPorts(ctx context.Context) ([]string, error)
	SupportedAudioModes(ctx context.Context, port string) ([]string, error)
	SoundMode(ctx context.Context, port string) (string, error)
	SetSoundMode(ctx context.Context, port, mode string, persist bool) error
	AudioDelay(ctx context.Context, port string) (int, error)
	SetAudioDelay(ctx context.Context, port string, delayMs int) error
	AudioDelayOffset(ctx context.Context, port string) (int, error)
	SetAudioDelayOffset(ctx context.Context, port string, offsetMs int) error
	SinkAtmosCapability(ctx context.Context) (int, error)
	SetAudioAtmosOutputMode(ctx context.Context, enable bool) error
	VolumeLeveller(ctx context.Context, port string) (Leveller, error)
	SetVolumeLeveller(ctx context.Context, port string, l Leveller) error
	BassEnhancer(ctx context.Context, port string) (int, error)
	SetBassEnhancer(ctx context.Context, port string, boost int) error
	SurroundDecoder(ctx context.Context, port string) (bool, error)
	EnableSurroundDecoder(ctx context.Context, port string, enable bool) error
	DRCMode(ctx context.Context, port string) (int, error)
	SetDRCMode(ctx context.Context, port string, mode int) error
	SurroundVirtualizer(ctx context.Context, port string) (Virtualizer, error)
	SetSurroundVirtualizer(ctx context.Context, port string, v Virtualizer) error
	MISteering(ctx context.Context, port string) (bool, error)
	SetMISteering(ctx context.Context, port string, enable bool) error
	Gain(ctx context.Context, port string) (float64, error)
	SetGain(ctx context.Context, port string, gain float64) error
	Level(ctx context.Context, port string) (float64, error)
	SetLevel(ctx context.Context, port string, level float64) error
}

// Display is the complete hardware abstraction of one device.
type Display interface {
	Ports
	Video
	Audio
}

// Injector is implemented by backends that can synthesize hardware events,
// such as the simulator.
type Injector interface {
	Inject(kind EventKind, payload []byte) error
}
