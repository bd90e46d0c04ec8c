// Package sim is an in-memory display backend. It keeps plausible device
// state, raises hardware events the way a set-top does, and can be told to
// fail individual calls.
package sim

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/comcastmike/rdkservices/internal/event"
	"github.com/comcastmike/rdkservices/internal/hal"
	"github.com/comcastmike/rdkservices/internal/util"
)

type audioControls struct {
	soundMode       string
	delay           int
	delayOffset     int
	leveller        hal.Leveller
	bassBoost       int
	surroundDecoder bool
	drcMode         int
	virtualizer     hal.Virtualizer
	miSteering      bool
	gain            float64
	level           float64
}

// Device is a simulated display device.
type Device struct {
	profile Profile
	bus     *hal.LocalBus
	latency time.Duration

	mu        sync.Mutex
	current   map[string]hal.Resolution
	zoom      string
	active    bool
	connected map[string]bool
	standby   map[string]bool
	audio     map[string]*audioControls
	atmos     bool
	failures  map[string]error
	calls     map[string]int

	wg sync.WaitGroup
}

// New creates a device from a profile.
func New(p Profile) (*Device, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	d := &Device{
		profile:   p,
		bus:       hal.NewLocalBus(),
		latency:   time.Duration(p.EventLatencyMs) * time.Millisecond,
		current:   make(map[string]hal.Resolution),
		zoom:      p.Zoom,
		active:    p.ActiveInput,
		connected: make(map[string]bool),
		standby:   make(map[string]bool),
		audio:     make(map[string]*audioControls),
		failures:  make(map[string]error),
		calls:     make(map[string]int),
	}
	if d.zoom == "" {
		d.zoom = hal.ZoomModes[0]
	}
	for _, c := range p.Connected {
		d.connected[c] = true
	}
	for _, port := range p.Ports {
		if port.Video {
			if r, ok := p.resolution(p.CurrentResolution); ok {
				d.current[port.Name] = r
			}
		}
		if port.Audio {
			mode := "STEREO"
			if len(p.AudioModes) > 0 {
				mode = p.AudioModes[0]
			}
			d.audio[port.Name] = &audioControls{soundMode: mode, gain: 50, level: 50}
		}
	}
	return d, nil
}

// Bus returns the device's event bus.
func (d *Device) Bus() hal.EventBus {
	return d.bus
}

// Ports returns the profile's port table.
func (d *Device) Ports() []hal.Port {
	out := make([]hal.Port, len(d.profile.Ports))
	copy(out, d.profile.Ports)
	return out
}

// FailNext makes the next call of op return err.
func (d *Device) FailNext(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[op] = err
}

// Calls returns how many times op was invoked.
func (d *Device) Calls(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[op]
}

// enter records a call and returns any injected failure. d.mu must be held.
func (d *Device) enter(ctx context.Context, op string) error {
	d.calls[op]++
	if err, ok := d.failures[op]; ok {
		delete(d.failures, op)
		return err
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) port(name string, video bool) (hal.Port, error) {
	for _, p := range d.profile.Ports {
		if p.Name == name {
			if video && !p.Video {
				return p, errors.Errorf("%s has no video output", name)
			}
			if !video && !p.Audio {
				return p, errors.Errorf("%s has no audio output", name)
			}
			return p, nil
		}
	}
	return hal.Port{}, errors.Errorf("no such port %s", name)
}

func (d *Device) audioPort(name string) (*audioControls, error) {
	if _, err := d.port(name, false); err != nil {
		return nil, err
	}
	return d.audio[name], nil
}

// Inject publishes a raw event as if the hardware raised it.
func (d *Device) Inject(kind hal.EventKind, payload []byte) error {
	d.bus.Publish(kind, payload)
	return nil
}

// Plug changes the connection state of a port and raises HotPlug.
func (d *Device) Plug(name string, connected bool) error {
	d.mu.Lock()
	p, err := d.portLocked(name)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	if connected {
		d.connected[name] = true
	} else {
		delete(d.connected, name)
	}
	d.mu.Unlock()

	d.bus.Publish(hal.EventHotPlug, event.EncodeHotPlug(p.ID, connected))
	return nil
}

func (d *Device) portLocked(name string) (hal.Port, error) {
	for _, p := range d.profile.Ports {
		if p.Name == name {
			return p, nil
		}
	}
	return hal.Port{}, errors.Errorf("no such port %s", name)
}

// SwitchInput changes whether the device is the active source on the sink.
func (d *Device) SwitchInput(active bool) {
	d.mu.Lock()
	d.active = active
	d.mu.Unlock()
	d.bus.Publish(hal.EventActiveInputChanged, event.EncodeActiveInput(0, active))
}

// Wait blocks until asynchronous events raised so far were published.
func (d *Device) Wait() {
	d.wg.Wait()
}

// Close waits for pending events and closes the bus.
func (d *Device) Close() error {
	d.wg.Wait()
	d.bus.Close()
	return nil
}

func (d *Device) ConnectedVideoPorts(ctx context.Context) ([]string, error) {
	return d.connectedPorts(ctx, "ConnectedVideoPorts", true)
}

func (d *Device) ConnectedAudioPorts(ctx context.Context) ([]string, error) {
	return d.connectedPorts(ctx, "ConnectedAudioPorts", false)
}

func (d *Device) connectedPorts(ctx context.Context, op string, video bool) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, op); err != nil {
		return nil, err
	}
	out := []string{}
	for _, p := range d.profile.Ports {
		if d.connected[p.Name] && ((video && p.Video) || (!video && p.Audio)) {
			out = append(out, p.Name)
		}
	}
	return out, nil
}

func (d *Device) SupportedResolutions(ctx context.Context, port string) ([]hal.Resolution, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "SupportedResolutions"); err != nil {
		return nil, err
	}
	if _, err := d.port(port, true); err != nil {
		return nil, err
	}
	out := make([]hal.Resolution, len(d.profile.Resolutions))
	copy(out, d.profile.Resolutions)
	return out, nil
}

func (d *Device) SupportedTvResolutions(ctx context.Context, port string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "SupportedTvResolutions"); err != nil {
		return nil, err
	}
	if _, err := d.port(port, true); err != nil {
		return nil, err
	}
	if !d.connected[port] {
		return []string{}, nil
	}
	return append([]string{}, d.profile.TvResolutions...), nil
}

func (d *Device) SupportedSettopResolutions(ctx context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "SupportedSettopResolutions"); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(d.profile.Resolutions))
	for _, r := range d.profile.Resolutions {
		out = append(out, r.Name)
	}
	return out, nil
}

func (d *Device) CurrentResolution(ctx context.Context, port string) (hal.Resolution, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "CurrentResolution"); err != nil {
		return hal.Resolution{}, err
	}
	if _, err := d.port(port, true); err != nil {
		return hal.Resolution{}, err
	}
	r, ok := d.current[port]
	if !ok {
		return hal.Resolution{}, errors.Errorf("%s has no active mode", port)
	}
	return r, nil
}

// SetCurrentResolution switches the mode and, like real hardware, raises
// PreResolutionChange and PostResolutionChange from another goroutine.
func (d *Device) SetCurrentResolution(ctx context.Context, port, resolution string, persist bool) (hal.Resolution, error) {
	d.mu.Lock()
	if err := d.enter(ctx, "SetCurrentResolution"); err != nil {
		d.mu.Unlock()
		return hal.Resolution{}, err
	}
	if _, err := d.port(port, true); err != nil {
		d.mu.Unlock()
		return hal.Resolution{}, err
	}
	r, ok := d.profile.resolution(resolution)
	if !ok {
		d.mu.Unlock()
		return hal.Resolution{}, errors.Errorf("resolution %s not supported on %s", resolution, port)
	}
	d.current[port] = r
	if persist {
		d.profile.CurrentResolution = resolution
	}
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.bus.Publish(hal.EventPreResolutionChange, event.EncodeResolution(r.Width, r.Height))
		if d.latency > 0 {
			time.Sleep(d.latency)
		}
		d.bus.Publish(hal.EventPostResolutionChange, event.EncodeResolution(r.Width, r.Height))
		util.GetLogger().Debug("Simulated resolution change", "port", port, "resolution", r.String())
	}()
	return r, nil
}

func (d *Device) DefaultResolution(ctx context.Context, port string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "DefaultResolution"); err != nil {
		return "", err
	}
	if _, err := d.port(port, true); err != nil {
		return "", err
	}
	return d.profile.DefaultResolution, nil
}

func (d *Device) ZoomSetting(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "ZoomSetting"); err != nil {
		return "", err
	}
	return d.zoom, nil
}

func (d *Device) SetZoomSetting(ctx context.Context, mode string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "SetZoomSetting"); err != nil {
		return err
	}
	if _, ok := hal.ZoomIndex(mode); !ok {
		return errors.Errorf("unknown zoom setting %s", mode)
	}
	d.zoom = mode
	return nil
}

func (d *Device) ActiveInput(ctx context.Context) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "ActiveInput"); err != nil {
		return false, err
	}
	return d.active, nil
}

func (d *Device) ReadEDID(ctx context.Context, port string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "ReadEDID"); err != nil {
		return nil, err
	}
	if _, err := d.port(port, true); err != nil {
		return nil, err
	}
	if !d.connected[port] {
		return nil, errors.Errorf("no sink connected to %s", port)
	}
	return hex.DecodeString(d.profile.EDID)
}

func (d *Device) ReadHostEDID(ctx context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "ReadHostEDID"); err != nil {
		return nil, err
	}
	return hex.DecodeString(d.profile.HostEDID)
}

func hdr(standards []string) hal.HDRSupport {
	return hal.HDRSupport{Supported: len(standards) > 0, Standards: append([]string{}, standards...)}
}

func (d *Device) TvHDRSupport(ctx context.Context) (hal.HDRSupport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "TvHDRSupport"); err != nil {
		return hal.HDRSupport{}, err
	}
	return hdr(d.profile.TvHDRStandards), nil
}

func (d *Device) SettopHDRSupport(ctx context.Context) (hal.HDRSupport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "SettopHDRSupport"); err != nil {
		return hal.HDRSupport{}, err
	}
	return hdr(d.profile.SettopHDRStandards), nil
}

// hdrCapabilityBits follows the dsHDRStandard bit layout.
var hdrCapabilityBits = map[string]int{
	"HDR10":        0x01,
	"HLG":          0x02,
	"Dolby Vision": 0x04,
	"Technicolor":  0x08,
	"HDR10+":       0x10,
}

func (d *Device) TVHDRCapabilities(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "TVHDRCapabilities"); err != nil {
		return 0, err
	}
	caps := 0
	for _, s := range d.profile.TvHDRStandards {
		caps |= hdrCapabilityBits[s]
	}
	return caps, nil
}

func (d *Device) VideoPortStatusInStandby(ctx context.Context, port string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "VideoPortStatusInStandby"); err != nil {
		return false, err
	}
	if _, err := d.port(port, true); err != nil {
		return false, err
	}
	return d.standby[port], nil
}

func (d *Device) SetVideoPortStatusInStandby(ctx context.Context, port string, enabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "SetVideoPortStatusInStandby"); err != nil {
		return err
	}
	if _, err := d.port(port, true); err != nil {
		return err
	}
	d.standby[port] = enabled
	return nil
}

func (d *Device) CurrentOutputSettings(ctx context.Context, port string) (hal.OutputSettings, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "CurrentOutputSettings"); err != nil {
		return hal.OutputSettings{}, err
	}
	if _, err := d.port(port, true); err != nil {
		return hal.OutputSettings{}, err
	}
	return hal.OutputSettings{ColorSpace: 1, ColorDepth: 8, MatrixCoefficients: 1, VideoEOTF: 0}, nil
}

func (d *Device) SetScartParameter(ctx context.Context, parameter, data string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "SetScartParameter"); err != nil {
		return err
	}
	return errors.Wrap(hal.ErrNotSupported, "no SCART output")
}
