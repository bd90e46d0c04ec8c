package settings

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/comcastmike/rdkservices/internal/hal"
	"github.com/comcastmike/rdkservices/internal/notify"
)

// ResolutionChangeState tracks an announced but unfinished resolution switch.
type ResolutionChangeState int

const (
	Idle ResolutionChangeState = iota
	PreChangeAnnounced
)

func (s ResolutionChangeState) String() string {
	if s == PreChangeAnnounced {
		return "PreChangeAnnounced"
	}
	return "Idle"
}

// VideoSnapshot is a consistent copy of the video field-group.
type VideoSnapshot struct {
	Resolution      hal.Resolution            `json:"resolution"`
	ChangeState     string                    `json:"changeState"`
	ActiveInput     *bool                     `json:"activeInput,omitempty"`
	ZoomSetting     string                    `json:"zoomSetting,omitempty"`
	ConnectedPorts  []string                  `json:"connectedVideoDisplays"`
	PortMask        int                       `json:"portMask"`
	PortResolutions map[string]hal.Resolution `json:"portResolutions"`
	Standby         map[string]bool           `json:"videoPortStatusInStandby"`
}

type videoState struct {
	resolutions map[string]hal.Resolution
	changeState ResolutionChangeState
	activeInput bool
	activeKnown bool
	zoom        string
	// last mode raised by the hardware; cleared by API writes
	zoomReported string
	connected    map[int]bool
	standby      map[string]bool
	known        []hal.Resolution
}

// VideoGroup owns the video fields of the display state. Writes are
// serialized across the hardware call; reads and event updates only take
// the state lock.
type VideoGroup struct {
	hw       hal.Video
	ports    *PortTable
	notifier Notifier
	primary  string
	logger   *slog.Logger

	writeMu sync.Mutex
	mu      sync.RWMutex
	state   videoState
}

func newVideoGroup(hw hal.Video, ports *PortTable, notifier Notifier) *VideoGroup {
	primary := DefaultPort
	if p, ok := ports.PortByName(DefaultPort); !ok || !p.Video {
		if names := ports.VideoPorts(); len(names) > 0 {
			primary = names[0]
		}
	}
	return &VideoGroup{
		hw:       hw,
		ports:    ports,
		notifier: notifier,
		primary:  primary,
		logger:   groupLogger("video"),
		state: videoState{
			resolutions: make(map[string]hal.Resolution),
			connected:   make(map[int]bool),
			standby:     make(map[string]bool),
		},
	}
}

// PrimaryPort is the port whose resolution hardware events describe.
func (v *VideoGroup) PrimaryPort() string {
	return v.primary
}

func (v *VideoGroup) seed(ctx context.Context) {
	if connected, err := v.hw.ConnectedVideoPorts(ctx); err != nil {
		v.logger.Warn("Failed to read connected video ports", "error", err)
	} else {
		v.mu.Lock()
		for _, name := range connected {
			if p, ok := v.ports.PortByName(name); ok && p.Video {
				v.state.connected[p.ID] = true
			}
		}
		v.mu.Unlock()
	}

	for _, name := range v.ports.VideoPorts() {
		if enabled, err := v.hw.VideoPortStatusInStandby(ctx, name); err == nil {
			v.mu.Lock()
			v.state.standby[name] = enabled
			v.mu.Unlock()
		}

		res, err := v.hw.CurrentResolution(ctx, name)
		if err != nil {
			v.logger.Debug("No current resolution", "port", name, "error", err)
			continue
		}
		v.mu.Lock()
		v.state.resolutions[name] = res
		v.mu.Unlock()
	}

	if known, err := v.hw.SupportedResolutions(ctx, v.primary); err == nil {
		v.mu.Lock()
		v.state.known = known
		v.mu.Unlock()
	}

	if zoom, err := v.hw.ZoomSetting(ctx); err == nil {
		v.mu.Lock()
		v.state.zoom = zoom
		v.state.zoomReported = zoom
		v.mu.Unlock()
	}

	if active, err := v.hw.ActiveInput(ctx); err == nil {
		v.mu.Lock()
		v.state.activeInput = active
		v.state.activeKnown = true
		v.mu.Unlock()
	}
}

// Snapshot returns all video fields read under one lock.
func (v *VideoGroup) Snapshot() VideoSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	snap := VideoSnapshot{
		Resolution:      v.state.resolutions[v.primary],
		ChangeState:     v.state.changeState.String(),
		ZoomSetting:     v.state.zoom,
		PortResolutions: make(map[string]hal.Resolution, len(v.state.resolutions)),
		Standby:         make(map[string]bool, len(v.state.standby)),
	}
	if v.state.activeKnown {
		active := v.state.activeInput
		snap.ActiveInput = &active
	}
	snap.ConnectedPorts, snap.PortMask = v.connectedLocked()
	for k, r := range v.state.resolutions {
		snap.PortResolutions[k] = r
	}
	for k, s := range v.state.standby {
		snap.Standby[k] = s
	}
	return snap
}

func (v *VideoGroup) connectedLocked() ([]string, int) {
	names := []string{}
	mask := 0
	ids := make([]int, 0, len(v.state.connected))
	for id, ok := range v.state.connected {
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	for _, id := range ids {
		if p, ok := v.ports.PortByID(id); ok {
			names = append(names, p.Name)
			mask |= 1 << uint(id)
		}
	}
	return names, mask
}

// ConnectedVideoDisplays returns the connected video port names.
func (v *VideoGroup) ConnectedVideoDisplays() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	names, _ := v.connectedLocked()
	return names
}

// SupportedVideoDisplays returns every video-capable port.
func (v *VideoGroup) SupportedVideoDisplays() []string {
	return v.ports.VideoPorts()
}

// CurrentResolution returns the cached resolution of a port.
func (v *VideoGroup) CurrentResolution(port string) (hal.Resolution, error) {
	p, err := v.ports.videoPort(port)
	if err != nil {
		return hal.Resolution{}, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	res, ok := v.state.resolutions[p.Name]
	if !ok {
		return hal.Resolution{}, errors.Wrapf(ErrStateUnavailable, "resolution of %s", p.Name)
	}
	return res, nil
}

// ChangeState returns the resolution change state.
func (v *VideoGroup) ChangeState() ResolutionChangeState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state.changeState
}

// SetCurrentResolution switches a port's resolution and caches the mode
// the hardware reports.
func (v *VideoGroup) SetCurrentResolution(ctx context.Context, port, resolution string, persist bool) (hal.Resolution, error) {
	p, err := v.ports.videoPort(port)
	if err != nil {
		return hal.Resolution{}, err
	}
	if resolution == "" {
		return hal.Resolution{}, invalidParam("resolution is required")
	}

	v.writeMu.Lock()
	defer v.writeMu.Unlock()

	res, err := v.hw.SetCurrentResolution(ctx, p.Name, resolution, persist)
	if err != nil {
		return hal.Resolution{}, hardwareError("setCurrentResolution", err)
	}

	v.mu.Lock()
	v.state.resolutions[p.Name] = res
	v.mu.Unlock()

	v.logger.Info("Resolution set", "port", p.Name, "resolution", res.String(), "persist", persist)
	return res, nil
}

// ZoomSetting returns the cached zoom mode.
func (v *VideoGroup) ZoomSetting() (string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.state.zoom == "" {
		return "", errors.Wrap(ErrStateUnavailable, "zoom setting")
	}
	return v.state.zoom, nil
}

// SetZoomSetting applies a zoom mode.
func (v *VideoGroup) SetZoomSetting(ctx context.Context, mode string) error {
	if _, ok := hal.ZoomIndex(mode); !ok {
		return invalidParam("unknown zoom setting %q", mode)
	}

	v.writeMu.Lock()
	defer v.writeMu.Unlock()

	if err := v.hw.SetZoomSetting(ctx, mode); err != nil {
		return hardwareError("setZoomSetting", err)
	}

	v.mu.Lock()
	v.state.zoom = mode
	v.state.zoomReported = ""
	v.mu.Unlock()
	return nil
}

// ActiveInput returns whether the device is the active source.
func (v *VideoGroup) ActiveInput() (bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.state.activeKnown {
		return false, errors.Wrap(ErrStateUnavailable, "active input")
	}
	return v.state.activeInput, nil
}

// VideoPortStatusInStandby returns whether a port stays enabled in standby.
func (v *VideoGroup) VideoPortStatusInStandby(port string) (bool, error) {
	p, err := v.ports.videoPort(port)
	if err != nil {
		return false, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	enabled, ok := v.state.standby[p.Name]
	if !ok {
		return false, errors.Wrapf(ErrStateUnavailable, "standby status of %s", p.Name)
	}
	return enabled, nil
}

// SetVideoPortStatusInStandby sets whether a port stays enabled in standby.
func (v *VideoGroup) SetVideoPortStatusInStandby(ctx context.Context, port string, enabled bool) error {
	p, err := v.ports.videoPort(port)
	if err != nil {
		return err
	}

	v.writeMu.Lock()
	defer v.writeMu.Unlock()

	if err := v.hw.SetVideoPortStatusInStandby(ctx, p.Name, enabled); err != nil {
		return hardwareError("setVideoPortStatusInStandby", err)
	}
	v.mu.Lock()
	v.state.standby[p.Name] = enabled
	v.mu.Unlock()
	return nil
}

// SetScartParameter forwards a SCART parameter to the hardware.
func (v *VideoGroup) SetScartParameter(ctx context.Context, parameter, data string) error {
	if parameter == "" {
		return invalidParam("scartParameter is required")
	}
	v.writeMu.Lock()
	defer v.writeMu.Unlock()
	return hardwareError("setScartParameter", v.hw.SetScartParameter(ctx, parameter, data))
}

// SupportedResolutions lists the modes a port can output.
func (v *VideoGroup) SupportedResolutions(ctx context.Context, port string) ([]string, error) {
	p, err := v.ports.videoPort(port)
	if err != nil {
		return nil, err
	}
	list, err := v.hw.SupportedResolutions(ctx, p.Name)
	if err != nil {
		return nil, hardwareError("getSupportedResolutions", err)
	}
	names := make([]string, 0, len(list))
	for _, r := range list {
		names = append(names, r.Name)
	}
	return names, nil
}

// SupportedTvResolutions lists the modes the connected sink accepts.
func (v *VideoGroup) SupportedTvResolutions(ctx context.Context, port string) ([]string, error) {
	p, err := v.ports.videoPort(port)
	if err != nil {
		return nil, err
	}
	list, err := v.hw.SupportedTvResolutions(ctx, p.Name)
	return list, hardwareError("getSupportedTvResolutions", err)
}

// SupportedSettopResolutions lists the modes the device can generate.
func (v *VideoGroup) SupportedSettopResolutions(ctx context.Context) ([]string, error) {
	list, err := v.hw.SupportedSettopResolutions(ctx)
	return list, hardwareError("getSupportedSettopResolutions", err)
}

// DefaultResolution returns the platform default mode of a port.
func (v *VideoGroup) DefaultResolution(ctx context.Context, port string) (string, error) {
	p, err := v.ports.videoPort(port)
	if err != nil {
		return "", err
	}
	res, err := v.hw.DefaultResolution(ctx, p.Name)
	return res, hardwareError("getDefaultResolution", err)
}

// ReadEDID returns the raw EDID of the sink on a port.
func (v *VideoGroup) ReadEDID(ctx context.Context, port string) ([]byte, error) {
	p, err := v.ports.videoPort(port)
	if err != nil {
		return nil, err
	}
	edid, err := v.hw.ReadEDID(ctx, p.Name)
	return edid, hardwareError("readEDID", err)
}

// ReadHostEDID returns the device's own EDID.
func (v *VideoGroup) ReadHostEDID(ctx context.Context) ([]byte, error) {
	edid, err := v.hw.ReadHostEDID(ctx)
	return edid, hardwareError("readHostEDID", err)
}

func (v *VideoGroup) TvHDRSupport(ctx context.Context) (hal.HDRSupport, error) {
	s, err := v.hw.TvHDRSupport(ctx)
	return s, hardwareError("getTvHDRSupport", err)
}

func (v *VideoGroup) SettopHDRSupport(ctx context.Context) (hal.HDRSupport, error) {
	s, err := v.hw.SettopHDRSupport(ctx)
	return s, hardwareError("getSettopHDRSupport", err)
}

func (v *VideoGroup) TVHDRCapabilities(ctx context.Context) (int, error) {
	caps, err := v.hw.TVHDRCapabilities(ctx)
	return caps, hardwareError("getTVHDRCapabilities", err)
}

func (v *VideoGroup) CurrentOutputSettings(ctx context.Context, port string) (hal.OutputSettings, error) {
	p, err := v.ports.videoPort(port)
	if err != nil {
		return hal.OutputSettings{}, err
	}
	s, err := v.hw.CurrentOutputSettings(ctx, p.Name)
	return s, hardwareError("getCurrentOutputSettings", err)
}

// preResolutionChange announces a switch. Subscribers are notified while
// the state lock is held so no reader can see the new mode first. Every
// announcement is notified: a repeat means the previous Post was lost.
func (v *VideoGroup) preResolutionChange(width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state.changeState == PreChangeAnnounced {
		v.logger.Warn("Resolution change announced again without completion", "width", width, "height", height)
	} else {
		v.logger.Debug("Resolution change announced", "width", width, "height", height)
	}
	v.state.changeState = PreChangeAnnounced
	v.notifier.Notify(notify.ResolutionPreChange())
}

func (v *VideoGroup) postResolutionChange(width, height int) {
	v.mu.Lock()
	anomalous := v.state.changeState == Idle
	res := v.nameLocked(width, height)
	v.state.resolutions[v.primary] = res
	v.state.changeState = Idle
	v.mu.Unlock()

	if anomalous {
		v.logger.Warn("Resolution changed without prior announcement", "port", v.primary, "resolution", res.String())
	} else {
		v.logger.Info("Resolution changed", "port", v.primary, "resolution", res.String())
	}
	v.notifier.Notify(notify.ResolutionChanged(width, height, res.Name))
}

func (v *VideoGroup) nameLocked(width, height int) hal.Resolution {
	if cur, ok := v.state.resolutions[v.primary]; ok && cur.Width == width && cur.Height == height {
		return cur
	}
	for _, r := range v.state.known {
		if r.Width == width && r.Height == height {
			return r
		}
	}
	return hal.Resolution{Name: fmt.Sprintf("%dx%d", width, height), Width: width, Height: height}
}

func (v *VideoGroup) activeInputChanged(active bool) bool {
	v.mu.Lock()
	if v.state.activeKnown && v.state.activeInput == active {
		v.mu.Unlock()
		return false
	}
	v.state.activeInput = active
	v.state.activeKnown = true
	v.mu.Unlock()

	v.notifier.Notify(notify.ActiveInputChanged(active))
	return true
}

func (v *VideoGroup) zoomChanged(mode string) bool {
	v.mu.Lock()
	if v.state.zoomReported == mode {
		v.mu.Unlock()
		return false
	}
	v.state.zoom = mode
	v.state.zoomReported = mode
	v.mu.Unlock()

	v.notifier.Notify(notify.ZoomSettingUpdated(mode))
	return true
}

func (v *VideoGroup) hotplugChanged(port hal.Port, connected bool) {
	v.mu.Lock()
	if connected {
		v.state.connected[port.ID] = true
	} else {
		delete(v.state.connected, port.ID)
	}
	names, mask := v.connectedLocked()
	v.mu.Unlock()

	v.logger.Info("Video display connection changed", "port", port.Name, "connected", connected, "portMask", mask)
	v.notifier.Notify(notify.ConnectedVideoDisplaysUpdated(mask, names))
}
