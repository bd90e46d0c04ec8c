package settings

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pkg/errors"

	"github.com/comcastmike/rdkservices/internal/hal"
)

type audioField string

const (
	fieldSoundMode       audioField = "soundMode"
	fieldDelay           audioField = "audioDelay"
	fieldDelayOffset     audioField = "audioDelayOffset"
	fieldLeveller        audioField = "volumeLeveller"
	fieldBassEnhancer    audioField = "bassEnhancer"
	fieldSurroundDecoder audioField = "surroundDecoder"
	fieldDRCMode         audioField = "DRCMode"
	fieldVirtualizer     audioField = "surroundVirtualizer"
	fieldMISteering      audioField = "MISteering"
	fieldGain            audioField = "gain"
	fieldLevel           audioField = "level"
)

// AudioSettings are the cached audio controls of one port.
type AudioSettings struct {
	SoundMode       string          `json:"soundMode,omitempty"`
	Delay           int             `json:"audioDelay"`
	DelayOffset     int             `json:"audioDelayOffset"`
	Leveller        hal.Leveller    `json:"volumeLeveller"`
	BassBoost       int             `json:"bassBoost"`
	SurroundDecoder bool            `json:"surroundDecoderEnable"`
	DRCMode         int             `json:"DRCMode"`
	Virtualizer     hal.Virtualizer `json:"surroundVirtualizer"`
	MISteering      bool            `json:"MISteeringEnable"`
	Gain            float64         `json:"gain"`
	Level           float64         `json:"level"`
}

type portAudio struct {
	settings AudioSettings
	known    map[audioField]bool
}

// AudioSnapshot is a consistent copy of the audio field-group.
type AudioSnapshot struct {
	ConnectedPorts []string                 `json:"connectedAudioPorts"`
	AtmosOutput    bool                     `json:"atmosOutputMode"`
	Ports          map[string]AudioSettings `json:"ports"`
}

type audioState struct {
	connected   map[int]bool
	atmosOutput bool
	ports       map[string]*portAudio
}

// AudioGroup owns the audio fields of the display state.
type AudioGroup struct {
	hw     hal.Audio
	ports  *PortTable
	logger *slog.Logger

	writeMu sync.Mutex
	mu      sync.RWMutex
	state   audioState
}

func newAudioGroup(hw hal.Audio, ports *PortTable) *AudioGroup {
	return &AudioGroup{
		hw:     hw,
		ports:  ports,
		logger: groupLogger("audio"),
		state: audioState{
			connected: make(map[int]bool),
			ports:     make(map[string]*portAudio),
		},
	}
}

func (a *AudioGroup) portLocked(name string) *portAudio {
	p, ok := a.state.ports[name]
	if !ok {
		p = &portAudio{known: make(map[audioField]bool)}
		a.state.ports[name] = p
	}
	return p
}

func (a *AudioGroup) commit(port string, field audioField, apply func(*AudioSettings)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p := a.portLocked(port)
	apply(&p.settings)
	p.known[field] = true
}

func (a *AudioGroup) seed(ctx context.Context) {
	if connected, err := a.hw.ConnectedAudioPorts(ctx); err != nil {
		a.logger.Warn("Failed to read connected audio ports", "error", err)
	} else {
		a.mu.Lock()
		for _, name := range connected {
			if p, ok := a.ports.PortByName(name); ok && p.Audio {
				a.state.connected[p.ID] = true
			}
		}
		a.mu.Unlock()
	}

	for _, name := range a.ports.AudioPorts() {
		a.seedPort(ctx, name)
	}
}

func (a *AudioGroup) seedPort(ctx context.Context, port string) {
	seeded := 0
	try := func(field audioField, read func() (func(*AudioSettings), error)) {
		apply, err := read()
		if err != nil {
			a.logger.Debug("Audio control not seeded", "port", port, "field", string(field), "error", err)
			return
		}
		a.commit(port, field, apply)
		seeded++
	}

	try(fieldSoundMode, func() (func(*AudioSettings), error) {
		v, err := a.hw.SoundMode(ctx, port)
		return func(s *AudioSettings) { s.SoundMode = v }, err
	})
	try(fieldDelay, func() (func(*AudioSettings), error) {
		v, err := a.hw.AudioDelay(ctx, port)
		return func(s *AudioSettings) { s.Delay = v }, err
	})
	try(fieldDelayOffset, func() (func(*AudioSettings), error) {
		v, err := a.hw.AudioDelayOffset(ctx, port)
		return func(s *AudioSettings) { s.DelayOffset = v }, err
	})
	try(fieldLeveller, func() (func(*AudioSettings), error) {
		v, err := a.hw.VolumeLeveller(ctx, port)
		return func(s *AudioSettings) { s.Leveller = v }, err
	})
	try(fieldBassEnhancer, func() (func(*AudioSettings), error) {
		v, err := a.hw.BassEnhancer(ctx, port)
		return func(s *AudioSettings) { s.BassBoost = v }, err
	})
	try(fieldSurroundDecoder, func() (func(*AudioSettings), error) {
		v, err := a.hw.SurroundDecoder(ctx, port)
		return func(s *AudioSettings) { s.SurroundDecoder = v }, err
	})
	try(fieldDRCMode, func() (func(*AudioSettings), error) {
		v, err := a.hw.DRCMode(ctx, port)
		return func(s *AudioSettings) { s.DRCMode = v }, err
	})
	try(fieldVirtualizer, func() (func(*AudioSettings), error) {
		v, err := a.hw.SurroundVirtualizer(ctx, port)
		return func(s *AudioSettings) { s.Virtualizer = v }, err
	})
	try(fieldMISteering, func() (func(*AudioSettings), error) {
		v, err := a.hw.MISteering(ctx, port)
		return func(s *AudioSettings) { s.MISteering = v }, err
	})
	try(fieldGain, func() (func(*AudioSettings), error) {
		v, err := a.hw.Gain(ctx, port)
		return func(s *AudioSettings) { s.Gain = v }, err
	})
	try(fieldLevel, func() (func(*AudioSettings), error) {
		v, err := a.hw.Level(ctx, port)
		return func(s *AudioSettings) { s.Level = v }, err
	})

	a.logger.Debug("Audio port seeded", "port", port, "controls", seeded)
}

// Snapshot returns all audio fields read under one lock.
func (a *AudioGroup) Snapshot() AudioSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snap := AudioSnapshot{
		ConnectedPorts: a.connectedLocked(),
		AtmosOutput:    a.state.atmosOutput,
		Ports:          make(map[string]AudioSettings, len(a.state.ports)),
	}
	for name, p := range a.state.ports {
		snap.Ports[name] = p.settings
	}
	return snap
}

func (a *AudioGroup) connectedLocked() []string {
	names := []string{}
	for _, p := range a.ports.Ports() {
		if p.Audio && a.state.connected[p.ID] {
			names = append(names, p.Name)
		}
	}
	return names
}

// ConnectedAudioPorts returns the connected audio port names.
func (a *AudioGroup) ConnectedAudioPorts() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.connectedLocked()
}

// SupportedAudioPorts returns every audio-capable port.
func (a *AudioGroup) SupportedAudioPorts() []string {
	return a.ports.AudioPorts()
}

// Settings returns the cached controls of an audio port.
func (a *AudioGroup) Settings(port string) (AudioSettings, error) {
	p, err := a.ports.audioPort(port)
	if err != nil {
		return AudioSettings{}, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	pa, ok := a.state.ports[p.Name]
	if !ok {
		return AudioSettings{}, errors.Wrapf(ErrStateUnavailable, "audio settings of %s", p.Name)
	}
	return pa.settings, nil
}

// audioValue reads one cached control of a port.
func audioValue[T any](a *AudioGroup, port string, field audioField, get func(AudioSettings) T) (T, error) {
	var zero T
	p, err := a.ports.audioPort(port)
	if err != nil {
		return zero, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	pa, ok := a.state.ports[p.Name]
	if !ok || !pa.known[field] {
		return zero, errors.Wrapf(ErrStateUnavailable, "%s of %s", field, p.Name)
	}
	return get(pa.settings), nil
}

// write calls the hardware once with the group's write lock held and
// commits on success.
func (a *AudioGroup) write(port string, field audioField, call func(port string) error, apply func(*AudioSettings)) error {
	p, err := a.ports.audioPort(port)
	if err != nil {
		return err
	}

	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	if err := call(p.Name); err != nil {
		return hardwareError("set"+upperFirst(string(field)), err)
	}
	a.commit(p.Name, field, apply)
	a.logger.Debug("Audio control set", "port", p.Name, "field", string(field))
	return nil
}

func upperFirst(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func (a *AudioGroup) SupportedAudioModes(ctx context.Context, port string) ([]string, error) {
	p, err := a.ports.audioPort(port)
	if err != nil {
		return nil, err
	}
	modes, err := a.hw.SupportedAudioModes(ctx, p.Name)
	return modes, hardwareError("getSupportedAudioModes", err)
}

func (a *AudioGroup) SinkAtmosCapability(ctx context.Context) (int, error) {
	caps, err := a.hw.SinkAtmosCapability(ctx)
	return caps, hardwareError("getSinkAtmosCapability", err)
}

func (a *AudioGroup) SetAudioAtmosOutputMode(ctx context.Context, enable bool) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	if err := a.hw.SetAudioAtmosOutputMode(ctx, enable); err != nil {
		return hardwareError("setAudioAtmosOutputMode", err)
	}
	a.mu.Lock()
	a.state.atmosOutput = enable
	a.mu.Unlock()
	return nil
}

func (a *AudioGroup) SoundMode(port string) (string, error) {
	return audioValue(a, port, fieldSoundMode, func(s AudioSettings) string { return s.SoundMode })
}

func (a *AudioGroup) SetSoundMode(ctx context.Context, port, mode string, persist bool) error {
	if mode == "" {
		return invalidParam("soundMode is required")
	}
	return a.write(port, fieldSoundMode, func(name string) error {
		return a.hw.SetSoundMode(ctx, name, mode, persist)
	}, func(s *AudioSettings) { s.SoundMode = mode })
}

func (a *AudioGroup) AudioDelay(port string) (int, error) {
	return audioValue(a, port, fieldDelay, func(s AudioSettings) int { return s.Delay })
}

func (a *AudioGroup) SetAudioDelay(ctx context.Context, port string, delayMs int) error {
	if delayMs < 0 {
		return invalidParam("audioDelay %d is negative", delayMs)
	}
	return a.write(port, fieldDelay, func(name string) error {
		return a.hw.SetAudioDelay(ctx, name, delayMs)
	}, func(s *AudioSettings) { s.Delay = delayMs })
}

func (a *AudioGroup) AudioDelayOffset(port string) (int, error) {
	return audioValue(a, port, fieldDelayOffset, func(s AudioSettings) int { return s.DelayOffset })
}

func (a *AudioGroup) SetAudioDelayOffset(ctx context.Context, port string, offsetMs int) error {
	if offsetMs < 0 {
		return invalidParam("audioDelayOffset %d is negative", offsetMs)
	}
	return a.write(port, fieldDelayOffset, func(name string) error {
		return a.hw.SetAudioDelayOffset(ctx, name, offsetMs)
	}, func(s *AudioSettings) { s.DelayOffset = offsetMs })
}

func (a *AudioGroup) VolumeLeveller(port string) (hal.Leveller, error) {
	return audioValue(a, port, fieldLeveller, func(s AudioSettings) hal.Leveller { return s.Leveller })
}

func (a *AudioGroup) SetVolumeLeveller(ctx context.Context, port string, l hal.Leveller) error {
	if l.Mode < 0 || l.Mode > 2 {
		return invalidParam("volume leveller mode %d outside 0..2", l.Mode)
	}
	if l.Level < 0 || l.Level > 10 {
		return invalidParam("volume leveller level %d outside 0..10", l.Level)
	}
	return a.write(port, fieldLeveller, func(name string) error {
		return a.hw.SetVolumeLeveller(ctx, name, l)
	}, func(s *AudioSettings) { s.Leveller = l })
}

func (a *AudioGroup) BassEnhancer(port string) (int, error) {
	return audioValue(a, port, fieldBassEnhancer, func(s AudioSettings) int { return s.BassBoost })
}

func (a *AudioGroup) SetBassEnhancer(ctx context.Context, port string, boost int) error {
	if boost < 0 || boost > 100 {
		return invalidParam("bass boost %d outside 0..100", boost)
	}
	return a.write(port, fieldBassEnhancer, func(name string) error {
		return a.hw.SetBassEnhancer(ctx, name, boost)
	}, func(s *AudioSettings) { s.BassBoost = boost })
}

func (a *AudioGroup) SurroundDecoder(port string) (bool, error) {
	return audioValue(a, port, fieldSurroundDecoder, func(s AudioSettings) bool { return s.SurroundDecoder })
}

func (a *AudioGroup) EnableSurroundDecoder(ctx context.Context, port string, enable bool) error {
	return a.write(port, fieldSurroundDecoder, func(name string) error {
		return a.hw.EnableSurroundDecoder(ctx, name, enable)
	}, func(s *AudioSettings) { s.SurroundDecoder = enable })
}

func (a *AudioGroup) DRCMode(port string) (int, error) {
	return audioValue(a, port, fieldDRCMode, func(s AudioSettings) int { return s.DRCMode })
}

// SetDRCMode selects line (0) or RF (1) dynamic range compression.
func (a *AudioGroup) SetDRCMode(ctx context.Context, port string, mode int) error {
	if mode != 0 && mode != 1 {
		return invalidParam("DRC mode %d is neither 0 (line) nor 1 (RF)", mode)
	}
	return a.write(port, fieldDRCMode, func(name string) error {
		return a.hw.SetDRCMode(ctx, name, mode)
	}, func(s *AudioSettings) { s.DRCMode = mode })
}

func (a *AudioGroup) SurroundVirtualizer(port string) (hal.Virtualizer, error) {
	return audioValue(a, port, fieldVirtualizer, func(s AudioSettings) hal.Virtualizer { return s.Virtualizer })
}

func (a *AudioGroup) SetSurroundVirtualizer(ctx context.Context, port string, v hal.Virtualizer) error {
	if v.Mode < 0 || v.Mode > 2 {
		return invalidParam("surround virtualizer mode %d outside 0..2", v.Mode)
	}
	if v.Boost < 0 || v.Boost > 10 {
		return invalidParam("surround virtualizer boost %d outside 0..10", v.Boost)
	}
	return a.write(port, fieldVirtualizer, func(name string) error {
		return a.hw.SetSurroundVirtualizer(ctx, name, v)
	}, func(s *AudioSettings) { s.Virtualizer = v })
}

func (a *AudioGroup) MISteering(port string) (bool, error) {
	return audioValue(a, port, fieldMISteering, func(s AudioSettings) bool { return s.MISteering })
}

func (a *AudioGroup) SetMISteering(ctx context.Context, port string, enable bool) error {
	return a.write(port, fieldMISteering, func(name string) error {
		return a.hw.SetMISteering(ctx, name, enable)
	}, func(s *AudioSettings) { s.MISteering = enable })
}

func (a *AudioGroup) Gain(port string) (float64, error) {
	return audioValue(a, port, fieldGain, func(s AudioSettings) float64 { return s.Gain })
}

func (a *AudioGroup) SetGain(ctx context.Context, port string, gain float64) error {
	if gain < 0 || gain > 100 {
		return invalidParam("gain %g outside 0..100", gain)
	}
	return a.write(port, fieldGain, func(name string) error {
		return a.hw.SetGain(ctx, name, gain)
	}, func(s *AudioSettings) { s.Gain = gain })
}

func (a *AudioGroup) Level(port string) (float64, error) {
	return audioValue(a, port, fieldLevel, func(s AudioSettings) float64 { return s.Level })
}

func (a *AudioGroup) SetLevel(ctx context.Context, port string, level float64) error {
	if level < 0 || level > 100 {
		return invalidParam("level %g outside 0..100", level)
	}
	return a.write(port, fieldLevel, func(name string) error {
		return a.hw.SetLevel(ctx, name, level)
	}, func(s *AudioSettings) { s.Level = level })
}

func (a *AudioGroup) hotplugChanged(port hal.Port, connected bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if connected {
		a.state.connected[port.ID] = true
	} else {
		delete(a.state.connected, port.ID)
	}
	a.logger.Info("Audio port connection changed", "port", port.Name, "connected", connected)
}
