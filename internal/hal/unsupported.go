package hal

import "context"

// Unsupported implements Video and Audio by failing every call with
// ErrNotSupported. Backends embed it and override what they can do.
type Unsupported struct{}

func (Unsupported) ConnectedVideoPorts(_ context.Context) ([]string, error) {
	return nil, ErrNotSupported
}

func (Unsupported) SupportedResolutions(_ context.Context, _ string) ([]Resolution, error) {
	return nil, ErrNotSupported
}

func (Unsupported) SupportedTvResolutions(_ context.Context, _ string) ([]string, error) {
	return nil, ErrNotSupported
}

func (Unsupported) SupportedSettopResolutions(_ context.Context) ([]string, error) {
	return nil, ErrNotSupported
}

func (Unsupported) CurrentResolution(_ context.Context, _ string) (Resolution, error) {
	return Resolution{}, ErrNotSupported
}

func (Unsupported) SetCurrentResolution(_ context.Context, _, _ string, _ bool) (Resolution, error) {
	return Resolution{}, ErrNotSupported
}

func (Unsupported) DefaultResolution(_ context.Context, _ string) (string, error) {
	return "", ErrNotSupported
}

func (Unsupported) ZoomSetting(_ context.Context) (string, error) {
	return "", ErrNotSupported
}

func (Unsupported) SetZoomSetting(_ context.Context, _ string) error {
	return ErrNotSupported
}

func (Unsupported) ActiveInput(_ context.Context) (bool, error) {
	return false, ErrNotSupported
}

func (Unsupported) ReadEDID(_ context.Context, _ string) ([]byte, error) {
	return nil, ErrNotSupported
}

func (Unsupported) ReadHostEDID(_ context.Context) ([]byte, error) {
	return nil, ErrNotSupported
}

func (Unsupported) TvHDRSupport(_ context.Context) (HDRSupport, error) {
	return HDRSupport{}, ErrNotSupported
}

func (Unsupported) SettopHDRSupport(_ context.Context) (HDRSupport, error) {
	return HDRSupport{}, ErrNotSupported
}

func (Unsupported) TVHDRCapabilities(_ context.Context) (int, error) {
	return 0, ErrNotSupported
}

func (Unsupported) VideoPortStatusInStandby(_ context.Context, _ string) (bool, error) {
	return false, ErrNotSupported
}

func (Unsupported) SetVideoPortStatusInStandby(_ context.Context, _ string, _ bool) error {
	return ErrNotSupported
}

func (Unsupported) CurrentOutputSettings(_ context.Context, _ string) (OutputSettings, error) {
	return OutputSettings{}, ErrNotSupported
}

func (Unsupported) SetScartParameter(_ context.Context, _, _ string) error {
	return ErrNotSupported
}

func (Unsupported) ConnectedAudioPorts(_ context.Context) ([]string, error) {
	return nil, ErrNotSupported
}

func (Unsupported) SupportedAudioModes(_ context.Context, _ string) ([]string, error) {
	return nil, ErrNotSupported
}

func (Unsupported) SoundMode(_ context.Context, _ string) (string, error) {
	return "", ErrNotSupported
}

func (Unsupported) SetSoundMode(_ context.Context, _, _ string, _ bool) error {
	return ErrNotSupported
}

func (Unsupported) AudioDelay(_ context.Context, _ string) (int, error) {
	return 0, ErrNotSupported
}

func (Unsupported) SetAudioDelay(_ context.Context, _ string, _ int) error {
	return ErrNotSupported
}

func (Unsupported) AudioDelayOffset(_ context.Context, _ string) (int, error) {
	return 0, ErrNotSupported
}

func (Unsupported) SetAudioDelayOffset(_ context.Context, _ string, _ int) error {
	return ErrNotSupported
}

func (Unsupported) SinkAtmosCapability(_ context.Context) (int, error) {
	return 0, ErrNotSupported
}

func (Unsupported) SetAudioAtmosOutputMode(_ context.Context, _ bool) error {
	return ErrNotSupported
}

func (Unsupported) VolumeLeveller(_ context.Context, _ string) (Leveller, error) {
	return Leveller{}, ErrNotSupported
}

func (Unsupported) SetVolumeLeveller(_ context.Context, _ string, _ Leveller) error {
	return ErrNotSupported
}

func (Unsupported) BassEnhancer(_ context.Context, _ string) (int, error) {
	return 0, ErrNotSupported
}

func (Unsupported) SetBassEnhancer(_ context.Context, _ string, _ int) error {
	return ErrNotSupported
}

func (Unsupported) SurroundDecoder(_ context.Context, _ string) (bool, error) {
	return false, ErrNotSupported
}

func (Unsupported) EnableSurroundDecoder(_ context.Context, _ string, _ bool) error {
	return ErrNotSupported
}

func (Unsupported) DRCMode(_ context.Context, _ string) (int, error) {
	return 0, ErrNotSupported
}

func (Unsupported) SetDRCMode(_ context.Context, _ string, _ int) error {
	return ErrNotSupported
}

func (Unsupported) SurroundVirtualizer(_ context.Context, _ string) (Virtualizer, error) {
	return Virtualizer{}, ErrNotSupported
}

func (Unsupported) SetSurroundVirtualizer(_ context.Context, _ string, _ Virtualizer) error {
	return ErrNotSupported
}

func (Unsupported) MISteering(_ context.Context, _ string) (bool, error) {
	return false, ErrNotSupported
}

func (Unsupported) SetMISteering(_ context.Context, _ string, _ bool) error {
	return ErrNotSupported
}

func (Unsupported) Gain(_ context.Context, _ string) (float64, error) {
	return 0, ErrNotSupported
}

func (Unsupported) SetGain(_ context.Context, _ string, _ float64) error {
	return ErrNotSupported
}

func (Unsupported) Level(_ context.Context, _ string) (float64, error) {
	return 0, ErrNotSupported
}

func (Unsupported) SetLevel(_ context.Context, _ string, _ float64) error {
	return ErrNotSupported
}
