package sim

import (
	"context"

	"github.com/pkg/errors"

	"github.com/comcastmike/rdkservices/internal/hal"
)

// withAudio runs fn on a port's audio controls with the device lock held.
func (d *Device) withAudio(ctx context.Context, op, port string, fn func(*audioControls) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, op); err != nil {
		return err
	}
	a, err := d.audioPort(port)
	if err != nil {
		return err
	}
	return fn(a)
}

func (d *Device) SupportedAudioModes(ctx context.Context, port string) ([]string, error) {
	var modes []string
	err := d.withAudio(ctx, "SupportedAudioModes", port, func(*audioControls) error {
		modes = append([]string{}, d.profile.AudioModes...)
		return nil
	})
	return modes, err
}

func (d *Device) supportsMode(mode string) bool {
	for _, m := range d.profile.AudioModes {
		if m == mode {
			return true
		}
	}
	return false
}

func (d *Device) SoundMode(ctx context.Context, port string) (mode string, err error) {
	err = d.withAudio(ctx, "SoundMode", port, func(a *audioControls) error {
		mode = a.soundMode
		return nil
	})
	return mode, err
}

func (d *Device) SetSoundMode(ctx context.Context, port, mode string, persist bool) error {
	return d.withAudio(ctx, "SetSoundMode", port, func(a *audioControls) error {
		if !d.supportsMode(mode) {
			return errors.Errorf("sound mode %s not supported", mode)
		}
		a.soundMode = mode
		return nil
	})
}

func (d *Device) AudioDelay(ctx context.Context, port string) (delay int, err error) {
	err = d.withAudio(ctx, "AudioDelay", port, func(a *audioControls) error {
		delay = a.delay
		return nil
	})
	return delay, err
}

func (d *Device) SetAudioDelay(ctx context.Context, port string, delayMs int) error {
	return d.withAudio(ctx, "SetAudioDelay", port, func(a *audioControls) error {
		a.delay = delayMs
		return nil
	})
}

func (d *Device) AudioDelayOffset(ctx context.Context, port string) (offset int, err error) {
	err = d.withAudio(ctx, "AudioDelayOffset", port, func(a *audioControls) error {
		offset = a.delayOffset
		return nil
	})
	return offset, err
}

func (d *Device) SetAudioDelayOffset(ctx context.Context, port string, offsetMs int) error {
	return d.withAudio(ctx, "SetAudioDelayOffset", port, func(a *audioControls) error {
		a.delayOffset = offsetMs
		return nil
	})
}

func (d *Device) SinkAtmosCapability(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "SinkAtmosCapability"); err != nil {
		return 0, err
	}
	return d.profile.AtmosCapability, nil
}

func (d *Device) SetAudioAtmosOutputMode(ctx context.Context, enable bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "SetAudioAtmosOutputMode"); err != nil {
		return err
	}
	if enable && d.profile.AtmosCapability == 0 {
		return errors.New("sink does not support Atmos")
	}
	d.atmos = enable
	return nil
}

func (d *Device) VolumeLeveller(ctx context.Context, port string) (l hal.Leveller, err error) {
	err = d.withAudio(ctx, "VolumeLeveller", port, func(a *audioControls) error {
		l = a.leveller
		return nil
	})
	return l, err
}

func (d *Device) SetVolumeLeveller(ctx context.Context, port string, l hal.Leveller) error {
	return d.withAudio(ctx, "SetVolumeLeveller", port, func(a *audioControls) error {
		a.leveller = l
		return nil
	})
}

func (d *Device) BassEnhancer(ctx context.Context, port string) (boost int, err error) {
	err = d.withAudio(ctx, "BassEnhancer", port, func(a *audioControls) error {
		boost = a.bassBoost
		return nil
	})
	return boost, err
}

func (d *Device) SetBassEnhancer(ctx context.Context, port string, boost int) error {
	return d.withAudio(ctx, "SetBassEnhancer", port, func(a *audioControls) error {
		a.bassBoost = boost
		return nil
	})
}

func (d *Device) SurroundDecoder(ctx context.Context, port string) (enabled bool, err error) {
	err = d.withAudio(ctx, "SurroundDecoder", port, func(a *audioControls) error {
		enabled = a.surroundDecoder
		return nil
	})
	return enabled, err
}

func (d *Device) EnableSurroundDecoder(ctx context.Context, port string, enable bool) error {
	return d.withAudio(ctx, "EnableSurroundDecoder", port, func(a *audioControls) error {
		a.surroundDecoder = enable
		return nil
	})
}

func (d *Device) DRCMode(ctx context.Context, port string) (mode int, err error) {
	err = d.withAudio(ctx, "DRCMode", port, func(a *audioControls) error {
		mode = a.drcMode
		return nil
	})
	return mode, err
}

func (d *Device) SetDRCMode(ctx context.Context, port string, mode int) error {
	return d.withAudio(ctx, "SetDRCMode", port, func(a *audioControls) error {
		a.drcMode = mode
		return nil
	})
}

func (d *Device) SurroundVirtualizer(ctx context.Context, port string) (v hal.Virtualizer, err error) {
	err = d.withAudio(ctx, "SurroundVirtualizer", port, func(a *audioControls) error {
		v = a.virtualizer
		return nil
	})
	return v, err
}

func (d *Device) SetSurroundVirtualizer(ctx context.Context, port string, v hal.Virtualizer) error {
	return d.withAudio(ctx, "SetSurroundVirtualizer", port, func(a *audioControls) error {
		a.virtualizer = v
		return nil
	})
}

func (d *Device) MISteering(ctx context.Context, port string) (enabled bool, err error) {
	err = d.withAudio(ctx, "MISteering", port, func(a *audioControls) error {
		enabled = a.miSteering
		return nil
	})
	return enabled, err
}

func (d *Device) SetMISteering(ctx context.Context, port string, enable bool) error {
	return d.withAudio(ctx, "SetMISteering", port, func(a *audioControls) error {
		a.miSteering = enable
		return nil
	})
}

func (d *Device) Gain(ctx context.Context, port string) (gain float64, err error) {
	err = d.withAudio(ctx, "Gain", port, func(a *audioControls) error {
		gain = a.gain
		return nil
	})
	return gain, err
}

func (d *Device) SetGain(ctx context.Context, port string, gain float64) error {
	return d.withAudio(ctx, "SetGain", port, func(a *audioControls) error {
		a.gain = gain
		return nil
	})
}

func (d *Device) Level(ctx context.Context, port string) (level float64, err error) {
	err = d.withAudio(ctx, "Level", port, func(a *audioControls) error {
		level = a.level
		return nil
	})
	return level, err
}

func (d *Device) SetLevel(ctx context.Context, port string, level float64) error {
	return d.withAudio(ctx, "SetLevel", port, func(a *audioControls) error {
		a.level = level
		return nil
	})
}

var (
	_ hal.Display  = (*Device)(nil)
	_ hal.Injector = (*Device)(nil)
)
