package api

import (
	"context"

	"github.com/comcastmike/rdkservices/internal/hal"
	"github.com/comcastmike/rdkservices/internal/settings"
)

func audioPort(p Params) (string, error) {
	return p.OptString("audioPort", "")
}

// audioGetter builds a handler returning one cached control under key.
func audioGetter[T any](key string, get func(a *settings.AudioGroup, port string) (T, error)) AudioHandler {
	return func(_ context.Context, a *settings.AudioGroup, p Params) (Result, error) {
		port, err := audioPort(p)
		if err != nil {
			return nil, err
		}
		v, err := get(a, port)
		if err != nil {
			return nil, err
		}
		return Result{key: v}, nil
	}
}

// audioSetter builds a handler reading parameter key and applying it.
func audioSetter[T any](key string, read func(Params, string) (T, error), set func(*settings.AudioGroup, context.Context, string, T) error) AudioHandler {
	return func(ctx context.Context, a *settings.AudioGroup, p Params) (Result, error) {
		port, err := audioPort(p)
		if err != nil {
			return nil, err
		}
		v, err := read(p, key)
		if err != nil {
			return nil, err
		}
		return nil, set(a, ctx, port, v)
	}
}

func audioMethods() []Method {
	return []Method{
		audio("getConnectedAudioPorts", func(_ context.Context, a *settings.AudioGroup, _ Params) (Result, error) {
			return Result{"connectedAudioPorts": a.ConnectedAudioPorts()}, nil
		}),
		audio("getSupportedAudioPorts", func(_ context.Context, a *settings.AudioGroup, _ Params) (Result, error) {
			return Result{"supportedAudioPorts": a.SupportedAudioPorts()}, nil
		}),
		audio("getSupportedAudioModes", func(ctx context.Context, a *settings.AudioGroup, p Params) (Result, error) {
			port, err := audioPort(p)
			if err != nil {
				return nil, err
			}
			modes, err := a.SupportedAudioModes(ctx, port)
			if err != nil {
				return nil, err
			}
			return Result{"supportedAudioModes": modes}, nil
		}),
		audio("getSoundMode", audioGetter("soundMode", (*settings.AudioGroup).SoundMode)),
		audio("setSoundMode", func(ctx context.Context, a *settings.AudioGroup, p Params) (Result, error) {
			port, err := audioPort(p)
			if err != nil {
				return nil, err
			}
			mode, err := p.String("soundMode")
			if err != nil {
				return nil, err
			}
			persist, err := p.OptBool("persist", true)
			if err != nil {
				return nil, err
			}
			return nil, a.SetSoundMode(ctx, port, mode, persist)
		}),
		audio("getAudioDelay", audioGetter("audioDelay", (*settings.AudioGroup).AudioDelay)),
		audio("setAudioDelay", audioSetter("audioDelay", Params.Int, (*settings.AudioGroup).SetAudioDelay)),
		audio("getAudioDelayOffset", audioGetter("audioDelayOffset", (*settings.AudioGroup).AudioDelayOffset)),
		audio("setAudioDelayOffset", audioSetter("audioDelayOffset", Params.Int, (*settings.AudioGroup).SetAudioDelayOffset)),
		audio("getSinkAtmosCapability", func(ctx context.Context, a *settings.AudioGroup, _ Params) (Result, error) {
			caps, err := a.SinkAtmosCapability(ctx)
			if err != nil {
				return nil, err
			}
			return Result{"atmos_capability": caps}, nil
		}),
		audio("setAudioAtmosOutputMode", func(ctx context.Context, a *settings.AudioGroup, p Params) (Result, error) {
			enable, err := p.Bool("enable")
			if err != nil {
				return nil, err
			}
			return nil, a.SetAudioAtmosOutputMode(ctx, enable)
		}),
		audio("getVolumeLeveller", func(_ context.Context, a *settings.AudioGroup, p Params) (Result, error) {
			port, err := audioPort(p)
			if err != nil {
				return nil, err
			}
			l, err := a.VolumeLeveller(port)
			if err != nil {
				return nil, err
			}
			return Result{"mode": l.Mode, "level": l.Level}, nil
		}),
		audio("setVolumeLeveller", func(ctx context.Context, a *settings.AudioGroup, p Params) (Result, error) {
			port, err := audioPort(p)
			if err != nil {
				return nil, err
			}
			mode, err := p.Int("mode")
			if err != nil {
				return nil, err
			}
			level, err := p.Int("level")
			if err != nil {
				return nil, err
			}
			return nil, a.SetVolumeLeveller(ctx, port, hal.Leveller{Mode: mode, Level: level})
		}),
		audio("getBassEnhancer", func(_ context.Context, a *settings.AudioGroup, p Params) (Result, error) {
			port, err := audioPort(p)
			if err != nil {
				return nil, err
			}
			boost, err := a.BassEnhancer(port)
			if err != nil {
				return nil, err
			}
			return Result{"enable": boost > 0, "bassBoost": boost}, nil
		}),
		audio("setBassEnhancer", audioSetter("bassBoost", Params.Int, (*settings.AudioGroup).SetBassEnhancer)),
		audio("isSurroundDecoderEnabled", audioGetter("surroundDecoderEnable", (*settings.AudioGroup).SurroundDecoder)),
		audio("enableSurroundDecoder", audioSetter("surroundDecoderEnable", Params.Bool, (*settings.AudioGroup).EnableSurroundDecoder)),
		audio("getDRCMode", audioGetter("DRCMode", (*settings.AudioGroup).DRCMode)),
		audio("setDRCMode", audioSetter("DRCMode", Params.Int, (*settings.AudioGroup).SetDRCMode)),
		audio("getSurroundVirtualizer", func(_ context.Context, a *settings.AudioGroup, p Params) (Result, error) {
			port, err := audioPort(p)
			if err != nil {
				return nil, err
			}
			v, err := a.SurroundVirtualizer(port)
			if err != nil {
				return nil, err
			}
			return Result{"mode": v.Mode, "boost": v.Boost}, nil
		}),
		audio("setSurroundVirtualizer", func(ctx context.Context, a *settings.AudioGroup, p Params) (Result, error) {
			port, err := audioPort(p)
			if err != nil {
				return nil, err
			}
			mode, err := p.Int("mode")
			if err != nil {
				return nil, err
			}
			boost, err := p.Int("boost")
			if err != nil {
				return nil, err
			}
			return nil, a.SetSurroundVirtualizer(ctx, port, hal.Virtualizer{Mode: mode, Boost: boost})
		}),
		audio("getMISteering", audioGetter("MISteeringEnable", (*settings.AudioGroup).MISteering)),
		audio("setMISteering", audioSetter("MISteeringEnable", Params.Bool, (*settings.AudioGroup).SetMISteering)),
		audio("getGain", audioGetter("gain", (*settings.AudioGroup).Gain)),
		audio("setGain", audioSetter("gain", Params.Float, (*settings.AudioGroup).SetGain)),
		audio("getLevel", audioGetter("level", (*settings.AudioGroup).Level)),
		audio("setLevel", audioSetter("level", Params.Float, (*settings.AudioGroup).SetLevel)),
	}
}
