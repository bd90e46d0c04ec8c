package api

import (
	"context"
	"encoding/base64"

	"github.com/comcastmike/rdkservices/internal/settings"
)

func videoDisplay(p Params) (string, error) {
	return p.OptString("videoDisplay", "")
}

func videoMethods() []Method {
	return []Method{
		video("getConnectedVideoDisplays", func(_ context.Context, v *settings.VideoGroup, _ Params) (Result, error) {
			return Result{"connectedVideoDisplays": v.ConnectedVideoDisplays()}, nil
		}),
		video("getSupportedVideoDisplays", func(_ context.Context, v *settings.VideoGroup, _ Params) (Result, error) {
			return Result{"supportedVideoDisplays": v.SupportedVideoDisplays()}, nil
		}),
		video("getSupportedResolutions", func(ctx context.Context, v *settings.VideoGroup, p Params) (Result, error) {
			port, err := videoDisplay(p)
			if err != nil {
				return nil, err
			}
			list, err := v.SupportedResolutions(ctx, port)
			if err != nil {
				return nil, err
			}
			return Result{"supportedResolutions": list}, nil
		}),
		video("getSupportedTvResolutions", func(ctx context.Context, v *settings.VideoGroup, p Params) (Result, error) {
			port, err := videoDisplay(p)
			if err != nil {
				return nil, err
			}
			list, err := v.SupportedTvResolutions(ctx, port)
			if err != nil {
				return nil, err
			}
			return Result{"supportedTvResolutions": list}, nil
		}),
		video("getSupportedSettopResolutions", func(ctx context.Context, v *settings.VideoGroup, _ Params) (Result, error) {
			list, err := v.SupportedSettopResolutions(ctx)
			if err != nil {
				return nil, err
			}
			return Result{"supportedSettopResolutions": list}, nil
		}),
		video("getCurrentResolution", func(_ context.Context, v *settings.VideoGroup, p Params) (Result, error) {
			port, err := videoDisplay(p)
			if err != nil {
				return nil, err
			}
			res, err := v.CurrentResolution(port)
			if err != nil {
				return nil, err
			}
			return Result{"resolution": res.Name, "w": res.Width, "h": res.Height}, nil
		}),
		video("setCurrentResolution", func(ctx context.Context, v *settings.VideoGroup, p Params) (Result, error) {
			port, err := videoDisplay(p)
			if err != nil {
				return nil, err
			}
			resolution, err := p.String("resolution")
			if err != nil {
				return nil, err
			}
			persist, err := p.OptBool("persist", true)
			if err != nil {
				return nil, err
			}
			res, err := v.SetCurrentResolution(ctx, port, resolution, persist)
			if err != nil {
				return nil, err
			}
			return Result{"resolution": res.Name, "w": res.Width, "h": res.Height}, nil
		}),
		video("getDefaultResolution", func(ctx context.Context, v *settings.VideoGroup, p Params) (Result, error) {
			port, err := videoDisplay(p)
			if err != nil {
				return nil, err
			}
			res, err := v.DefaultResolution(ctx, port)
			if err != nil {
				return nil, err
			}
			return Result{"defaultResolution": res}, nil
		}),
		video("getZoomSetting", func(_ context.Context, v *settings.VideoGroup, _ Params) (Result, error) {
			zoom, err := v.ZoomSetting()
			if err != nil {
				return nil, err
			}
			return Result{"zoomSetting": zoom}, nil
		}),
		video("setZoomSetting", func(ctx context.Context, v *settings.VideoGroup, p Params) (Result, error) {
			zoom, err := p.String("zoomSetting")
			if err != nil {
				return nil, err
			}
			return nil, v.SetZoomSetting(ctx, zoom)
		}),
		video("getActiveInput", func(_ context.Context, v *settings.VideoGroup, _ Params) (Result, error) {
			active, err := v.ActiveInput()
			if err != nil {
				return nil, err
			}
			return Result{"activeInput": active}, nil
		}),
		video("readEDID", func(ctx context.Context, v *settings.VideoGroup, p Params) (Result, error) {
			port, err := videoDisplay(p)
			if err != nil {
				return nil, err
			}
			edid, err := v.ReadEDID(ctx, port)
			if err != nil {
				return nil, err
			}
			return Result{"EDID": base64.StdEncoding.EncodeToString(edid)}, nil
		}),
		video("readHostEDID", func(ctx context.Context, v *settings.VideoGroup, _ Params) (Result, error) {
			edid, err := v.ReadHostEDID(ctx)
			if err != nil {
				return nil, err
			}
			return Result{"EDID": base64.StdEncoding.EncodeToString(edid)}, nil
		}),
		video("getTvHDRSupport", func(ctx context.Context, v *settings.VideoGroup, _ Params) (Result, error) {
			s, err := v.TvHDRSupport(ctx)
			if err != nil {
				return nil, err
			}
			return Result{"supportsHDR": s.Supported, "standards": s.Standards}, nil
		}),
		video("getSettopHDRSupport", func(ctx context.Context, v *settings.VideoGroup, _ Params) (Result, error) {
			s, err := v.SettopHDRSupport(ctx)
			if err != nil {
				return nil, err
			}
			return Result{"supportsHDR": s.Supported, "standards": s.Standards}, nil
		}),
		video("getTVHDRCapabilities", func(ctx context.Context, v *settings.VideoGroup, _ Params) (Result, error) {
			caps, err := v.TVHDRCapabilities(ctx)
			if err != nil {
				return nil, err
			}
			return Result{"capabilities": caps}, nil
		}),
		video("getVideoPortStatusInStandby", func(_ context.Context, v *settings.VideoGroup, p Params) (Result, error) {
			port, err := p.String("portName")
			if err != nil {
				return nil, err
			}
			enabled, err := v.VideoPortStatusInStandby(port)
			if err != nil {
				return nil, err
			}
			return Result{"videoPortStatusInStandby": enabled}, nil
		}),
		video("setVideoPortStatusInStandby", func(ctx context.Context, v *settings.VideoGroup, p Params) (Result, error) {
			port, err := p.String("portName")
			if err != nil {
				return nil, err
			}
			enabled, err := p.Bool("enabled")
			if err != nil {
				return nil, err
			}
			return nil, v.SetVideoPortStatusInStandby(ctx, port, enabled)
		}),
		video("getCurrentOutputSettings", func(ctx context.Context, v *settings.VideoGroup, p Params) (Result, error) {
			port, err := videoDisplay(p)
			if err != nil {
				return nil, err
			}
			s, err := v.CurrentOutputSettings(ctx, port)
			if err != nil {
				return nil, err
			}
			return Result{
				"colorSpace":         s.ColorSpace,
				"colorDepth":         s.ColorDepth,
				"matrixCoefficients": s.MatrixCoefficients,
				"videoEOTF":          s.VideoEOTF,
			}, nil
		}),
		video("setScartParameter", func(ctx context.Context, v *settings.VideoGroup, p Params) (Result, error) {
			parameter, err := p.String("scartParameter")
			if err != nil {
				return nil, err
			}
			data, err := p.OptString("scartParameterData", "")
			if err != nil {
				return nil, err
			}
			return nil, v.SetScartParameter(ctx, parameter, data)
		}),
	}
}
