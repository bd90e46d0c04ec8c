package api

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comcastmike/rdkservices/internal/hal/sim"
	"github.com/comcastmike/rdkservices/internal/notify"
	"github.com/comcastmike/rdkservices/internal/settings"
)

func newTable(t *testing.T) (*Table, *sim.Device) {
	t.Helper()
	device, err := sim.New(sim.DefaultProfile())
	require.NoError(t, err)
	t.Cleanup(func() { _ = device.Close() })

	ports, err := settings.NewPortTable(device.Ports())
	require.NoError(t, err)
	c := settings.New(device, ports, notify.NewFanout())
	c.Initialize(context.Background())
	return NewTable(c), device
}

func TestEveryMethodDeclaresOneGroup(t *testing.T) {
	table, _ := newTable(t)

	methods := table.Methods()
	assert.Len(t, methods, 47)
	for _, m := range methods {
		switch m.Group {
		case GroupVideo:
			assert.NotNil(t, m.Video, m.Name)
			assert.Nil(t, m.Audio, m.Name)
		case GroupAudio:
			assert.NotNil(t, m.Audio, m.Name)
			assert.Nil(t, m.Video, m.Name)
		default:
			t.Errorf("method %s has group %q", m.Name, m.Group)
		}
	}
}

func TestInvoke(t *testing.T) {
	table, _ := newTable(t)
	ctx := context.Background()

	tests := []struct {
		method string
		params Params
		want   Result
	}{
		{
			method: "getCurrentResolution",
			want:   Result{"resolution": "1080p60", "w": 1920, "h": 1080, "success": true},
		},
		{
			method: "getConnectedVideoDisplays",
			want:   Result{"connectedVideoDisplays": []string{"HDMI0"}, "success": true},
		},
		{
			method: "getSupportedAudioPorts",
			want:   Result{"supportedAudioPorts": []string{"HDMI0", "SPDIF0", "SPEAKER0"}, "success": true},
		},
		{
			method: "getZoomSetting",
			want:   Result{"zoomSetting": "FULL", "success": true},
		},
		{
			method: "setGain",
			params: Params{"audioPort": "SPEAKER0", "gain": 75.5},
			want:   Result{"success": true},
		},
		{
			method: "getGain",
			params: Params{"audioPort": "SPEAKER0"},
			want:   Result{"gain": 75.5, "success": true},
		},
		{
			method: "setVolumeLeveller",
			params: Params{"audioPort": "HDMI0", "mode": float64(1), "level": "9"},
			want:   Result{"success": true},
		},
		{
			method: "getVolumeLeveller",
			want:   Result{"mode": 1, "level": 9, "success": true},
		},
		{
			method: "enableSurroundDecoder",
			params: Params{"surroundDecoderEnable": "true"},
			want:   Result{"success": true},
		},
		{
			method: "isSurroundDecoderEnabled",
			want:   Result{"surroundDecoderEnable": true, "success": true},
		},
		{
			method: "getTvHDRSupport",
			want:   Result{"supportsHDR": true, "standards": []string{"HDR10"}, "success": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			got, err := table.Invoke(ctx, tt.method, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInvokeReadEDID(t *testing.T) {
	table, _ := newTable(t)

	got, err := table.Invoke(context.Background(), "readEDID", Params{"videoDisplay": "HDMI0"})
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(got["EDID"].(string))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00, 0x4c, 0x2d}, raw)
}

func TestInvokeErrors(t *testing.T) {
	table, device := newTable(t)
	ctx := context.Background()

	_, err := table.Invoke(ctx, "getVolume", nil)
	assert.ErrorIs(t, err, ErrUnknownMethod)

	_, err = table.Invoke(ctx, "setCurrentResolution", Params{"videoDisplay": "HDMI0"})
	assert.ErrorIs(t, err, settings.ErrInvalidParam)

	_, err = table.Invoke(ctx, "setAudioDelay", Params{"audioDelay": 1.5})
	assert.ErrorIs(t, err, settings.ErrInvalidParam)

	_, err = table.Invoke(ctx, "setGain", Params{"gain": true})
	assert.ErrorIs(t, err, settings.ErrInvalidParam)

	_, err = table.Invoke(ctx, "getSoundMode", Params{"audioPort": "HDMI4"})
	assert.ErrorIs(t, err, settings.ErrUnknownPort)

	device.FailNext("SetZoomSetting", errors.New("scaler offline"))
	_, err = table.Invoke(ctx, "setZoomSetting", Params{"zoomSetting": "NONE"})
	assert.ErrorIs(t, err, settings.ErrHardwareCall)
}

func TestParams(t *testing.T) {
	p := Params{"n": float64(3), "s": "x", "b": false, "f": "2.5", "bad": []int{1}}

	n, err := p.Int("n")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	f, err := p.Float("f")
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)

	_, err = p.Int("f")
	assert.Error(t, err)

	def, err := p.OptString("missing", "HDMI0")
	require.NoError(t, err)
	assert.Equal(t, "HDMI0", def)

	_, err = p.String("n")
	assert.Error(t, err)
	_, err = p.Bool("bad")
	assert.Error(t, err)
	_, err = p.Float("missing")
	assert.ErrorIs(t, err, settings.ErrInvalidParam)
}
