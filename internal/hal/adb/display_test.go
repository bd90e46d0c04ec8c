package adb

import (
	"context"
	"strings"
	"testing"

	adb "github.com/basiooo/goadb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comcastmike/rdkservices/internal/hal"
)

type fakeShell struct {
	size     string
	override string
	power    string
	settings map[string]string
	commands []string
	failWith error
}

func (f *fakeShell) RunCommand(cmd string, args ...string) (string, error) {
	line := strings.TrimSpace(cmd + " " + strings.Join(args, " "))
	f.commands = append(f.commands, line)
	if f.failWith != nil {
		return "", f.failWith
	}
	switch {
	case line == "wm size":
		out := "Physical size: " + f.size + "\n"
		if f.override != "" {
			out += "Override size: " + f.override + "\n"
		}
		return out, nil
	case line == "wm size reset":
		f.override = ""
		return "", nil
	case strings.HasPrefix(line, "wm size "):
		f.override = args[1]
		return "", nil
	case line == "dumpsys power":
		return f.power, nil
	case cmd == "settings" && args[0] == "get":
		return f.settings[args[2]] + "\n", nil
	case cmd == "settings" && args[0] == "put":
		f.settings[args[2]] = args[3]
		return "", nil
	}
	return "", nil
}

func newFake() *fakeShell {
	return &fakeShell{
		size:     "1920x1080",
		power:    "POWER MANAGER\n  mWakefulness=Awake\n  mIsPowered=true\n",
		settings: map[string]string{"volume_music_hdmi": "11"},
	}
}

func TestParseSize(t *testing.T) {
	res, err := parseSize("Physical size: 3840x2160\n")
	require.NoError(t, err)
	assert.Equal(t, hal.Resolution{Name: "2160p", Width: 3840, Height: 2160}, res)

	res, err = parseSize("Physical size: 3840x2160\nOverride size: 1280x720\n")
	require.NoError(t, err)
	assert.Equal(t, 720, res.Height)

	_, err = parseSize("error: no devices/emulators found")
	assert.Error(t, err)
}

func TestCurrentResolution(t *testing.T) {
	d := New(newFake())
	res, err := d.CurrentResolution(context.Background(), PortName)
	require.NoError(t, err)
	assert.Equal(t, "1080p", res.Name)

	_, err = d.CurrentResolution(context.Background(), "SPDIF0")
	assert.Error(t, err)

	def, err := d.DefaultResolution(context.Background(), PortName)
	require.NoError(t, err)
	assert.Equal(t, "1080p", def)
}

func TestSetCurrentResolutionPublishesPreAndPost(t *testing.T) {
	shell := newFake()
	d := New(shell)

	var kinds []hal.EventKind
	for _, k := range []hal.EventKind{hal.EventPreResolutionChange, hal.EventPostResolutionChange} {
		_, err := d.Bus().Subscribe(k, func(kind hal.EventKind, payload []byte) {
			kinds = append(kinds, kind)
			assert.Len(t, payload, 8)
		})
		require.NoError(t, err)
	}

	res, err := d.SetCurrentResolution(context.Background(), PortName, "1280x720", true)
	require.NoError(t, err)
	assert.Equal(t, hal.Resolution{Name: "720p", Width: 1280, Height: 720}, res)
	assert.Equal(t, []hal.EventKind{hal.EventPreResolutionChange, hal.EventPostResolutionChange}, kinds)
	assert.Contains(t, shell.commands, "wm size 1280x720")

	_, err = d.SetCurrentResolution(context.Background(), PortName, "720p", true)
	assert.Error(t, err)
	assert.Len(t, kinds, 2)
}

func TestShellFailure(t *testing.T) {
	shell := newFake()
	shell.failWith = assert.AnError
	d := New(shell)

	_, err := d.CurrentResolution(context.Background(), PortName)
	assert.ErrorIs(t, err, assert.AnError)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	shell.failWith = nil
	_, err = d.ActiveInput(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestActiveInputAndGain(t *testing.T) {
	shell := newFake()
	d := New(shell)
	ctx := context.Background()

	active, err := d.ActiveInput(ctx)
	require.NoError(t, err)
	assert.True(t, active)

	shell.power = "mWakefulness=Asleep\n"
	active, err = d.ActiveInput(ctx)
	require.NoError(t, err)
	assert.False(t, active)

	gain, err := d.Gain(ctx, PortName)
	require.NoError(t, err)
	assert.Equal(t, 11.0, gain)

	require.NoError(t, d.SetGain(ctx, PortName, 7))
	assert.Equal(t, "7", shell.settings["volume_music_hdmi"])

	require.NoError(t, d.SetAudioAtmosOutputMode(ctx, true))
	assert.Equal(t, "1", shell.settings["encoded_surround_output_enabled_formats_atmos"])
}

func TestUnsupportedOperations(t *testing.T) {
	d := New(newFake())
	_, err := d.ZoomSetting(context.Background())
	assert.ErrorIs(t, err, hal.ErrNotSupported)
	assert.ErrorIs(t, d.SetDRCMode(context.Background(), PortName, 1), hal.ErrNotSupported)
}

func TestWatcherHandle(t *testing.T) {
	d := New(newFake())
	w := &Watcher{display: d, serial: "tv-1"}

	var got []bool
	_, err := d.Bus().Subscribe(hal.EventHotPlug, func(_ hal.EventKind, payload []byte) {
		got = append(got, payload[4] == 1)
	})
	require.NoError(t, err)

	w.handle("tv-1", adb.StateOffline)
	w.handle("other", adb.StateOnline)
	w.handle("tv-1", adb.StateUnauthorized)

	assert.Equal(t, []bool{false}, got)
	ports, err := d.ConnectedVideoPorts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ports)

	w.handle("tv-1", adb.StateOnline)
	assert.Equal(t, []bool{false, true}, got)
	ports, err = d.ConnectedAudioPorts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{PortName}, ports)
}
