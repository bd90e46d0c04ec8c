// Package adb drives an Android TV device through the adb server. Only the
// settings adb exposes are supported; everything else reports
// hal.ErrNotSupported.
package adb

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	adb "github.com/basiooo/goadb"
	"github.com/pkg/errors"

	"github.com/comcastmike/rdkservices/internal/event"
	"github.com/comcastmike/rdkservices/internal/hal"
)

// PortName is the single output an adb device exposes.
const PortName = "HDMI0"

// Shell runs a shell command on the device.
type Shell interface {
	RunCommand(cmd string, args ...string) (string, error)
}

// Display is a hal.Display over adb shell commands.
type Display struct {
	hal.Unsupported

	shell Shell
	bus   *hal.LocalBus

	// mu serializes shell commands that change display state
	mu     sync.Mutex
	online bool
}

// Config selects the adb server and device.
type Config struct {
	Port   int
	Serial string
}

// Connect creates an adb client and binds to the configured device, or to
// any single device when Serial is empty.
func Connect(cfg Config) (*Display, *adb.Adb, error) {
	if cfg.Port == 0 {
		cfg.Port = adb.AdbPort
	}
	client, err := adb.NewWithConfig(adb.ServerConfig{Port: cfg.Port})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to create adb client on port %d", cfg.Port)
	}
	if err := client.StartServer(); err != nil {
		return nil, nil, errors.Wrap(err, "failed to start adb server")
	}

	descriptor := adb.AnyDevice()
	if cfg.Serial != "" {
		descriptor = adb.DeviceWithSerial(cfg.Serial)
	}
	return New(client.Device(descriptor)), client, nil
}

// New wraps a device shell. The device is assumed online until the watcher
// says otherwise.
func New(shell Shell) *Display {
	return &Display{
		shell:  shell,
		bus:    hal.NewLocalBus(),
		online: true,
	}
}

// Bus returns the event bus fed by resolution changes and the watcher.
func (d *Display) Bus() *hal.LocalBus {
	return d.bus
}

func (d *Display) Ports() []hal.Port {
	return []hal.Port{{ID: 0, Name: PortName, Video: true, Audio: true}}
}

func (d *Display) run(ctx context.Context, cmd string, args ...string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out, err := d.shell.RunCommand(cmd, args...)
	if err != nil {
		return "", errors.Wrapf(err, "adb shell %s %s", cmd, strings.Join(args, " "))
	}
	return out, nil
}

func checkPort(port string) error {
	if port != PortName {
		return errors.Errorf("adb device has no port %s", port)
	}
	return nil
}

func (d *Display) setOnline(online bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.online = online
}

func (d *Display) connected(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.online {
		return []string{}, nil
	}
	return []string{PortName}, nil
}

func (d *Display) ConnectedVideoPorts(ctx context.Context) ([]string, error) {
	return d.connected(ctx)
}

func (d *Display) ConnectedAudioPorts(ctx context.Context) ([]string, error) {
	return d.connected(ctx)
}

var sizePattern = regexp.MustCompile(`(Physical|Override) size:\s*(\d+)x(\d+)`)

// resolutionName names a mode by its height, as set-tops do.
func resolutionName(width, height int) string {
	return fmt.Sprintf("%dp", height)
}

// parseSize reads `wm size` output. An override size wins over the
// physical one.
func parseSize(out string) (hal.Resolution, error) {
	var res hal.Resolution
	found := false
	for _, m := range sizePattern.FindAllStringSubmatch(out, -1) {
		w, _ := strconv.Atoi(m[2])
		h, _ := strconv.Atoi(m[3])
		if m[1] == "Override" || !found {
			res = hal.Resolution{Name: resolutionName(w, h), Width: w, Height: h}
			found = true
		}
	}
	if !found {
		return hal.Resolution{}, errors.Errorf("unexpected wm size output %q", strings.TrimSpace(out))
	}
	return res, nil
}

func (d *Display) CurrentResolution(ctx context.Context, port string) (hal.Resolution, error) {
	if err := checkPort(port); err != nil {
		return hal.Resolution{}, err
	}
	out, err := d.run(ctx, "wm", "size")
	if err != nil {
		return hal.Resolution{}, err
	}
	return parseSize(out)
}

func (d *Display) SupportedResolutions(ctx context.Context, port string) ([]hal.Resolution, error) {
	current, err := d.CurrentResolution(ctx, port)
	if err != nil {
		return nil, err
	}
	return []hal.Resolution{current}, nil
}

var dimsPattern = regexp.MustCompile(`^(\d+)x(\d+)$`)

// SetCurrentResolution overrides the display size. resolution is either
// WIDTHxHEIGHT or "reset" for the physical size. The override always
// persists. adb raises no display events, so Pre and Post are published
// here once the new size is read back.
func (d *Display) SetCurrentResolution(ctx context.Context, port, resolution string, persist bool) (hal.Resolution, error) {
	if err := checkPort(port); err != nil {
		return hal.Resolution{}, err
	}
	if resolution != "reset" && !dimsPattern.MatchString(resolution) {
		return hal.Resolution{}, errors.Errorf("resolution %q is not WIDTHxHEIGHT", resolution)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.run(ctx, "wm", "size", resolution); err != nil {
		return hal.Resolution{}, err
	}
	out, err := d.run(ctx, "wm", "size")
	if err != nil {
		return hal.Resolution{}, err
	}
	res, err := parseSize(out)
	if err != nil {
		return hal.Resolution{}, err
	}

	d.bus.Publish(hal.EventPreResolutionChange, event.EncodeResolution(res.Width, res.Height))
	d.bus.Publish(hal.EventPostResolutionChange, event.EncodeResolution(res.Width, res.Height))
	return res, nil
}

func (d *Display) DefaultResolution(ctx context.Context, port string) (string, error) {
	if err := checkPort(port); err != nil {
		return "", err
	}
	out, err := d.run(ctx, "wm", "size")
	if err != nil {
		return "", err
	}
	m := sizePattern.FindStringSubmatch(out)
	if m == nil || m[1] != "Physical" {
		return "", errors.Errorf("no physical size in %q", strings.TrimSpace(out))
	}
	w, _ := strconv.Atoi(m[2])
	h, _ := strconv.Atoi(m[3])
	return resolutionName(w, h), nil
}

// ActiveInput reports whether the device is awake.
func (d *Display) ActiveInput(ctx context.Context) (bool, error) {
	out, err := d.run(ctx, "dumpsys", "power")
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "mWakefulness="); ok {
			return v == "Awake", nil
		}
	}
	return false, errors.New("no wakefulness in dumpsys power output")
}

func (d *Display) SetAudioAtmosOutputMode(ctx context.Context, enable bool) error {
	value := "0"
	if enable {
		value = "1"
	}
	_, err := d.run(ctx, "settings", "put", "global", "encoded_surround_output_enabled_formats_atmos", value)
	return err
}

func (d *Display) Gain(ctx context.Context, port string) (float64, error) {
	if err := checkPort(port); err != nil {
		return 0, err
	}
	out, err := d.run(ctx, "settings", "get", "system", "volume_music_hdmi")
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "unexpected volume %q", strings.TrimSpace(out))
	}
	return v, nil
}

func (d *Display) SetGain(ctx context.Context, port string, gain float64) error {
	if err := checkPort(port); err != nil {
		return err
	}
	_, err := d.run(ctx, "settings", "put", "system", "volume_music_hdmi", strconv.Itoa(int(gain)))
	return err
}

var _ hal.Display = (*Display)(nil)
