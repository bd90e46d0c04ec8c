package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/comcastmike/rdkservices/internal/event"
	"github.com/comcastmike/rdkservices/internal/hal"
	"github.com/comcastmike/rdkservices/internal/hal/sim"
	"github.com/comcastmike/rdkservices/internal/notify"
)

type inbox struct {
	mu  sync.Mutex
	got []notify.Notification
}

func (i *inbox) deliver(n notify.Notification) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.got = append(i.got, n)
	return nil
}

func (i *inbox) all() []notify.Notification {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]notify.Notification(nil), i.got...)
}

func startBridge(t *testing.T) (*Bridge, *sim.Device, *testingclock.FakeClock) {
	t.Helper()
	device, err := sim.New(sim.DefaultProfile())
	require.NoError(t, err)
	clk := testingclock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	b, err := New(device, device.Bus(), Options{DebounceWindow: 500 * time.Millisecond, Clock: clk})
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))
	t.Cleanup(func() {
		b.Stop()
		_ = device.Close()
	})
	return b, device, clk
}

func subscribe(t *testing.T, b *Bridge, kinds ...notify.Kind) *inbox {
	t.Helper()
	in := &inbox{}
	for _, k := range kinds {
		_, err := b.Fanout.Register(notify.Registration{ID: "S", Kind: k, Deliver: in.deliver})
		require.NoError(t, err)
	}
	return in
}

func TestHotplugBounceYieldsOneNotification(t *testing.T) {
	b, device, clk := startBridge(t)
	in := subscribe(t, b, notify.KindConnectedVideoDisplaysUpdated)

	require.NoError(t, device.Inject(hal.EventHotPlug, event.EncodeHotPlug(2, true)))
	clk.Step(3 * time.Millisecond)
	require.NoError(t, device.Inject(hal.EventHotPlug, event.EncodeHotPlug(2, false)))

	clk.Step(499 * time.Millisecond)
	assert.Empty(t, in.all())

	clk.Step(time.Millisecond)
	got := in.all()
	require.Len(t, got, 1)
	assert.Equal(t, 0b1, got[0].Params["portMask"])
	assert.Equal(t, []string{"HDMI0"}, got[0].Params["connectedVideoDisplays"])

	clk.Step(time.Second)
	assert.Len(t, in.all(), 1)
}

func TestResolutionChangeFromHardware(t *testing.T) {
	b, device, _ := startBridge(t)
	in := subscribe(t, b, notify.KindResolutionPreChange, notify.KindResolutionChanged)

	_, err := b.Coordinator.Video.SetCurrentResolution(context.Background(), "HDMI0", "720p", false)
	require.NoError(t, err)
	device.Wait()

	got := in.all()
	require.Len(t, got, 2)
	assert.Equal(t, notify.KindResolutionPreChange, got[0].Kind)
	assert.Equal(t, notify.ResolutionChanged(1280, 720, "720p"), got[1])

	res, err := b.Coordinator.Video.CurrentResolution("HDMI0")
	require.NoError(t, err)
	assert.Equal(t, 1280, res.Width)
	assert.Equal(t, 720, res.Height)
}

func TestMalformedEventIsDiscarded(t *testing.T) {
	b, device, _ := startBridge(t)
	in := subscribe(t, b, notify.KindResolutionChanged)

	require.NoError(t, device.Inject(hal.EventPostResolutionChange, []byte{0x00, 0x05}))

	assert.Empty(t, in.all())
	res, err := b.Coordinator.Video.CurrentResolution("HDMI0")
	require.NoError(t, err)
	assert.Equal(t, "1080p60", res.Name)
	assert.Equal(t, uint64(1), b.Status().Events["PostResolutionChange"].Malformed)
}

func TestActiveInputAndZoomEvents(t *testing.T) {
	b, device, _ := startBridge(t)
	in := subscribe(t, b, notify.KindActiveInputChanged, notify.KindZoomSettingUpdated)

	device.SwitchInput(false)
	device.SwitchInput(false)
	zoom, err := event.EncodeZoom("PLATFORM")
	require.NoError(t, err)
	require.NoError(t, device.Inject(hal.EventZoomSettingsChanged, zoom))

	assert.Equal(t, []notify.Notification{
		notify.ActiveInputChanged(false),
		notify.ZoomSettingUpdated("PLATFORM"),
	}, in.all())
	assert.Equal(t, uint64(1), b.Status().Events["ActiveInputChanged"].Duplicate)
}

func TestPreAnnouncedAfterLostPost(t *testing.T) {
	b, device, _ := startBridge(t)

	require.NoError(t, device.Inject(hal.EventPreResolutionChange, event.EncodeResolution(1280, 720)))
	require.NoError(t, device.Inject(hal.EventPostResolutionChange, []byte{0, 5, 0}))
	assert.Equal(t, uint64(1), b.Status().Events["PostResolutionChange"].Malformed)

	in := subscribe(t, b, notify.KindResolutionPreChange, notify.KindResolutionChanged)
	require.NoError(t, device.Inject(hal.EventPreResolutionChange, event.EncodeResolution(1920, 1080)))
	require.NoError(t, device.Inject(hal.EventPostResolutionChange, event.EncodeResolution(1920, 1080)))

	got := in.all()
	require.Len(t, got, 2)
	assert.Equal(t, notify.KindResolutionPreChange, got[0].Kind)
	assert.Equal(t, notify.KindResolutionChanged, got[1].Kind)
	assert.Equal(t, 1920, got[1].Params["width"])
}

func TestZoomEventAfterAPIWrite(t *testing.T) {
	b, device, _ := startBridge(t)
	in := subscribe(t, b, notify.KindZoomSettingUpdated)

	require.NoError(t, b.Coordinator.Video.SetZoomSetting(context.Background(), "NONE"))
	zoom, err := event.EncodeZoom("NONE")
	require.NoError(t, err)
	require.NoError(t, device.Inject(hal.EventZoomSettingsChanged, zoom))

	assert.Equal(t, []notify.Notification{notify.ZoomSettingUpdated("NONE")}, in.all())
}

func TestStopDetachesFromBus(t *testing.T) {
	b, device, clk := startBridge(t)
	in := subscribe(t, b, notify.KindConnectedVideoDisplaysUpdated)

	require.NoError(t, device.Plug("COMPONENT0", true))
	b.Stop()
	b.Stop()
	clk.Step(time.Second)
	require.NoError(t, device.Plug("COMPONENT0", false))

	assert.Empty(t, in.all())
	assert.False(t, b.Status().Running)
	assert.Error(t, b.Start(context.Background()))
}

func TestNewRejectsUnknownPayloadVersion(t *testing.T) {
	device, err := sim.New(sim.DefaultProfile())
	require.NoError(t, err)
	_, err = New(device, device.Bus(), Options{PayloadVersion: 9})
	assert.Error(t, err)
}
