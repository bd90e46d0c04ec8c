package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comcastmike/rdkservices/internal/bridge"
	"github.com/comcastmike/rdkservices/internal/event"
	"github.com/comcastmike/rdkservices/internal/hal"
	"github.com/comcastmike/rdkservices/internal/hal/sim"
	"github.com/comcastmike/rdkservices/internal/notify"
	"github.com/comcastmike/rdkservices/internal/server"
)

type testServer struct {
	url    string
	device *sim.Device
	bridge *bridge.Bridge
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()
	device, err := sim.New(sim.DefaultProfile())
	require.NoError(t, err)
	b, err := bridge.New(device, device.Bus(), bridge.Options{DebounceWindow: 10 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))

	s := server.NewDisplayServer(0, "sim", device, b)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		s.Stop()
		device.Close()
	})
	return &testServer{url: srv.URL, device: device, bridge: b}
}

func run(t *testing.T, ts *testServer, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--url", ts.url}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCallParams(t *testing.T) {
	params, err := parseCallParams(`{"audioPort":"SPDIF0","level":3}`, []string{"audioPort=HDMI0", "persist=false", "gain=12.5", "resolution=720p"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"audioPort":  "HDMI0",
		"level":      float64(3),
		"persist":    false,
		"gain":       12.5,
		"resolution": "720p",
	}, params)

	_, err = parseCallParams("", []string{"novalue"})
	assert.Error(t, err)
	_, err = parseCallParams("[1]", nil)
	assert.Error(t, err)
}

func TestPrintResult(t *testing.T) {
	result := map[string]interface{}{
		"success":    true,
		"resolution": "720p",
		"w":          1280,
		"displays":   []interface{}{"HDMI0"},
	}

	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, "text", result))
	assert.Equal(t, "displays: [\"HDMI0\"]\nresolution: 720p\nw: 1280\n", buf.String())

	buf.Reset()
	require.NoError(t, printResult(&buf, "yaml", result))
	assert.Contains(t, buf.String(), "resolution: 720p\n")
	assert.Contains(t, buf.String(), "displays:\n  - HDMI0\n")

	buf.Reset()
	require.NoError(t, printResult(&buf, "json", result))
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "720p", decoded["resolution"])

	assert.Error(t, printResult(&buf, "xml", result))
}

func TestCallCommand(t *testing.T) {
	ts := startTestServer(t)

	out, err := run(t, ts, "call", "--no-start", "setCurrentResolution", "videoDisplay=HDMI0", "resolution=720p")
	require.NoError(t, err)
	assert.Equal(t, "h: 720\nresolution: 720p\nw: 1280\n", out)

	out, err = run(t, ts, "call", "--no-start", "getCurrentResolution", "-o", "json")
	require.NoError(t, err)
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "720p", result["resolution"])

	_, err = run(t, ts, "call", "--no-start", "setGain", "audioPort=HDMI0", "gain=500")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestMethodsCommand(t *testing.T) {
	ts := startTestServer(t)

	out, err := run(t, ts, "methods", "--group", "audio")
	require.NoError(t, err)
	assert.Contains(t, out, "getGain")
	assert.NotContains(t, out, "getZoomSetting")
}

func TestEmitCommand(t *testing.T) {
	ts := startTestServer(t)

	out, err := run(t, ts, "emit", "ZoomSettingsChanged", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "ZoomSettingsChanged")
	zoom, err := ts.bridge.Coordinator.Video.ZoomSetting()
	require.NoError(t, err)
	assert.Equal(t, "NONE", zoom)

	_, err = run(t, ts, "emit", "HotPlug", "zero")
	assert.Error(t, err)
	_, err = run(t, ts, "emit", "Earthquake")
	assert.Error(t, err)
}

func TestWatchCommand(t *testing.T) {
	ts := startTestServer(t)

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := run(t, ts, "watch", "-e", "zoomSettingUpdated", "--count", "1", "-o", "json")
		done <- result{out, err}
	}()

	require.Eventually(t, func() bool {
		return ts.bridge.Fanout.SubscriberCount(notify.KindZoomSettingUpdated) == 1
	}, 5*time.Second, 10*time.Millisecond)

	payload, err := event.EncodeZoom("PAN_SCAN")
	require.NoError(t, err)
	require.NoError(t, ts.device.Inject(hal.EventZoomSettingsChanged, payload))

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, `{"event":"zoomSettingUpdated","params":{"zoomSetting":"PAN_SCAN"}}`, strings.TrimSpace(r.out))
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not return")
	}
}
