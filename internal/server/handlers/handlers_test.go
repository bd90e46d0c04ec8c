package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comcastmike/rdkservices/internal/api"
	"github.com/comcastmike/rdkservices/internal/bridge"
	"github.com/comcastmike/rdkservices/internal/hal"
	"github.com/comcastmike/rdkservices/internal/hal/sim"
	"github.com/comcastmike/rdkservices/internal/notify"
	"github.com/comcastmike/rdkservices/internal/settings"
)

// MockServerService serves a simulated device for testing
type MockServerService struct {
	device  *sim.Device
	bridge  *bridge.Bridge
	table   *api.Table
	inject  bool
	stopped atomic.Bool
}

func (m *MockServerService) IsRunning() bool          { return !m.stopped.Load() }
func (m *MockServerService) GetPort() int             { return 8080 }
func (m *MockServerService) GetUptime() time.Duration { return time.Hour }
func (m *MockServerService) GetBuildID() string       { return "test-build" }
func (m *MockServerService) GetVersion() string       { return "1.0.0" }
func (m *MockServerService) GetBackend() string       { return "sim" }
func (m *MockServerService) GetBridge() *bridge.Bridge {
	return m.bridge
}
func (m *MockServerService) GetMethodTable() *api.Table { return m.table }
func (m *MockServerService) GetInjector() (hal.Injector, bool) {
	if !m.inject {
		return nil, false
	}
	return m.device, true
}
func (m *MockServerService) Stop() error {
	m.stopped.Store(true)
	return nil
}

func newMockService(t *testing.T) *MockServerService {
	t.Helper()
	device, err := sim.New(sim.DefaultProfile())
	require.NoError(t, err)
	b, err := bridge.New(device, device.Bus(), bridge.Options{DebounceWindow: 20 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))
	t.Cleanup(func() {
		b.Stop()
		_ = device.Close()
	})
	return &MockServerService{
		device: device,
		bridge: b,
		table:  api.NewTable(b.Coordinator),
		inject: true,
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{api.ErrUnknownMethod, http.StatusNotFound},
		{settings.ErrInvalidParam, http.StatusBadRequest},
		{settings.ErrUnknownPort, http.StatusBadRequest},
		{&settings.HardwareCallError{Op: "setGain", Err: assert.AnError}, http.StatusBadGateway},
		{&settings.HardwareCallError{Op: "ReadEDID", Err: hal.ErrNotSupported}, http.StatusNotImplemented},
		{settings.ErrStateUnavailable, http.StatusServiceUnavailable},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusForError(tt.err), tt.err.Error())
	}
}

func TestHandleCall(t *testing.T) {
	h := NewDisplayHandlers(newMockService(t))

	req := httptest.NewRequest(http.MethodPost, "/api/display/getCurrentResolution", strings.NewReader(`{"videoDisplay":"HDMI0"}`))
	rec := httptest.NewRecorder()
	h.HandleCall(rec, req, "getCurrentResolution")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "1080p60", body["resolution"])
}

func TestHandleCallErrors(t *testing.T) {
	svc := newMockService(t)
	h := NewDisplayHandlers(svc)

	tests := []struct {
		name   string
		method string
		body   string
		code   int
	}{
		{"unknown method", "getWarpFactor", "", http.StatusNotFound},
		{"bad body", "setGain", "{", http.StatusBadRequest},
		{"out of range", "setGain", `{"audioPort":"HDMI0","gain":250}`, http.StatusBadRequest},
		{"unknown port", "getGain", `{"audioPort":"HDMI9"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/display/"+tt.method, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.HandleCall(rec, req, tt.method)

			assert.Equal(t, tt.code, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}

	svc.device.FailNext("SetGain", assert.AnError)
	req := httptest.NewRequest(http.MethodPost, "/api/display/setGain", strings.NewReader(`{"audioPort":"HDMI0","gain":10}`))
	rec := httptest.NewRecorder()
	h.HandleCall(rec, req, "setGain")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleMethods(t *testing.T) {
	h := NewDisplayHandlers(newMockService(t))
	rec := httptest.NewRecorder()
	h.HandleMethods(rec, httptest.NewRequest(http.MethodGet, "/api/display/methods", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Methods []MethodInfo `json:"methods"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Methods)
	for _, m := range body.Methods {
		assert.Contains(t, []api.Group{api.GroupVideo, api.GroupAudio}, m.Group, m.Name)
	}
}

func TestHandleEmit(t *testing.T) {
	svc := newMockService(t)
	h := NewDisplayHandlers(svc)

	rec := httptest.NewRecorder()
	h.HandleEmit(rec, httptest.NewRequest(http.MethodPost, "/api/display/emit", strings.NewReader(`{"kind":"ZoomSettingsChanged","words":[2]}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	zoom, err := svc.bridge.Coordinator.Video.ZoomSetting()
	require.NoError(t, err)
	assert.Equal(t, "LB_16_9", zoom)

	// malformed payloads are accepted by the bus and dropped by the normalizer
	rec = httptest.NewRecorder()
	h.HandleEmit(rec, httptest.NewRequest(http.MethodPost, "/api/display/emit", strings.NewReader(`{"kind":"HotPlug","payload":"0100"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(1), svc.bridge.Normalizer.Stats()["HotPlug"].Malformed)

	rec = httptest.NewRecorder()
	h.HandleEmit(rec, httptest.NewRequest(http.MethodPost, "/api/display/emit", strings.NewReader(`{"kind":"Teleport"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleEmit(rec, httptest.NewRequest(http.MethodPost, "/api/display/emit", strings.NewReader(`{"kind":"HotPlug","payload":"zz"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.inject = false
	rec = httptest.NewRecorder()
	h.HandleEmit(rec, httptest.NewRequest(http.MethodPost, "/api/display/emit", strings.NewReader(`{"kind":"HotPlug"}`)))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestHandleStatus(t *testing.T) {
	h := NewAPIHandlers(newMockService(t))
	rec := httptest.NewRecorder()
	h.HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	body := decode(t, rec)
	assert.Equal(t, "sim", body["backend"])
	bridgeStatus, ok := body["bridge"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, bridgeStatus["running"])

	rec = httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, "healthy", decode(t, rec)["status"])
}

func TestHandleServerShutdown(t *testing.T) {
	svc := newMockService(t)
	h := NewAPIHandlers(svc)

	rec := httptest.NewRecorder()
	h.HandleServerShutdown(rec, httptest.NewRequest(http.MethodGet, "/api/server/shutdown", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleServerShutdown(rec, httptest.NewRequest(http.MethodPost, "/api/server/shutdown", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Eventually(t, func() bool { return !svc.IsRunning() }, time.Second, 10*time.Millisecond)
}

func dialEvents(t *testing.T, svc ServerService) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(NewEventHandlers(svc).HandleEvents))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil skips messages until one of type want arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want string) SessionMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg SessionMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == want {
			return msg
		}
	}
}

func TestEventSession(t *testing.T) {
	svc := newMockService(t)
	conn := dialEvents(t, svc)

	session := readUntil(t, conn, "session")
	assert.Len(t, session.Session, 12)

	require.NoError(t, conn.WriteJSON(SessionRequest{Type: "register", Event: "resolutionChanged", ID: "ui"}))
	registered := readUntil(t, conn, "registered")
	assert.Equal(t, "ui", registered.ID)
	assert.Equal(t, 1, svc.bridge.Fanout.SubscriberCount(notify.KindResolutionChanged))

	_, err := svc.table.Invoke(context.Background(), "setCurrentResolution", api.Params{"videoDisplay": "HDMI0", "resolution": "720p"})
	require.NoError(t, err)

	n := readUntil(t, conn, "notification")
	assert.Equal(t, "resolutionChanged", n.Event)
	assert.Equal(t, "720p", n.Params["resolution"])
	assert.Equal(t, float64(1280), n.Params["width"])

	require.NoError(t, conn.WriteJSON(SessionRequest{Type: "unregister", ID: "ui"}))
	unregistered := readUntil(t, conn, "unregistered")
	require.NotNil(t, unregistered.Removed)
	assert.True(t, *unregistered.Removed)
	assert.Zero(t, svc.bridge.Fanout.SubscriberCount(notify.KindResolutionChanged))
}

func TestEventSessionRequestErrors(t *testing.T) {
	conn := dialEvents(t, newMockService(t))
	readUntil(t, conn, "session")

	require.NoError(t, conn.WriteJSON(SessionRequest{Type: "register", Event: "volumeChanged"}))
	assert.Contains(t, readUntil(t, conn, "error").Error, "volumeChanged")

	require.NoError(t, conn.WriteJSON(SessionRequest{Type: "unregister"}))
	assert.NotEmpty(t, readUntil(t, conn, "error").Error)

	require.NoError(t, conn.WriteJSON(SessionRequest{Type: "ping"}))
	readUntil(t, conn, "pong")
}

func TestEventSessionCloseDropsRegistrations(t *testing.T) {
	svc := newMockService(t)
	conn := dialEvents(t, svc)
	readUntil(t, conn, "session")

	require.NoError(t, conn.WriteJSON(SessionRequest{Type: "register", Event: "*"}))
	readUntil(t, conn, "registered")
	for _, k := range notify.Kinds {
		assert.Equal(t, 1, svc.bridge.Fanout.SubscriberCount(k), string(k))
	}

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		for _, n := range svc.bridge.Fanout.Counts() {
			if n != 0 {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)
}
