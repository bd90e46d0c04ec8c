// Package daemon starts, stops and talks to the display settings server
// running in the background.
package daemon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/comcastmike/rdkservices/config"
	"github.com/comcastmike/rdkservices/internal/util"
)

// ServiceName is reported by the health endpoint of the server.
const ServiceName = "displaysettings"

var (
	// ErrServerUnavailable means nothing answers on the server port.
	ErrServerUnavailable = errors.New("server port unavailable")
	// ErrServerMismatched means another service answers on the server port.
	ErrServerMismatched = errors.New("server mismatched")
)

// APIError is a non-2xx response of the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.Status, e.Message)
}

// Manager handles the server daemon lifecycle and API calls
type Manager struct {
	url    string
	client *http.Client
}

// NewManager creates a manager for the configured server URL
func NewManager() *Manager {
	return NewManagerWithURL(config.GetServerURL())
}

// NewManagerWithURL creates a manager for a server at baseURL
func NewManagerWithURL(baseURL string) *Manager {
	return &Manager{
		url:    strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// URL returns the server base URL
func (m *Manager) URL() string {
	return m.url
}

// EventsURL returns the WebSocket URL of the notification endpoint
func (m *Manager) EventsURL() (string, error) {
	u, err := url.Parse(m.url)
	if err != nil {
		return "", errors.Wrapf(err, "invalid server URL %q", m.url)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/display/events"
	return u.String(), nil
}

// CheckHealth reports whether our server answers on the configured URL
func (m *Manager) CheckHealth() error {
	client := &http.Client{Timeout: 500 * time.Millisecond}
	resp, err := client.Get(m.url + "/api/health")
	if err != nil {
		return ErrServerUnavailable
	}
	defer resp.Body.Close()

	var body struct {
		Status  string `json:"status"`
		Service string `json:"service"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Service != ServiceName {
		return ErrServerMismatched
	}
	return nil
}

// IsServerRunning checks if the server is running
func (m *Manager) IsServerRunning() bool {
	return m.CheckHealth() == nil
}

// EnsureServerRunning starts the server if it is not running yet
func (m *Manager) EnsureServerRunning() error {
	switch err := m.CheckHealth(); err {
	case nil:
		return nil
	case ErrServerMismatched:
		return errors.Wrapf(err, "%s is used by another service", m.url)
	}
	return m.StartServer()
}

// StartServer starts the server daemon as a subprocess of this binary.
// args are appended to the `server start` command line.
func (m *Manager) StartServer(args ...string) error {
	home := config.GetHome()
	if err := os.MkdirAll(home, 0755); err != nil {
		return errors.Wrap(err, "failed to create daemon home")
	}

	logFile := filepath.Join(home, "server.log")
	logFd, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return errors.Wrapf(err, "failed to create log file %s", logFile)
	}
	defer logFd.Close()

	exePath, err := os.Executable()
	if err != nil {
		return errors.Wrap(err, "failed to get executable path")
	}

	cmd := exec.Command(exePath, append([]string{"server", "start", "--internal-daemon"}, args...)...)
	cmd.Stdout = logFd
	cmd.Stderr = logFd
	cmd.Env = append(os.Environ(), "DISPLAYSETTINGS_DAEMON=1")
	setSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "failed to start server daemon")
	}
	pid := cmd.Process.Pid

	if err := os.WriteFile(m.pidFile(), []byte(strconv.Itoa(pid)), 0644); err != nil {
		util.GetLogger().Warn("Failed to write PID file", "error", err)
	}

	for i := 0; i < 20; i++ {
		time.Sleep(250 * time.Millisecond)
		if m.IsServerRunning() {
			util.GetLogger().Info("Display settings server started", "pid", pid, "url", m.url, "log", logFile)
			return nil
		}
	}
	return errors.Errorf("server started but not responding at %s, see %s", m.url, logFile)
}

// StopServer asks the server to shut down and falls back to signalling the
// recorded PID.
func (m *Manager) StopServer() error {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Post(m.url+"/api/server/shutdown", "application/json", nil)
	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		os.Remove(m.pidFile())
		time.Sleep(500 * time.Millisecond)
		return nil
	}

	pidBytes, err := os.ReadFile(m.pidFile())
	if err != nil {
		return errors.New("server not running")
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(pidBytes)))
	if err != nil {
		return errors.New("invalid PID file")
	}

	defer os.Remove(m.pidFile())
	if !isProcessAlive(pid) {
		return errors.New("server not running")
	}
	if err := killProcess(pid, syscall.SIGTERM); err != nil {
		return errors.Wrap(err, "failed to stop server")
	}
	util.GetLogger().Info("Display settings server stopped", "pid", pid)
	return nil
}

func (m *Manager) pidFile() string {
	return filepath.Join(config.GetHome(), "server.pid")
}

// CallAPI makes an API call to the server. Error responses are returned as
// *APIError carrying the server's error message.
func (m *Manager) CallAPI(method, endpoint string, body interface{}, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request")
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, m.url+endpoint, bodyReader)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "API call failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}

	if resp.StatusCode >= 400 {
		var failure struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &failure) == nil && failure.Error != "" {
			msg = failure.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return errors.Wrap(err, "failed to decode response")
		}
	}
	return nil
}
