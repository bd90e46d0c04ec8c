// Package server exposes the display settings methods and notification
// sessions over HTTP and WebSocket.
package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/comcastmike/rdkservices/internal/api"
	"github.com/comcastmike/rdkservices/internal/bridge"
	"github.com/comcastmike/rdkservices/internal/hal"
	"github.com/comcastmike/rdkservices/internal/server/router"
	"github.com/comcastmike/rdkservices/internal/util"
	"github.com/comcastmike/rdkservices/internal/version"
)

// DisplayServer serves one device's display settings
type DisplayServer struct {
	port       int
	backend    string
	httpServer *http.Server
	mux        *http.ServeMux

	// Services
	display hal.Display
	bridge  *bridge.Bridge
	table   *api.Table

	// State
	mu        sync.RWMutex
	running   bool
	startTime time.Time
	buildID   string
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewDisplayServer creates a server over a started or unstarted bridge.
// backend names the hardware layer for status reporting.
func NewDisplayServer(port int, backend string, display hal.Display, b *bridge.Bridge) *DisplayServer {
	ctx, cancel := context.WithCancel(context.Background())

	s := &DisplayServer{
		port:    port,
		backend: backend,
		mux:     http.NewServeMux(),
		display: display,
		bridge:  b,
		table:   api.NewTable(b.Coordinator),
		buildID: GetBuildID(),
		ctx:     ctx,
		cancel:  cancel,
	}
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler with request logging.
func (s *DisplayServer) Handler() http.Handler {
	return loggingMiddleware(s.mux)
}

// Start starts the event bridge and serves until Stop is called
func (s *DisplayServer) Start() error {
	if err := s.bridge.Start(s.ctx); err != nil {
		return errors.Wrap(err, "failed to start display event bridge")
	}

	s.mu.Lock()
	s.startTime = time.Now()
	s.running = true
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
		// Event sessions are long lived, so no write timeout
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	util.GetLogger().Info("Display settings server listening", "port", s.port, "backend", s.backend, "buildID", s.buildID)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop stops the server
func (s *DisplayServer) Stop() error {
	s.cancel()

	s.mu.Lock()
	s.running = false
	httpServer := s.httpServer
	s.mu.Unlock()

	// Detach the bridge first so sessions see their registrations dropped
	s.bridge.Stop()

	if httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			util.GetLogger().Warn("HTTP server shutdown error", "error", err)
			if err := httpServer.Close(); err != nil {
				util.GetLogger().Warn("HTTP server force close error", "error", err)
			}
		}
	}

	util.GetLogger().Info("Display settings server stopped")
	return nil
}

// IsRunning returns whether the server is running
func (s *DisplayServer) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// setupRoutes registers all HTTP routes
func (s *DisplayServer) setupRoutes() {
	routers := []router.Router{
		&router.APIRouter{},
		&router.DisplayRouter{},
	}

	for _, r := range routers {
		r.RegisterRoutes(s.mux, s)
	}
}

// ServerService interface implementations for handlers

// GetPort returns the server port
func (s *DisplayServer) GetPort() int {
	return s.port
}

// GetUptime returns server uptime
func (s *DisplayServer) GetUptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime)
}

// GetBuildID returns build ID
func (s *DisplayServer) GetBuildID() string {
	return s.buildID
}

// GetVersion returns version info
func (s *DisplayServer) GetVersion() string {
	return version.Version
}

// GetBackend returns the hardware backend name
func (s *DisplayServer) GetBackend() string {
	return s.backend
}

// GetBridge returns the event bridge
func (s *DisplayServer) GetBridge() *bridge.Bridge {
	return s.bridge
}

// GetMethodTable returns the method dispatch table
func (s *DisplayServer) GetMethodTable() *api.Table {
	return s.table
}

// GetInjector returns the backend event injector when there is one
func (s *DisplayServer) GetInjector() (hal.Injector, bool) {
	injector, ok := s.display.(hal.Injector)
	return injector, ok
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	length int
}

func (lw *loggingResponseWriter) WriteHeader(code int) {
	lw.status = code
	lw.ResponseWriter.WriteHeader(code)
}

func (lw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lw.status == 0 {
		lw.status = http.StatusOK
	}
	n, err := lw.ResponseWriter.Write(b)
	lw.length += n
	return n, err
}

func (lw *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := lw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("http.Hijacker interface is not supported")
	}
	// Hijacked connections are upgraded to WebSocket
	lw.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &loggingResponseWriter{ResponseWriter: w}
		next.ServeHTTP(lw, r)
		util.GetLogger().Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", lw.status,
			"bytes", lw.length,
			"duration", time.Since(start).String(),
			"remote", r.RemoteAddr)
	})
}
