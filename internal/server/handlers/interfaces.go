package handlers

import (
	"time"

	"github.com/comcastmike/rdkservices/internal/api"
	"github.com/comcastmike/rdkservices/internal/bridge"
	"github.com/comcastmike/rdkservices/internal/hal"
)

// ServerService defines the interface for server operations that handlers need
type ServerService interface {
	// Status and info
	IsRunning() bool
	GetPort() int
	GetUptime() time.Duration
	GetBuildID() string
	GetVersion() string
	GetBackend() string

	// Display state and dispatch
	GetBridge() *bridge.Bridge
	GetMethodTable() *api.Table

	// GetInjector returns the event injector of the backend, if it has one
	GetInjector() (hal.Injector, bool)

	// Server lifecycle
	Stop() error
}
