package router

import (
	"net/http"

	"github.com/comcastmike/rdkservices/internal/server/handlers"
)

// APIRouter handles the service level /api/* routes
type APIRouter struct {
	handlers *handlers.APIHandlers
}

// RegisterRoutes registers all API routes
func (r *APIRouter) RegisterRoutes(mux *http.ServeMux, server interface{}) {
	var serverService handlers.ServerService
	if srv, ok := server.(handlers.ServerService); ok {
		serverService = srv
	}

	r.handlers = handlers.NewAPIHandlers(serverService)

	// Health and status endpoints
	mux.HandleFunc("/api/health", r.handlers.HandleHealth)
	mux.HandleFunc("/api/status", r.handlers.HandleStatus)

	// Server management endpoints
	mux.HandleFunc("/api/server/shutdown", r.handlers.HandleServerShutdown)
	mux.HandleFunc("/api/server/info", r.handlers.HandleServerInfo)
}

// GetPathPrefix returns the path prefix for this router
func (r *APIRouter) GetPathPrefix() string {
	return "/api"
}
