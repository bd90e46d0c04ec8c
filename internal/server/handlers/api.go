package handlers

import (
	"net/http"
	"time"

	"github.com/comcastmike/rdkservices/internal/util"
	"github.com/comcastmike/rdkservices/internal/version"
)

// APIHandlers contains handlers for the service level /api/* routes
type APIHandlers struct {
	serverService ServerService
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(serverSvc ServerService) *APIHandlers {
	return &APIHandlers{
		serverService: serverSvc,
	}
}

// Health and status endpoints
func (h *APIHandlers) HandleHealth(w http.ResponseWriter, req *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "displaysettings",
	})
}

func (h *APIHandlers) HandleStatus(w http.ResponseWriter, req *http.Request) {
	if h.serverService == nil {
		RespondJSON(w, http.StatusOK, map[string]string{
			"status":  "running",
			"service": "displaysettings",
		})
		return
	}

	status := map[string]interface{}{
		"running":  h.serverService.IsRunning(),
		"port":     h.serverService.GetPort(),
		"uptime":   h.serverService.GetUptime().Round(time.Second).String(),
		"backend":  h.serverService.GetBackend(),
		"version":  h.serverService.GetVersion(),
		"build_id": h.serverService.GetBuildID(),
	}
	if b := h.serverService.GetBridge(); b != nil {
		status["bridge"] = b.Status()
	}

	RespondJSON(w, http.StatusOK, status)
}

// Server management endpoints
func (h *APIHandlers) HandleServerShutdown(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.serverService == nil {
		RespondJSON(w, http.StatusNotImplemented, map[string]string{
			"message": "Server shutdown not available",
		})
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Server shutting down",
	})

	// Shutdown after response
	go func() {
		time.Sleep(100 * time.Millisecond)
		if err := h.serverService.Stop(); err != nil {
			util.GetLogger().Error("Server shutdown failed", "error", err)
		}
	}()
}

func (h *APIHandlers) HandleServerInfo(w http.ResponseWriter, req *http.Request) {
	if h.serverService == nil {
		RespondJSON(w, http.StatusOK, map[string]string{
			"name":    "displaysettings",
			"version": version.Version,
		})
		return
	}

	info := map[string]interface{}{
		"version":     h.serverService.GetVersion(),
		"api_version": version.APIVersion,
		"build_id":    h.serverService.GetBuildID(),
		"port":        h.serverService.GetPort(),
		"uptime":      h.serverService.GetUptime().Round(time.Second).String(),
		"backend":     h.serverService.GetBackend(),
		"services": []string{
			"display-methods",
			"display-events",
		},
	}

	// Set CORS headers for debugging
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	RespondJSON(w, http.StatusOK, info)
}
