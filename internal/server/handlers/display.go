package handlers

import (
	"encoding/hex"
	"net/http"

	"github.com/pkg/errors"

	"github.com/comcastmike/rdkservices/internal/api"
	"github.com/comcastmike/rdkservices/internal/event"
	"github.com/comcastmike/rdkservices/internal/hal"
	"github.com/comcastmike/rdkservices/internal/settings"
	"github.com/comcastmike/rdkservices/internal/util"
)

// DisplayHandlers serves the display settings methods.
type DisplayHandlers struct {
	serverService ServerService
}

// NewDisplayHandlers creates display handlers over the server service
func NewDisplayHandlers(serverSvc ServerService) *DisplayHandlers {
	return &DisplayHandlers{serverService: serverSvc}
}

// MethodInfo describes one dispatch table entry.
type MethodInfo struct {
	Name  string    `json:"name"`
	Group api.Group `json:"group"`
}

// HandleMethods lists every callable method with its field-group.
func (h *DisplayHandlers) HandleMethods(w http.ResponseWriter, r *http.Request) {
	methods := h.serverService.GetMethodTable().Methods()
	out := make([]MethodInfo, 0, len(methods))
	for _, m := range methods {
		out = append(out, MethodInfo{Name: m.Name, Group: m.Group})
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"methods": out,
	})
}

// HandleCall invokes the method named in the path. The request body, if
// any, is a JSON object of parameters.
func (h *DisplayHandlers) HandleCall(w http.ResponseWriter, r *http.Request, method string) {
	params := api.Params{}
	if err := decodeBody(r, &params); err != nil {
		RespondError(w, err)
		return
	}

	result, err := h.serverService.GetMethodTable().Invoke(r.Context(), method, params)
	if err != nil {
		util.GetLogger().Debug("Display call failed", "method", method, "error", err)
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// EmitRequest is a raw hardware event to inject. Payload is hex encoded;
// when empty the payload is built from Words.
type EmitRequest struct {
	Kind    string `json:"kind"`
	Words   []int  `json:"words,omitempty"`
	Payload string `json:"payload,omitempty"`
}

// HandleEmit injects a raw event into the backend event bus. Only backends
// that can synthesize events support it.
func (h *DisplayHandlers) HandleEmit(w http.ResponseWriter, r *http.Request) {
	injector, ok := h.serverService.GetInjector()
	if !ok {
		RespondJSON(w, http.StatusNotImplemented, map[string]interface{}{
			"success": false,
			"error":   "backend " + h.serverService.GetBackend() + " cannot inject events",
		})
		return
	}

	var req EmitRequest
	if err := decodeBody(r, &req); err != nil {
		RespondError(w, err)
		return
	}
	kind, err := hal.ParseEventKind(req.Kind)
	if err != nil {
		RespondError(w, errors.Wrap(settings.ErrInvalidParam, err.Error()))
		return
	}

	payload := event.EncodeWords(req.Words...)
	if req.Payload != "" {
		payload, err = hex.DecodeString(req.Payload)
		if err != nil {
			RespondError(w, errors.Wrapf(settings.ErrInvalidParam, "payload is not hex: %v", err))
			return
		}
	}

	if err := injector.Inject(kind, payload); err != nil {
		RespondError(w, err)
		return
	}
	util.GetLogger().Info("Injected hardware event", "kind", kind.String(), "bytes", len(payload))
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"kind":    kind.String(),
		"bytes":   len(payload),
	})
}

// HandleSubscribers reports the registered subscribers per notification.
func (h *DisplayHandlers) HandleSubscribers(w http.ResponseWriter, r *http.Request) {
	fanout := h.serverService.GetBridge().Fanout
	delivered, failed := fanout.Delivered()
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"subscribers": fanout.Counts(),
		"delivered":   delivered,
		"failed":      failed,
	})
}
