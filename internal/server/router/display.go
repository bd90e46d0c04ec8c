package router

import (
	"net/http"

	"github.com/comcastmike/rdkservices/internal/server/handlers"
)

// DisplayRouter handles the /api/display/* routes
type DisplayRouter struct {
	display *handlers.DisplayHandlers
	events  *handlers.EventHandlers
}

// RegisterRoutes registers the method, event session and injection routes.
// Fixed paths are registered before the method placeholder.
func (r *DisplayRouter) RegisterRoutes(mux *http.ServeMux, server interface{}) {
	serverService, ok := server.(handlers.ServerService)
	if !ok {
		return
	}

	r.display = handlers.NewDisplayHandlers(serverService)
	r.events = handlers.NewEventHandlers(serverService)

	patterns := NewPatternRouter()
	patterns.Handle(http.MethodGet, r.GetPathPrefix()+"/methods", r.display.HandleMethods)
	patterns.Handle(http.MethodGet, r.GetPathPrefix()+"/events", r.events.HandleEvents)
	patterns.Handle(http.MethodGet, r.GetPathPrefix()+"/subscribers", r.display.HandleSubscribers)
	patterns.Handle(http.MethodPost, r.GetPathPrefix()+"/emit", r.display.HandleEmit)
	patterns.Handle(http.MethodPost, r.GetPathPrefix()+"/{method:[A-Za-z][A-Za-z0-9]*}", func(w http.ResponseWriter, req *http.Request) {
		r.display.HandleCall(w, req, PathParam(req, "method"))
	})

	group := NewRouteGroup(r.GetPathPrefix(), mux)
	group.Handle("/", patterns)
}

// GetPathPrefix returns the path prefix for this router
func (r *DisplayRouter) GetPathPrefix() string {
	return "/api/display"
}
