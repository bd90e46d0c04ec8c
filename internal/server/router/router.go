package router

import (
	"net/http"
)

// Router defines the interface for route registration
type Router interface {
	RegisterRoutes(mux *http.ServeMux, server interface{})
	GetPathPrefix() string
}

// RouteGroup registers routes below a common prefix
type RouteGroup struct {
	prefix string
	mux    *http.ServeMux
}

// NewRouteGroup creates a new route group with a common prefix
func NewRouteGroup(prefix string, mux *http.ServeMux) *RouteGroup {
	return &RouteGroup{
		prefix: prefix,
		mux:    mux,
	}
}

// HandleFunc registers a handler function with the group's prefix
func (g *RouteGroup) HandleFunc(pattern string, handler http.HandlerFunc) {
	g.mux.HandleFunc(g.prefix+pattern, handler)
}

// Handle registers a handler with the group's prefix
func (g *RouteGroup) Handle(pattern string, handler http.Handler) {
	g.mux.Handle(g.prefix+pattern, handler)
}
