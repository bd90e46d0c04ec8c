package router

import (
	"context"
	"net/http"
	"regexp"
	"strings"
)

// PatternRouter dispatches on path patterns with placeholders such as
// "/api/display/{method}". Routes may be restricted to one HTTP method.
type PatternRouter struct {
	routes []routeEntry
}

type routeEntry struct {
	method  string
	pattern *regexp.Regexp
	handler http.HandlerFunc
	keys    []string
}

type pathParamKey string

// NewPatternRouter creates a new pattern router
func NewPatternRouter() *PatternRouter {
	return &PatternRouter{
		routes: make([]routeEntry, 0),
	}
}

// HandleFunc registers a handler for any HTTP method.
// Pattern examples:
//   - "/api/display/{method}" matches /api/display/getCurrentResolution
//   - "/api/display/{method:[a-zA-Z]+}" restricts the placeholder
func (pr *PatternRouter) HandleFunc(pattern string, handler http.HandlerFunc) {
	pr.Handle("", pattern, handler)
}

// Handle registers a handler for one HTTP method. An empty method matches
// any method.
func (pr *PatternRouter) Handle(method, pattern string, handler http.HandlerFunc) {
	regexPattern, keys := compilePattern(pattern)
	pr.routes = append(pr.routes, routeEntry{
		method:  method,
		pattern: regexPattern,
		handler: handler,
		keys:    keys,
	})
}

// ServeHTTP implements http.Handler. A path that matches only routes of
// other methods is answered with 405.
func (pr *PatternRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var allowed []string
	for _, route := range pr.routes {
		matches := route.pattern.FindStringSubmatch(r.URL.Path)
		if matches == nil {
			continue
		}
		if route.method != "" && route.method != r.Method {
			allowed = append(allowed, route.method)
			continue
		}
		if len(route.keys) > 0 {
			ctx := r.Context()
			for i, key := range route.keys {
				if i+1 < len(matches) {
					ctx = withPathParam(ctx, key, matches[i+1])
				}
			}
			r = r.WithContext(ctx)
		}
		route.handler(w, r)
		return
	}

	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	http.NotFound(w, r)
}

// compilePattern converts a pattern with placeholders to an anchored regular
// expression and returns it with the placeholder keys in order.
func compilePattern(pattern string) (*regexp.Regexp, []string) {
	keys := make([]string, 0)

	regexPattern := regexp.QuoteMeta(pattern)

	// {key} or {key:regex}, braces escaped by QuoteMeta
	placeholderRegex := regexp.MustCompile(`\\\{([^}:]+)(?::([^}]+))?\\\}`)
	regexPattern = placeholderRegex.ReplaceAllStringFunc(regexPattern, func(match string) string {
		content := strings.TrimPrefix(strings.TrimSuffix(match, `\}`), `\{`)
		parts := strings.SplitN(content, ":", 2)

		keys = append(keys, parts[0])
		if len(parts) == 2 {
			return "(" + unquoteMeta(parts[1]) + ")"
		}
		return `([^/]+)`
	})

	return regexp.MustCompile("^" + regexPattern + "$"), keys
}

// unquoteMeta undoes QuoteMeta inside a custom placeholder expression.
func unquoteMeta(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// PathParam returns a placeholder value captured for the request, or an
// empty string.
//
//	router.HandleFunc("/api/display/{method}", handler)
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    method := router.PathParam(r, "method")
//	}
func PathParam(r *http.Request, key string) string {
	if val, ok := r.Context().Value(pathParamKey(key)).(string); ok {
		return val
	}
	return ""
}

func withPathParam(ctx context.Context, key, value string) context.Context {
	return context.WithValue(ctx, pathParamKey(key), value)
}
