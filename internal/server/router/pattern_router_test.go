package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatternRouter(t *testing.T) {
	pr := NewPatternRouter()
	var got string
	pr.Handle(http.MethodGet, "/api/display/methods", func(w http.ResponseWriter, r *http.Request) {
		got = "methods"
	})
	pr.Handle(http.MethodPost, "/api/display/{method:[A-Za-z][A-Za-z0-9]*}", func(w http.ResponseWriter, r *http.Request) {
		got = "call " + PathParam(r, "method")
	})
	pr.HandleFunc("/api/display/files/{path:.*}", func(w http.ResponseWriter, r *http.Request) {
		got = "file " + PathParam(r, "path")
	})

	tests := []struct {
		method string
		path   string
		code   int
		want   string
	}{
		{http.MethodGet, "/api/display/methods", http.StatusOK, "methods"},
		{http.MethodPost, "/api/display/getGain", http.StatusOK, "call getGain"},
		{http.MethodPost, "/api/display/methods", http.StatusOK, "call methods"},
		{http.MethodGet, "/api/display/getGain", http.StatusMethodNotAllowed, ""},
		{http.MethodPost, "/api/display/9lives", http.StatusNotFound, ""},
		{http.MethodDelete, "/api/display/files/a/b.toml", http.StatusOK, "file a/b.toml"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			got = ""
			rec := httptest.NewRecorder()
			pr.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathParamMissing(t *testing.T) {
	assert.Empty(t, PathParam(httptest.NewRequest(http.MethodGet, "/", nil), "method"))
}

func TestCompilePattern(t *testing.T) {
	re, keys := compilePattern("/api/{group}/{method}")
	assert.Equal(t, []string{"group", "method"}, keys)
	assert.True(t, re.MatchString("/api/display/getGain"))
	assert.False(t, re.MatchString("/api/display/getGain/extra"))
}
