package daemon

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckHealth(t *testing.T) {
	ours := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy", "service": ServiceName})
	}))
	defer ours.Close()
	assert.NoError(t, NewManagerWithURL(ours.URL).CheckHealth())
	assert.True(t, NewManagerWithURL(ours.URL+"/").IsServerRunning())

	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	}))
	defer other.Close()
	assert.Equal(t, ErrServerMismatched, NewManagerWithURL(other.URL).CheckHealth())

	closed := httptest.NewServer(http.NotFoundHandler())
	url := closed.URL
	closed.Close()
	assert.Equal(t, ErrServerUnavailable, NewManagerWithURL(url).CheckHealth())
}

func TestCallAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/display/getGain":
			var params map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
			assert.Equal(t, "HDMI0", params["audioPort"])
			json.NewEncoder(w).Encode(map[string]interface{}{"gain": 42.0, "success": true})
		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "unknown method"})
		}
	}))
	defer srv.Close()

	m := NewManagerWithURL(srv.URL)
	var result map[string]interface{}
	require.NoError(t, m.CallAPI(http.MethodPost, "/api/display/getGain", map[string]string{"audioPort": "HDMI0"}, &result))
	assert.Equal(t, 42.0, result["gain"])

	err := m.CallAPI(http.MethodPost, "/api/display/getWarp", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "unknown method", apiErr.Message)
}

func TestEventsURL(t *testing.T) {
	u, err := NewManagerWithURL("http://localhost:29899").EventsURL()
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:29899/api/display/events", u)

	u, err = NewManagerWithURL("https://tv.local/base/").EventsURL()
	require.NoError(t, err)
	assert.Equal(t, "wss://tv.local/base/api/display/events", u)
}
