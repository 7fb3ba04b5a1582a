// Package adminapi_test provides behavior tests for the admin API.
package adminapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydraforward/hydraforward/internal/adminapi"
	"github.com/hydraforward/hydraforward/internal/engine"
)

type stubForwarder struct {
	stats   engine.Stats
	health  []engine.UpstreamHealth
	zones   []engine.ZoneEntry
}

func (s *stubForwarder) Stats() engine.Stats                            { return s.stats }
func (s *stubForwarder) UpstreamHealthSnapshot() []engine.UpstreamHealth { return s.health }
func (s *stubForwarder) Zones() []engine.ZoneEntry                       { return s.zones }

func performRequest(h http.Handler, method, path, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv := adminapi.New("127.0.0.1:0", &stubForwarder{}, "", nil)

	w := performRequest(srv.Engine(), http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
}

func TestStatsEndpointReflectsForwarder(t *testing.T) {
	srv := adminapi.New("127.0.0.1:0", &stubForwarder{stats: engine.Stats{ConfiguredServers: 3, ActiveUpstreams: 2}}, "", nil)

	w := performRequest(srv.Engine(), http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Forwarder struct {
			ConfiguredServers int `json:"configured_servers"`
			ActiveUpstreams   int `json:"active_upstreams"`
		} `json:"forwarder"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Forwarder.ConfiguredServers)
	assert.Equal(t, 2, body.Forwarder.ActiveUpstreams)
}

func TestZonesEndpointReflectsConfiguration(t *testing.T) {
	srv := adminapi.New("127.0.0.1:0", &stubForwarder{
		zones: []engine.ZoneEntry{
			{Address: "9.9.9.9:53", Zones: []string{"example.com"}},
			{Address: "1.1.1.1:53", Zones: nil},
		},
	}, "", nil)

	w := performRequest(srv.Engine(), http.MethodGet, "/api/v1/zones", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Servers []struct {
			Address string   `json:"address"`
			Zones   []string `json:"zones"`
		} `json:"servers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Servers, 2)
	assert.Equal(t, "9.9.9.9:53", body.Servers[0].Address)
	assert.Equal(t, []string{"example.com"}, body.Servers[0].Zones)
}

func TestStatsEndpointRequiresAPIKeyWhenConfigured(t *testing.T) {
	srv := adminapi.New("127.0.0.1:0", &stubForwarder{}, "secret", nil)

	w := performRequest(srv.Engine(), http.MethodGet, "/api/v1/stats", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = performRequest(srv.Engine(), http.MethodGet, "/api/v1/stats", "secret")
	assert.Equal(t, http.StatusOK, w.Code)
}
