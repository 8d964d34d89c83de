package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	cfg.DBPath = ":memory:"
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	s, err := New(cfg, logger)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return ts
}

func TestConfig_Addr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8080", Config{Bind: "127.0.0.1", Port: 8080}.Addr())
	assert.Equal(t, ":9000", Config{Port: 9000}.Addr())
}

func TestConfig_CheckOrigin(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/api/realtime", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	open := Config{}
	assert.True(t, open.checkOrigin(req("https://anything.example")))

	wildcard := Config{AllowedOrigins: []string{"*"}}
	assert.True(t, wildcard.checkOrigin(req("https://anything.example")))

	strict := Config{AllowedOrigins: []string{"https://synergy.example"}}
	assert.True(t, strict.checkOrigin(req("https://synergy.example")))
	assert.True(t, strict.checkOrigin(req("")), "non-browser clients send no Origin")
	assert.False(t, strict.checkOrigin(req("https://evil.example")))
}

func TestServer_Routes(t *testing.T) {
	ts := newTestServer(t, Config{})

	res, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Post(ts.URL+"/api/users", "application/json", strings.NewReader(`{"name":"Aiko"}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	res, err = http.Post(ts.URL+"/api/draw", "application/json", nil)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestServer_CORSPreflight(t *testing.T) {
	ts := newTestServer(t, Config{AllowedOrigins: []string{"https://synergy.example"}})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/keywords", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://synergy.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "https://synergy.example", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_WebsocketThroughMiddleware(t *testing.T) {
	ts := newTestServer(t, Config{AllowedOrigins: []string{"https://synergy.example"}})
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/realtime?topic=history"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	conn.Close()

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, res, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}
