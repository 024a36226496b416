package routers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/1023-Ventures/qlaunch/internal/api/handlers"
	"github.com/1023-Ventures/qlaunch/internal/api/middleware"
	"github.com/1023-Ventures/qlaunch/internal/models"
	"github.com/1023-Ventures/qlaunch/internal/service"
	"github.com/1023-Ventures/qlaunch/internal/sse"
	"github.com/1023-Ventures/qlaunch/internal/terminal"
	"github.com/1023-Ventures/qlaunch/internal/ws"
	"github.com/1023-Ventures/qlaunch/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSnapshots struct {
	mu       sync.Mutex
	err      error
	requests int
}

func (f *fakeSnapshots) Snapshot(context.Context) (models.WorkspaceInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.WorkspaceInfo{}, f.err
	}
	return models.WorkspaceInfo{WorkspaceName: "demo", SlnFiles: []string{"/src/App.sln"}}, nil
}

func (f *fakeSnapshots) RequestSnapshot() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
}

func (f *fakeSnapshots) failWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeSnapshots) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

type fakePatterns struct {
	mu       sync.Mutex
	patterns []string
}

func (f *fakePatterns) WatchPatterns() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.patterns
}
func (f *fakePatterns) WatcherCount() int { return len(f.WatchPatterns()) }
func (f *fakePatterns) UpdateWatchPatterns(p []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patterns = p
}

type env struct {
	srv      *httptest.Server
	hub      *ws.Hub
	snaps    *fakeSnapshots
	patterns *fakePatterns
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Discard()
	e := &env{
		hub:      ws.NewHub(log),
		snaps:    &fakeSnapshots{},
		patterns: &fakePatterns{patterns: []string{"**/*.go"}},
	}
	sseHub := sse.NewSSEHub(log)
	terms := terminal.NewManager("/bin/sh", nil, log)
	h := handlers.NewHandler(e.hub, sseHub, e.snaps, e.snaps, e.patterns, terms, service.NewService(""),
		middleware.NewOriginPolicy([]string{"vscode-webview://qlaunch"}), log)
	e.srv = httptest.NewServer(NewRouter(h, log).SetupRouter())
	t.Cleanup(func() {
		e.hub.Close()
		sseHub.Close()
		terms.CloseAll()
		e.srv.Close()
	})
	return e
}

func (e *env) do(t *testing.T, method, path, body string) (*http.Response, models.Message) {
	t.Helper()
	return e.doFrom(t, "", method, path, body)
}

// doFrom sends the request with a browser Origin header; empty means none.
func (e *env) doFrom(t *testing.T, origin, method, path, body string) (*http.Response, models.Message) {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var msg models.Message
	_ = json.NewDecoder(resp.Body).Decode(&msg)
	return resp, msg
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	resp, msg := e.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "health_check", msg.Type)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCorsPreflightEchoesTrustedOrigins(t *testing.T) {
	e := newEnv(t)
	for _, origin := range []string{"http://localhost:5173", "http://127.0.0.1:7531", "vscode-webview://qlaunch"} {
		resp, _ := e.doFrom(t, origin, http.MethodOptions, "/api/v1/terminals", "")
		assert.Equal(t, http.StatusNoContent, resp.StatusCode, origin)
		assert.Equal(t, origin, resp.Header.Get("Access-Control-Allow-Origin"), origin)
	}
}

func TestForeignOriginIsRejected(t *testing.T) {
	e := newEnv(t)
	const evil = "https://evil.example"

	resp, _ := e.doFrom(t, evil, http.MethodOptions, "/api/v1/terminals", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))

	resp, _ = e.doFrom(t, evil, http.MethodPost, "/api/v1/terminals", `{"cwd":"/tmp"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = e.doFrom(t, evil, http.MethodPut, "/api/v1/watch-patterns", `{"patterns":["**/*"]}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, []string{"**/*.go"}, e.patterns.WatchPatterns())

	base := "ws" + strings.TrimPrefix(e.srv.URL, "http")
	header := http.Header{"Origin": []string{evil}}
	for _, path := range []string{"/ws?role=ui", "/ws?role=editor", "/api/v1/terminals/any/attach"} {
		conn, resp, err := websocket.DefaultDialer.Dial(base+path, header)
		require.Error(t, err, path)
		if conn != nil {
			conn.Close()
		}
		require.NotNil(t, resp, path)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, path)
	}
	assert.Zero(t, e.hub.Count(ws.RoleUI))
}

func TestLoopbackOriginCanOpenWebSocket(t *testing.T) {
	e := newEnv(t)
	base := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(base, http.Header{"Origin": []string{"http://localhost:5173"}})
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return e.hub.Count(ws.RoleUI) == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestSnapshotEndpoints(t *testing.T) {
	e := newEnv(t)
	resp, msg := e.do(t, http.MethodGet, "/api/v1/snapshot", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.MsgWorkspaceInfo, msg.Type)

	resp, _ = e.do(t, http.MethodPost, "/api/v1/refresh", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, 1, e.snaps.requestCount())

	e.snaps.failWith(errors.New("cancelled"))
	resp, _ = e.do(t, http.MethodGet, "/api/v1/snapshot", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestWatchPatternEndpoints(t *testing.T) {
	e := newEnv(t)
	resp, msg := e.do(t, http.MethodGet, "/api/v1/watch-patterns", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.MsgWatchPatterns, msg.Type)

	resp, _ = e.do(t, http.MethodPut, "/api/v1/watch-patterns", `{"patterns":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, msg = e.do(t, http.MethodPut, "/api/v1/watch-patterns", `{"patterns":["**/*.md"]}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.MsgWatchPatternsUpdated, msg.Type)
	assert.Equal(t, []string{"**/*.md"}, e.patterns.WatchPatterns())
}

func TestTerminalEndpointsRejectUnknownSessions(t *testing.T) {
	e := newEnv(t)
	resp, _ := e.do(t, http.MethodGet, "/api/v1/terminals", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/api/v1/terminals", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/api/v1/terminals", `{"cwd":"/definitely/not/here"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.do(t, http.MethodDelete, "/api/v1/terminals/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, "/api/v1/terminals/missing/attach", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocketRoles(t *testing.T) {
	e := newEnv(t)
	base := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(base+"?role=admin", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(base, nil)
	require.NoError(t, err)
	defer conn.Close()
	editor, _, err := websocket.DefaultDialer.Dial(base+"?role=editor", nil)
	require.NoError(t, err)
	defer editor.Close()

	require.Eventually(t, func() bool {
		return e.hub.Count(ws.RoleUI) == 1 && e.hub.Count(ws.RoleEditor) == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestEventStreamOpensWithConnectedMessage(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "data: "))
	assert.Contains(t, line, `"type":"connected"`)
}
