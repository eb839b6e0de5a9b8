package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/handlers"
	"github.com/Dosada05/bracket-engine/middleware"
	"github.com/Dosada05/bracket-engine/services"
	"github.com/Dosada05/bracket-engine/storage"
)

const testSecret = "test-secret"

type testServer struct {
	*httptest.Server
	hub       *brackets.Hub
	organizer string
	viewer    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := brackets.NewHub(nil)
	go hub.Run(ctx)

	registry := prometheus.NewRegistry()
	svc := services.NewTournamentService(storage.NewFileStore(t.TempDir()), nil, hub, services.NewMetrics(registry), nil)

	router := chi.NewRouter()
	SetupRoutes(router, testSecret,
		handlers.NewTournamentHandler(svc),
		handlers.NewWebSocketHandler(hub, svc, nil),
		registry)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	organizer, err := middleware.NewToken(testSecret, "alice", middleware.RoleOrganizer, time.Hour)
	require.NoError(t, err)
	viewer, err := middleware.NewToken(testSecret, "bob", middleware.RoleViewer, time.Hour)
	require.NoError(t, err)
	return &testServer{Server: srv, hub: hub, organizer: organizer, viewer: viewer}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func (s *testServer) create(t *testing.T, key string, entrants ...string) {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{"key": key, "name": "Cup", "entrants": entrants})
	require.NoError(t, err)
	resp, _ := s.do(t, http.MethodPost, "/tournaments", s.organizer, string(body))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)

	srv.create(t, "cup", "A", "B")
	resp, body = srv.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `bracket_loads_total{result="ok",source="build"} 1`)
	assert.Contains(t, body, "bracket_sessions 1")
}

func TestMutationsRequireOrganizer(t *testing.T) {
	srv := newTestServer(t)
	body := `{"key":"cup","name":"Cup","entrants":["A","B"]}`

	resp, _ := srv.do(t, http.MethodPost, "/tournaments", "", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = srv.do(t, http.MethodPost, "/tournaments", "not-a-token", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	forged, err := middleware.NewToken("other-secret", "mallory", middleware.RoleOrganizer, time.Hour)
	require.NoError(t, err)
	resp, _ = srv.do(t, http.MethodPost, "/tournaments", forged, body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	expired, err := middleware.NewToken(testSecret, "alice", middleware.RoleOrganizer, -time.Minute)
	require.NoError(t, err)
	resp, _ = srv.do(t, http.MethodPost, "/tournaments", expired, body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = srv.do(t, http.MethodPost, "/tournaments", srv.viewer, body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = srv.do(t, http.MethodPost, "/tournaments", srv.organizer, body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "/tournaments/cup", resp.Header.Get("Location"))

	resp, _ = srv.do(t, http.MethodGet, "/tournaments/cup", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "reads are public")
}

func TestTournamentLifecycle(t *testing.T) {
	srv := newTestServer(t)
	srv.create(t, "cup", "A", "B", "C", "D")

	resp, body := srv.do(t, http.MethodGet, "/tournaments/cup", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view brackets.View
	require.NoError(t, json.Unmarshal([]byte(body), &view))
	assert.Equal(t, "W1", view.CurrentID)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "not in the current match", body: `{"entrant_id":3}`, status: http.StatusConflict},
		{name: "zero id", body: `{"entrant_id":0}`, status: http.StatusBadRequest},
		{name: "unknown field", body: `{"entrant":1}`, status: http.StatusBadRequest},
		{name: "empty body", body: "", status: http.StatusBadRequest},
		{name: "winner", body: `{"entrant_id":1}`, status: http.StatusOK},
	}
	for _, tt := range tests {
		resp, _ := srv.do(t, http.MethodPost, "/tournaments/cup/winner", srv.organizer, tt.body)
		assert.Equal(t, tt.status, resp.StatusCode, tt.name)
	}

	resp, body = srv.do(t, http.MethodGet, "/tournaments/cup/export", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "winner: 1")

	resp, _ = srv.do(t, http.MethodPost, "/tournaments/cup/save", srv.organizer, `{"destination":"cup.yaml"}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = srv.do(t, http.MethodPost, "/tournaments/cup/save", srv.organizer, `{"destination":"cup.txt"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = srv.do(t, http.MethodPost, "/tournaments/copy/load", srv.organizer, `{"source":"cup.yaml"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal([]byte(body), &view))
	assert.Equal(t, "W2", view.CurrentID)

	resp, body = srv.do(t, http.MethodPost, "/tournaments/cup/reset", srv.organizer, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal([]byte(body), &view))
	assert.Equal(t, "W1", view.CurrentID)

	resp, body = srv.do(t, http.MethodGet, "/tournaments", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"key": "copy"`)
	assert.Contains(t, body, `"key": "cup"`)

	resp, _ = srv.do(t, http.MethodDelete, "/tournaments/copy", srv.organizer, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = srv.do(t, http.MethodGet, "/tournaments/copy", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = srv.do(t, http.MethodDelete, "/tournaments/cup?purge=maybe", srv.organizer, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = srv.do(t, http.MethodDelete, "/tournaments/cup?purge=true", srv.organizer, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	srv.create(t, "again", "A", "B")
	resp, _ = srv.do(t, http.MethodPost, "/tournaments/again/load", srv.organizer, `{"source":"cup.yaml"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "purge removes the saved document")
}

func TestLoadAndImportErrors(t *testing.T) {
	srv := newTestServer(t)
	srv.create(t, "cup", "A", "B")

	resp, _ := srv.do(t, http.MethodPost, "/tournaments/cup/load", srv.organizer, `{"source":"missing.yaml"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = srv.do(t, http.MethodPut, "/tournaments/cup/document", srv.organizer, "tournament: [")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = srv.do(t, http.MethodPut, "/tournaments/cup/document?format=seed", srv.organizer, "Solo\nA\n")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = srv.do(t, http.MethodPut, "/tournaments/cup/document?format=xml", srv.organizer, "<x/>")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The failed loads left the original tournament in place.
	resp, body := srv.do(t, http.MethodGet, "/tournaments/cup", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"name": "Cup"`)

	resp, body = srv.do(t, http.MethodPut, "/tournaments/cup/document?format=seed", srv.organizer, "Uploaded\nA,B,C\n")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"name": "Uploaded"`)

	resp, _ = srv.do(t, http.MethodPost, "/tournaments/bad%20key/load", srv.organizer, `{"source":"x.yaml"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSnapshotsNotConfigured(t *testing.T) {
	srv := newTestServer(t)
	srv.create(t, "cup", "A", "B")

	resp, _ := srv.do(t, http.MethodGet, "/tournaments/snapshots", "", "")
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)

	resp, _ = srv.do(t, http.MethodPost, "/tournaments", srv.organizer, `{"key":"snapshots","name":"Cup","entrants":["A","B"]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = srv.do(t, http.MethodPost, "/tournaments/cup/restore", srv.organizer, "")
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestWebSocketUpdates(t *testing.T) {
	srv := newTestServer(t)
	srv.create(t, "cup", "A", "B", "C", "D")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/tournaments/cup"
	_, resp, err := websocket.DefaultDialer.Dial(strings.Replace(wsURL, "/cup", "/nope", 1), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() brackets.BracketUpdate {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg struct {
			Type    string                 `json:"type"`
			Payload brackets.BracketUpdate `json:"payload"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, brackets.MessageBracketUpdated, msg.Type)
		return msg.Payload
	}

	initial := read()
	assert.Equal(t, brackets.EventLoaded, initial.Event.Kind)
	require.NotNil(t, initial.Bracket)
	assert.Equal(t, "W1", initial.Bracket.CurrentID)

	require.Eventually(t, func() bool { return srv.hub.RoomSize("cup") == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, _ = srv.do(t, http.MethodPost, "/tournaments/cup/winner", srv.organizer, `{"entrant_id":2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	update := read()
	assert.Equal(t, brackets.EventMatchDecided, update.Event.Kind)
	assert.Equal(t, "W1", update.Event.MatchID)
	assert.Equal(t, 2, update.Event.WinnerID)
	require.NotNil(t, update.Bracket)
	assert.Equal(t, "W2", update.Bracket.CurrentID)

	resp, _ = srv.do(t, http.MethodPost, "/tournaments/cup/reset", srv.organizer, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, brackets.EventReset, read().Event.Kind)
}
