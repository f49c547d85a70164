package endpoints

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"orderhub"
	"orderhub/internal/api/handler/response"
	"orderhub/internal/realtime"
	"orderhub/pkg"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTransport struct {
	mu     sync.Mutex
	frames [][]byte
	open   bool
}

func (r *recordingTransport) Send(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, data)
	return nil
}

func (r *recordingTransport) Ping() error { return nil }

func (r *recordingTransport) Close(int, string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open = false
	return nil
}

func (r *recordingTransport) Terminate() error { return r.Close(0, "") }

func (r *recordingTransport) IsOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open
}

func (r *recordingTransport) last(t *testing.T) map[string]any {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.frames)
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.frames[len(r.frames)-1], &out))
	return out
}

type stubLocations struct {
	loc pkg.DriverLocation
	err error
}

func (s stubLocations) LastLocation(string) (pkg.DriverLocation, error) {
	return s.loc, s.err
}

func newTestHub(t *testing.T) *realtime.Manager {
	t.Helper()
	hub := realtime.New(realtime.DefaultConfig(), zerolog.Nop())
	require.NoError(t, hub.Setup(t.Context()))
	t.Cleanup(hub.Shutdown)
	return hub
}

func devConfig() orderhub.AppConfig {
	return orderhub.AppConfig{Mode: "dev"}
}

func newTestRouter(hub *realtime.Manager, locations LocationReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	WebSocketHandler(r, hub, devConfig())
	EventHandler(r, hub, devConfig())
	DriverHandler(r, locations)
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPublish_NewOrderReachesDisplay(t *testing.T) {
	hub := newTestHub(t)
	display := &recordingTransport{open: true}
	require.NotZero(t, hub.Admit(display))
	r := newTestRouter(hub, nil)

	w := doJSON(r, http.MethodPost, "/api/v1/events/new_order", map[string]any{
		"order": map[string]any{"id": "o-1", "total": 12.5},
	})

	require.Equal(t, http.StatusAccepted, w.Code)
	var resp response.PublishResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, response.PublishResponse{Kind: "new_order", Delivered: 1}, resp)

	frame := display.last(t)
	assert.Equal(t, "new_order", frame["type"])
	assert.Equal(t, "o-1", frame["order"].(map[string]any)["id"])
}

func TestPublish_Errors(t *testing.T) {
	hub := newTestHub(t)
	r := newTestRouter(hub, nil)

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"unknown kind", "/api/v1/events/order_cancelled", map[string]any{}, http.StatusNotFound},
		{"missing order", "/api/v1/events/order_updated", map[string]any{}, http.StatusBadRequest},
		{"missing driver", "/api/v1/events/driver_location", map[string]any{"location": map[string]any{"lat": 1, "lng": 2}}, http.StatusBadRequest},
		{"latitude out of range", "/api/v1/events/driver_location", map[string]any{"driverId": "d-1", "location": map[string]any{"lat": 91, "lng": 2}}, http.StatusBadRequest},
		{"malformed body", "/api/v1/events/new_order", "not-an-object", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestPublish_RequiresServiceToken(t *testing.T) {
	hub := newTestHub(t)
	cfg := orderhub.AppConfig{Mode: "prod"}
	cfg.JWTConfig.Secret = "test-secret"

	gin.SetMode(gin.TestMode)
	r := gin.New()
	EventHandler(r, hub, cfg)

	w := doJSON(r, http.MethodPost, "/api/v1/events/new_order", map[string]any{"order": map[string]any{"id": "o-1"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := pkg.GenerateToken(7, "pos@cafe.test", "service", "test-secret", 5)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/new_order", bytes.NewBufferString(`{"order":{"id":"o-1"}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestStatsAndConnections(t *testing.T) {
	hub := newTestHub(t)
	require.NotZero(t, hub.Admit(&recordingTransport{open: true}))
	id := hub.Admit(&recordingTransport{open: true})
	hub.HandleMessage(id, []byte(`{"type":"subscribe","clientType":"kitchen"}`))
	r := newTestRouter(hub, nil)

	w := doJSON(r, http.MethodGet, "/api/v1/ws/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats realtime.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Connections)
	assert.Equal(t, 1, stats.Roles[realtime.RoleKitchen])
	assert.Equal(t, 1, stats.Roles[realtime.RoleDisplay])

	w = doJSON(r, http.MethodGet, "/api/v1/ws/connections", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var conns response.ConnectionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conns))
	assert.Equal(t, 2, conns.Total)
	assert.Len(t, conns.Connections, 2)
}

func TestHealth(t *testing.T) {
	hub := newTestHub(t)
	r := newTestRouter(hub, nil)

	w := doJSON(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	hub.Shutdown()
	w = doJSON(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDriverLocation(t *testing.T) {
	hub := newTestHub(t)
	known := pkg.DriverLocation{
		DriverID:  "d-1",
		Location:  realtime.Location{Lat: 48.85, Lng: 2.35},
		UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	tests := []struct {
		name      string
		locations LocationReader
		want      int
	}{
		{"known", stubLocations{loc: known}, http.StatusOK},
		{"unknown", stubLocations{err: redis.Nil}, http.StatusNotFound},
		{"redis disabled", stubLocations{err: pkg.ErrRedisDisabled}, http.StatusServiceUnavailable},
		{"no store", nil, http.StatusServiceUnavailable},
		{"redis failure", stubLocations{err: assert.AnError}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(hub, tt.locations)
			w := doJSON(r, http.MethodGet, "/api/v1/drivers/d-1/location", nil)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	r := newTestRouter(hub, stubLocations{loc: known})
	w := doJSON(r, http.MethodGet, "/api/v1/drivers/d-1/location", nil)
	var got pkg.DriverLocation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, known, got)
}
