package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventsync/server/internal/shared/config"
)

const testSecret = "app-test-secret"

// campusStub serves the eligibility, directory and event config endpoints.
func campusStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/students/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/eligibility") {
			_, _ = w.Write([]byte(`{"eligible":true}`))
			return
		}
		_, _ = w.Write([]byte(`{"name":"Test Student","department":"CSE"}`))
	})
	mux.HandleFunc("/events/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"min_size":2,"max_size":4,"registration_open":true}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(campusURL string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Mode: "release", AllowOrigins: []string{"*"}},
		Auth:   config.AuthConfig{JWTSecret: testSecret, Issuer: "campus-idp"},
		Log:    config.LogConfig{Level: "error", Format: "json", Output: "stdout"},
		Collaboration: config.CollaborationConfig{
			StorageDriver:        "memory",
			InvitationExpiry:     24 * time.Hour,
			InvitationSweep:      "@every 1h",
			ExternalCheckTimeout: 2 * time.Second,
		},
		Services: config.ServicesConfig{
			EligibilityURL: campusURL,
			DirectoryURL:   campusURL,
			EventConfigURL: campusURL,
			Timeout:        2 * time.Second,
		},
		Metrics: config.MetricsConfig{Enabled: true, Namespace: "eventsync"},
	}
}

func bearer(t *testing.T, sub string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		Issuer:    "campus-idp",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	application, err := New(testConfig(campusStub(t).URL))
	require.NoError(t, err)
	t.Cleanup(application.Stop)
	return application
}

func TestNew_RequiresJWTSecret(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.Auth.JWTSecret = ""
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNew_UnknownStorageDriver(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.Collaboration.StorageDriver = "sqlite"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestApp_Health(t *testing.T) {
	application := newTestApp(t)

	w := httptest.NewRecorder()
	application.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Contains(t, w.Body.String(), `"redis":"disabled"`)
}

func TestApp_CreateTeamEndToEnd(t *testing.T) {
	application := newTestApp(t)
	router := application.Router()

	t.Run("requires a token", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/teams", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	body, _ := json.Marshal(map[string]string{"event_id": "hackathon", "name": "Rustaceans"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/teams", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "21CS00001"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var team struct {
		LeaderID       string `json:"leader_id"`
		MembershipMode string `json:"membership_mode"`
		Members        []json.RawMessage
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &team))
	assert.Equal(t, "21CS00001", team.LeaderID)
	assert.Equal(t, "direct", team.MembershipMode)
	assert.Len(t, team.Members, 1)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	scrape := func() string {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		return w.Body.String()
	}
	assert.Eventually(t, func() bool {
		return strings.Contains(scrape(), `eventsync_collaboration_events_total{type="TeamCreated"} 1`)
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, scrape(), `eventsync_http_requests_total`)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	cfg := testConfig(campusStub(t).URL)
	cfg.Server.Address = "127.0.0.1:0"
	application, err := New(cfg)
	require.NoError(t, err)
	defer application.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
