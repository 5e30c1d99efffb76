package campus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventsync/server/internal/port/outbound"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestEligibilityAdapter(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/students/21CS00001/eligibility", r.URL.Path)
		assert.Equal(t, "hackathon 2026", r.URL.Query().Get("event_id"))
		assert.Equal(t, "secret", r.Header.Get(apiKeyHeader))
		writeJSON(w, map[string]interface{}{"eligible": true})
	})
	adapter := NewEligibilityAdapter(NewClient("eligibility", srv.URL+"/", "secret", srv.Client(), BreakerConfig{}))

	ok, err := adapter.CheckEligibility(context.Background(), "21CS00001", "hackathon 2026")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDirectoryAdapter(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/students/21CS00009" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]string{"name": "Asha Rao", "email": "asha@campus.edu", "department": "CSE"})
	})
	adapter := NewDirectoryAdapter(NewClient("directory", srv.URL, "", srv.Client(), BreakerConfig{}))

	profile, err := adapter.LookupStudent(context.Background(), "21CS00001")
	require.NoError(t, err)
	assert.Equal(t, &outbound.StudentProfile{EnrollmentNo: "21CS00001", Name: "Asha Rao", Email: "asha@campus.edu", Department: "CSE"}, profile)

	_, err = adapter.LookupStudent(context.Background(), "21CS00009")
	assert.ErrorIs(t, err, outbound.ErrRecordNotFound)
}

func TestEventConfigAdapter(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events/hackathon/team-config", r.URL.Path)
		writeJSON(w, map[string]interface{}{
			"min_size":          2,
			"max_size":          4,
			"registration_open": true,
		})
	})
	adapter := NewEventConfigAdapter(NewClient("event-config", srv.URL, "", srv.Client(), BreakerConfig{}))

	cfg, err := adapter.GetEventTeamConfig(context.Background(), "hackathon")
	require.NoError(t, err)
	assert.Equal(t, "hackathon", cfg.EventID)
	assert.Equal(t, 2, cfg.MinSize)
	assert.Equal(t, 4, cfg.MaxSize)
	assert.True(t, cfg.RegistrationOpen)
	assert.False(t, cfg.AllowMultipleTeamRegistrations)
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	client := NewClient("eligibility", srv.URL, "", srv.Client(), BreakerConfig{FailureThreshold: 2, OpenTimeout: time.Minute})
	adapter := NewEligibilityAdapter(client)

	for i := 0; i < 2; i++ {
		_, err := adapter.CheckEligibility(context.Background(), "21CS00001", "e")
		assert.ErrorContains(t, err, "unexpected status 502")
	}
	assert.Equal(t, gobreaker.StateOpen, client.State())

	_, err := adapter.CheckEligibility(context.Background(), "21CS00001", "e")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_NotFoundKeepsBreakerClosed(t *testing.T) {
	srv := newServer(t, http.NotFound)
	client := NewClient("directory", srv.URL, "", srv.Client(), BreakerConfig{FailureThreshold: 1})
	adapter := NewDirectoryAdapter(client)

	for i := 0; i < 3; i++ {
		_, err := adapter.LookupStudent(context.Background(), "21CS00001")
		assert.ErrorIs(t, err, outbound.ErrRecordNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, client.State())
}

func TestClient_CancelledCallsKeepBreakerClosed(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(100 * time.Millisecond):
		}
		writeJSON(w, map[string]interface{}{"eligible": true})
	})
	client := NewClient("eligibility", srv.URL, "", srv.Client(), BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Minute})
	adapter := NewEligibilityAdapter(client)

	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(10*time.Millisecond, cancel)
		_, err := adapter.CheckEligibility(ctx, "21CS00001", "e")
		assert.ErrorIs(t, err, context.Canceled)
		cancel()
	}
	assert.Equal(t, gobreaker.StateClosed, client.State())

	ok, err := adapter.CheckEligibility(context.Background(), "21CS00001", "e")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClient_MalformedBody(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	})
	adapter := NewEventConfigAdapter(NewClient("event-config", srv.URL, "", srv.Client(), BreakerConfig{}))

	_, err := adapter.GetEventTeamConfig(context.Background(), "hackathon")
	assert.ErrorContains(t, err, "decode response")
}
