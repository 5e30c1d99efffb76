package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/eventsync/server/internal/infra/events"
)

func TestNew_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("test", reg)

	m.RecordHTTPRequest("GET", "/api/v1/teams/:id", 200, 10*time.Millisecond)

	count, err := testutil.GatherAndCount(reg, "test_http_requests_total")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	// A second instance on a fresh registry must not panic on duplicate registration.
	assert.NotPanics(t, func() { New("test", prometheus.NewRegistry()) })
}

func TestRecordHTTPRequest(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	m.RecordHTTPRequest("POST", "/api/v1/teams", 201, time.Millisecond)
	m.RecordHTTPRequest("POST", "/api/v1/teams", 409, time.Millisecond)
	m.RecordHTTPRequest("POST", "/api/v1/teams", 422, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/teams", "2xx")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/teams", "4xx")))
}

func TestRecordSweep(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	m.RecordSweep(3, time.Millisecond, nil)
	m.RecordSweep(0, time.Millisecond, errors.New("db down"))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.InvitationsExpiredTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepErrorsTotal))
}

func TestEventCounter(t *testing.T) {
	m := New("test", prometheus.NewRegistry())
	bus := events.NewBus(nil)
	bus.Register(m.EventCounter())

	teamID := uuid.New()
	now := time.Now()
	bus.Publish(context.Background(), events.NewTeamCreatedEvent(teamID, "hackathon", "Rustaceans", "21CS00001", now))
	bus.Publish(context.Background(), events.NewMemberAddedEvent(teamID, "21CS00002", "21CS00001", nil, now))
	bus.Publish(context.Background(), events.NewMemberAddedEvent(teamID, "21CS00003", "21CS00001", nil, now))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublishedTotal.WithLabelValues(events.TeamCreatedType)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsPublishedTotal.WithLabelValues(events.MemberAddedType)))
}

func TestStatusCodeToString(t *testing.T) {
	tests := map[int]string{200: "2xx", 304: "3xx", 404: "4xx", 503: "5xx", 100: "unknown"}
	for code, want := range tests {
		assert.Equal(t, want, statusCodeToString(code))
	}
}
