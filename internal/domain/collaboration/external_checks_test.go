package collaboration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eventsync/server/internal/adapter/outbound/campus"
	"github.com/eventsync/server/internal/model"
)

const unknownStudent = "21CS99999"

func TestAddMember_UnknownStudentsKeepEligibilityAvailable(t *testing.T) {
	ctx := context.Background()

	eligibilitySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(100 * time.Millisecond):
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"eligible":true}`))
	}))
	t.Cleanup(eligibilitySrv.Close)

	directorySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/"+unknownStudent) {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"Student","email":"s@campus.edu"}`))
	}))
	t.Cleanup(directorySrv.Close)

	eligibilityClient := campus.NewClient("eligibility", eligibilitySrv.URL, "", eligibilitySrv.Client(),
		campus.BreakerConfig{FailureThreshold: 2, OpenTimeout: time.Minute})
	directoryClient := campus.NewClient("directory", directorySrv.URL, "", directorySrv.Client(), campus.BreakerConfig{})

	f := newFixture(t)
	f.domain = NewDomain(
		f.store.Teams(),
		f.store.Invitations(),
		f.store,
		campus.NewEligibilityAdapter(eligibilityClient),
		campus.NewDirectoryAdapter(directoryClient),
		f.eventCfg,
		f.publisher,
		&Config{InvitationExpiry: 48 * time.Hour},
		zap.NewNop(),
	)
	f.domain.now = func() time.Time { return f.now }
	team := f.seedTeam(t, model.MembershipModeDirect, leader, member2)

	for i := 0; i < 5; i++ {
		_, err := f.domain.AddMember(ctx, team.ID, unknownStudent, leader)
		assert.ErrorIs(t, err, ErrStudentNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, eligibilityClient.State())

	res, err := f.domain.AddMember(ctx, team.ID, member3, leader)
	require.NoError(t, err)
	require.NotNil(t, res.Member)
	assert.Equal(t, member3, res.Member.EnrollmentNo)
}
