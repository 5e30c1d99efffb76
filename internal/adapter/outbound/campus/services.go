package campus

import (
	"context"
	"net/url"

	"github.com/eventsync/server/internal/port/outbound"
)

// ========== Eligibility ==========

// EligibilityAdapter implements EligibilityPort.
type EligibilityAdapter struct {
	client *Client
}

// NewEligibilityAdapter creates a new eligibility adapter.
func NewEligibilityAdapter(client *Client) *EligibilityAdapter {
	return &EligibilityAdapter{client: client}
}

type eligibilityResponse struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

func (a *EligibilityAdapter) CheckEligibility(ctx context.Context, enrollmentNo, eventID string) (bool, error) {
	var resp eligibilityResponse
	path := "/students/" + url.PathEscape(enrollmentNo) + "/eligibility?event_id=" + url.QueryEscape(eventID)
	if err := a.client.getJSON(ctx, path, &resp); err != nil {
		return false, err
	}
	return resp.Eligible, nil
}

// ========== Directory ==========

// DirectoryAdapter implements StudentDirectoryPort.
type DirectoryAdapter struct {
	client *Client
}

// NewDirectoryAdapter creates a new student directory adapter.
func NewDirectoryAdapter(client *Client) *DirectoryAdapter {
	return &DirectoryAdapter{client: client}
}

func (a *DirectoryAdapter) LookupStudent(ctx context.Context, enrollmentNo string) (*outbound.StudentProfile, error) {
	var profile outbound.StudentProfile
	if err := a.client.getJSON(ctx, "/students/"+url.PathEscape(enrollmentNo), &profile); err != nil {
		return nil, err
	}
	if profile.EnrollmentNo == "" {
		profile.EnrollmentNo = enrollmentNo
	}
	return &profile, nil
}

// ========== Event Config ==========

// EventConfigAdapter implements EventConfigPort.
type EventConfigAdapter struct {
	client *Client
}

// NewEventConfigAdapter creates a new event config adapter.
func NewEventConfigAdapter(client *Client) *EventConfigAdapter {
	return &EventConfigAdapter{client: client}
}

func (a *EventConfigAdapter) GetEventTeamConfig(ctx context.Context, eventID string) (*outbound.EventTeamConfig, error) {
	var cfg outbound.EventTeamConfig
	if err := a.client.getJSON(ctx, "/events/"+url.PathEscape(eventID)+"/team-config", &cfg); err != nil {
		return nil, err
	}
	if cfg.EventID == "" {
		cfg.EventID = eventID
	}
	return &cfg, nil
}

// Compile-time interface checks
var (
	_ outbound.EligibilityPort      = (*EligibilityAdapter)(nil)
	_ outbound.StudentDirectoryPort = (*DirectoryAdapter)(nil)
	_ outbound.EventConfigPort      = (*EventConfigAdapter)(nil)
)
