package collaboration

import (
	sharederrors "github.com/eventsync/server/internal/shared/errors"
)

var newErr = sharederrors.New

// Domain errors for collaboration module. Codes are stable and part of the API.
var (
	// Validation errors
	ErrInvalidRequest        = newErr(sharederrors.KindValidation, "invalid_request", "invalid request")
	ErrInvalidEnrollmentNo   = newErr(sharederrors.KindValidation, "invalid_enrollment_no", "enrollment number has an invalid format")
	ErrMissingSubmissionLink = newErr(sharederrors.KindValidation, "missing_submission_link", "submission link is required")
	ErrInvalidPermission     = newErr(sharederrors.KindValidation, "invalid_permission", "unknown permission")
	ErrInvalidPriority       = newErr(sharederrors.KindValidation, "invalid_priority", "priority must be low, medium or high")
	ErrInvalidDecision       = newErr(sharederrors.KindValidation, "invalid_decision", "decision must be approved, rejected or needs_revision")
	ErrEmptyAssignees        = newErr(sharederrors.KindValidation, "empty_assignees", "a task needs at least one assignee")
	ErrInvalidEventConfig    = newErr(sharederrors.KindValidation, "invalid_event_config", "event team size configuration is invalid")

	// Team errors
	ErrTeamNotFound              = newErr(sharederrors.KindNotFound, "team_not_found", "team not found")
	ErrTeamCancelled             = newErr(sharederrors.KindConflict, "team_cancelled", "team has been cancelled")
	ErrRegistrationClosed        = newErr(sharederrors.KindConflict, "registration_closed", "registration for this event is closed")
	ErrAlreadyRegisteredForEvent = newErr(sharederrors.KindConflict, "already_registered_for_event", "student already belongs to a team for this event")
	ErrConcurrentModification    = newErr(sharederrors.KindConflict, "concurrent_modification", "team was modified concurrently")
	ErrEventNotFound             = newErr(sharederrors.KindNotFound, "event_not_found", "event not found")

	// Member errors
	ErrMemberNotFound     = newErr(sharederrors.KindNotFound, "member_not_found", "member not found")
	ErrStudentNotFound    = newErr(sharederrors.KindNotFound, "student_not_found", "student not found")
	ErrDuplicateMember    = newErr(sharederrors.KindConflict, "duplicate_member", "student is already a member")
	ErrTeamFull           = newErr(sharederrors.KindConflict, "team_full", "team is full")
	ErrBelowMinimumSize   = newErr(sharederrors.KindConflict, "below_minimum_size", "team would fall below its minimum size")
	ErrCannotRemoveLeader = newErr(sharederrors.KindConflict, "cannot_remove_leader", "the team leader cannot be removed")
	ErrNotEligible        = newErr(sharederrors.KindConflict, "not_eligible", "student is not eligible for this event")

	// Permission errors
	ErrInsufficientPermission = newErr(sharederrors.KindPermission, "insufficient_permission", "insufficient permission")
	ErrOnlyLeaderCanCancel    = newErr(sharederrors.KindPermission, "only_leader_can_cancel", "only the team leader can cancel the team")
	ErrNotAssignee            = newErr(sharederrors.KindPermission, "not_assignee", "actor is not assigned to this task")

	// Invitation errors
	ErrInvitationNotFound         = newErr(sharederrors.KindNotFound, "invitation_not_found", "invitation not found")
	ErrInvitationExpired          = newErr(sharederrors.KindConflict, "invitation_expired", "invitation has expired")
	ErrInvitationAlreadyProcessed = newErr(sharederrors.KindConflict, "invitation_already_processed", "invitation has already been processed")
	ErrInvitationAlreadyPending   = newErr(sharederrors.KindConflict, "invitation_already_pending", "an invitation is already pending for this student")
	ErrInvitationNotForYou        = newErr(sharederrors.KindPermission, "invitation_not_for_you", "invitation is not for you")

	// Task errors
	ErrTaskNotFound          = newErr(sharederrors.KindNotFound, "task_not_found", "task not found")
	ErrAssigneeNotMember     = newErr(sharederrors.KindValidation, "assignee_not_member", "every assignee must be a team member")
	ErrInvalidTaskTransition = newErr(sharederrors.KindConflict, "invalid_task_transition", "task cannot make this transition")
	ErrNotSubmitted          = newErr(sharederrors.KindConflict, "not_submitted", "task is not submitted")

	// External service errors
	ErrEligibilityUnavailable = newErr(sharederrors.KindExternalService, "eligibility_unavailable", "eligibility service is unavailable")
	ErrDirectoryUnavailable   = newErr(sharederrors.KindExternalService, "directory_unavailable", "student directory is unavailable")
	ErrEventConfigUnavailable = newErr(sharederrors.KindExternalService, "event_config_unavailable", "event configuration service is unavailable")
)
