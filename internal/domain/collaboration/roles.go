package collaboration

import (
	"strings"

	"github.com/eventsync/server/internal/model"
)

// Implicit role names.
const (
	LeaderRoleName = "Team Leader"
	MemberRoleName = "Team Member"
)

// EffectiveRole returns the explicit role of a member, else the implicit leader
// or member role. The result is computed on every read and never stored.
func EffectiveRole(team *model.Team, enrollmentNo string) model.TeamRoleAssignment {
	if role, ok := team.FindRole(enrollmentNo); ok {
		out := *role
		out.Permissions = append([]model.Permission(nil), role.Permissions...)
		return out
	}
	if team.IsLeader(enrollmentNo) {
		return model.TeamRoleAssignment{
			EnrollmentNo: enrollmentNo,
			Name:         LeaderRoleName,
			Description:  "Leads the team",
			Permissions:  model.AllPermissions(),
			Implicit:     true,
		}
	}
	return model.TeamRoleAssignment{
		EnrollmentNo: enrollmentNo,
		Name:         MemberRoleName,
		Permissions:  []model.Permission{},
		Implicit:     true,
	}
}

// HasCapability reports whether actor may exercise perm on the team.
// The leader holds every capability regardless of any explicit role.
func HasCapability(team *model.Team, actor string, perm model.Permission) bool {
	if team.IsLeader(actor) {
		return true
	}
	if !team.HasMember(actor) {
		return false
	}
	role, ok := team.FindRole(actor)
	return ok && role.Has(perm)
}

// ParsePermissions validates and de-duplicates permission tags.
func ParsePermissions(tags []string) ([]model.Permission, error) {
	out := make([]model.Permission, 0, len(tags))
	seen := make(map[model.Permission]bool, len(tags))
	for _, tag := range tags {
		p := model.Permission(strings.TrimSpace(strings.ToLower(tag)))
		if !p.IsValid() {
			return nil, ErrInvalidPermission
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}

func permissionStrings(perms []model.Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}
