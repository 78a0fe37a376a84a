package types

import "time"

// ProjectRole is a crew member's role within a single production project.
type ProjectRole string

const (
	ProjectRoleNone       ProjectRole = "NONE"
	ProjectRoleCrew       ProjectRole = "CREW"
	ProjectRoleSupervisor ProjectRole = "SUPERVISOR"
	ProjectRoleProducer   ProjectRole = "PRODUCER"
)

func (r ProjectRole) IsValid() bool {
	switch r {
	case ProjectRoleCrew, ProjectRoleSupervisor, ProjectRoleProducer:
		return true
	default:
		return false
	}
}

// roleRank orders roles for minimum-role checks. Higher ranks inherit the
// permissions of lower ones.
var roleRank = map[ProjectRole]int{
	ProjectRoleNone:       0,
	ProjectRoleCrew:       1,
	ProjectRoleSupervisor: 2,
	ProjectRoleProducer:   3,
}

// IsAuthorizedFor reports whether r meets or exceeds the required role.
func (r ProjectRole) IsAuthorizedFor(required ProjectRole) bool {
	return roleRank[r] >= roleRank[required]
}

// CanApprove reports whether the role may adjudicate entries: approve,
// reject, complete rentals and mark entries reimbursed. The store re-checks
// this independently of anything a client advertises.
func (r ProjectRole) CanApprove() bool {
	return r.IsAuthorizedFor(ProjectRoleSupervisor)
}

// ProjectMembership ties a user to a project with a role. Loaded by the
// rbac middleware for every project-scoped request.
type ProjectMembership struct {
	ID        string      `json:"id"`
	ProjectID string      `json:"projectId"`
	UserID    string      `json:"userId"`
	Role      ProjectRole `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}
