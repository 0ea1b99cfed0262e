// internal/models/role.go
package models

// Role is a workspace membership role. The set is closed: adding a role means
// updating authz.DefaultCapabilities, which switches exhaustively over it.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleDirector Role = "director" // workspace admin
	RoleManager  Role = "manager"  // project-level lead
	RoleMember   Role = "member"
	RoleObserver Role = "observer" // read + comment only
)

func IsValidRole(r Role) bool {
	switch r {
	case RoleOwner, RoleDirector, RoleManager, RoleMember, RoleObserver:
		return true
	}
	return false
}

// IsAdmin reports whether r carries workspace-wide administrative authority.
func (r Role) IsAdmin() bool {
	return r == RoleOwner || r == RoleDirector
}

// Capability is a named permission string gating one class of mutation.
// The catalog of known capabilities lives in package authz.
type Capability string

const (
	CapManageWorkspace  Capability = "MANAGE_WORKSPACE"
	CapManageMembers    Capability = "MANAGE_MEMBERS"
	CapManageProjects   Capability = "MANAGE_PROJECTS"
	CapManageReporting  Capability = "MANAGE_REPORTING"
	CapCreateTasks      Capability = "CREATE_TASKS"
	CapEditAnyTask      Capability = "EDIT_ANY_TASK"
	CapEditOwnTasks     Capability = "EDIT_OWN_TASKS"
	CapDeleteTasks      Capability = "DELETE_TASKS"
	CapApproveReviews   Capability = "APPROVE_REVIEWS"
	CapViewTasks        Capability = "VIEW_TASKS"
	CapComment          Capability = "COMMENT"
	CapSubmitReports    Capability = "SUBMIT_REPORTS"
	CapViewTeamReports  Capability = "VIEW_TEAM_REPORTS"
	CapRunAnalysis      Capability = "RUN_ANALYSIS"
)
