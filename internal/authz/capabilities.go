package authz

import "taskhub/internal/models"

// catalog is the full enumerated capability set. resolvePermissions hands the
// whole catalog to owners; updateUserPermissions rejects strings outside it.
var catalog = []models.Capability{
	models.CapManageWorkspace,
	models.CapManageMembers,
	models.CapManageProjects,
	models.CapManageReporting,
	models.CapCreateTasks,
	models.CapEditAnyTask,
	models.CapEditOwnTasks,
	models.CapDeleteTasks,
	models.CapApproveReviews,
	models.CapViewTasks,
	models.CapComment,
	models.CapSubmitReports,
	models.CapViewTeamReports,
	models.CapRunAnalysis,
}

// Catalog returns a copy of the full capability catalog.
func Catalog() []models.Capability {
	out := make([]models.Capability, len(catalog))
	copy(out, catalog)
	return out
}

// KnownCapability reports whether c is in the catalog.
func KnownCapability(c models.Capability) bool {
	for _, k := range catalog {
		if k == c {
			return true
		}
	}
	return false
}

// DefaultCapabilities maps a role to its default capability set. The switch is
// exhaustive over models.Role; an unknown role gets nothing.
func DefaultCapabilities(role models.Role) []models.Capability {
	switch role {
	case models.RoleOwner:
		return Catalog()
	case models.RoleDirector:
		// broad management minus workspace dissolution/settings
		return []models.Capability{
			models.CapManageMembers,
			models.CapManageProjects,
			models.CapManageReporting,
			models.CapCreateTasks,
			models.CapEditAnyTask,
			models.CapDeleteTasks,
			models.CapApproveReviews,
			models.CapViewTasks,
			models.CapComment,
			models.CapSubmitReports,
			models.CapViewTeamReports,
			models.CapRunAnalysis,
		}
	case models.RoleManager:
		return []models.Capability{
			models.CapManageProjects,
			models.CapCreateTasks,
			models.CapEditOwnTasks,
			models.CapApproveReviews,
			models.CapViewTasks,
			models.CapComment,
			models.CapSubmitReports,
			models.CapViewTeamReports,
		}
	case models.RoleMember:
		return []models.Capability{
			models.CapCreateTasks,
			models.CapEditOwnTasks,
			models.CapViewTasks,
			models.CapComment,
			models.CapSubmitReports,
		}
	case models.RoleObserver:
		return []models.Capability{
			models.CapViewTasks,
			models.CapComment,
		}
	}
	return nil
}
