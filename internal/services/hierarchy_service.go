// internal/services/hierarchy_service.go
package services

import (
	"context"

	"taskhub/internal/apperr"
	"taskhub/internal/authz"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

// HierarchyService maintains the per-project manager→subordinate tree and
// answers transitive-closure questions over it.
type HierarchyService interface {
	// Subordinates returns the transitive closure of managerID's subordinates
	// in the project, not just direct reports.
	Subordinates(ctx context.Context, managerID, projectID int64) (map[int64]bool, error)
	IsSubordinate(ctx context.Context, managerID, userID, projectID int64) (bool, error)

	// SetReportingRelation replaces each subordinate's manager edge with
	// managerID (nil clears it). Whole-or-nothing: authorization and cycle
	// validation run for the entire batch before any edge is written.
	SetReportingRelation(ctx context.Context, operatorID, projectID int64, subordinateIDs []int64, managerID *int64) error
}

type hierarchyService struct {
	edges    repositories.ReportingEdgeRepository
	projects repositories.ProjectRepository
	resolver *authz.Resolver
}

func NewHierarchyService(
	edges repositories.ReportingEdgeRepository,
	projects repositories.ProjectRepository,
	resolver *authz.Resolver,
) HierarchyService {
	return &hierarchyService{edges: edges, projects: projects, resolver: resolver}
}

func (s *hierarchyService) Subordinates(ctx context.Context, managerID, projectID int64) (map[int64]bool, error) {
	edges, err := s.edges.ListEdges(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return closure(edges, managerID), nil
}

func (s *hierarchyService) IsSubordinate(ctx context.Context, managerID, userID, projectID int64) (bool, error) {
	subs, err := s.Subordinates(ctx, managerID, projectID)
	if err != nil {
		return false, err
	}
	return subs[userID], nil
}

// closure walks manager→subordinate edges breadth-first. The visited set makes
// traversal terminate even on a (corrupt) cyclic edge set; cycles are rejected
// at write time, this is just read-side defense.
func closure(edges []models.ReportingEdge, rootID int64) map[int64]bool {
	reports := make(map[int64][]int64, len(edges))
	for _, e := range edges {
		reports[e.ManagerID] = append(reports[e.ManagerID], e.SubordinateID)
	}

	subs := make(map[int64]bool)
	queue := []int64{rootID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, sub := range reports[cur] {
			if sub == rootID || subs[sub] {
				continue
			}
			subs[sub] = true
			queue = append(queue, sub)
		}
	}
	return subs
}

func (s *hierarchyService) SetReportingRelation(ctx context.Context, operatorID, projectID int64, subordinateIDs []int64, managerID *int64) error {
	if len(subordinateIDs) == 0 {
		return apperr.Validation("subordinate list is empty")
	}

	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return err
	}
	if project == nil {
		return apperr.NotFound("project")
	}

	// One authorization check for the whole batch, before any edge is touched.
	res, err := s.resolver.Resolve(ctx, operatorID, project.WorkspaceID)
	if err != nil {
		return err
	}
	if res == nil || (!res.Role.IsAdmin() && !project.IsLeader(operatorID)) {
		return apperr.Forbidden("user %d may not manage reporting in project %d", operatorID, projectID)
	}

	// Validate every edge up front so a bad entry never leaves the batch
	// half-applied.
	if managerID != nil {
		edges, err := s.edges.ListEdges(ctx, projectID)
		if err != nil {
			return err
		}
		for _, subID := range subordinateIDs {
			if subID == *managerID {
				return apperr.Validation("user %d cannot report to themselves", subID)
			}
			// Assigning sub → manager creates a cycle iff manager already
			// reports (transitively) to sub.
			if closure(edges, subID)[*managerID] {
				return apperr.Validation("setting manager %d for user %d would create a reporting cycle", *managerID, subID)
			}
		}
	}

	for _, subID := range subordinateIDs {
		if err := s.edges.Upsert(ctx, projectID, subID, managerID); err != nil {
			return err
		}
	}
	return nil
}
