// internal/services/project_service.go
package services

import (
	"context"
	"strings"

	"taskhub/internal/apperr"
	"taskhub/internal/authz"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

type ProjectService interface {
	Create(ctx context.Context, actorID int64, p *models.Project) (*models.Project, error)
	GetByID(ctx context.Context, id int64) (*models.Project, error)
	ListByWorkspace(ctx context.Context, actorID, workspaceID int64) ([]models.Project, error)
	SetLeader(ctx context.Context, actorID, projectID int64, leaderID *int64) error
}

type projectService struct {
	projects repositories.ProjectRepository
	members  repositories.MembershipRepository
	resolver *authz.Resolver
}

func NewProjectService(
	projects repositories.ProjectRepository,
	members repositories.MembershipRepository,
	resolver *authz.Resolver,
) ProjectService {
	return &projectService{projects: projects, members: members, resolver: resolver}
}

func (s *projectService) Create(ctx context.Context, actorID int64, p *models.Project) (*models.Project, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, apperr.Validation("project name is required")
	}
	ok, err := s.resolver.Has(ctx, actorID, p.WorkspaceID, models.CapManageProjects)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Forbidden("user %d may not create projects in workspace %d", actorID, p.WorkspaceID)
	}
	if err := s.projects.Store(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *projectService) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	return s.projects.FindByID(ctx, id)
}

func (s *projectService) ListByWorkspace(ctx context.Context, actorID, workspaceID int64) ([]models.Project, error) {
	res, err := s.resolver.Resolve(ctx, actorID, workspaceID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, apperr.Forbidden("user %d is not a member of workspace %d", actorID, workspaceID)
	}
	return s.projects.FindByWorkspace(ctx, workspaceID)
}

func (s *projectService) SetLeader(ctx context.Context, actorID, projectID int64, leaderID *int64) error {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return err
	}
	if project == nil {
		return apperr.NotFound("project")
	}
	ok, err := s.resolver.Has(ctx, actorID, project.WorkspaceID, models.CapManageProjects)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden("user %d may not manage project %d", actorID, projectID)
	}
	if leaderID != nil {
		m, err := s.members.Find(ctx, *leaderID, project.WorkspaceID)
		if err != nil {
			return err
		}
		if m == nil {
			return apperr.Validation("leader %d is not a member of workspace %d", *leaderID, project.WorkspaceID)
		}
	}
	return s.projects.UpdateLeader(ctx, projectID, leaderID)
}
