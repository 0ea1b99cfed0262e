// internal/services/workspace_service.go
package services

import (
	"context"
	"strings"

	"taskhub/internal/apperr"
	"taskhub/internal/authz"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

type WorkspaceService interface {
	Create(ctx context.Context, ownerID int64, name string) (*models.Workspace, error)
	GetByID(ctx context.Context, id int64) (*models.Workspace, error)
	ListForUser(ctx context.Context, userID int64) ([]models.Workspace, error)

	AddMember(ctx context.Context, actorID, workspaceID, userID int64, role models.Role) error
	UpdateMemberRole(ctx context.Context, actorID, workspaceID, userID int64, role models.Role) error
	RemoveMember(ctx context.Context, actorID, workspaceID, userID int64) error
	ListMembers(ctx context.Context, actorID, workspaceID int64) ([]models.Membership, error)
}

type workspaceService struct {
	workspaces repositories.WorkspaceRepository
	members    repositories.MembershipRepository
	resolver   *authz.Resolver
}

func NewWorkspaceService(
	workspaces repositories.WorkspaceRepository,
	members repositories.MembershipRepository,
	resolver *authz.Resolver,
) WorkspaceService {
	return &workspaceService{workspaces: workspaces, members: members, resolver: resolver}
}

func (s *workspaceService) Create(ctx context.Context, ownerID int64, name string) (*models.Workspace, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Validation("workspace name is required")
	}
	w := &models.Workspace{Name: name, OwnerID: ownerID}
	if err := s.workspaces.Store(ctx, w); err != nil {
		return nil, err
	}
	// the creator joins as owner
	m := &models.Membership{UserID: ownerID, WorkspaceID: w.ID, Role: models.RoleOwner}
	if err := s.members.Store(ctx, m); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *workspaceService) GetByID(ctx context.Context, id int64) (*models.Workspace, error) {
	return s.workspaces.FindByID(ctx, id)
}

func (s *workspaceService) ListForUser(ctx context.Context, userID int64) ([]models.Workspace, error) {
	return s.workspaces.ListForUser(ctx, userID)
}

func (s *workspaceService) requireManageMembers(ctx context.Context, actorID, workspaceID int64) error {
	ok, err := s.resolver.Has(ctx, actorID, workspaceID, models.CapManageMembers)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden("user %d may not manage members of workspace %d", actorID, workspaceID)
	}
	return nil
}

func (s *workspaceService) AddMember(ctx context.Context, actorID, workspaceID, userID int64, role models.Role) error {
	if err := s.requireManageMembers(ctx, actorID, workspaceID); err != nil {
		return err
	}
	if !models.IsValidRole(role) {
		return apperr.Validation("unknown role %q", role)
	}
	if role == models.RoleOwner {
		return apperr.Validation("owner role is assigned at workspace creation only")
	}
	existing, err := s.members.Find(ctx, userID, workspaceID)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperr.Validation("user %d is already a member", userID)
	}
	return s.members.Store(ctx, &models.Membership{UserID: userID, WorkspaceID: workspaceID, Role: role})
}

func (s *workspaceService) UpdateMemberRole(ctx context.Context, actorID, workspaceID, userID int64, role models.Role) error {
	if err := s.requireManageMembers(ctx, actorID, workspaceID); err != nil {
		return err
	}
	if !models.IsValidRole(role) || role == models.RoleOwner {
		return apperr.Validation("invalid role %q", role)
	}
	target, err := s.members.Find(ctx, userID, workspaceID)
	if err != nil {
		return err
	}
	if target == nil {
		return apperr.NotFound("membership")
	}
	if target.Role == models.RoleOwner {
		return apperr.Validation("the owner's role cannot be changed")
	}
	if err := s.members.UpdateRole(ctx, userID, workspaceID, role); err != nil {
		return err
	}
	s.resolver.Invalidate(userID, workspaceID)
	return nil
}

func (s *workspaceService) RemoveMember(ctx context.Context, actorID, workspaceID, userID int64) error {
	if err := s.requireManageMembers(ctx, actorID, workspaceID); err != nil {
		return err
	}
	target, err := s.members.Find(ctx, userID, workspaceID)
	if err != nil {
		return err
	}
	if target == nil {
		return apperr.NotFound("membership")
	}
	if target.Role == models.RoleOwner {
		return apperr.Validation("the owner cannot be removed")
	}
	if err := s.members.Delete(ctx, userID, workspaceID); err != nil {
		return err
	}
	s.resolver.Invalidate(userID, workspaceID)
	return nil
}

func (s *workspaceService) ListMembers(ctx context.Context, actorID, workspaceID int64) ([]models.Membership, error) {
	res, err := s.resolver.Resolve(ctx, actorID, workspaceID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, apperr.Forbidden("user %d is not a member of workspace %d", actorID, workspaceID)
	}
	return s.members.ListByWorkspace(ctx, workspaceID)
}
