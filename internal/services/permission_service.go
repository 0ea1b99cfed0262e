// internal/services/permission_service.go
package services

import (
	"context"

	"taskhub/internal/apperr"
	"taskhub/internal/authz"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

// PermissionView is the caller-facing shape of a resolved permission set.
type PermissionView struct {
	Role        models.Role         `json:"role"`
	Permissions []models.Capability `json:"permissions"`
}

type PermissionService interface {
	MyPermissions(ctx context.Context, userID, workspaceID int64) (*PermissionView, error)
	// UpdateUserPermissions replaces the target member's override set.
	// Owner-only; the owner's own permissions are not editable.
	UpdateUserPermissions(ctx context.Context, actorID, targetID, workspaceID int64, perms []models.Capability) error
}

type permissionService struct {
	members  repositories.MembershipRepository
	resolver *authz.Resolver
}

func NewPermissionService(members repositories.MembershipRepository, resolver *authz.Resolver) PermissionService {
	return &permissionService{members: members, resolver: resolver}
}

func (s *permissionService) MyPermissions(ctx context.Context, userID, workspaceID int64) (*PermissionView, error) {
	res, err := s.resolver.Resolve(ctx, userID, workspaceID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, apperr.Forbidden("user %d is not a member of workspace %d", userID, workspaceID)
	}
	view := &PermissionView{Role: res.Role}
	// report in catalog order so the output is stable
	for _, c := range authz.Catalog() {
		if res.Permissions[c] {
			view.Permissions = append(view.Permissions, c)
		}
	}
	return view, nil
}

func (s *permissionService) UpdateUserPermissions(ctx context.Context, actorID, targetID, workspaceID int64, perms []models.Capability) error {
	actor, err := s.resolver.Resolve(ctx, actorID, workspaceID)
	if err != nil {
		return err
	}
	if actor == nil || actor.Role != models.RoleOwner {
		return apperr.Forbidden("only the workspace owner may edit member permissions")
	}

	target, err := s.members.Find(ctx, targetID, workspaceID)
	if err != nil {
		return err
	}
	if target == nil {
		return apperr.NotFound("membership")
	}
	if target.Role == models.RoleOwner {
		return apperr.Validation("owner permissions are not editable")
	}
	for _, c := range perms {
		if !authz.KnownCapability(c) {
			return apperr.Validation("unknown capability %q", c)
		}
	}

	if err := s.members.UpdatePermissions(ctx, targetID, workspaceID, perms); err != nil {
		return err
	}
	s.resolver.Invalidate(targetID, workspaceID)
	return nil
}
