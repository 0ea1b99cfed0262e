package authz

import (
	"context"
	"fmt"
	"sync"

	"taskhub/internal/models"
)

// MembershipSource supplies stored memberships. Implemented by
// repositories.MembershipRepository.
type MembershipSource interface {
	Find(ctx context.Context, userID, workspaceID int64) (*models.Membership, error)
}

// Resolution is the effective permission set of a (user, workspace) pair.
type Resolution struct {
	Role        models.Role
	Permissions map[models.Capability]bool
}

func (r *Resolution) Has(c models.Capability) bool {
	return r != nil && r.Permissions[c]
}

// Resolver is the single place "who can do what in this workspace" is derived.
// No other component re-derives owner status on its own. Resolutions are
// cached; any membership/role/override mutation must call Invalidate.
type Resolver struct {
	src MembershipSource

	mu    sync.RWMutex
	cache map[string]*Resolution
}

func NewResolver(src MembershipSource) *Resolver {
	return &Resolver{src: src, cache: make(map[string]*Resolution)}
}

func cacheKey(userID, workspaceID int64) string {
	return fmt.Sprintf("%d:%d", userID, workspaceID)
}

// Resolve returns the effective permissions of user in workspace, or a
// FORBIDDEN-free nil resolution error if the user is not a member. Owners get
// the full catalog regardless of any stored override set; other roles get the
// override set when present, otherwise the role defaults.
func (r *Resolver) Resolve(ctx context.Context, userID, workspaceID int64) (*Resolution, error) {
	key := cacheKey(userID, workspaceID)

	r.mu.RLock()
	if res, ok := r.cache[key]; ok {
		r.mu.RUnlock()
		return res, nil
	}
	r.mu.RUnlock()

	m, err := r.src.Find(ctx, userID, workspaceID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}

	var caps []models.Capability
	switch {
	case m.Role == models.RoleOwner:
		caps = Catalog()
	case len(m.Overrides) > 0:
		caps = m.Overrides
	default:
		caps = DefaultCapabilities(m.Role)
	}

	res := &Resolution{Role: m.Role, Permissions: make(map[models.Capability]bool, len(caps))}
	for _, c := range caps {
		res.Permissions[c] = true
	}

	r.mu.Lock()
	r.cache[key] = res
	r.mu.Unlock()
	return res, nil
}

// Has reports whether user holds cap in workspace. Non-members hold nothing.
func (r *Resolver) Has(ctx context.Context, userID, workspaceID int64, cap models.Capability) (bool, error) {
	res, err := r.Resolve(ctx, userID, workspaceID)
	if err != nil {
		return false, err
	}
	return res.Has(cap), nil
}

// Invalidate drops the cached resolution for one (user, workspace) pair. Must
// be called whenever that member's role or override set changes, or the member
// is removed.
func (r *Resolver) Invalidate(userID, workspaceID int64) {
	r.mu.Lock()
	delete(r.cache, cacheKey(userID, workspaceID))
	r.mu.Unlock()
}
