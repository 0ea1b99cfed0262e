package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/apperr"
	"taskhub/internal/models"
)

type fakeWorkspaceRepo struct {
	mu         sync.Mutex
	workspaces map[int64]*models.Workspace
	nextID     int64
}

func newFakeWorkspaceRepo() *fakeWorkspaceRepo {
	return &fakeWorkspaceRepo{workspaces: make(map[int64]*models.Workspace), nextID: 1}
}

func (r *fakeWorkspaceRepo) Store(ctx context.Context, w *models.Workspace) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w.ID = r.nextID
	r.nextID++
	cp := *w
	r.workspaces[w.ID] = &cp
	return nil
}

func (r *fakeWorkspaceRepo) FindByID(ctx context.Context, id int64) (*models.Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workspaces[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *fakeWorkspaceRepo) ListForUser(ctx context.Context, userID int64) ([]models.Workspace, error) {
	return nil, nil
}

func (r *fakeWorkspaceRepo) Update(ctx context.Context, w *models.Workspace) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.workspaces[w.ID] = &cp
	return nil
}

func workspaceFixture() (*fixture, WorkspaceService) {
	f := newFixture()
	return f, NewWorkspaceService(newFakeWorkspaceRepo(), f.members, f.resolver)
}

func TestCreateWorkspaceMakesCreatorOwner(t *testing.T) {
	f, svc := workspaceFixture()
	ctx := context.Background()

	w, err := svc.Create(ctx, 7, "acme")
	require.NoError(t, err)

	m, err := f.members.Find(ctx, 7, w.ID)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, models.RoleOwner, m.Role)
}

func TestCreateWorkspaceRequiresName(t *testing.T) {
	_, svc := workspaceFixture()
	_, err := svc.Create(context.Background(), 7, "  ")
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestAddMemberGatedOnCapability(t *testing.T) {
	f, svc := workspaceFixture()
	f.addMember(1, 1, models.RoleOwner)
	f.addMember(2, 1, models.RoleMember)
	ctx := context.Background()

	err := svc.AddMember(ctx, 2, 1, 3, models.RoleMember)
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	require.NoError(t, svc.AddMember(ctx, 1, 1, 3, models.RoleMember))

	// second add of the same user
	err = svc.AddMember(ctx, 1, 1, 3, models.RoleMember)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestAddMemberNeverGrantsOwner(t *testing.T) {
	f, svc := workspaceFixture()
	f.addMember(1, 1, models.RoleOwner)

	err := svc.AddMember(context.Background(), 1, 1, 3, models.RoleOwner)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestUpdateMemberRoleInvalidatesCache(t *testing.T) {
	f, svc := workspaceFixture()
	f.addMember(1, 1, models.RoleOwner)
	f.addMember(2, 1, models.RoleObserver)
	ctx := context.Background()

	// warm the resolver cache with the observer resolution
	res, err := f.resolver.Resolve(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, models.RoleObserver, res.Role)

	require.NoError(t, svc.UpdateMemberRole(ctx, 1, 1, 2, models.RoleManager))

	res, err = f.resolver.Resolve(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, res.Role)
}

func TestOwnerProtections(t *testing.T) {
	f, svc := workspaceFixture()
	f.addMember(1, 1, models.RoleOwner)
	f.addMember(2, 1, models.RoleDirector)
	ctx := context.Background()

	err := svc.UpdateMemberRole(ctx, 2, 1, 1, models.RoleMember)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	err = svc.RemoveMember(ctx, 2, 1, 1)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestRemoveMemberDropsResolution(t *testing.T) {
	f, svc := workspaceFixture()
	f.addMember(1, 1, models.RoleOwner)
	f.addMember(2, 1, models.RoleMember)
	ctx := context.Background()

	_, err := f.resolver.Resolve(ctx, 2, 1)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveMember(ctx, 1, 1, 2))

	res, err := f.resolver.Resolve(ctx, 2, 1)
	require.NoError(t, err)
	assert.Nil(t, res, "removed member must resolve to nothing")
}

func TestListMembersRequiresMembership(t *testing.T) {
	f, svc := workspaceFixture()
	f.addMember(1, 1, models.RoleOwner)

	_, err := svc.ListMembers(context.Background(), 9, 1)
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
}
