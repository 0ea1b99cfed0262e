package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/models"
)

type mapSource struct {
	members map[[2]int64]*models.Membership
	finds   int
}

func (s *mapSource) Find(ctx context.Context, userID, workspaceID int64) (*models.Membership, error) {
	s.finds++
	return s.members[[2]int64{userID, workspaceID}], nil
}

func newMapSource() *mapSource {
	return &mapSource{members: make(map[[2]int64]*models.Membership)}
}

func (s *mapSource) add(userID, workspaceID int64, role models.Role, overrides ...models.Capability) {
	s.members[[2]int64{userID, workspaceID}] = &models.Membership{
		UserID: userID, WorkspaceID: workspaceID, Role: role, Overrides: overrides,
	}
}

func TestResolveOwnerIgnoresOverrides(t *testing.T) {
	src := newMapSource()
	// a stored override set must never narrow the owner
	src.add(1, 1, models.RoleOwner, models.CapViewTasks)
	r := NewResolver(src)

	res, err := r.Resolve(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, res.Role)
	for _, c := range Catalog() {
		assert.True(t, res.Has(c), "owner must hold %s", c)
	}
}

func TestResolveOverridesReplaceDefaults(t *testing.T) {
	src := newMapSource()
	src.add(2, 1, models.RoleMember, models.CapViewTasks, models.CapApproveReviews)
	r := NewResolver(src)

	res, err := r.Resolve(context.Background(), 2, 1)
	require.NoError(t, err)
	// the override set replaces the defaults wholesale, it is not merged
	assert.True(t, res.Has(models.CapApproveReviews))
	assert.False(t, res.Has(models.CapCreateTasks))
}

func TestResolveDefaultsPerRole(t *testing.T) {
	src := newMapSource()
	src.add(3, 1, models.RoleObserver)
	r := NewResolver(src)

	res, err := r.Resolve(context.Background(), 3, 1)
	require.NoError(t, err)
	assert.True(t, res.Has(models.CapViewTasks))
	assert.True(t, res.Has(models.CapComment))
	assert.False(t, res.Has(models.CapCreateTasks))
	assert.False(t, res.Has(models.CapEditOwnTasks))
}

func TestResolveNonMember(t *testing.T) {
	r := NewResolver(newMapSource())

	res, err := r.Resolve(context.Background(), 9, 1)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.False(t, res.Has(models.CapViewTasks))

	ok, err := r.Has(context.Background(), 9, 1, models.CapViewTasks)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolveCachesUntilInvalidated(t *testing.T) {
	src := newMapSource()
	src.add(2, 1, models.RoleMember)
	r := NewResolver(src)
	ctx := context.Background()

	_, err := r.Resolve(ctx, 2, 1)
	require.NoError(t, err)
	_, err = r.Resolve(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, src.finds, "second resolve must hit the cache")

	// the store changed; without invalidation the stale entry would win
	src.add(2, 1, models.RoleDirector)
	res, _ := r.Resolve(ctx, 2, 1)
	assert.Equal(t, models.RoleMember, res.Role)

	r.Invalidate(2, 1)
	res, err = r.Resolve(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, models.RoleDirector, res.Role)
	assert.Equal(t, 2, src.finds)
}

func TestInvalidateScopedToPair(t *testing.T) {
	src := newMapSource()
	src.add(2, 1, models.RoleMember)
	src.add(2, 5, models.RoleMember)
	r := NewResolver(src)
	ctx := context.Background()

	_, _ = r.Resolve(ctx, 2, 1)
	_, _ = r.Resolve(ctx, 2, 5)
	r.Invalidate(2, 1)

	_, _ = r.Resolve(ctx, 2, 5)
	assert.Equal(t, 2, src.finds, "other workspace's entry must stay cached")
}
