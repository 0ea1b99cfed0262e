package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/apperr"
	"taskhub/internal/models"
)

// Workspace 1, project 10 led by user 4; user 1 owns the workspace.
func hierarchyFixture() *fixture {
	f := newFixture()
	f.addMember(1, 1, models.RoleOwner)
	f.addMember(2, 1, models.RoleMember)
	f.addMember(3, 1, models.RoleMember)
	f.addMember(4, 1, models.RoleMember)
	f.addMember(5, 1, models.RoleMember)
	f.addProject(10, 1, ptr(4))
	return f
}

func TestSubordinatesTransitiveClosure(t *testing.T) {
	f := hierarchyFixture()
	ctx := context.Background()

	// 4 -> 2 -> 3 -> 5
	require.NoError(t, f.hierarchy.SetReportingRelation(ctx, 4, 10, []int64{2}, ptr(4)))
	require.NoError(t, f.hierarchy.SetReportingRelation(ctx, 4, 10, []int64{3}, ptr(2)))
	require.NoError(t, f.hierarchy.SetReportingRelation(ctx, 4, 10, []int64{5}, ptr(3)))

	subs, err := f.hierarchy.Subordinates(ctx, 4, 10)
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{2: true, 3: true, 5: true}, subs)

	// mid-chain manager sees only their own subtree
	subs, err = f.hierarchy.Subordinates(ctx, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{3: true, 5: true}, subs)

	ok, err := f.hierarchy.IsSubordinate(ctx, 4, 5, 10)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.hierarchy.IsSubordinate(ctx, 3, 2, 10)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetReportingRelationRejectsCycle(t *testing.T) {
	f := hierarchyFixture()
	ctx := context.Background()

	// 2 -> 3, then making 2 report to 3 would close the loop
	require.NoError(t, f.hierarchy.SetReportingRelation(ctx, 4, 10, []int64{3}, ptr(2)))
	err := f.hierarchy.SetReportingRelation(ctx, 4, 10, []int64{2}, ptr(3))
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	// the failed call wrote nothing
	subs, _ := f.hierarchy.Subordinates(ctx, 3, 10)
	assert.Empty(t, subs)
}

func TestSetReportingRelationRejectsSelfManagement(t *testing.T) {
	f := hierarchyFixture()
	err := f.hierarchy.SetReportingRelation(context.Background(), 4, 10, []int64{2}, ptr(2))
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestSetReportingRelationWholeOrNothing(t *testing.T) {
	f := hierarchyFixture()
	ctx := context.Background()

	// batch [2, 5] under manager 5: the self-edge poisons the whole batch
	require.NoError(t, f.hierarchy.SetReportingRelation(ctx, 4, 10, []int64{5}, ptr(3)))
	err := f.hierarchy.SetReportingRelation(ctx, 4, 10, []int64{2, 5}, ptr(5))
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	// user 2 was not attached even though its own edge was valid
	subs, _ := f.hierarchy.Subordinates(ctx, 5, 10)
	assert.Empty(t, subs)
}

func TestSetReportingRelationAuthorization(t *testing.T) {
	f := hierarchyFixture()
	ctx := context.Background()

	// plain member, not leader or admin
	err := f.hierarchy.SetReportingRelation(ctx, 2, 10, []int64{3}, ptr(5))
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	// the owner may, anywhere in the workspace
	assert.NoError(t, f.hierarchy.SetReportingRelation(ctx, 1, 10, []int64{3}, ptr(5)))
}

func TestSetReportingRelationEmptyList(t *testing.T) {
	f := hierarchyFixture()
	err := f.hierarchy.SetReportingRelation(context.Background(), 4, 10, nil, ptr(2))
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestSetReportingRelationDetach(t *testing.T) {
	f := hierarchyFixture()
	ctx := context.Background()

	require.NoError(t, f.hierarchy.SetReportingRelation(ctx, 4, 10, []int64{2, 3}, ptr(4)))
	require.NoError(t, f.hierarchy.SetReportingRelation(ctx, 4, 10, []int64{2}, nil))

	subs, err := f.hierarchy.Subordinates(ctx, 4, 10)
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{3: true}, subs)
}

func TestReassignReplacesManagerEdge(t *testing.T) {
	f := hierarchyFixture()
	ctx := context.Background()

	require.NoError(t, f.hierarchy.SetReportingRelation(ctx, 4, 10, []int64{2}, ptr(3)))
	require.NoError(t, f.hierarchy.SetReportingRelation(ctx, 4, 10, []int64{2}, ptr(5)))

	subs, _ := f.hierarchy.Subordinates(ctx, 3, 10)
	assert.Empty(t, subs)
	subs, _ = f.hierarchy.Subordinates(ctx, 5, 10)
	assert.Equal(t, map[int64]bool{2: true}, subs)
}

func TestHierarchyScopedPerProject(t *testing.T) {
	f := hierarchyFixture()
	f.addProject(11, 1, ptr(4))
	ctx := context.Background()

	require.NoError(t, f.hierarchy.SetReportingRelation(ctx, 4, 10, []int64{2}, ptr(4)))

	subs, err := f.hierarchy.Subordinates(ctx, 4, 11)
	require.NoError(t, err)
	assert.Empty(t, subs, "edges in project 10 must not leak into project 11")
}
