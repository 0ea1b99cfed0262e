package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/apperr"
	"taskhub/internal/logging"
	"taskhub/internal/models"
)

// Workspace 1, project 10. User 2 is the assignee, user 3 the creator,
// user 4 the project leader, user 5 an unrelated member, user 6 an observer.
func lifecycleFixture() *fixture {
	f := newFixture()
	f.addMember(1, 1, models.RoleOwner)
	f.addMember(2, 1, models.RoleMember)
	f.addMember(3, 1, models.RoleMember)
	f.addMember(4, 1, models.RoleMember)
	f.addMember(5, 1, models.RoleMember)
	f.addMember(6, 1, models.RoleObserver)
	f.addProject(10, 1, ptr(4))
	return f
}

func TestStartTask(t *testing.T) {
	f := lifecycleFixture()
	f.addTask(100, 10, 3, ptr(2), models.StatusTodo)

	task, err := f.svc.Start(context.Background(), 2, 100)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, task.Status)

	events, err := f.events.ListByTask(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "task.start", events[0].Type)
	assert.Equal(t, int64(2), events[0].ActorID)
	assert.Equal(t, models.StatusTodo, events[0].OldStatus)
	assert.Equal(t, models.StatusInProgress, events[0].NewStatus)
	assert.NotEmpty(t, events[0].ID)

	assert.Equal(t, []string{"task.start"}, f.sink.types())
}

func TestStartTaskByCreator(t *testing.T) {
	f := lifecycleFixture()
	f.addTask(100, 10, 3, ptr(2), models.StatusTodo)

	_, err := f.svc.Start(context.Background(), 3, 100)
	assert.NoError(t, err)
}

func TestStartTaskForbiddenForUnrelatedMember(t *testing.T) {
	f := lifecycleFixture()
	f.addTask(100, 10, 3, ptr(2), models.StatusTodo)

	_, err := f.svc.Start(context.Background(), 5, 100)
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	// the task did not move and no event was written
	task, _ := f.tasks.FindByID(context.Background(), 100)
	assert.Equal(t, models.StatusTodo, task.Status)
	events, _ := f.events.ListByTask(context.Background(), 100)
	assert.Empty(t, events)
}

func TestObserverNeverMutates(t *testing.T) {
	f := lifecycleFixture()
	f.addTask(100, 10, 6, ptr(6), models.StatusTodo)

	// even as creator and assignee, the observer role blocks the mutation
	_, err := f.svc.Start(context.Background(), 6, 100)
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
}

func TestInvalidTransitionFromTodo(t *testing.T) {
	f := lifecycleFixture()
	f.addTask(100, 10, 3, ptr(2), models.StatusTodo)

	_, err := f.svc.SubmitForReview(context.Background(), 2, 100)
	assert.Equal(t, apperr.CodeInvalidTransition, apperr.CodeOf(err))

	_, err = f.svc.Complete(context.Background(), 2, 100)
	assert.Equal(t, apperr.CodeInvalidTransition, apperr.CodeOf(err))
}

func TestApproveRequiresLeaderOrAdmin(t *testing.T) {
	f := lifecycleFixture()
	f.addTask(100, 10, 3, ptr(2), models.StatusReview)

	// the assignee themselves may not approve
	_, err := f.svc.Approve(context.Background(), 2, 100)
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	// the project leader may
	task, err := f.svc.Approve(context.Background(), 4, 100)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, task.Status)
}

func TestApproveByWorkspaceAdmin(t *testing.T) {
	f := lifecycleFixture()
	f.addMember(7, 1, models.RoleDirector)
	f.addTask(100, 10, 3, ptr(2), models.StatusReview)

	task, err := f.svc.Approve(context.Background(), 7, 100)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, task.Status)
}

func TestRejectRequiresReason(t *testing.T) {
	f := lifecycleFixture()
	f.addTask(100, 10, 3, ptr(2), models.StatusReview)

	_, err := f.svc.Reject(context.Background(), 4, 100, "")
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	_, err = f.svc.Reject(context.Background(), 4, 100, "   ")
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	_, err = f.svc.Reject(context.Background(), 4, 100, strings.Repeat("x", 501))
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestRejectReasonLimitCountsCharacters(t *testing.T) {
	f := lifecycleFixture()
	f.addTask(100, 10, 3, ptr(2), models.StatusReview)

	// 300 Cyrillic characters take 600 bytes; the limit is per character.
	task, err := f.svc.Reject(context.Background(), 4, 100, strings.Repeat("ф", 300))
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, task.Status)

	f.addTask(101, 10, 3, ptr(2), models.StatusReview)
	reason := strings.Repeat("ф", 500)
	task, err = f.svc.Reject(context.Background(), 4, 101, reason)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, task.Status)

	events, _ := f.events.ListByTask(context.Background(), 101)
	require.Len(t, events, 1)
	assert.Equal(t, reason, events[0].Detail)

	f.addTask(102, 10, 3, ptr(2), models.StatusReview)
	_, err = f.svc.Reject(context.Background(), 4, 102, strings.Repeat("ф", 501))
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestRejectRecordsReason(t *testing.T) {
	f := lifecycleFixture()
	f.addTask(100, 10, 3, ptr(2), models.StatusReview)

	reason := strings.Repeat("x", 500) // exactly at the limit
	task, err := f.svc.Reject(context.Background(), 4, 100, reason)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, task.Status)

	events, _ := f.events.ListByTask(context.Background(), 100)
	require.Len(t, events, 1)
	assert.Equal(t, "task.reject", events[0].Type)
	assert.Equal(t, reason, events[0].Detail)
}

func TestCompleteSkipsReviewForAssignee(t *testing.T) {
	f := lifecycleFixture()
	f.addTask(100, 10, 3, ptr(2), models.StatusInProgress)

	task, err := f.svc.Complete(context.Background(), 2, 100)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, task.Status)

	events, _ := f.events.ListByTask(context.Background(), 100)
	require.Len(t, events, 1)
	assert.Equal(t, "task.complete", events[0].Type)
}

func TestReopenDoneTask(t *testing.T) {
	f := lifecycleFixture()
	f.addTask(100, 10, 3, ptr(2), models.StatusDone)

	// unrelated member cannot reopen
	_, err := f.svc.Reopen(context.Background(), 5, 100)
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	task, err := f.svc.Reopen(context.Background(), 2, 100)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, task.Status)
}

// racingTaskRepo flips the stored status between the service's read and its
// conditional update, the way a concurrent request would.
type racingTaskRepo struct {
	*fakeTaskRepo
}

func (r *racingTaskRepo) TransitionStatus(ctx context.Context, id int64, expected, to models.TaskStatus, ev *models.TaskEvent) (bool, error) {
	task, _ := r.fakeTaskRepo.FindByID(ctx, id)
	task.Status = models.StatusInProgress
	r.fakeTaskRepo.seed(*task)
	return r.fakeTaskRepo.TransitionStatus(ctx, id, expected, to, ev)
}

func TestTransitionConflictOnConcurrentChange(t *testing.T) {
	f := lifecycleFixture()
	f.addTask(100, 10, 3, ptr(2), models.StatusTodo)

	svc := NewTaskService(&racingTaskRepo{f.tasks}, f.projects, f.events, f.resolver, f.hierarchy, f.sink)
	_, err := svc.Start(context.Background(), 2, 100)
	assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))

	// the losing request wrote no event and emitted nothing
	events, _ := f.events.ListByTask(context.Background(), 100)
	assert.Empty(t, events)
	assert.Empty(t, f.sink.types())
}

func TestTransitionUnknownStatus(t *testing.T) {
	f := lifecycleFixture()
	f.addTask(100, 10, 3, ptr(2), models.StatusTodo)

	_, err := f.svc.Transition(context.Background(), 2, 100, "archived", "")
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestTransitionTaskNotFound(t *testing.T) {
	f := lifecycleFixture()
	_, err := f.svc.Start(context.Background(), 2, 999)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestManagerAuthorityScopedByHierarchy(t *testing.T) {
	f := lifecycleFixture()
	f.addMember(8, 1, models.RoleManager)
	f.addTask(100, 10, 3, ptr(2), models.StatusTodo)

	// manager with no reporting edge over the assignee: forbidden
	_, err := f.svc.Start(context.Background(), 8, 100)
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	// after assignee 2 reports to manager 8, the manager may start the task
	require.NoError(t, f.hierarchy.SetReportingRelation(context.Background(), 4, 10, []int64{2}, ptr(8)))
	task, err := f.svc.Start(context.Background(), 8, 100)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, task.Status)
}

func TestDeleteCascadesSubtasks(t *testing.T) {
	f := lifecycleFixture()
	f.addTask(100, 10, 3, ptr(2), models.StatusTodo)
	f.tasks.seed(models.Task{ID: 101, ProjectID: 10, CreatorID: 3, ParentID: ptr(100),
		Title: "sub", Priority: models.PriorityNormal, Status: models.StatusTodo})
	f.tasks.seed(models.Task{ID: 102, ProjectID: 10, CreatorID: 3, ParentID: ptr(101),
		Title: "subsub", Priority: models.PriorityNormal, Status: models.StatusTodo})

	n, err := f.svc.Delete(context.Background(), 3, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []int64{100, 101, 102} {
		task, _ := f.tasks.FindByID(context.Background(), id)
		assert.Nil(t, task, "task %d should be gone", id)
	}
}

// failingEventRepo refuses every write, simulating an unreachable event store.
type failingEventRepo struct {
	*fakeEventRepo
}

func (r *failingEventRepo) Store(ctx context.Context, ev *models.TaskEvent) error {
	return assert.AnError
}

func TestDeleteLogsDroppedEvent(t *testing.T) {
	f := lifecycleFixture()
	f.addTask(100, 10, 3, ptr(2), models.StatusTodo)
	svc := NewTaskService(f.tasks, f.projects, &failingEventRepo{f.events}, f.resolver, f.hierarchy, f.sink)

	var buf bytes.Buffer
	prev := logging.L.Out
	logging.L.SetOutput(&buf)
	defer logging.L.SetOutput(prev)

	n, err := svc.Delete(context.Background(), 3, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	task, _ := f.tasks.FindByID(context.Background(), 100)
	assert.Nil(t, task, "delete itself must still go through")
	assert.Empty(t, f.sink.types(), "no emit without a stored event")
	assert.Contains(t, buf.String(), "[task][delete][err]")
}

func TestDeleteForbiddenForNonCreator(t *testing.T) {
	f := lifecycleFixture()
	f.addTask(100, 10, 3, ptr(2), models.StatusTodo)

	// assignee is not creator, leader, or admin
	_, err := f.svc.Delete(context.Background(), 2, 100)
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
}

func TestCreateTaskAlwaysBornTodo(t *testing.T) {
	f := lifecycleFixture()

	task, err := f.svc.Create(context.Background(), 2, &models.Task{
		ProjectID: 10,
		Title:     "new work",
		Status:    models.StatusDone, // ignored
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusTodo, task.Status)
	assert.Equal(t, int64(2), task.CreatorID)
	assert.Equal(t, models.PriorityNormal, task.Priority)
}

func TestCreateTaskRejectsCrossProjectParent(t *testing.T) {
	f := lifecycleFixture()
	f.addProject(11, 1, nil)
	f.addTask(100, 11, 3, nil, models.StatusTodo)

	_, err := f.svc.Create(context.Background(), 2, &models.Task{
		ProjectID: 10,
		Title:     "orphan",
		ParentID:  ptr(100),
	})
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}
