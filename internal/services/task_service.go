// internal/services/task_service.go
package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"taskhub/internal/apperr"
	"taskhub/internal/authz"
	"taskhub/internal/logging"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

// maxRejectReasonLen is measured in characters, not bytes.
const maxRejectReasonLen = 500

// EventSink receives the domain event of every committed transition.
// Fire-and-forget: implementations must never fail the task mutation.
type EventSink interface {
	Emit(ev models.TaskEvent)
}

// TaskService defines the interface for task-related business logic. Status
// never changes through Update; it moves only through the transition methods
// so every change is authorized and recorded as an event.
type TaskService interface {
	Create(ctx context.Context, actorID int64, task *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	GetAll(ctx context.Context, actorID int64, filter models.TaskFilter, subordinatesOnly bool) ([]models.Task, error)
	Update(ctx context.Context, actorID, id int64, updateData *models.Task) (*models.Task, error)
	Delete(ctx context.Context, actorID, id int64) (subtaskCount int, err error)
	ListEvents(ctx context.Context, taskID int64) ([]models.TaskEvent, error)

	Start(ctx context.Context, actorID, taskID int64) (*models.Task, error)
	SubmitForReview(ctx context.Context, actorID, taskID int64) (*models.Task, error)
	Approve(ctx context.Context, actorID, taskID int64) (*models.Task, error)
	Reject(ctx context.Context, actorID, taskID int64, reason string) (*models.Task, error)
	Complete(ctx context.Context, actorID, taskID int64) (*models.Task, error)
	Reopen(ctx context.Context, actorID, taskID int64) (*models.Task, error)

	// Transition is the generic form the batch coordinator drives directly.
	Transition(ctx context.Context, actorID, taskID int64, to models.TaskStatus, reason string) (*models.Task, error)

	// CanApprove is the review-approval predicate; the batch coordinator uses
	// it to decide between direct completion and auto-review routing.
	CanApprove(ctx context.Context, actorID int64, task *models.Task, project *models.Project) (bool, error)
}

type taskService struct {
	repo      repositories.TaskRepository
	projects  repositories.ProjectRepository
	events    repositories.EventRepository
	resolver  *authz.Resolver
	hierarchy HierarchyService
	sink      EventSink
	now       func() time.Time
}

// NewTaskService creates a new instance of TaskService. sink may be nil.
func NewTaskService(
	repo repositories.TaskRepository,
	projects repositories.ProjectRepository,
	events repositories.EventRepository,
	resolver *authz.Resolver,
	hierarchy HierarchyService,
	sink EventSink,
) TaskService {
	return &taskService{
		repo:      repo,
		projects:  projects,
		events:    events,
		resolver:  resolver,
		hierarchy: hierarchy,
		sink:      sink,
		now:       time.Now,
	}
}

func (s *taskService) Create(ctx context.Context, actorID int64, task *models.Task) (*models.Task, error) {
	if strings.TrimSpace(task.Title) == "" {
		return nil, apperr.Validation("title is required")
	}
	project, err := s.projects.FindByID(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperr.NotFound("project")
	}
	ok, err := s.resolver.Has(ctx, actorID, project.WorkspaceID, models.CapCreateTasks)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Forbidden("user %d may not create tasks in workspace %d", actorID, project.WorkspaceID)
	}
	if task.ParentID != nil {
		parent, err := s.repo.FindByID(ctx, *task.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, apperr.Validation("parent task %d does not exist", *task.ParentID)
		}
		if parent.ProjectID != task.ProjectID {
			return nil, apperr.Validation("parent task %d belongs to a different project", *task.ParentID)
		}
	}

	task.CreatorID = actorID
	task.Status = models.StatusTodo // tasks are always born in todo
	if task.Priority == "" {
		task.Priority = models.PriorityNormal
	}
	now := s.now()
	task.CreatedAt = now
	task.UpdatedAt = now

	if err := s.repo.Store(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	return s.repo.FindByID(ctx, id)
}

// GetAll lists tasks. With subordinatesOnly the result is narrowed to tasks
// assigned to the actor's transitive subordinates in the filtered project.
func (s *taskService) GetAll(ctx context.Context, actorID int64, filter models.TaskFilter, subordinatesOnly bool) ([]models.Task, error) {
	tasks, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	if !subordinatesOnly {
		return tasks, nil
	}
	if filter.ProjectID == nil {
		return nil, apperr.Validation("subordinates_only requires a project filter")
	}
	subs, err := s.hierarchy.Subordinates(ctx, actorID, *filter.ProjectID)
	if err != nil {
		return nil, err
	}
	out := tasks[:0]
	for _, t := range tasks {
		if t.AssigneeID != nil && subs[*t.AssigneeID] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *taskService) Update(ctx context.Context, actorID, id int64, updateData *models.Task) (*models.Task, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperr.NotFound("task")
	}
	project, err := s.projects.FindByID(ctx, existing.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperr.NotFound("project")
	}

	res, err := s.resolver.Resolve(ctx, actorID, project.WorkspaceID)
	if err != nil {
		return nil, err
	}
	own := existing.CreatorID == actorID || existing.IsAssignee(actorID)
	switch {
	case res == nil:
		return nil, apperr.Forbidden("user %d is not a member of workspace %d", actorID, project.WorkspaceID)
	case res.Has(models.CapEditAnyTask):
	case own && res.Has(models.CapEditOwnTasks):
	default:
		return nil, apperr.Forbidden("user %d may not edit task %d", actorID, id)
	}

	if updateData.ParentID != nil {
		parent, err := s.repo.FindByID(ctx, *updateData.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.ProjectID != existing.ProjectID {
			return nil, apperr.Validation("parent task must exist in the same project")
		}
		if *updateData.ParentID == id {
			return nil, apperr.Validation("task cannot be its own parent")
		}
	}

	existing.AssigneeID = updateData.AssigneeID
	existing.ParentID = updateData.ParentID
	existing.Title = updateData.Title
	existing.Description = updateData.Description
	existing.DueDate = updateData.DueDate
	if updateData.Priority != "" {
		existing.Priority = updateData.Priority
	}
	existing.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *taskService) ListEvents(ctx context.Context, taskID int64) ([]models.TaskEvent, error) {
	return s.events.ListByTask(ctx, taskID)
}

// ---- transitions ----

func (s *taskService) Start(ctx context.Context, actorID, taskID int64) (*models.Task, error) {
	return s.Transition(ctx, actorID, taskID, models.StatusInProgress, "")
}

func (s *taskService) SubmitForReview(ctx context.Context, actorID, taskID int64) (*models.Task, error) {
	return s.Transition(ctx, actorID, taskID, models.StatusReview, "")
}

func (s *taskService) Approve(ctx context.Context, actorID, taskID int64) (*models.Task, error) {
	return s.Transition(ctx, actorID, taskID, models.StatusDone, "")
}

func (s *taskService) Reject(ctx context.Context, actorID, taskID int64, reason string) (*models.Task, error) {
	return s.Transition(ctx, actorID, taskID, models.StatusInProgress, reason)
}

func (s *taskService) Complete(ctx context.Context, actorID, taskID int64) (*models.Task, error) {
	return s.Transition(ctx, actorID, taskID, models.StatusDone, "")
}

func (s *taskService) Reopen(ctx context.Context, actorID, taskID int64) (*models.Task, error) {
	return s.Transition(ctx, actorID, taskID, models.StatusInProgress, "")
}

// Transition validates structure, then authorization, then applies the status
// flip with an optimistic check against the status read above. The event row
// commits in the same transaction as the flip; the sink runs after commit.
func (s *taskService) Transition(ctx context.Context, actorID, taskID int64, to models.TaskStatus, reason string) (*models.Task, error) {
	if !models.IsValidTaskStatus(to) {
		return nil, apperr.Validation("unknown status %q", to)
	}
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperr.NotFound("task")
	}
	project, err := s.projects.FindByID(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperr.NotFound("project")
	}

	kind, ok := ResolveTransition(task.Status, to)
	if !ok {
		return nil, apperr.InvalidTransition(string(task.Status), string(to))
	}

	if kind == TransitionReject {
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return nil, apperr.Validation("rejection requires a reason")
		}
		if utf8.RuneCountInString(reason) > maxRejectReasonLen {
			return nil, apperr.Validation("rejection reason exceeds %d characters", maxRejectReasonLen)
		}
	}

	allowed, err := s.authorizeTransition(ctx, kind, actorID, task, project)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperr.Forbidden("user %d may not %s task %d", actorID, kind, taskID)
	}

	ev := &models.TaskEvent{
		ID:        uuid.New().String(),
		Type:      kind.eventType(),
		TaskID:    task.ID,
		ActorID:   actorID,
		OldStatus: task.Status,
		NewStatus: to,
		Detail:    reason,
		CreatedAt: s.now(),
	}
	won, err := s.repo.TransitionStatus(ctx, task.ID, task.Status, to, ev)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, apperr.Conflict("task %d status changed concurrently", taskID)
	}

	task.Status = to
	task.UpdatedAt = ev.CreatedAt
	s.emit(*ev)
	return task, nil
}

// Delete removes the task and, recursively, its subtasks. Returns the number
// of cascade-deleted descendants.
func (s *taskService) Delete(ctx context.Context, actorID, id int64) (int, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if task == nil {
		return 0, apperr.NotFound("task")
	}
	project, err := s.projects.FindByID(ctx, task.ProjectID)
	if err != nil {
		return 0, err
	}
	if project == nil {
		return 0, apperr.NotFound("project")
	}

	allowed, err := s.authorizeDelete(ctx, actorID, task, project)
	if err != nil {
		return 0, err
	}
	if !allowed {
		return 0, apperr.Forbidden("user %d may not delete task %d", actorID, id)
	}

	// Subtasks inherit the parent's authorization outcome: no per-child check.
	count, err := s.deleteSubtree(ctx, id)
	if err != nil {
		return count, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return count, err
	}

	ev := models.TaskEvent{
		ID:        uuid.New().String(),
		Type:      "task.delete",
		TaskID:    task.ID,
		ActorID:   actorID,
		OldStatus: task.Status,
		NewStatus: task.Status,
		CreatedAt: s.now(),
	}
	if err := s.events.Store(ctx, &ev); err != nil {
		logging.L.Printf("[task][delete][err] event store failed id=%d: %v", task.ID, err)
	} else {
		s.emit(ev)
	}
	return count, nil
}

func (s *taskService) deleteSubtree(ctx context.Context, parentID int64) (int, error) {
	children, err := s.repo.ListChildren(ctx, parentID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, child := range children {
		n, err := s.deleteSubtree(ctx, child.ID)
		count += n
		if err != nil {
			return count, err
		}
		if err := s.repo.Delete(ctx, child.ID); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// ---- authorization predicates ----

func (s *taskService) authorizeTransition(ctx context.Context, kind TransitionKind, actorID int64, task *models.Task, project *models.Project) (bool, error) {
	res, err := s.resolver.Resolve(ctx, actorID, project.WorkspaceID)
	if err != nil {
		return false, err
	}
	if res == nil || res.Role == models.RoleObserver {
		return false, nil
	}

	switch kind {
	case TransitionStart, TransitionSubmitReview:
		if task.IsAssignee(actorID) || task.CreatorID == actorID {
			return true, nil
		}
		return s.isManagementFor(ctx, res, actorID, task, project)
	case TransitionComplete:
		// direct completion: anyone who may start the task, plus anyone who
		// could approve its review
		if task.IsAssignee(actorID) || task.CreatorID == actorID ||
			project.IsLeader(actorID) || res.Role.IsAdmin() {
			return true, nil
		}
		return s.isManagementFor(ctx, res, actorID, task, project)
	case TransitionApprove, TransitionReject:
		return project.IsLeader(actorID) || res.Role.IsAdmin(), nil
	case TransitionReopen:
		return task.IsAssignee(actorID) || project.IsLeader(actorID) || res.Role.IsAdmin(), nil
	}
	return false, nil
}

// CanApprove is the review-approval predicate, exposed for the batch
// coordinator's smart completion routing.
func (s *taskService) CanApprove(ctx context.Context, actorID int64, task *models.Task, project *models.Project) (bool, error) {
	res, err := s.resolver.Resolve(ctx, actorID, project.WorkspaceID)
	if err != nil {
		return false, err
	}
	if res == nil {
		return false, nil
	}
	return project.IsLeader(actorID) || res.Role.IsAdmin(), nil
}

func (s *taskService) authorizeDelete(ctx context.Context, actorID int64, task *models.Task, project *models.Project) (bool, error) {
	res, err := s.resolver.Resolve(ctx, actorID, project.WorkspaceID)
	if err != nil {
		return false, err
	}
	if res == nil || res.Role == models.RoleObserver {
		return false, nil
	}
	return task.CreatorID == actorID || project.IsLeader(actorID) || res.Role.IsAdmin(), nil
}

// isManagementFor: owners and directors always count as management; a manager
// counts only when they lead the project or the task's assignee/creator is
// their transitive subordinate there.
func (s *taskService) isManagementFor(ctx context.Context, res *authz.Resolution, actorID int64, task *models.Task, project *models.Project) (bool, error) {
	if res.Role.IsAdmin() {
		return true, nil
	}
	if res.Role != models.RoleManager {
		return false, nil
	}
	if project.IsLeader(actorID) {
		return true, nil
	}
	subs, err := s.hierarchy.Subordinates(ctx, actorID, project.ID)
	if err != nil {
		return false, err
	}
	if task.AssigneeID != nil && subs[*task.AssigneeID] {
		return true, nil
	}
	return subs[task.CreatorID], nil
}

func (s *taskService) emit(ev models.TaskEvent) {
	if s.sink != nil {
		s.sink.Emit(ev)
	}
}
