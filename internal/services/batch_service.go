// internal/services/batch_service.go
package services

import (
	"context"

	"taskhub/internal/apperr"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

// BatchFailure records one task that could not be mutated, with the business
// reason. Infrastructure failures are never recorded here; they abort the
// whole batch instead.
type BatchFailure struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

// BatchResult partitions the input ids. Every input id lands in exactly one of
// Success, Failed or AutoReviewed.
type BatchResult struct {
	Success      []int64        `json:"success"`
	Failed       []BatchFailure `json:"failed"`
	AutoReviewed []int64        `json:"auto_reviewed,omitempty"`
	SubtaskCount int            `json:"subtask_count,omitempty"`
}

// BatchService applies one operation to many task ids with per-item outcome
// isolation: one task's business failure never blocks the rest.
type BatchService interface {
	Complete(ctx context.Context, actorID, workspaceID int64, taskIDs []int64) (*BatchResult, error)
	Delete(ctx context.Context, actorID, workspaceID int64, taskIDs []int64) (*BatchResult, error)
}

type batchService struct {
	tasks    repositories.TaskRepository
	projects repositories.ProjectRepository
	service  TaskService
}

func NewBatchService(
	tasks repositories.TaskRepository,
	projects repositories.ProjectRepository,
	service TaskService,
) BatchService {
	return &batchService{tasks: tasks, projects: projects, service: service}
}

// Complete moves each task toward done. When the task sits in in_progress and
// the actor lacks review-approval rights, the task is routed to review instead
// and reported under AutoReviewed, which counts as a successful outcome.
func (s *batchService) Complete(ctx context.Context, actorID, workspaceID int64, taskIDs []int64) (*BatchResult, error) {
	result := &BatchResult{}
	for _, id := range taskIDs {
		task, project, reason, err := s.load(ctx, workspaceID, id)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			result.Failed = append(result.Failed, BatchFailure{ID: id, Reason: reason})
			continue
		}

		target := models.StatusDone
		autoReview := false
		if task.Status == models.StatusInProgress {
			canApprove, err := s.service.CanApprove(ctx, actorID, task, project)
			if err != nil {
				return nil, err
			}
			if !canApprove {
				// graceful degradation: submit for review instead of failing
				target = models.StatusReview
				autoReview = true
			}
		}

		if _, err := s.service.Transition(ctx, actorID, id, target, ""); err != nil {
			if !apperr.IsBusiness(err) {
				return nil, err
			}
			result.Failed = append(result.Failed, BatchFailure{ID: id, Reason: string(apperr.CodeOf(err))})
			continue
		}
		if autoReview {
			result.AutoReviewed = append(result.AutoReviewed, id)
		} else {
			result.Success = append(result.Success, id)
		}
	}
	return result, nil
}

// Delete removes each task with its subtask cascade. SubtaskCount totals the
// cascade-deleted descendants across the batch.
func (s *batchService) Delete(ctx context.Context, actorID, workspaceID int64, taskIDs []int64) (*BatchResult, error) {
	result := &BatchResult{}
	for _, id := range taskIDs {
		_, _, reason, err := s.load(ctx, workspaceID, id)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			result.Failed = append(result.Failed, BatchFailure{ID: id, Reason: reason})
			continue
		}

		n, err := s.service.Delete(ctx, actorID, id)
		result.SubtaskCount += n
		if err != nil {
			if !apperr.IsBusiness(err) {
				return nil, err
			}
			result.Failed = append(result.Failed, BatchFailure{ID: id, Reason: string(apperr.CodeOf(err))})
			continue
		}
		result.Success = append(result.Success, id)
	}
	return result, nil
}

// load fetches task+project and applies the shared per-item preconditions.
// A non-empty reason is a per-item failure; a returned error aborts the batch.
func (s *batchService) load(ctx context.Context, workspaceID, taskID int64) (*models.Task, *models.Project, string, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, nil, "", err
	}
	if task == nil {
		return nil, nil, string(apperr.CodeNotFound), nil
	}
	project, err := s.projects.FindByID(ctx, task.ProjectID)
	if err != nil {
		return nil, nil, "", err
	}
	if project == nil {
		return nil, nil, string(apperr.CodeNotFound), nil
	}
	if project.WorkspaceID != workspaceID {
		return nil, nil, string(apperr.CodeScopeMismatch), nil
	}
	return task, project, "", nil
}
