package services

import "taskhub/internal/models"

// TransitionKind names one edge of the task status graph. Each kind carries
// its own authorization predicate (see taskService.authorizeTransition).
type TransitionKind string

const (
	TransitionStart        TransitionKind = "start"
	TransitionSubmitReview TransitionKind = "submit_review"
	TransitionApprove      TransitionKind = "approve"
	TransitionReject       TransitionKind = "reject"
	TransitionComplete     TransitionKind = "complete" // in_progress -> done, skipping review
	TransitionReopen       TransitionKind = "reopen"
)

// taskTransitions is the full legal-transition table. Anything absent here
// fails with INVALID_TRANSITION regardless of who asks.
var taskTransitions = map[models.TaskStatus]map[models.TaskStatus]TransitionKind{
	models.StatusTodo: {
		models.StatusInProgress: TransitionStart,
	},
	models.StatusInProgress: {
		models.StatusReview: TransitionSubmitReview,
		models.StatusDone:   TransitionComplete,
	},
	models.StatusReview: {
		models.StatusDone:       TransitionApprove,
		models.StatusInProgress: TransitionReject,
	},
	models.StatusDone: {
		models.StatusInProgress: TransitionReopen,
	},
}

// ResolveTransition returns the kind of the (from, to) edge, or false if the
// transition is structurally illegal.
func ResolveTransition(from, to models.TaskStatus) (TransitionKind, bool) {
	nexts, ok := taskTransitions[from]
	if !ok {
		return "", false
	}
	kind, ok := nexts[to]
	return kind, ok
}

// eventType maps a transition kind to its durable event record type.
func (k TransitionKind) eventType() string {
	return "task." + string(k)
}
