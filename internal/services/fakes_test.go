package services

import (
	"context"
	"sync"
	"time"

	"taskhub/internal/authz"
	"taskhub/internal/models"
)

// In-memory repository fakes backing the service tests. They mirror the SQL
// repositories' contracts: FindByID returns (nil, nil) on a miss, and
// TransitionStatus applies the conditional check plus the event write as one
// atomic step.

type memKey struct {
	userID, workspaceID int64
}

type fakeTaskRepo struct {
	mu     sync.Mutex
	tasks  map[int64]*models.Task
	events *fakeEventRepo
	nextID int64
}

func newFakeTaskRepo(events *fakeEventRepo) *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[int64]*models.Task), events: events, nextID: 1}
}

func (r *fakeTaskRepo) Store(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.ID = r.nextID
	r.nextID++
	cp := *task
	r.tasks[task.ID] = &cp
	return nil
}

func (r *fakeTaskRepo) seed(task models.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task.ID >= r.nextID {
		r.nextID = task.ID + 1
	}
	cp := task
	r.tasks[task.ID] = &cp
}

func (r *fakeTaskRepo) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTaskRepo) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Task
	for _, t := range r.tasks {
		if filter.ProjectID != nil && t.ProjectID != *filter.ProjectID {
			continue
		}
		if filter.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if filter.CreatorID != nil && t.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.ParentID != nil && (t.ParentID == nil || *t.ParentID != *filter.ParentID) {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *task
	r.tasks[task.ID] = &cp
	return nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) ListChildren(ctx context.Context, parentID int64) ([]models.Task, error) {
	return r.FindAll(ctx, models.TaskFilter{ParentID: &parentID})
}

func (r *fakeTaskRepo) TransitionStatus(ctx context.Context, id int64, expected, to models.TaskStatus, ev *models.TaskEvent) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.Status != expected {
		return false, nil
	}
	t.Status = to
	t.UpdatedAt = time.Now()
	if ev != nil {
		r.events.append(*ev)
	}
	return true, nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []models.TaskEvent
}

func (r *fakeEventRepo) append(ev models.TaskEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *fakeEventRepo) Store(ctx context.Context, ev *models.TaskEvent) error {
	r.append(*ev)
	return nil
}

func (r *fakeEventRepo) ListByTask(ctx context.Context, taskID int64) ([]models.TaskEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TaskEvent
	for _, ev := range r.events {
		if ev.TaskID == taskID {
			out = append(out, ev)
		}
	}
	return out, nil
}

type fakeProjectRepo struct {
	mu       sync.Mutex
	projects map[int64]*models.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[int64]*models.Project)}
}

func (r *fakeProjectRepo) seed(p models.Project) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := p
	r.projects[p.ID] = &cp
}

func (r *fakeProjectRepo) Store(ctx context.Context, p *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = int64(len(r.projects) + 1)
	cp := *p
	r.projects[p.ID] = &cp
	return nil
}

func (r *fakeProjectRepo) FindByID(ctx context.Context, id int64) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProjectRepo) FindByWorkspace(ctx context.Context, workspaceID int64) ([]models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Project
	for _, p := range r.projects {
		if p.WorkspaceID == workspaceID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProjectRepo) Update(ctx context.Context, p *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.projects[p.ID] = &cp
	return nil
}

func (r *fakeProjectRepo) UpdateLeader(ctx context.Context, id int64, leaderID *int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.projects[id]; ok {
		p.LeaderID = leaderID
	}
	return nil
}

func (r *fakeProjectRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.projects, id)
	return nil
}

type fakeMembershipRepo struct {
	mu      sync.Mutex
	members map[memKey]*models.Membership
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{members: make(map[memKey]*models.Membership)}
}

func (r *fakeMembershipRepo) Store(ctx context.Context, m *models.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.members[memKey{m.UserID, m.WorkspaceID}] = &cp
	return nil
}

func (r *fakeMembershipRepo) Find(ctx context.Context, userID, workspaceID int64) (*models.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[memKey{userID, workspaceID}]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMembershipRepo) ListByWorkspace(ctx context.Context, workspaceID int64) ([]models.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Membership
	for k, m := range r.members {
		if k.workspaceID == workspaceID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMembershipRepo) UpdateRole(ctx context.Context, userID, workspaceID int64, role models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[memKey{userID, workspaceID}]; ok {
		m.Role = role
	}
	return nil
}

func (r *fakeMembershipRepo) UpdatePermissions(ctx context.Context, userID, workspaceID int64, perms []models.Capability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[memKey{userID, workspaceID}]; ok {
		m.Overrides = append([]models.Capability(nil), perms...)
	}
	return nil
}

func (r *fakeMembershipRepo) Delete(ctx context.Context, userID, workspaceID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, memKey{userID, workspaceID})
	return nil
}

type edgeKey struct {
	projectID, subordinateID int64
}

type fakeEdgeRepo struct {
	mu    sync.Mutex
	edges map[edgeKey]int64 // subordinate -> manager
}

func newFakeEdgeRepo() *fakeEdgeRepo {
	return &fakeEdgeRepo{edges: make(map[edgeKey]int64)}
}

func (r *fakeEdgeRepo) Upsert(ctx context.Context, projectID, subordinateID int64, managerID *int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := edgeKey{projectID, subordinateID}
	if managerID == nil {
		delete(r.edges, k)
		return nil
	}
	r.edges[k] = *managerID
	return nil
}

func (r *fakeEdgeRepo) ListEdges(ctx context.Context, projectID int64) ([]models.ReportingEdge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ReportingEdge
	for k, managerID := range r.edges {
		if k.projectID == projectID {
			out = append(out, models.ReportingEdge{
				ProjectID:     k.projectID,
				ManagerID:     managerID,
				SubordinateID: k.subordinateID,
			})
		}
	}
	return out, nil
}

// captureSink records every emitted event for assertions.
type captureSink struct {
	mu     sync.Mutex
	events []models.TaskEvent
}

func (s *captureSink) Emit(ev models.TaskEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *captureSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Type
	}
	return out
}

// fixture wires the fakes into real services the way app.Run does.
type fixture struct {
	tasks     *fakeTaskRepo
	projects  *fakeProjectRepo
	events    *fakeEventRepo
	members   *fakeMembershipRepo
	edges     *fakeEdgeRepo
	resolver  *authz.Resolver
	hierarchy HierarchyService
	sink      *captureSink
	svc       TaskService
	batch     BatchService
}

func newFixture() *fixture {
	events := &fakeEventRepo{}
	tasks := newFakeTaskRepo(events)
	projects := newFakeProjectRepo()
	members := newFakeMembershipRepo()
	edges := newFakeEdgeRepo()
	resolver := authz.NewResolver(members)
	hierarchy := NewHierarchyService(edges, projects, resolver)
	sink := &captureSink{}
	svc := NewTaskService(tasks, projects, events, resolver, hierarchy, sink)
	batch := NewBatchService(tasks, projects, svc)
	return &fixture{
		tasks:     tasks,
		projects:  projects,
		events:    events,
		members:   members,
		edges:     edges,
		resolver:  resolver,
		hierarchy: hierarchy,
		sink:      sink,
		svc:       svc,
		batch:     batch,
	}
}

func (f *fixture) addMember(userID, workspaceID int64, role models.Role, overrides ...models.Capability) {
	_ = f.members.Store(context.Background(), &models.Membership{
		UserID:      userID,
		WorkspaceID: workspaceID,
		Role:        role,
		Overrides:   overrides,
	})
}

func (f *fixture) addProject(id, workspaceID int64, leaderID *int64) {
	f.projects.seed(models.Project{ID: id, WorkspaceID: workspaceID, LeaderID: leaderID, Name: "project"})
}

func (f *fixture) addTask(id, projectID, creatorID int64, assigneeID *int64, status models.TaskStatus) {
	f.tasks.seed(models.Task{
		ID:         id,
		ProjectID:  projectID,
		CreatorID:  creatorID,
		AssigneeID: assigneeID,
		Title:      "task",
		Priority:   models.PriorityNormal,
		Status:     status,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	})
}

func ptr(v int64) *int64 { return &v }
