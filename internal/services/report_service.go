// internal/services/report_service.go
package services

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"taskhub/internal/apperr"
	"taskhub/internal/authz"
	"taskhub/internal/models"
	"taskhub/internal/pdf"
	"taskhub/internal/repositories"
)

const maxReportContentLen = 4000

// ReportService handles daily work reports. Visibility: everyone sees their
// own reports; holders of VIEW_TEAM_REPORTS see their transitive subordinates'
// reports (per project hierarchy union); admins see the whole workspace.
type ReportService interface {
	Submit(ctx context.Context, userID, workspaceID int64, day, content string) (*models.DailyReport, error)
	List(ctx context.Context, actorID, workspaceID int64, day *string) ([]models.DailyReport, error)
	ExportPDF(ctx context.Context, actorID, workspaceID int64, day string) (string, error)
	EmailDigest(ctx context.Context, actorID, workspaceID int64, day, toEmail string) error
}

type reportService struct {
	reports    repositories.ReportRepository
	users      repositories.UserRepository
	projects   repositories.ProjectRepository
	workspaces repositories.WorkspaceRepository
	hierarchy  HierarchyService
	resolver   *authz.Resolver
	generator  pdf.Generator
	email      EmailService
	now        func() time.Time
}

func NewReportService(
	reports repositories.ReportRepository,
	users repositories.UserRepository,
	projects repositories.ProjectRepository,
	workspaces repositories.WorkspaceRepository,
	hierarchy HierarchyService,
	resolver *authz.Resolver,
	generator pdf.Generator,
	email EmailService,
) ReportService {
	return &reportService{
		reports:    reports,
		users:      users,
		projects:   projects,
		workspaces: workspaces,
		hierarchy:  hierarchy,
		resolver:   resolver,
		generator:  generator,
		email:      email,
		now:        time.Now,
	}
}

func (s *reportService) Submit(ctx context.Context, userID, workspaceID int64, day, content string) (*models.DailyReport, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("report content is required")
	}
	if len(content) > maxReportContentLen {
		return nil, apperr.Validation("report content exceeds %d characters", maxReportContentLen)
	}
	if day == "" {
		day = s.now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return nil, apperr.Validation("invalid day %q, want YYYY-MM-DD", day)
	}
	ok, err := s.resolver.Has(ctx, userID, workspaceID, models.CapSubmitReports)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Forbidden("user %d may not submit reports in workspace %d", userID, workspaceID)
	}

	rep := &models.DailyReport{WorkspaceID: workspaceID, UserID: userID, Day: day, Content: content}
	if err := s.reports.Upsert(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

func (s *reportService) List(ctx context.Context, actorID, workspaceID int64, day *string) ([]models.DailyReport, error) {
	visible, err := s.visibleUsers(ctx, actorID, workspaceID)
	if err != nil {
		return nil, err
	}
	filter := models.ReportFilter{WorkspaceID: workspaceID, Day: day, UserIDs: visible}
	return s.reports.Find(ctx, filter)
}

// visibleUsers returns nil (no restriction) for admins, otherwise the actor
// plus their transitive subordinates across the workspace's projects.
func (s *reportService) visibleUsers(ctx context.Context, actorID, workspaceID int64) ([]int64, error) {
	res, err := s.resolver.Resolve(ctx, actorID, workspaceID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, apperr.Forbidden("user %d is not a member of workspace %d", actorID, workspaceID)
	}
	if res.Role.IsAdmin() {
		return nil, nil
	}

	visible := map[int64]bool{actorID: true}
	if res.Has(models.CapViewTeamReports) {
		projects, err := s.projects.FindByWorkspace(ctx, workspaceID)
		if err != nil {
			return nil, err
		}
		for _, p := range projects {
			subs, err := s.hierarchy.Subordinates(ctx, actorID, p.ID)
			if err != nil {
				return nil, err
			}
			for id := range subs {
				visible[id] = true
			}
		}
	}
	out := make([]int64, 0, len(visible))
	for id := range visible {
		out = append(out, id)
	}
	return out, nil
}

func (s *reportService) ExportPDF(ctx context.Context, actorID, workspaceID int64, day string) (string, error) {
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return "", apperr.Validation("invalid day %q, want YYYY-MM-DD", day)
	}
	workspace, err := s.workspaces.FindByID(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	if workspace == nil {
		return "", apperr.NotFound("workspace")
	}
	reports, err := s.List(ctx, actorID, workspaceID, &day)
	if err != nil {
		return "", err
	}

	entries := make([]pdf.ReportEntry, 0, len(reports))
	for _, rep := range reports {
		name := fmt.Sprintf("user #%d", rep.UserID)
		if u, err := s.users.GetByID(ctx, rep.UserID); err == nil && u != nil {
			name = u.Name
		}
		entries = append(entries, pdf.ReportEntry{AuthorName: name, Report: rep})
	}
	return s.generator.GenerateDailyReports(day, workspace.Name, entries)
}

func (s *reportService) EmailDigest(ctx context.Context, actorID, workspaceID int64, day, toEmail string) error {
	if s.email == nil {
		return apperr.Validation("email delivery is not configured")
	}
	reports, err := s.List(ctx, actorID, workspaceID, &day)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Daily reports for %s</h2>", html.EscapeString(day))
	if len(reports) == 0 {
		b.WriteString("<p>No reports were submitted.</p>")
	}
	for _, rep := range reports {
		name := fmt.Sprintf("user #%d", rep.UserID)
		if u, err := s.users.GetByID(ctx, rep.UserID); err == nil && u != nil {
			name = u.Name
		}
		fmt.Fprintf(&b, "<h4>%s</h4><p>%s</p>",
			html.EscapeString(name), html.EscapeString(rep.Content))
	}
	return s.email.SendReportDigest(toEmail, day, b.String())
}
