// internal/services/analysis_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taskhub/internal/apperr"
	"taskhub/internal/authz"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

// Analyzer is an opaque analysis function over a set of tasks. The rest of the
// system does not care what is behind it.
type Analyzer interface {
	AnalyzeTasks(ctx context.Context, tasks []models.Task) (string, error)
}

// AnalysisService runs the analyzer over a workspace's open tasks.
type AnalysisService interface {
	AnalyzeWorkspace(ctx context.Context, actorID, workspaceID int64) (string, error)
}

type analysisService struct {
	tasks    repositories.TaskRepository
	projects repositories.ProjectRepository
	resolver *authz.Resolver
	analyzer Analyzer
}

func NewAnalysisService(
	tasks repositories.TaskRepository,
	projects repositories.ProjectRepository,
	resolver *authz.Resolver,
	analyzer Analyzer,
) AnalysisService {
	return &analysisService{tasks: tasks, projects: projects, resolver: resolver, analyzer: analyzer}
}

func (s *analysisService) AnalyzeWorkspace(ctx context.Context, actorID, workspaceID int64) (string, error) {
	ok, err := s.resolver.Has(ctx, actorID, workspaceID, models.CapRunAnalysis)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperr.Forbidden("user %d may not run analysis in workspace %d", actorID, workspaceID)
	}

	projects, err := s.projects.FindByWorkspace(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	var open []models.Task
	for _, p := range projects {
		pid := p.ID
		tasks, err := s.tasks.FindAll(ctx, models.TaskFilter{ProjectID: &pid})
		if err != nil {
			return "", err
		}
		for _, t := range tasks {
			if t.Status != models.StatusDone {
				open = append(open, t)
			}
		}
	}
	if len(open) == 0 {
		return "No open tasks to analyze.", nil
	}
	return s.analyzer.AnalyzeTasks(ctx, open)
}

// ---- default analyzer: OpenAI-compatible chat endpoint ----

// ChatAnalyzer talks to an OpenAI-compatible /chat/completions endpoint.
// With DryRun it returns a canned summary instead of calling out.
type ChatAnalyzer struct {
	BaseURL string
	APIKey  string
	Model   string
	DryRun  bool
	client  *http.Client
}

func NewChatAnalyzer(baseURL, apiKey, model string, dryRun bool) *ChatAnalyzer {
	return &ChatAnalyzer{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		DryRun:  dryRun,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (a *ChatAnalyzer) AnalyzeTasks(ctx context.Context, tasks []models.Task) (string, error) {
	if a.DryRun {
		return fmt.Sprintf("dry run: %d open tasks considered", len(tasks)), nil
	}

	var b strings.Builder
	b.WriteString("Summarize the state of these tasks, flag risks and stalled work:\n")
	for _, t := range tasks {
		fmt.Fprintf(&b, "- [%s/%s] #%d %s\n", t.Status, t.Priority, t.ID, t.Title)
	}

	body, err := json.Marshal(chatRequest{
		Model: a.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a project management assistant."},
			{Role: "user", Content: b.String()},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode analysis response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("analysis provider: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("analysis provider returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}
