// Package linear talks to the external issue tracker's GraphQL API. The
// tracker owns the canonical project records; everything fetched here is
// cached locally and replaced wholesale on refresh.
package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"projectpulse/internal/model"
	"projectpulse/internal/progress"
)

type Client struct {
	endpoint   string
	apiKey     string
	teamID     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(endpoint, apiKey, teamID string, logger *zap.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		teamID:   teamID,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tracker request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tracker returned status %d", resp.StatusCode)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode tracker response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("tracker error: %s", envelope.Errors[0].Message)
	}
	return json.Unmarshal(envelope.Data, out)
}

type issueState struct {
	Name string `json:"name"`
}

type issueNode struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     string     `json:"dueDate"`
	State       issueState `json:"state"`
	Parent      *struct {
		ID string `json:"id"`
	} `json:"parent"`
	Children struct {
		Nodes []issueNode `json:"nodes"`
	} `json:"children"`
}

type projectNode struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	State       string `json:"state"`
	StartDate   string `json:"startDate"`
	TargetDate  string `json:"targetDate"`
}

const projectsQuery = `query {
  projects {
    nodes { id name description state startDate targetDate }
  }
}`

const issuesQuery = `query Issues($projectId: ID) {
  issues(filter: { project: { id: { eq: $projectId } } }) {
    nodes {
      id title description dueDate
      state { name }
      parent { id }
      children { nodes { id title description dueDate state { name } } }
    }
  }
}`

// FetchProjects pulls every project with its top-level issues as
// milestones and their child issues as subtasks.
func (c *Client) FetchProjects(ctx context.Context) ([]model.Project, error) {
	var projectsData struct {
		Projects struct {
			Nodes []projectNode `json:"nodes"`
		} `json:"projects"`
	}
	if err := c.do(ctx, projectsQuery, nil, &projectsData); err != nil {
		return nil, fmt.Errorf("fetch projects: %w", err)
	}

	projects := make([]model.Project, 0, len(projectsData.Projects.Nodes))
	for _, node := range projectsData.Projects.Nodes {
		var issuesData struct {
			Issues struct {
				Nodes []issueNode `json:"nodes"`
			} `json:"issues"`
		}
		if err := c.do(ctx, issuesQuery, map[string]any{"projectId": node.ID}, &issuesData); err != nil {
			return nil, fmt.Errorf("fetch issues for project %s: %w", node.ID, err)
		}

		milestones := []model.Milestone{}
		for _, issue := range issuesData.Issues.Nodes {
			if issue.Parent != nil {
				// Only top-level issues count as milestones.
				continue
			}
			milestones = append(milestones, toMilestone(issue))
		}

		projects = append(projects, model.Project{
			ID:          node.ID,
			Name:        node.Name,
			Description: node.Description,
			State:       node.State,
			StartDate:   node.StartDate,
			EndDate:     node.TargetDate,
			Milestones:  milestones,
		})
	}

	c.logger.Info("Fetched projects from tracker", zap.Int("projects", len(projects)))
	return projects, nil
}

func toMilestone(issue issueNode) model.Milestone {
	subtasks := []model.Subtask{}
	for _, child := range issue.Children.Nodes {
		status := child.State.Name
		if status == "" {
			status = "Backlog"
		}
		subtasks = append(subtasks, model.Subtask{
			Name:        child.Title,
			Description: child.Description,
			Status:      status,
		})
	}

	status := issue.State.Name
	if status == "" {
		status = "Active"
	}
	return model.Milestone{
		ID:          issue.ID,
		Name:        issue.Title,
		Description: issue.Description,
		TargetDate:  issue.DueDate,
		Status:      status,
		Subtasks:    subtasks,
	}
}

const teamsQuery = `query {
  teams { nodes { id } }
}`

func (c *Client) resolveTeamID(ctx context.Context, teamID string) (string, error) {
	if teamID != "" {
		return teamID, nil
	}
	if c.teamID != "" {
		return c.teamID, nil
	}

	var data struct {
		Teams struct {
			Nodes []struct {
				ID string `json:"id"`
			} `json:"nodes"`
		} `json:"teams"`
	}
	if err := c.do(ctx, teamsQuery, nil, &data); err != nil {
		return "", fmt.Errorf("fetch teams: %w", err)
	}
	if len(data.Teams.Nodes) == 0 {
		return "", fmt.Errorf("no teams found in tracker, cannot create project without a team")
	}
	return data.Teams.Nodes[0].ID, nil
}

const projectCreateMutation = `mutation ProjectCreate($input: ProjectCreateInput!) {
  projectCreate(input: $input) {
    success
    project { id }
  }
}`

const issueCreateMutation = `mutation IssueCreate($input: IssueCreateInput!) {
  issueCreate(input: $input) {
    success
    issue { id }
  }
}`

// CreateProject creates the project, then its milestones as issues, then
// their subtasks as child issues. A failing step aborts the remaining
// steps and surfaces which named step failed; earlier creations are left
// in place.
func (c *Client) CreateProject(ctx context.Context, input model.CreateProjectInput) (*model.Project, error) {
	teamID, err := c.resolveTeamID(ctx, input.TeamID)
	if err != nil {
		return nil, err
	}

	state := input.State
	if state == "" {
		state = "planned"
	}

	projectInput := map[string]any{
		"teamIds":     []string{teamID},
		"name":        input.Name,
		"description": truncate(input.Description, 255),
		"state":       state,
	}
	if input.StartDate != "" {
		projectInput["startDate"] = input.StartDate
	}
	if input.EndDate != "" {
		projectInput["targetDate"] = input.EndDate
	}

	var created struct {
		ProjectCreate struct {
			Success bool `json:"success"`
			Project struct {
				ID string `json:"id"`
			} `json:"project"`
		} `json:"projectCreate"`
	}
	if err := c.do(ctx, projectCreateMutation, map[string]any{"input": projectInput}, &created); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	if !created.ProjectCreate.Success || created.ProjectCreate.Project.ID == "" {
		return nil, fmt.Errorf("tracker refused to create project %q", input.Name)
	}
	projectID := created.ProjectCreate.Project.ID

	c.logger.Info("Project created in tracker",
		zap.String("project_id", projectID),
		zap.String("name", input.Name),
	)

	milestones := make([]model.Milestone, 0, len(input.Milestones))
	for _, m := range input.Milestones {
		milestone, err := c.createMilestone(ctx, teamID, projectID, m)
		if err != nil {
			return nil, fmt.Errorf("failed to create milestone %q: %w", m.Name, err)
		}
		milestones = append(milestones, *milestone)
	}

	project := &model.Project{
		ID:          projectID,
		Name:        input.Name,
		Description: input.Description,
		State:       state,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Milestones:  milestones,
		Members:     input.Members,
	}
	progress.Annotate([]model.Project{*project}, time.Now().UTC())
	return project, nil
}

func (c *Client) createMilestone(ctx context.Context, teamID, projectID string, m model.CreateMilestoneInput) (*model.Milestone, error) {
	issueInput := map[string]any{
		"teamId":      teamID,
		"title":       m.Name,
		"description": truncate(m.Description, 255),
		"projectId":   projectID,
	}
	if m.TargetDate != "" {
		issueInput["dueDate"] = m.TargetDate
	}

	issueID, err := c.createIssue(ctx, issueInput)
	if err != nil {
		return nil, err
	}

	subtasks := make([]model.Subtask, 0, len(m.Subtasks))
	for _, s := range m.Subtasks {
		childInput := map[string]any{
			"teamId":    teamID,
			"title":     truncate(s.Name, 255),
			"parentId":  issueID,
			"projectId": projectID,
		}
		if _, err := c.createIssue(ctx, childInput); err != nil {
			return nil, fmt.Errorf("subtask %q: %w", s.Name, err)
		}
		subtasks = append(subtasks, model.Subtask{Name: s.Name, Status: "Backlog"})
	}

	return &model.Milestone{
		ID:          issueID,
		Name:        m.Name,
		Description: m.Description,
		TargetDate:  m.TargetDate,
		Status:      "Active",
		Estimator:   m.Estimator,
		Subtasks:    subtasks,
	}, nil
}

func (c *Client) createIssue(ctx context.Context, input map[string]any) (string, error) {
	var created struct {
		IssueCreate struct {
			Success bool `json:"success"`
			Issue   struct {
				ID string `json:"id"`
			} `json:"issue"`
		} `json:"issueCreate"`
	}
	if err := c.do(ctx, issueCreateMutation, map[string]any{"input": input}, &created); err != nil {
		return "", err
	}
	if created.IssueCreate.Issue.ID == "" {
		return "", fmt.Errorf("tracker returned no issue id")
	}
	return created.IssueCreate.Issue.ID, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
