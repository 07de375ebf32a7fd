package linear

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"projectpulse/internal/model"
)

type graphqlStub struct {
	t         *testing.T
	responses map[string]string // keyed by a substring of the query
	requests  []graphqlRequest
}

func (s *graphqlStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		require.NoError(s.t, json.NewDecoder(r.Body).Decode(&req))
		s.requests = append(s.requests, req)

		for key, body := range s.responses {
			if strings.Contains(req.Query, key) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
				return
			}
		}
		s.t.Fatalf("no stub response for query: %s", req.Query)
	}
}

func TestFetchProjects(t *testing.T) {
	stub := &graphqlStub{t: t, responses: map[string]string{
		"projects {": `{"data":{"projects":{"nodes":[
			{"id":"p1","name":"Alpha","description":"desc","state":"started",
			 "startDate":"2025-01-01","targetDate":"2025-06-30"}
		]}}}`,
		"issues(filter": `{"data":{"issues":{"nodes":[
			{"id":"m1","title":"Design","description":"","dueDate":"2025-03-15",
			 "state":{"name":"In Progress"},"parent":null,
			 "children":{"nodes":[
				{"id":"s1","title":"Wireframes","description":"","state":{"name":"Done"}},
				{"id":"s2","title":"Review","description":"","state":{"name":""}}
			 ]}},
			{"id":"s1","title":"Wireframes","description":"","dueDate":"",
			 "state":{"name":"Done"},"parent":{"id":"m1"},"children":{"nodes":[]}}
		]}}}`,
	}}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	client := NewClient(server.URL, "test-key", "", zap.NewNop())
	projects, err := client.FetchProjects(context.Background())
	require.NoError(t, err)

	require.Len(t, projects, 1)
	p := projects[0]
	assert.Equal(t, "Alpha", p.Name)
	assert.Equal(t, "started", p.State)
	assert.Equal(t, "2025-06-30", p.EndDate)

	// The child issue with a parent must not appear as a milestone.
	require.Len(t, p.Milestones, 1)
	m := p.Milestones[0]
	assert.Equal(t, "Design", m.Name)
	assert.Equal(t, "In Progress", m.Status)
	require.Len(t, m.Subtasks, 2)
	assert.Equal(t, "Done", m.Subtasks[0].Status)
	assert.Equal(t, "Backlog", m.Subtasks[1].Status, "missing state defaults to Backlog")
}

func TestFetchProjectsSurfacesGraphQLErrors(t *testing.T) {
	stub := &graphqlStub{t: t, responses: map[string]string{
		"projects {": `{"errors":[{"message":"rate limited"}]}`,
	}}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	client := NewClient(server.URL, "test-key", "", zap.NewNop())
	_, err := client.FetchProjects(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestCreateProjectResolvesTeamAndNests(t *testing.T) {
	issueIDs := []string{"m1", "s1", "s2"}
	stub := &graphqlStub{t: t}
	issueCalls := 0
	stub.responses = map[string]string{
		"teams {":       `{"data":{"teams":{"nodes":[{"id":"team-1"}]}}}`,
		"projectCreate": `{"data":{"projectCreate":{"success":true,"project":{"id":"p1"}}}}`,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		stub.requests = append(stub.requests, req)
		w.Header().Set("Content-Type", "application/json")

		if strings.Contains(req.Query, "issueCreate") {
			id := issueIDs[issueCalls]
			issueCalls++
			_, _ = w.Write([]byte(`{"data":{"issueCreate":{"success":true,"issue":{"id":"` + id + `"}}}}`))
			return
		}
		for key, body := range stub.responses {
			if strings.Contains(req.Query, key) {
				_, _ = w.Write([]byte(body))
				return
			}
		}
		t.Fatalf("no stub response for query: %s", req.Query)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "", zap.NewNop())
	project, err := client.CreateProject(context.Background(), model.CreateProjectInput{
		Name: "Alpha",
		Milestones: []model.CreateMilestoneInput{
			{
				Name:       "Design",
				TargetDate: "2025-03-15",
				Estimator:  "dana@example.com",
				Subtasks: []model.CreateSubtaskInput{
					{Name: "Wireframes"},
					{Name: "Review"},
				},
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "p1", project.ID)
	assert.Equal(t, "planned", project.State, "state defaults to planned")
	require.Len(t, project.Milestones, 1)
	assert.Equal(t, "m1", project.Milestones[0].ID)
	assert.Equal(t, "dana@example.com", project.Milestones[0].Estimator)
	assert.Len(t, project.Milestones[0].Subtasks, 2)
	assert.Equal(t, 3, issueCalls)
}

func TestCreateProjectMilestoneFailureNamesStep(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.Contains(req.Query, "projectCreate"):
			_, _ = w.Write([]byte(`{"data":{"projectCreate":{"success":true,"project":{"id":"p1"}}}}`))
		case strings.Contains(req.Query, "issueCreate"):
			_, _ = w.Write([]byte(`{"errors":[{"message":"boom"}]}`))
		default:
			t.Fatalf("unexpected query: %s", req.Query)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "team-1", zap.NewNop())
	_, err := client.CreateProject(context.Background(), model.CreateProjectInput{
		Name: "Alpha",
		Milestones: []model.CreateMilestoneInput{
			{Name: "Design"},
			{Name: "Build"},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to create milestone "Design"`)
}
