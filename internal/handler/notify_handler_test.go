package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"projectpulse/contracts/mq"
	"projectpulse/internal/cache"
	"projectpulse/internal/model"
	"projectpulse/internal/tracking"
)

func newNotifyHandler(fetcher *fakeFetcher, disp *recordingDispatcher, now time.Time) *NotifyHandler {
	clk := &fakeClock{now: now}
	c := cache.NewProjectCache(fetcher, clk, zap.NewNop())
	monitor := tracking.NewMonitor(tracking.NewMemoryStore(), clk, 48*time.Hour, zap.NewNop())
	return NewNotifyHandler(c, monitor, disp, clk, 48*time.Hour, zap.NewNop())
}

func TestDateReminderEvaluatesStateMachine(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	clk := &fakeClock{now: now}
	fetcher := &fakeFetcher{projects: []model.Project{
		{ID: "prj-1", Name: "Alpha", Milestones: []model.Milestone{
			{ID: "ms-1", Name: "Design", TargetDate: "2025-04-01", Status: "Active"},
		}},
	}}
	disp := &recordingDispatcher{}
	c := cache.NewProjectCache(fetcher, clk, zap.NewNop())
	monitor := tracking.NewMonitor(tracking.NewMemoryStore(), clk, 48*time.Hour, zap.NewNop())
	h := NewNotifyHandler(c, monitor, disp, clk, 48*time.Hour, zap.NewNop())

	// First call initializes the record; nothing is due yet.
	w := doJSON(t, h.DateReminder, http.MethodPost, "/api/notify/date-reminder",
		map[string]string{"projectId": "prj-1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"action":"none"`)
	assert.Empty(t, disp.payloads)

	// Past the dwell the reminder fires.
	clk.now = now.Add(49 * time.Hour)
	w = doJSON(t, h.DateReminder, http.MethodPost, "/api/notify/date-reminder",
		map[string]string{"projectId": "prj-1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"action":"reminder"`)
	require.Len(t, disp.payloads, 1)
	assert.Equal(t, mq.KindDateReminder, disp.payloads[0].Kind)
	assert.Equal(t, "Alpha", disp.payloads[0].ProjectName)
}

func TestDateReminderReportsDrift(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	clk := &fakeClock{now: now}
	fetcher := &fakeFetcher{projects: []model.Project{
		{ID: "prj-1", Name: "Alpha", Milestones: []model.Milestone{
			{ID: "ms-1", Name: "Design", TargetDate: "2025-04-01", Status: "Active"},
		}},
	}}
	disp := &recordingDispatcher{}
	c := cache.NewProjectCache(fetcher, clk, zap.NewNop())
	monitor := tracking.NewMonitor(tracking.NewMemoryStore(), clk, 48*time.Hour, zap.NewNop())
	h := NewNotifyHandler(c, monitor, disp, clk, 48*time.Hour, zap.NewNop())

	w := doJSON(t, h.DateReminder, http.MethodPost, "/api/notify/date-reminder",
		map[string]string{"projectId": "prj-1"})
	require.Equal(t, http.StatusOK, w.Code)

	fetcher.projects[0].Milestones[0].TargetDate = "2025-04-15"
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	w = doJSON(t, h.DateReminder, http.MethodPost, "/api/notify/date-reminder",
		map[string]string{"projectId": "prj-1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"action":"dates_changed"`)
	require.Len(t, disp.payloads, 1)
	assert.Equal(t, mq.KindDateDrift, disp.payloads[0].Kind)
}

func TestDateReminderUnknownProject(t *testing.T) {
	h := newNotifyHandler(&fakeFetcher{projects: []model.Project{{ID: "prj-1", Name: "Alpha"}}}, &recordingDispatcher{}, time.Now())

	w := doJSON(t, h.DateReminder, http.MethodPost, "/api/notify/date-reminder",
		map[string]string{"projectId": "prj-404"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDateReminderRequiresProjectID(t *testing.T) {
	h := newNotifyHandler(&fakeFetcher{}, &recordingDispatcher{}, time.Now())

	w := doJSON(t, h.DateReminder, http.MethodPost, "/api/notify/date-reminder", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProgressSendsOnlyAtRiskMilestones(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{projects: []model.Project{
		{ID: "prj-1", Name: "Alpha", Milestones: []model.Milestone{
			{
				ID: "ms-1", Name: "Behind", TargetDate: "2025-03-15", Status: "Active",
				Subtasks: []model.Subtask{{Name: "a", Status: "Backlog"}, {Name: "b", Status: "Backlog"}},
			},
			{
				ID: "ms-2", Name: "OnTrack", TargetDate: "2025-03-15", Status: "Active",
				Subtasks: []model.Subtask{{Name: "a", Status: "Done"}, {Name: "b", Status: "Done"}},
			},
			{ID: "ms-3", Name: "FarOut", TargetDate: "2025-06-01", Status: "Active"},
		}},
	}}
	disp := &recordingDispatcher{}
	h := newNotifyHandler(fetcher, disp, now)

	w := doJSON(t, h.Progress, http.MethodPost, "/api/notify/progress",
		map[string]string{"projectId": "prj-1"})

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, disp.payloads, 1)
	assert.Equal(t, mq.KindProgressAtRisk, disp.payloads[0].Kind)
	assert.Contains(t, disp.payloads[0].Text, "Behind")
}

func TestProgressFiltersByMilestoneID(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{projects: []model.Project{
		{ID: "prj-1", Name: "Alpha", Milestones: []model.Milestone{
			{
				ID: "ms-1", Name: "Behind", TargetDate: "2025-03-15", Status: "Active",
				Subtasks: []model.Subtask{{Name: "a", Status: "Backlog"}},
			},
			{
				ID: "ms-2", Name: "AlsoBehind", TargetDate: "2025-03-16", Status: "Active",
				Subtasks: []model.Subtask{{Name: "a", Status: "Backlog"}},
			},
		}},
	}}
	disp := &recordingDispatcher{}
	h := newNotifyHandler(fetcher, disp, now)

	w := doJSON(t, h.Progress, http.MethodPost, "/api/notify/progress",
		map[string]string{"projectId": "prj-1", "milestoneId": "ms-2"})

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, disp.payloads, 1)
	assert.Contains(t, disp.payloads[0].Text, "AlsoBehind")
}
