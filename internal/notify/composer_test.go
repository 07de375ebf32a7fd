package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"projectpulse/contracts/mq"
	"projectpulse/internal/model"
	"projectpulse/internal/tracking"
)

func blockTexts(blocks []map[string]any) []string {
	var out []string
	for _, b := range blocks {
		if txt, ok := b["text"].(map[string]any); ok {
			out = append(out, txt["text"].(string))
		}
		if fields, ok := b["fields"].([]map[string]any); ok {
			for _, f := range fields {
				out = append(out, f["text"].(string))
			}
		}
	}
	return out
}

func TestComposeProjectCreated(t *testing.T) {
	p := model.Project{
		ID:          "prj-1",
		Name:        "Website Redesign",
		Description: "Refresh the marketing site",
		State:       "planned",
		StartDate:   "2025-01-01",
		EndDate:     "2025-06-30",
		Members:     []string{"dev@example.com"},
		Milestones: []model.Milestone{
			{Name: "Design", Estimator: "Alice"},
			{Name: "Build"},
		},
	}

	payload := ComposeProjectCreated(p)

	assert.Equal(t, mq.KindProjectCreated, payload.Kind)
	assert.Equal(t, "New project created: Website Redesign", payload.Text)
	assert.Equal(t, "prj-1", payload.ProjectID)
	assert.Equal(t, []string{"dev@example.com"}, payload.MemberEmails)

	texts := blockTexts(payload.Blocks)
	assert.Contains(t, texts, "*Project Name:*\nWebsite Redesign")
	assert.Contains(t, texts, "*Start Date:*\n01/01/2025")
	assert.Contains(t, texts, "*Milestone Assignments:*\n• Design - Alice")
}

func TestComposeProjectCreatedSkipsOptionalSections(t *testing.T) {
	payload := ComposeProjectCreated(model.Project{Name: "Bare", State: "planned"})

	for _, txt := range blockTexts(payload.Blocks) {
		assert.NotContains(t, txt, "Description")
		assert.NotContains(t, txt, "Start Date")
		assert.NotContains(t, txt, "Milestone Assignments")
	}
}

func TestComposeMilestoneOverdueAddressesEstimator(t *testing.T) {
	p := model.Project{Name: "Alpha"}
	m := model.Milestone{Name: "Design", Status: "Overdue", TargetDate: "2025-03-01", Estimator: "Bob"}

	payload := ComposeMilestoneOverdue(p, m)

	assert.Equal(t, mq.KindMilestoneOverdue, payload.Kind)
	assert.Contains(t, payload.Text, "Design")
	assert.Contains(t, blockTexts(payload.Blocks), "Hey Bob, please provide an update on this milestone.")
}

func TestComposeMilestoneOverdueWithoutEstimator(t *testing.T) {
	payload := ComposeMilestoneOverdue(model.Project{Name: "Alpha"}, model.Milestone{Name: "Design"})
	assert.Contains(t, blockTexts(payload.Blocks), "*Please provide an update on this milestone.*")
}

func TestComposeOverdueSummary(t *testing.T) {
	projects := []model.Project{
		{Name: "Alpha", Milestones: []model.Milestone{{IsOverdue: true}, {IsOverdue: true}}},
		{Name: "Beta", Milestones: []model.Milestone{{IsOverdue: false}}},
		{Name: "Gamma", Milestones: []model.Milestone{{IsOverdue: true}}},
	}

	payload, ok := ComposeOverdueSummary(projects)
	require.True(t, ok)
	assert.Equal(t, "Found 3 overdue milestone(s) across 2 project(s)", payload.Text)

	texts := blockTexts(payload.Blocks)
	assert.Contains(t, texts, "*Alpha*: 2 overdue milestone(s)\n*Gamma*: 1 overdue milestone(s)")
}

func TestComposeOverdueSummaryNothingOverdue(t *testing.T) {
	_, ok := ComposeOverdueSummary([]model.Project{
		{Name: "Alpha", Milestones: []model.Milestone{{IsOverdue: false}}},
	})
	assert.False(t, ok)
}

func TestComposeDateDrift(t *testing.T) {
	action := tracking.Action{
		Type:        tracking.ActionDatesChanged,
		ProjectID:   "prj-1",
		ProjectName: "Alpha",
		Changes: []tracking.DateChange{
			{MilestoneName: "Design", OldDate: "2025-01-01", NewDate: "2025-01-15"},
		},
	}

	payload := ComposeDateDrift(action)

	assert.Equal(t, mq.KindDateDrift, payload.Kind)
	assert.Contains(t, blockTexts(payload.Blocks), "01/01/2025 → 01/15/2025")
}

func TestComposeDateReminderNamesDwell(t *testing.T) {
	action := tracking.Action{
		Type:        tracking.ActionReminder,
		ProjectName: "Alpha",
		Milestones: []model.MilestoneBaseline{
			{Name: "Design", InitialDate: "2025-01-01"},
		},
	}

	payload := ComposeDateReminder(action, 48*time.Hour)

	assert.Equal(t, mq.KindDateReminder, payload.Kind)
	texts := blockTexts(payload.Blocks)
	assert.Contains(t, texts, "Milestone dates in *Alpha* have not changed in 48 hours. Please confirm they are still accurate:")
	assert.Contains(t, texts, "*Target Date:*\n01/01/2025")
}

func TestComposeProgressAtRisk(t *testing.T) {
	p := model.Project{Name: "Alpha"}
	m := model.Milestone{Name: "Design", TargetDate: "2025-03-15", Estimator: "Carol"}

	payload := ComposeProgressAtRisk(p, m, 0.25)

	assert.Equal(t, mq.KindProgressAtRisk, payload.Kind)
	texts := blockTexts(payload.Blocks)
	assert.Contains(t, texts, "*Sub-tasks Done:*\n25%")
	assert.Contains(t, texts, "Hey Carol, this milestone is due soon but behind on sub-tasks.")
}

type stubPublisher struct {
	key     string
	payload any
	err     error
}

func (s *stubPublisher) Publish(routingKey string, payload any) error {
	s.key = routingKey
	s.payload = payload
	return s.err
}

type fixedClock struct{ now time.Time }

func (f fixedClock) Now() time.Time { return f.now }

func TestDispatcherStampsAndPublishes(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	pub := &stubPublisher{}
	d := NewDispatcher(pub, fixedClock{now}, zap.NewNop())

	err := d.Dispatch(mq.NotificationCreatedPayload{Kind: mq.KindProjectCreated, Text: "hi"})
	require.NoError(t, err)

	assert.Equal(t, mq.RoutingKeyNotificationCreated, pub.key)
	sent := pub.payload.(mq.NotificationCreatedPayload)
	assert.Equal(t, now, sent.CreatedAt)
}

func TestDispatcherWrapsPublishError(t *testing.T) {
	pub := &stubPublisher{err: errors.New("connection refused")}
	d := NewDispatcher(pub, fixedClock{time.Now()}, zap.NewNop())

	err := d.Dispatch(mq.NotificationCreatedPayload{Kind: mq.KindDateDrift})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "milestone.date_drift")
}
