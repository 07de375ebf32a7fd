package mq

import "time"

// Routing keys on the events exchange.
const (
	RoutingKeyNotificationCreated = "notification.created"
)

// Notification kinds carried in NotificationCreatedPayload.
const (
	KindProjectCreated    = "project.created"
	KindMilestoneAssigned = "milestone.assigned"
	KindMilestoneOverdue  = "milestone.overdue"
	KindDateDrift         = "milestone.date_drift"
	KindDateReminder      = "milestone.date_reminder"
	KindProgressAtRisk    = "milestone.progress_at_risk"
	KindOverdueSummary    = "overdue.summary"
)

// NotificationCreatedPayload is a fully composed chat message waiting for
// delivery. Blocks hold the chat tool's structured layout as raw JSON
// objects so the worker forwards them untouched.
type NotificationCreatedPayload struct {
	Kind         string           `json:"kind"`
	Channel      string           `json:"channel,omitempty"` // override; empty means default channel
	Text         string           `json:"text"`
	Blocks       []map[string]any `json:"blocks,omitempty"`
	ProjectID    string           `json:"project_id,omitempty"`
	ProjectName  string           `json:"project_name,omitempty"`
	MemberEmails []string         `json:"member_emails,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}
