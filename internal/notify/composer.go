// Package notify composes chat messages for project events and publishes
// them to the message queue for delivery by the worker.
package notify

import (
	"fmt"
	"strings"
	"time"

	"projectpulse/contracts/mq"
	"projectpulse/internal/dates"
	"projectpulse/internal/model"
	"projectpulse/internal/tracking"
)

// Block layout helpers. Blocks are kept as raw maps so they serialize
// into the chat tool's wire format without a typed SDK in between.

func headerBlock(text string) map[string]any {
	return map[string]any{
		"type": "header",
		"text": map[string]any{"type": "plain_text", "text": text, "emoji": true},
	}
}

func sectionText(md string) map[string]any {
	return map[string]any{
		"type": "section",
		"text": map[string]any{"type": "mrkdwn", "text": md},
	}
}

func sectionFields(fields ...string) map[string]any {
	items := make([]map[string]any, 0, len(fields))
	for _, f := range fields {
		items = append(items, map[string]any{"type": "mrkdwn", "text": f})
	}
	return map[string]any{"type": "section", "fields": items}
}

func divider() map[string]any {
	return map[string]any{"type": "divider"}
}

func displayDate(s string) string {
	if s == "" {
		return "Not set"
	}
	return dates.ToUS(dates.Normalize(s))
}

// ComposeProjectCreated announces a new project with its state, dates and
// milestone assignments.
func ComposeProjectCreated(p model.Project) mq.NotificationCreatedPayload {
	blocks := []map[string]any{
		headerBlock("🎉 New Project Created"),
		sectionFields(
			fmt.Sprintf("*Project Name:*\n%s", p.Name),
			fmt.Sprintf("*State:*\n%s", p.State),
		),
	}

	if p.Description != "" {
		blocks = append(blocks, sectionText(fmt.Sprintf("*Description:*\n%s", p.Description)))
	}
	if p.StartDate != "" || p.EndDate != "" {
		blocks = append(blocks, sectionFields(
			fmt.Sprintf("*Start Date:*\n%s", displayDate(p.StartDate)),
			fmt.Sprintf("*End Date:*\n%s", displayDate(p.EndDate)),
		))
	}

	var assignments []string
	for _, m := range p.Milestones {
		if m.Estimator != "" {
			assignments = append(assignments, fmt.Sprintf("• %s - %s", m.Name, m.Estimator))
		}
	}
	if len(assignments) > 0 {
		blocks = append(blocks,
			sectionText("*Milestone Assignments:*\n"+strings.Join(assignments, "\n")),
			sectionText("👋 Estimators, please review your assigned milestones and provide estimates."),
		)
	}
	blocks = append(blocks, divider())

	return mq.NotificationCreatedPayload{
		Kind:         mq.KindProjectCreated,
		Text:         fmt.Sprintf("New project created: %s", p.Name),
		Blocks:       blocks,
		ProjectID:    p.ID,
		ProjectName:  p.Name,
		MemberEmails: p.Members,
	}
}

// ComposeMilestoneAssigned asks a milestone's estimator for an estimate.
func ComposeMilestoneAssigned(p model.Project, m model.Milestone) mq.NotificationCreatedPayload {
	blocks := []map[string]any{
		sectionText(fmt.Sprintf("Hey %s! You've been assigned to estimate the following milestone:", m.Estimator)),
		sectionFields(
			fmt.Sprintf("*Project:*\n%s", p.Name),
			fmt.Sprintf("*Milestone:*\n%s", m.Name),
		),
	}

	if m.TargetDate != "" {
		blocks = append(blocks, sectionFields(fmt.Sprintf("*Target Date:*\n%s", displayDate(m.TargetDate))))
	}
	if len(m.Subtasks) > 0 {
		names := make([]string, 0, len(m.Subtasks))
		for _, st := range m.Subtasks {
			names = append(names, "• "+st.Name)
		}
		blocks = append(blocks, sectionText("*Subtasks:*\n"+strings.Join(names, "\n")))
	}
	blocks = append(blocks, sectionText("👉 Please provide your estimation for this milestone."))

	return mq.NotificationCreatedPayload{
		Kind:        mq.KindMilestoneAssigned,
		Text:        fmt.Sprintf("Milestone estimation needed: %s", m.Name),
		Blocks:      blocks,
		ProjectID:   p.ID,
		ProjectName: p.Name,
	}
}

// ComposeMilestoneOverdue alerts on a single milestone past its target
// date, addressing the estimator when one is assigned.
func ComposeMilestoneOverdue(p model.Project, m model.Milestone) mq.NotificationCreatedPayload {
	prompt := "*Please provide an update on this milestone.*"
	if m.Estimator != "" {
		prompt = fmt.Sprintf("Hey %s, please provide an update on this milestone.", m.Estimator)
	}

	blocks := []map[string]any{
		headerBlock("🚨 Overdue Milestone Alert"),
		sectionFields(
			fmt.Sprintf("*Project:*\n%s", p.Name),
			fmt.Sprintf("*Milestone:*\n%s", m.Name),
		),
		sectionFields(
			fmt.Sprintf("*Status:*\n%s", m.Status),
			fmt.Sprintf("*Target Date:*\n%s", displayDate(m.TargetDate)),
		),
		sectionText(prompt),
		divider(),
	}

	return mq.NotificationCreatedPayload{
		Kind:        mq.KindMilestoneOverdue,
		Text:        fmt.Sprintf("🚨 Overdue Milestone Alert: %s in project %s", m.Name, p.Name),
		Blocks:      blocks,
		ProjectID:   p.ID,
		ProjectName: p.Name,
	}
}

// ComposeOverdueSummary rolls all overdue milestones up into one message.
// ok is false when nothing is overdue and no message should be sent.
func ComposeOverdueSummary(projects []model.Project) (mq.NotificationCreatedPayload, bool) {
	var total int
	var lines []string
	for _, p := range projects {
		var n int
		for _, m := range p.Milestones {
			if m.IsOverdue {
				n++
			}
		}
		if n > 0 {
			total += n
			lines = append(lines, fmt.Sprintf("*%s*: %d overdue milestone(s)", p.Name, n))
		}
	}
	if total == 0 {
		return mq.NotificationCreatedPayload{}, false
	}

	return mq.NotificationCreatedPayload{
		Kind: mq.KindOverdueSummary,
		Text: fmt.Sprintf("Found %d overdue milestone(s) across %d project(s)", total, len(lines)),
		Blocks: []map[string]any{
			headerBlock("📊 Overdue Milestones Summary"),
			sectionText(fmt.Sprintf("Found *%d* overdue milestone(s) across *%d* project(s)", total, len(lines))),
			sectionText(strings.Join(lines, "\n")),
		},
	}, true
}

// ComposeDateDrift reports milestones whose target dates moved since the
// project was first observed.
func ComposeDateDrift(action tracking.Action) mq.NotificationCreatedPayload {
	blocks := []map[string]any{
		headerBlock("📅 Milestone Dates Changed"),
		sectionText(fmt.Sprintf("Milestone dates in *%s* have changed since the project was set up:", action.ProjectName)),
	}
	for _, ch := range action.Changes {
		blocks = append(blocks, sectionFields(
			fmt.Sprintf("*%s*", ch.MilestoneName),
			fmt.Sprintf("%s → %s", displayDate(ch.OldDate), displayDate(ch.NewDate)),
		))
	}
	blocks = append(blocks, divider())

	return mq.NotificationCreatedPayload{
		Kind:        mq.KindDateDrift,
		Text:        fmt.Sprintf("Milestone dates changed in project %s", action.ProjectName),
		Blocks:      blocks,
		ProjectID:   action.ProjectID,
		ProjectName: action.ProjectName,
	}
}

// ComposeDateReminder nudges a project whose milestone dates have sat
// unchanged for the full dwell period.
func ComposeDateReminder(action tracking.Action, dwell time.Duration) mq.NotificationCreatedPayload {
	hours := int(dwell.Hours())
	blocks := []map[string]any{
		headerBlock("⏰ Milestone Date Check"),
		sectionText(fmt.Sprintf("Milestone dates in *%s* have not changed in %d hours. Please confirm they are still accurate:", action.ProjectName, hours)),
	}
	for _, b := range action.Milestones {
		blocks = append(blocks, sectionFields(
			fmt.Sprintf("*%s*", b.Name),
			fmt.Sprintf("*Target Date:*\n%s", displayDate(b.InitialDate)),
		))
	}
	blocks = append(blocks, divider())

	return mq.NotificationCreatedPayload{
		Kind:        mq.KindDateReminder,
		Text:        fmt.Sprintf("Milestone date check for project %s", action.ProjectName),
		Blocks:      blocks,
		ProjectID:   action.ProjectID,
		ProjectName: action.ProjectName,
	}
}

// ComposeProgressAtRisk flags a milestone that is due soon but behind on
// its sub-tasks.
func ComposeProgressAtRisk(p model.Project, m model.Milestone, ratio float64) mq.NotificationCreatedPayload {
	prompt := "*Please review the remaining sub-tasks.*"
	if m.Estimator != "" {
		prompt = fmt.Sprintf("Hey %s, this milestone is due soon but behind on sub-tasks.", m.Estimator)
	}

	blocks := []map[string]any{
		headerBlock("⚠️ Milestone At Risk"),
		sectionFields(
			fmt.Sprintf("*Project:*\n%s", p.Name),
			fmt.Sprintf("*Milestone:*\n%s", m.Name),
		),
		sectionFields(
			fmt.Sprintf("*Target Date:*\n%s", displayDate(m.TargetDate)),
			fmt.Sprintf("*Sub-tasks Done:*\n%.0f%%", ratio*100),
		),
		sectionText(prompt),
		divider(),
	}

	return mq.NotificationCreatedPayload{
		Kind:        mq.KindProgressAtRisk,
		Text:        fmt.Sprintf("⚠️ Milestone at risk: %s in project %s", m.Name, p.Name),
		Blocks:      blocks,
		ProjectID:   p.ID,
		ProjectName: p.Name,
	}
}
