// Package progress holds the pure milestone evaluation rules. Everything
// here is derived from project data and a caller-supplied now; nothing is
// cached, so annotations are always recomputable.
package progress

import (
	"time"

	"projectpulse/internal/dates"
	"projectpulse/internal/model"
)

// DueSoonWindow is how far ahead a milestone's target date may lie and
// still count as due soon.
const DueSoonWindow = 10 * 24 * time.Hour

// AtRiskThreshold is the completion ratio below which a due-soon
// milestone is flagged at risk.
const AtRiskThreshold = 0.70

const StatusDone = "Done"

var terminalStatuses = map[string]bool{
	"Done":      true,
	"Completed": true,
	"Canceled":  true,
}

func IsTerminal(status string) bool {
	return terminalStatuses[status]
}

// IsOverdue reports whether a milestone is past its target date: status
// not terminal, target date present and parseable, and strictly before
// now.
func IsOverdue(m model.Milestone, now time.Time) bool {
	if IsTerminal(m.Status) {
		return false
	}
	target, ok := dates.Parse(m.TargetDate)
	if !ok {
		return false
	}
	return target.Before(now)
}

// Ratio is the fraction of subtasks whose status equals Done, 0 for a
// milestone with no subtasks.
func Ratio(m model.Milestone) float64 {
	if len(m.Subtasks) == 0 {
		return 0
	}
	done := 0
	for _, s := range m.Subtasks {
		if s.Status == StatusDone {
			done++
		}
	}
	return float64(done) / float64(len(m.Subtasks))
}

// IsDueSoon reports whether the target date falls within
// [now, now+DueSoonWindow], both ends inclusive.
func IsDueSoon(m model.Milestone, now time.Time) bool {
	target, ok := dates.Parse(m.TargetDate)
	if !ok {
		return false
	}
	if target.Before(now) {
		return false
	}
	return !target.After(now.Add(DueSoonWindow))
}

// IsAtRisk reports whether a due-soon milestone is under the completion
// threshold. Terminal milestones are never at risk.
func IsAtRisk(m model.Milestone, now time.Time) bool {
	if IsTerminal(m.Status) {
		return false
	}
	return IsDueSoon(m, now) && Ratio(m) < AtRiskThreshold
}

// Annotate recomputes IsOverdue on every milestone of every project.
// Called each time the cache is refreshed or rendered so the flag never
// outlives the data it was derived from.
func Annotate(projects []model.Project, now time.Time) {
	for i := range projects {
		for j := range projects[i].Milestones {
			m := &projects[i].Milestones[j]
			m.IsOverdue = IsOverdue(*m, now)
		}
	}
}

// Overdue flattens all overdue milestones across projects.
func Overdue(projects []model.Project, now time.Time) []model.Milestone {
	var out []model.Milestone
	for _, p := range projects {
		for _, m := range p.Milestones {
			if IsOverdue(m, now) {
				out = append(out, m)
			}
		}
	}
	return out
}
