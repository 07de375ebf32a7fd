package model

import "time"

// MilestoneBaseline is the snapshot of a milestone's target date taken
// when its project was first observed.
type MilestoneBaseline struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	InitialDate string `json:"initialDate"` // YYYY-MM-DD, may be empty
}

// TrackingRecord captures per-project baseline dates and the notification
// flags gating drift and reminder messages. Records are created lazily,
// mutated only by the tracking monitor and never deleted.
type TrackingRecord struct {
	ProjectID          string              `json:"projectId"`
	ProjectName        string              `json:"projectName"`
	Milestones         []MilestoneBaseline `json:"milestones"`
	ReminderSent       bool                `json:"reminderSent"`
	DateChangeNotified bool                `json:"dateChangeNotified"`
	DateSetAt          time.Time           `json:"dateSetAt"`
}

func (r *TrackingRecord) Baseline(milestoneID string) (MilestoneBaseline, bool) {
	for _, b := range r.Milestones {
		if b.ID == milestoneID {
			return b, true
		}
	}
	return MilestoneBaseline{}, false
}
