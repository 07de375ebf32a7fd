package model

type Project struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	State       string      `json:"state"` // planned / started / completed
	StartDate   string      `json:"startDate,omitempty"`
	EndDate     string      `json:"endDate,omitempty"`
	Milestones  []Milestone `json:"milestones"`
	Members     []string    `json:"members,omitempty"` // member email addresses
}

type Milestone struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	TargetDate  string    `json:"targetDate,omitempty"`
	Status      string    `json:"status"`
	IsOverdue   bool      `json:"isOverdue"`
	Subtasks    []Subtask `json:"subtasks"`
	Estimator   string    `json:"estimator,omitempty"`
}

type Subtask struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"` // defaults to "Backlog" when absent
}

// CreateProjectInput is the payload accepted by project creation, either
// typed into the dashboard form or pre-filled from a parsed SoW draft.
type CreateProjectInput struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	TeamID      string                 `json:"teamId,omitempty"`
	State       string                 `json:"state,omitempty"`
	StartDate   string                 `json:"startDate,omitempty"`
	EndDate     string                 `json:"endDate,omitempty"`
	Members     []string               `json:"members,omitempty"`
	Milestones  []CreateMilestoneInput `json:"milestones,omitempty"`
}

type CreateMilestoneInput struct {
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	TargetDate  string               `json:"targetDate,omitempty"`
	Estimator   string               `json:"estimator,omitempty"`
	Subtasks    []CreateSubtaskInput `json:"subtasks,omitempty"`
}

type CreateSubtaskInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
