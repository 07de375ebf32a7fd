// Package sow extracts a structured project draft from statement-of-work
// documents. The source documents come from a known template, so the
// parser is a fixed set of case-insensitive patterns over the whole text,
// not a general document-understanding layer. Every field fails soft: a
// section that matches nothing is simply left empty.
package sow

import (
	"regexp"
	"strings"

	"projectpulse/internal/dates"
)

type Draft struct {
	ProjectName string           `json:"projectName"`
	Description string           `json:"description"`
	StartDate   string           `json:"startDate,omitempty"` // YYYY-MM-DD
	EndDate     string           `json:"endDate,omitempty"`
	Milestones  []MilestoneDraft `json:"milestones"`
}

type MilestoneDraft struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	TargetDate  string         `json:"targetDate,omitempty"`
	Subtasks    []SubtaskDraft `json:"subtasks"`
}

type SubtaskDraft struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

var (
	projectNameRe = regexp.MustCompile(`(?i)Project Name:\s*([^\n]+)`)
	descLabelRe   = regexp.MustCompile(`(?i)Project Description:\s*`)
	datesLabelRe  = regexp.MustCompile(`(?im)^\s*Project Dates:`)
	startDateRe   = regexp.MustCompile(`(?i)Start:\s*(\d{2}/\d{2}/\d{4})`)
	endDateRe     = regexp.MustCompile(`(?i)End:\s*(\d{2}/\d{2}/\d{4})`)

	milestoneRe = regexp.MustCompile(`(?i)Milestone \d+:\s*([^\n]+)`)
	dueDateRe   = regexp.MustCompile(`(?i)\A\s*Due Date:\s*(\d{2}/\d{2}/\d{4})`)
	inlineDueRe = regexp.MustCompile(`(?i)\s*Due Date:\s*(\d{2}/\d{2}/\d{4})\s*$`)

	subtaskSectionRe = regexp.MustCompile(`(?is)(?:Sub-tasks:|Sub-tasks|Subtasks|Tasks:)(.*)`)
	subtaskLineRe    = regexp.MustCompile(`(?m)^\s*(?:[-•*]|\d+\.)\s*([^:\n]+)(?::\s*([^\n]+))?`)
)

// Parse applies the extraction grammar to raw document text. It never
// fails; callers decide which empty fields are acceptable.
func Parse(text string) *Draft {
	draft := &Draft{
		ProjectName: matchLine(projectNameRe, text),
		Description: extractDescription(text),
		Milestones:  []MilestoneDraft{},
	}

	if m := startDateRe.FindStringSubmatch(text); m != nil {
		draft.StartDate = dates.FromUS(m[1])
	}
	if m := endDateRe.FindStringSubmatch(text); m != nil {
		draft.EndDate = dates.FromUS(m[1])
	}

	headers := milestoneRe.FindAllStringSubmatchIndex(text, -1)
	for i, h := range headers {
		name := strings.TrimSpace(text[h[2]:h[3]])

		bodyStart := h[1]
		bodyEnd := len(text)
		if i+1 < len(headers) {
			bodyEnd = headers[i+1][0]
		}
		body := text[bodyStart:bodyEnd]

		// The template puts "Due Date:" on the milestone's logical line;
		// after text extraction it lands either at the tail of the name
		// or at the head of the body.
		targetDate := ""
		if m := inlineDueRe.FindStringSubmatchIndex(name); m != nil {
			targetDate = dates.FromUS(name[m[2]:m[3]])
			name = strings.TrimSpace(name[:m[0]])
		} else if m := dueDateRe.FindStringSubmatch(body); m != nil {
			targetDate = dates.FromUS(m[1])
		}

		draft.Milestones = append(draft.Milestones, MilestoneDraft{
			Name:       name,
			TargetDate: targetDate,
			Subtasks:   extractSubtasks(subtaskSection(body)),
		})
	}

	return draft
}

func matchLine(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// extractDescription captures everything after the description label up
// to the dates section label or end of text.
func extractDescription(text string) string {
	loc := descLabelRe.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	rest := text[loc[1]:]
	if end := datesLabelRe.FindStringIndex(rest); end != nil {
		rest = rest[:end[0]]
	}
	return strings.TrimSpace(rest)
}

func subtaskSection(body string) string {
	if m := subtaskSectionRe.FindStringSubmatch(body); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// extractSubtasks reads bullet or numbered lines; text before an optional
// colon is the subtask name, text after it the description.
func extractSubtasks(text string) []SubtaskDraft {
	subtasks := []SubtaskDraft{}
	for _, m := range subtaskLineRe.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		subtasks = append(subtasks, SubtaskDraft{
			Name:        name,
			Description: strings.TrimSpace(m[2]),
		})
	}
	return subtasks
}
