// Package tracking records what target dates each milestone had when its
// project was first observed and decides when drift or silence warrants a
// notification. Per project this is a three-state machine: a fresh record
// becomes REMINDED when the dwell time passes with no change, or
// CHANGE_NOTIFIED the first time a date drifts. The change flag is never
// reset, so a project gets at most one drift notification in its
// lifetime.
package tracking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"projectpulse/internal/dates"
	"projectpulse/internal/model"
	"projectpulse/pkg/clock"
)

type ActionType int

const (
	ActionNone ActionType = iota
	ActionDatesChanged
	ActionReminder
)

// DateChange is one milestone whose current date differs from baseline.
type DateChange struct {
	MilestoneID   string
	MilestoneName string
	OldDate       string
	NewDate       string
}

// Action is the outcome of one evaluation pass.
type Action struct {
	Type        ActionType
	ProjectID   string
	ProjectName string
	Changes     []DateChange              // set for ActionDatesChanged
	Milestones  []model.MilestoneBaseline // set for ActionReminder
}

type Monitor struct {
	store  Store
	clock  clock.Clock
	dwell  time.Duration
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewMonitor(store Store, clk clock.Clock, dwell time.Duration, logger *zap.Logger) *Monitor {
	return &Monitor{
		store:  store,
		clock:  clk,
		dwell:  dwell,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// projectLock serializes read-modify-write cycles per project id so
// concurrent evaluations cannot interleave stale flags with a newer
// rebase.
func (m *Monitor) projectLock(projectID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[projectID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[projectID] = l
	}
	return l
}

// GetOrInit returns the project's tracking record, creating and
// persisting one stamped with the current time and the project's current
// milestone dates when the project is seen for the first time.
func (m *Monitor) GetOrInit(ctx context.Context, project model.Project) (*model.TrackingRecord, error) {
	lock := m.projectLock(project.ID)
	lock.Lock()
	defer lock.Unlock()

	rec, err := m.store.Get(ctx, project.ID)
	if err == nil {
		return rec, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	rec = m.newRecord(project.ID, project.Name, baselinesOf(project.Milestones))
	if err := m.store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist tracking record: %w", err)
	}
	m.logger.Info("Tracking record initialized",
		zap.String("project_id", project.ID),
		zap.Int("milestones", len(rec.Milestones)),
	)
	return rec, nil
}

// RecordBaseline overwrites the tracking record for a project. Called
// right after UI-driven creation so the baseline reflects the dates the
// user entered, not whatever the next tracker fetch returns.
func (m *Monitor) RecordBaseline(ctx context.Context, projectID, projectName string, milestones []model.Milestone) error {
	lock := m.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	rec := m.newRecord(projectID, projectName, baselinesOf(milestones))
	if err := m.store.Put(ctx, rec); err != nil {
		return fmt.Errorf("persist tracking record: %w", err)
	}
	m.logger.Info("Tracking baseline recorded",
		zap.String("project_id", projectID),
		zap.String("project_name", projectName),
	)
	return nil
}

// Evaluate compares the project's current milestone dates against the
// stored baseline. Drift beats the dwell reminder when both would fire in
// the same pass. Flag and baseline mutations are persisted before the
// action is returned.
func (m *Monitor) Evaluate(ctx context.Context, project model.Project) (Action, error) {
	none := Action{Type: ActionNone, ProjectID: project.ID, ProjectName: project.Name}

	lock := m.projectLock(project.ID)
	lock.Lock()
	defer lock.Unlock()

	rec, err := m.store.Get(ctx, project.ID)
	if err == ErrNotFound {
		rec = m.newRecord(project.ID, project.Name, baselinesOf(project.Milestones))
		if err := m.store.Put(ctx, rec); err != nil {
			return none, fmt.Errorf("persist tracking record: %w", err)
		}
		return none, nil
	}
	if err != nil {
		return none, err
	}

	changes := m.detectChanges(rec, project.Milestones)

	if len(changes) > 0 && !rec.DateChangeNotified {
		for _, c := range changes {
			for i := range rec.Milestones {
				if rec.Milestones[i].ID == c.MilestoneID {
					rec.Milestones[i].InitialDate = c.NewDate
				}
			}
		}
		rec.DateChangeNotified = true
		if err := m.store.Put(ctx, rec); err != nil {
			return none, fmt.Errorf("persist tracking record: %w", err)
		}
		m.logger.Info("Milestone dates drifted from baseline",
			zap.String("project_id", project.ID),
			zap.Int("changed", len(changes)),
		)
		return Action{
			Type:        ActionDatesChanged,
			ProjectID:   project.ID,
			ProjectName: rec.ProjectName,
			Changes:     changes,
		}, nil
	}

	if len(changes) == 0 && !rec.ReminderSent && m.clock.Now().Sub(rec.DateSetAt) >= m.dwell {
		rec.ReminderSent = true
		if err := m.store.Put(ctx, rec); err != nil {
			return none, fmt.Errorf("persist tracking record: %w", err)
		}
		m.logger.Info("Dwell elapsed without date confirmation",
			zap.String("project_id", project.ID),
			zap.Duration("dwell", m.dwell),
		)
		return Action{
			Type:        ActionReminder,
			ProjectID:   project.ID,
			ProjectName: rec.ProjectName,
			Milestones:  append([]model.MilestoneBaseline(nil), rec.Milestones...),
		}, nil
	}

	return none, nil
}

func (m *Monitor) detectChanges(rec *model.TrackingRecord, milestones []model.Milestone) []DateChange {
	var changes []DateChange
	for _, ms := range milestones {
		baseline, ok := rec.Baseline(ms.ID)
		if !ok {
			continue
		}
		current := dates.Normalize(ms.TargetDate)
		if current != dates.Normalize(baseline.InitialDate) {
			changes = append(changes, DateChange{
				MilestoneID:   ms.ID,
				MilestoneName: ms.Name,
				OldDate:       baseline.InitialDate,
				NewDate:       current,
			})
		}
	}
	return changes
}

func (m *Monitor) newRecord(projectID, projectName string, baselines []model.MilestoneBaseline) *model.TrackingRecord {
	return &model.TrackingRecord{
		ProjectID:   projectID,
		ProjectName: projectName,
		Milestones:  baselines,
		DateSetAt:   m.clock.Now(),
	}
}

func baselinesOf(milestones []model.Milestone) []model.MilestoneBaseline {
	baselines := make([]model.MilestoneBaseline, 0, len(milestones))
	for _, ms := range milestones {
		baselines = append(baselines, model.MilestoneBaseline{
			ID:          ms.ID,
			Name:        ms.Name,
			InitialDate: dates.Normalize(ms.TargetDate),
		})
	}
	return baselines
}
