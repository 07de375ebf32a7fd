// Package cache owns the process-local copy of tracker data. The cache
// is replaced wholesale on every successful refresh; there is no
// incremental merge.
package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"projectpulse/internal/model"
	"projectpulse/internal/progress"
	"projectpulse/pkg/clock"
	"projectpulse/pkg/metrics"
)

// Fetcher pulls the full project list from the external tracker.
type Fetcher interface {
	FetchProjects(ctx context.Context) ([]model.Project, error)
}

type ProjectCache struct {
	fetcher Fetcher
	clock   clock.Clock
	logger  *zap.Logger

	mu          sync.RWMutex
	projects    []model.Project
	lastUpdated time.Time
}

func NewProjectCache(fetcher Fetcher, clk clock.Clock, logger *zap.Logger) *ProjectCache {
	return &ProjectCache{
		fetcher: fetcher,
		clock:   clk,
		logger:  logger,
	}
}

// Refresh fetches everything from the tracker and replaces the cache.
// A failed fetch leaves the previous contents in place.
func (c *ProjectCache) Refresh(ctx context.Context) ([]model.Project, error) {
	started := c.clock.Now()
	projects, err := c.fetcher.FetchProjects(ctx)
	if err != nil {
		metrics.RecordRefresh("failed", 0)
		c.logger.Error("Project refresh failed", zap.Error(err))
		return nil, err
	}

	now := c.clock.Now()
	progress.Annotate(projects, now)

	c.mu.Lock()
	c.projects = projects
	c.lastUpdated = now
	c.mu.Unlock()

	metrics.RecordRefresh("success", now.Sub(started))
	c.logger.Info("Project cache refreshed",
		zap.Int("projects", len(projects)),
	)
	return projects, nil
}

// Get returns the cached projects with overdue flags recomputed against
// the current time, fetching first if the cache has never been filled.
func (c *ProjectCache) Get(ctx context.Context) ([]model.Project, error) {
	c.mu.RLock()
	empty := len(c.projects) == 0
	c.mu.RUnlock()

	if empty {
		return c.Refresh(ctx)
	}

	c.mu.RLock()
	projects := make([]model.Project, len(c.projects))
	for i, p := range c.projects {
		projects[i] = p
		// Milestones are copied so recomputing overdue flags for this
		// read never writes into the shared cache contents.
		projects[i].Milestones = append([]model.Milestone(nil), p.Milestones...)
	}
	c.mu.RUnlock()

	progress.Annotate(projects, c.clock.Now())
	return projects, nil
}

func (c *ProjectCache) LastUpdated() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastUpdated
}
