package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projectpulse/contracts/mq"
	"projectpulse/internal/cache"
	"projectpulse/internal/model"
	"projectpulse/internal/notify"
	"projectpulse/internal/progress"
	"projectpulse/internal/tracking"
	"projectpulse/pkg/clock"
)

// Creator is the slice of the tracker client project creation needs.
type Creator interface {
	CreateProject(ctx context.Context, input model.CreateProjectInput) (*model.Project, error)
}

// Dispatcher is the slice of the notification dispatcher handlers need.
type Dispatcher interface {
	Dispatch(payload mq.NotificationCreatedPayload) error
}

type ProjectHandler struct {
	cache      *cache.ProjectCache
	creator    Creator
	monitor    *tracking.Monitor
	dispatcher Dispatcher
	clock      clock.Clock
	logger     *zap.Logger
}

func NewProjectHandler(cache *cache.ProjectCache, creator Creator, monitor *tracking.Monitor, dispatcher Dispatcher, clk clock.Clock, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		cache:      cache,
		creator:    creator,
		monitor:    monitor,
		dispatcher: dispatcher,
		clock:      clk,
		logger:     logger,
	}
}

func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.cache.Get(c.Request.Context())
	if err != nil {
		h.logger.Error("ListProjects: failed to fetch projects", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch projects"})
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *ProjectHandler) OverdueMilestones(c *gin.Context) {
	projects, err := h.cache.Get(c.Request.Context())
	if err != nil {
		h.logger.Error("OverdueMilestones: failed to fetch projects", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to check overdue milestones"})
		return
	}
	c.JSON(http.StatusOK, progress.Overdue(projects, h.clock.Now()))
}

func (h *ProjectHandler) Refresh(c *gin.Context) {
	_, err := h.cache.Refresh(c.Request.Context())
	if err != nil {
		h.logger.Error("Refresh: failed to refresh projects", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to refresh data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Data refreshed successfully",
		"lastUpdated": h.cache.LastUpdated(),
	})
}

// CreateProject creates a project with nested milestones and sub-tasks,
// records the milestone date baselines and announces the project. A
// failure partway through surfaces the failed step; nothing is rolled
// back.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var input model.CreateProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("CreateProject: malformed body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}
	if input.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Project name is required"})
		return
	}

	h.logger.Info("CreateProject request received",
		zap.String("name", input.Name),
		zap.Int("milestones", len(input.Milestones)),
	)

	project, err := h.creator.CreateProject(c.Request.Context(), input)
	if err != nil {
		h.logger.Error("CreateProject: creation failed",
			zap.String("name", input.Name),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := h.monitor.RecordBaseline(c.Request.Context(), project.ID, project.Name, project.Milestones); err != nil {
		// Creation succeeded; baseline loss only delays drift detection.
		h.logger.Error("CreateProject: failed to record baseline",
			zap.String("project_id", project.ID),
			zap.Error(err),
		)
	}

	if err := h.dispatcher.Dispatch(notify.ComposeProjectCreated(*project)); err != nil {
		h.logger.Error("CreateProject: failed to announce project",
			zap.String("project_id", project.ID),
			zap.Error(err),
		)
	}
	for _, m := range project.Milestones {
		if m.Estimator == "" {
			continue
		}
		if err := h.dispatcher.Dispatch(notify.ComposeMilestoneAssigned(*project, m)); err != nil {
			h.logger.Error("CreateProject: failed to notify estimator",
				zap.String("milestone", m.Name),
				zap.Error(err),
			)
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Project created successfully",
		"project": project,
	})
}
