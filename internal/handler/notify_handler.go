package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projectpulse/internal/cache"
	"projectpulse/internal/model"
	"projectpulse/internal/notify"
	"projectpulse/internal/progress"
	"projectpulse/internal/tracking"
	"projectpulse/pkg/clock"
)

// NotifyHandler exposes manual triggers for the notifications the
// scheduler normally sends on its own cadence.
type NotifyHandler struct {
	cache      *cache.ProjectCache
	monitor    *tracking.Monitor
	dispatcher Dispatcher
	clock      clock.Clock
	dwell      time.Duration
	logger     *zap.Logger
}

func NewNotifyHandler(cache *cache.ProjectCache, monitor *tracking.Monitor, dispatcher Dispatcher, clk clock.Clock, dwell time.Duration, logger *zap.Logger) *NotifyHandler {
	return &NotifyHandler{
		cache:      cache,
		monitor:    monitor,
		dispatcher: dispatcher,
		clock:      clk,
		dwell:      dwell,
		logger:     logger,
	}
}

type notifyRequest struct {
	ProjectID   string `json:"projectId"`
	MilestoneID string `json:"milestoneId,omitempty"`
}

func (h *NotifyHandler) findProject(c *gin.Context, projectID string) (*model.Project, bool) {
	projects, err := h.cache.Get(c.Request.Context())
	if err != nil {
		h.logger.Error("Notify: failed to fetch projects", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch projects"})
		return nil, false
	}
	for i := range projects {
		if projects[i].ID == projectID {
			return &projects[i], true
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Project not found"})
	return nil, false
}

// DateReminder runs the tracking evaluation for one project on demand
// and dispatches whatever action falls out. The state machine keeps its
// once-only guarantees; a project with nothing pending reports "none".
func (h *NotifyHandler) DateReminder(c *gin.Context) {
	var req notifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProjectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "projectId is required"})
		return
	}

	project, ok := h.findProject(c, req.ProjectID)
	if !ok {
		return
	}

	action, err := h.monitor.Evaluate(c.Request.Context(), *project)
	if err != nil {
		h.logger.Error("DateReminder: tracking evaluation failed",
			zap.String("project_id", req.ProjectID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to evaluate tracking state"})
		return
	}

	var kind string
	switch action.Type {
	case tracking.ActionDatesChanged:
		kind = "dates_changed"
		err = h.dispatcher.Dispatch(notify.ComposeDateDrift(action))
	case tracking.ActionReminder:
		kind = "reminder"
		err = h.dispatcher.Dispatch(notify.ComposeDateReminder(action, h.dwell))
	default:
		kind = "none"
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to send notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "action": kind})
}

// Progress sends at-risk alerts for one project, or for a single
// milestone when milestoneId is given.
func (h *NotifyHandler) Progress(c *gin.Context) {
	var req notifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProjectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "projectId is required"})
		return
	}

	project, ok := h.findProject(c, req.ProjectID)
	if !ok {
		return
	}

	now := h.clock.Now()
	var sent int
	for _, m := range project.Milestones {
		if req.MilestoneID != "" && m.ID != req.MilestoneID {
			continue
		}
		if !progress.IsAtRisk(m, now) {
			continue
		}
		if err := h.dispatcher.Dispatch(notify.ComposeProgressAtRisk(*project, m, progress.Ratio(m))); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to send notification"})
			return
		}
		sent++
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "sent": sent})
}
