package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"projectpulse/internal/handler"
)

type Router struct {
	Engine *gin.Engine
}

// ReadyCheck reports whether a downstream dependency is usable.
type ReadyCheck func() bool

func NewRouter(
	authHandler *handler.AuthHandler,
	projectHandler *handler.ProjectHandler,
	uploadHandler *handler.UploadHandler,
	notifyHandler *handler.NotifyHandler,
	jwtSecret string,
	ready ReadyCheck,
	logger *zap.Logger,
) *Router {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))
	r.MaxMultipartMemory = handler.MaxSowSize

	// Operational
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if !ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	r.POST("/login", authHandler.Login)
	r.GET("/api/projects", projectHandler.ListProjects)
	r.GET("/api/overdue-milestones", projectHandler.OverdueMilestones)

	// Protected
	api := r.Group("/api")
	api.Use(AuthMiddleware(jwtSecret))
	{
		api.POST("/refresh", projectHandler.Refresh)
		api.POST("/projects", projectHandler.CreateProject)
		api.POST("/upload-sow", uploadHandler.UploadSoW)
		api.POST("/notify/date-reminder", notifyHandler.DateReminder)
		api.POST("/notify/progress", notifyHandler.Progress)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
