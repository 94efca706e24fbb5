package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shreyas/cadence/api"
	"github.com/shreyas/cadence/scheduler"
	"github.com/shreyas/cadence/scheduler/notifier"
)

// Setup registers all HTTP routes against the given Scheduler. redisNotifier
// may be nil; when present, it backs the /v1/track/events endpoint.
func Setup(s *scheduler.Scheduler, redisNotifier *notifier.RedisNotifier) *gin.Engine {
	router := gin.Default()

	h := &api.Handlers{Scheduler: s}

	router.GET("/", rootHandler)
	router.GET("/health", healthHandler)
	router.GET("/health/deep", deepHealthHandler(s, redisNotifier))

	v1 := router.Group("/v1")
	{
		definitions := v1.Group("/definitions")
		{
			definitions.GET("", h.ListDefinitions)
			definitions.DELETE("/:id", h.RemoveDefinition)
			definitions.POST("/:id/force-start", h.ForceStartDefinition)
		}

		schedule := v1.Group("/schedule")
		{
			schedule.POST("/http-job", h.ScheduleHTTPJob)
		}

		track := v1.Group("/track")
		{
			track.GET("/executions", h.TrackExecutions)
			if redisNotifier != nil {
				rh := &api.RedisHandlers{Handlers: h, Notifier: redisNotifier}
				track.GET("/events", rh.TrackEvents)
			}
		}
	}

	return router
}

func rootHandler(c *gin.Context) {
	c.String(http.StatusOK, "cadence - in-process job scheduler")
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func deepHealthHandler(s *scheduler.Scheduler, redisNotifier *notifier.RedisNotifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		dispatchLoopUp := s.IsRunning()
		checks := gin.H{"dispatch_loop": dispatchLoopUp}

		healthy := dispatchLoopUp

		if redisNotifier != nil {
			redisUp := redisNotifier.Ping(c.Request.Context()) == nil
			checks["redis"] = redisUp
			healthy = healthy && redisUp
		}

		status := "healthy"
		code := http.StatusOK
		if !healthy {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "checks": checks})
	}
}
