package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/http/handler"
)

func SetupRoutes(router *gin.Engine, triage *handler.TriageHandler) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.POST("/triage", triage.Classify)
		v1.POST("/triage/async", triage.Enqueue)
		v1.GET("/triage/task/:task_id", triage.GetTask)
		v1.GET("/triage/:uid", triage.GetResult)
		v1.GET("/dlq", triage.ListDeadLetters)
	}
}
