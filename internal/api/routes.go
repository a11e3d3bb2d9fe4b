package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"marketpulse/server/internal/history"
	"marketpulse/server/internal/pipeline"
)

func SetupRoutes(router *gin.Engine, p *pipeline.Pipeline, store *history.Store, logger *logrus.Logger) {
	handler := NewHandler(p, store, logger)

	api := router.Group("/api")
	{
		api.GET("/report/latest", handler.GetLatestReport)
		api.GET("/status", handler.GetStatus)
		api.GET("/health", handler.GetHealth)
		api.POST("/run", handler.TriggerRun)
	}
}
