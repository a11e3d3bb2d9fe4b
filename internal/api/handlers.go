package api

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"marketpulse/server/internal/history"
	"marketpulse/server/internal/pipeline"
)

type Handler struct {
	pipeline *pipeline.Pipeline
	store    *history.Store
	logger   *logrus.Logger
}

func NewHandler(p *pipeline.Pipeline, store *history.Store, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		pipeline: p,
		store:    store,
		logger:   logger,
	}
}

// GetLatestReport returns the most recent run's full metric tables.
func (h *Handler) GetLatestReport(c *gin.Context) {
	results := h.pipeline.Latest()
	if results == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no completed run yet"})
		return
	}
	c.JSON(http.StatusOK, results)
}

// GetStatus returns the per-source outcome of the most recent run plus the
// last recorded run date.
func (h *Handler) GetStatus(c *gin.Context) {
	status := h.pipeline.LastStatus()

	lastRecorded, err := h.store.LatestRunDate()
	if err != nil {
		h.logger.WithError(err).Error("Failed to read run history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read run history"})
		return
	}

	resp := gin.H{"status": status}
	if !lastRecorded.IsZero() {
		resp["last_recorded_run"] = lastRecorded
	}
	c.JSON(http.StatusOK, resp)
}

// GetHealth is a liveness probe.
func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// TriggerRun starts a pipeline run in the background. Overlapping triggers
// queue behind the run mutex.
func (h *Handler) TriggerRun(c *gin.Context) {
	go func() {
		if err := h.pipeline.Run(); err != nil {
			h.logger.WithError(err).Error("Manually triggered run failed")
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"message": "pipeline run started"})
}
