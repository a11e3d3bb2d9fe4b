package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"marketpulse/server/config"
	"marketpulse/server/internal/api"
	"marketpulse/server/internal/history"
	"marketpulse/server/internal/pipeline"
	"marketpulse/server/internal/scheduler"
)

func main() {
	once := flag.Bool("once", false, "run the pipeline once and exit")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.WithError(err).Fatal("Failed to create data directory")
	}

	store, err := history.NewStore(cfg.HistoryDBPath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize history store")
	}

	p := pipeline.New(cfg, config.Sarasota, store, logger)

	if *once {
		if err := p.Run(); err != nil {
			logger.WithError(err).Fatal("Pipeline run failed")
		}
		return
	}

	sched := scheduler.NewScheduler(p, scheduler.Schedule{
		Weekday:    time.Weekday(cfg.Schedule.Weekday),
		Hour:       cfg.Schedule.Hour,
		RunOnStart: cfg.Schedule.RunOnStart,
	}, logger)
	sched.Start()
	defer sched.Stop()

	router := gin.Default()
	router.Use(cors.Default())
	api.SetupRoutes(router, p, store, logger)

	// Shut the scheduler down cleanly on SIGINT/SIGTERM
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("Shutting down")
		sched.Stop()
		os.Exit(0)
	}()

	logger.WithFields(logrus.Fields{
		"port":    cfg.HTTPPort,
		"market":  config.Sarasota.Name,
		"weekday": time.Weekday(cfg.Schedule.Weekday).String(),
		"hour":    cfg.Schedule.Hour,
	}).Info("Starting report server")
	if err := router.Run(":" + cfg.HTTPPort); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
