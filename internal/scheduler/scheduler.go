package scheduler

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Runner is the unit of scheduled work. The pipeline satisfies it.
type Runner interface {
	Run() error
}

// Schedule pins the weekly run to one weekday and hour.
type Schedule struct {
	Weekday    time.Weekday
	Hour       int
	RunOnStart bool
}

// Scheduler triggers the pipeline on a weekly cadence. A minute ticker
// checks the wall clock; the job mutex keeps a long run from overlapping the
// next trigger.
type Scheduler struct {
	runner       Runner
	schedule     Schedule
	logger       *logrus.Logger
	stopChan     chan struct{}
	wg           sync.WaitGroup
	jobMutex     sync.Mutex
	isStartupRun atomic.Bool
}

// NewScheduler creates a scheduler for the given runner
func NewScheduler(runner Runner, schedule Schedule, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	s := &Scheduler{
		runner:   runner,
		schedule: schedule,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
	s.isStartupRun.Store(schedule.RunOnStart)
	return s
}

// Start begins the scheduled runs
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.runScheduler()
}

func (s *Scheduler) runScheduler() {
	defer s.wg.Done()

	if s.schedule.RunOnStart {
		go func() {
			s.jobMutex.Lock()
			defer s.jobMutex.Unlock()
			s.logger.Info("Running startup pipeline job")
			s.runJob()
			s.isStartupRun.Store(false)
			s.logger.Info("Startup pipeline job completed")
		}()
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case t := <-ticker.C:
			s.executeScheduledJobs(t)
		}
	}
}

func (s *Scheduler) executeScheduledJobs(t time.Time) {
	// Skip if the startup run is still in progress
	if s.isStartupRun.Load() {
		s.logger.Debug("Skipping scheduled jobs while startup is in progress")
		return
	}

	if !s.isDue(t) {
		return
	}

	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	s.logger.WithFields(logrus.Fields{
		"weekday": t.Weekday().String(),
		"hour":    t.Hour(),
	}).Info("Starting scheduled pipeline run")
	s.runJob()
	s.logger.Info("Completed scheduled pipeline run")
}

func (s *Scheduler) isDue(t time.Time) bool {
	return t.Weekday() == s.schedule.Weekday &&
		t.Hour() == s.schedule.Hour &&
		t.Minute() == 0
}

func (s *Scheduler) runJob() {
	if err := s.runner.Run(); err != nil {
		s.logger.WithError(err).Error("Pipeline run failed")
	}
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}
