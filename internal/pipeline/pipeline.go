package pipeline

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"marketpulse/server/config"
	"marketpulse/server/internal/history"
	"marketpulse/server/internal/ingest"
	"marketpulse/server/internal/metrics"
	"marketpulse/server/internal/models"
	"marketpulse/server/internal/report"
)

// Pipeline wires the run phases together: refresh and load the sources,
// compute the metric tables, record the run, deliver the report. One run at
// a time; overlapping triggers queue behind the mutex.
type Pipeline struct {
	cfg        *config.Config
	market     config.Market
	downloader *ingest.Downloader
	loader     *ingest.Loader
	engine     *metrics.Engine
	store      *history.Store
	mailer     *report.Mailer
	logger     *logrus.Logger

	runMu sync.Mutex

	mu         sync.RWMutex
	latest     *models.Results
	lastStatus models.PipelineStatus
}

// New assembles a pipeline for the configured market
func New(cfg *config.Config, market config.Market, store *history.Store, logger *logrus.Logger) *Pipeline {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Pipeline{
		cfg:        cfg,
		market:     market,
		downloader: ingest.NewDownloader(cfg, market, logger),
		loader:     ingest.NewLoader(cfg.DataDir, market, logger),
		engine:     metrics.NewEngine(market, logger),
		store:      store,
		mailer:     report.NewMailer(cfg, market, logger),
		logger:     logger,
	}
}

// Run executes one full pipeline pass. Phase failures degrade the run rather
// than abort it: whatever was computed still gets recorded and delivered.
func (p *Pipeline) Run() error {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	runID := uuid.New().String()
	log := p.logger.WithField("run_id", runID)
	log.Info("Pipeline run starting")

	// Phase 1: ingest.
	if p.cfg.Download.Enabled {
		if err := p.downloader.Refresh(); err != nil {
			// The loaders fall back to whatever snapshot is on disk.
			log.WithError(err).Error("County snapshot refresh failed, using local files")
		}
	}
	data, status := p.loader.LoadAll(runID)

	if status.AllFailed() {
		log.Error("Every source failed to load, sending degraded report")
		p.setLatest(nil, status)
		return p.deliverDegraded(status)
	}

	// Phase 2: transform.
	results := p.engine.Run(data)
	results.RunID = runID
	results.GeneratedAt = status.StartedAt
	status.Duration = time.Since(status.StartedAt)
	p.setLatest(results, status)

	// Phase 3: history. A bookkeeping failure never blocks delivery.
	if err := p.store.SaveRun(results); err != nil {
		log.WithError(err).Error("Failed to record run history")
	} else if _, err := p.store.Prune(); err != nil {
		log.WithError(err).Error("Failed to prune run history")
	}

	// Phase 4: deliver.
	html, err := report.Render(report.ReportData{
		Market:  p.market.Name,
		Date:    status.StartedAt.Format("January 2, 2006"),
		Results: results,
		Status:  status,
	})
	if err != nil {
		log.WithError(err).Error("Failed to render report")
		return err
	}
	if err := p.mailer.Send(p.mailer.Subject(status.StartedAt, false), html); err != nil {
		log.WithError(err).Error("Failed to deliver report")
		return err
	}

	log.WithField("duration", status.Duration.String()).Info("Pipeline run complete")
	return nil
}

func (p *Pipeline) deliverDegraded(status models.PipelineStatus) error {
	html, err := report.Render(report.ReportData{
		Market:      p.market.Name,
		Date:        status.StartedAt.Format("January 2, 2006"),
		Degraded:    true,
		FailedNames: status.FailedSources(),
		Status:      status,
	})
	if err != nil {
		return err
	}
	return p.mailer.Send(p.mailer.Subject(status.StartedAt, true), html)
}

func (p *Pipeline) setLatest(results *models.Results, status models.PipelineStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latest = results
	p.lastStatus = status
}

// Latest returns the most recent run's results, or nil before the first
// successful run.
func (p *Pipeline) Latest() *models.Results {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// LastStatus returns the source statuses of the most recent run.
func (p *Pipeline) LastStatus() models.PipelineStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastStatus
}
