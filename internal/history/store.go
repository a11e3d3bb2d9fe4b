package history

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"marketpulse/server/internal/models"
)

// retentionDays bounds the trend history kept on disk. Four weeks covers the
// report's comparison window with headroom.
const retentionDays = 28

// RunRecord is one metric's row count from one pipeline run.
type RunRecord struct {
	ID        uint      `gorm:"primaryKey"`
	RunID     string    `gorm:"index"`
	RunDate   time.Time `gorm:"index"`
	Metric    string
	RowCount  int
	CreatedAt time.Time
}

// Store persists per-run metric summaries to SQLite so consecutive reports
// can compare against prior weeks.
type Store struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewStore opens (or creates) the history database and runs migrations
func NewStore(path string, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.AutoMigrate(&RunRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// SaveRun records one run's per-metric row counts. A run where every metric
// came back empty is not committed; an all-empty run means the sources
// failed, and recording it would poison week-over-week comparisons.
func (s *Store) SaveRun(results *models.Results) error {
	counts := results.RowCounts()

	var total int
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return fmt.Errorf("refusing to record run %s: every metric is empty", results.RunID)
	}

	records := make([]RunRecord, 0, len(counts))
	for metric, n := range counts {
		records = append(records, RunRecord{
			RunID:    results.RunID,
			RunDate:  results.GeneratedAt,
			Metric:   metric,
			RowCount: n,
		})
	}

	if err := s.db.Create(&records).Error; err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"run_id":  results.RunID,
		"metrics": len(records),
	}).Info("Run recorded in history")
	return nil
}

// Prune removes records older than the retention window.
func (s *Store) Prune() (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	res := s.db.Where("run_date < ?", cutoff).Delete(&RunRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune history: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		s.logger.WithField("removed", res.RowsAffected).Info("Pruned old history records")
	}
	return res.RowsAffected, nil
}

// LatestRunDate returns the date of the most recent recorded run, or the
// zero time when no runs exist.
func (s *Store) LatestRunDate() (time.Time, error) {
	var record RunRecord
	err := s.db.Order("run_date DESC").First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read history: %w", err)
	}
	return record.RunDate, nil
}

// RunCounts returns the per-metric row counts recorded for one run.
func (s *Store) RunCounts(runID string) (map[string]int, error) {
	var records []RunRecord
	if err := s.db.Where("run_id = ?", runID).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	counts := make(map[string]int, len(records))
	for _, r := range records {
		counts[r.Metric] = r.RowCount
	}
	return counts, nil
}
