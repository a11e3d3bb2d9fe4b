// Package metrics implements the transformation core: eight independent
// market signal computations over the loaded source tables, plus the final
// market snapshot synthesis. Every function here is deterministic for a
// fixed clock and never mutates its inputs.
package metrics

import (
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"marketpulse/server/config"
	"marketpulse/server/internal/models"
)

// Fixed data-quality and signal thresholds. These are product definitions,
// not tunables.
const (
	// Sales at or below this price are nominal transfers, not market sales
	minMarketSalePrice = 10000

	// Minimum qualifying sales for a zip-level median to be trustworthy
	minZipSampleSize = 20

	// Inclusive hold window that marks a resale as a flip
	flipMinHoldDays = 120
	flipMaxHoldDays = 365

	// Pairs at or below this markup are data anomalies, not losses
	flipLossFloor = -0.50

	// Only flips completed within this window are reportable
	flipReportableDays = 180

	// Sale groups larger than this sharing an exact date and price are
	// portfolio transfers
	bulkTransferMaxGroup = 3

	// Zip-level swings beyond this are flagged as possible artifacts
	zipTrendOutlierThreshold = 0.40

	// Supply classification bounds
	supplyBuyerThreshold  = 18.0
	supplySellerThreshold = 8.0

	// Sale-to-list signal bounds
	ratioSellersControl = 1.00
	ratioBuyersLeverage = 0.96

	// Relative flow-ratio movement that counts as a direction change
	flowDirectionThreshold = 0.001
)

// Engine computes all metric tables for one market. The metrics have no
// data dependency on one another and run in parallel; only the snapshot
// synthesis is ordered after them.
type Engine struct {
	market config.Market
	logger *logrus.Logger
	nowFn  func() time.Time
}

// NewEngine creates a metric engine for the given market.
func NewEngine(market config.Market, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Engine{
		market: market,
		logger: logger,
		nowFn:  time.Now,
	}
}

// Run computes every metric and the market snapshot. The returned Results
// always carries one table per defined metric; a failed or empty source
// yields an empty table, never a missing entry.
func (e *Engine) Run(data models.MarketData) *models.Results {
	res := &models.Results{GeneratedAt: e.nowFn()}

	var wg sync.WaitGroup
	compute := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					e.logger.WithField("metric", name).
						Errorf("Metric computation failed, degrading to empty result: %v", r)
				}
			}()
			fn()
		}()
	}

	// Each goroutine writes a distinct Results field over read-only input.
	compute(models.MetricPricePressure, func() { res.PricePressure = e.PricePressure(data) })
	compute(models.MetricInventory, func() { res.Inventory = e.Inventory(data) })
	compute(models.MetricBuyerValue, func() { res.BuyerValue = e.BuyerValue(data) })
	compute(models.MetricTrendLines, func() { res.Trends = e.TrendLines(data) })
	compute(models.MetricZipTrends, func() { res.ZipTrends = e.ZipTrends(data) })
	compute(models.MetricAssessment, func() { res.Assessment = e.AssessmentRatio(data) })
	compute(models.MetricFlips, func() { res.Flips = e.FlipDetector(data) })
	compute(models.MetricInvestors, func() { res.Investors = e.InvestorActivity(data) })
	wg.Wait()

	// The snapshot reads the final metric outputs and must run last.
	res.FlipSummary = FlipSummary(res.Flips)
	res.Snapshot = e.Snapshot(res)

	for name, count := range res.RowCounts() {
		e.logger.WithFields(logrus.Fields{
			"metric": name,
			"rows":   count,
		}).Info("Metric computed")
	}

	return res
}
