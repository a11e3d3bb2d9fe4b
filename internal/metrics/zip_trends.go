package metrics

import (
	"sort"
	"strings"

	"marketpulse/server/internal/models"
	"marketpulse/server/internal/normalize"
)

// ZipTrends compares the trailing-12-month median sale price per zip against
// the preceding 12 months. Unlike the buyer value index, low-volume zips are
// kept and annotated: the trend is still directionally informative, it just
// needs a caveat. Swings beyond the outlier threshold are flagged as
// possible single-sale artifacts rather than suppressed.
func (e *Engine) ZipTrends(data models.MarketData) []models.ZipTrendRow {
	if len(data.Parcels) == 0 || len(data.Sales) == 0 {
		return nil
	}

	parcelZip := make(map[string]string)
	for _, p := range data.Parcels {
		if p.Residential() && strings.HasPrefix(p.Zip, e.market.ZipPrefix) {
			parcelZip[normalize.AccountID(p.Account)] = p.Zip
		}
	}

	now := e.nowFn()
	yearAgo := now.AddDate(0, -12, 0)
	nowPrices := make(map[string][]float64)
	priorPrices := make(map[string][]float64)
	for _, s := range data.Sales {
		if s.Price <= minMarketSalePrice || !withinTrailing(s.Date, now, 24) {
			continue
		}
		zip, ok := parcelZip[normalize.AccountID(s.Account)]
		if !ok {
			continue
		}
		if s.Date.After(yearAgo) {
			nowPrices[zip] = append(nowPrices[zip], s.Price)
		} else {
			priorPrices[zip] = append(priorPrices[zip], s.Price)
		}
	}

	var rows []models.ZipTrendRow
	for zip, current := range nowPrices {
		prior := priorPrices[zip]
		if len(prior) == 0 {
			continue
		}
		medianNow := median(current)
		medianPrior := median(prior)
		if medianPrior <= 0 {
			continue
		}

		yoy := (medianNow - medianPrior) / medianPrior
		rows = append(rows, models.ZipTrendRow{
			Zip:         zip,
			MedianNow:   medianNow,
			MedianPrior: medianPrior,
			SaleCount:   len(current),
			YoYChange:   yoy,
			LowVolume:   len(current) < minZipSampleSize,
			Outlier:     yoy > zipTrendOutlierThreshold || yoy < -zipTrendOutlierThreshold,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].YoYChange == rows[j].YoYChange {
			return rows[i].Zip < rows[j].Zip
		}
		return rows[i].YoYChange > rows[j].YoYChange
	})
	return rows
}
