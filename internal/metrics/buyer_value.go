package metrics

import (
	"sort"

	"marketpulse/server/internal/models"
	"marketpulse/server/internal/normalize"
)

// BuyerValue compares the median of actual recent sale prices against the
// average assessed value per zip. Zips with fewer than the minimum sample
// of trailing-12-month sales are dropped, not flagged: a thin median would
// imply false precision. Output is sorted ascending by value ratio, the
// most fairly-priced zips first.
func (e *Engine) BuyerValue(data models.MarketData) []models.BuyerValueRow {
	if len(data.Parcels) == 0 || len(data.Sales) == 0 {
		return nil
	}

	type zipValue struct {
		sum   float64
		count int
	}
	assessed := make(map[string]*zipValue)
	parcelZip := make(map[string]string)
	for _, p := range data.Parcels {
		if !p.Residential() {
			continue
		}
		zv := assessed[p.Zip]
		if zv == nil {
			zv = &zipValue{}
			assessed[p.Zip] = zv
		}
		zv.sum += p.JustValue
		zv.count++
		parcelZip[normalize.AccountID(p.Account)] = p.Zip
	}

	now := e.nowFn()
	salesByZip := make(map[string][]float64)
	for _, s := range data.Sales {
		if s.Price <= minMarketSalePrice || !withinTrailing(s.Date, now, 12) {
			continue
		}
		zip, ok := parcelZip[normalize.AccountID(s.Account)]
		if !ok {
			continue
		}
		salesByZip[zip] = append(salesByZip[zip], s.Price)
	}

	var rows []models.BuyerValueRow
	for zip, prices := range salesByZip {
		if len(prices) < minZipSampleSize {
			continue
		}
		zv := assessed[zip]
		if zv == nil || zv.count == 0 {
			continue
		}
		avgJust := zv.sum / float64(zv.count)
		if avgJust <= 0 {
			continue
		}

		ratio := median(prices) / avgJust
		rows = append(rows, models.BuyerValueRow{
			Zip:             zip,
			AvgJustValue:    avgJust,
			MedianSalePrice: median(prices),
			SaleCount:       len(prices),
			ValueRatio:      ratio,
			Classification:  valueClassification(ratio),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ValueRatio == rows[j].ValueRatio {
			return rows[i].Zip < rows[j].Zip
		}
		return rows[i].ValueRatio < rows[j].ValueRatio
	})
	return rows
}

func valueClassification(ratio float64) string {
	switch {
	case ratio > 1.3:
		return "Well above assessed"
	case ratio > 1.1:
		return "Above assessed"
	case ratio >= 0.95:
		return "Near assessed value"
	default:
		return "Below assessed"
	}
}
