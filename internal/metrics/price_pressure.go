package metrics

import (
	"fmt"

	"marketpulse/server/internal/models"
)

// PricePressure returns the most recent four weeks of median sale price
// joined with the sale-to-list ratio, oldest first. The week-over-week
// change is nil for the earliest week in the window; the year-over-year
// change is carried only when the source supplied it.
func (e *Engine) PricePressure(data models.MarketData) []models.PricePressureRow {
	prices := data.Weekly[models.SeriesMedianSalePrice]
	if len(prices) == 0 {
		return nil
	}
	ratios := indexByWeek(data.Weekly[models.SeriesSaleToList])

	window := latestWeeks(prices, 4)
	rows := make([]models.PricePressureRow, 0, len(window))
	for i, p := range window {
		row := models.PricePressureRow{
			Week:        p.PeriodEnd.Format("2006-01-02"),
			MedianPrice: p.Value,
			YoYPct:      p.YoY,
		}

		if i > 0 && window[i-1].Value > 0 {
			row.WoWPct = float64Ptr((p.Value - window[i-1].Value) / window[i-1].Value)
		}

		if ratio, ok := ratios[p.PeriodEnd]; ok {
			row.SaleToList = ratio.Value
			row.Signal = pressureSignal(ratio.Value, row.WoWPct)
		} else {
			row.Signal = "NEUTRAL"
		}

		rows = append(rows, row)
	}
	return rows
}

// pressureSignal classifies the sale-to-list ratio and, when the
// week-over-week delta is known, annotates the price trend direction.
func pressureSignal(ratio float64, wow *float64) string {
	var base string
	switch {
	case ratio > ratioSellersControl:
		base = "SELLERS CONTROL"
	case ratio < ratioBuyersLeverage:
		base = "BUYERS LEVERAGE"
	default:
		base = "NEUTRAL"
	}

	if wow == nil {
		return fmt.Sprintf("%s (ratio %.3f)", base, ratio)
	}
	trend := "trending up"
	if *wow < 0 {
		trend = "trending down"
	}
	return fmt.Sprintf("%s (ratio %.3f, price %s)", base, ratio, trend)
}
