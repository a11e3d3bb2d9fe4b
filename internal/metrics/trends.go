package metrics

import (
	"sort"
	"time"

	"marketpulse/server/internal/models"
)

// TrendLines returns the most recent six months of home-value and rent
// index levels, with the gross rent flow ratio and the gap between index
// value and the county-wide average assessed value. Direction tracks the
// month-over-month movement of the flow ratio; the first month of the
// window has no prior comparator and reports Flat.
func (e *Engine) TrendLines(data models.MarketData) []models.TrendRow {
	if len(data.ZHVI) == 0 || len(data.ZORI) == 0 {
		return nil
	}

	zori := make(map[time.Time]float64, len(data.ZORI))
	for _, p := range data.ZORI {
		zori[p.Month] = p.Value
	}

	joined := make([]models.IndexPoint, 0, len(data.ZHVI))
	for _, p := range data.ZHVI {
		if _, ok := zori[p.Month]; ok && p.Value > 0 {
			joined = append(joined, p)
		}
	}
	if len(joined) == 0 {
		return nil
	}
	sort.Slice(joined, func(i, j int) bool {
		return joined[i].Month.Before(joined[j].Month)
	})
	if len(joined) > 6 {
		joined = joined[len(joined)-6:]
	}

	avgJust := countyAvgJustValue(data.Parcels)

	rows := make([]models.TrendRow, 0, len(joined))
	var prevFlow float64
	for i, p := range joined {
		flow := zori[p.Month] * 12 / p.Value

		direction := "Flat"
		if i > 0 && prevFlow > 0 {
			change := (flow - prevFlow) / prevFlow
			switch {
			case change > flowDirectionThreshold:
				direction = "Expanding"
			case change < -flowDirectionThreshold:
				direction = "Compressing"
			}
		}
		prevFlow = flow

		row := models.TrendRow{
			Month:     p.Month.Format("2006-01"),
			ZHVI:      p.Value,
			ZORI:      zori[p.Month],
			FlowRatio: flow,
			Direction: direction,
		}
		if avgJust > 0 {
			row.AppraisalGap = (p.Value - avgJust) / avgJust
		}
		rows = append(rows, row)
	}
	return rows
}

// countyAvgJustValue averages the assessed value over residential parcels.
func countyAvgJustValue(parcels []models.Parcel) float64 {
	var sum float64
	var count int
	for _, p := range parcels {
		if p.Residential() {
			sum += p.JustValue
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
