package metrics

import (
	"sort"

	"marketpulse/server/internal/models"
	"marketpulse/server/internal/normalize"
)

// AssessmentRatio computes the per-zip median of sale price over assessed
// value for trailing-12-month sales. Sorted ascending, the most
// buyer-favorable zips first.
func (e *Engine) AssessmentRatio(data models.MarketData) []models.AssessmentRow {
	if len(data.Parcels) == 0 || len(data.Sales) == 0 {
		return nil
	}

	type parcelRef struct {
		zip  string
		just float64
	}
	parcels := make(map[string]parcelRef)
	for _, p := range data.Parcels {
		if p.JustValue > 0 {
			parcels[normalize.AccountID(p.Account)] = parcelRef{zip: p.Zip, just: p.JustValue}
		}
	}

	now := e.nowFn()
	ratiosByZip := make(map[string][]float64)
	for _, s := range data.Sales {
		if s.Price <= minMarketSalePrice || !withinTrailing(s.Date, now, 12) {
			continue
		}
		ref, ok := parcels[normalize.AccountID(s.Account)]
		if !ok {
			continue
		}
		ratiosByZip[ref.zip] = append(ratiosByZip[ref.zip], s.Price/ref.just)
	}

	rows := make([]models.AssessmentRow, 0, len(ratiosByZip))
	for zip, ratios := range ratiosByZip {
		m := median(ratios)
		rows = append(rows, models.AssessmentRow{
			Zip:         zip,
			MedianRatio: m,
			SaleCount:   len(ratios),
			Label:       assessmentLabel(m),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].MedianRatio == rows[j].MedianRatio {
			return rows[i].Zip < rows[j].Zip
		}
		return rows[i].MedianRatio < rows[j].MedianRatio
	})
	return rows
}

func assessmentLabel(ratio float64) string {
	switch {
	case ratio < 0.95:
		return "below assessed / buyer value"
	case ratio < 1.05:
		return "near assessed / fair market"
	case ratio < 1.20:
		return "above assessed / competitive"
	default:
		return "well above / high demand"
	}
}
