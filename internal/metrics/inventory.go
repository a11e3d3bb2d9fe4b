package metrics

import "marketpulse/server/internal/models"

// Inventory returns the latest four weeks of supply and absorption figures.
// The source supplies the year-over-year movement of supply as an absolute
// delta; it is converted to a ratio against the year-ago level and reported
// as unavailable when the denominator is non-positive.
func (e *Engine) Inventory(data models.MarketData) []models.InventoryRow {
	supply := data.Weekly[models.SeriesMonthsSupply]
	if len(supply) == 0 {
		return nil
	}
	listings := indexByWeek(data.Weekly[models.SeriesNewListings])
	sold := indexByWeek(data.Weekly[models.SeriesHomesSold])

	window := latestWeeks(supply, 4)
	rows := make([]models.InventoryRow, 0, len(window))
	for _, p := range window {
		row := models.InventoryRow{
			Week:           p.PeriodEnd.Format("2006-01-02"),
			MonthsOfSupply: p.Value,
			MarketState:    supplyState(p.Value),
		}

		if p.YoY != nil {
			// yearAgo = current - delta; a non-positive year-ago level makes
			// the ratio meaningless, so it stays unavailable.
			if yearAgo := p.Value - *p.YoY; yearAgo > 0 {
				row.SupplyYoYRatio = float64Ptr(*p.YoY / yearAgo)
			}
		}
		if l, ok := listings[p.PeriodEnd]; ok {
			row.NewListings = l.Value
		}
		if s, ok := sold[p.PeriodEnd]; ok {
			row.HomesSold = s.Value
		}

		rows = append(rows, row)
	}
	return rows
}

func supplyState(monthsOfSupply float64) string {
	switch {
	case monthsOfSupply > supplyBuyerThreshold:
		return "Buyer's Market"
	case monthsOfSupply < supplySellerThreshold:
		return "Seller's Market"
	default:
		return "Balanced Market"
	}
}
