package metrics

import (
	"sort"

	"marketpulse/server/internal/models"
	"marketpulse/server/internal/normalize"
)

// InvestorActivity estimates the investor share of trailing-12-month sales
// per zip, using the homestead exemption as an owner-occupancy proxy. The
// marker is categorical and compared as a string. Older parcel vintages
// lack the homestead column entirely; that is a capability gap, not an
// error, and yields an empty result.
func (e *Engine) InvestorActivity(data models.MarketData) []models.InvestorRow {
	if !data.Schema.HasHomestead {
		return nil
	}
	if len(data.Parcels) == 0 || len(data.Sales) == 0 {
		return nil
	}

	parcels := make(map[string]models.Parcel)
	for _, p := range data.Parcels {
		parcels[normalize.AccountID(p.Account)] = p
	}

	type zipCount struct {
		total    int
		investor int
	}
	now := e.nowFn()
	counts := make(map[string]*zipCount)
	for _, s := range data.Sales {
		if s.Price <= minMarketSalePrice || !withinTrailing(s.Date, now, 12) {
			continue
		}
		p, ok := parcels[normalize.AccountID(s.Account)]
		if !ok {
			continue
		}
		c := counts[p.Zip]
		if c == nil {
			c = &zipCount{}
			counts[p.Zip] = c
		}
		c.total++
		if p.Homestead != e.market.HomesteadOwnerMarker {
			c.investor++
		}
	}

	rows := make([]models.InvestorRow, 0, len(counts))
	for zip, c := range counts {
		rows = append(rows, models.InvestorRow{
			Zip:           zip,
			SaleCount:     c.total,
			InvestorShare: float64(c.investor) / float64(c.total),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].InvestorShare == rows[j].InvestorShare {
			return rows[i].Zip < rows[j].Zip
		}
		return rows[i].InvestorShare > rows[j].InvestorShare
	})
	return rows
}
