package metrics

import (
	"fmt"
	"sort"

	"marketpulse/server/internal/models"
	"marketpulse/server/internal/normalize"
)

// FlipDetector pairs consecutive sales of the same account and reports
// resales held between 120 and 365 days whose second sale completed within
// the trailing 180 days. Two data-quality guards run before pairing: bulk
// portfolio transfers (more than three sales sharing an exact date and
// price) are removed, and pairs at or below a -50% markup are discarded as
// anomalies rather than genuine losses.
func (e *Engine) FlipDetector(data models.MarketData) []models.FlipRow {
	if len(data.Sales) == 0 {
		return nil
	}

	sales := removeBulkTransfers(data.Sales)

	byAccount := make(map[string][]models.SaleRecord)
	for _, s := range sales {
		if s.Price <= minMarketSalePrice {
			continue
		}
		key := normalize.AccountID(s.Account)
		byAccount[key] = append(byAccount[key], s)
	}

	parcels := make(map[string]models.Parcel)
	for _, p := range data.Parcels {
		parcels[normalize.AccountID(p.Account)] = p
	}

	now := e.nowFn()
	reportableCutoff := now.AddDate(0, 0, -flipReportableDays)

	var rows []models.FlipRow
	for account, history := range byAccount {
		if len(history) < 2 {
			continue
		}
		sort.Slice(history, func(i, j int) bool {
			return history[i].Date.Before(history[j].Date)
		})

		for i := 1; i < len(history); i++ {
			buy, sell := history[i-1], history[i]

			days := daysBetween(buy.Date, sell.Date)
			if days < flipMinHoldDays || days > flipMaxHoldDays {
				continue
			}
			if buy.Price <= 0 {
				continue
			}
			markup := (sell.Price - buy.Price) / buy.Price
			if markup <= flipLossFloor {
				continue
			}
			if sell.Date.Before(reportableCutoff) {
				continue
			}

			outcome := models.OutcomeLoss
			if sell.Price > buy.Price {
				outcome = models.OutcomeProfitable
			}

			row := models.FlipRow{
				Account:   account,
				Address:   "Address unavailable",
				BuyDate:   buy.Date,
				SellDate:  sell.Date,
				BuyPrice:  buy.Price,
				SellPrice: sell.Price,
				DaysHeld:  days,
				MarkupPct: markup,
				Outcome:   outcome,
			}
			// Enrichment is best-effort; a missing parcel never drops the row.
			if p, ok := parcels[account]; ok {
				if addr := p.SitusAddress(); addr != "" {
					row.Address = addr
				}
				row.LivingArea = p.LivingArea
			}
			rows = append(rows, row)
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SellDate.Equal(rows[j].SellDate) {
			return rows[i].Account < rows[j].Account
		}
		return rows[i].SellDate.After(rows[j].SellDate)
	})

	if len(rows) > e.market.MaxPlausibleFlips {
		e.logger.WithFields(map[string]interface{}{
			"flips":   len(rows),
			"ceiling": e.market.MaxPlausibleFlips,
		}).Warn("Flip count outside plausible range, flagging for review")
	}
	return rows
}

// removeBulkTransfers drops every sale belonging to a group of more than
// three records sharing the exact same date and price. Such groups are
// portfolio or trust transfers, not individual arm's-length resales.
func removeBulkTransfers(sales []models.SaleRecord) []models.SaleRecord {
	groups := make(map[string]int, len(sales))
	key := func(s models.SaleRecord) string {
		return fmt.Sprintf("%s|%.2f", s.Date.Format("2006-01-02"), s.Price)
	}
	for _, s := range sales {
		groups[key(s)]++
	}

	kept := make([]models.SaleRecord, 0, len(sales))
	for _, s := range sales {
		if groups[key(s)] > bulkTransferMaxGroup {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

// FlipSummary renders the headline flip count line for the report.
func FlipSummary(flips []models.FlipRow) string {
	if len(flips) == 0 {
		return "No flips detected"
	}
	var profitable, loss int
	for _, f := range flips {
		if f.Outcome == models.OutcomeProfitable {
			profitable++
		} else {
			loss++
		}
	}
	return fmt.Sprintf("%d total — %d profitable, %d loss", len(flips), profitable, loss)
}
