package metrics

import (
	"fmt"

	"marketpulse/server/internal/models"
)

// Market phase labels.
const (
	PhaseBuyers         = "Buyer's Market"
	PhaseShiftingBuyers = "Shifting Toward Buyers"
	PhaseSellers        = "Seller's Market"
	PhaseCoolingSellers = "Cooling Seller's Market"
	PhaseBalanced       = "Balanced"
	PhaseUnavailable    = "Data Unavailable"
)

var phaseHeadlines = map[string]string{
	PhaseBuyers:         "High inventory and softening prices put buyers firmly in control.",
	PhaseShiftingBuyers: "Inventory is piling up; prices are still holding but leverage is moving to buyers.",
	PhaseSellers:        "Tight supply and rising prices keep sellers in the driver's seat.",
	PhaseCoolingSellers: "Supply is still tight but prices have started slipping; the seller's market is cooling.",
	PhaseBalanced:       "Supply and price movement are both in normal ranges; neither side has clear leverage.",
	PhaseUnavailable:    "Not enough source data arrived this period to call the market.",
}

// Snapshot synthesizes the headline market view from the final metric
// outputs. It must run after every metric; each read is guarded so one
// empty upstream table never aborts the synthesis, it only leaves the
// dependent fields unset.
func (e *Engine) Snapshot(r *models.Results) models.MarketSnapshot {
	snap := models.MarketSnapshot{FlipSummary: r.FlipSummary}

	var supply *float64
	var priceDir *float64

	if n := len(r.PricePressure); n > 0 {
		last := r.PricePressure[n-1]
		snap.MedianPrice = float64Ptr(last.MedianPrice)
		if last.YoYPct != nil {
			snap.PriceYoY = fmt.Sprintf("%+.1f%% YoY", *last.YoYPct*100)
		} else {
			snap.PriceYoY = "YoY unavailable"
		}
		// Direction comes from the freshest week-over-week movement,
		// falling back to the source year-over-year delta.
		switch {
		case last.WoWPct != nil:
			priceDir = last.WoWPct
		case last.YoYPct != nil:
			priceDir = last.YoYPct
		}
	}

	if n := len(r.Inventory); n > 0 {
		last := r.Inventory[n-1]
		snap.MonthsOfSupply = float64Ptr(last.MonthsOfSupply)
		snap.SupplyLabel = last.MarketState
		supply = float64Ptr(last.MonthsOfSupply)
	}

	snap.MarketPhase = marketPhase(supply, priceDir)
	snap.Headline = phaseHeadlines[snap.MarketPhase]

	// Hottest zip: strongest positive year-over-year move with a sample
	// large enough to trust.
	for _, zt := range r.ZipTrends {
		if zt.LowVolume || zt.YoYChange <= 0 {
			continue
		}
		if snap.HottestZipYoY == nil || zt.YoYChange > *snap.HottestZipYoY {
			snap.HottestZip = zt.Zip
			snap.HottestZipYoY = float64Ptr(zt.YoYChange)
		}
	}

	// Best value zip: the buyer value index is sorted ascending by ratio.
	if len(r.BuyerValue) > 0 {
		best := r.BuyerValue[0]
		snap.BestValueZip = best.Zip
		snap.BestValueRatio = float64Ptr(best.ValueRatio)
	}

	return snap
}

// marketPhase crosses the supply thresholds with the price direction sign.
// Both inputs are required for a call; otherwise the phase is unavailable.
func marketPhase(supply, priceDir *float64) string {
	if supply == nil || priceDir == nil {
		return PhaseUnavailable
	}
	switch {
	case *supply >= supplyBuyerThreshold:
		if *priceDir < 0 {
			return PhaseBuyers
		}
		return PhaseShiftingBuyers
	case *supply <= supplySellerThreshold:
		if *priceDir >= 0 {
			return PhaseSellers
		}
		return PhaseCoolingSellers
	default:
		return PhaseBalanced
	}
}
