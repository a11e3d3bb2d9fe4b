package models

import "time"

// Stable metric names, used as keys in the results mapping, the run history
// and the rendered report.
const (
	MetricPricePressure = "price_pressure"
	MetricInventory     = "inventory_absorption"
	MetricBuyerValue    = "buyer_value_index"
	MetricTrendLines    = "trend_lines"
	MetricZipTrends     = "zip_price_trends"
	MetricAssessment    = "assessment_ratio"
	MetricFlips         = "flip_detector"
	MetricInvestors     = "investor_activity"
)

// Flip outcomes.
const (
	OutcomeProfitable = "PROFITABLE"
	OutcomeLoss       = "LOSS"
)

// PricePressureRow is one week of the price pressure index. WoWPct is nil
// for the earliest week in the window; YoYPct is nil when the source did not
// supply a year-over-year column.
type PricePressureRow struct {
	Week        string   `json:"week"`
	MedianPrice float64  `json:"median_price"`
	WoWPct      *float64 `json:"wow_pct,omitempty"`
	YoYPct      *float64 `json:"yoy_pct,omitempty"`
	SaleToList  float64  `json:"sale_to_list"`
	Signal      string   `json:"signal"`
}

// InventoryRow is one week of supply and absorption figures. SupplyYoYRatio
// is nil when the source delta is absent or the denominator is non-positive.
type InventoryRow struct {
	Week           string   `json:"week"`
	MonthsOfSupply float64  `json:"months_of_supply"`
	SupplyYoYRatio *float64 `json:"supply_yoy_ratio,omitempty"`
	NewListings    float64  `json:"new_listings"`
	HomesSold      float64  `json:"homes_sold"`
	MarketState    string   `json:"market_state"`
}

// BuyerValueRow compares recent sale prices against assessed values for one
// zip code.
type BuyerValueRow struct {
	Zip             string  `json:"zip"`
	AvgJustValue    float64 `json:"avg_just_value"`
	MedianSalePrice float64 `json:"median_sale_price"`
	SaleCount       int     `json:"sale_count"`
	ValueRatio      float64 `json:"value_ratio"`
	Classification  string  `json:"classification"`
}

// TrendRow is one month of the county-level rent/value trend.
type TrendRow struct {
	Month        string  `json:"month"`
	ZHVI         float64 `json:"zhvi"`
	ZORI         float64 `json:"zori"`
	FlowRatio    float64 `json:"flow_ratio"`
	AppraisalGap float64 `json:"appraisal_gap"`
	Direction    string  `json:"direction"`
}

// ZipTrendRow is the year-over-year price movement for one zip code.
// LowVolume rows are kept but annotated; Outlier marks a swing large enough
// to be an artifact of a thin market.
type ZipTrendRow struct {
	Zip         string  `json:"zip"`
	MedianNow   float64 `json:"median_now"`
	MedianPrior float64 `json:"median_prior"`
	SaleCount   int     `json:"sale_count"`
	YoYChange   float64 `json:"yoy_change"`
	LowVolume   bool    `json:"low_volume"`
	Outlier     bool    `json:"outlier"`
}

// AssessmentRow is the per-zip median of sale price over assessed value.
type AssessmentRow struct {
	Zip         string  `json:"zip"`
	MedianRatio float64 `json:"median_ratio"`
	SaleCount   int     `json:"sale_count"`
	Label       string  `json:"label"`
}

// FlipRow is one completed flip: a purchase and resale of the same account
// within the hold window.
type FlipRow struct {
	Account    string    `json:"account"`
	Address    string    `json:"address"`
	LivingArea float64   `json:"living_area"`
	BuyDate    time.Time `json:"buy_date"`
	SellDate   time.Time `json:"sell_date"`
	BuyPrice   float64   `json:"buy_price"`
	SellPrice  float64   `json:"sell_price"`
	DaysHeld   int       `json:"days_held"`
	MarkupPct  float64   `json:"markup_pct"`
	Outcome    string    `json:"outcome"`
}

// InvestorRow is the investor purchase share for one zip code.
type InvestorRow struct {
	Zip           string  `json:"zip"`
	SaleCount     int     `json:"sale_count"`
	InvestorShare float64 `json:"investor_share"`
}

// MarketSnapshot is the synthesized headline view derived from the metric
// tables. Pointer fields stay nil when the upstream metric was empty;
// nothing is fabricated.
type MarketSnapshot struct {
	MedianPrice    *float64 `json:"median_price,omitempty"`
	PriceYoY       string   `json:"price_yoy,omitempty"`
	MonthsOfSupply *float64 `json:"months_of_supply,omitempty"`
	SupplyLabel    string   `json:"supply_label,omitempty"`
	MarketPhase    string   `json:"market_phase"`
	Headline       string   `json:"headline"`
	HottestZip     string   `json:"hottest_zip,omitempty"`
	HottestZipYoY  *float64 `json:"hottest_zip_yoy,omitempty"`
	BestValueZip   string   `json:"best_value_zip,omitempty"`
	BestValueRatio *float64 `json:"best_value_ratio,omitempty"`
	FlipSummary    string   `json:"flip_summary"`
}

// Results is the complete output of one transformation run. Every metric
// table is always present; an empty table means the signal was unavailable
// this period, never that the key is missing.
type Results struct {
	RunID         string             `json:"run_id"`
	GeneratedAt   time.Time          `json:"generated_at"`
	PricePressure []PricePressureRow `json:"price_pressure"`
	Inventory     []InventoryRow     `json:"inventory_absorption"`
	BuyerValue    []BuyerValueRow    `json:"buyer_value_index"`
	Trends        []TrendRow         `json:"trend_lines"`
	ZipTrends     []ZipTrendRow      `json:"zip_price_trends"`
	Assessment    []AssessmentRow    `json:"assessment_ratio"`
	Flips         []FlipRow          `json:"flip_detector"`
	Investors     []InvestorRow      `json:"investor_activity"`
	FlipSummary   string             `json:"flip_summary"`
	Snapshot      MarketSnapshot     `json:"snapshot"`
}

// RowCounts returns the number of rows per metric, keyed by the stable
// metric name. Consumers get one entry per defined metric regardless of
// availability.
func (r *Results) RowCounts() map[string]int {
	return map[string]int{
		MetricPricePressure: len(r.PricePressure),
		MetricInventory:     len(r.Inventory),
		MetricBuyerValue:    len(r.BuyerValue),
		MetricTrendLines:    len(r.Trends),
		MetricZipTrends:     len(r.ZipTrends),
		MetricAssessment:    len(r.Assessment),
		MetricFlips:         len(r.Flips),
		MetricInvestors:     len(r.Investors),
	}
}
