package models

import (
	"strings"
	"time"
)

// Names of the weekly time-series sources. Loaders key the weekly map with
// these and the metric engine reads them back.
const (
	SeriesMedianSalePrice = "median_sale_price"
	SeriesSaleToList      = "average_sale_to_list"
	SeriesMonthsSupply    = "months_of_supply"
	SeriesNewListings     = "new_listings"
	SeriesHomesSold       = "homes_sold"
)

// Parcel is one county real-property record from the appraiser snapshot.
type Parcel struct {
	Account      string  `json:"account"`
	StreetNumber string  `json:"street_number"`
	StreetName   string  `json:"street_name"`
	StreetSuffix string  `json:"street_suffix"`
	Unit         string  `json:"unit"`
	Zip          string  `json:"zip"`
	LivingArea   float64 `json:"living_area"`
	Bedrooms     int     `json:"bedrooms"`
	YearBuilt    int     `json:"year_built"`
	JustValue    float64 `json:"just_value"`
	// Homestead carries the raw exemption marker. It is categorical, not
	// numeric, and is compared as a string.
	Homestead string `json:"homestead"`
}

// Residential reports whether the parcel qualifies for value-based
// aggregates: positive living area and a positive appraised value.
func (p Parcel) Residential() bool {
	return p.LivingArea > 0 && p.JustValue > 0
}

// SitusAddress assembles the street components into a single display string.
func (p Parcel) SitusAddress() string {
	parts := make([]string, 0, 4)
	for _, s := range []string{p.StreetNumber, p.StreetName, p.StreetSuffix, p.Unit} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// SaleRecord is one recorded deed transaction. Sales share the account
// identity space with parcels, though the two sources pad the id differently.
type SaleRecord struct {
	Account  string    `json:"account"`
	Date     time.Time `json:"date"`
	Price    float64   `json:"price"`
	DeedType string    `json:"deed_type"`
}

// WeeklyPoint is one row of a weekly regional time series. YoY carries the
// source-provided year-over-year column when present and is nil otherwise;
// absent deltas are never fabricated as zero.
type WeeklyPoint struct {
	PeriodEnd time.Time `json:"period_end"`
	Value     float64   `json:"value"`
	YoY       *float64  `json:"yoy,omitempty"`
}

// IndexPoint is one month of a regional index panel (ZHVI or ZORI).
type IndexPoint struct {
	Month time.Time `json:"month"`
	Value float64   `json:"value"`
}

// ParcelSchema describes source capabilities resolved once at the loader
// boundary, so metrics never probe for alternate column names themselves.
type ParcelSchema struct {
	HasHomestead bool `json:"has_homestead"`
}

// MarketData bundles every loaded source table. It is read-only once built;
// metric functions may consume it concurrently.
type MarketData struct {
	Parcels []Parcel
	Sales   []SaleRecord
	Weekly  map[string][]WeeklyPoint
	ZHVI    []IndexPoint
	ZORI    []IndexPoint
	Schema  ParcelSchema
}

// SourceStatus is the per-source outcome of one ingestion attempt. Statuses
// are returned by loaders and threaded through the pipeline by value; there
// are no global failure flags.
type SourceStatus struct {
	Name string `json:"name"`
	OK   bool   `json:"ok"`
	Err  string `json:"error,omitempty"`
	Rows int    `json:"rows"`
}

// PipelineStatus aggregates source statuses for one run.
type PipelineStatus struct {
	RunID     string         `json:"run_id"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
	Sources   []SourceStatus `json:"sources"`
}

// AllFailed reports whether every source failed to load.
func (s PipelineStatus) AllFailed() bool {
	if len(s.Sources) == 0 {
		return true
	}
	for _, src := range s.Sources {
		if src.OK {
			return false
		}
	}
	return true
}

// FailedSources lists the names of sources that did not load.
func (s PipelineStatus) FailedSources() []string {
	var failed []string
	for _, src := range s.Sources {
		if !src.OK {
			failed = append(failed, src.Name)
		}
	}
	return failed
}
