package config

import "marketpulse/server/internal/models"

// WeeklySeriesFile maps one weekly time-series source file onto the columns
// the loader should read from it.
type WeeklySeriesFile struct {
	Name         string
	File         string
	PeriodColumn string
	ValueColumn  string
	YoYColumn    string // empty when the source has no year-over-year column
}

// Market is the static definition of the scoped market: file names, join
// keys and data-quality guards. The pipeline runs for exactly one market.
type Market struct {
	Name       string
	County     string
	ZipPrefix  string
	RegionName string // row selector for the monthly index panels

	ParcelFile string
	SalesFile  string
	ZHVIFile   string
	ZORIFile   string

	// HomesteadColumn is the parcel column carrying the exemption marker;
	// HomesteadOwnerMarker is the exact value indicating an owner-occupant.
	HomesteadColumn      string
	HomesteadOwnerMarker string

	// MaxPlausibleFlips triggers a review warning when exceeded
	MaxPlausibleFlips int

	WeeklySeries []WeeklySeriesFile
}

// Sarasota is the configured market.
var Sarasota = Market{
	Name:                 "Sarasota, FL",
	County:               "Sarasota",
	ZipPrefix:            "342",
	RegionName:           "Sarasota County",
	ParcelFile:           "county_parcels.csv",
	SalesFile:            "county_sales.csv",
	ZHVIFile:             "zillow_zhvi.csv",
	ZORIFile:             "zillow_zori.csv",
	HomesteadColumn:      "HMSTD",
	HomesteadOwnerMarker: "Y",
	MaxPlausibleFlips:    200,
	WeeklySeries: []WeeklySeriesFile{
		{
			Name:         models.SeriesMedianSalePrice,
			File:         "redfin_median_sale_price.csv",
			PeriodColumn: "period_end",
			ValueColumn:  "median_sale_price",
			YoYColumn:    "median_sale_price_yoy",
		},
		{
			Name:         models.SeriesSaleToList,
			File:         "redfin_average_sale_to_list.csv",
			PeriodColumn: "period_end",
			ValueColumn:  "average_sale_to_list",
		},
		{
			Name:         models.SeriesMonthsSupply,
			File:         "redfin_months_of_supply.csv",
			PeriodColumn: "period_end",
			ValueColumn:  "months_of_supply",
			YoYColumn:    "months_of_supply_yoy",
		},
		{
			Name:         models.SeriesNewListings,
			File:         "redfin_new_listings.csv",
			PeriodColumn: "period_end",
			ValueColumn:  "new_listings",
		},
		{
			Name:         models.SeriesHomesSold,
			File:         "redfin_homes_sold.csv",
			PeriodColumn: "period_end",
			ValueColumn:  "homes_sold",
		},
	},
}
