package ingest

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/server/config"
)

func testLoader(t *testing.T) (*Loader, string) {
	t.Helper()
	dir := t.TempDir()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewLoader(dir, config.Sarasota, logger), dir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadParcels(t *testing.T) {
	l, dir := testLoader(t)
	writeFile(t, dir, config.Sarasota.ParcelFile,
		"ACCOUNT,LOCN,LOCS,LOCD,UNIT,LOCZIP,LIVING,BEDR,YRBL,JUST,HMSTD\n"+
			"0000007002,1450,MAIN,ST,,34236-1503,1850,3,1987,\"310,000\",Y\n"+
			"0000007003,22,OAK,AVE,4B,34231,0,0,0,0,\n"+
			",,,,,,,,,,\n")

	parcels, schema, status := l.LoadParcels()
	require.True(t, status.OK)
	assert.Equal(t, SourceParcels, status.Name)
	assert.Equal(t, 2, status.Rows)
	assert.True(t, schema.HasHomestead)

	require.Len(t, parcels, 2)
	p := parcels[0]
	assert.Equal(t, "0000007002", p.Account)
	assert.Equal(t, "34236", p.Zip, "ZIP+4 truncated to five digits")
	assert.Equal(t, "1450 MAIN ST", p.SitusAddress())
	assert.InDelta(t, 1850, p.LivingArea, 1e-9)
	assert.Equal(t, 3, p.Bedrooms)
	assert.Equal(t, 1987, p.YearBuilt)
	assert.InDelta(t, 310000, p.JustValue, 1e-9, "quoted thousands separator coerced")
	assert.Equal(t, "Y", p.Homestead)

	assert.False(t, parcels[1].Residential())
}

func TestLoadParcelsWithoutHomesteadColumn(t *testing.T) {
	l, dir := testLoader(t)
	writeFile(t, dir, config.Sarasota.ParcelFile,
		"ACCOUNT,LOCN,LOCS,LOCD,UNIT,LOCZIP,LIVING,BEDR,YRBL,JUST\n"+
			"7002,1450,MAIN,ST,,34236,1850,3,1987,310000\n")

	parcels, schema, status := l.LoadParcels()
	require.True(t, status.OK)
	assert.False(t, schema.HasHomestead)
	require.Len(t, parcels, 1)
	assert.Empty(t, parcels[0].Homestead)
}

func TestLoadParcelsMissingFile(t *testing.T) {
	l, _ := testLoader(t)

	parcels, _, status := l.LoadParcels()
	assert.Empty(t, parcels)
	assert.False(t, status.OK)
	assert.NotEmpty(t, status.Err)
}

func TestLoadSalesKeepsOnlyWarrantyDeeds(t *testing.T) {
	l, dir := testLoader(t)
	writeFile(t, dir, config.Sarasota.SalesFile,
		"Account,SaleDate,SalePrice,DeedType\n"+
			"7002,2025-08-12,250000,WD\n"+
			"7002,2025-09-01,100,QC\n"+
			"7003,not-a-date,200000,WD\n"+
			"7004,2026-02-05,\"$385,000\",WD\n")

	sales, status := l.LoadSales()
	require.True(t, status.OK)
	require.Len(t, sales, 2)

	assert.Equal(t, "7002", sales[0].Account)
	assert.Equal(t, time.Date(2025, 8, 12, 0, 0, 0, 0, time.UTC), sales[0].Date)
	assert.InDelta(t, 250000, sales[0].Price, 1e-9)
	assert.Equal(t, "WD", sales[0].DeedType)
	assert.InDelta(t, 385000, sales[1].Price, 1e-9, "currency sign and separator coerced")
}

func TestLoadWeeklySeriesWithYoY(t *testing.T) {
	l, dir := testLoader(t)
	writeFile(t, dir, "redfin_median_sale_price.csv",
		"period_end,median_sale_price,median_sale_price_yoy\n"+
			"2026-02-21,\"428,000\",0.035\n"+
			"2026-02-14,420000,\n")

	points, status := l.LoadWeeklySeries(config.Sarasota.WeeklySeries[0])
	require.True(t, status.OK)
	require.Len(t, points, 2)

	// Sorted ascending regardless of file order.
	assert.Equal(t, time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC), points[0].PeriodEnd)
	assert.Nil(t, points[0].YoY, "blank delta stays nil, never fabricated as zero")
	require.NotNil(t, points[1].YoY)
	assert.InDelta(t, 0.035, *points[1].YoY, 1e-9)
	assert.InDelta(t, 428000, points[1].Value, 1e-9)
}

func TestLoadWeeklySeriesPercentSuffixedYoY(t *testing.T) {
	l, dir := testLoader(t)
	writeFile(t, dir, "redfin_median_sale_price.csv",
		"period_end,median_sale_price,median_sale_price_yoy\n"+
			"2026-02-21,428000,3.5%\n")

	points, status := l.LoadWeeklySeries(config.Sarasota.WeeklySeries[0])
	require.True(t, status.OK)
	require.Len(t, points, 1)

	// Percent-suffixed deltas arrive as fractions, matching unsuffixed
	// sources; a 3.5% cell must not read as the number 3.5.
	require.NotNil(t, points[0].YoY)
	assert.InDelta(t, 0.035, *points[0].YoY, 1e-9)
}

func TestLoadWeeklySeriesMissingValueColumn(t *testing.T) {
	l, dir := testLoader(t)
	writeFile(t, dir, "redfin_homes_sold.csv", "period_end,wrong_column\n2026-02-21,10\n")

	points, status := l.LoadWeeklySeries(config.Sarasota.WeeklySeries[4])
	assert.Empty(t, points)
	assert.False(t, status.OK)
	assert.Contains(t, status.Err, "homes_sold")
}

func TestLoadRegionalIndex(t *testing.T) {
	l, dir := testLoader(t)
	writeFile(t, dir, config.Sarasota.ZHVIFile,
		"RegionID,RegionName,StateName,2025-11-30,2025-12-31,2026-01-31\n"+
			"394,Manatee County,FL,412000,413500,415000\n"+
			"395,Sarasota County,FL,448000,449200,451000\n")

	points, status := l.LoadRegionalIndex(SourceZHVI, config.Sarasota.ZHVIFile)
	require.True(t, status.OK)
	require.Len(t, points, 3)

	// Only the scoped region's row, sorted by month.
	assert.Equal(t, time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC), points[0].Month)
	assert.InDelta(t, 448000, points[0].Value, 1e-9)
	assert.InDelta(t, 451000, points[2].Value, 1e-9)
}

func TestLoadRegionalIndexRegionAbsent(t *testing.T) {
	l, dir := testLoader(t)
	writeFile(t, dir, config.Sarasota.ZORIFile,
		"RegionID,RegionName,2026-01-31\n394,Manatee County,2200\n")

	points, status := l.LoadRegionalIndex(SourceZORI, config.Sarasota.ZORIFile)
	assert.Empty(t, points)
	assert.False(t, status.OK)
	assert.Contains(t, status.Err, "Sarasota County")
}

func TestLoadAllCollectsPerSourceStatuses(t *testing.T) {
	l, dir := testLoader(t)
	writeFile(t, dir, config.Sarasota.ParcelFile,
		"ACCOUNT,LOCZIP,LIVING,JUST,HMSTD\n7002,34236,1850,310000,Y\n")

	data, status := l.LoadAll("run-1")
	assert.Equal(t, "run-1", status.RunID)

	// Parcels, sales, five weekly series, two index panels.
	require.Len(t, status.Sources, 9)
	assert.False(t, status.AllFailed())
	assert.Len(t, status.FailedSources(), 8)

	assert.Len(t, data.Parcels, 1)
	assert.True(t, data.Schema.HasHomestead)
	assert.Empty(t, data.Sales)
	for _, src := range config.Sarasota.WeeklySeries {
		_, ok := data.Weekly[src.Name]
		assert.True(t, ok, "weekly key %s always present", src.Name)
	}
}

func TestLoadAllEverythingMissing(t *testing.T) {
	l, _ := testLoader(t)

	_, status := l.LoadAll("run-2")
	assert.True(t, status.AllFailed())
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		in       string
		expected float64
		ok       bool
	}{
		{"310000", 310000, true},
		{`"310,000"`, 310000, true},
		{"$385,000", 385000, true},
		{"3.5%", 0.035, true},
		{"-2.1%", -0.021, true},
		{" 428000 ", 428000, true},
		{"", 0, false},
		{"n/a", 0, false},
	}

	for _, tt := range tests {
		v, ok := parseFloat(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		if tt.ok {
			assert.InDelta(t, tt.expected, v, 1e-9, "input %q", tt.in)
		}
	}
}

func TestParseDateFormats(t *testing.T) {
	expected := time.Date(2025, 8, 12, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2025-08-12", "2025-08-12 00:00:00", "8/12/2025", "08/12/2025"} {
		d, ok := parseDate(in)
		require.True(t, ok, "input %q", in)
		assert.Equal(t, expected, d, "input %q", in)
	}

	_, ok := parseDate("not-a-date")
	assert.False(t, ok)
}
