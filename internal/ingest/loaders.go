package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"marketpulse/server/config"
	"marketpulse/server/internal/models"
)

// Source names as reported in pipeline statuses.
const (
	SourceParcels = "county_parcels"
	SourceSales   = "county_sales"
	SourceZHVI    = "zillow_zhvi"
	SourceZORI    = "zillow_zori"
)

// Loader reads the dropped/downloaded source files for one market into typed
// tables. Every load returns a per-source status; a missing or malformed file
// is a degraded source, never a fatal error.
type Loader struct {
	dataDir string
	market  config.Market
	logger  *logrus.Logger
}

// NewLoader creates a loader rooted at the given data directory
func NewLoader(dataDir string, market config.Market, logger *logrus.Logger) *Loader {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Loader{
		dataDir: dataDir,
		market:  market,
		logger:  logger,
	}
}

// LoadAll loads every configured source and bundles the outcome. Individual
// source failures are recorded in the returned status; the caller decides
// whether enough survived to be worth transforming.
func (l *Loader) LoadAll(runID string) (models.MarketData, models.PipelineStatus) {
	started := time.Now()
	status := models.PipelineStatus{RunID: runID, StartedAt: started}

	data := models.MarketData{Weekly: make(map[string][]models.WeeklyPoint)}

	var parcelStatus models.SourceStatus
	data.Parcels, data.Schema, parcelStatus = l.LoadParcels()
	status.Sources = append(status.Sources, parcelStatus)

	var salesStatus models.SourceStatus
	data.Sales, salesStatus = l.LoadSales()
	status.Sources = append(status.Sources, salesStatus)

	for _, src := range l.market.WeeklySeries {
		points, s := l.LoadWeeklySeries(src)
		data.Weekly[src.Name] = points
		status.Sources = append(status.Sources, s)
	}

	var zhviStatus, zoriStatus models.SourceStatus
	data.ZHVI, zhviStatus = l.LoadRegionalIndex(SourceZHVI, l.market.ZHVIFile)
	data.ZORI, zoriStatus = l.LoadRegionalIndex(SourceZORI, l.market.ZORIFile)
	status.Sources = append(status.Sources, zhviStatus, zoriStatus)

	status.Duration = time.Since(started)
	l.logger.WithFields(logrus.Fields{
		"run_id":   runID,
		"sources":  len(status.Sources),
		"failed":   status.FailedSources(),
		"duration": status.Duration.String(),
	}).Info("Source loading complete")

	return data, status
}

// LoadParcels reads the county parcel snapshot. The homestead column is a
// source capability resolved here, once; downstream consumers read the schema
// descriptor instead of probing columns.
func (l *Loader) LoadParcels() ([]models.Parcel, models.ParcelSchema, models.SourceStatus) {
	header, rows, err := l.readCSV(l.market.ParcelFile)
	if err != nil {
		return nil, models.ParcelSchema{}, l.failed(SourceParcels, err)
	}

	_, hasHomestead := header[l.market.HomesteadColumn]
	schema := models.ParcelSchema{HasHomestead: hasHomestead}

	parcels := make([]models.Parcel, 0, len(rows))
	for _, row := range rows {
		p := models.Parcel{
			Account:      field(row, header, "ACCOUNT"),
			StreetNumber: field(row, header, "LOCN"),
			StreetName:   field(row, header, "LOCS"),
			StreetSuffix: field(row, header, "LOCD"),
			Unit:         field(row, header, "UNIT"),
			Zip:          zip5(field(row, header, "LOCZIP")),
		}
		if p.Account == "" {
			continue
		}
		p.LivingArea, _ = parseFloat(field(row, header, "LIVING"))
		p.Bedrooms, _ = parseInt(field(row, header, "BEDR"))
		p.YearBuilt, _ = parseInt(field(row, header, "YRBL"))
		p.JustValue, _ = parseFloat(field(row, header, "JUST"))
		if hasHomestead {
			p.Homestead = field(row, header, l.market.HomesteadColumn)
		}
		parcels = append(parcels, p)
	}

	return parcels, schema, l.loaded(SourceParcels, len(parcels))
}

// LoadSales reads the county deed transactions, keeping only warranty deeds.
// Other deed types (quit-claims, trust transfers) are not arm's-length market
// transactions.
func (l *Loader) LoadSales() ([]models.SaleRecord, models.SourceStatus) {
	header, rows, err := l.readCSV(l.market.SalesFile)
	if err != nil {
		return nil, l.failed(SourceSales, err)
	}

	sales := make([]models.SaleRecord, 0, len(rows))
	for _, row := range rows {
		if field(row, header, "DeedType") != "WD" {
			continue
		}
		s := models.SaleRecord{
			Account:  field(row, header, "Account"),
			DeedType: "WD",
		}
		if s.Account == "" {
			continue
		}
		var ok bool
		if s.Date, ok = parseDate(field(row, header, "SaleDate")); !ok {
			continue
		}
		s.Price, _ = parseFloat(field(row, header, "SalePrice"))
		sales = append(sales, s)
	}

	return sales, l.loaded(SourceSales, len(sales))
}

// LoadWeeklySeries reads one weekly regional time series, sorted ascending by
// period end. The year-over-year column is optional at two levels: the series
// may not define one, and a defined column may still be absent from this
// vintage of the file.
func (l *Loader) LoadWeeklySeries(src config.WeeklySeriesFile) ([]models.WeeklyPoint, models.SourceStatus) {
	header, rows, err := l.readCSV(src.File)
	if err != nil {
		return nil, l.failed(src.Name, err)
	}

	if _, ok := header[src.PeriodColumn]; !ok {
		return nil, l.failed(src.Name, fmt.Errorf("period column %q not found", src.PeriodColumn))
	}
	if _, ok := header[src.ValueColumn]; !ok {
		return nil, l.failed(src.Name, fmt.Errorf("value column %q not found", src.ValueColumn))
	}
	_, hasYoY := header[src.YoYColumn]

	points := make([]models.WeeklyPoint, 0, len(rows))
	for _, row := range rows {
		periodEnd, ok := parseDate(field(row, header, src.PeriodColumn))
		if !ok {
			continue
		}
		value, ok := parseFloat(field(row, header, src.ValueColumn))
		if !ok {
			continue
		}
		p := models.WeeklyPoint{PeriodEnd: periodEnd, Value: value}
		if src.YoYColumn != "" && hasYoY {
			if yoy, ok := parseFloat(field(row, header, src.YoYColumn)); ok {
				p.YoY = &yoy
			}
		}
		points = append(points, p)
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].PeriodEnd.Before(points[j].PeriodEnd)
	})
	return points, l.loaded(src.Name, len(points))
}

// LoadRegionalIndex reads a wide monthly index panel: one row per region,
// one column per month keyed by an ISO-date header. Only the scoped region's
// row is read.
func (l *Loader) LoadRegionalIndex(name, file string) ([]models.IndexPoint, models.SourceStatus) {
	header, rows, err := l.readCSV(file)
	if err != nil {
		return nil, l.failed(name, err)
	}

	regionIdx, ok := header["RegionName"]
	if !ok {
		return nil, l.failed(name, fmt.Errorf("region column not found"))
	}

	var region []string
	for _, row := range rows {
		if regionIdx < len(row) && strings.TrimSpace(row[regionIdx]) == l.market.RegionName {
			region = row
			break
		}
	}
	if region == nil {
		return nil, l.failed(name, fmt.Errorf("region %q not found", l.market.RegionName))
	}

	points := make([]models.IndexPoint, 0, len(header))
	for col, idx := range header {
		month, ok := parseDate(col)
		if !ok {
			continue
		}
		if idx >= len(region) {
			continue
		}
		value, ok := parseFloat(region[idx])
		if !ok {
			continue
		}
		points = append(points, models.IndexPoint{Month: month, Value: value})
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Month.Before(points[j].Month)
	})
	return points, l.loaded(name, len(points))
}

// readCSV opens a source file relative to the data directory and returns the
// header index and data rows. Ragged rows are tolerated; cells past the end
// of a short row read as empty.
func (l *Loader) readCSV(file string) (map[string]int, [][]string, error) {
	path := filepath.Join(l.dataDir, file)
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open source file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headerRow, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	header := make(map[string]int, len(headerRow))
	for i, name := range headerRow {
		header[strings.TrimSpace(name)] = i
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read row: %w", err)
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func (l *Loader) loaded(name string, rows int) models.SourceStatus {
	l.logger.WithFields(logrus.Fields{
		"source": name,
		"rows":   rows,
	}).Info("Source loaded")
	return models.SourceStatus{Name: name, OK: true, Rows: rows}
}

func (l *Loader) failed(name string, err error) models.SourceStatus {
	l.logger.WithError(err).WithField("source", name).Error("Source failed to load")
	return models.SourceStatus{Name: name, Err: err.Error()}
}

func field(row []string, header map[string]int, name string) string {
	idx, ok := header[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// zip5 truncates a ZIP+4 value to the five-digit prefix.
func zip5(s string) string {
	if len(s) > 5 {
		return s[:5]
	}
	return s
}
