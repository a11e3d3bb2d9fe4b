package report

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"
	"time"

	"marketpulse/server/internal/models"
)

// ReportData is everything the email template needs for one run.
type ReportData struct {
	Market      string
	Date        string
	Degraded    bool
	FailedNames []string
	Results     *models.Results
	Status      models.PipelineStatus
}

var funcs = template.FuncMap{
	"money":  money,
	"pct":    pct,
	"spct":   signedPct,
	"day":    func(t time.Time) string { return t.Format("2006-01-02") },
	"f1":     func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) },
	"f3":     func(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) },
	"deref":  func(p *float64) float64 { return *p },
	"commas": func(n int) string { return groupDigits(strconv.Itoa(n)) },
}

// money formats a dollar amount with thousands separators and no cents.
func money(v float64) string {
	s := strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	s = "$" + groupDigits(s)
	if neg {
		s = "-" + s
	}
	return s
}

func groupDigits(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func signedPct(v float64) string {
	return fmt.Sprintf("%+.1f%%", v*100)
}

var reportTemplate = template.Must(template.New("report").Funcs(funcs).Parse(reportHTML))

// Render produces the HTML report body. A degraded report carries only the
// failure notice and the pipeline-health footer; a normal report renders the
// snapshot header and every metric section, with an explicit placeholder for
// any table that came back empty.
func Render(data ReportData) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

const reportHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; padding: 20px; background-color: #f5f5f5; }
.header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; border-radius: 8px 8px 0 0; text-align: center; }
.header h1 { margin: 0; font-size: 28px; }
.content { background: white; padding: 30px; border-radius: 0 0 8px 8px; }
.snapshot { background-color: #f8f9fa; border-radius: 8px; padding: 20px; margin-bottom: 20px; }
.snapshot h2 { margin-top: 0; }
.metric-section { margin: 30px 0; border-left: 4px solid #667eea; padding-left: 20px; }
.metric-section h2 { margin-top: 0; color: #667eea; font-size: 20px; }
table { width: 100%; border-collapse: collapse; margin: 15px 0; font-size: 14px; }
th { background-color: #f8f9fa; padding: 10px; text-align: left; border-bottom: 2px solid #dee2e6; }
td { padding: 8px 10px; border-bottom: 1px solid #dee2e6; }
.no-data { color: #999; font-style: italic; padding: 20px; text-align: center; background-color: #f8f9fa; border-radius: 4px; }
.degraded { background-color: #fff3cd; border-left: 4px solid #ffc107; padding: 20px; margin: 20px 0; border-radius: 4px; }
.flag { color: #b36b00; }
.footer { margin-top: 30px; padding: 20px; background-color: #f8f9fa; border-radius: 8px; font-size: 13px; color: #666; }
</style>
</head>
<body>
<div class="header">
  <h1>{{.Market}} Market Pulse</h1>
  <p>{{.Date}}</p>
</div>
<div class="content">
{{if .Degraded}}
  <div class="degraded">
    <h2>Pipeline Degraded</h2>
    <p>Every data source failed to load this period; no market signals could be computed.</p>
    <ul>{{range .FailedNames}}<li>{{.}}</li>{{end}}</ul>
  </div>
{{else}}{{with .Results}}
  <div class="snapshot">
    <h2>Market Snapshot</h2>
    <p><strong>{{.Snapshot.MarketPhase}}</strong> &mdash; {{.Snapshot.Headline}}</p>
    <ul>
      {{if .Snapshot.MedianPrice}}<li>Median sale price: {{money (deref .Snapshot.MedianPrice)}} ({{.Snapshot.PriceYoY}})</li>{{end}}
      {{if .Snapshot.MonthsOfSupply}}<li>Months of supply: {{f1 (deref .Snapshot.MonthsOfSupply)}} &mdash; {{.Snapshot.SupplyLabel}}</li>{{end}}
      {{if .Snapshot.HottestZip}}<li>Hottest zip: {{.Snapshot.HottestZip}} ({{spct (deref .Snapshot.HottestZipYoY)}} YoY)</li>{{end}}
      {{if .Snapshot.BestValueZip}}<li>Best value zip: {{.Snapshot.BestValueZip}} (ratio {{f3 (deref .Snapshot.BestValueRatio)}})</li>{{end}}
      <li>Flips: {{.Snapshot.FlipSummary}}</li>
    </ul>
  </div>

  <div class="metric-section">
    <h2>Price Pressure Index</h2>
    {{if .PricePressure}}
    <table>
      <tr><th>Week</th><th>Median Price</th><th>WoW</th><th>YoY</th><th>Sale/List</th><th>Signal</th></tr>
      {{range .PricePressure}}
      <tr><td>{{.Week}}</td><td>{{money .MedianPrice}}</td><td>{{if .WoWPct}}{{spct (deref .WoWPct)}}{{else}}&ndash;{{end}}</td><td>{{if .YoYPct}}{{spct (deref .YoYPct)}}{{else}}&ndash;{{end}}</td><td>{{f3 .SaleToList}}</td><td>{{.Signal}}</td></tr>
      {{end}}
    </table>
    {{else}}<div class="no-data">No price pressure data this period.</div>{{end}}
  </div>

  <div class="metric-section">
    <h2>Inventory &amp; Absorption</h2>
    {{if .Inventory}}
    <table>
      <tr><th>Week</th><th>Months of Supply</th><th>Supply YoY</th><th>New Listings</th><th>Homes Sold</th><th>State</th></tr>
      {{range .Inventory}}
      <tr><td>{{.Week}}</td><td>{{f1 .MonthsOfSupply}}</td><td>{{if .SupplyYoYRatio}}{{spct (deref .SupplyYoYRatio)}}{{else}}&ndash;{{end}}</td><td>{{f1 .NewListings}}</td><td>{{f1 .HomesSold}}</td><td>{{.MarketState}}</td></tr>
      {{end}}
    </table>
    {{else}}<div class="no-data">No inventory data this period.</div>{{end}}
  </div>

  <div class="metric-section">
    <h2>Buyer Value Index</h2>
    {{if .BuyerValue}}
    <table>
      <tr><th>Zip</th><th>Avg Assessed</th><th>Median Sale</th><th>Sales</th><th>Ratio</th><th>Classification</th></tr>
      {{range .BuyerValue}}
      <tr><td>{{.Zip}}</td><td>{{money .AvgJustValue}}</td><td>{{money .MedianSalePrice}}</td><td>{{.SaleCount}}</td><td>{{f3 .ValueRatio}}</td><td>{{.Classification}}</td></tr>
      {{end}}
    </table>
    {{else}}<div class="no-data">Not enough qualifying sales for any zip this period.</div>{{end}}
  </div>

  <div class="metric-section">
    <h2>Trend Lines</h2>
    {{if .Trends}}
    <table>
      <tr><th>Month</th><th>Home Value Index</th><th>Rent Index</th><th>Rent Flow</th><th>Appraisal Gap</th><th>Direction</th></tr>
      {{range .Trends}}
      <tr><td>{{.Month}}</td><td>{{money .ZHVI}}</td><td>{{money .ZORI}}</td><td>{{pct .FlowRatio}}</td><td>{{spct .AppraisalGap}}</td><td>{{.Direction}}</td></tr>
      {{end}}
    </table>
    {{else}}<div class="no-data">Index panels unavailable this period.</div>{{end}}
  </div>

  <div class="metric-section">
    <h2>Zip-Level Price Trends (YoY)</h2>
    {{if .ZipTrends}}
    <table>
      <tr><th>Zip</th><th>Median Now</th><th>Median Prior</th><th>Sales</th><th>YoY</th></tr>
      {{range .ZipTrends}}
      <tr><td>{{.Zip}}{{if .LowVolume}}*{{end}}</td><td>{{money .MedianNow}}</td><td>{{money .MedianPrior}}</td><td>{{.SaleCount}}</td><td>{{spct .YoYChange}}{{if .Outlier}} <span class="flag">(thin market, verify)</span>{{end}}</td></tr>
      {{end}}
    </table>
    <p style="font-size:12px;color:#666;">* fewer than 20 sales in the trailing year; directional only.</p>
    {{else}}<div class="no-data">No zip-level trend data this period.</div>{{end}}
  </div>

  <div class="metric-section">
    <h2>Assessment Ratio by Zip</h2>
    {{if .Assessment}}
    <table>
      <tr><th>Zip</th><th>Median Sale/Assessed</th><th>Sales</th><th>Label</th></tr>
      {{range .Assessment}}
      <tr><td>{{.Zip}}</td><td>{{f3 .MedianRatio}}</td><td>{{.SaleCount}}</td><td>{{.Label}}</td></tr>
      {{end}}
    </table>
    {{else}}<div class="no-data">No assessment ratio data this period.</div>{{end}}
  </div>

  <div class="metric-section">
    <h2>Flip Detector</h2>
    <p>{{.FlipSummary}}</p>
    {{if .Flips}}
    <table>
      <tr><th>Address</th><th>Bought</th><th>Sold</th><th>Buy Price</th><th>Sell Price</th><th>Held</th><th>Markup</th><th>Outcome</th></tr>
      {{range .Flips}}
      <tr><td>{{.Address}}</td><td>{{day .BuyDate}}</td><td>{{day .SellDate}}</td><td>{{money .BuyPrice}}</td><td>{{money .SellPrice}}</td><td>{{.DaysHeld}} days</td><td>{{spct .MarkupPct}}</td><td>{{.Outcome}}</td></tr>
      {{end}}
    </table>
    {{end}}
  </div>

  <div class="metric-section">
    <h2>Investor Activity by Zip</h2>
    {{if .Investors}}
    <table>
      <tr><th>Zip</th><th>Sales</th><th>Investor Share</th></tr>
      {{range .Investors}}
      <tr><td>{{.Zip}}</td><td>{{.SaleCount}}</td><td>{{pct .InvestorShare}}</td></tr>
      {{end}}
    </table>
    {{else}}<div class="no-data">Homestead data unavailable in this source vintage.</div>{{end}}
  </div>
{{end}}{{end}}

  <div class="footer">
    <strong>Pipeline Health</strong><br>
    Run: {{.Status.RunID}}<br>
    {{range .Status.Sources}}{{.Name}}: {{if .OK}}OK ({{commas .Rows}} rows){{else}}FAILED &mdash; {{.Err}}{{end}}<br>{{end}}
    Execution time: {{.Status.Duration}}<br>
    <br>
    <em>Generated automatically from public county appraiser records and regional market data.</em>
  </div>
</div>
</body>
</html>
`
