// Package report renders a snapshot into a single self-contained HTML
// document. Styles are inlined so the file can be saved, mailed, or opened
// offline without any companion assets.
package report

import (
	"html/template"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"investtrack/internal/models"
	"investtrack/internal/returns"
)

// Row is one rendered position line. Values arrive preformatted so the
// template stays free of decimal handling.
type Row struct {
	Ticker      string
	CompanyName string
	StartDate   string
	EndDate     string
	StartPrice  string
	EndPrice    string
	Dividends   string
	Return      string
	BandClass   string
	Unavailable bool
}

// Data is the full template payload for one snapshot.
type Data struct {
	Title        string
	SnapshotName string
	StartDate    string
	EndDate      string
	Notes        string
	GeneratedAt  string
	Summary      returns.Summary
	OpenRows     []Row
	ClosedRows   []Row
}

const dateLayout = "2006-01-02"

// Build assembles the template payload from a snapshot and its frozen rows.
// Open and closed positions are split into separate tables; a row whose
// return cannot be computed renders as "n/a" with no band colouring.
func Build(title string, snap models.Snapshot, rows []models.SnapshotPosition) Data {
	data := Data{
		Title:       title,
		StartDate:   "",
		EndDate:     snap.EndDate.Format(dateLayout),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if snap.Name != nil {
		data.SnapshotName = *snap.Name
	}
	if snap.StartDate != nil {
		data.StartDate = snap.StartDate.Format(dateLayout)
	}
	if snap.Notes != nil {
		data.Notes = *snap.Notes
	}
	data.Summary = returns.SummarizeSnapshot(rows)

	for _, sp := range rows {
		row := buildRow(sp)
		if sp.PositionStatus == models.PositionStatusClosed {
			data.ClosedRows = append(data.ClosedRows, row)
		} else {
			data.OpenRows = append(data.OpenRows, row)
		}
	}
	return data
}

func buildRow(sp models.SnapshotPosition) Row {
	row := Row{
		Ticker:    sp.Ticker,
		StartDate: sp.StartDate.Format(dateLayout),
		Dividends: sp.DividendsPaid.StringFixed(2),
	}
	if sp.CompanyName != nil {
		row.CompanyName = *sp.CompanyName
	}
	if sp.EndDate != nil {
		row.EndDate = sp.EndDate.Format(dateLayout)
	}
	row.StartPrice = formatPrice(sp.StartPrice)
	row.EndPrice = formatPrice(sp.EndPrice)

	ret, ok := returns.FromSnapshotPosition(sp)
	if !ok {
		row.Return = "n/a"
		row.Unavailable = true
		return row
	}
	row.Return = ret.Round(2).String() + "%"
	row.BandClass = "band-" + string(returns.Classify(ret))
	return row
}

func formatPrice(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(2)
}

// Render writes the HTML document for data to w.
func Render(w io.Writer, data Data) error {
	return reportTmpl.Execute(w, data)
}

var reportTmpl = template.Must(template.New("report").Parse(reportHTML))

const reportHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 2rem auto; max-width: 64rem; color: #1f2430; }
  h1 { font-size: 1.5rem; margin-bottom: 0.25rem; }
  h2 { font-size: 1.1rem; margin-top: 2rem; border-bottom: 1px solid #d8dce3; padding-bottom: 0.25rem; }
  .meta { color: #6b7280; font-size: 0.85rem; margin-bottom: 1.5rem; }
  .summary { display: flex; gap: 2rem; margin: 1rem 0; }
  .summary div { background: #f3f5f8; border-radius: 6px; padding: 0.6rem 1rem; }
  .summary .label { font-size: 0.75rem; color: #6b7280; text-transform: uppercase; }
  .summary .value { font-size: 1.2rem; font-weight: 600; }
  table { border-collapse: collapse; width: 100%; font-size: 0.9rem; }
  th, td { text-align: left; padding: 0.4rem 0.6rem; border-bottom: 1px solid #e5e8ee; }
  th { background: #f3f5f8; font-weight: 600; }
  td.num { text-align: right; font-variant-numeric: tabular-nums; }
  .band-negative { color: #b42318; font-weight: 600; }
  .band-low-positive { color: #4d6a2a; }
  .band-positive { color: #2e7d32; }
  .band-more-positive { color: #1b5e20; font-weight: 600; }
  .band-very-positive { color: #0d4f16; font-weight: 700; }
  .unavailable { color: #9aa1ad; }
  .notes { margin-top: 1rem; font-style: italic; color: #4b5563; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">
  {{if .SnapshotName}}{{.SnapshotName}} &middot; {{end}}{{if .StartDate}}{{.StartDate}} to {{end}}{{.EndDate}} &middot; generated {{.GeneratedAt}}
</p>

<div class="summary">
  <div><div class="label">Positions</div><div class="value">{{.Summary.TotalPositions}}</div></div>
  <div><div class="label">Winners</div><div class="value">{{.Summary.Winners}}</div></div>
  <div><div class="label">Losers</div><div class="value">{{.Summary.Losers}}</div></div>
  <div><div class="label">Avg return</div><div class="value">{{.Summary.AverageReturn}}%</div></div>
  <div><div class="label">Dividends</div><div class="value">{{.Summary.TotalDividends}}</div></div>
</div>

{{if .OpenRows}}
<h2>Open positions</h2>
<table>
  <tr><th>Ticker</th><th>Company</th><th>Start</th><th>End</th><th>Start price</th><th>End price</th><th>Dividends</th><th>Return</th></tr>
  {{range .OpenRows}}
  <tr>
    <td>{{.Ticker}}</td>
    <td>{{.CompanyName}}</td>
    <td>{{.StartDate}}</td>
    <td>{{.EndDate}}</td>
    <td class="num">{{.StartPrice}}</td>
    <td class="num">{{.EndPrice}}</td>
    <td class="num">{{.Dividends}}</td>
    <td class="num {{if .Unavailable}}unavailable{{else}}{{.BandClass}}{{end}}">{{.Return}}</td>
  </tr>
  {{end}}
</table>
{{end}}

{{if .ClosedRows}}
<h2>Closed positions</h2>
<table>
  <tr><th>Ticker</th><th>Company</th><th>Start</th><th>End</th><th>Start price</th><th>End price</th><th>Dividends</th><th>Return</th></tr>
  {{range .ClosedRows}}
  <tr>
    <td>{{.Ticker}}</td>
    <td>{{.CompanyName}}</td>
    <td>{{.StartDate}}</td>
    <td>{{.EndDate}}</td>
    <td class="num">{{.StartPrice}}</td>
    <td class="num">{{.EndPrice}}</td>
    <td class="num">{{.Dividends}}</td>
    <td class="num {{if .Unavailable}}unavailable{{else}}{{.BandClass}}{{end}}">{{.Return}}</td>
  </tr>
  {{end}}
</table>
{{end}}

{{if .Notes}}<p class="notes">{{.Notes}}</p>{{end}}
</body>
</html>
`
