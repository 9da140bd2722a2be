package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"StockBrief/internal/domain/models"
	"StockBrief/pkg/util"

	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
)

const (
	title       = "Daily Stock Report"
	disclaimer1 = "This report is generated automatically and is for informational purposes only."
	disclaimer2 = "It is not intended as investment advice."
	na          = "N/A"
)

var page = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.header { background-color: #f8f9fa; padding: 20px; border-bottom: 1px solid #ddd; }
.stock { margin: 20px 0; padding: 15px; border: 1px solid #eee; border-radius: 5px; }
.stock h2 { margin-top: 0; color: #0066cc; }
.position-info { background-color: #f8f9fa; padding: 10px; border-radius: 5px; margin-bottom: 15px; }
.summary { margin-top: 15px; }
.sources { font-size: 12px; color: #666; }
.footer { margin-top: 30px; font-size: 12px; color: #666; border-top: 1px solid #ddd; padding-top: 10px; }
</style>
</head>
<body>
<div class="header">
<h1>{{.Title}}</h1>
<p>{{.Date}}</p>
</div>
{{range .Sections}}<div class="stock">
<h2>{{.Ticker}}</h2>
<div class="position-info">
<p><strong>Shares:</strong> {{.Shares}}</p>
<p><strong>Current Value:</strong> {{.Equity}}</p>
<p><strong>Average Buy Price:</strong> {{.AvgPrice}}</p>
<p><strong>Percent Change:</strong> {{.Percent}}</p>
</div>
<div class="summary">
{{.SummaryHTML}}</div>
{{if .Citations}}<div class="sources">
<p>Sources:</p>
<ol>
{{range .Citations}}<li><a href="{{.}}">{{.}}</a></li>
{{end}}</ol>
</div>
{{end}}</div>
{{end}}<div class="footer">
<p>{{.Disclaimer1}}</p>
<p>{{.Disclaimer2}}</p>
</div>
</body>
</html>
`))

type section struct {
	Ticker      string
	Shares      string
	Equity      string
	AvgPrice    string
	Percent     string
	Summary     string
	SummaryHTML template.HTML
	Citations   []string
}

type pageData struct {
	Title       string
	Date        string
	Sections    []section
	Disclaimer1 string
	Disclaimer2 string
}

// Builder renders reports. It holds no state besides the Markdown renderer and is safe for concurrent use.
type Builder struct {
	md goldmark.Markdown
}

func NewBuilder() *Builder {
	// raw HTML in model output is dropped by goldmark's default renderer
	return &Builder{md: goldmark.New()}
}

// Subject returns the email subject for date.
func Subject(date time.Time) string {
	return fmt.Sprintf("%s - %s", title, util.FormatDate(date))
}

// Build renders one section per ticker in summaries, in ascending ticker order.
// Tickers without a position, and nil position fields, render as N/A.
func (b *Builder) Build(summaries map[string]models.Summary, positions models.Positions, date time.Time) (models.Report, error) {
	tickers := make(models.Positions, len(summaries))
	for t := range summaries {
		tickers[t] = models.Position{}
	}

	data := pageData{
		Title:       title,
		Date:        util.FormatDate(date),
		Disclaimer1: disclaimer1,
		Disclaimer2: disclaimer2,
	}
	for _, t := range tickers.Tickers() {
		s := summaries[t]
		p := positions[t]
		html, err := b.markdown(s.Text)
		if err != nil {
			return models.Report{}, fmt.Errorf("render summary %s: %w", t, err)
		}
		data.Sections = append(data.Sections, section{
			Ticker:      t,
			Shares:      plain(p.Quantity),
			Equity:      money(p.Equity),
			AvgPrice:    money(p.AverageBuyPrice),
			Percent:     percent(p.PercentChange),
			Summary:     s.Text,
			SummaryHTML: html,
			Citations:   s.Citations,
		})
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		return models.Report{}, fmt.Errorf("render report: %w", err)
	}

	return models.Report{
		Date:    date,
		Subject: Subject(date),
		HTML:    buf.String(),
		Text:    plainText(data),
	}, nil
}

func (b *Builder) markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := b.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func plainText(d pageData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", d.Title, d.Date)
	for _, s := range d.Sections {
		fmt.Fprintf(&b, "\n== %s ==\n", s.Ticker)
		fmt.Fprintf(&b, "Shares: %s\n", s.Shares)
		fmt.Fprintf(&b, "Current Value: %s\n", s.Equity)
		fmt.Fprintf(&b, "Average Buy Price: %s\n", s.AvgPrice)
		fmt.Fprintf(&b, "Percent Change: %s\n\n", s.Percent)
		b.WriteString(strings.TrimSpace(s.Summary))
		b.WriteString("\n")
		if len(s.Citations) > 0 {
			b.WriteString("\nSources:\n")
			for i, c := range s.Citations {
				fmt.Fprintf(&b, "%d. %s\n", i+1, c)
			}
		}
	}
	fmt.Fprintf(&b, "\n%s\n%s\n", d.Disclaimer1, d.Disclaimer2)
	return b.String()
}

func plain(d *decimal.Decimal) string {
	if d == nil {
		return na
	}
	return d.String()
}

func money(d *decimal.Decimal) string {
	if d == nil {
		return na
	}
	return "$" + d.String()
}

func percent(d *decimal.Decimal) string {
	if d == nil {
		return na
	}
	return d.String() + "%"
}
