package models

import "strings"

// NewsResult is the narrative and sources returned by the news search for one ticker.
type NewsResult struct {
	Ticker    string   `json:"ticker"`
	News      string   `json:"news"`
	Citations []string `json:"citations"`
}

// Empty reports whether there is no narrative to summarize.
func (n NewsResult) Empty() bool {
	return strings.TrimSpace(n.News) == ""
}

// EmptyNews is what the fetcher yields when anything goes wrong.
func EmptyNews(ticker string) NewsResult {
	return NewsResult{Ticker: ticker, News: "", Citations: []string{}}
}

type SummarySource string

const (
	SummaryFromModel SummarySource = "model"
	SummaryNoNews    SummarySource = "no_news"
	SummaryError     SummarySource = "error"
)

// Summary is the prose shown for one ticker in the report.
type Summary struct {
	Ticker    string        `json:"ticker"`
	Text      string        `json:"text"`
	Source    SummarySource `json:"source"`
	Citations []string      `json:"citations,omitempty"`
}
