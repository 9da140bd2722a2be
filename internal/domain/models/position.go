package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Position is one holding as reported by the brokerage for the current run.
// Nil numeric fields mean the brokerage did not report them.
type Position struct {
	Ticker          string           `json:"ticker"`
	Name            string           `json:"name,omitempty"`
	Quantity        *decimal.Decimal `json:"quantity"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	Equity          *decimal.Decimal `json:"equity"`
	AverageBuyPrice *decimal.Decimal `json:"average_buy_price"`
	PercentChange   *decimal.Decimal `json:"percent_change"`
}

// Owned reports whether the quantity is strictly positive.
func (p Position) Owned() bool {
	return p.Quantity != nil && p.Quantity.IsPositive()
}

// Positions maps ticker symbol to position.
type Positions map[string]Position

// Tickers returns the symbols in ascending order.
func (p Positions) Tickers() []string {
	out := make([]string, 0, len(p))
	for t := range p {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Dec is a small helper for building positions in code and tests.
func Dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
