package robinhood

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"StockBrief/internal/domain/models"
	drepo "StockBrief/internal/domain/repository"
	pkghttp "StockBrief/pkg/http"
	applogger "StockBrief/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotLoggedIn = errors.New("robinhood: not logged in")
	ErrMFARequired = errors.New("robinhood: mfa code required")
)

// Config holds the account credentials and endpoint.
type Config struct {
	BaseURL  string
	Username string
	Password string
	MFACode  string
	ClientID string
}

// Client implements PositionSource against the Robinhood REST API.
type Client struct {
	cfg  Config
	http *pkghttp.Client
	log  *applogger.Logger

	mu          sync.Mutex
	token       string
	refresh     string
	deviceToken string
	instruments map[string]instrument
}

// New creates a Robinhood PositionSource.
func New(cfg Config, log *applogger.Logger, opts ...pkghttp.ClientOption) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	opts = append([]pkghttp.ClientOption{pkghttp.WithName("robinhood")}, opts...)
	return &Client{
		cfg:         cfg,
		http:        pkghttp.NewClient(opts...),
		log:         log.With(applogger.String("component", "robinhood")),
		deviceToken: uuid.NewString(),
		instruments: make(map[string]instrument),
	}
}

var _ drepo.PositionSource = (*Client)(nil)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	MFARequired  bool   `json:"mfa_required"`
	Detail       string `json:"detail"`
}

// Login performs the OAuth password grant. There is no retry.
func (c *Client) Login(ctx context.Context) error {
	form := map[string]string{
		"grant_type":   "password",
		"scope":        "internal",
		"client_id":    c.cfg.ClientID,
		"expires_in":   "86400",
		"device_token": c.deviceToken,
		"username":     c.cfg.Username,
		"password":     c.cfg.Password,
	}
	if c.cfg.MFACode != "" {
		form["mfa_code"] = c.cfg.MFACode
	}

	var resp tokenResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:  pkghttp.MethodPost,
		URL:     c.cfg.BaseURL + "/oauth2/token/",
		Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded", "Accept": "application/json"},
		Body:    form,
	}, &resp)
	if err != nil {
		return fmt.Errorf("robinhood login: %w", err)
	}
	if resp.MFARequired && resp.AccessToken == "" {
		return ErrMFARequired
	}
	if resp.AccessToken == "" {
		if resp.Detail != "" {
			return fmt.Errorf("robinhood login: %s", resp.Detail)
		}
		return errors.New("robinhood login: empty access token")
	}

	c.mu.Lock()
	c.token = resp.AccessToken
	c.refresh = resp.RefreshToken
	c.mu.Unlock()

	c.log.Info("logged in")
	return nil
}

type positionsPage struct {
	Next    *string       `json:"next"`
	Results []rawPosition `json:"results"`
}

type rawPosition struct {
	Instrument      string `json:"instrument"`
	Quantity        string `json:"quantity"`
	AverageBuyPrice string `json:"average_buy_price"`
}

type instrument struct {
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	SimpleName string `json:"simple_name"`
}

type quotesResponse struct {
	Results []*quote `json:"results"`
}

type quote struct {
	Symbol         string `json:"symbol"`
	LastTradePrice string `json:"last_trade_price"`
}

// Holdings returns the owned positions keyed by ticker.
func (c *Client) Holdings(ctx context.Context) (models.Positions, error) {
	token := c.accessToken()
	if token == "" {
		return nil, ErrNotLoggedIn
	}

	raw, err := c.listPositions(ctx, token)
	if err != nil {
		return nil, err
	}

	positions := make(models.Positions, len(raw))
	for _, rp := range raw {
		qty := parseDecimal(rp.Quantity)
		if qty == nil || !qty.IsPositive() {
			continue
		}
		inst, err := c.lookupInstrument(ctx, token, rp.Instrument)
		if err != nil {
			return nil, err
		}
		name := inst.SimpleName
		if name == "" {
			name = inst.Name
		}
		lot := models.Position{
			Ticker:          inst.Symbol,
			Name:            name,
			Quantity:        qty,
			AverageBuyPrice: parseDecimal(rp.AverageBuyPrice),
		}
		if prev, ok := positions[inst.Symbol]; ok {
			lot = mergeLots(prev, lot)
		}
		positions[inst.Symbol] = lot
	}

	if len(positions) > 0 {
		prices, err := c.lastPrices(ctx, token, positions.Tickers())
		if err != nil {
			return nil, err
		}
		for t, p := range positions {
			positions[t] = withPrice(p, prices[t])
		}
	}

	owned := FilterOwned(positions)
	c.log.Info("holdings loaded", applogger.Int("count", len(owned)))
	return owned, nil
}

// Logout revokes the session token. Calling it without a session is a no-op.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	token, refresh := c.token, c.refresh
	c.token, c.refresh = "", ""
	c.mu.Unlock()

	if token == "" {
		return nil
	}
	revoke := refresh
	if revoke == "" {
		revoke = token
	}

	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    c.cfg.BaseURL + "/oauth2/revoke_token/",
		Headers: map[string]string{
			"Content-Type":  "application/x-www-form-urlencoded",
			"Authorization": "Bearer " + token,
		},
		Body: map[string]string{"client_id": c.cfg.ClientID, "token": revoke},
	}, nil)
	if err != nil {
		return fmt.Errorf("robinhood logout: %w", err)
	}
	c.log.Info("logged out")
	return nil
}

// FilterOwned keeps only positions whose quantity is strictly positive.
func FilterOwned(in models.Positions) models.Positions {
	out := make(models.Positions, len(in))
	for t, p := range in {
		if p.Owned() {
			out[t] = p
		}
	}
	return out
}

func (c *Client) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) listPositions(ctx context.Context, token string) ([]rawPosition, error) {
	var all []rawPosition
	next := c.cfg.BaseURL + "/positions/?nonzero=true"
	for pages := 0; next != "" && pages < 50; pages++ {
		var page positionsPage
		if err := c.get(ctx, token, next, &page); err != nil {
			return nil, fmt.Errorf("robinhood positions: %w", err)
		}
		all = append(all, page.Results...)
		next = ""
		if page.Next != nil {
			next = *page.Next
		}
	}
	return all, nil
}

func (c *Client) lookupInstrument(ctx context.Context, token, instrumentURL string) (instrument, error) {
	c.mu.Lock()
	inst, ok := c.instruments[instrumentURL]
	c.mu.Unlock()
	if ok {
		return inst, nil
	}

	if err := c.get(ctx, token, instrumentURL, &inst); err != nil {
		return instrument{}, fmt.Errorf("robinhood instrument: %w", err)
	}
	if inst.Symbol == "" {
		return instrument{}, fmt.Errorf("robinhood instrument %s: missing symbol", instrumentURL)
	}

	c.mu.Lock()
	c.instruments[instrumentURL] = inst
	c.mu.Unlock()
	return inst, nil
}

func (c *Client) lastPrices(ctx context.Context, token string, tickers []string) (map[string]*decimal.Decimal, error) {
	q := url.Values{"symbols": {strings.Join(tickers, ",")}}
	var resp quotesResponse
	if err := c.get(ctx, token, c.cfg.BaseURL+"/quotes/?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("robinhood quotes: %w", err)
	}
	prices := make(map[string]*decimal.Decimal, len(resp.Results))
	for _, r := range resp.Results {
		// unknown symbols come back as null entries
		if r == nil {
			continue
		}
		prices[r.Symbol] = parseDecimal(r.LastTradePrice)
	}
	return prices, nil
}

func (c *Client) get(ctx context.Context, token, u string, dest interface{}) error {
	return c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    u,
		Headers: map[string]string{
			"Authorization": "Bearer " + token,
			"Accept":        "application/json",
		},
	}, dest)
}

var hundred = decimal.NewFromInt(100)

// mergeLots combines two lots of one symbol. The cost basis is the
// quantity-weighted average, unknown if either lot lacks one.
func mergeLots(a, b models.Position) models.Position {
	qty := a.Quantity.Add(*b.Quantity)
	out := a
	out.Quantity = &qty
	out.AverageBuyPrice = nil
	if a.AverageBuyPrice != nil && b.AverageBuyPrice != nil {
		cost := a.Quantity.Mul(*a.AverageBuyPrice).Add(b.Quantity.Mul(*b.AverageBuyPrice))
		avg := cost.Div(qty)
		out.AverageBuyPrice = &avg
	}
	return out
}

// withPrice fills price, equity and percent change. Missing inputs leave the outputs nil.
func withPrice(p models.Position, price *decimal.Decimal) models.Position {
	if price == nil {
		return p
	}
	p.Price = price
	if p.Quantity != nil {
		eq := p.Quantity.Mul(*price).Round(2)
		p.Equity = &eq
	}
	if p.AverageBuyPrice != nil && !p.AverageBuyPrice.IsZero() {
		pct := price.Sub(*p.AverageBuyPrice).Div(*p.AverageBuyPrice).Mul(hundred).Round(2)
		p.PercentChange = &pct
	}
	return p
}

func parseDecimal(s string) *decimal.Decimal {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
