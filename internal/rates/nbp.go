// Package rates provides the EUR/PLN exchange rate used for conversions.
//
// The rate comes from the NBP table A endpoint. Callers never see a fetch
// error: Rate falls back to the last good rate, then to the configured
// fallback.
package rates

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"wallet/internal/cache"
	"wallet/internal/currency"
	"wallet/internal/log"
)

const (
	DefaultURL = "https://api.nbp.pl/api/exchangerates/rates/a/eur/?format=json"

	cacheKey    = "EUR/PLN"
	maxBodySize = 64 << 10
)

var ErrNoRate = errors.New("no rate in response")

// Source tells where the current rate came from.
type Source string

const (
	SourceNBP      Source = "nbp"
	SourceFallback Source = "fallback"
)

// Info describes the rate currently in use.
type Info struct {
	Rate          decimal.Decimal `json:"rate"`
	Source        Source          `json:"source"`
	EffectiveDate string          `json:"effectiveDate,omitempty"`
	FetchedAt     *time.Time      `json:"fetchedAt,omitempty"`
}

type quote struct {
	rate          decimal.Decimal
	effectiveDate string
	fetchedAt     time.Time
}

// nbpResponse is the subset of the NBP rates document we read.
type nbpResponse struct {
	Code  string `json:"code"`
	Rates []struct {
		EffectiveDate string          `json:"effectiveDate"`
		Mid           decimal.Decimal `json:"mid"`
	} `json:"rates"`
}

// Provider fetches and caches the exchange rate.
type Provider struct {
	client   *http.Client
	url      string
	fallback decimal.Decimal
	cache    *cache.LRUCache[quote]
	group    singleflight.Group
	logger   *log.Logger
	now      func() time.Time

	mu   sync.RWMutex
	last *quote
}

type Option func(*Provider)

func WithHTTPClient(c *http.Client) Option { return func(p *Provider) { p.client = c } }
func WithLogger(l *log.Logger) Option      { return func(p *Provider) { p.logger = l } }
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// NewProvider creates a provider for url. A non-positive fallback is replaced
// by currency.DefaultRate.
func NewProvider(url string, fallback decimal.Decimal, ttl time.Duration, opts ...Option) *Provider {
	if url == "" {
		url = DefaultURL
	}
	p := &Provider{
		client:   &http.Client{Timeout: 10 * time.Second},
		url:      url,
		fallback: currency.RateOrDefault(fallback),
		logger:   log.Discard(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	p.logger = p.logger.WithComponent(log.ComponentRates)
	p.cache = cache.NewLRUCache[quote](1, ttl).WithClock(p.now)
	return p
}

// Cache exposes the rate cache so a cache.Manager can clean it.
func (p *Provider) Cache() cache.Cleaner { return p.cache }

// Rate returns a usable rate, fetching it when the cached one expired.
// Concurrent callers share one request. It never fails.
func (p *Provider) Rate(ctx context.Context) decimal.Decimal {
	if q, ok := p.cache.Get(cacheKey); ok {
		return q.rate
	}
	q, err := p.fetchShared(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "Could not fetch exchange rate, using fallback",
			log.FieldOperation, log.OpFetchRate,
			log.FieldError, err.Error(),
			log.FieldRate, p.Current().String())
		return p.Current()
	}
	return q.rate
}

// Refresh fetches the rate now, bypassing the cache, and reports failures.
func (p *Provider) Refresh(ctx context.Context) error {
	_, err := p.fetchShared(ctx)
	return err
}

// Current returns the cached or last good rate without any network access,
// or the fallback when none was fetched yet.
func (p *Provider) Current() decimal.Decimal {
	return p.Info().Rate
}

// Info describes the rate Current returns.
func (p *Provider) Info() Info {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return Info{Rate: p.fallback, Source: SourceFallback}
	}
	fetched := p.last.fetchedAt
	return Info{
		Rate:          p.last.rate,
		Source:        SourceNBP,
		EffectiveDate: p.last.effectiveDate,
		FetchedAt:     &fetched,
	}
}

func (p *Provider) fetchShared(ctx context.Context) (quote, error) {
	v, err, _ := p.group.Do(cacheKey, func() (any, error) {
		return p.fetch(ctx)
	})
	if err != nil {
		return quote{}, err
	}
	return v.(quote), nil
}

func (p *Provider) fetch(ctx context.Context) (quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return quote{}, fmt.Errorf("build rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return quote{}, fmt.Errorf("request rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return quote{}, fmt.Errorf("rate endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return quote{}, fmt.Errorf("read rate response: %w", err)
	}
	var doc nbpResponse
	if err := json.Unmarshal(body, &doc); err != nil {
		return quote{}, fmt.Errorf("decode rate response: %w", err)
	}
	if len(doc.Rates) == 0 {
		return quote{}, ErrNoRate
	}
	r := doc.Rates[0]
	if !r.Mid.IsPositive() {
		return quote{}, fmt.Errorf("%w: mid %s is not positive", ErrNoRate, r.Mid)
	}

	q := quote{rate: r.Mid, effectiveDate: r.EffectiveDate, fetchedAt: p.now()}
	p.cache.Set(cacheKey, q)
	p.mu.Lock()
	p.last = &q
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "Exchange rate updated",
		log.FieldOperation, log.OpFetchRate,
		log.FieldRate, q.rate.String(),
		"effective_date", q.effectiveDate)
	return q, nil
}
