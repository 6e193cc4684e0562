package collector

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"MarketDashboard/internal/cache"
	"MarketDashboard/internal/model"
	"MarketDashboard/internal/optimizer"
)

// intradayPoints is how many hourly bars the short periods keep.
const intradayPoints = 48

// Options tunes the parallel snapshot fetch.
type Options struct {
	MaxWorkers  int
	BatchSize   int
	MaxAttempts int
	RetryBase   time.Duration // delay before the second attempt; doubles after
	BatchDelay  time.Duration // pause after each completed batch
	SymbolDelay time.Duration // pause between symbols of a batch

	// FlightTimeout bounds a shared fetch, which runs detached from the
	// cancellation of whichever caller started it.
	FlightTimeout time.Duration
}

// DefaultOptions returns the production fetch settings.
func DefaultOptions() Options {
	return Options{
		MaxWorkers:  15,
		BatchSize:   3,
		MaxAttempts: 3,
		RetryBase:   2100 * time.Millisecond,
		BatchDelay:    50 * time.Millisecond,
		SymbolDelay:   50 * time.Millisecond,
		FlightTimeout: 2 * time.Minute,
	}
}

// Collector retrieves universe, snapshot and historical data through the cache.
type Collector struct {
	Fetcher  Fetcher
	Universe UniverseSource
	Cache    *cache.Manager

	opts  Options
	group singleflight.Group

	onRetry func(batch []string, attempt int, next time.Duration)
}

// NewCollector creates a new Collector. A nil universe source always serves
// the fallback list.
func NewCollector(fetcher Fetcher, universe UniverseSource, c *cache.Manager, opts Options) *Collector {
	def := DefaultOptions()
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = def.MaxWorkers
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.FlightTimeout <= 0 {
		opts.FlightTimeout = def.FlightTimeout
	}
	return &Collector{Fetcher: fetcher, Universe: universe, Cache: c, opts: opts}
}

// share runs fn once for all concurrent callers of key. Each caller stops
// waiting when its own ctx is done; the shared work carries on for the rest.
func (c *Collector) share(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.FlightTimeout)
		defer cancel()
		return fn(fctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// ListUniverse returns the index membership sorted by company name. It never
// fails: when the source is unreachable the fallback list is served and cached.
// A caller that gives up early gets the fallback list without caching it.
func (c *Collector) ListUniverse(ctx context.Context) []model.CompanyRecord {
	if p, ok := c.Cache.Get(cache.CategoryUniverse, nil, nil); ok && p.Kind == model.KindCompanies {
		return p.Companies
	}

	v, err := c.share(ctx, string(cache.CategoryUniverse), func(ctx context.Context) (any, error) {
		var records []model.CompanyRecord
		var err error
		if c.Universe != nil {
			records, err = c.Universe.FetchUniverse(ctx)
		}
		if c.Universe == nil || err != nil || len(records) == 0 {
			if err != nil {
				log.Printf("[WARN] universe fetch failed, using fallback list: %v", err)
			}
			records = append([]model.CompanyRecord(nil), FallbackUniverse...)
		}
		SortByName(records)
		c.Cache.Put(model.CompaniesPayload(records), cache.CategoryUniverse, nil, nil)
		log.Printf("[INFO] universe loaded: %d companies", len(records))
		return records, nil
	})
	if err != nil {
		log.Printf("[WARN] universe request abandoned: %v", err)
		records := append([]model.CompanyRecord(nil), FallbackUniverse...)
		SortByName(records)
		return records
	}
	return v.([]model.CompanyRecord)
}

// Snapshot returns one row per symbol that could be fetched. Failing symbols
// and batches are dropped; only a fully empty result is an error (ErrNoData).
func (c *Collector) Snapshot(ctx context.Context, symbols []string) ([]model.QuoteSnapshot, error) {
	if len(symbols) == 0 {
		return []model.QuoteSnapshot{}, nil
	}
	return c.snapshot(ctx, cache.CategoryCompanyData, symbols)
}

// MarketOverview snapshots the curated sector universe. The rows go through
// Snapshot, so they also fill the company data entry for the same symbols.
func (c *Collector) MarketOverview(ctx context.Context) ([]model.QuoteSnapshot, error) {
	symbols := OverviewSymbols()
	if p, ok := c.Cache.Get(cache.CategoryMarketOverview, symbols, nil); ok && p.Kind == model.KindQuotes {
		log.Printf("[INFO] using cached %s for %d symbols", cache.CategoryMarketOverview, len(symbols))
		return p.Quotes, nil
	}
	rows, err := c.Snapshot(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("market overview: %w", err)
	}
	c.Cache.Put(model.QuotesPayload(rows), cache.CategoryMarketOverview, symbols, nil)
	return rows, nil
}

func (c *Collector) snapshot(ctx context.Context, category cache.Category, symbols []string) ([]model.QuoteSnapshot, error) {
	if p, ok := c.Cache.Get(category, symbols, nil); ok && p.Kind == model.KindQuotes {
		log.Printf("[INFO] using cached %s for %d symbols", category, len(symbols))
		return p.Quotes, nil
	}

	key := cache.Key(category, symbols, nil)
	v, err := c.share(ctx, key, func(ctx context.Context) (any, error) {
		start := time.Now()
		rows := c.fetchParallel(ctx, symbols)
		if len(rows) == 0 {
			return nil, fmt.Errorf("snapshot of %d symbols: %w", len(symbols), ErrNoData)
		}
		c.Cache.Put(model.QuotesPayload(rows), category, symbols, nil)
		log.Printf("[INFO] %s fetched: %d/%d symbols in %v", category, len(rows), len(symbols), time.Since(start).Round(time.Millisecond))
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.QuoteSnapshot), nil
}

// fetchParallel runs batches on a bounded pool and gathers results as they
// complete. Workers only return rows; the caller owns the cache.
func (c *Collector) fetchParallel(ctx context.Context, symbols []string) []model.QuoteSnapshot {
	batches := optimizer.Chunk(symbols, c.opts.BatchSize)
	results := make(chan []model.QuoteSnapshot, len(batches))

	go func() {
		var g errgroup.Group
		g.SetLimit(c.opts.MaxWorkers)
		for _, batch := range batches {
			batch := batch
			g.Go(func() error {
				results <- c.fetchBatchWithRetry(ctx, batch)
				return nil
			})
		}
		g.Wait()
		close(results)
	}()

	var rows []model.QuoteSnapshot
	for batchRows := range results {
		rows = append(rows, batchRows...)
		pause(ctx, c.opts.BatchDelay)
	}

	order := make(map[string]int, len(symbols))
	for i, s := range symbols {
		if _, ok := order[s]; !ok {
			order[s] = i
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return order[rows[i].Symbol] < order[rows[j].Symbol] })
	return rows
}

// fetchBatchWithRetry retries rate-limited batches with exponential backoff.
// Any other failure skips the batch at once; an exhausted batch yields no rows.
func (c *Collector) fetchBatchWithRetry(ctx context.Context, batch []string) []model.QuoteSnapshot {
	var rows []model.QuoteSnapshot
	attempt := 0

	op := func() error {
		attempt++
		r, err := c.fetchBatch(ctx, batch)
		if err != nil {
			if IsRateLimited(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		rows = r
		return nil
	}
	notify := func(err error, next time.Duration) {
		log.Printf("[WARN] batch %v rate limited (attempt %d/%d), retrying in %v", batch, attempt, c.opts.MaxAttempts, next)
		if c.onRetry != nil {
			c.onRetry(batch, attempt, next)
		}
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(c.opts.MaxAttempts-1)), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		log.Printf("[WARN] batch %v skipped after %d attempt(s): %v", batch, attempt, err)
		return nil
	}
	return rows
}

func (c *Collector) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.RetryBase
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = c.opts.RetryBase << uint(c.opts.MaxAttempts)
	b.MaxElapsedTime = 0
	return b
}

// fetchBatch fetches symbols one after another. A rate-limit error aborts the
// whole batch so it can be retried; other per-symbol errors drop the symbol.
func (c *Collector) fetchBatch(ctx context.Context, batch []string) ([]model.QuoteSnapshot, error) {
	var rows []model.QuoteSnapshot
	for i, sym := range batch {
		if i > 0 {
			if err := pause(ctx, c.opts.SymbolDelay); err != nil {
				return nil, err
			}
		}
		row, err := c.quote(ctx, sym)
		if err != nil {
			if IsRateLimited(err) {
				return nil, fmt.Errorf("%s: %w", sym, err)
			}
			log.Printf("[WARN] %s skipped: %v", sym, err)
			continue
		}
		if row != nil {
			rows = append(rows, *row)
		}
	}
	return rows, nil
}

// quote returns nil without error when the symbol has no recent bars.
func (c *Collector) quote(ctx context.Context, symbol string) (*model.QuoteSnapshot, error) {
	bars, err := c.Fetcher.FetchHistory(ctx, symbol, "5d", "1d")
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	if len(bars) == 0 {
		return nil, nil
	}
	info, err := c.Fetcher.FetchInfo(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("info: %w", err)
	}
	q := buildQuote(symbol, bars, info)
	return &q, nil
}

// Historical returns bars for every symbol that could be fetched, one symbol
// at a time. Failing symbols are logged and skipped.
func (c *Collector) Historical(ctx context.Context, symbols []string, period model.Period) ([]model.HistoricalBar, error) {
	if len(symbols) == 0 {
		return []model.HistoricalBar{}, nil
	}
	params := cache.Params{"period": string(period)}
	if p, ok := c.Cache.Get(cache.CategoryHistorical, symbols, params); ok && p.Kind == model.KindBars {
		log.Printf("[INFO] using cached historical data (%s) for %d symbols", period, len(symbols))
		return p.Bars, nil
	}

	v, err := c.share(ctx, cache.Key(cache.CategoryHistorical, symbols, params), func(ctx context.Context) (any, error) {
		var all []model.HistoricalBar
		for _, sym := range symbols {
			bars, err := c.history(ctx, sym, period)
			if err != nil {
				log.Printf("[WARN] historical %s (%s): %v", sym, period, err)
				continue
			}
			all = append(all, bars...)
		}
		if len(all) == 0 {
			return nil, fmt.Errorf("historical %s for %d symbols: %w", period, len(symbols), ErrNoData)
		}
		c.Cache.Put(model.BarsPayload(all), cache.CategoryHistorical, symbols, params)
		return all, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.HistoricalBar), nil
}

func (c *Collector) history(ctx context.Context, symbol string, period model.Period) ([]model.HistoricalBar, error) {
	switch {
	case period.Intraday():
		bars, err := c.Fetcher.FetchHistory(ctx, symbol, "5d", "1h")
		if err != nil {
			return nil, err
		}
		if len(bars) > intradayPoints {
			bars = bars[len(bars)-intradayPoints:]
		}
		return bars, nil
	case period == model.Period1Week:
		return c.Fetcher.FetchHistory(ctx, symbol, "5d", "1d")
	default:
		return c.Fetcher.FetchHistory(ctx, symbol, string(period), "1d")
	}
}

// CompanyInfo returns the detailed info bag, filling the price from the
// latest bar when the provider omits it.
func (c *Collector) CompanyInfo(ctx context.Context, symbol string) (*model.CompanyInfo, error) {
	v, err := c.share(ctx, "info_"+symbol, func(ctx context.Context) (any, error) {
		info, err := c.Fetcher.FetchInfo(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("company info %s: %w", symbol, err)
		}
		if info.Name == "" {
			info.Name = symbol
		}
		if info.CurrentPrice == 0 {
			if bars, err := c.Fetcher.FetchHistory(ctx, symbol, "5d", "1d"); err == nil && len(bars) > 0 {
				info.CurrentPrice = bars[len(bars)-1].Close
			}
		}
		return info, nil
	})
	if err != nil {
		return nil, err
	}
	info := *v.(*model.CompanyInfo)
	return &info, nil
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
