// Package optimizer holds the small helpers that keep the dashboard
// responsive: batching, debouncing, paging, chart thinning and request
// de-duplication.
package optimizer

import (
	"sort"
	"sync"
	"time"

	"MarketDashboard/internal/model"
)

const (
	DefaultDebounce   = 500 * time.Millisecond
	DefaultMaxRows    = 1000
	DefaultPageSize   = 20
	DefaultMaxPoints  = 1000
	DefaultDedupeTTL  = 5 * time.Minute
	DefaultSessionTTL = 30 * time.Minute
)

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = 1
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[i:end])
	}
	return out
}

// LimitRows caps a table at max rows for display.
func LimitRows[T any](rows []T, max int) []T {
	if max > 0 && len(rows) > max {
		return rows[:max]
	}
	return rows
}

// Page describes one page of a paginated listing.
type Page struct {
	Number     int `json:"page"`
	Size       int `json:"page_size"`
	TotalPages int `json:"total_pages"`
	Total      int `json:"total"`
	Start      int `json:"-"`
	End        int `json:"-"`
}

// Paginate clamps page (zero-based) into range and returns the slice bounds.
func Paginate(total, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := 0
	if total > 0 {
		pages = (total-1)/size + 1
	}
	if page >= pages {
		page = pages - 1
	}
	if page < 0 {
		page = 0
	}
	start := page * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return Page{Number: page, Size: size, TotalPages: pages, Total: total, Start: start, End: end}
}

// Downsample thins each symbol's series to roughly maxPoints by striding,
// always keeping the last bar of the series.
func Downsample(bars []model.HistoricalBar, maxPoints int) []model.HistoricalBar {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	groups := model.GroupBySymbol(bars)
	symbols := make([]string, 0, len(groups))
	for s := range groups {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	out := make([]model.HistoricalBar, 0, len(bars))
	for _, s := range symbols {
		out = append(out, downsampleSeries(groups[s], maxPoints)...)
	}
	return out
}

func downsampleSeries(series []model.HistoricalBar, maxPoints int) []model.HistoricalBar {
	if len(series) <= maxPoints {
		return series
	}
	step := len(series) / maxPoints
	out := make([]model.HistoricalBar, 0, maxPoints+1)
	for i := 0; i < len(series); i += step {
		out = append(out, series[i])
	}
	last := series[len(series)-1]
	if out[len(out)-1] != last {
		out = append(out, last)
	}
	return out
}

// Debouncer delays an action until input for its key has been quiet for
// the configured delay. A new call for the same key cancels the pending one.
type Debouncer struct {
	delay  time.Duration
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay, timers: make(map[string]*time.Timer)}
}

// Trigger schedules fn for key, replacing any pending call.
func (d *Debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.timers[key] == t {
			delete(d.timers, key)
		}
		d.mu.Unlock()
		fn()
	})
	d.timers[key] = t
}

// Pending returns the number of scheduled actions.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Deduper admits a request name at most once per TTL window.
type Deduper struct {
	ttl  time.Duration
	mu   sync.Mutex
	last map[string]time.Time
	now  func() time.Time
}

func NewDeduper(ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = DefaultDedupeTTL
	}
	return &Deduper{ttl: ttl, last: make(map[string]time.Time), now: time.Now}
}

// Allow reports whether the request should run, and records it if so.
// Windows that have already closed are dropped on the way.
func (d *Deduper) Allow(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	for k, t := range d.last {
		if now.Sub(t) >= d.ttl {
			delete(d.last, k)
		}
	}
	if _, ok := d.last[key]; ok {
		return false
	}
	d.last[key] = now
	return true
}

// Len returns the number of open windows.
func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.last)
}

// Forget clears the window for key, so the next Allow admits it.
func (d *Deduper) Forget(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.last, key)
}
