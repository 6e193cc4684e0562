package cache

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"MarketDashboard/internal/model"
)

// Category groups cached values that share an expiry.
type Category string

const (
	CategoryUniverse       Category = "universe"
	CategoryMarketOverview Category = "market_overview"
	CategoryCompanyData    Category = "company_data"
	CategoryHistorical     Category = "historical_data"
	CategorySectorData     Category = "sector_data"
)

// DefaultTTL applies to categories without a configured expiry.
const DefaultTTL = 5 * time.Minute

// DefaultExpiry returns the built-in expiry per category.
func DefaultExpiry() map[Category]time.Duration {
	return map[Category]time.Duration{
		CategoryUniverse:       time.Hour,
		CategoryMarketOverview: 5 * time.Minute,
		CategoryCompanyData:    time.Minute,
		CategoryHistorical:     30 * time.Minute,
		CategorySectorData:     5 * time.Minute,
	}
}

// Durable categories are also written to disk.
var durable = map[Category]bool{
	CategoryUniverse:   true,
	CategoryHistorical: true,
}

type entry struct {
	Payload  model.Payload `msgpack:"payload"`
	StoredAt time.Time     `msgpack:"stored_at"`
	Category Category      `msgpack:"category"`
}

// Stats is a point-in-time view of the memory tier.
type Stats struct {
	TotalItems int            `json:"total_items"`
	Categories map[string]int `json:"categories"`
	Directory  string         `json:"cache_directory"`
	Hits       int64          `json:"hits"`
	Misses     int64          `json:"misses"`
}

// Manager is a two-tier TTL cache: an in-process map backed, for durable
// categories, by one file per key. Safe for concurrent use.
type Manager struct {
	dir    string
	expiry map[Category]time.Duration

	mu     sync.Mutex
	memory map[string]*entry
	hits   int64
	misses int64

	now func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates the cache directory if needed. Categories missing from
// expiry use the built-in defaults.
func NewManager(dir string, expiry map[Category]time.Duration, opts ...Option) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	merged := DefaultExpiry()
	for c, d := range expiry {
		if d > 0 {
			merged[c] = d
		}
	}
	m := &Manager{
		dir:    dir,
		expiry: merged,
		memory: make(map[string]*entry),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// TTL returns the expiry for a category.
func (m *Manager) TTL(c Category) time.Duration {
	if d, ok := m.expiry[c]; ok {
		return d
	}
	return DefaultTTL
}

func (m *Manager) valid(e *entry) bool {
	return m.now().Sub(e.StoredAt) < m.TTL(e.Category)
}

// Get returns the cached payload for a request shape, if present and unexpired.
func (m *Manager) Get(category Category, symbols []string, params Params) (model.Payload, bool) {
	key := Key(category, symbols, params)

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.memory[key]; ok {
		if m.valid(e) {
			m.hits++
			return e.Payload, true
		}
		delete(m.memory, key)
	}

	if durable[category] {
		e, err := m.readDisk(key)
		switch {
		case err == nil && m.valid(e):
			m.memory[key] = e
			m.hits++
			return e.Payload, true
		case err == nil:
			m.removeDisk(key)
		case !os.IsNotExist(err):
			logWarn("corrupted cache file %s, removing: %v", key, err)
			m.removeDisk(key)
		}
	}

	m.misses++
	return model.Payload{}, false
}

// Put stores a payload under the request shape. Disk failures are logged and
// do not fail the call.
func (m *Manager) Put(payload model.Payload, category Category, symbols []string, params Params) {
	key := Key(category, symbols, params)
	e := &entry{Payload: payload, StoredAt: m.now(), Category: category}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.memory[key] = e
	if durable[category] {
		if err := m.writeDisk(key, e); err != nil {
			logWarn("write cache file %s: %v", key, err)
		}
	}
}

// Invalidate with an empty category clears both tiers. Otherwise it drops
// memory entries of that category, limited to keys mentioning any of the
// given symbols when symbols are passed. Disk entries of a category survive.
func (m *Manager) Invalidate(category Category, symbols ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if category == "" {
		m.memory = make(map[string]*entry)
		m.clearDisk()
		log.Println("[INFO] cache cleared")
		return
	}

	removed := 0
	for key := range m.memory {
		if !strings.HasPrefix(key, string(category)) {
			continue
		}
		if len(symbols) > 0 && !containsAny(key, symbols) {
			continue
		}
		delete(m.memory, key)
		removed++
	}
	log.Printf("[INFO] cache invalidated: category=%s removed=%d", category, removed)
}

// SweepExpired drops expired memory entries and returns how many were removed.
func (m *Manager) SweepExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, e := range m.memory {
		if !m.valid(e) {
			delete(m.memory, key)
			removed++
		}
	}
	return removed
}

// Stats reports the memory tier contents and hit counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	cats := make(map[string]int)
	for _, e := range m.memory {
		cats[string(e.Category)]++
	}
	return Stats{
		TotalItems: len(m.memory),
		Categories: cats,
		Directory:  m.dir,
		Hits:       m.hits,
		Misses:     m.misses,
	}
}

func containsAny(key string, symbols []string) bool {
	for _, s := range symbols {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

func logWarn(format string, args ...any) {
	log.Printf("[WARN] "+format, args...)
}
