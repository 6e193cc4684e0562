// Package session holds per-client interactive dashboard state.
package session

import (
	"sync"
	"time"
)

// Default display settings for a new session.
const (
	DefaultDisplayCount = 20
	DefaultIdleTimeout  = 30 * time.Minute
)

// DisplayCounts are the allowed page sizes for the company list. Zero means all.
var DisplayCounts = []int{20, 50, 100, 200, 0}

// Notice levels.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
	LevelSuccess = "success"
)

// Recovery actions offered to the client after a failure.
const (
	RecoveryRetry   = "retry"
	RecoveryOffline = "offline"
	RecoveryReset   = "reset"
)

// Notice is a user-visible message attached to a session.
type Notice struct {
	Level    string    `json:"level"`
	Message  string    `json:"message"`
	Recovery []string  `json:"recovery,omitempty"`
	At       time.Time `json:"at"`
}

// Session is safe for concurrent use.
type Session struct {
	ID string

	mu           sync.Mutex
	selected     []string
	search       string
	displayCount int
	page         int
	offline      bool
	notices      []Notice
	loading      map[string]string
	lastSeen     time.Time
}

// State is a point-in-time copy of a session for rendering.
type State struct {
	ID           string            `json:"id"`
	Selected     []string          `json:"selected"`
	Search       string            `json:"search"`
	DisplayCount int               `json:"display_count"`
	Page         int               `json:"page"`
	Offline      bool              `json:"offline"`
	Notices      []Notice          `json:"notices"`
	Loading      map[string]string `json:"loading"`
	LastSeen     time.Time         `json:"last_seen"`
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:           id,
		selected:     []string{},
		displayCount: DefaultDisplayCount,
		loading:      map[string]string{},
		lastSeen:     now,
	}
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	loading := make(map[string]string, len(s.loading))
	for k, v := range s.loading {
		loading[k] = v
	}
	return State{
		ID:           s.ID,
		Selected:     append([]string{}, s.selected...),
		Search:       s.search,
		DisplayCount: s.displayCount,
		Page:         s.page,
		Offline:      s.offline,
		Notices:      append([]Notice{}, s.notices...),
		Loading:      loading,
		LastSeen:     s.lastSeen,
	}
}

func (s *Session) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.selected...)
}

// SetSelected replaces the selection, dropping blanks and duplicates.
func (s *Session) SetSelected(symbols []string) {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	s.mu.Lock()
	s.selected = out
	s.mu.Unlock()
}

// SetView stores the search box and list paging settings. Pages are zero-based.
func (s *Session) SetView(search string, displayCount, page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = search
	s.displayCount = displayCount
	if page < 0 {
		page = 0
	}
	s.page = page
}

func (s *Session) Offline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offline
}

func (s *Session) SetOffline(v bool) {
	s.mu.Lock()
	s.offline = v
	s.mu.Unlock()
}

// Notify appends a notice.
func (s *Session) Notify(level, message string, recovery ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, Notice{Level: level, Message: message, Recovery: recovery, At: time.Now()})
}

// DrainNotices returns and clears pending notices.
func (s *Session) DrainNotices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notices
	s.notices = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}

// SetLoading marks key as busy with a message, or clears it when message is empty.
func (s *Session) SetLoading(key, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if message == "" {
		delete(s.loading, key)
		return
	}
	s.loading[key] = message
}

func (s *Session) Loading(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.loading[key]
	return msg, ok
}

// Reset clears interactive state and leaves offline mode.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = []string{}
	s.search = ""
	s.displayCount = DefaultDisplayCount
	s.page = 0
	s.offline = false
	s.notices = nil
	s.loading = map[string]string{}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}
