// Package offline keeps the last good result of each dashboard load on disk
// so a session can keep working when the data provider is unreachable.
package offline

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"MarketDashboard/internal/format"
	"MarketDashboard/internal/model"
)

// DefaultMaxAge is how long a snapshot stays usable.
const DefaultMaxAge = 24 * time.Hour

const (
	typeTable  = "table"
	typeScalar = "scalar"
)

type snapshotFile struct {
	Type      string            `json:"type"`
	Table     model.PayloadKind `json:"table,omitempty"`
	Columns   []string          `json:"columns,omitempty"`
	Data      json.RawMessage   `json:"data"`
	Timestamp time.Time         `json:"timestamp"`
}

// SnapshotInfo describes one stored snapshot.
type SnapshotInfo struct {
	Key       string            `json:"key"`
	Type      string            `json:"type"`
	Table     model.PayloadKind `json:"table,omitempty"`
	Rows      int               `json:"rows"`
	Timestamp time.Time         `json:"timestamp"`
	Age       string            `json:"age"`
	Expired   bool              `json:"expired"`
}

// Store writes one JSON file per snapshot key.
type Store struct {
	mu     sync.Mutex
	dir    string
	maxAge time.Duration
	now    func() time.Time
}

// NewStore creates the snapshot directory if needed. A non-positive maxAge
// uses DefaultMaxAge.
func NewStore(dir string, maxAge time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create offline dir: %w", err)
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Store{dir: dir, maxAge: maxAge, now: time.Now}, nil
}

func (s *Store) path(key string) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(key)
	return filepath.Join(s.dir, name+".json")
}

// Save overwrites the snapshot for key.
func (s *Store) Save(key string, p model.Payload) error {
	file := snapshotFile{Timestamp: s.now()}
	var body any
	if p.IsTable() {
		records, err := p.Records()
		if err != nil {
			return fmt.Errorf("flatten %s: %w", key, err)
		}
		file.Type = typeTable
		file.Table = p.Kind
		file.Columns = p.Columns()
		body = records
	} else {
		file.Type = typeScalar
		body = p.Scalar
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	file.Data = data

	out, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.path(key), out, 0644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", key, err)
	}
	return nil
}

// Load returns the snapshot for key unless it is missing, unreadable, or
// older than the store's max age.
func (s *Store) Load(key string) (model.Payload, bool) {
	file, err := s.read(s.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[WARN] offline snapshot %s unreadable: %v", key, err)
		}
		return model.Payload{}, false
	}
	if s.now().Sub(file.Timestamp) > s.maxAge {
		return model.Payload{}, false
	}
	p, err := decode(file)
	if err != nil {
		log.Printf("[WARN] offline snapshot %s: %v", key, err)
		return model.Payload{}, false
	}
	return p, true
}

// Has reports whether a usable snapshot exists for key.
func (s *Store) Has(key string) bool {
	_, ok := s.Load(key)
	return ok
}

// Info lists stored snapshots ordered by key, including expired ones.
func (s *Store) Info() []SnapshotInfo {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		log.Printf("[WARN] list offline snapshots: %v", err)
		return nil
	}
	now := s.now()
	out := make([]SnapshotInfo, 0, len(paths))
	for _, path := range paths {
		file, err := s.read(path)
		if err != nil {
			continue
		}
		rows := 0
		var records []json.RawMessage
		if file.Type == typeTable && json.Unmarshal(file.Data, &records) == nil {
			rows = len(records)
		}
		out = append(out, SnapshotInfo{
			Key:       strings.TrimSuffix(filepath.Base(path), ".json"),
			Type:      file.Type,
			Table:     file.Table,
			Rows:      rows,
			Timestamp: file.Timestamp,
			Age:       format.AgeAt(file.Timestamp, now),
			Expired:   now.Sub(file.Timestamp) > s.maxAge,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (s *Store) read(path string) (*snapshotFile, error) {
	s.mu.Lock()
	data, err := os.ReadFile(path)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &file, nil
}

func decode(file *snapshotFile) (model.Payload, error) {
	switch file.Type {
	case typeTable:
		var records []map[string]any
		if err := json.Unmarshal(file.Data, &records); err != nil {
			return model.Payload{}, fmt.Errorf("decode rows: %w", err)
		}
		return model.TableFromRecords(file.Table, records)
	case typeScalar:
		var v map[string]any
		if err := json.Unmarshal(file.Data, &v); err != nil {
			return model.Payload{}, fmt.Errorf("decode value: %w", err)
		}
		return model.ScalarPayload(v), nil
	}
	return model.Payload{}, fmt.Errorf("unknown snapshot type %q", file.Type)
}
