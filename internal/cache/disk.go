package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

const diskExt = ".cache"

func (m *Manager) diskPath(key string) string {
	name := strings.NewReplacer("/", "-", `\`, "-").Replace(key)
	return filepath.Join(m.dir, name+diskExt)
}

func (m *Manager) readDisk(key string) (*entry, error) {
	data, err := os.ReadFile(m.diskPath(key))
	if err != nil {
		return nil, err
	}
	var e entry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &e, nil
}

func (m *Manager) writeDisk(key string, e *entry) error {
	data, err := msgpack.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return os.WriteFile(m.diskPath(key), data, 0644)
}

func (m *Manager) removeDisk(key string) {
	if err := os.Remove(m.diskPath(key)); err != nil && !os.IsNotExist(err) {
		logWarn("remove cache file %s: %v", key, err)
	}
}

func (m *Manager) clearDisk() {
	matches, err := filepath.Glob(filepath.Join(m.dir, "*"+diskExt))
	if err != nil {
		logWarn("list cache dir: %v", err)
		return
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logWarn("remove %s: %v", path, err)
		}
	}
}
