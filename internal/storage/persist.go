package storage

import (
	"path/filepath"
	"strings"
	"time"
)

// backend reads and writes the topic map. order may be nil on load when the
// format does not keep it.
type backend interface {
	name() string
	load(path string) (map[string][]Item, []string, error)
	save(path string, topics map[string][]Item, order []string) error
}

func backendFor(path string) backend {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return sqliteBackend{}
	default:
		return jsonBackend{}
	}
}

// Load reads the data file at path and builds a Store from it. A missing,
// unreadable or malformed file is an error.
func Load(path string, opts ...Option) (*Store, error) {
	b := backendFor(path)
	start := time.Now()
	topics, order, err := b.load(path)
	if err != nil {
		return nil, err
	}
	s := newStore(topics, order, opts...)
	s.logger.Info("loaded topics", "path", path, "backend", b.name(), "topics", len(s.order), "took", time.Since(start))
	return s, nil
}

// Save writes the topics to path, replacing any existing file. The store
// lock is released before any file I/O starts.
func (s *Store) Save(path string) error {
	topics, order, err := s.contents()
	if err != nil {
		return err
	}
	b := backendFor(path)
	if err := b.save(path, topics, order); err != nil {
		s.logger.Error("save failed", "path", path, "backend", b.name(), "err", err)
		return err
	}
	s.logger.Info("saved topics", "path", path, "backend", b.name(), "topics", len(order))
	return nil
}
