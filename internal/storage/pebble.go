package storage

import (
	"fmt"
	"os"
	"sync"

	"github.com/cockroachdb/pebble"
)

// pebbleBackend is the production snapshot store: a local PebbleDB
// instance, grounded on the teacher's nodestore.PebbleBackend, trimmed
// of the node-hash/compression concerns that don't apply to a handful
// of whole-ledger snapshot blobs.
type pebbleBackend struct {
	mu   sync.RWMutex
	path string
	db   *pebble.DB
}

func newPebbleBackend(path string) (Backend, error) {
	if path == "" {
		return nil, fmt.Errorf("storage: pebble backend requires a path")
	}
	return &pebbleBackend{path: path}, nil
}

func init() { Register("pebble", newPebbleBackend) }

func (p *pebbleBackend) Name() string { return fmt.Sprintf("pebble(%s)", p.path) }

func (p *pebbleBackend) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.MkdirAll(p.path, 0o755); err != nil {
		return fmt.Errorf("storage: creating %s: %w", p.path, err)
	}
	db, err := pebble.Open(p.path, &pebble.Options{})
	if err != nil {
		return fmt.Errorf("storage: opening pebble at %s: %w", p.path, err)
	}
	p.db = db
	return nil
}

func (p *pebbleBackend) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

func (p *pebbleBackend) Get(key []byte) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	value, closer, err := p.db.Get(key)
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (p *pebbleBackend) Put(key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.db.Set(key, value, pebble.Sync)
}

func (p *pebbleBackend) Delete(key []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.db.Delete(key, pebble.Sync)
}
