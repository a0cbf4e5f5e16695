package storage

import (
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
)

// leveldbBackend is an alternative snapshot store for hosts that
// prefer goleveldb over pebble (e.g. lighter-weight deployments); kept
// alongside pebbleBackend as a second concrete Backend so the named-
// registry actually has more than one real implementation to select
// between, per config.StorageConfig.Backend.
type leveldbBackend struct {
	mu   sync.RWMutex
	path string
	db   *leveldb.DB
}

func newLevelDBBackend(path string) (Backend, error) {
	if path == "" {
		return nil, fmt.Errorf("storage: leveldb backend requires a path")
	}
	return &leveldbBackend{path: path}, nil
}

func init() { Register("leveldb", newLevelDBBackend) }

func (l *leveldbBackend) Name() string { return fmt.Sprintf("leveldb(%s)", l.path) }

func (l *leveldbBackend) Open() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	db, err := leveldb.OpenFile(l.path, nil)
	if err != nil {
		return fmt.Errorf("storage: opening leveldb at %s: %w", l.path, err)
	}
	l.db = db
	return nil
}

func (l *leveldbBackend) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

func (l *leveldbBackend) Get(key []byte) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, err := l.db.Get(key, nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (l *leveldbBackend) Put(key, value []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.db.Put(key, value, nil)
}

func (l *leveldbBackend) Delete(key []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.db.Delete(key, nil)
}
