package iocache

import (
	"fmt"
	"sync"

	"github.com/huangsam/discomfort/schema"
)

// scoreCacheTable is the table (or Redis key prefix) for scored networks.
const scoreCacheTable = "discomfort_score_cache"

// Global Manager instance for main logic.
var (
	Manager   = &CacheStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStores initializes the global manager with separate cache and run stores.
// An empty backend leaves the matching store unset.
func InitStores(cacheBackend schema.DatabaseBackend, cacheConnStr string, runBackend schema.DatabaseBackend, runConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		mgr, err := OpenStores(cacheBackend, cacheConnStr, runBackend, runConnStr)
		if err != nil {
			initErr = err
			return
		}
		Manager.Lock()
		defer Manager.Unlock()
		Manager.score = mgr.score
		Manager.runs = mgr.runs
	})

	return initErr
}

// OpenStores opens a cache store and a run store outside the global manager.
func OpenStores(cacheBackend schema.DatabaseBackend, cacheConnStr string, runBackend schema.DatabaseBackend, runConnStr string) (*CacheStoreManager, error) {
	mgr := &CacheStoreManager{}
	if cacheBackend != "" {
		store, err := NewCacheStore(scoreCacheTable, cacheBackend, cacheConnStr)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize score caching: %w", err)
		}
		mgr.score = store
	}
	if runBackend != "" {
		store, err := NewRunStore(runBackend, runConnStr)
		if err != nil {
			if mgr.score != nil {
				_ = mgr.score.Close()
			}
			return nil, fmt.Errorf("failed to initialize run store: %w", err)
		}
		mgr.runs = store
	}
	return mgr, nil
}

// Close closes both stores of the manager.
func (mgr *CacheStoreManager) Close() {
	mgr.Lock()
	defer mgr.Unlock()
	if mgr.score != nil {
		_ = mgr.score.Close()
	}
	if mgr.runs != nil {
		_ = mgr.runs.Close()
	}
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(Manager.Close)
}
