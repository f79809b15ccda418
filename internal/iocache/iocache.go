// Package iocache persists scored networks and tracked runs.
package iocache

import (
	"sync"

	"github.com/huangsam/discomfort/internal/contract"
)

// CacheStoreManager manages the score cache and the run store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	score        contract.CacheStore
	runs         contract.RunStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// NewCacheStoreManager wires already opened stores. Either may be nil.
func NewCacheStoreManager(score contract.CacheStore, runs contract.RunStore) *CacheStoreManager {
	return &CacheStoreManager{score: score, runs: runs}
}

// GetScoreStore returns the scored-network CacheStore.
func (mgr *CacheStoreManager) GetScoreStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.score
}

// GetRunStore returns the RunStore.
func (mgr *CacheStoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
