package ledger

import "sync"

const numLockShards = 64

// KeyedMutex serializes units of work per numeric key. Distinct keys may
// share a shard, which only costs concurrency.
type KeyedMutex struct {
	shards [numLockShards]sync.Mutex
}

// Lock acquires the lock for key and returns its release func.
func (k *KeyedMutex) Lock(key uint64) func() {
	mu := &k.shards[key%numLockShards]
	mu.Lock()
	return mu.Unlock
}
