package ledger

import (
	"sync"

	"github.com/gagliardetto/solana-go"
)

const numShards = 16

// shardedMap is a sharded map keyed by address to reduce lock contention
// between readers and the committer.
type shardedMap[V any] struct {
	shards [numShards]shard[V]
}

type shard[V any] struct {
	mu    sync.RWMutex
	items map[solana.PublicKey]V
}

func newShardedMap[V any]() *shardedMap[V] {
	m := &shardedMap[V]{}
	for i := 0; i < numShards; i++ {
		m.shards[i].items = make(map[solana.PublicKey]V)
	}
	return m
}

func (m *shardedMap[V]) getShard(key solana.PublicKey) *shard[V] {
	return &m.shards[key[0]%numShards]
}

func (m *shardedMap[V]) Get(key solana.PublicKey) (V, bool) {
	s := m.getShard(key)
	s.mu.RLock()
	v, ok := s.items[key]
	s.mu.RUnlock()
	return v, ok
}

func (m *shardedMap[V]) Set(key solana.PublicKey, v V) {
	s := m.getShard(key)
	s.mu.Lock()
	s.items[key] = v
	s.mu.Unlock()
}

func (m *shardedMap[V]) Len() int {
	total := 0
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.RLock()
		total += len(m.shards[i].items)
		m.shards[i].mu.RUnlock()
	}
	return total
}

// Range iterates over all entries (acquires locks per shard)
func (m *shardedMap[V]) Range(f func(key solana.PublicKey, v V) bool) {
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.RLock()
		for k, v := range m.shards[i].items {
			if !f(k, v) {
				m.shards[i].mu.RUnlock()
				return
			}
		}
		m.shards[i].mu.RUnlock()
	}
}
