package seeder

import (
	"hash/fnv"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Rana718/synthdb/internal/coherence"
)

// UniqueSet is the used-value set of one uniqueness constraint. Claim is the
// only way in: checking and inserting happen as one atomic step, so two
// workers can never both win the same value.
type UniqueSet interface {
	// Claim inserts key and reports whether it was not present before.
	Claim(key string) bool
	// Release gives back a key claimed for a value that was then discarded.
	Release(key string)
	Contains(key string) bool
	Len() int
	// Next returns the next value of the set's disambiguation counter.
	Next() int64
}

type syncedSet struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	counter atomic.Int64
}

// NewSyncedSet returns a UniqueSet guarded by a single mutex.
func NewSyncedSet() UniqueSet {
	return &syncedSet{seen: make(map[string]struct{})}
}

func (s *syncedSet) Claim(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

func (s *syncedSet) Release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, key)
}

func (s *syncedSet) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[key]
	return ok
}

func (s *syncedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func (s *syncedSet) Next() int64 {
	return s.counter.Add(1)
}

// shardedSet spreads keys over independently locked shards by hash, so
// workers claiming different values rarely contend.
type shardedSet struct {
	shards  []*syncedSet
	counter atomic.Int64
}

// NewShardedSet returns a UniqueSet split into n shards.
func NewShardedSet(n int) UniqueSet {
	if n < 1 {
		n = 1
	}
	s := &shardedSet{shards: make([]*syncedSet, n)}
	for i := range s.shards {
		s.shards[i] = &syncedSet{seen: make(map[string]struct{})}
	}
	return s
}

func (s *shardedSet) shard(key string) *syncedSet {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func (s *shardedSet) Claim(key string) bool    { return s.shard(key).Claim(key) }
func (s *shardedSet) Release(key string)       { s.shard(key).Release(key) }
func (s *shardedSet) Contains(key string) bool { return s.shard(key).Contains(key) }

func (s *shardedSet) Len() int {
	n := 0
	for _, sh := range s.shards {
		n += sh.Len()
	}
	return n
}

func (s *shardedSet) Next() int64 {
	return s.counter.Add(1)
}

// KeyEntry is one committed parent row as foreign keys see it: the values of
// the referenced columns and, for organization rows, the row's identity.
type KeyEntry struct {
	Values       []any
	Organization *coherence.Organization
}

// KeyPool holds the committed keys of one table for one referenced column
// set, in insertion order.
type KeyPool struct {
	mu      sync.RWMutex
	entries []KeyEntry
}

func (p *KeyPool) add(entries []KeyEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entries...)
}

// Len returns the number of committed keys.
func (p *KeyPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// At returns the i-th committed key.
func (p *KeyPool) At(i int) KeyEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.entries[i]
}

// Draw picks a key uniformly, or skewed toward early keys when skew > 0.
func (p *KeyPool) Draw(rng *rand.Rand, skew float64) (KeyEntry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := len(p.entries)
	if n == 0 {
		return KeyEntry{}, false
	}
	if skew <= 0 || n == 1 {
		return p.entries[rng.Intn(n)], true
	}
	z := rand.NewZipf(rng, 1+skew, 1, uint64(n-1))
	return p.entries[z.Uint64()], true
}

// Registry is the run's generation context: the committed key pools every
// foreign key draws from and the used-value sets of every uniqueness
// constraint. It only grows during a run.
type Registry struct {
	mu      sync.Mutex
	pools   map[string]*KeyPool
	sets    map[string]UniqueSet
	sharded int
}

// NewRegistry returns an empty registry. With shards > 1 the unique sets
// are sharded, otherwise each is a single synchronized map.
func NewRegistry(shards int) *Registry {
	return &Registry{
		pools:   make(map[string]*KeyPool),
		sets:    make(map[string]UniqueSet),
		sharded: shards,
	}
}

func registryKey(table string, columns []string) string {
	return table + "(" + strings.Join(columns, ",") + ")"
}

// Pool returns the key pool of a table's column set, creating it empty.
func (r *Registry) Pool(table string, columns []string) *KeyPool {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := registryKey(table, columns)
	p, ok := r.pools[key]
	if !ok {
		p = &KeyPool{}
		r.pools[key] = p
	}
	return p
}

// Unique returns the used-value set of a table's uniqueness constraint.
func (r *Registry) Unique(table string, columns []string) UniqueSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := registryKey(table, columns)
	s, ok := r.sets[key]
	if !ok {
		if r.sharded > 1 {
			s = NewShardedSet(r.sharded)
		} else {
			s = NewSyncedSet()
		}
		r.sets[key] = s
	}
	return s
}

// Commit publishes a finished table's keys for one referenced column set.
func (r *Registry) Commit(table string, columns []string, entries []KeyEntry) {
	r.Pool(table, columns).add(entries)
}
