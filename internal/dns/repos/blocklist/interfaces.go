// Package blocklist decides whether a queried name is blocked. Lookups run
// through a Bloom prefilter, an LRU decision cache and finally the rule store.
package blocklist

import "github.com/haukened/rr-fwd/internal/dns/domain"

// BloomFilter is the minimal interface the repository needs from Bloom filters.
type BloomFilter interface {
	Add(key []byte)
	MightContain(key []byte) bool
}

// BloomFactory builds filters sized for a capacity and false-positive rate.
type BloomFactory interface {
	New(capacity uint64, fpRate float64) BloomFilter
}

// DecisionCache caches block decisions by canonical name with basic metrics.
type DecisionCache interface {
	Get(name string) (domain.BlockDecision, bool)
	Put(name string, d domain.BlockDecision)
	Len() int
	Purge()
	Stats() CacheStats
}

// Store is the authoritative rule index.
//   - RebuildAll atomically replaces every rule
//   - GetFirstMatch returns the exact rule for name, else the most specific
//     suffix rule covering it
type Store interface {
	RebuildAll(rules []domain.BlockRule, version uint64, updatedUnix int64) error
	GetFirstMatch(name string) (domain.BlockRule, bool, error)
	Stats() StoreStats
	Close() error
}
