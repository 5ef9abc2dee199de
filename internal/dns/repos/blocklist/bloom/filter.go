// Package bloom adapts bits-and-blooms filters to blocklist.BloomFilter.
package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/rr-fwd/internal/dns/repos/blocklist"
)

// filter is filled once by the repository and then only read. Every Add
// happens before the filter is published, so reads need no lock.
type filter struct {
	bf *bitsbloom.BloomFilter
}

func (f *filter) Add(key []byte) { f.bf.Add(key) }

func (f *filter) MightContain(key []byte) bool { return f.bf.Test(key) }

var _ blocklist.BloomFilter = (*filter)(nil)
