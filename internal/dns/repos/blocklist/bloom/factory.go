package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/rr-fwd/internal/dns/repos/blocklist"
)

// DefaultFPRate is used when the requested rate is outside (0, 1).
const DefaultFPRate = 0.01

// factory implements blocklist.BloomFactory.
type factory struct{}

// NewFactory returns a BloomFactory that sizes filters from capacity and FP rate.
func NewFactory() blocklist.BloomFactory { return factory{} }

// New constructs a filter sized for capacity keys at fpRate. An empty rule
// set still gets a one-key filter.
func (factory) New(capacity uint64, fpRate float64) blocklist.BloomFilter {
	if capacity == 0 {
		capacity = 1
	}
	if !(fpRate > 0 && fpRate < 1) {
		fpRate = DefaultFPRate
	}
	return &filter{bf: bitsbloom.NewWithEstimates(uint(capacity), fpRate)}
}
