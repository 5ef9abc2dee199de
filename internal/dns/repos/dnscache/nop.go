package dnscache

import (
	"time"

	"github.com/haukened/rr-fwd/internal/dns/domain"
	"github.com/haukened/rr-fwd/internal/dns/services/resolver"
)

// NoopCache never stores anything. It backs the disable_cache setting.
type NoopCache struct{}

func (NoopCache) Lookup(domain.Question) (domain.ResourceRecord, time.Duration, bool) {
	return domain.ResourceRecord{}, 0, false
}

func (NoopCache) Put(domain.Question, domain.ResourceRecord) {}

var _ resolver.Cache = NoopCache{}
