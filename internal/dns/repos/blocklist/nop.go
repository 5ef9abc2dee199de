package blocklist

import (
	"github.com/haukened/rr-fwd/internal/dns/domain"
	"github.com/haukened/rr-fwd/internal/dns/services/resolver"
)

// NoopBlocklist allows every question. It is used when no list files are
// configured.
type NoopBlocklist struct{}

func (NoopBlocklist) Decide(domain.Question) domain.BlockDecision {
	return domain.Allow()
}

var _ resolver.Blocklist = NoopBlocklist{}
