package blocklist

import (
	"strings"
	"sync"

	"github.com/haukened/rr-fwd/internal/dns/common/utils"
	"github.com/haukened/rr-fwd/internal/dns/domain"
	"github.com/haukened/rr-fwd/internal/dns/services/resolver"
)

// Repository composes a Store, a Bloom filter and a DecisionCache. Reads go
// bloom → cache → store; writes swap all three together.
type Repository struct {
	mu      sync.RWMutex
	store   Store
	cache   DecisionCache
	bloom   BloomFilter
	factory BloomFactory
	fpRate  float64
}

// NewRepository constructs a Repository. fpRate is the target
// false-positive rate used whenever the Bloom filter is rebuilt.
func NewRepository(store Store, cache DecisionCache, factory BloomFactory, fpRate float64) *Repository {
	return &Repository{store: store, cache: cache, factory: factory, fpRate: fpRate}
}

// Decide checks the question's name label by label. A label holding a
// literal dot has no presentation form a rule could name, so such a name is
// judged only by suffix rules on the labels to its right.
func (r *Repository) Decide(q domain.Question) domain.BlockDecision {
	labels := q.Name.Lower()
	for i := len(labels) - 1; i >= 0; i-- {
		if strings.IndexByte(labels[i], '.') < 0 {
			continue
		}
		parent := labels[i+1:]
		if parent.IsRoot() {
			return domain.Allow()
		}
		if d := r.DecideName(parent.String()); d.Blocked && d.Kind == domain.BlockRuleSuffix {
			return d
		}
		return domain.Allow()
	}
	return r.DecideName(labels.String())
}

// DecideName returns the decision for a presentation-format name. Internal
// errors resolve to Allow.
func (r *Repository) DecideName(name string) domain.BlockDecision {
	cn := utils.CanonicalDNSName(name)
	if cn == "" {
		return domain.Allow()
	}
	if !r.checkBloom(cn) {
		return domain.Allow()
	}
	if d, ok := r.cache.Get(cn); ok {
		return d
	}
	dec := r.checkStore(cn)
	r.cache.Put(cn, dec)
	return dec
}

// UpdateAll replaces the rule set: the store is rebuilt, a fresh Bloom
// filter is sized for the new rules, and the decision cache is purged.
func (r *Repository) UpdateAll(rules []domain.BlockRule, version uint64, updatedUnix int64) error {
	if err := r.store.RebuildAll(rules, version, updatedUnix); err != nil {
		return err
	}

	bf := r.factory.New(uint64(len(rules)), r.fpRate)
	for _, ru := range rules {
		bf.Add(bloomKey(ru.Kind, ru.Name))
	}

	r.mu.Lock()
	r.bloom = bf
	r.cache.Purge()
	r.mu.Unlock()
	return nil
}

// Stats reports cache and store metrics.
func (r *Repository) Stats() RepoStats {
	return RepoStats{Cache: r.cache.Stats(), Store: r.store.Stats()}
}

// Close releases the store.
func (r *Repository) Close() error {
	return r.store.Close()
}

// bloomKey namespaces filter keys by rule kind so an exact rule never
// satisfies a suffix probe.
func bloomKey(kind domain.BlockRuleKind, name string) []byte {
	prefix := byte('=')
	if kind == domain.BlockRuleSuffix {
		prefix = '*'
	}
	return append([]byte{prefix}, name...)
}

// checkBloom reports whether the store might hold a rule for cn. Without a
// filter every name is a candidate.
func (r *Repository) checkBloom(cn string) bool {
	r.mu.RLock()
	bf := r.bloom
	r.mu.RUnlock()
	if bf == nil {
		return true
	}
	if bf.MightContain(bloomKey(domain.BlockRuleExact, cn)) {
		return true
	}
	for _, anchor := range utils.ParentNames(cn) {
		if bf.MightContain(bloomKey(domain.BlockRuleSuffix, anchor)) {
			return true
		}
	}
	return false
}

func (r *Repository) checkStore(cn string) domain.BlockDecision {
	rule, ok, err := r.store.GetFirstMatch(cn)
	if err != nil || !ok {
		return domain.Allow()
	}
	return domain.BlockDecision{Blocked: true, MatchedRule: rule.Name, Source: rule.Source, Kind: rule.Kind}
}

var _ resolver.Blocklist = (*Repository)(nil)
