package blocklist

import (
	"sync"

	"github.com/haukened/rr-fwd/internal/dns/common/utils"
	"github.com/haukened/rr-fwd/internal/dns/domain"
)

// memoryStore keeps rules in two maps keyed by canonical name. It is the
// default Store when no database path is configured.
type memoryStore struct {
	mu      sync.RWMutex
	exact   map[string]string
	suffix  map[string]string
	version uint64
	updated int64
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{exact: map[string]string{}, suffix: map[string]string{}}
}

func (s *memoryStore) RebuildAll(rules []domain.BlockRule, version uint64, updatedUnix int64) error {
	exact := make(map[string]string)
	suffix := make(map[string]string)
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return err
		}
		if r.Kind == domain.BlockRuleSuffix {
			suffix[r.Name] = r.Source
		} else {
			exact[r.Name] = r.Source
		}
	}
	s.mu.Lock()
	s.exact, s.suffix = exact, suffix
	s.version, s.updated = version, updatedUnix
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) GetFirstMatch(name string) (domain.BlockRule, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if src, ok := s.exact[name]; ok {
		return domain.BlockRule{Name: name, Kind: domain.BlockRuleExact, Source: src}, true, nil
	}
	for _, anchor := range utils.ParentNames(name) {
		if src, ok := s.suffix[anchor]; ok {
			return domain.BlockRule{Name: anchor, Kind: domain.BlockRuleSuffix, Source: src}, true, nil
		}
	}
	return domain.BlockRule{}, false, nil
}

func (s *memoryStore) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreStats{
		Version:     s.version,
		UpdatedUnix: s.updated,
		ExactKeys:   uint64(len(s.exact)),
		SuffixKeys:  uint64(len(s.suffix)),
	}
}

func (s *memoryStore) Close() error { return nil }
