package main

import (
	"fmt"
	"os"
	"time"

	"github.com/haukened/rr-fwd/internal/dns/common/log"
	"github.com/haukened/rr-fwd/internal/dns/config"
	"github.com/haukened/rr-fwd/internal/dns/domain"
	"github.com/haukened/rr-fwd/internal/dns/repos/blocklist"
	"github.com/haukened/rr-fwd/internal/dns/repos/blocklist/bloom"
	"github.com/haukened/rr-fwd/internal/dns/repos/blocklist/bolt"
	"github.com/haukened/rr-fwd/internal/dns/repos/blocklist/lru"
	"github.com/haukened/rr-fwd/internal/dns/repos/blocklist/parsers"
	"github.com/haukened/rr-fwd/internal/dns/services/resolver"
)

// loadedBlocklist is the blocklist repository built at startup, or nil when
// no list files are configured.
type loadedBlocklist struct {
	repo *blocklist.Repository
}

func (b *loadedBlocklist) decider() resolver.Blocklist {
	if b == nil || b.repo == nil {
		return blocklist.NoopBlocklist{}
	}
	return b.repo
}

func (b *loadedBlocklist) Close() error {
	if b == nil || b.repo == nil {
		return nil
	}
	return b.repo.Close()
}

// loadBlocklist parses every configured list file and loads the rules into
// a repository backed by bbolt when blocklist_db is set, memory otherwise.
func loadBlocklist(cfg *config.AppConfig, logger log.Logger) (*loadedBlocklist, error) {
	if len(cfg.BlocklistFiles) == 0 {
		logger.Info(nil, "No blocklist files configured")
		return &loadedBlocklist{}, nil
	}

	var rules []domain.BlockRule
	for _, path := range cfg.BlocklistFiles {
		parsed, err := parseListFile(path, logger)
		if err != nil {
			return nil, err
		}
		logger.Info(map[string]any{"file": path, "rules": len(parsed)}, "Blocklist file parsed")
		rules = append(rules, parsed...)
	}

	store := blocklist.NewMemoryStore()
	if cfg.BlocklistDB != "" {
		s, err := bolt.New(cfg.BlocklistDB)
		if err != nil {
			return nil, fmt.Errorf("open blocklist db %s: %w", cfg.BlocklistDB, err)
		}
		store = s
	}

	cache, err := lru.New(cfg.BlocklistCacheSize)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	repo := blocklist.NewRepository(store, cache, bloom.NewFactory(), bloom.DefaultFPRate)
	now := time.Now().Unix()
	if err := repo.UpdateAll(rules, uint64(now), now); err != nil {
		_ = repo.Close()
		return nil, err
	}

	st := repo.Stats().Store
	logger.Info(map[string]any{
		"exact":    st.ExactKeys,
		"suffix":   st.SuffixKeys,
		"strategy": cfg.BlocklistStrategy,
		"db":       cfg.BlocklistDB,
	}, "Blocklist loaded")
	return &loadedBlocklist{repo: repo}, nil
}

func parseListFile(path string, logger log.Logger) ([]domain.BlockRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open blocklist file: %w", err)
	}
	defer f.Close()
	return parsers.ParseList(f, path, logger)
}
