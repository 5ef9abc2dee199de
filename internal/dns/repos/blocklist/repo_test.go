package blocklist_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-fwd/internal/dns/domain"
	"github.com/haukened/rr-fwd/internal/dns/repos/blocklist"
	"github.com/haukened/rr-fwd/internal/dns/repos/blocklist/bloom"
	"github.com/haukened/rr-fwd/internal/dns/repos/blocklist/lru"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) RebuildAll(rules []domain.BlockRule, version uint64, updatedUnix int64) error {
	return m.Called(rules, version, updatedUnix).Error(0)
}

func (m *MockStore) GetFirstMatch(name string) (domain.BlockRule, bool, error) {
	args := m.Called(name)
	return args.Get(0).(domain.BlockRule), args.Bool(1), args.Error(2)
}

func (m *MockStore) Stats() blocklist.StoreStats {
	return m.Called().Get(0).(blocklist.StoreStats)
}

func (m *MockStore) Close() error { return m.Called().Error(0) }

var testRules = []domain.BlockRule{
	{Name: "tracker.example.com", Kind: domain.BlockRuleExact, Source: "exact.txt"},
	{Name: "ads.example", Kind: domain.BlockRuleSuffix, Source: "suffix.txt"},
}

func newRepo(t *testing.T) *blocklist.Repository {
	t.Helper()
	cache, err := lru.New(16)
	require.NoError(t, err)
	r := blocklist.NewRepository(blocklist.NewMemoryStore(), cache, bloom.NewFactory(), 0.01)
	require.NoError(t, r.UpdateAll(testRules, 1, 100))
	return r
}

func question(name string) domain.Question {
	return domain.Question{Name: domain.MustParseName(name), Type: domain.RRTypeA, Class: domain.RRClassIN}
}

func TestRepository_Decide(t *testing.T) {
	r := newRepo(t)

	tests := []struct {
		name    string
		blocked bool
		rule    string
		kind    domain.BlockRuleKind
		source  string
	}{
		{"tracker.example.com.", true, "tracker.example.com", domain.BlockRuleExact, "exact.txt"},
		{"TRACKER.Example.COM.", true, "tracker.example.com", domain.BlockRuleExact, "exact.txt"},
		{"sub.tracker.example.com.", false, "", 0, ""},
		{"ads.example.", true, "ads.example", domain.BlockRuleSuffix, "suffix.txt"},
		{"a.b.ads.example.", true, "ads.example", domain.BlockRuleSuffix, "suffix.txt"},
		{"example.com.", false, "", 0, ""},
		{".", false, "", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.Decide(question(tt.name))
			assert.Equal(t, tt.blocked, d.Blocked)
			if tt.blocked {
				assert.Equal(t, tt.rule, d.MatchedRule)
				assert.Equal(t, tt.kind, d.Kind)
				assert.Equal(t, tt.source, d.Source)
			}
		})
	}
}

func TestRepository_DecideDottedLabel(t *testing.T) {
	r := newRepo(t)
	q := func(labels ...string) domain.Question {
		return domain.Question{Name: domain.Name(labels), Type: domain.RRTypeA, Class: domain.RRClassIN}
	}

	// one label "tracker.example" under "com" is not tracker.example.com
	assert.False(t, r.Decide(q("tracker.example", "com")).Blocked)
	assert.False(t, r.Decide(q("tracker", "example.com")).Blocked)
	assert.False(t, r.Decide(q("a.b")).Blocked)

	d := r.Decide(q("x.y", "ADS", "example"))
	assert.True(t, d.Blocked)
	assert.Equal(t, "ads.example", d.MatchedRule)
	assert.Equal(t, domain.BlockRuleSuffix, d.Kind)

	// the exact rule names tracker.example.com itself, not its children
	assert.False(t, r.Decide(q("x.y", "tracker", "example", "com")).Blocked)
}

func TestRepository_CachesStoreDecisions(t *testing.T) {
	r := newRepo(t)

	assert.True(t, r.DecideName("x.ads.example").Blocked)
	assert.True(t, r.DecideName("x.ads.example").Blocked)

	st := r.Stats()
	assert.Equal(t, uint64(1), st.Cache.Hits)
	assert.Equal(t, 1, st.Cache.Size)
	assert.Equal(t, uint64(1), st.Store.ExactKeys)
	assert.Equal(t, uint64(1), st.Store.SuffixKeys)
	assert.Equal(t, uint64(1), st.Store.Version)
}

func TestRepository_BloomSkipsStoreForUnknownNames(t *testing.T) {
	store := &MockStore{}
	store.On("RebuildAll", mock.Anything, uint64(1), int64(0)).Return(nil)
	cache, err := lru.New(4)
	require.NoError(t, err)
	r := blocklist.NewRepository(store, cache, bloom.NewFactory(), 0.0001)
	require.NoError(t, r.UpdateAll(testRules, 1, 0))

	assert.False(t, r.DecideName("clean.example.org").Blocked)
	store.AssertNotCalled(t, "GetFirstMatch", mock.Anything)
}

func TestRepository_StoreErrorAllows(t *testing.T) {
	store := &MockStore{}
	store.On("GetFirstMatch", "ads.example").Return(domain.BlockRule{}, false, errors.New("io"))
	cache, err := lru.New(4)
	require.NoError(t, err)
	r := blocklist.NewRepository(store, cache, bloom.NewFactory(), 0.01)

	// No filter has been built yet, so every name reaches the store.
	assert.Equal(t, domain.Allow(), r.DecideName("ads.example"))
	store.AssertExpectations(t)
}

func TestRepository_UpdateAllReplacesRulesAndPurgesCache(t *testing.T) {
	r := newRepo(t)
	require.True(t, r.DecideName("tracker.example.com").Blocked)

	require.NoError(t, r.UpdateAll([]domain.BlockRule{{Name: "other.example", Kind: domain.BlockRuleExact}}, 2, 200))

	assert.False(t, r.DecideName("tracker.example.com").Blocked)
	assert.True(t, r.DecideName("other.example").Blocked)
	assert.Equal(t, uint64(2), r.Stats().Store.Version)
}

func TestRepository_UpdateAllStoreError(t *testing.T) {
	store := &MockStore{}
	store.On("RebuildAll", mock.Anything, uint64(3), int64(0)).Return(errors.New("disk full"))
	cache, err := lru.New(4)
	require.NoError(t, err)
	r := blocklist.NewRepository(store, cache, bloom.NewFactory(), 0.01)

	assert.EqualError(t, r.UpdateAll(testRules, 3, 0), "disk full")
}

func TestRepository_Close(t *testing.T) {
	store := &MockStore{}
	store.On("Close").Return(nil)
	r := blocklist.NewRepository(store, nil, bloom.NewFactory(), 0.01)
	require.NoError(t, r.Close())
	store.AssertExpectations(t)
}

func TestMemoryStore_RejectsInvalidRule(t *testing.T) {
	s := blocklist.NewMemoryStore()
	require.NoError(t, s.RebuildAll(testRules, 1, 1))
	require.Error(t, s.RebuildAll([]domain.BlockRule{{Name: ""}}, 2, 2))

	_, ok, err := s.GetFirstMatch("tracker.example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(1), s.Stats().Version)
	assert.NoError(t, s.Close())
}

func TestNoopBlocklist(t *testing.T) {
	assert.False(t, blocklist.NoopBlocklist{}.Decide(question("ads.example.")).Blocked)
}
