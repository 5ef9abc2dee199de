package domain

import (
	"fmt"
	"strings"
)

// BlockRuleKind defines how a rule matches names.
type BlockRuleKind uint8

const (
	// BlockRuleExact matches only the named domain.
	BlockRuleExact BlockRuleKind = iota
	// BlockRuleSuffix matches the domain and every name below it.
	BlockRuleSuffix
)

func (k BlockRuleKind) String() string {
	switch k {
	case BlockRuleExact:
		return "exact"
	case BlockRuleSuffix:
		return "suffix"
	default:
		return fmt.Sprintf("BlockRuleKind(%d)", k)
	}
}

// BlockRule is a single entry from a blocklist file. Name is canonical:
// lower case with no trailing dot.
type BlockRule struct {
	Name   string
	Kind   BlockRuleKind
	Source string
}

// Validate checks the rule for required fields and supported kinds.
func (r BlockRule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("rule name must not be empty")
	}
	if r.Kind != BlockRuleExact && r.Kind != BlockRuleSuffix {
		return fmt.Errorf("unsupported BlockRuleKind: %d", r.Kind)
	}
	return nil
}

// BlockDecision is the outcome of checking a name against the blocklist.
type BlockDecision struct {
	Blocked     bool
	MatchedRule string
	Source      string
	Kind        BlockRuleKind
}

// Allow is the not-blocked decision.
func Allow() BlockDecision { return BlockDecision{} }
