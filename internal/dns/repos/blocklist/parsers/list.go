package parsers

import (
	"bufio"
	"fmt"
	"io"
	"net/netip"
	"strings"

	logpkg "github.com/haukened/rr-fwd/internal/dns/common/log"
	"github.com/haukened/rr-fwd/internal/dns/common/utils"
	"github.com/haukened/rr-fwd/internal/dns/domain"
)

type format uint8

const (
	formatAuto format = iota
	formatPlain
	formatHosts
)

// ParseList parses a file that may mix plain entries and hosts-style lines.
// A line whose first field is an IP address is read as a hosts entry;
// anything else is read as a plain entry.
func ParseList(r io.Reader, source string, logger logpkg.Logger) ([]domain.BlockRule, error) {
	return parse(r, source, logger, formatAuto)
}

// ParsePlainList parses a newline-delimited list of domains. Entries are
// exact unless they start with "*." or ".", which marks a suffix rule
// covering the name and everything below it.
func ParsePlainList(r io.Reader, source string, logger logpkg.Logger) ([]domain.BlockRule, error) {
	return parse(r, source, logger, formatPlain)
}

// ParseHostsFile parses /etc/hosts-style files. The address field is ignored
// and every following hostname becomes an exact rule. Wildcard tokens are
// skipped.
func ParseHostsFile(r io.Reader, source string, logger logpkg.Logger) ([]domain.BlockRule, error) {
	return parse(r, source, logger, formatHosts)
}

type listParser struct {
	source string
	logger logpkg.Logger
	seen   map[string]struct{}
	out    []domain.BlockRule
}

func parse(r io.Reader, source string, logger logpkg.Logger, f format) ([]domain.BlockRule, error) {
	if logger == nil {
		logger = logpkg.NewNoopLogger()
	}
	p := &listParser{
		source: source,
		logger: logger,
		seen:   make(map[string]struct{}),
		out:    make([]domain.BlockRule, 0, 256),
	}
	logger.Debug(map[string]any{"source": source}, "parse_list_start")

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := stripLineBOM(scanner.Text())
		if isEmpty, isComment := classifyLine(line); isEmpty || isComment {
			continue
		}
		fields := strings.Fields(stripInlineComment(line))
		if len(fields) == 0 {
			continue
		}

		switch {
		case f == formatHosts, f == formatAuto && isAddress(fields[0]):
			p.hostsLine(lineNum, fields)
		default:
			p.plainLine(lineNum, fields)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}

	logger.Debug(map[string]any{"source": source, "rules": len(p.out), "lines": lineNum}, "parse_list_done")
	return p.out, nil
}

func isAddress(field string) bool {
	_, err := netip.ParseAddr(field)
	return err == nil
}

func (p *listParser) plainLine(lineNum int, fields []string) {
	if len(fields) > 1 {
		p.logger.Debug(map[string]any{"line": lineNum, "fields": len(fields)}, "plain_extra_fields")
	}
	raw := fields[0]
	p.add(lineNum, normalizeDomainName(raw), ruleKindFromRaw(raw))
}

func (p *listParser) hostsLine(lineNum int, fields []string) {
	if len(fields) < 2 {
		p.logger.Debug(map[string]any{"line": lineNum}, "hosts_no_hostnames")
		return
	}
	for _, raw := range fields[1:] {
		if strings.HasPrefix(raw, ".") || strings.Contains(raw, "*") {
			p.logger.Debug(map[string]any{"line": lineNum, "raw": raw}, "hosts_skip_invalid_token")
			continue
		}
		p.add(lineNum, utils.CanonicalDNSName(raw), domain.BlockRuleExact)
	}
}

func (p *listParser) add(lineNum int, name string, kind domain.BlockRuleKind) {
	if !isValidFQDN(name) {
		p.logger.Debug(map[string]any{"line": lineNum, "name": name}, "skip_invalid_fqdn")
		return
	}
	// A suffix rule on a public suffix would block a whole TLD.
	if kind == domain.BlockRuleSuffix && utils.IsPublicSuffix(name) {
		p.logger.Warn(map[string]any{"line": lineNum, "name": name, "source": p.source}, "skip_public_suffix_rule")
		return
	}
	key := dedupKey(name, kind)
	if _, ok := p.seen[key]; ok {
		return
	}
	p.seen[key] = struct{}{}
	p.out = append(p.out, domain.BlockRule{Name: name, Kind: kind, Source: p.source})
}
