// Package utils holds small helpers for presentation-format domain names.
package utils

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// CanonicalDNSName lowercases and trims a presentation-format name and strips
// any trailing dots. The root name canonicalises to "".
func CanonicalDNSName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimRight(name, ".")
}

// GetApexDomain returns the registrable domain (eTLD+1) for name, falling back
// to the canonical name when the public suffix list cannot answer.
func GetApexDomain(name string) string {
	name = CanonicalDNSName(name)
	apex, err := publicsuffix.EffectiveTLDPlusOne(name)
	if err != nil {
		return name
	}
	return apex
}

// IsPublicSuffix reports whether name is itself a public suffix such as
// "com" or "co.uk". Only ICANN-managed and well-known private suffixes count.
func IsPublicSuffix(name string) bool {
	name = CanonicalDNSName(name)
	if name == "" {
		return true
	}
	suffix, _ := publicsuffix.PublicSuffix(name)
	return suffix == name
}

// ParentNames lists name followed by each ancestor, most specific first,
// stopping before the root. "a.b.c" yields ["a.b.c", "b.c", "c"].
func ParentNames(name string) []string {
	name = CanonicalDNSName(name)
	if name == "" {
		return nil
	}
	out := []string{name}
	for {
		i := strings.IndexByte(name, '.')
		if i < 0 {
			return out
		}
		name = name[i+1:]
		if name == "" {
			return out
		}
		out = append(out, name)
	}
}
